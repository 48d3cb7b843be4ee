package loggingmw

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Cleamaster322/library/pkg/logging"
)

const anonymous = "Anonymous"

// UserFunc names the caller of a request, or returns "" when there is none.
type UserFunc func(c echo.Context) string

// RequestLogger writes one record before the handler runs and one after it.
// It must run after the authentication middleware so the caller is known.
func RequestLogger(base *slog.Logger, user UserFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			rid := c.Response().Header().Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = req.Header.Get(echo.HeaderXRequestID)
			}

			who := ""
			if user != nil {
				who = user(c)
			}
			if who == "" {
				who = anonymous
			}

			l := base.With("request_id", rid)
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			safeLog(func() {
				l.Info("request_started",
					"method", req.Method,
					"remote_ip", c.RealIP(),
					"path", req.URL.Path,
					"user", who,
				)
			})

			start := time.Now()
			err := serve(next, c)
			dur := time.Since(start)

			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status

			safeLog(func() {
				attrs := []any{
					"method", req.Method,
					"path", req.URL.Path,
					"status", status,
					"duration_ms", dur.Milliseconds(),
				}
				switch {
				case status >= 500:
					if err != nil {
						attrs = append(attrs, "error", err.Error())
					}
					l.Error("request_completed", attrs...)
				case status >= 400:
					l.Warn("request_completed", attrs...)
				default:
					l.Info("request_completed", append(attrs, "bytes", c.Response().Size)...)
				}
			})
			return nil
		}
	}
}

// serve runs the handler and turns a panic into an error, so the
// completion record is still written with a 500.
func serve(next echo.HandlerFunc, c echo.Context) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if r == http.ErrAbortHandler {
			panic(r)
		}
		perr, ok := r.(error)
		if !ok {
			perr = fmt.Errorf("%v", r)
		}
		err = fmt.Errorf("[PANIC RECOVER] %w", perr)
	}()
	return next(c)
}

// safeLog keeps a failing log sink from affecting the response.
func safeLog(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
