package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/Cleamaster322/library/internal/transport"
	pkgdb "github.com/Cleamaster322/library/pkg/db"
	authmw "github.com/Cleamaster322/library/pkg/middleware/auth"
	loggingmw "github.com/Cleamaster322/library/pkg/middleware/logging"
	"github.com/Cleamaster322/library/pkg/tokens"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	WSHandler      *WSHTTP

	Issuer    *tokens.Issuer
	Validator *transport.Validator
	DB        *gorm.DB
	Logger    *slog.Logger

	// AuthRate is requests per second allowed per client on /login and /register.
	// Zero disables the limiter.
	AuthRate  float64
	AuthBurst int
}

// New builds the echo instance with the full middleware chain and every route.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	if d.Validator != nil {
		e.Validator = d.Validator
	}

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(authmw.Authenticate(d.Issuer))
	e.Use(loggingmw.RequestLogger(d.Logger, authmw.UserID))
	e.Use(echomw.CORS())

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := pkgdb.Ping(ctx, d.DB); err != nil {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	var limit []echo.MiddlewareFunc
	if d.AuthRate > 0 {
		limit = append(limit, authRateLimiter(d.AuthRate, d.AuthBurst))
	}
	e.POST("/register", d.AuthHandler.Register, limit...)
	e.POST("/login", d.AuthHandler.Login, limit...)
	e.POST("/refresh", d.AuthHandler.Refresh)
	e.POST("/logout", d.AuthHandler.Logout)

	books := e.Group("/books")
	books.GET("", d.CatalogHandler.ListBooks)
	books.GET("/:id", d.CatalogHandler.GetBook)
	books.POST("", d.CatalogHandler.CreateBook, authmw.RequireAuth)
	books.PUT("/:id", d.CatalogHandler.ReplaceBook, authmw.RequireAuth)
	books.PATCH("/:id", d.CatalogHandler.PatchBook, authmw.RequireAuth)
	books.DELETE("/:id", d.CatalogHandler.DeleteBook, authmw.RequireAdmin)

	genres := e.Group("/genres")
	genres.GET("", d.CatalogHandler.ListGenres)
	genres.GET("/:id", d.CatalogHandler.GetGenre)
	genres.POST("", d.CatalogHandler.CreateGenre, authmw.RequireAuth)
	genres.PUT("/:id", d.CatalogHandler.ReplaceGenre, authmw.RequireAuth)
	genres.PATCH("/:id", d.CatalogHandler.PatchGenre, authmw.RequireAuth)
	genres.DELETE("/:id", d.CatalogHandler.DeleteGenre, authmw.RequireAdmin)

	e.GET("/ws/books", d.WSHandler.Books)
}

func authRateLimiter(perSecond float64, burst int) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "cannot identify client")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "request was throttled")
		},
	})
}
