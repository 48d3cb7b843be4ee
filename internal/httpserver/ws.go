package httpserver

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/Cleamaster322/library/internal/notify"
	authmw "github.com/Cleamaster322/library/pkg/middleware/auth"
	"github.com/Cleamaster322/library/pkg/logging"
)

type WSHTTP struct {
	Hub *notify.Hub
}

// Books subscribes the caller to catalog events. Anonymous callers are allowed.
func (h *WSHTTP) Books(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "ws.books")

	if !websocket.IsWebSocketUpgrade(c.Request()) {
		l.Warn("ws_connect_error", "status", 400, "reason", "not a websocket handshake")
		return echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade required")
	}

	ident := notify.Identity{UserID: authmw.UserID(c), Role: authmw.Role(c)}
	if err := h.Hub.Serve(c.Response(), c.Request(), notify.TopicBooks, ident); err != nil {
		l.Warn("ws_connect_error", "reason", "upgrade failed", "error", err)
		return nil
	}
	c.Response().Status = http.StatusSwitchingProtocols
	return nil
}
