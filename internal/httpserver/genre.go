package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Cleamaster322/library/internal/transport"
	"github.com/Cleamaster322/library/pkg/logging"
)

func (h *CatalogHTTP) ListGenres(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "genre.list")

	genres, err := h.Svc.ListGenres(ctx)
	if err != nil {
		return catalogError(l, "list_genres_error", err)
	}
	return c.JSON(http.StatusOK, genres)
}

func (h *CatalogHTTP) GetGenre(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "genre.get")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	genre, err := h.Svc.GetGenre(ctx, id)
	if err != nil {
		return catalogError(l, "get_genre_error", err)
	}
	return c.JSON(http.StatusOK, genre)
}

func (h *CatalogHTTP) CreateGenre(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "genre.create")

	var req transport.GenreRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_genre_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	genre, err := h.Svc.CreateGenre(ctx, req)
	if err != nil {
		return catalogError(l, "create_genre_error", err)
	}

	l.Info("create_genre_success", "genre_id", genre.ID)
	return c.JSON(http.StatusCreated, genre)
}

func (h *CatalogHTTP) ReplaceGenre(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "genre.replace")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req transport.GenreRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("replace_genre_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	genre, err := h.Svc.ReplaceGenre(ctx, id, req)
	if err != nil {
		return catalogError(l, "replace_genre_error", err)
	}
	return c.JSON(http.StatusOK, genre)
}

func (h *CatalogHTTP) PatchGenre(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "genre.patch")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req transport.GenrePatchRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_genre_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	genre, err := h.Svc.PatchGenre(ctx, id, req)
	if err != nil {
		return catalogError(l, "patch_genre_error", err)
	}
	return c.JSON(http.StatusOK, genre)
}

func (h *CatalogHTTP) DeleteGenre(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "genre.delete")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteGenre(ctx, id); err != nil {
		return catalogError(l, "delete_genre_error", err)
	}

	l.Info("delete_genre_success", "genre_id", id)
	return c.NoContent(http.StatusNoContent)
}
