package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Cleamaster322/library/internal/service"
	"github.com/Cleamaster322/library/internal/transport"
	"github.com/Cleamaster322/library/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

// catalogError maps service errors to HTTP errors and logs them under event.
func catalogError(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "reason", err.Error())
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrGenreNotFound):
		l.Warn(event, "status", 400, "reason", err.Error())
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

func (h *CatalogHTTP) ListBooks(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.list")

	q := transport.BookQuery{
		Author:   c.QueryParam("author"),
		Genre:    c.QueryParam("genre"),
		Search:   c.QueryParam("search"),
		Ordering: c.QueryParam("ordering"),
	}
	books, err := h.Svc.ListBooks(ctx, q)
	if err != nil {
		return catalogError(l, "list_books_error", err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *CatalogHTTP) GetBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.get")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	book, err := h.Svc.GetBook(ctx, id)
	if err != nil {
		return catalogError(l, "get_book_error", err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *CatalogHTTP) CreateBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.create")

	var req transport.BookRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_book_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	book, err := h.Svc.CreateBook(ctx, req)
	if err != nil {
		return catalogError(l, "create_book_error", err)
	}

	l.Info("create_book_success", "book_id", book.ID)
	return c.JSON(http.StatusCreated, book)
}

func (h *CatalogHTTP) ReplaceBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.replace")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req transport.BookRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("replace_book_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	book, err := h.Svc.ReplaceBook(ctx, id, req)
	if err != nil {
		return catalogError(l, "replace_book_error", err)
	}

	l.Info("replace_book_success", "book_id", book.ID)
	return c.JSON(http.StatusOK, book)
}

func (h *CatalogHTTP) PatchBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.patch")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req transport.BookPatchRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_book_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	book, err := h.Svc.PatchBook(ctx, id, req)
	if err != nil {
		return catalogError(l, "patch_book_error", err)
	}

	l.Info("patch_book_success", "book_id", book.ID)
	return c.JSON(http.StatusOK, book)
}

func (h *CatalogHTTP) DeleteBook(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "book.delete")

	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteBook(ctx, id); err != nil {
		return catalogError(l, "delete_book_error", err)
	}

	l.Info("delete_book_success", "book_id", id)
	return c.NoContent(http.StatusNoContent)
}
