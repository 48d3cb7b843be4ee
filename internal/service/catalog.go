package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Cleamaster322/library/internal/models"
	"github.com/Cleamaster322/library/internal/notify"
	"github.com/Cleamaster322/library/internal/repo"
	"github.com/Cleamaster322/library/internal/transport"
)

type CatalogService struct {
	Repo      *repo.GormRepo
	Validator *transport.Validator
	Publisher notify.Publisher

	// Now stamps events; nil means time.Now.
	Now func() time.Time
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// publish runs after the store has committed; delivery problems never fail the request.
func (s *CatalogService) publish(ctx context.Context, ev notify.Event) {
	if s.Publisher != nil {
		s.Publisher.Publish(ctx, ev)
	}
}

func (s *CatalogService) validate(req any) error {
	if err := s.Validator.Validate(req); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	return nil
}

func storeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrGenreNotFound):
		return ErrGenreNotFound
	case errors.Is(err, repo.ErrInvalidOrdering):
		return fmt.Errorf("%w: ordering must be one of title, -title, id, -id", ErrValidation)
	default:
		return err
	}
}

func (s *CatalogService) ListBooks(ctx context.Context, q transport.BookQuery) ([]models.Book, error) {
	f := repo.BookFilter{
		Author:   q.Author,
		Search:   q.Search,
		Ordering: strings.TrimSpace(q.Ordering),
	}
	if g := strings.TrimSpace(q.Genre); g != "" {
		id, err := strconv.ParseUint(g, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: genre must be a genre id", ErrValidation)
		}
		gid := uint(id)
		f.GenreID = &gid
	}

	books, err := s.Repo.ListBooks(ctx, f)
	return books, storeErr(err)
}

func (s *CatalogService) GetBook(ctx context.Context, id uint) (*models.Book, error) {
	book, err := s.Repo.GetBook(ctx, id)
	return book, storeErr(err)
}

func (s *CatalogService) CreateBook(ctx context.Context, req transport.BookRequest) (*models.Book, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	book := &models.Book{
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Description: req.Description,
	}
	if err := s.Repo.CreateBook(ctx, book, req.Genres); err != nil {
		return nil, storeErr(err)
	}

	s.publish(ctx, notify.BookEvent(notify.ActionAdd, book.ID, s.now()))
	return book, nil
}

// ReplaceBook overwrites every field, including the genre set.
func (s *CatalogService) ReplaceBook(ctx context.Context, id uint, req transport.BookRequest) (*models.Book, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	author := strings.TrimSpace(req.Author)
	genres := req.Genres
	if genres == nil {
		genres = []uint{}
	}
	return s.updateBook(ctx, id, repo.BookChanges{
		Title:       &title,
		Author:      &author,
		Description: &req.Description,
		GenreIDs:    &genres,
	})
}

func (s *CatalogService) PatchBook(ctx context.Context, id uint, req transport.BookPatchRequest) (*models.Book, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	ch := repo.BookChanges{Description: req.Description, GenreIDs: req.Genres}
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		ch.Title = &t
	}
	if req.Author != nil {
		a := strings.TrimSpace(*req.Author)
		ch.Author = &a
	}
	return s.updateBook(ctx, id, ch)
}

func (s *CatalogService) updateBook(ctx context.Context, id uint, ch repo.BookChanges) (*models.Book, error) {
	book, err := s.Repo.UpdateBook(ctx, id, ch)
	if err != nil {
		return nil, storeErr(err)
	}
	s.publish(ctx, notify.BookEvent(notify.ActionUpdate, book.ID, s.now()))
	return book, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteBook(ctx, id); err != nil {
		return storeErr(err)
	}
	s.publish(ctx, notify.BookEvent(notify.ActionDelete, id, s.now()))
	return nil
}

func (s *CatalogService) ListGenres(ctx context.Context) ([]models.Genre, error) {
	return s.Repo.ListGenres(ctx)
}

func (s *CatalogService) GetGenre(ctx context.Context, id uint) (*models.Genre, error) {
	genre, err := s.Repo.GetGenre(ctx, id)
	return genre, storeErr(err)
}

func (s *CatalogService) CreateGenre(ctx context.Context, req transport.GenreRequest) (*models.Genre, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	genre := &models.Genre{Name: strings.TrimSpace(req.Name)}
	if err := s.Repo.CreateGenre(ctx, genre); err != nil {
		return nil, err
	}
	s.publish(ctx, notify.GenreEvent(notify.ActionAdd, genre.ID, s.now()))
	return genre, nil
}

func (s *CatalogService) ReplaceGenre(ctx context.Context, id uint, req transport.GenreRequest) (*models.Genre, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return s.renameGenre(ctx, id, strings.TrimSpace(req.Name))
}

func (s *CatalogService) PatchGenre(ctx context.Context, id uint, req transport.GenrePatchRequest) (*models.Genre, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if req.Name == nil {
		return s.GetGenre(ctx, id)
	}
	return s.renameGenre(ctx, id, strings.TrimSpace(*req.Name))
}

func (s *CatalogService) renameGenre(ctx context.Context, id uint, name string) (*models.Genre, error) {
	genre, err := s.Repo.UpdateGenre(ctx, id, name)
	if err != nil {
		return nil, storeErr(err)
	}
	s.publish(ctx, notify.GenreEvent(notify.ActionUpdate, genre.ID, s.now()))
	return genre, nil
}

func (s *CatalogService) DeleteGenre(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteGenre(ctx, id); err != nil {
		return storeErr(err)
	}
	s.publish(ctx, notify.GenreEvent(notify.ActionDelete, id, s.now()))
	return nil
}
