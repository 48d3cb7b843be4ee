package repo

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Cleamaster322/library/internal/models"
)

var ErrInvalidOrdering = errors.New("invalid ordering")

var orderings = map[string]string{
	"":       "books.id ASC",
	"id":     "books.id ASC",
	"-id":    "books.id DESC",
	"title":  "books.title ASC",
	"-title": "books.title DESC",
}

type BookFilter struct {
	Author   string
	GenreID  *uint
	Search   string
	Ordering string
}

// BookChanges carries the fields of an update. Nil fields are left alone.
// A non-nil GenreIDs replaces the whole genre set.
type BookChanges struct {
	Title       *string
	Author      *string
	Description *string
	GenreIDs    *[]uint
}

func (r *GormRepo) ListBooks(ctx context.Context, f BookFilter) ([]models.Book, error) {
	order, ok := orderings[f.Ordering]
	if !ok {
		return nil, ErrInvalidOrdering
	}

	q := r.DB.WithContext(ctx).Model(&models.Book{}).Preload("Genres", func(db *gorm.DB) *gorm.DB {
		return db.Order("genres.id ASC")
	})
	if f.Author != "" {
		q = q.Where("books.author = ?", f.Author)
	}
	if f.GenreID != nil {
		q = q.Where("books.id IN (?)", r.DB.Table("book_genres").Select("book_id").Where("genre_id = ?", *f.GenreID))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(books.title) LIKE ? OR LOWER(books.author) LIKE ?", like, like)
	}

	books := make([]models.Book, 0)
	if err := q.Order(order).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (r *GormRepo) GetBook(ctx context.Context, id uint) (*models.Book, error) {
	return getBook(r.DB.WithContext(ctx), id)
}

func (r *GormRepo) CreateBook(ctx context.Context, book *models.Book, genreIDs []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genres, err := genresByIDs(tx, genreIDs)
		if err != nil {
			return err
		}
		book.Genres = genres
		return tx.Omit("Genres.*").Create(book).Error
	})
}

func (r *GormRepo) UpdateBook(ctx context.Context, id uint, ch BookChanges) (*models.Book, error) {
	var out *models.Book
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := getBook(tx, id)
		if err != nil {
			return err
		}

		if ch.Title != nil {
			book.Title = *ch.Title
		}
		if ch.Author != nil {
			book.Author = *ch.Author
		}
		if ch.Description != nil {
			book.Description = *ch.Description
		}
		if err := tx.Omit(clause.Associations).Save(book).Error; err != nil {
			return err
		}

		if ch.GenreIDs != nil {
			genres, err := genresByIDs(tx, *ch.GenreIDs)
			if err != nil {
				return err
			}
			assoc := tx.Model(book).Association("Genres")
			if len(genres) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(genres)
			}
			if err != nil {
				return err
			}
		}

		out, err = getBook(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) DeleteBook(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		book, err := getBook(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Model(book).Association("Genres").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Book{}, id).Error
	})
}

func getBook(db *gorm.DB, id uint) (*models.Book, error) {
	var book models.Book
	err := db.Preload("Genres", func(db *gorm.DB) *gorm.DB {
		return db.Order("genres.id ASC")
	}).First(&book, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &book, nil
}
