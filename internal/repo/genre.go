package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Cleamaster322/library/internal/models"
)

func (r *GormRepo) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres := make([]models.Genre, 0)
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}

func (r *GormRepo) GetGenre(ctx context.Context, id uint) (*models.Genre, error) {
	var genre models.Genre
	if err := r.DB.WithContext(ctx).First(&genre, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &genre, nil
}

func (r *GormRepo) CreateGenre(ctx context.Context, genre *models.Genre) error {
	return r.DB.WithContext(ctx).Create(genre).Error
}

func (r *GormRepo) UpdateGenre(ctx context.Context, id uint, name string) (*models.Genre, error) {
	var genre models.Genre
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&genre, id).Error; err != nil {
			return notFound(err)
		}
		genre.Name = name
		return tx.Save(&genre).Error
	})
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

// DeleteGenre unlinks the genre from its books; the books themselves stay.
func (r *GormRepo) DeleteGenre(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Genre{}, id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Exec("DELETE FROM book_genres WHERE genre_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Genre{}, id).Error
	})
}

// genresByIDs loads every requested genre or fails with ErrGenreNotFound.
func genresByIDs(tx *gorm.DB, ids []uint) ([]models.Genre, error) {
	genres := make([]models.Genre, 0, len(ids))
	if len(ids) == 0 {
		return genres, nil
	}

	unique := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	if err := tx.Where("id IN ?", ids).Order("id ASC").Find(&genres).Error; err != nil {
		return nil, err
	}
	if len(genres) != len(unique) {
		return nil, ErrGenreNotFound
	}
	return genres, nil
}
