package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-poem-api/internal/models"
)

// PoemFilter narrows the poem list.
type PoemFilter struct {
	Search string
	Tag    string
	Order  string
}

// PoemRepository defines persistence operations for poems.
type PoemRepository interface {
	Create(ctx context.Context, poem *models.Poem) error
	Update(ctx context.Context, poem *models.Poem) error
	GetByID(ctx context.Context, id uint) (models.Poem, error)
	List(ctx context.Context, filter PoemFilter) ([]models.Poem, error)
	Delete(ctx context.Context, id uint) error
}

type poemRepository struct {
	db *gorm.DB
}

// NewPoemRepository instantiates a GORM-backed repository.
func NewPoemRepository(db *gorm.DB) PoemRepository {
	return &poemRepository{db: db}
}

func (r *poemRepository) Create(ctx context.Context, poem *models.Poem) error {
	return r.db.WithContext(ctx).Create(poem).Error
}

func (r *poemRepository) Update(ctx context.Context, poem *models.Poem) error {
	return r.db.WithContext(ctx).Save(poem).Error
}

func (r *poemRepository) GetByID(ctx context.Context, id uint) (models.Poem, error) {
	var poem models.Poem
	if err := r.db.WithContext(ctx).First(&poem, id).Error; err != nil {
		return models.Poem{}, err
	}
	return poem, nil
}

func (r *poemRepository) List(ctx context.Context, filter PoemFilter) ([]models.Poem, error) {
	query := r.db.WithContext(ctx).Model(&models.Poem{})

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(body) LIKE ? OR LOWER(comment) LIKE ? OR LOWER(emotion) LIKE ? OR LOWER(CAST(tags AS TEXT)) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		)
	}

	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		query = query.Where("CAST(tags AS TEXT) LIKE ?", "%\""+tag+"\"%")
	}

	if strings.EqualFold(filter.Order, "asc") {
		query = query.Order("created_at ASC").Order("id ASC")
	} else {
		query = query.Order("created_at DESC").Order("id DESC")
	}

	var poems []models.Poem
	if err := query.Find(&poems).Error; err != nil {
		return nil, err
	}
	return poems, nil
}

func (r *poemRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Poem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
