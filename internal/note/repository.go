package note

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type NoteRepository interface {
	Create(ctx context.Context, userID uint64, note *Note) error
	FindByID(ctx context.Context, id uint64) (*Note, error)
	FindOwned(ctx context.Context, id uint64, userID uint64) (*Note, error)
	ListByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]Note, NotesMeta, error)
	ListPublic(ctx context.Context, page, pageSize int) ([]Note, NotesMeta, error)
	UpdateOwned(ctx context.Context, id uint64, userID uint64, patch Patch) (*Note, error)
	DeleteOwned(ctx context.Context, id uint64, userID uint64) error
}

type NoteRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new note repository
func NewRepository(db *gorm.DB) NoteRepository {
	return &NoteRepositoryImpl{db: db}
}

func (r *NoteRepositoryImpl) Create(ctx context.Context, userID uint64, note *Note) error {
	note.UserID = userID
	note.CreatedAt = time.Now().UTC() // Use UTC for consistency
	note.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *NoteRepositoryImpl) FindByID(ctx context.Context, id uint64) (*Note, error) {
	var note Note
	err := r.db.WithContext(ctx).First(&note, id).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// FindOwned scopes the lookup to the author, like the rest of the CRUD layer
func (r *NoteRepositoryImpl) FindOwned(ctx context.Context, id uint64, userID uint64) (*Note, error) {
	var note Note
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&note).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

type NotesMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

func (r *NoteRepositoryImpl) ListByUserID(ctx context.Context, userID uint64, page, pageSize int) ([]Note, NotesMeta, error) {
	return r.list(ctx, "user_id = ?", userID, page, pageSize)
}

func (r *NoteRepositoryImpl) ListPublic(ctx context.Context, page, pageSize int) ([]Note, NotesMeta, error) {
	return r.list(ctx, "public = ?", true, page, pageSize)
}

func (r *NoteRepositoryImpl) list(ctx context.Context, cond string, condArg any, page, pageSize int) ([]Note, NotesMeta, error) {
	var notes []Note
	var totalRecords int64

	// Count total records
	if err := r.db.WithContext(ctx).Model(&Note{}).Where(cond, condArg).Count(&totalRecords).Error; err != nil {
		return notes, NotesMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Where(cond, condArg).
		Order("updated_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&notes).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return notes, NotesMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *NoteRepositoryImpl) UpdateOwned(ctx context.Context, id uint64, userID uint64, patch Patch) (*Note, error) {
	updates := map[string]any{
		"updated_at": time.Now().UTC(),
	}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Content != nil {
		updates["content"] = *patch.Content
	}
	if patch.Public != nil {
		updates["public"] = *patch.Public
	}

	result := r.db.WithContext(ctx).
		Model(&Note{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.FindOwned(ctx, id, userID)
}

func (r *NoteRepositoryImpl) DeleteOwned(ctx context.Context, id uint64, userID uint64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Note{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
