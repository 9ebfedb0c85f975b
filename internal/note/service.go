package note

import (
	"collaborative-notes/internal/errors"
	"context"
	defError "errors"

	"gorm.io/gorm"
)

type Service interface {
	CreateNote(ctx context.Context, userID uint64, note *Note) error
	GetNote(ctx context.Context, noteID uint64, userID uint64) (*Note, error)
	GetPublicNote(ctx context.Context, noteID uint64) (*Note, error)
	ListUserNotes(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedNotes, error)
	ListPublicNotes(ctx context.Context, page, pageSize int) (*PaginatedNotes, error)
	UpdateNote(ctx context.Context, noteID uint64, userID uint64, patch Patch) (*Note, error)
	DeleteNote(ctx context.Context, noteID uint64, userID uint64) error
	CanJoin(ctx context.Context, noteID uint64, userID uint64) error
}

type DefaultService struct {
	repository NoteRepository
}

func NewService(repository NoteRepository) Service {
	return &DefaultService{repository: repository}
}

func (s *DefaultService) CreateNote(ctx context.Context, userID uint64, note *Note) error {
	return s.repository.Create(ctx, userID, note)
}

// GetNote returns a note the user may read: their own, or any public one.
func (s *DefaultService) GetNote(ctx context.Context, noteID uint64, userID uint64) (*Note, error) {
	note, err := s.repository.FindByID(ctx, noteID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Note not found", err)
		}
		return nil, err
	}

	if note.UserID != userID && !note.Public {
		return nil, errors.NotFound("Note not found or private", nil)
	}

	return note, nil
}

func (s *DefaultService) GetPublicNote(ctx context.Context, noteID uint64) (*Note, error) {
	note, err := s.repository.FindByID(ctx, noteID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Note not found or private", err)
		}
		return nil, err
	}

	if !note.Public {
		return nil, errors.NotFound("Note not found or private", nil)
	}

	return note, nil
}

type PaginatedNotes struct {
	Data []Note    `json:"data"`
	Meta NotesMeta `json:"meta"`
}

func (s *DefaultService) ListUserNotes(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedNotes, error) {
	notes, meta, err := s.repository.ListByUserID(ctx, userID, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &PaginatedNotes{Data: notes, Meta: meta}, nil
}

func (s *DefaultService) ListPublicNotes(ctx context.Context, page, pageSize int) (*PaginatedNotes, error) {
	notes, meta, err := s.repository.ListPublic(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}
	return &PaginatedNotes{Data: notes, Meta: meta}, nil
}

// UpdateNote persists a partial update. Only the author may write; a
// non-author gets NotFound, never a hint the note exists.
func (s *DefaultService) UpdateNote(ctx context.Context, noteID uint64, userID uint64, patch Patch) (*Note, error) {
	if patch.IsEmpty() {
		return nil, errors.BadRequest("Nothing to update", nil)
	}

	note, err := s.repository.UpdateOwned(ctx, noteID, userID, patch)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("Note not found", err)
		}
		return nil, err
	}

	return note, nil
}

func (s *DefaultService) DeleteNote(ctx context.Context, noteID uint64, userID uint64) error {
	err := s.repository.DeleteOwned(ctx, noteID, userID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Note not found", err)
		}
		return err
	}
	return nil
}

// CanJoin gates room membership: the author always may, anyone else only
// when the note is public.
func (s *DefaultService) CanJoin(ctx context.Context, noteID uint64, userID uint64) error {
	note, err := s.repository.FindByID(ctx, noteID)
	if err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("Note not found", err)
		}
		return err
	}

	if note.UserID != userID && !note.Public {
		return errors.Forbidden("Note is private", nil)
	}

	return nil
}
