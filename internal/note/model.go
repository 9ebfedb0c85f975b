package note

import (
	"time"
)

// Note is the persisted document. Content is the serialized editor state;
// the server never parses it.
type Note struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Public    bool      `json:"public" gorm:"default:false"`
	UserID    uint64    `json:"author" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch carries the fields of a partial update. Nil means "leave as is".
type Patch struct {
	Title   *string
	Content *string
	Public  *bool
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Public == nil
}
