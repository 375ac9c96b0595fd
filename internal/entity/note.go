package entity

import (
	"slices"
	"time"
)

const (
	TitleMinLen = 1
	TitleMaxLen = 200
)

type Note struct {
	ID        string
	Title     string
	Content   string
	Images    []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasImage reports whether ref is attached to the note.
func (n Note) HasImage(ref string) bool {
	return slices.Contains(n.Images, ref)
}

// FreeSlots returns how many more images fit under limit.
func (n Note) FreeSlots(limit int) int {
	return limit - len(n.Images)
}

// NotePatch is a partial update of a note. Nil fields are left untouched.
// An empty patch still refreshes UpdatedAt.
type NotePatch struct {
	Title   *string
	Content *string

	// AppendImages are added to the end of the image list in order.
	AppendImages []string
	// ImageLimit, when positive, makes the append conditional: it is applied
	// only if the resulting list holds at most ImageLimit references.
	ImageLimit int

	// RemoveImage drops the reference from the image list.
	RemoveImage *string
}
