package converter

import (
	"time"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
)

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func ConvertNoteToResponse(note entity.Note) Note {
	images := note.Images
	if images == nil {
		images = []string{}
	}

	return Note{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		Images:    images,
		CreatedAt: note.CreatedAt.UTC(),
		UpdatedAt: note.UpdatedAt.UTC(),
	}
}

func ConvertNotesToResponse(notes []entity.Note) []Note {
	resp := make([]Note, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, ConvertNoteToResponse(n))
	}

	return resp
}
