package converter

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
)

type NoteRow struct {
	ID        pgtype.UUID
	Title     string
	Content   string
	Images    []string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// ScanTargets returns pointers in the column order of the notes queries.
func (r *NoteRow) ScanTargets() []any {
	return []any{&r.ID, &r.Title, &r.Content, &r.Images, &r.CreatedAt, &r.UpdatedAt}
}

func ConvertNoteToEntity(row NoteRow) entity.Note {
	images := row.Images
	if images == nil {
		images = []string{}
	}

	return entity.Note{
		ID:        ConvertUUIDToString(row.ID),
		Title:     row.Title,
		Content:   row.Content,
		Images:    images,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func ConvertNotesToEntity(rows []NoteRow) []entity.Note {
	notes := make([]entity.Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, ConvertNoteToEntity(row))
	}

	return notes
}

func ConvertUUIDToString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}

	return uuid.UUID(id.Bytes).String()
}

// ParseUUID converts a note id into its column value. ok is false for
// anything that is not a UUID.
func ParseUUID(id string) (pgtype.UUID, bool) {
	u, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, false
	}

	return pgtype.UUID{Bytes: u, Valid: true}, true
}
