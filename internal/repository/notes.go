package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/internal/repository/converter"
	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
)

const noteColumns = `id, title, content, images, created_at, updated_at`

const (
	createNoteSQL = `INSERT INTO notes (id, title, content, images, created_at, updated_at)
VALUES ($1, $2, $3, '{}', now(), now())
RETURNING ` + noteColumns

	getNoteSQL = `SELECT ` + noteColumns + ` FROM notes WHERE id = $1`

	listNotesSQL = `SELECT ` + noteColumns + ` FROM notes ORDER BY updated_at DESC, write_seq DESC`

	updateNoteSQL = `UPDATE notes SET
    title = COALESCE($2::text, title),
    content = COALESCE($3::text, content),
    images = CASE WHEN $4::text IS NULL THEN images ELSE array_remove(images, $4::text) END || $5::text[],
    updated_at = GREATEST(now(), updated_at + interval '1 microsecond'),
    write_seq = nextval('notes_write_seq')
WHERE id = $1
  AND ($6::int <= 0 OR cardinality(images) + cardinality($5::text[]) <= $6::int)
RETURNING ` + noteColumns

	noteExistsSQL = `SELECT EXISTS (SELECT 1 FROM notes WHERE id = $1)`

	deleteNoteSQL = `DELETE FROM notes WHERE id = $1 RETURNING ` + noteColumns
)

func (r *Repo) CreateNote(ctx context.Context, title, content string) (entity.Note, error) {
	id := pgtype.UUID{Bytes: uuid.New(), Valid: true}

	var row converter.NoteRow
	if err := r.db.QueryRow(ctx, createNoteSQL, id, title, content).Scan(row.ScanTargets()...); err != nil {
		return entity.Note{}, fmt.Errorf("create note: %v", err)
	}

	note := converter.ConvertNoteToEntity(row)
	slogx.Debug(ctx, "success to create note", slogx.NoteID(note.ID))

	return note, nil
}

func (r *Repo) GetNote(ctx context.Context, id string) (entity.Note, error) {
	uid, ok := converter.ParseUUID(id)
	if !ok {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	var row converter.NoteRow
	if err := r.db.QueryRow(ctx, getNoteSQL, uid).Scan(row.ScanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Note{}, entity.ErrNoteNotFound
		}
		return entity.Note{}, fmt.Errorf("get note: %v", err)
	}

	return converter.ConvertNoteToEntity(row), nil
}

func (r *Repo) ListNotes(ctx context.Context) ([]entity.Note, error) {
	rows, err := r.db.Query(ctx, listNotesSQL)
	if err != nil {
		return nil, fmt.Errorf("list notes: %v", err)
	}
	defer rows.Close()

	var result []converter.NoteRow
	for rows.Next() {
		var row converter.NoteRow
		if err := rows.Scan(row.ScanTargets()...); err != nil {
			return nil, fmt.Errorf("scan note: %v", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notes: %v", err)
	}

	return converter.ConvertNotesToEntity(result), nil
}

func (r *Repo) UpdateNote(ctx context.Context, id string, patch entity.NotePatch) (entity.Note, error) {
	uid, ok := converter.ParseUUID(id)
	if !ok {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	appendImages := patch.AppendImages
	if appendImages == nil {
		appendImages = []string{}
	}

	var note entity.Note
	err := r.db.RunInTx(ctx, func(ctx context.Context) error {
		var row converter.NoteRow
		err := r.db.QueryRow(ctx, updateNoteSQL,
			uid,
			patch.Title,
			patch.Content,
			patch.RemoveImage,
			appendImages,
			patch.ImageLimit,
		).Scan(row.ScanTargets()...)
		if err == nil {
			note = converter.ConvertNoteToEntity(row)
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("update note: %v", err)
		}

		// Either the note is gone or the conditional append was refused.
		var exists bool
		if err := r.db.QueryRow(ctx, noteExistsSQL, uid).Scan(&exists); err != nil {
			return fmt.Errorf("check note exists: %v", err)
		}
		if !exists {
			return entity.ErrNoteNotFound
		}

		return entity.ErrImageQuotaExceeded
	})
	if err != nil {
		return entity.Note{}, err
	}

	return note, nil
}

func (r *Repo) DeleteNote(ctx context.Context, id string) (entity.Note, error) {
	uid, ok := converter.ParseUUID(id)
	if !ok {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	var row converter.NoteRow
	if err := r.db.QueryRow(ctx, deleteNoteSQL, uid).Scan(row.ScanTargets()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Note{}, entity.ErrNoteNotFound
		}
		return entity.Note{}, fmt.Errorf("delete note: %v", err)
	}

	return converter.ConvertNoteToEntity(row), nil
}
