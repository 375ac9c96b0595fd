package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
)

type notesRepository interface {
	CreateNote(ctx context.Context, title, content string) (entity.Note, error)
	GetNote(ctx context.Context, id string) (entity.Note, error)
	ListNotes(ctx context.Context) ([]entity.Note, error)
	UpdateNote(ctx context.Context, id string, patch entity.NotePatch) (entity.Note, error)
	DeleteNote(ctx context.Context, id string) (entity.Note, error)
}

type contentStore interface {
	Delete(ctx context.Context, ref string) error
}

type idCodec interface {
	Valid(id string) bool
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=usecase_options.gen.go -from-struct=Options
type Options struct {
	repo     notesRepository `option:"mandatory" validate:"required"`
	contents contentStore    `option:"mandatory" validate:"required"`
	ids      idCodec         `option:"mandatory" validate:"required"`
}

type Usecase struct {
	Options
	validate *validator.Validate
}

func New(opts Options) (*Usecase, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate notes usecase options: %v", err)
	}

	return &Usecase{Options: opts, validate: validator.New()}, nil
}

func (u *Usecase) CreateNote(ctx context.Context, title, content string) (entity.Note, error) {
	if err := u.validateTitle(title); err != nil {
		return entity.Note{}, err
	}

	note, err := u.repo.CreateNote(ctx, title, content)
	if err != nil {
		return entity.Note{}, fmt.Errorf("usecase create note: %w", err)
	}

	slogx.Info(ctx, "success to create note", slogx.NoteID(note.ID))
	return note, nil
}

func (u *Usecase) ListNotes(ctx context.Context) ([]entity.Note, error) {
	notes, err := u.repo.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("usecase list notes: %w", err)
	}

	return notes, nil
}

func (u *Usecase) GetNote(ctx context.Context, id string) (entity.Note, error) {
	if !u.ids.Valid(id) {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	note, err := u.repo.GetNote(ctx, id)
	if err != nil {
		return entity.Note{}, fmt.Errorf("usecase get note: %w", err)
	}

	return note, nil
}

// UpdateNote applies the provided fields. Nil fields stay as they are, and
// updated_at is refreshed even when nothing else changes.
func (u *Usecase) UpdateNote(ctx context.Context, id string, title, content *string) (entity.Note, error) {
	if title != nil {
		if err := u.validateTitle(*title); err != nil {
			return entity.Note{}, err
		}
	}

	if !u.ids.Valid(id) {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	note, err := u.repo.UpdateNote(ctx, id, entity.NotePatch{Title: title, Content: content})
	if err != nil {
		return entity.Note{}, fmt.Errorf("usecase update note: %w", err)
	}

	slogx.Info(ctx, "success to update note", slogx.NoteID(id))
	return note, nil
}

// DeleteNote removes the note and then, best effort, the files of its images.
func (u *Usecase) DeleteNote(ctx context.Context, id string) error {
	if !u.ids.Valid(id) {
		return entity.ErrNoteNotFound
	}

	note, err := u.repo.DeleteNote(ctx, id)
	if err != nil {
		return fmt.Errorf("usecase delete note: %w", err)
	}

	for _, ref := range note.Images {
		if err := u.contents.Delete(ctx, ref); err != nil {
			slogx.Warn(ctx, "failed to remove image of deleted note",
				slogx.NoteID(id),
				slogx.Err(err),
			)
		}
	}

	slogx.Info(ctx, "success to delete note", slogx.NoteID(id))
	return nil
}

func (u *Usecase) validateTitle(title string) error {
	err := u.validate.Var(title, fmt.Sprintf("min=%d,max=%d", entity.TitleMinLen, entity.TitleMaxLen))
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate title: %v", err)
	}

	return entity.NewValidationError("title", fmt.Sprintf(
		"must be between %d and %d characters", entity.TitleMinLen, entity.TitleMaxLen,
	))
}
