package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
)

type notesRepository interface {
	GetNote(ctx context.Context, id string) (entity.Note, error)
	UpdateNote(ctx context.Context, id string, patch entity.NotePatch) (entity.Note, error)
}

type contentStore interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}

type idCodec interface {
	Valid(id string) bool
}

// File is one uploaded file as declared by the client.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=usecase_options.gen.go -from-struct=Options
type Options struct {
	repo     notesRepository `option:"mandatory" validate:"required"`
	contents contentStore    `option:"mandatory" validate:"required"`
	ids      idCodec         `option:"mandatory" validate:"required"`

	maxFilesPerNote int   `default:"5" validate:"min=1"`
	maxFileSize     int64 `default:"5242880" validate:"min=1"`

	newName func() string
}

type Usecase struct {
	Options
}

func New(opts Options) (*Usecase, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("validate images usecase options: %v", err)
	}

	if opts.newName == nil {
		opts.newName = uuid.NewString
	}

	return &Usecase{Options: opts}, nil
}

type acceptedFile struct {
	File
	mediaType string
	ext       string
}

// UploadImages stores the files and appends their references to the note in
// upload order. Files beyond the note's free slots are dropped. Either all
// accepted files are attached or none are.
func (u *Usecase) UploadImages(ctx context.Context, noteID string, files []File) (entity.Note, error) {
	if !u.ids.Valid(noteID) {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	note, err := u.repo.GetNote(ctx, noteID)
	if err != nil {
		return entity.Note{}, fmt.Errorf("usecase upload images: %w", err)
	}

	if len(files) == 0 {
		return entity.Note{}, entity.NewValidationError("files", "at least one file is required")
	}

	slots := note.FreeSlots(u.maxFilesPerNote)
	if slots <= 0 {
		return entity.Note{}, &entity.FileError{
			Err:    entity.ErrImageQuotaExceeded,
			Detail: fmt.Sprintf("note already has the maximum of %d images", u.maxFilesPerNote),
		}
	}
	if len(files) > slots {
		slogx.Debug(ctx, "dropping files beyond free slots",
			slogx.NoteID(noteID),
			slogx.Op("upload_images"),
		)
		files = files[:slots]
	}

	accepted := make([]acceptedFile, 0, len(files))
	for _, f := range files {
		af, err := u.accept(f)
		if err != nil {
			return entity.Note{}, err
		}
		accepted = append(accepted, af)
	}

	refs := make([]string, 0, len(accepted))
	for _, f := range accepted {
		ref, err := u.store(ctx, f)
		if err != nil {
			u.discard(ctx, noteID, refs)
			return entity.Note{}, err
		}
		refs = append(refs, ref)
	}

	note, err = u.repo.UpdateNote(ctx, noteID, entity.NotePatch{
		AppendImages: refs,
		ImageLimit:   u.maxFilesPerNote,
	})
	if err != nil {
		u.discard(ctx, noteID, refs)

		if errors.Is(err, entity.ErrImageQuotaExceeded) {
			return entity.Note{}, &entity.FileError{
				Err:    entity.ErrImageQuotaExceeded,
				Detail: fmt.Sprintf("note would exceed the maximum of %d images", u.maxFilesPerNote),
			}
		}
		return entity.Note{}, fmt.Errorf("usecase upload images: %w", err)
	}

	slogx.Info(ctx, "success to upload images",
		slogx.NoteID(noteID),
		slogx.Op("upload_images"),
	)
	return note, nil
}

// DeleteImage detaches ref from the note and removes its file. A file that
// cannot be removed is logged and does not fail the call.
func (u *Usecase) DeleteImage(ctx context.Context, noteID, ref string) (entity.Note, error) {
	if !u.ids.Valid(noteID) {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	note, err := u.repo.GetNote(ctx, noteID)
	if err != nil {
		return entity.Note{}, fmt.Errorf("usecase delete image: %w", err)
	}

	if !note.HasImage(ref) {
		return entity.Note{}, entity.ErrImageNotFound
	}

	if err := u.contents.Delete(ctx, ref); err != nil {
		slogx.Warn(ctx, "failed to remove image file",
			slogx.NoteID(noteID),
			slogx.Op("delete_image"),
			slogx.Err(err),
		)
	}

	note, err = u.repo.UpdateNote(ctx, noteID, entity.NotePatch{RemoveImage: &ref})
	if err != nil {
		return entity.Note{}, fmt.Errorf("usecase delete image: %w", err)
	}

	slogx.Info(ctx, "success to delete image",
		slogx.NoteID(noteID),
		slogx.Op("delete_image"),
	)
	return note, nil
}

func (u *Usecase) accept(f File) (acceptedFile, error) {
	mediaType, err := u.mediaType(f)
	if err != nil {
		return acceptedFile{}, err
	}

	ext, ok := entity.ImageExtension(mediaType)
	if !ok {
		return acceptedFile{}, &entity.FileError{
			File:   f.Name,
			Err:    entity.ErrUnsupportedMediaType,
			Detail: fmt.Sprintf("%s: unsupported file type %q, allowed: image/jpeg, image/png, image/webp", f.Name, mediaType),
		}
	}

	if f.Size > u.maxFileSize {
		return acceptedFile{}, u.tooLarge(f.Name)
	}

	return acceptedFile{File: f, mediaType: mediaType, ext: ext}, nil
}

// mediaType returns the declared type, or the sniffed one when the client
// declared nothing useful.
func (u *Usecase) mediaType(f File) (string, error) {
	declared := strings.ToLower(strings.TrimSpace(f.ContentType))
	if mt, _, err := mime.ParseMediaType(declared); err == nil {
		declared = mt
	}

	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %v", f.Name, err)
	}
	defer rc.Close()

	detected, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %v", f.Name, err)
	}

	mt, _, err := mime.ParseMediaType(detected.String())
	if err != nil {
		return detected.String(), nil
	}

	return mt, nil
}

func (u *Usecase) store(ctx context.Context, f acceptedFile) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %v", f.Name, err)
	}
	defer rc.Close()

	// The declared size is client input; never read past the limit.
	data, err := io.ReadAll(io.LimitReader(rc, u.maxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %v", f.Name, err)
	}
	if int64(len(data)) > u.maxFileSize {
		return "", u.tooLarge(f.Name)
	}

	ref, err := u.contents.Save(ctx, u.newName()+f.ext, f.mediaType, data)
	if err != nil {
		return "", fmt.Errorf("save %s: %v", f.Name, err)
	}

	return ref, nil
}

func (u *Usecase) tooLarge(name string) error {
	return &entity.FileError{
		File:   name,
		Err:    entity.ErrPayloadTooLarge,
		Detail: fmt.Sprintf("%s: file exceeds the maximum size of %d bytes", name, u.maxFileSize),
	}
}

// discard removes files written by a failed upload.
func (u *Usecase) discard(ctx context.Context, noteID string, refs []string) {
	for _, ref := range refs {
		if err := u.contents.Delete(context.WithoutCancel(ctx), ref); err != nil {
			slogx.Warn(ctx, "failed to discard uploaded image",
				slogx.NoteID(noteID),
				slogx.Op("upload_images"),
				slogx.Err(err),
			)
		}
	}
}
