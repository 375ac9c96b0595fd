// Package memrepo keeps notes in process memory. It backs STORE_DRIVER=memory
// and the service tests.
package memrepo

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
)

// tick is the smallest step updated_at advances by on a write.
const tick = time.Microsecond

type Repo struct {
	mu    sync.RWMutex
	notes map[string]record
	seq   uint64
	now   func() time.Time
}

// record pairs a note with the sequence number of its last write, which
// orders notes whose updated_at is equal.
type record struct {
	note entity.Note
	seq  uint64
}

type Option func(*Repo)

// WithClock replaces time.Now as the source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) { r.now = now }
}

func New(opts ...Option) *Repo {
	r := &Repo{
		notes: make(map[string]record),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *Repo) CreateNote(_ context.Context, title, content string) (entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	note := entity.Note{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Images:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.put(note)

	return clone(note), nil
}

func (r *Repo) put(note entity.Note) {
	r.seq++
	r.notes[note.ID] = record{note: note, seq: r.seq}
}

func (r *Repo) GetNote(_ context.Context, id string) (entity.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.notes[id]
	if !ok {
		return entity.Note{}, entity.ErrNoteNotFound
	}

	return clone(rec.note), nil
}

func (r *Repo) ListNotes(_ context.Context) ([]entity.Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := make([]record, 0, len(r.notes))
	for _, rec := range r.notes {
		recs = append(recs, rec)
	}

	slices.SortFunc(recs, func(a, b record) int {
		if c := b.note.UpdatedAt.Compare(a.note.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.seq, a.seq)
	})

	notes := make([]entity.Note, 0, len(recs))
	for _, rec := range recs {
		notes = append(notes, clone(rec.note))
	}

	return notes, nil
}

func (r *Repo) UpdateNote(_ context.Context, id string, patch entity.NotePatch) (entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.notes[id]
	if !ok {
		return entity.Note{}, entity.ErrNoteNotFound
	}
	note := rec.note

	images := slices.Clone(note.Images)
	if patch.RemoveImage != nil {
		images = slices.DeleteFunc(images, func(ref string) bool { return ref == *patch.RemoveImage })
	}
	if patch.ImageLimit > 0 && len(note.Images)+len(patch.AppendImages) > patch.ImageLimit {
		return entity.Note{}, entity.ErrImageQuotaExceeded
	}
	images = append(images, patch.AppendImages...)

	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	note.Images = images

	now := r.now().UTC()
	if !now.After(note.UpdatedAt) {
		now = note.UpdatedAt.Add(tick)
	}
	note.UpdatedAt = now

	r.put(note)

	return clone(note), nil
}

func (r *Repo) DeleteNote(_ context.Context, id string) (entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.notes[id]
	if !ok {
		return entity.Note{}, entity.ErrNoteNotFound
	}
	delete(r.notes, id)

	return clone(rec.note), nil
}

func clone(n entity.Note) entity.Note {
	n.Images = slices.Clone(n.Images)
	if n.Images == nil {
		n.Images = []string{}
	}

	return n
}
