// Package repotest holds the behaviour every note gateway must share.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
)

type Gateway interface {
	CreateNote(ctx context.Context, title, content string) (entity.Note, error)
	GetNote(ctx context.Context, id string) (entity.Note, error)
	ListNotes(ctx context.Context) ([]entity.Note, error)
	UpdateNote(ctx context.Context, id string, patch entity.NotePatch) (entity.Note, error)
	DeleteNote(ctx context.Context, id string) (entity.Note, error)
}

type Suite struct {
	// New returns an empty gateway.
	New func(t *testing.T) Gateway
	// MissingID is well formed for the gateway but never issued.
	MissingID string
	// Tick is slept between mutations so timestamps differ at store precision.
	Tick time.Duration
}

func (s Suite) Run(t *testing.T) {
	if s.Tick == 0 {
		s.Tick = 2 * time.Millisecond
	}

	t.Run("create then get", s.testCreateGet)
	t.Run("unknown ids", s.testUnknownIDs)
	t.Run("list order", s.testListOrder)
	t.Run("list order without pauses", s.testListOrderBackToBack)
	t.Run("partial update", s.testPartialUpdate)
	t.Run("empty update touches updated_at", s.testEmptyUpdate)
	t.Run("immediate update advances updated_at", s.testImmediateUpdate)
	t.Run("images append and remove", s.testImages)
	t.Run("image limit", s.testImageLimit)
	t.Run("concurrent appends respect limit", s.testConcurrentAppends)
	t.Run("delete", s.testDelete)
}

func (s Suite) testCreateGet(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	created, err := repo.CreateNote(ctx, "title", "body")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "title", created.Title)
	assert.Equal(t, "body", created.Content)
	assert.Empty(t, created.Images)
	assert.NotNil(t, created.Images)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	got, err := repo.GetNote(ctx, created.ID)
	require.NoError(t, err)
	RequireSameNote(t, created, got)
}

func (s Suite) testUnknownIDs(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	for _, id := range []string{s.MissingID, "not-an-id", ""} {
		_, err := repo.GetNote(ctx, id)
		assert.ErrorIs(t, err, entity.ErrNoteNotFound, id)

		_, err = repo.UpdateNote(ctx, id, entity.NotePatch{})
		assert.ErrorIs(t, err, entity.ErrNoteNotFound, id)

		_, err = repo.DeleteNote(ctx, id)
		assert.ErrorIs(t, err, entity.ErrNoteNotFound, id)
	}
}

func (s Suite) testListOrder(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	a, err := repo.CreateNote(ctx, "a", "")
	require.NoError(t, err)
	time.Sleep(s.Tick)
	b, err := repo.CreateNote(ctx, "b", "")
	require.NoError(t, err)

	notes, err := repo.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, b.ID, notes[0].ID)
	assert.Equal(t, a.ID, notes[1].ID)

	time.Sleep(s.Tick)
	_, err = repo.UpdateNote(ctx, a.ID, entity.NotePatch{})
	require.NoError(t, err)

	notes, err = repo.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, a.ID, notes[0].ID)
	assert.False(t, notes[0].UpdatedAt.Before(notes[1].UpdatedAt))
}

// testListOrderBackToBack writes without sleeping, so timestamps may be
// equal at store precision and the tie-break decides the order.
func (s Suite) testListOrderBackToBack(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	a, err := repo.CreateNote(ctx, "a", "")
	require.NoError(t, err)
	b, err := repo.CreateNote(ctx, "b", "")
	require.NoError(t, err)

	notes, err := repo.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, []string{b.ID, a.ID}, []string{notes[0].ID, notes[1].ID})

	_, err = repo.UpdateNote(ctx, a.ID, entity.NotePatch{})
	require.NoError(t, err)

	notes, err = repo.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, []string{a.ID, b.ID}, []string{notes[0].ID, notes[1].ID})
}

func (s Suite) testPartialUpdate(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	note, err := repo.CreateNote(ctx, "title", "body")
	require.NoError(t, err)

	title := "new title"
	updated, err := repo.UpdateNote(ctx, note.ID, entity.NotePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "body", updated.Content)

	content := ""
	updated, err = repo.UpdateNote(ctx, note.ID, entity.NotePatch{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "new title", updated.Title)
	assert.Equal(t, "", updated.Content)
	assert.True(t, updated.CreatedAt.Equal(note.CreatedAt))
}

func (s Suite) testEmptyUpdate(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	note, err := repo.CreateNote(ctx, "title", "body")
	require.NoError(t, err)

	time.Sleep(s.Tick)
	updated, err := repo.UpdateNote(ctx, note.ID, entity.NotePatch{})
	require.NoError(t, err)

	assert.Equal(t, note.Title, updated.Title)
	assert.Equal(t, note.Content, updated.Content)
	assert.Equal(t, note.Images, updated.Images)
	assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))
	assert.True(t, updated.CreatedAt.Equal(note.CreatedAt))
}

func (s Suite) testImmediateUpdate(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	note, err := repo.CreateNote(ctx, "title", "body")
	require.NoError(t, err)

	prev := note.UpdatedAt
	for range 3 {
		updated, err := repo.UpdateNote(ctx, note.ID, entity.NotePatch{})
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(prev), "updated_at %v not after %v", updated.UpdatedAt, prev)
		prev = updated.UpdatedAt
	}
}

func (s Suite) testImages(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	note, err := repo.CreateNote(ctx, "title", "")
	require.NoError(t, err)

	note, err = repo.UpdateNote(ctx, note.ID, entity.NotePatch{AppendImages: []string{"a", "b"}})
	require.NoError(t, err)
	note, err = repo.UpdateNote(ctx, note.ID, entity.NotePatch{AppendImages: []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, note.Images)

	ref := "b"
	note, err = repo.UpdateNote(ctx, note.ID, entity.NotePatch{RemoveImage: &ref})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, note.Images)

	got, err := repo.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, got.Images)
}

func (s Suite) testImageLimit(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	note, err := repo.CreateNote(ctx, "title", "")
	require.NoError(t, err)

	note, err = repo.UpdateNote(ctx, note.ID, entity.NotePatch{AppendImages: []string{"a", "b"}, ImageLimit: 3})
	require.NoError(t, err)

	_, err = repo.UpdateNote(ctx, note.ID, entity.NotePatch{AppendImages: []string{"c", "d"}, ImageLimit: 3})
	require.ErrorIs(t, err, entity.ErrImageQuotaExceeded)

	got, err := repo.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got.Images)
	assert.True(t, got.UpdatedAt.Equal(note.UpdatedAt))
}

func (s Suite) testConcurrentAppends(t *testing.T) {
	const (
		limit   = 5
		writers = 12
	)

	ctx := context.Background()
	repo := s.New(t)

	note, err := repo.CreateNote(ctx, "title", "")
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		success atomic.Int32
	)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.UpdateNote(ctx, note.ID, entity.NotePatch{
				AppendImages: []string{fmt.Sprintf("img-%d", i)},
				ImageLimit:   limit,
			})
			if err == nil {
				success.Add(1)
				return
			}
			assert.ErrorIs(t, err, entity.ErrImageQuotaExceeded)
		}()
	}
	wg.Wait()

	got, err := repo.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, got.Images, limit)
	assert.EqualValues(t, limit, success.Load())
}

func (s Suite) testDelete(t *testing.T) {
	ctx := context.Background()
	repo := s.New(t)

	note, err := repo.CreateNote(ctx, "title", "")
	require.NoError(t, err)
	note, err = repo.UpdateNote(ctx, note.ID, entity.NotePatch{AppendImages: []string{"a"}})
	require.NoError(t, err)

	deleted, err := repo.DeleteNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, deleted.Images)

	_, err = repo.GetNote(ctx, note.ID)
	assert.ErrorIs(t, err, entity.ErrNoteNotFound)

	_, err = repo.DeleteNote(ctx, note.ID)
	assert.ErrorIs(t, err, entity.ErrNoteNotFound)
}

// RequireSameNote compares notes field by field, timestamps by instant.
func RequireSameNote(t testing.TB, want, got entity.Note) {
	t.Helper()

	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Title, got.Title)
	require.Equal(t, want.Content, got.Content)
	require.Equal(t, want.Images, got.Images)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	require.True(t, want.UpdatedAt.Equal(got.UpdatedAt), "updated_at %v != %v", want.UpdatedAt, got.UpdatedAt)
}
