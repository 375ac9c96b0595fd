package notes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/evgeniy-krivenko/notes-api/internal/contentstore"
	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/internal/repository"
	"github.com/evgeniy-krivenko/notes-api/internal/repository/memrepo"
	"github.com/evgeniy-krivenko/notes-api/internal/repository/repotest"
)

type fixture struct {
	uc    *Usecase
	repo  *memrepo.Repo
	store *contentstore.FS
}

func newFixture(t testing.TB) fixture {
	t.Helper()

	store, err := contentstore.NewFS(t.TempDir(), "/uploads")
	require.NoError(t, err)

	repo := memrepo.New()
	uc, err := New(NewOptions(repo, store, repository.UUIDCodec{}))
	require.NoError(t, err)

	return fixture{uc: uc, repo: repo, store: store}
}

func ptr[T any](v T) *T { return &v }

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(NewOptions(nil, nil, nil))
	assert.Error(t, err)
}

func TestCreateNote_TitleBounds(t *testing.T) {
	f := newFixture(t)

	rapid.Check(t, func(t *rapid.T) {
		title := rapid.StringOfN(rapid.Rune(), 0, 260, -1).Draw(t, "title")

		_, err := f.uc.CreateNote(context.Background(), title, "")

		n := utf8.RuneCountInString(title)
		valid := n >= entity.TitleMinLen && n <= entity.TitleMaxLen
		switch {
		case valid && err != nil:
			t.Fatalf("title of %d runes rejected: %v", n, err)
		case !valid && !errors.Is(err, entity.ErrValidation):
			t.Fatalf("title of %d runes: want validation error, got %v", n, err)
		}
	})
}

func TestCreateNote_TitleEdges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, tc := range []struct {
		title string
		ok    bool
	}{
		{"", false},
		{"a", true},
		{strings.Repeat("a", 200), true},
		{strings.Repeat("я", 200), true},
		{strings.Repeat("a", 201), false},
	} {
		_, err := f.uc.CreateNote(ctx, tc.title, "")
		if tc.ok {
			assert.NoError(t, err, len(tc.title))
			continue
		}

		var verr *entity.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "title", verr.Field)
	}
}

func TestCreateThenGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.uc.CreateNote(ctx, "title", "body")
	require.NoError(t, err)
	assert.Equal(t, []string{}, created.Images)

	got, err := f.uc.GetNote(ctx, created.ID)
	require.NoError(t, err)
	repotest.RequireSameNote(t, created, got)
}

func TestGetNote_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"not-an-id", "64b7f0c2e13f4a0012345678", "6f1c1d7e-7c55-4a8f-9d55-000000000000"} {
		_, err := f.uc.GetNote(ctx, id)
		assert.ErrorIs(t, err, entity.ErrNoteNotFound, id)
	}
}

func TestListNotes_MostRecentFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.uc.CreateNote(ctx, "a", "")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	b, err := f.uc.CreateNote(ctx, "b", "")
	require.NoError(t, err)

	notes, err := f.uc.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, b.ID, notes[0].ID)
	assert.Equal(t, a.ID, notes[1].ID)
}

func TestUpdateNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note, err := f.uc.CreateNote(ctx, "title", "body")
	require.NoError(t, err)

	t.Run("no fields only touches updated_at", func(t *testing.T) {
		time.Sleep(time.Millisecond)
		updated, err := f.uc.UpdateNote(ctx, note.ID, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, note.Title, updated.Title)
		assert.Equal(t, note.Content, updated.Content)
		assert.Equal(t, note.Images, updated.Images)
		assert.True(t, updated.UpdatedAt.After(note.UpdatedAt))
	})

	t.Run("provided fields", func(t *testing.T) {
		updated, err := f.uc.UpdateNote(ctx, note.ID, nil, ptr("new body"))
		require.NoError(t, err)
		assert.Equal(t, "title", updated.Title)
		assert.Equal(t, "new body", updated.Content)

		updated, err = f.uc.UpdateNote(ctx, note.ID, ptr("new title"), nil)
		require.NoError(t, err)
		assert.Equal(t, "new title", updated.Title)
		assert.Equal(t, "new body", updated.Content)
	})

	t.Run("invalid title", func(t *testing.T) {
		_, err := f.uc.UpdateNote(ctx, note.ID, ptr(""), nil)
		assert.ErrorIs(t, err, entity.ErrValidation)

		_, err = f.uc.UpdateNote(ctx, note.ID, ptr(strings.Repeat("x", 201)), nil)
		assert.ErrorIs(t, err, entity.ErrValidation)
	})

	t.Run("missing note", func(t *testing.T) {
		_, err := f.uc.UpdateNote(ctx, "nope", ptr("x"), nil)
		assert.ErrorIs(t, err, entity.ErrNoteNotFound)
	})
}

func TestDeleteNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	note, err := f.uc.CreateNote(ctx, "title", "")
	require.NoError(t, err)

	ref, err := f.store.Save(ctx, "img.png", "image/png", []byte("png"))
	require.NoError(t, err)
	_, err = f.repo.UpdateNote(ctx, note.ID, entity.NotePatch{AppendImages: []string{ref, "/uploads/missing.png"}})
	require.NoError(t, err)

	require.NoError(t, f.uc.DeleteNote(ctx, note.ID))

	_, err = f.uc.GetNote(ctx, note.ID)
	assert.ErrorIs(t, err, entity.ErrNoteNotFound)

	_, err = f.store.Get(ctx, ref)
	assert.ErrorIs(t, err, contentstore.ErrNotFound, "image files are removed with the note")

	assert.ErrorIs(t, f.uc.DeleteNote(ctx, note.ID), entity.ErrNoteNotFound)
	assert.ErrorIs(t, f.uc.DeleteNote(ctx, "garbage"), entity.ErrNoteNotFound)
}
