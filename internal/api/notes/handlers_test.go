package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evgeniy-krivenko/notes-api/internal/api/notes/converter"
	"github.com/evgeniy-krivenko/notes-api/internal/contentstore"
	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/internal/repository"
	"github.com/evgeniy-krivenko/notes-api/internal/repository/memrepo"
	"github.com/evgeniy-krivenko/notes-api/internal/usecase/images"
	notesuc "github.com/evgeniy-krivenko/notes-api/internal/usecase/notes"
)

const testMaxFiles = 3

var pngBytes = []byte("\x89PNG\r\n\x1a\nimage-data")

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, opts ...OptOptionsSetter) http.Handler {
	t.Helper()

	dir := t.TempDir()
	store, err := contentstore.NewFS(dir, "/uploads")
	require.NoError(t, err)

	repo := memrepo.New()
	codec := repository.UUIDCodec{}

	notesUC, err := notesuc.New(notesuc.NewOptions(repo, store, codec))
	require.NoError(t, err)

	imagesUC, err := images.New(images.NewOptions(repo, store, codec,
		images.WithMaxFilesPerNote(testMaxFiles),
		images.WithMaxFileSize(1024),
	))
	require.NoError(t, err)

	h, err := New(NewOptions(notesUC, imagesUC, append([]OptOptionsSetter{WithUploadsDir(dir)}, opts...)...))
	require.NoError(t, err)

	return h.Engine()
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	return do(t, h, method, target, r, "application/json")
}

func decodeNote(t *testing.T, w *httptest.ResponseRecorder) converter.Note {
	t.Helper()

	var note converter.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &note), w.Body.String())
	return note
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Detail
}

type upload struct {
	name, contentType string
	data              []byte
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="files"; filename="`+f.name+`"`)
		hdr.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func createNote(t *testing.T, h http.Handler, title string) converter.Note {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/notes", `{"title":"`+title+`","content":"body"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeNote(t, w)
}

func uploadPNGs(t *testing.T, h http.Handler, id string, n int) *httptest.ResponseRecorder {
	t.Helper()

	files := make([]upload, n)
	for i := range files {
		files[i] = upload{name: "img.png", contentType: "image/png", data: pngBytes}
	}
	body, ct := multipartBody(t, files...)

	return do(t, h, http.MethodPost, "/notes/"+id+"/images", body, ct)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNotesCRUD(t *testing.T) {
	h := newTestServer(t)

	created := createNote(t, h, "first")
	assert.Equal(t, "first", created.Title)
	assert.Equal(t, "body", created.Content)
	assert.Equal(t, []string{}, created.Images)
	assert.NotEmpty(t, created.ID)

	w := do(t, h, http.MethodGet, "/notes/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decodeNote(t, w).ID)

	second := createNote(t, h, "second")

	w = do(t, h, http.MethodGet, "/notes", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []converter.Note
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	w = doJSON(t, h, http.MethodPut, "/notes/"+created.ID, `{"content":"changed"}`)
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeNote(t, w)
	assert.Equal(t, "first", updated.Title)
	assert.Equal(t, "changed", updated.Content)

	w = doJSON(t, h, http.MethodPut, "/notes/"+created.ID, `{}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeNote(t, w).UpdatedAt.Before(updated.UpdatedAt))

	w = do(t, h, http.MethodDelete, "/notes/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, h, http.MethodGet, "/notes/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Note not found", detail(t, w))
}

func TestNotesErrors(t *testing.T) {
	h := newTestServer(t)
	note := createNote(t, h, "title")

	cases := []struct {
		name         string
		method, path string
		body         string
		want         int
	}{
		{"empty title", http.MethodPost, "/notes", `{"title":""}`, http.StatusUnprocessableEntity},
		{"missing title", http.MethodPost, "/notes", `{"content":"x"}`, http.StatusUnprocessableEntity},
		{"malformed body", http.MethodPost, "/notes", `{"title":`, http.StatusUnprocessableEntity},
		{"long title on update", http.MethodPut, "/notes/" + note.ID, `{"title":"` + string(bytes.Repeat([]byte("x"), 201)) + `"}`, http.StatusUnprocessableEntity},
		{"malformed id", http.MethodGet, "/notes/not-an-id", "", http.StatusNotFound},
		{"update missing", http.MethodPut, "/notes/6f1c1d7e-7c55-4a8f-9d55-000000000000", `{"title":"x"}`, http.StatusNotFound},
		{"delete missing", http.MethodDelete, "/notes/not-an-id", "", http.StatusNotFound},
		{"unknown route", http.MethodGet, "/nope", "", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
			assert.NotEmpty(t, detail(t, w))
		})
	}
}

func TestUploadAndDeleteImages(t *testing.T) {
	h := newTestServer(t)
	note := createNote(t, h, "with images")

	w := uploadPNGs(t, h, note.ID, testMaxFiles+2)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	uploaded := decodeNote(t, w)
	require.Len(t, uploaded.Images, testMaxFiles)

	w = do(t, h, http.MethodGet, uploaded.Images[0], nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pngBytes, w.Body.Bytes())

	w = uploadPNGs(t, h, note.ID, 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	target := "/notes/" + note.ID + "/images?url=" + url.QueryEscape(uploaded.Images[1])
	w = do(t, h, http.MethodDelete, target, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{uploaded.Images[0], uploaded.Images[2]}, decodeNote(t, w).Images)

	w = do(t, h, http.MethodGet, uploaded.Images[1], nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, http.MethodDelete, target, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Image not found", detail(t, w))

	w = do(t, h, http.MethodDelete, "/notes/"+note.ID+"/images", nil, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUploadErrors(t *testing.T) {
	h := newTestServer(t)
	note := createNote(t, h, "title")

	t.Run("unsupported type", func(t *testing.T) {
		body, ct := multipartBody(t, upload{"a.gif", "image/gif", []byte("GIF89a")})
		w := do(t, h, http.MethodPost, "/notes/"+note.ID+"/images", body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, detail(t, w), "a.gif")
	})

	t.Run("too large", func(t *testing.T) {
		body, ct := multipartBody(t, upload{"big.png", "image/png", bytes.Repeat([]byte{1}, 2048)})
		w := do(t, h, http.MethodPost, "/notes/"+note.ID+"/images", body, ct)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing note", func(t *testing.T) {
		w := uploadPNGs(t, h, "6f1c1d7e-7c55-4a8f-9d55-000000000000", 1)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing note without files", func(t *testing.T) {
		for _, id := range []string{"not-an-id", "6f1c1d7e-7c55-4a8f-9d55-000000000000"} {
			body, ct := multipartBody(t)
			w := do(t, h, http.MethodPost, "/notes/"+id+"/images", body, ct)
			assert.Equal(t, http.StatusNotFound, w.Code, id)
		}
	})

	t.Run("no files", func(t *testing.T) {
		body, ct := multipartBody(t)
		w := do(t, h, http.MethodPost, "/notes/"+note.ID+"/images", body, ct)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		w := doJSON(t, h, http.MethodPost, "/notes/"+note.ID+"/images", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	w := do(t, h, http.MethodGet, "/notes/"+note.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeNote(t, w).Images)
}

func TestUploadRateLimit(t *testing.T) {
	h := newTestServer(t, WithUploadLimiter(NewRateLimiter(0.001, 1)))
	note := createNote(t, h, "title")

	w := uploadPNGs(t, h, note.ID, 1)
	require.Equal(t, http.StatusOK, w.Code)

	w = uploadPNGs(t, h, note.ID, 1)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func uploadFrom(t *testing.T, h http.Handler, id, forwardedFor string) int {
	t.Helper()

	body, ct := multipartBody(t, upload{name: "img.png", contentType: "image/png", data: pngBytes})
	req := httptest.NewRequest(http.MethodPost, "/notes/"+id+"/images", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	return w.Code
}

func TestUploadRateLimit_IgnoresForwardedForFromClients(t *testing.T) {
	h := newTestServer(t, WithUploadLimiter(NewRateLimiter(0.001, 1)))
	note := createNote(t, h, "title")

	codes := make([]int, 0, 5)
	for i := range 5 {
		codes = append(codes, uploadFrom(t, h, note.ID, fmt.Sprintf("10.0.0.%d", i)))
	}

	assert.Equal(t, []int{
		http.StatusOK,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
}

func TestUploadRateLimit_TrustedProxyForwardsClientAddress(t *testing.T) {
	// httptest requests come from 192.0.2.1.
	h := newTestServer(t,
		WithUploadLimiter(NewRateLimiter(0.001, 1)),
		WithTrustedProxies([]string{"192.0.2.0/24"}),
	)
	note := createNote(t, h, "title")

	assert.Equal(t, http.StatusOK, uploadFrom(t, h, note.ID, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, uploadFrom(t, h, note.ID, "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, uploadFrom(t, h, note.ID, "10.0.0.1"))
}

func TestNewRejectsBadTrustedProxies(t *testing.T) {
	_, err := New(NewOptions(failingNotes{}, &images.Usecase{}, WithTrustedProxies([]string{"not-an-ip"})))
	assert.Error(t, err)
}

type failingNotes struct {
	notesUsecase
}

func (failingNotes) ListNotes(context.Context) ([]entity.Note, error) {
	return nil, errors.New("connection refused: postgres://user:secret@db")
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	h, err := New(NewOptions(failingNotes{}, &images.Usecase{}))
	require.NoError(t, err)

	w := do(t, h.Engine(), http.MethodGet, "/notes", nil, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", detail(t, w))
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://localhost:3000"})(newTestServer(t))

	req := httptest.NewRequest(http.MethodOptions, "/notes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
