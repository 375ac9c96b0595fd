package notes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evgeniy-krivenko/notes-api/internal/api/notes/converter"
	"github.com/evgeniy-krivenko/notes-api/internal/ctxtr"
	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/internal/usecase/images"
	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
)

const (
	uploadField        = "files"
	maxMultipartMemory = 8 << 20
)

type notesUsecase interface {
	CreateNote(ctx context.Context, title, content string) (entity.Note, error)
	ListNotes(ctx context.Context) ([]entity.Note, error)
	GetNote(ctx context.Context, id string) (entity.Note, error)
	UpdateNote(ctx context.Context, id string, title, content *string) (entity.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

type imagesUsecase interface {
	UploadImages(ctx context.Context, noteID string, files []images.File) (entity.Note, error)
	DeleteImage(ctx context.Context, noteID, ref string) (entity.Note, error)
}

//go:generate go run github.com/kazhuravlev/options-gen/cmd/options-gen@v0.55.3 -out-filename=handlers_options.gen.go -from-struct=Options
type Options struct {
	notes  notesUsecase  `option:"mandatory" validate:"required"`
	images imagesUsecase `option:"mandatory" validate:"required"`

	// uploadsDir is served read-only under uploadsPrefix when set.
	uploadsDir    string
	uploadsPrefix string `default:"/uploads"`

	uploadLimiter *RateLimiter

	// trustedProxies may set X-Forwarded-For. Empty means client addresses
	// come from the connection only.
	trustedProxies []string
}

type Handler struct {
	Options
}

func New(opts Options) (*Handler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if err := gin.New().SetTrustedProxies(opts.trustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %v", err)
	}

	return &Handler{Options: opts}, nil
}

// Engine builds the HTTP router with all note routes.
func (h *Handler) Engine() *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.HandleMethodNotAllowed = true
	// Checked in New.
	_ = r.SetTrustedProxies(h.trustedProxies)

	r.Use(
		ctxtr.Middleware(),
		gin.CustomRecovery(func(c *gin.Context, err any) {
			slogx.Error(c.Request.Context(), "panic recovered", slog.Any("panic", err))
			abort(c, http.StatusInternalServerError, "internal server error")
		}),
		slogx.AccessLog(),
	)

	r.GET("/health", h.health)

	r.GET("/notes", h.listNotes)
	r.POST("/notes", h.createNote)
	r.GET("/notes/:id", h.getNote)
	r.PUT("/notes/:id", h.updateNote)
	r.DELETE("/notes/:id", h.deleteNote)

	upload := []gin.HandlerFunc{h.uploadImages}
	if h.uploadLimiter != nil {
		upload = append([]gin.HandlerFunc{h.uploadLimiter.Middleware()}, upload...)
	}
	r.POST("/notes/:id/images", upload...)
	r.DELETE("/notes/:id/images", h.deleteImage)

	if h.uploadsDir != "" {
		r.StaticFS(h.uploadsPrefix, gin.Dir(h.uploadsDir, false))
	}

	r.NoRoute(func(c *gin.Context) { abort(c, http.StatusNotFound, "Not found") })
	r.NoMethod(func(c *gin.Context) { abort(c, http.StatusMethodNotAllowed, "Method not allowed") })

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listNotes(c *gin.Context) {
	notes, err := h.notes.ListNotes(c.Request.Context())
	if err != nil {
		writeError(c, "list_notes", "", err)
		return
	}

	c.JSON(http.StatusOK, converter.ConvertNotesToResponse(notes))
}

func (h *Handler) getNote(c *gin.Context) {
	id := c.Param("id")

	note, err := h.notes.GetNote(c.Request.Context(), id)
	if err != nil {
		writeError(c, "get_note", id, err)
		return
	}

	c.JSON(http.StatusOK, converter.ConvertNoteToResponse(note))
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) createNote(c *gin.Context) {
	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	note, err := h.notes.CreateNote(c.Request.Context(), req.Title, req.Content)
	if err != nil {
		writeError(c, "create_note", "", err)
		return
	}

	c.JSON(http.StatusCreated, converter.ConvertNoteToResponse(note))
}

// updateNoteRequest distinguishes omitted fields (nil) from empty ones.
type updateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *Handler) updateNote(c *gin.Context) {
	id := c.Param("id")

	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	note, err := h.notes.UpdateNote(c.Request.Context(), id, req.Title, req.Content)
	if err != nil {
		writeError(c, "update_note", id, err)
		return
	}

	c.JSON(http.StatusOK, converter.ConvertNoteToResponse(note))
}

func (h *Handler) deleteNote(c *gin.Context) {
	id := c.Param("id")

	if err := h.notes.DeleteNote(c.Request.Context(), id); err != nil {
		writeError(c, "delete_note", id, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadImages(c *gin.Context) {
	id := c.Param("id")

	form, err := c.MultipartForm()
	if err != nil {
		abort(c, http.StatusBadRequest, "invalid multipart form")
		return
	}

	headers := form.File[uploadField]
	files := make([]images.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, fileFromHeader(fh))
	}

	note, err := h.images.UploadImages(c.Request.Context(), id, files)
	if err != nil {
		writeError(c, "upload_images", id, err)
		return
	}

	c.JSON(http.StatusOK, converter.ConvertNoteToResponse(note))
}

func (h *Handler) deleteImage(c *gin.Context) {
	id := c.Param("id")

	ref := c.Query("url")
	if ref == "" {
		writeError(c, "delete_image", id, entity.NewValidationError("url", "query parameter is required"))
		return
	}

	note, err := h.images.DeleteImage(c.Request.Context(), id, ref)
	if err != nil {
		writeError(c, "delete_image", id, err)
		return
	}

	c.JSON(http.StatusOK, converter.ConvertNoteToResponse(note))
}

func fileFromHeader(fh *multipart.FileHeader) images.File {
	return images.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
