package notes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evgeniy-krivenko/notes-api/internal/entity"
	"github.com/evgeniy-krivenko/notes-api/pkg/logger/slogx"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, errorResponse{Detail: detail})
}

// writeError is the single place where usecase errors become responses.
// Anything unrecognized is logged and reported as a bare 500.
func writeError(c *gin.Context, op, noteID string, err error) {
	var (
		verr *entity.ValidationError
		ferr *entity.FileError
	)

	switch {
	case errors.As(err, &verr):
		abort(c, http.StatusUnprocessableEntity, verr.Error())
	case errors.Is(err, entity.ErrNoteNotFound):
		abort(c, http.StatusNotFound, "Note not found")
	case errors.Is(err, entity.ErrImageNotFound):
		abort(c, http.StatusNotFound, "Image not found")
	case errors.As(err, &ferr):
		abort(c, http.StatusBadRequest, ferr.Detail)
	case errors.Is(err, entity.ErrImageQuotaExceeded),
		errors.Is(err, entity.ErrUnsupportedMediaType),
		errors.Is(err, entity.ErrPayloadTooLarge):
		abort(c, http.StatusBadRequest, err.Error())
	default:
		slogx.Error(c.Request.Context(), "request failed",
			slogx.Op(op),
			slogx.NoteID(noteID),
			slogx.Err(err),
			slog.String("path", c.Request.URL.Path),
		)
		abort(c, http.StatusInternalServerError, "internal server error")
	}
}
