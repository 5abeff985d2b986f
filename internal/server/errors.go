package server

import (
	"errors"
	"net/http"

	"newsroom/internal/store"
	"newsroom/internal/upload"

	"github.com/go-chi/render"
	"go.uber.org/zap"
)

type errKind int

const (
	kindInternal errKind = iota
	kindNotFound
	kindValidation
	kindUploadRejected
	kindUploadFailed
	kindUnavailable
)

var kindResponses = map[errKind]struct {
	status  int
	message string
}{
	kindInternal:       {http.StatusInternalServerError, "internal server error"},
	kindNotFound:       {http.StatusNotFound, "resource not found"},
	kindValidation:     {http.StatusBadRequest, "invalid request"},
	kindUploadRejected: {http.StatusUnsupportedMediaType, "unsupported image format"},
	kindUploadFailed:   {http.StatusBadGateway, "image upload failed"},
	kindUnavailable:    {http.StatusServiceUnavailable, "service unavailable"},
}

func classify(err error) errKind {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return kindNotFound
	case errors.Is(err, store.ErrInvalidID),
		errors.Is(err, store.ErrValidation),
		errors.Is(err, upload.ErrBadForm):
		return kindValidation
	case errors.Is(err, upload.ErrUnsupportedImage):
		return kindUploadRejected
	case errors.Is(err, upload.ErrStorage):
		return kindUploadFailed
	case errors.Is(err, store.ErrUnavailable):
		return kindUnavailable
	default:
		return kindInternal
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError logs err in full and answers with the public message for its kind only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := classify(err)
	resp := kindResponses[kind]

	fields := []zap.Field{zap.String("URI", r.URL.RequestURI()), zap.Int("status", resp.status), zap.Error(err)}
	if resp.status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Info("request rejected", fields...)
	}

	render.Status(r, resp.status)
	render.JSON(w, r, errorResponse{Error: resp.message})
}
