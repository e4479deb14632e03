package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/realestate/internal/apperrors"
	"github.com/nkiryanov/realestate/internal/handlers/render"
	"github.com/nkiryanov/realestate/internal/logger"
)

// Render err, unexpected errors are logged since the client gets no details
func renderError(w http.ResponseWriter, l logger.Logger, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		l.Error("Request failed", "error", err)
	}
	render.AppError(w, err)
}
