// Package httputil contains shared HTTP utilities for consistent response formatting across handlers.
package httputil

import (
	"net/http"

	"github.com/go-chi/render"
)

type errorResponse struct {
	Error string `json:"error"`
}

func WriteJSONError(w http.ResponseWriter, r *http.Request, message string, status int) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: message})
}
