package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	r.HandleFunc("/generate-image", h.GenerateImage).Methods(http.MethodPost)

	// Wrapped rather than r.Use so 404 and 405 responses are tagged and logged too.
	return corsMiddleware(requestIDMiddleware(accessLogMiddleware(r)))
}
