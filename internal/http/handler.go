package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/josinaldojr/medical-rag/internal/rag"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON object")

type Handler struct {
	ragService     *rag.Service
	imageService   *rag.ImageService
	requestTimeout time.Duration
}

// NewHandler wires the routes. imageService may be nil when the provider cannot draw.
func NewHandler(ragService *rag.Service, imageService *rag.ImageService, requestTimeout time.Duration) *Handler {
	return &Handler{
		ragService:     ragService,
		imageService:   imageService,
		requestTimeout: requestTimeout,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is working!"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var q rag.Query
	if err := decodeBody(w, r, &q); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body: " + decodeReason(err)})
		return
	}
	if q.Input == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "field 'input' is required"})
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	ans, err := h.ragService.Answer(ctx, *q.Input)
	if err != nil {
		status, msg := statusFor(err)
		log.Printf("chat: request_id=%s status=%d err=%v", RequestID(r.Context()), status, err)
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, rag.ChatResponse{Answer: ans.Text})
}

func (h *Handler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	if h.imageService == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "image generation is not available for this provider"})
		return
	}

	var req rag.ImageRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body: " + decodeReason(err)})
		return
	}
	if req.Prompt == nil || strings.TrimSpace(*req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Prompt is required"})
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	url, err := h.imageService.Generate(ctx, *req.Prompt)
	if err != nil {
		status, msg := statusFor(err)
		log.Printf("image: request_id=%s status=%d err=%v", RequestID(r.Context()), status, err)
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, rag.ImageResponse{ImageURL: url})
}

func (h *Handler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout > 0 {
		return context.WithTimeout(ctx, h.requestTimeout)
	}
	return context.WithCancel(ctx)
}

// decodeBody reads exactly one JSON value; anything but whitespace after it is rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errTrailingData
	}
	return nil
}

func statusFor(err error) (int, string) {
	if errors.Is(err, rag.ErrEmptyPrompt) {
		return http.StatusBadRequest, "Prompt is required"
	}
	var upErr *rag.UpstreamError
	if errors.As(err, &upErr) {
		if upErr.Timeout() {
			return http.StatusGatewayTimeout, "upstream " + string(upErr.Op) + " timed out"
		}
		return http.StatusBadGateway, "upstream " + string(upErr.Op) + " failed"
	}
	return http.StatusInternalServerError, "Internal Server Error"
}

func decodeReason(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return "body must be a JSON object"
		}
		return "field '" + typeErr.Field + "' must be a string"
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return "body too large"
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
