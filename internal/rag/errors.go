package rag

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Op names the external call that failed.
type Op string

const (
	OpEmbed    Op = "embed"
	OpSearch   Op = "search"
	OpComplete Op = "complete"
	OpImage    Op = "image"
)

// UpstreamError wraps any failure of the embedding, index or completion backend.
type UpstreamError struct {
	Op  Op
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time, either on the local
// context or as a gRPC DeadlineExceeded status from a store.
func (e *UpstreamError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	return status.Code(e.Err) == codes.DeadlineExceeded
}

// ErrEmptyCompletion is returned by completion adapters when the model produced no text.
var ErrEmptyCompletion = errors.New("model returned empty text")

// ErrNoEmbedding is returned by embedding adapters when the response carried no vector.
var ErrNoEmbedding = errors.New("no embeddings returned")
