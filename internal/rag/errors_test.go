package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUpstreamError_Timeout(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "context deadline", err: context.DeadlineExceeded, want: true},
		{name: "wrapped context deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: true},
		{name: "grpc deadline", err: status.Error(codes.DeadlineExceeded, "context deadline exceeded"), want: true},
		{name: "wrapped grpc deadline", err: fmt.Errorf("qdrant search: %w", status.Error(codes.DeadlineExceeded, "deadline")), want: true},
		{name: "grpc unavailable", err: status.Error(codes.Unavailable, "connection refused"), want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "plain error", err: errors.New("rate limited"), want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := &UpstreamError{Op: OpSearch, Err: tc.err}
			if got := err.Timeout(); got != tc.want {
				t.Fatalf("Timeout() = %v, want %v", got, tc.want)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("UpstreamError must unwrap to its cause")
			}
		})
	}
}
