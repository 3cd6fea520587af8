package rag

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ImagePromptTemplate frames the user's subject for a pharmacy setting. %s is the subject.
const ImagePromptTemplate = "A professional, accurate pharmacy-related image showing: %s. " +
	"The image should be clear, medically appropriate, and suitable for a healthcare setting."

// ErrEmptyPrompt is returned when the subject is blank. No upstream call is made.
var ErrEmptyPrompt = errors.New("prompt is required")

// ErrNoImage is returned by image adapters when the response carried no URL.
var ErrNoImage = errors.New("no image returned")

type ImageService struct {
	images  ImageClient
	timeout time.Duration
}

func NewImageService(images ImageClient, upstreamTimeout time.Duration) *ImageService {
	return &ImageService{images: images, timeout: upstreamTimeout}
}

// Generate frames the subject and asks the image backend for a single picture.
func (s *ImageService) Generate(ctx context.Context, subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrEmptyPrompt
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	url, err := s.images.GenerateImage(ctx, fmt.Sprintf(ImagePromptTemplate, subject))
	if err == nil && url == "" {
		err = ErrNoImage
	}
	if err != nil {
		return "", &UpstreamError{Op: OpImage, Err: err}
	}

	log.Printf("rag: image generated lang=%s took=%s", detectLang(subject), time.Since(start).Round(time.Millisecond))
	return url, nil
}
