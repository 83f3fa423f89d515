package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotVideo rejects documents that are not declared as video.
	ErrNotVideo = errors.New("media is not a video")
	// ErrSessionActive rejects new media while one is pending and strict mode is on.
	ErrSessionActive = errors.New("a rename is already in progress")
	// ErrInvalidName rejects a reply that contains no usable text.
	ErrInvalidName = errors.New("invalid file name")
)

// SizeError rejects media above the configured limit.
type SizeError struct {
	Limit int64
	Size  int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("media size %d exceeds limit %d", e.Size, e.Limit)
}
