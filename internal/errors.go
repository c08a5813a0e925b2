package internal

import "errors"

// Failure categories surfaced by the pipeline. Causes are attached with
// fmt.Errorf("%w: %w", ...) so callers can classify with errors.Is while the
// underlying tool output stays in the chain.
var (
	// ErrSessionNotFound means the session id is unknown to the registry.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAcquisitionFailed means yt-dlp could not produce the requested media.
	ErrAcquisitionFailed = errors.New("media acquisition failed")

	// ErrTranscriptionFailed means the speech-to-text call failed.
	ErrTranscriptionFailed = errors.New("transcription failed")

	// ErrExtractionFailed means cutting a clip from the master video failed.
	ErrExtractionFailed = errors.New("clip extraction failed")

	// ErrInvalidRange means the requested [start, end) span is not usable.
	ErrInvalidRange = errors.New("invalid clip range")
)
