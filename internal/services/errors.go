package services

import "errors"

// Failure taxonomy for the render pipeline.
//
// Fatal classes abort the task before or during encoding; recoverable
// classes degrade inside the component that raised them and never
// propagate past it.
var (
	// ErrInputMissing — narration audio or scene list absent. Fatal; the
	// worker fails the task before any rendering starts.
	ErrInputMissing = errors.New("required input missing")

	// ErrTranscriptionEmpty — the transcription model returned zero words.
	// Recoverable; scene timing falls back to even time-slicing.
	ErrTranscriptionEmpty = errors.New("transcription returned no words")

	// ErrEncodeFailure — ffmpeg failed while producing an artifact. Fatal;
	// the task transitions to failed with the error captured verbatim.
	ErrEncodeFailure = errors.New("encode failed")
)
