package services

import "fmt"

// ValidationError rejects a malformed payload before anything is written.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// GenerationFailure marks an external generation call that errored or timed
// out. It is per-article: the batch skips the article and continues.
type GenerationFailure struct {
	ArticleID string
	Stage     string // "summary" or "tips"
	Err       error
}

func (e *GenerationFailure) Error() string {
	return fmt.Sprintf("generation of %s failed for article %s: %v", e.Stage, e.ArticleID, e.Err)
}

func (e *GenerationFailure) Unwrap() error { return e.Err }
