// Package rag answers questions by retrieving stored chunks and asking a
// chat model to respond grounded in them.
package rag

import "errors"

var (
	// ErrRateLimited indicates the completion service rejected the request
	// for quota reasons. Callers should surface this as a retryable
	// condition.
	ErrRateLimited = errors.New("completion service rate limited")

	// ErrCompletionTimeout indicates the completion call exceeded its
	// deadline.
	ErrCompletionTimeout = errors.New("completion request timed out")

	// ErrMalformedCompletion indicates the completion service returned a
	// response with no usable answer in it.
	ErrMalformedCompletion = errors.New("malformed completion response")

	// ErrEmptyQuestion indicates the caller passed a blank question.
	ErrEmptyQuestion = errors.New("question must not be empty")
)
