package models

import (
	"errors"
	"fmt"
	"net/http"
)

// FetchError is returned when a background read (catalog, variants, templates) fails
// StatusCode is 0 for transport and parse failures
type FetchError struct {
	Resource   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Resource, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NotFound reports whether the backend answered 404
func (e *FetchError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ValidationError is returned when operator input is rejected before any remote call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Generation pipeline stages
const (
	StageCreateProduct  = "create_product"
	StageGenerateDesign = "generate_design"
)

// GenerationItemError is the failure of one blueprint inside a pipeline run
type GenerationItemError struct {
	BlueprintID int
	Stage       string
	Err         error
}

func (e *GenerationItemError) Error() string {
	return fmt.Sprintf("blueprint %d: %s failed: %v", e.BlueprintID, e.Stage, e.Err)
}

func (e *GenerationItemError) Unwrap() error { return e.Err }

// SuggestionError is returned when niche suggestions cannot be produced
type SuggestionError struct {
	Err error
}

func (e *SuggestionError) Error() string {
	return fmt.Sprintf("niche suggestions unavailable: %v", e.Err)
}

func (e *SuggestionError) Unwrap() error { return e.Err }

// StatusError is a non-2xx answer from the remote backend
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Body)
}

// StatusCodeOf returns the backend status carried by err, or 0
func StatusCodeOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}
