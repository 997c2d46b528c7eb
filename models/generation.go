package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// RecordID is an identifier assigned by the remote backend.
// The backend may answer with a JSON number or a JSON string; both decode to the same value.
type RecordID string

// UnmarshalJSON accepts numbers and strings
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid record id %s: %w", string(data), err)
	}
	*id = RecordID(n.String())
	return nil
}

// MarshalJSON emits canonical integer ids as numbers so integer-keyed backends accept them unchanged.
// Anything else ("007", "+5", "abc-1") stays a JSON string.
func (id RecordID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// ListingForm holds the listing metadata entered by the operator
type ListingForm struct {
	Niche             string `json:"niche"`
	StylePreferences  string `json:"stylePreferences"`
	AdditionalNotes   string `json:"additionalNotes"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	SafetyInformation string `json:"safetyInformation"`
	Keywords          string `json:"keywords"` // comma-separated
	Tags              string `json:"tags"`     // comma-separated
}

// GenerationRequest is one submit of the workflow: the form plus a snapshot of the selection
type GenerationRequest struct {
	Listing    ListingForm   `json:"listing"`
	ProductIDs []int         `json:"productIds"`
	Variants   map[int][]int `json:"variants"`
}

// CreateProductRequest represents the product-creation payload sent to the backend
type CreateProductRequest struct {
	Niche             string   `json:"niche"`
	BlueprintID       int      `json:"blueprint_id"`
	Variants          []int    `json:"variants"`
	StylePreferences  string   `json:"style_preferences"`
	AdditionalNotes   string   `json:"additional_notes"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	SafetyInformation string   `json:"safety_information"`
	Keywords          []string `json:"keywords,omitempty"`
	Tags              []string `json:"tags,omitempty"`
}

// CreateProductResponse represents the backend answer to a product creation
type CreateProductResponse struct {
	ID RecordID `json:"id"`
}

// GenerateDesignRequest represents the body of a design generation call
type GenerateDesignRequest struct {
	ProductID RecordID `json:"product_id"`
}

// GenerateDesignResponse represents the backend answer to a design generation
type GenerateDesignResponse struct {
	Previews []string `json:"previews"`
}

// GenerationItemResult is the outcome of the pipeline for one selected blueprint
type GenerationItemResult struct {
	RunID            string   `json:"runId"`
	Index            int      `json:"index"`
	BlueprintID      int      `json:"blueprintId"`
	CreatedProductID RecordID `json:"createdProductId,omitempty"`
	Previews         []string `json:"previews"`
	Err              error    `json:"-"`
	Error            string   `json:"error,omitempty"`
}

// Failed reports whether the item ended with an error
func (r GenerationItemResult) Failed() bool {
	return r.Err != nil
}

// GenerationResult aggregates one pipeline run
type GenerationResult struct {
	RunID    string                 `json:"runId"`
	Items    []GenerationItemResult `json:"items"`
	Previews []string               `json:"previews"`
	Errors   []string               `json:"errors,omitempty"`
}

// NewGenerationResult creates an empty result for a run
func NewGenerationResult(runID string) GenerationResult {
	return GenerationResult{RunID: runID, Items: []GenerationItemResult{}, Previews: []string{}}
}

// Add appends an item; previews keep pipeline order
func (r *GenerationResult) Add(item GenerationItemResult) {
	r.Items = append(r.Items, item)
	r.Previews = append(r.Previews, item.Previews...)
	if item.Failed() {
		r.Errors = append(r.Errors, item.Error)
	}
}

// GenerationRecord is a persisted pipeline item
type GenerationRecord struct {
	ID               int64    `json:"id"`
	RunID            string   `json:"runId"`
	BlueprintID      int      `json:"blueprintId"`
	CreatedProductID string   `json:"createdProductId,omitempty"`
	Previews         []string `json:"previews"`
	Error            string   `json:"error,omitempty"`
	CreatedAt        string   `json:"createdAt"`
}

// Generation stream event types
const (
	EventItem    = "item"
	EventSummary = "summary"
)

// GenerationEvent is one line of the NDJSON generation stream
type GenerationEvent struct {
	Type   string                `json:"type"`
	Item   *GenerationItemResult `json:"item,omitempty"`
	Result *GenerationResult     `json:"result,omitempty"`
}
