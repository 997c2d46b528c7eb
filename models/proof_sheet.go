package models

// ProofItem is one blueprint of a generation run on the proof sheet
type ProofItem struct {
	BlueprintID int      `json:"blueprintId"`
	Title       string   `json:"title"`
	Brand       string   `json:"brand,omitempty"`
	Model       string   `json:"model,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	ProductID   RecordID `json:"productId,omitempty"`
	Previews    []string `json:"previews"`
	Error       string   `json:"error,omitempty"`
}

// ProofSheet is the review sheet of the last generation run of a session
type ProofSheet struct {
	SessionID string      `json:"sessionId"`
	RunID     string      `json:"runId"`
	Listing   ListingForm `json:"listing"`
	Keywords  []string    `json:"keywords"`
	Tags      []string    `json:"tags"`
	Items     []ProofItem `json:"items"`
}
