package models

// NicheSuggestRequest represents the body sent to the niche suggestion service
type NicheSuggestRequest struct {
	ProductType string `json:"product_type"`
}

// NicheSuggestResponse represents the niche suggestion answer
type NicheSuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ChooseNicheRequest represents the body for writing a chosen niche into the listing form
type ChooseNicheRequest struct {
	Niche string `json:"niche"`
}
