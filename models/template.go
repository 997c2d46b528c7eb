package models

// Template represents a saved product + variant selection that can be re-applied
type Template struct {
	ID       int           `json:"id"`
	Name     string        `json:"name"`
	Products []int         `json:"products"`
	Variants map[int][]int `json:"variants"`
}

// CreateTemplateRequest represents the body sent to the template store
// Example: {"name": "Summer tees", "products": [5, 12], "variants": {"5": [17390, 17391], "12": []}}
type CreateTemplateRequest struct {
	Name     string        `json:"name"`
	Products []int         `json:"products"`
	Variants map[int][]int `json:"variants"`
}

// SaveTemplateRequest represents the request body for saving the current selection as a template
type SaveTemplateRequest struct {
	Name string `json:"name"`
}
