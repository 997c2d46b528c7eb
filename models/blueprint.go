package models

// DefaultCategory is assigned to blueprints the backend does not classify
const DefaultCategory = "Other"

// Blueprint represents a purchasable catalog product (a print-on-demand blueprint)
type Blueprint struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	Description string `json:"description,omitempty"` // HTML as returned by the provider
}

// Variant represents a purchasable variant of a single blueprint (size, color, ...)
type Variant struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// CatalogPage represents one page of the filtered catalog
// Example response:
// {
//   "items": [{"id": 5, "title": "Unisex Heavy Cotton Tee", "category": "Other"}],
//   "page": 2,
//   "pageSize": 10,
//   "totalItems": 143,
//   "totalPages": 15,
//   "pageNumbers": [1, 2, 3, 4, 5, 6, 7, -1, 15],
//   "categories": ["Other"]
// }
// A -1 in pageNumbers marks a collapsed gap (ellipsis)
type CatalogPage struct {
	Items       []Blueprint `json:"items"`
	Page        int         `json:"page"`
	PageSize    int         `json:"pageSize"`
	TotalItems  int         `json:"totalItems"`
	TotalPages  int         `json:"totalPages"`
	PageNumbers []int       `json:"pageNumbers"`
	Categories  []string    `json:"categories"`
	DidYouMean  []string    `json:"didYouMean,omitempty"`
}
