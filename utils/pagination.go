package utils

// Ellipsis marks a collapsed run of page numbers in PageNumbers output
const Ellipsis = -1

// pageWindowBefore / pageWindowAfter bound the pages listed around the current one
const (
	pageWindowBefore = 4
	pageWindowAfter  = 5
)

// TotalPages returns the number of pages needed for count items (at least 1)
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 1
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage clamps a 1-indexed page number to [1, totalPages]
func ClampPage(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate returns the items of a 1-indexed page; out of range pages are clamped
func Paginate[T any](items []T, pageSize, page int) []T {
	if pageSize <= 0 {
		return items
	}
	page = ClampPage(page, TotalPages(len(items), pageSize))
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// PageNumbers returns the page links to show for the current page.
// First and last pages are always present; the pages in
// [max(2, current-4), min(last-1, current+5)] are listed and any gap is a single Ellipsis.
// Example: PageNumbers(10, 15) = [1, Ellipsis, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15]
func PageNumbers(current, totalPages int) []int {
	if totalPages < 1 {
		totalPages = 1
	}
	current = ClampPage(current, totalPages)
	if totalPages == 1 {
		return []int{1}
	}

	start := max(2, current-pageWindowBefore)
	end := min(totalPages-1, current+pageWindowAfter)

	pages := []int{1}
	if start > 2 {
		pages = append(pages, Ellipsis)
	}
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	if end < totalPages-1 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, totalPages)
}
