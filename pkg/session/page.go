package session

// DefaultPageSize is the number of candidates shown per page.
const DefaultPageSize = 10

// Page is one screen of candidates.
type Page []string

// Paginate splits candidates into consecutive pages of size elements, the
// last page holding the remainder. No candidates means no pages. Pages share
// the backing array of candidates.
func Paginate(candidates []string, size int) []Page {
	if len(candidates) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := make([]Page, 0, (len(candidates)+size-1)/size)
	for start := 0; start < len(candidates); start += size {
		end := min(start+size, len(candidates))
		pages = append(pages, Page(candidates[start:end:end]))
	}
	return pages
}
