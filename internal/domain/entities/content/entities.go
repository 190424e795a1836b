// Package content defines the mirrored CMS content the FAQ index resolves against.
package content

// Item is the service's copy of one CMS page or post.
type Item struct {
	ID       int64  `json:"id" db:"id"`
	PostType string `json:"postType" db:"post_type"`
	URL      string `json:"url" db:"url"`
	Title    string `json:"title" db:"title"`
	Status   string `json:"status" db:"status"`
	Terms    []Term `json:"terms,omitempty" db:"-"`
}

// TermIDs returns the IDs of every attached term.
func (i *Item) TermIDs() []int64 {
	ids := make([]int64, 0, len(i.Terms))
	for _, t := range i.Terms {
		ids = append(ids, t.ID)
	}
	return ids
}

type Term struct {
	ID       int64  `json:"id" db:"id"`
	Taxonomy string `json:"taxonomy" db:"taxonomy"`
	Name     string `json:"name" db:"name"`
}

// SearchResult is one autocomplete suggestion.
type SearchResult struct {
	ID    int64  `json:"id" db:"id"`
	Label string `json:"label" db:"label"`
	Kind  string `json:"kind" db:"kind"`
}
