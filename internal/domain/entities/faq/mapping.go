package faq

// MappingType is the kind of value a mapping row matches on.
type MappingType string

const (
	MappingPost     MappingType = "post"
	MappingPostType MappingType = "post_type"
	MappingTerm     MappingType = "term"
	MappingURL      MappingType = "url"
	MappingGlobal   MappingType = "global"
)

// GlobalValue is the sentinel stored in every global row and global candidate.
const GlobalValue = "1"

func (t MappingType) Valid() bool {
	switch t {
	case MappingPost, MappingPostType, MappingTerm, MappingURL, MappingGlobal:
		return true
	}
	return false
}

// MappingRow is one normalized (faq, type, value) index entry.
type MappingRow struct {
	FAQID int64       `json:"faqId" db:"faq_id"`
	Type  MappingType `json:"type" db:"mapping_type"`
	Value string      `json:"value" db:"mapping_value"`
}

// Candidate is a (type, value) pair a page offers for matching.
type Candidate struct {
	Type  MappingType
	Value string
}

func (r MappingRow) Candidate() Candidate {
	return Candidate{Type: r.Type, Value: r.Value}
}
