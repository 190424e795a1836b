package faq

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// RuleType is the declared association kind of a FAQ.
type RuleType string

const (
	RuleURLs      RuleType = "urls"
	RulePosts     RuleType = "posts"
	RulePostTypes RuleType = "post_types"
	RuleTerms     RuleType = "tax_terms"
	RuleGlobal    RuleType = "global"
)

// RuleEnv is what a rule needs from the outside world to compile.
type RuleEnv interface {
	// NormalizeURL returns the canonical form of raw, or false if raw is unusable.
	NormalizeURL(raw string) (string, bool)
	// ResolveURL maps a canonical URL to a content ID when one is known.
	ResolveURL(ctx context.Context, canonical string) (int64, bool)
}

// Rule is a FAQ association rule. The set of implementations is closed.
type Rule interface {
	Type() RuleType
	// Rows compiles the rule into mapping rows for faqID. Output order is stable.
	Rows(ctx context.Context, faqID int64, env RuleEnv) []MappingRow
	Payload() AssociationPayload
	isRule()
}

type URLRule struct{ URLs []string }
type PostRule struct{ IDs []int64 }
type PostTypeRule struct{ Types []string }
type TermRule struct{ IDs []int64 }
type GlobalRule struct{}

func (URLRule) isRule()      {}
func (PostRule) isRule()     {}
func (PostTypeRule) isRule() {}
func (TermRule) isRule()     {}
func (GlobalRule) isRule()   {}

func (URLRule) Type() RuleType      { return RuleURLs }
func (PostRule) Type() RuleType     { return RulePosts }
func (PostTypeRule) Type() RuleType { return RulePostTypes }
func (TermRule) Type() RuleType     { return RuleTerms }
func (GlobalRule) Type() RuleType   { return RuleGlobal }

// Rows emits a url row per distinct canonical URL, followed by a post row
// when the URL resolves to known content.
func (r URLRule) Rows(ctx context.Context, faqID int64, env RuleEnv) []MappingRow {
	var rows []MappingRow
	seenURL := map[string]bool{}
	seenPost := map[int64]bool{}

	for _, entry := range r.URLs {
		for _, line := range strings.Split(entry, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			canonical, ok := env.NormalizeURL(line)
			if !ok || seenURL[canonical] {
				continue
			}
			seenURL[canonical] = true
			rows = append(rows, MappingRow{FAQID: faqID, Type: MappingURL, Value: canonical})

			if id, ok := env.ResolveURL(ctx, canonical); ok && id > 0 && !seenPost[id] {
				seenPost[id] = true
				rows = append(rows, MappingRow{FAQID: faqID, Type: MappingPost, Value: formatID(id)})
			}
		}
	}
	return rows
}

func (r PostRule) Rows(_ context.Context, faqID int64, _ RuleEnv) []MappingRow {
	return idRows(faqID, MappingPost, r.IDs)
}

func (r TermRule) Rows(_ context.Context, faqID int64, _ RuleEnv) []MappingRow {
	return idRows(faqID, MappingTerm, r.IDs)
}

func (r PostTypeRule) Rows(_ context.Context, faqID int64, _ RuleEnv) []MappingRow {
	var rows []MappingRow
	seen := map[string]bool{}
	for _, raw := range r.Types {
		name := SanitizePostType(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		rows = append(rows, MappingRow{FAQID: faqID, Type: MappingPostType, Value: name})
	}
	return rows
}

func (GlobalRule) Rows(_ context.Context, faqID int64, _ RuleEnv) []MappingRow {
	return []MappingRow{{FAQID: faqID, Type: MappingGlobal, Value: GlobalValue}}
}

func idRows(faqID int64, t MappingType, ids []int64) []MappingRow {
	var rows []MappingRow
	seen := map[int64]bool{}
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, MappingRow{FAQID: faqID, Type: t, Value: formatID(id)})
	}
	return rows
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

var postTypeDisallowed = regexp.MustCompile(`[^a-z0-9_\-]`)

// SanitizePostType lowercases a post type key and drops anything outside [a-z0-9_-].
func SanitizePostType(s string) string {
	return postTypeDisallowed.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
}

func (r URLRule) Payload() AssociationPayload {
	return AssociationPayload{Type: RuleURLs, URLs: r.URLs}
}
func (r PostRule) Payload() AssociationPayload {
	return AssociationPayload{Type: RulePosts, Posts: r.IDs}
}
func (r PostTypeRule) Payload() AssociationPayload {
	return AssociationPayload{Type: RulePostTypes, PostTypes: r.Types}
}
func (r TermRule) Payload() AssociationPayload {
	return AssociationPayload{Type: RuleTerms, Terms: r.IDs}
}
func (GlobalRule) Payload() AssociationPayload {
	return AssociationPayload{Type: RuleGlobal, Global: true}
}

// AssociationPayload is the wire and storage form of a rule. Only the field
// matching Type is read.
type AssociationPayload struct {
	Type      RuleType   `json:"type"`
	URLs      StringList `json:"urls,omitempty"`
	Posts     IDList     `json:"posts,omitempty"`
	PostTypes StringList `json:"post_types,omitempty"`
	Terms     IDList     `json:"terms,omitempty"`
	Global    bool       `json:"global,omitempty"`
}

// Rule selects the variant for the declared type. Unknown or missing types
// fall back to an empty URL rule, which matches nothing.
func (p AssociationPayload) Rule() Rule {
	switch p.Type {
	case RuleURLs:
		return URLRule{URLs: p.URLs}
	case RulePosts:
		return PostRule{IDs: p.Posts}
	case RulePostTypes:
		return PostTypeRule{Types: p.PostTypes}
	case RuleTerms:
		return TermRule{IDs: p.Terms}
	case RuleGlobal:
		return GlobalRule{}
	default:
		return URLRule{}
	}
}

// DecodePayload parses a stored or submitted payload. Malformed input yields
// the empty URL rule instead of an error.
func DecodePayload(raw []byte) Rule {
	if len(raw) == 0 {
		return URLRule{}
	}
	var p AssociationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return URLRule{}
	}
	return p.Rule()
}

// EncodePayload is the inverse of DecodePayload.
func EncodePayload(r Rule) ([]byte, error) {
	if r == nil {
		r = URLRule{}
	}
	return json.Marshal(r.Payload())
}

// StringList accepts a JSON array of strings or a single newline separated string.
type StringList []string

func (s *StringList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*s = arr
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*s = strings.Split(one, "\n")
		return nil
	}
	*s = nil
	return nil
}

// IDList accepts numbers, numeric strings, or a comma separated string.
// Entries that are not positive integers are dropped.
type IDList []int64

func (l *IDList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		var one string
		if err := json.Unmarshal(b, &one); err != nil {
			*l = nil
			return nil
		}
		for _, part := range strings.Split(one, ",") {
			raw = append(raw, json.RawMessage(strconv.Quote(strings.TrimSpace(part))))
		}
	}

	var out []int64
	for _, item := range raw {
		var n int64
		if err := json.Unmarshal(item, &n); err == nil {
			if n > 0 {
				out = append(out, n)
			}
			continue
		}
		var str string
		if err := json.Unmarshal(item, &str); err == nil {
			if n, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64); err == nil && n > 0 {
				out = append(out, n)
			}
		}
	}
	*l = out
	return nil
}
