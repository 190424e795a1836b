// Package faq defines FAQ items, their association rules and the mapping
// rows those rules compile into.
package faq

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrFAQNotFound     = errors.New("faq not found")
	ErrContentNotFound = errors.New("content not found")
	ErrInvalidFAQ      = errors.New("invalid faq")
	ErrInvalidSettings = errors.New("invalid settings")
)

type Status string

const (
	StatusPublish Status = "publish"
	StatusDraft   Status = "draft"
)

// ParseStatus maps anything that is not "publish" to draft.
func ParseStatus(s string) Status {
	if strings.EqualFold(strings.TrimSpace(s), string(StatusPublish)) {
		return StatusPublish
	}
	return StatusDraft
}

type Item struct {
	ID       int64     `json:"id"`
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	Status   Status    `json:"status"`
	Rule     Rule      `json:"-"`
	Created  time.Time `json:"created"`
	Changed  time.Time `json:"changed"`
}

// Renderable reports whether the item may appear in rendered output.
func (i *Item) Renderable() bool {
	return i.Status == StatusPublish &&
		strings.TrimSpace(i.Question) != "" &&
		strings.TrimSpace(i.Answer) != ""
}
