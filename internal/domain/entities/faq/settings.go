package faq

import (
	"fmt"
	"time"
)

type OutputType string

const (
	OutputFAQSection OutputType = "FAQSection"
	OutputFAQPage    OutputType = "FAQPage"
)

const (
	MinCacheTTL  = 60 * time.Second
	MinBatchSize = 10
)

// Settings are the editor-tunable knobs shared by the whole process.
type Settings struct {
	CacheTTL   time.Duration `json:"-"`
	BatchSize  int           `json:"batchSize"`
	OutputType OutputType    `json:"outputType"`
}

// ParseOutputType accepts either schema name in any case and the lowercase
// form keys "faqsection" and "faqpage".
func ParseOutputType(s string) (OutputType, bool) {
	switch s {
	case "FAQSection", "faqsection", "FAQSECTION":
		return OutputFAQSection, true
	case "FAQPage", "faqpage", "FAQPAGE":
		return OutputFAQPage, true
	}
	return "", false
}

func (s Settings) Validate() error {
	if s.CacheTTL < MinCacheTTL {
		return fmt.Errorf("%w: cache ttl must be at least %s", ErrInvalidSettings, MinCacheTTL)
	}
	if s.BatchSize < MinBatchSize {
		return fmt.Errorf("%w: batch size must be at least %d", ErrInvalidSettings, MinBatchSize)
	}
	if _, ok := ParseOutputType(string(s.OutputType)); !ok {
		return fmt.Errorf("%w: output type %q", ErrInvalidSettings, s.OutputType)
	}
	return nil
}
