// Package services holds pure domain logic that sits between entities and
// the application services.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/AtRiskMedia/faq-jsonld-go/internal/domain/entities/faq"
)

// URLResolver maps canonical URLs to content IDs.
type URLResolver interface {
	FindIDByURL(ctx context.Context, canonical string) (int64, bool, error)
}

// RuleCompiler turns association rules into mapping rows.
type RuleCompiler struct {
	base     *url.URL
	resolver URLResolver
	logger   *slog.Logger
}

func NewRuleCompiler(siteURL string, resolver URLResolver, logger *slog.Logger) (*RuleCompiler, error) {
	base, err := url.Parse(siteURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("site url %q is not absolute", siteURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RuleCompiler{base: base, resolver: resolver, logger: logger}, nil
}

// Compile returns the full row set for faqID. The same rule always yields the
// same rows for the same content mirror.
func (c *RuleCompiler) Compile(ctx context.Context, faqID int64, rule faq.Rule) []faq.MappingRow {
	if rule == nil {
		rule = faq.URLRule{}
	}
	return rule.Rows(ctx, faqID, c)
}

func (c *RuleCompiler) NormalizeURL(raw string) (string, bool) {
	return faq.NormalizeURL(raw, c.base)
}

// ResolveURL treats lookup failures as unresolved; the url row still matches
// at render time.
func (c *RuleCompiler) ResolveURL(ctx context.Context, canonical string) (int64, bool) {
	if c.resolver == nil {
		return 0, false
	}
	id, ok, err := c.resolver.FindIDByURL(ctx, canonical)
	if err != nil {
		c.logger.Warn("URL resolution failed, keeping url-only row", "url", canonical, "error", err)
		return 0, false
	}
	return id, ok
}
