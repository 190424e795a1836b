package faq

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEnv struct {
	base  *url.URL
	known map[string]int64
}

func (e stubEnv) NormalizeURL(raw string) (string, bool) { return NormalizeURL(raw, e.base) }

func (e stubEnv) ResolveURL(_ context.Context, canonical string) (int64, bool) {
	id, ok := e.known[canonical]
	return id, ok
}

func newStubEnv(t *testing.T) stubEnv {
	base, err := url.Parse("https://Example.com")
	require.NoError(t, err)
	return stubEnv{base: base, known: map[string]int64{"https://example.com/about": 7}}
}

func TestDecodePayloadFallsBackToEmptyURLRule(t *testing.T) {
	cases := map[string]string{
		"empty":        ``,
		"garbage":      `{not json`,
		"unknown type": `{"type":"tags","posts":[1,2]}`,
		"missing type": `{"posts":[1,2]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			r := DecodePayload([]byte(raw))
			assert.Equal(t, RuleURLs, r.Type())
			assert.Empty(t, r.Rows(context.Background(), 1, newStubEnv(t)))
		})
	}
}

func TestDecodePayloadTolerantIDs(t *testing.T) {
	r := DecodePayload([]byte(`{"type":"posts","posts":[3,"4"," 5 ","x",-1,3]}`))
	require.IsType(t, PostRule{}, r)

	rows := r.Rows(context.Background(), 9, newStubEnv(t))
	assert.Equal(t, []MappingRow{
		{FAQID: 9, Type: MappingPost, Value: "3"},
		{FAQID: 9, Type: MappingPost, Value: "4"},
		{FAQID: 9, Type: MappingPost, Value: "5"},
	}, rows)

	r = DecodePayload([]byte(`{"type":"tax_terms","terms":"8, 9,9"}`))
	assert.Equal(t, TermRule{IDs: []int64{8, 9, 9}}, r)

	r = DecodePayload([]byte(`{"type":"posts","posts":{"a":1}}`))
	assert.Empty(t, r.Rows(context.Background(), 1, newStubEnv(t)))
}

func TestURLRuleRows(t *testing.T) {
	r := DecodePayload([]byte(`{"type":"urls","urls":"/about?x=1\n\n  https://EXAMPLE.com/about/  \n/news/#top\nhttp://[bad"}`))

	rows := r.Rows(context.Background(), 2, newStubEnv(t))
	assert.Equal(t, []MappingRow{
		{FAQID: 2, Type: MappingURL, Value: "https://example.com/about"},
		{FAQID: 2, Type: MappingPost, Value: "7"},
		{FAQID: 2, Type: MappingURL, Value: "https://example.com/news"},
	}, rows)
}

func TestPostTypeRuleSanitizes(t *testing.T) {
	rows := PostTypeRule{Types: []string{" Article ", "article", "my type!", ""}}.Rows(context.Background(), 4, nil)
	assert.Equal(t, []MappingRow{
		{FAQID: 4, Type: MappingPostType, Value: "article"},
		{FAQID: 4, Type: MappingPostType, Value: "mytype"},
	}, rows)
}

func TestGlobalRuleSingleRow(t *testing.T) {
	rows := DecodePayload([]byte(`{"type":"global"}`)).Rows(context.Background(), 5, nil)
	assert.Equal(t, []MappingRow{{FAQID: 5, Type: MappingGlobal, Value: GlobalValue}}, rows)
}

func TestDecodeWirePayloadKeys(t *testing.T) {
	ctx := context.Background()
	env := newStubEnv(t)

	rows := DecodePayload([]byte(`{"type":"post_types","post_types":["article"]}`)).Rows(ctx, 1, env)
	assert.Equal(t, []MappingRow{{FAQID: 1, Type: MappingPostType, Value: "article"}}, rows)

	rows = DecodePayload([]byte(`{"type":"tax_terms","terms":[8]}`)).Rows(ctx, 2, env)
	assert.Equal(t, []MappingRow{{FAQID: 2, Type: MappingTerm, Value: "8"}}, rows)

	rows = DecodePayload([]byte(`{"type":"posts","posts":[42]}`)).Rows(ctx, 3, env)
	assert.Equal(t, []MappingRow{{FAQID: 3, Type: MappingPost, Value: "42"}}, rows)

	raw, err := EncodePayload(PostTypeRule{Types: []string{"article"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"post_types","post_types":["article"]}`, string(raw))
}

func TestEncodeDecodeKeepsVariant(t *testing.T) {
	for _, r := range []Rule{
		URLRule{URLs: []string{"https://example.com/a"}},
		PostRule{IDs: []int64{1, 2}},
		PostTypeRule{Types: []string{"page"}},
		TermRule{IDs: []int64{3}},
		GlobalRule{},
	} {
		raw, err := EncodePayload(r)
		require.NoError(t, err)
		assert.Equal(t, r, DecodePayload(raw))
	}
}

func TestNormalizeURL(t *testing.T) {
	base, _ := url.Parse("https://example.com/blog/")
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"https://example.com/a/", "https://example.com/a", true},
		{"HTTPS://EXAMPLE.COM/A?b=c#d", "https://example.com/A", true},
		{"/x/y/", "https://example.com/x/y", true},
		{"post", "https://example.com/blog/post", true},
		{"https://example.com/", "https://example.com", true},
		{"   ", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeURL(c.in, base)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestSettingsValidate(t *testing.T) {
	s := Settings{CacheTTL: MinCacheTTL, BatchSize: MinBatchSize, OutputType: OutputFAQPage}
	assert.NoError(t, s.Validate())

	s.BatchSize = 9
	assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
}
