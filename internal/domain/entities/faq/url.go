package faq

import (
	"net/url"
	"strings"
)

// NormalizeURL makes raw absolute against base, lowercases scheme and host,
// drops query and fragment, and trims the trailing slash. Compile time and
// lookup time both go through here so url rows compare exactly.
func NormalizeURL(raw string, base *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if base != nil && (u.Scheme == "" || u.Host == "") {
		u = base.ResolveReference(u)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", false
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""

	return u.String(), true
}
