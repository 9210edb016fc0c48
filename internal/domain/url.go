package domain

import (
	"net/url"
	"strings"
)

// DeriveURLDomain extracts the lowercase hostname from a link URL.
// An unparseable URL or one without a host yields nil — a bad URL is
// stored as-is, it just has no derived domain.
func DeriveURLDomain(raw string) *string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil
	}

	return &host
}
