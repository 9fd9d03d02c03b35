package upstream

import (
	"regexp"
	"strings"
)

// StoreConfig identifies one upstream merchant order system.
// All four fields must be non-empty after normalization; incomplete
// configurations are excluded from resolution, never fatal.
type StoreConfig struct {
	Name     string `json:"name"`
	APIKey   string `json:"api_key"`
	Password string `json:"password"`
	Domain   string `json:"domain"`
}

var schemeRe = regexp.MustCompile(`(?i)^https?://`)

// NormalizeDomain strips the scheme prefix and any trailing path from the
// given domain string, keeping only the host.
func NormalizeDomain(domain string) string {
	domain = schemeRe.ReplaceAllString(strings.TrimSpace(domain), "")
	if i := strings.IndexByte(domain, '/'); i >= 0 {
		domain = domain[:i]
	}
	return strings.TrimSuffix(domain, "/")
}

// Normalize returns a copy of the config with the domain normalized and the
// name lowercased.
func (c StoreConfig) Normalize() StoreConfig {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	c.Domain = NormalizeDomain(c.Domain)
	return c
}

// IsComplete reports whether every required field is non-empty.
func (c StoreConfig) IsComplete() bool {
	return c.Name != "" && c.APIKey != "" && c.Password != "" && c.Domain != ""
}
