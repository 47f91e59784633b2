package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// idHexLen is the length of the hex-encoded identifier. A truncated SHA-256
// keeps ids short enough for document keys while staying collision-resistant
// at this corpus size.
const idHexLen = 24

// Query parameters that vary between cosmetic variants of the same URL.
var trackingParams = map[string]bool{
	"fbclid":       true,
	"gclid":        true,
	"igshid":       true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
	"utm_campaign": true,
	"utm_content":  true,
	"utm_medium":   true,
	"utm_source":   true,
	"utm_term":     true,
}

// DeriveID computes the stable identifier for an article. The id is a
// truncated SHA-256 of the normalized URL, so the same article scraped twice
// always maps to the same document. When no URL is available it falls back to
// hashing title and source together.
func DeriveID(rawURL, title, source string) (string, error) {
	if rawURL != "" {
		normalized, err := NormalizeURL(rawURL)
		if err != nil {
			return "", fmt.Errorf("derive id: %w", err)
		}
		return hashHex(normalized), nil
	}

	if title == "" && source == "" {
		return "", fmt.Errorf("derive id: need a url or a title+source")
	}
	return hashHex(title + "|" + source), nil
}

// NormalizeURL collapses cosmetic URL variants to a canonical form:
// lowercased scheme and host, no fragment, no tracking query parameters, no
// default ports, no trailing slash on non-root paths.
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	parsed.Fragment = ""
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if parsed.Port() == "80" && parsed.Scheme == "http" {
		host, _, _ := strings.Cut(parsed.Host, ":")
		parsed.Host = host
	}
	if parsed.Port() == "443" && parsed.Scheme == "https" {
		host, _, _ := strings.Cut(parsed.Host, ":")
		parsed.Host = host
	}

	if path := parsed.Path; path != "" && path != "/" {
		parsed.Path = strings.TrimSuffix(path, "/")
	}

	query := parsed.Query()
	for param := range query {
		if trackingParams[strings.ToLower(param)] {
			query.Del(param)
		}
	}
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}

func hashHex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:idHexLen]
}
