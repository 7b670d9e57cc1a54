package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/adlens/spend-cli/internal/model"
)

// CreativeHash fingerprints "the same ad" across sightings. When a
// creative image reference exists the hash is content-based; otherwise it
// falls back to normalized text plus landing URL. The channel is always
// part of the key: identical creatives on different channels are
// different observations.
func CreativeHash(s *model.RawSighting) string {
	h := sha256.New()
	h.Write([]byte(string(s.Channel)))
	h.Write([]byte{0})

	if s.CreativeRef != nil && *s.CreativeRef != "" {
		h.Write([]byte("ref:"))
		h.Write([]byte(*s.CreativeRef))
	} else {
		h.Write([]byte("txt:"))
		h.Write([]byte(normalizeText(s.AdText)))
		h.Write([]byte{0})
		h.Write([]byte(normalizeURL(s.LandingURL)))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// normalizeText collapses whitespace and case so cosmetic crawl
// differences do not split identities.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// normalizeURL strips scheme, query and trailing slash.
func normalizeURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexByte(s, '?'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, "/")
}
