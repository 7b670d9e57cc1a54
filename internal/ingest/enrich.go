package ingest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// maxEnrichBytes limits the amount of landing-page HTML downloaded.
const maxEnrichBytes = 512 * 1024 // 512 KB

// socialHosts maps known social hostnames to a handle prefix.
var socialHosts = []string{
	"facebook.com",
	"instagram.com",
	"x.com",
	"twitter.com",
	"youtube.com",
	"tiktok.com",
}

// Enrichment is best-effort advertiser metadata inferred from a landing page.
type Enrichment struct {
	Website string
	Social  string
}

// Enricher resolves advertiser metadata from a landing URL.
type Enricher interface {
	Enrich(ctx context.Context, landingURL string) (*Enrichment, error)
}

// PageEnricher fetches the landing page and extracts the canonical site
// URL and the first recognizable social profile link.
type PageEnricher struct {
	client *http.Client
}

// NewPageEnricher creates an enricher with the given fetch timeout.
func NewPageEnricher(timeout time.Duration) *PageEnricher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageEnricher{client: &http.Client{Timeout: timeout}}
}

// Enrich downloads the landing page and parses it for site identity.
func (e *PageEnricher) Enrich(ctx context.Context, landingURL string) (*Enrichment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, landingURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; spend-cli/1.0)")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: fetch landing page")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("enrich: landing page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxEnrichBytes))
	if err != nil {
		return nil, eris.Wrap(err, "enrich: parse landing page")
	}

	enr := ExtractEnrichment(doc, landingURL)
	return enr, nil
}

// ExtractEnrichment pulls the canonical website and first social link out
// of a parsed landing page. Split from Enrich so it is testable without
// a network.
func ExtractEnrichment(doc *goquery.Document, landingURL string) *Enrichment {
	enr := &Enrichment{}

	// Canonical link or og:url wins over the raw landing URL.
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		enr.Website = siteRoot(href)
	}
	if enr.Website == "" {
		if content, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok {
			enr.Website = siteRoot(content)
		}
	}
	if enr.Website == "" {
		enr.Website = siteRoot(landingURL)
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if social := matchSocial(href); social != "" {
			enr.Social = social
			return false
		}
		return true
	})

	return enr
}

// siteRoot reduces a URL to scheme://host.
func siteRoot(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Hostname()
}

// matchSocial returns a cleaned social profile URL if href points at a
// known social host.
func matchSocial(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	for _, sh := range socialHosts {
		if host == sh || strings.HasSuffix(host, "."+sh) {
			if u.Path == "" || u.Path == "/" {
				return ""
			}
			return "https://" + host + strings.TrimSuffix(u.Path, "/")
		}
	}
	return ""
}
