// Package itchio decides whether an itch.io game page hosts a game that
// is playable directly in the browser. itch.io renders an element with
// the "game_frame" class around the embedded player; its presence is the
// playability signal.
package itchio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"game_validator/internal/retry"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const (
	defaultMarker = "game_frame"
	userAgent     = "Mozilla/5.0 (compatible; GameValidator/1.0)"

	// maxBodySize caps how much of a page we read and parse.
	maxBodySize = 1 << 20
)

type Checker struct {
	client   *http.Client
	marker   string
	retryCfg retry.Config
}

// NewChecker returns a Checker that looks for the given marker class.
// An empty marker falls back to itch.io's game_frame class.
func NewChecker(marker string, retryCfg retry.Config) *Checker {
	if marker == "" {
		marker = defaultMarker
	}
	return &Checker{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		marker:   marker,
		retryCfg: retryCfg,
	}
}

// IsPlayable fetches the page and reports whether the playability marker
// is present. Any failure (malformed URL, HTTP error, timeout, parse
// failure) is a plain negative; this never aborts the caller's run.
func (c *Checker) IsPlayable(ctx context.Context, pageURL string) bool {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		log.Debug().Msg("Empty gameplay URL, treating as not playable")
		return false
	}

	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		log.Warn().Str("url", pageURL).Msg("Malformed gameplay URL, treating as not playable")
		return false
	}

	doc, err := retry.WithRetry(ctx, c.retryCfg, func(ctx context.Context) (*html.Node, error) {
		return c.fetchDocument(ctx, pageURL)
	})
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("Failed to fetch game page")
		return false
	}
	if doc == nil {
		// Non-200 response, already logged by fetchDocument.
		return false
	}

	playable := hasMarkerClass(doc, c.marker)
	log.Info().
		Str("url", pageURL).
		Bool("playable", playable).
		Msg("Checked game page")
	return playable
}

// fetchDocument fetches and parses the page. A non-200 status returns a
// nil document with no error so the retry wrapper doesn't hammer pages
// that are plainly missing or forbidden.
func (c *Checker) fetchDocument(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warn().
			Int("status_code", resp.StatusCode).
			Str("url", pageURL).
			Msg("Non-200 response from game page")
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return doc, nil
}

// hasMarkerClass walks the document looking for any element whose class
// list contains the marker.
func hasMarkerClass(n *html.Node, marker string) bool {
	if n.Type == html.ElementNode {
		for _, attr := range n.Attr {
			if attr.Key != "class" {
				continue
			}
			for _, class := range strings.Fields(attr.Val) {
				if class == marker {
					return true
				}
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if hasMarkerClass(child, marker) {
			return true
		}
	}
	return false
}
