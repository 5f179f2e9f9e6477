package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxRedirects  = 5
	maxBodyBytes  = 2 << 20 // 2MB cap on fetched HTML
	oneLinerLimit = 300
)

// PageFetcher downloads HTML pages and reduces them to a short text
// summary: the title plus paragraph/list text up to a character cap.
type PageFetcher struct {
	client    *http.Client
	userAgent string
	maxChars  int
}

// NewPageFetcher builds a fetcher. maxChars bounds the extracted body
// text; timeout bounds each fetch end to end.
func NewPageFetcher(userAgent string, maxChars int, timeout time.Duration) *PageFetcher {
	return &PageFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxChars:  maxChars,
	}
}

// FetchText downloads url and returns "title\nbody" (or just the body
// when the page has no title). Returns an error for non-200 responses,
// non-HTML content types and pages with no extractable text.
func (f *PageFetcher) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: http %d", url, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		return "", fmt.Errorf("fetch %s: content type %q is not html", url, ct)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	var texts []string
	total := 0
	doc.Find("p, li").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		t := strings.TrimSpace(sel.Text())
		if t != "" {
			texts = append(texts, t)
			total += len([]rune(t))
		}
		return total <= f.maxChars
	})

	body := truncateRunes(strings.Join(texts, " "), f.maxChars)
	if title != "" {
		return title + "\n" + body, nil
	}
	if body == "" {
		return "", fmt.Errorf("fetch %s: no extractable text", url)
	}
	return body, nil
}

// OneLiner flattens page text to a single line capped for annotation use.
func OneLiner(text string) string {
	return truncateRunes(strings.TrimSpace(strings.ReplaceAll(text, "\n", " ")), oneLinerLimit)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
