package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sipca/backend/pkg/logger"
)

const maxGuidelineChars = 5000

// GuidelineFetcher pulls text from configured drinking-water guideline
// pages (WHO, EPA) so the assistant can ground its answers in them.
type GuidelineFetcher struct {
	httpClient *http.Client
}

func NewGuidelineFetcher() *GuidelineFetcher {
	return &GuidelineFetcher{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchAll scrapes each URL and concatenates the extracted text. Pages
// that fail to load are skipped with a warning; an empty result is not
// an error.
func (f *GuidelineFetcher) FetchAll(ctx context.Context, urls []string) string {
	var sections []string
	for _, u := range urls {
		text, err := f.fetch(ctx, u)
		if err != nil {
			logger.Warn("Failed to fetch guideline page", zap.String("url", u), zap.Error(err))
			continue
		}
		if text == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf("Source: %s\n%s", u, text))
	}
	return strings.Join(sections, "\n\n")
}

func (f *GuidelineFetcher) fetch(ctx context.Context, urlStr string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("guideline page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	doc.Find("script, style, nav, footer, header").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())
	text = collapseWhitespace(text)

	if len(text) > maxGuidelineChars {
		text = text[:maxGuidelineChars]
	}

	return text, nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
