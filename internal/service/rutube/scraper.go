package rutube

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/constants"
)

// viewCountPattern matches the schema.org interaction counter Rutube embeds in
// the video page's structured data.
var viewCountPattern = regexp.MustCompile(`"userInteractionCount"\s*:\s*"([0-9]+)"`)

type Scraper struct {
	requester Requester
	logger    *zap.Logger
}

func NewScraper(requester Requester, logger *zap.Logger) *Scraper {
	return &Scraper{
		requester: requester,
		logger:    logger,
	}
}

// FetchViews loads the public video page and extracts its view counter.
// found is false when the page carries no counter.
func (s *Scraper) FetchViews(ctx context.Context, pageURL string) (views int64, found bool, err error) {
	body, err := s.requester.DoRequest(ctx, pageURL, nil, constants.APIConfig.PageTimeout)
	if err != nil {
		return 0, false, err
	}

	views, found = ExtractViews(string(body))
	if !found {
		s.logger.Debug("View counter not found in page", zap.String("url", pageURL))
	}
	return views, found, nil
}

// ExtractViews returns the first userInteractionCount in the markup. Script
// bodies are searched in document order first; the raw markup is the
// fallback when parsing fails or no script carries the counter.
func ExtractViews(html string) (int64, bool) {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		var (
			views int64
			found bool
		)
		doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			views, found = matchViews(sel.Text())
			return !found
		})
		if found {
			return views, true
		}
	}
	return matchViews(html)
}

func matchViews(text string) (int64, bool) {
	m := viewCountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	views, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return views, true
}
