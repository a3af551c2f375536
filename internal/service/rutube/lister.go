package rutube

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/constants"
	"github.com/kapu/rutube-stats-go/internal/domain"
)

type Lister struct {
	requester Requester
	logger    *zap.Logger
}

type listingPage struct {
	Results []listingItem `json:"results"`
	HasNext bool          `json:"has_next"`
	Next    *string       `json:"next"`
}

type listingItem struct {
	VideoURL      string  `json:"video_url"`
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	PublicationTS *string `json:"publication_ts"`
	Duration      *int64  `json:"duration"`
}

func NewLister(requester Requester, logger *zap.Logger) *Lister {
	return &Lister{
		requester: requester,
		logger:    logger,
	}
}

// ListChannelVideos walks the channel's listing, following the server's next
// link until it is absent. Any page failure aborts the walk.
func (l *Lister) ListChannelVideos(ctx context.Context, channelID int64, pageSize int) ([]domain.VideoReference, error) {
	pageURL := fmt.Sprintf("%s/api/video/person/%d/", l.requester.BaseURL(), channelID)
	params := url.Values{
		"limit":  []string{strconv.Itoa(pageSize)},
		"offset": []string{"0"},
	}

	videos := make([]domain.VideoReference, 0)
	for page := 1; ; page++ {
		var resp listingPage
		if err := getJSON(ctx, l.requester, pageURL, params, constants.APIConfig.APITimeout, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch listing page %d of channel %d: %w", page, channelID, err)
		}

		for _, item := range resp.Results {
			videos = append(videos, domain.VideoReference{
				URL:         item.VideoURL,
				ID:          item.ID,
				Title:       item.Title,
				PublishedAt: item.PublicationTS,
				Duration:    item.Duration,
			})
		}

		l.logger.Debug("Fetched listing page",
			zap.Int64("channel_id", channelID),
			zap.Int("page", page),
			zap.Int("items", len(resp.Results)),
			zap.Int("total", len(videos)))

		if resp.Next == nil || *resp.Next == "" {
			break
		}
		// the next link already carries limit/offset
		pageURL = *resp.Next
		params = nil
	}

	return videos, nil
}
