package rutube

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/constants"
	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/pkg/errors"
)

var clientParams = url.Values{"client": []string{"wdp"}}

// VideoFetcher reads per-video details from the Rutube API.
type VideoFetcher struct {
	requester Requester
	logger    *zap.Logger
}

type videoResponse struct {
	Title                *string      `json:"title"`
	Description          *string      `json:"description"`
	Duration             *int64       `json:"duration"`
	PublicationTS        *string      `json:"publication_ts"`
	Author               *videoAuthor `json:"author"`
	FeedSubscribersCount *int64       `json:"feed_subscribers_count"`
}

type videoAuthor struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
}

type voteResponse struct {
	Positive *int64 `json:"positive"`
	Negative *int64 `json:"negative"`
}

type commentsResponse struct {
	CommentsCount *int64 `json:"comments_count"`
}

func NewVideoFetcher(requester Requester, logger *zap.Logger) *VideoFetcher {
	return &VideoFetcher{
		requester: requester,
		logger:    logger,
	}
}

func (f *VideoFetcher) FetchCore(ctx context.Context, hash string) (*domain.VideoCore, error) {
	endpoint := fmt.Sprintf("%s/api/video/%s/", f.requester.BaseURL(), url.PathEscape(hash))

	var resp videoResponse
	if err := getJSON(ctx, f.requester, endpoint, nil, constants.APIConfig.APITimeout, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch video %s: %w", hash, err)
	}

	core := &domain.VideoCore{
		Title:              deref(resp.Title),
		Description:        deref(resp.Description),
		Duration:           resp.Duration,
		PublishedAt:        resp.PublicationTS,
		ChannelSubscribers: resp.FeedSubscribersCount,
	}
	if resp.Author != nil {
		core.ChannelID = resp.Author.ID
		core.ChannelName = deref(resp.Author.Name)
	}
	return core, nil
}

func (f *VideoFetcher) FetchVotes(ctx context.Context, hash string) (*domain.VideoVotes, error) {
	endpoint := fmt.Sprintf("%s/api/numerator/video/%s/vote", f.requester.BaseURL(), url.PathEscape(hash))

	var resp voteResponse
	if err := getJSON(ctx, f.requester, endpoint, clientParams, constants.APIConfig.APITimeout, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch votes for %s: %w", hash, err)
	}

	return &domain.VideoVotes{
		Likes:    resp.Positive,
		Dislikes: resp.Negative,
	}, nil
}

// FetchCommentCount never fails: a missing comments endpoint yields Absent,
// any other failure yields TransportError with the cause attached.
func (f *VideoFetcher) FetchCommentCount(ctx context.Context, hash string) domain.CommentCount {
	endpoint := fmt.Sprintf("%s/api/v2/comments/video/%s/", f.requester.BaseURL(), url.PathEscape(hash))
	params := url.Values{
		"client":  []string{"wdp"},
		"sort_by": []string{"date_added_desc"},
	}

	var resp commentsResponse
	err := getJSON(ctx, f.requester, endpoint, params, constants.APIConfig.APITimeout, &resp)
	switch {
	case err == nil && resp.CommentsCount != nil:
		return domain.CommentsPresent(*resp.CommentsCount)
	case err == nil:
		return domain.CommentsAbsent()
	case errors.IsNotFound(err):
		f.logger.Warn("Comments endpoint not found, comments_count left empty",
			zap.String("video", hash))
		return domain.CommentsAbsent()
	default:
		f.logger.Error("Failed to fetch comments count",
			zap.String("video", hash),
			zap.Error(err))
		return domain.CommentsFailed(err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
