package domain

import "github.com/kapu/rutube-stats-go/internal/util"

type DurationBucket string

const (
	DurationShort    DurationBucket = "0-120"
	DurationMedium   DurationBucket = "120-600"
	DurationLong     DurationBucket = "600-1800"
	DurationVeryLong DurationBucket = "1800+"
	DurationUnknown  DurationBucket = "unknown"
)

// BucketDuration maps a duration in seconds onto its bucket. Lower bounds
// are inclusive.
func BucketDuration(seconds *int64) DurationBucket {
	if seconds == nil {
		return DurationUnknown
	}
	switch s := *seconds; {
	case s < 120:
		return DurationShort
	case s < 600:
		return DurationMedium
	case s < 1800:
		return DurationLong
	default:
		return DurationVeryLong
	}
}

// Rates are the engagement figures derived from one video's counters.
type Rates struct {
	LikeRate           float64 `json:"like_rate"`
	CommentRate        float64 `json:"comment_rate"`
	EngagementRate     float64 `json:"engagement_rate"`
	NetLikes           int64   `json:"net_likes"`
	LikesPer1kViews    float64 `json:"likes_per_1k_views"`
	CommentsPer1kViews float64 `json:"comments_per_1k_views"`
}

// ComputeRates derives Rates; every ratio is 0 when views is 0.
func ComputeRates(likes, dislikes, comments, views int64) Rates {
	return Rates{
		LikeRate:           util.Ratio(likes, views),
		CommentRate:        util.Ratio(comments, views),
		EngagementRate:     util.Ratio(likes+comments, views),
		NetLikes:           likes - dislikes,
		LikesPer1kViews:    util.Ratio(likes*1000, views),
		CommentsPer1kViews: util.Ratio(comments*1000, views),
	}
}
