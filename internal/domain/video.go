package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kapu/rutube-stats-go/internal/util"
)

// VideoReference is one entry of a channel listing.
type VideoReference struct {
	URL         string  `json:"url"`
	ID          string  `json:"hash"`
	Title       string  `json:"title"`
	PublishedAt *string `json:"published_at"`
	Duration    *int64  `json:"duration"`
}

// VideoCore is the metadata returned by the video endpoint.
type VideoCore struct {
	Title              string
	Description        string
	Duration           *int64
	PublishedAt        *string
	ChannelID          *int64
	ChannelName        string
	ChannelSubscribers *int64
}

// VideoVotes holds the raw like/dislike counters; nil means the API omitted them.
type VideoVotes struct {
	Likes    *int64
	Dislikes *int64
}

// StatColumns is the fixed column order shared by the stats table, the CSV
// header and the JSON objects.
var StatColumns = []string{
	"snapshot_ts",
	"url",
	"hash",
	"video_id",
	"channel_id",
	"channel_name",
	"channel_subscribers",
	"title",
	"description",
	"published_at",
	"published_date",
	"published_hour",
	"weekday",
	"duration",
	"duration_bucket",
	"views",
	"likes",
	"dislikes",
	"comments_count",
	"like_rate",
	"comment_rate",
	"engagement_rate",
	"net_likes",
	"likes_per_1k_views",
	"comments_per_1k_views",
	"tags",
	"category",
	"is_available",
}

// VideoStatSnapshot is one video's statistics at collection time. Derived
// fields are filled by NewVideoStatSnapshot and never change afterwards.
type VideoStatSnapshot struct {
	SnapshotTS         time.Time      `json:"snapshot_ts"`
	URL                string         `json:"url"`
	Hash               string         `json:"hash"`
	VideoID            string         `json:"video_id"`
	ChannelID          *int64         `json:"channel_id"`
	ChannelName        string         `json:"channel_name"`
	ChannelSubscribers *int64         `json:"channel_subscribers"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	PublishedAt        *string        `json:"published_at"`
	PublishedDate      string         `json:"published_date"`
	PublishedHour      int            `json:"published_hour"`
	Weekday            int            `json:"weekday"`
	Duration           *int64         `json:"duration"`
	DurationBucket     DurationBucket `json:"duration_bucket"`
	Views              int64          `json:"views"`
	Likes              int64          `json:"likes"`
	Dislikes           int64          `json:"dislikes"`
	CommentsCount      *int64         `json:"comments_count"`
	Rates
	Tags        string `json:"tags"`
	Category    string `json:"category"`
	IsAvailable bool   `json:"is_available"`
}

// SnapshotInput carries everything the aggregator collected for one video.
type SnapshotInput struct {
	URL      string
	Hash     string
	Taken    time.Time
	Views    int64
	Core     VideoCore
	Votes    VideoVotes
	Comments CommentCount
}

const epochDate = "1970-01-01"

// NewVideoStatSnapshot applies the coalescing policy and derives every
// computed field. Missing likes, dislikes and comments count as zero for the
// rates; the stored comments_count keeps its nil.
func NewVideoStatSnapshot(in SnapshotInput) *VideoStatSnapshot {
	likes := util.Int64OrZero(in.Votes.Likes)
	dislikes := util.Int64OrZero(in.Votes.Dislikes)

	s := &VideoStatSnapshot{
		SnapshotTS:         util.SnapshotTime(in.Taken),
		URL:                in.URL,
		Hash:               in.Hash,
		VideoID:            in.Hash,
		ChannelID:          in.Core.ChannelID,
		ChannelName:        in.Core.ChannelName,
		ChannelSubscribers: in.Core.ChannelSubscribers,
		Title:              in.Core.Title,
		Description:        in.Core.Description,
		PublishedAt:        in.Core.PublishedAt,
		PublishedDate:      epochDate,
		Duration:           in.Core.Duration,
		DurationBucket:     BucketDuration(in.Core.Duration),
		Views:              in.Views,
		Likes:              likes,
		Dislikes:           dislikes,
		CommentsCount:      in.Comments.Stored(),
		Rates:              ComputeRates(likes, dislikes, in.Comments.ForRates(), in.Views),
		IsAvailable:        true,
	}

	if in.Core.PublishedAt != nil {
		if published, ok := util.ParsePublished(*in.Core.PublishedAt); ok {
			s.PublishedDate = published.Format("2006-01-02")
			s.PublishedHour = published.Hour()
			s.Weekday = util.MondayWeekday(published)
		}
	}

	return s
}

// Values returns the snapshot's fields in StatColumns order, with nil for
// absent optional values.
func (s *VideoStatSnapshot) Values() []any {
	return []any{
		util.FormatSnapshot(s.SnapshotTS),
		s.URL,
		s.Hash,
		s.VideoID,
		optional(s.ChannelID),
		s.ChannelName,
		optional(s.ChannelSubscribers),
		s.Title,
		s.Description,
		optional(s.PublishedAt),
		s.PublishedDate,
		s.PublishedHour,
		s.Weekday,
		optional(s.Duration),
		string(s.DurationBucket),
		s.Views,
		s.Likes,
		s.Dislikes,
		optional(s.CommentsCount),
		s.LikeRate,
		s.CommentRate,
		s.EngagementRate,
		s.NetLikes,
		s.LikesPer1kViews,
		s.CommentsPer1kViews,
		s.Tags,
		s.Category,
		s.IsAvailable,
	}
}

// Record renders the snapshot as CSV cells; absent values become empty cells.
func (s *VideoStatSnapshot) Record() []string {
	values := s.Values()
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = formatCell(v)
	}
	return record
}

// MarshalJSON keeps the snapshot_ts rendering of the CSV export and leaves
// HTML characters in titles and descriptions unescaped.
func (s *VideoStatSnapshot) MarshalJSON() ([]byte, error) {
	type plain VideoStatSnapshot
	doc := struct {
		SnapshotTS string `json:"snapshot_ts"`
		*plain
	}{
		SnapshotTS: util.FormatSnapshot(s.SnapshotTS),
		plain:      (*plain)(s),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON reads a snapshot back from an export file.
func (s *VideoStatSnapshot) UnmarshalJSON(data []byte) error {
	type plain VideoStatSnapshot
	doc := struct {
		SnapshotTS string `json:"snapshot_ts"`
		*plain
	}{
		plain: (*plain)(s),
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	taken, err := time.Parse(util.SnapshotLayout, doc.SnapshotTS)
	if err != nil {
		return fmt.Errorf("invalid snapshot_ts %q: %w", doc.SnapshotTS, err)
	}
	s.SnapshotTS = util.SnapshotTime(taken)
	return nil
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
