package constants

import "time"

var CollectorDefaults = struct {
	ChannelID      int64
	PageSize       int
	Delay          time.Duration
	OutputDir      string
	PersistTimeout time.Duration
}{
	ChannelID:      8420540,
	PageSize:       50,
	Delay:          5 * time.Second, // spacing between video starts
	OutputDir:      "data",
	PersistTimeout: 2 * time.Minute, // database, mirror and exports together
}

var APIConfig = struct {
	RutubeBaseURL string
	UserAgent     string
	PageTimeout   time.Duration
	APITimeout    time.Duration
	MaxErrorBody  int
}{
	RutubeBaseURL: "https://rutube.ru",
	UserAgent:     "Mozilla/5.0 (compatible; RutubeStatsCollector/1.0)",
	PageTimeout:   5 * time.Second, // public video page (HTML)
	APITimeout:    3 * time.Second, // listing, metadata, votes, comments
	MaxErrorBody:  200,
}

var ExportConfig = struct {
	FilePrefix string
	DirMode    uint32
	FileMode   uint32
}{
	FilePrefix: "rutubedata_",
	DirMode:    0o755,
	FileMode:   0o644,
}

var DatabaseConfig = struct {
	StatsTable     string
	ConnectTimeout time.Duration
	MaxOpenConns   int
	MaxIdleConns   int
	ConnMaxLife    time.Duration
	MaxBindParams  int
}{
	StatsTable:     "rutube_video_stats",
	ConnectTimeout: 5 * time.Second,
	MaxOpenConns:   4,
	MaxIdleConns:   2,
	ConnMaxLife:    5 * time.Minute,
	MaxBindParams:  32766, // SQLite's default limit, below Postgres' 65535
}

var CacheKeys = struct {
	SnapshotPrefix string
	ChannelPrefix  string
}{
	SnapshotPrefix: "rutube:snapshot:",
	ChannelPrefix:  "rutube:channel:",
}
