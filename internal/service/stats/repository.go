package stats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapu/rutube-stats-go/internal/constants"
	"github.com/kapu/rutube-stats-go/internal/domain"
	"github.com/kapu/rutube-stats-go/internal/service/database"
	"github.com/kapu/rutube-stats-go/pkg/errors"
)

// schemaDDL is accepted by both Postgres and SQLite.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS ` + constants.DatabaseConfig.StatsTable + ` (
		snapshot_ts           TIMESTAMPTZ NOT NULL,
		url                   TEXT NOT NULL,
		hash                  TEXT NOT NULL,
		video_id              TEXT NOT NULL,
		channel_id            BIGINT,
		channel_name          TEXT,
		channel_subscribers   BIGINT,
		title                 TEXT,
		description           TEXT,
		published_at          TEXT,
		published_date        DATE,
		published_hour        INTEGER,
		weekday               INTEGER,
		duration              BIGINT,
		duration_bucket       TEXT,
		views                 BIGINT,
		likes                 BIGINT,
		dislikes              BIGINT,
		comments_count        BIGINT,
		like_rate             DOUBLE PRECISION,
		comment_rate          DOUBLE PRECISION,
		engagement_rate       DOUBLE PRECISION,
		net_likes             BIGINT,
		likes_per_1k_views    DOUBLE PRECISION,
		comments_per_1k_views DOUBLE PRECISION,
		tags                  TEXT,
		category              TEXT,
		is_available          BOOLEAN
	)`,
	`CREATE INDEX IF NOT EXISTS idx_` + constants.DatabaseConfig.StatsTable + `_hash_ts
		ON ` + constants.DatabaseConfig.StatsTable + ` (hash, snapshot_ts)`,
}

// VideoStatsRepository appends snapshot rows to the stats table.
type VideoStatsRepository struct {
	db        *sql.DB
	dialect   database.Dialect
	maxParams int
	logger    *zap.Logger
}

func NewVideoStatsRepository(db *sql.DB, dialect database.Dialect, logger *zap.Logger) *VideoStatsRepository {
	return &VideoStatsRepository{
		db:        db,
		dialect:   dialect,
		maxParams: constants.DatabaseConfig.MaxBindParams,
		logger:    logger,
	}
}

// EnsureSchema creates the stats table and its index when missing.
func (r *VideoStatsRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewStorageError("failed to apply stats schema", "database", "migrate", err)
		}
	}
	return nil
}

// InsertBatch writes every snapshot in one transaction. Nothing is written
// when any chunk fails.
func (r *VideoStatsRepository) InsertBatch(ctx context.Context, snapshots []*domain.VideoStatSnapshot) (int, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.NewStorageError("failed to begin transaction", "database", "insert", err)
	}
	defer func() { _ = tx.Rollback() }()

	perChunk := r.rowsPerStatement()
	for start := 0; start < len(snapshots); start += perChunk {
		end := start + perChunk
		if end > len(snapshots) {
			end = len(snapshots)
		}

		query, args := r.buildInsert(snapshots[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, errors.NewStorageError(
				fmt.Sprintf("failed to insert rows %d-%d", start+1, end), "database", "insert", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStorageError("failed to commit transaction", "database", "insert", err)
	}

	r.logger.Debug("Inserted stats rows",
		zap.Int("rows", len(snapshots)),
		zap.Int("statements", (len(snapshots)+perChunk-1)/perChunk))

	return len(snapshots), nil
}

func (r *VideoStatsRepository) rowsPerStatement() int {
	n := r.maxParams / len(domain.StatColumns)
	if n < 1 {
		return 1
	}
	return n
}

func (r *VideoStatsRepository) buildInsert(rows []*domain.VideoStatSnapshot) (string, []any) {
	cols := len(domain.StatColumns)
	args := make([]any, 0, len(rows)*cols)

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(constants.DatabaseConfig.StatsTable)
	sb.WriteString(" (")
	sb.WriteString(strings.Join(domain.StatColumns, ", "))
	sb.WriteString(") VALUES ")

	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(r.dialect.Placeholder(i*cols + j + 1))
		}
		sb.WriteByte(')')
		args = append(args, row.Values()...)
	}

	return sb.String(), args
}
