package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/leaderboard"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY IMPLEMENTATION
// Ranks are computed from user_progress on read. This is the authoritative
// path; the Redis projection only mirrors it for cheap repeated reads.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// Ties break by user_id so ranks are stable between reads.
const rankedQuery = `
	SELECT user_id, experience_points,
		   RANK() OVER (ORDER BY experience_points DESC, user_id) AS rank
	FROM user_progress
`

// GetTop returns the top-N users by XP.
func (r *LeaderboardRepository) GetTop(ctx context.Context, limit int) ([]*leaderboard.Entry, error) {
	query := rankedQuery + ` ORDER BY rank LIMIT $1`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard top: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetPage returns one page of the leaderboard; page starts at 1.
func (r *LeaderboardRepository) GetPage(ctx context.Context, page, pageSize int) (*leaderboard.Page, error) {
	query := rankedQuery + ` ORDER BY rank LIMIT $1 OFFSET $2`

	rows, err := r.conn.Query(ctx, query, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("leaderboard page: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}

	total, err := r.GetTotalCount(ctx)
	if err != nil {
		return nil, err
	}

	return &leaderboard.Page{
		Entries:    entries,
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// GetUserRank returns the user's position.
func (r *LeaderboardRepository) GetUserRank(ctx context.Context, userID string) (*leaderboard.Entry, error) {
	query := `SELECT user_id, experience_points, rank FROM (` + rankedQuery + `) ranked WHERE user_id = $1`

	var entry leaderboard.Entry
	err := r.conn.QueryRow(ctx, query, userID).Scan(&entry.UserID, &entry.ExperiencePoints, &entry.Rank)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotRanked
		}
		return nil, fmt.Errorf("leaderboard rank: %w", err)
	}
	return &entry, nil
}

// GetTotalCount returns the number of ranked users.
func (r *LeaderboardRepository) GetTotalCount(ctx context.Context) (int, error) {
	var count int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM user_progress`).Scan(&count); err != nil {
		return 0, fmt.Errorf("leaderboard count: %w", err)
	}
	return count, nil
}

// ListAll returns every ranked entry, used by the cache rebuild job.
func (r *LeaderboardRepository) ListAll(ctx context.Context) ([]*leaderboard.Entry, error) {
	rows, err := r.conn.Query(ctx, rankedQuery+` ORDER BY rank`)
	if err != nil {
		return nil, fmt.Errorf("leaderboard list all: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry
	for rows.Next() {
		var entry leaderboard.Entry
		if err := rows.Scan(&entry.UserID, &entry.ExperiencePoints, &entry.Rank); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
