// Package postgres implements the PostgreSQL persistence layer for the
// progress engine.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/progress"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// Implements progress.Repository and progress.AuditStore. All write paths go
// through a single transaction that locks the user's progress row, so a user's
// counters never interleave across concurrent requests.
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

const progressColumns = `user_id, experience_points, lives_current, streak_current,
	   last_completed_lesson_id, last_activity_date, updated_at`

// ─────────────────────────────────────────────────────────────────────────────
// Progress row
// ─────────────────────────────────────────────────────────────────────────────

// GetOrCreateProgress returns the user's progress, inserting a default row
// on first contact.
func (r *ProgressRepository) GetOrCreateProgress(ctx context.Context, userID string) (*progress.UserProgress, error) {
	query := `
		INSERT INTO user_progress (user_id, lives_current, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + progressColumns

	row := r.conn.QueryRow(ctx, query, userID, progress.DefaultLives)
	return scanProgress(row)
}

// MutateProgress locks the progress row, applies fn and saves the result
// in one transaction.
func (r *ProgressRepository) MutateProgress(ctx context.Context, userID string, fn progress.MutateFunc) (*progress.UserProgress, error) {
	var result *progress.UserProgress

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		p, err := lockProgressRow(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := saveProgressRow(ctx, tx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Completions
// ─────────────────────────────────────────────────────────────────────────────

// GetCompletion returns the completion for a (user, lesson) pair.
func (r *ProgressRepository) GetCompletion(ctx context.Context, userID, lessonID string) (*progress.LessonCompletion, error) {
	query := `
		SELECT id, user_id, lesson_id, completed_at, score, time_spent_seconds
		FROM lesson_completions
		WHERE user_id = $1 AND lesson_id = $2
	`

	row := r.conn.QueryRow(ctx, query, userID, lessonID)
	c, err := scanCompletion(row)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrCompletionNotFound
		}
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

// ListCompletions returns all completions of a user ordered by time.
func (r *ProgressRepository) ListCompletions(ctx context.Context, userID string) ([]*progress.LessonCompletion, error) {
	query := `
		SELECT id, user_id, lesson_id, completed_at, score, time_spent_seconds
		FROM lesson_completions
		WHERE user_id = $1
		ORDER BY completed_at
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []*progress.LessonCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}

// CountCompletions returns how many lessons the user has completed.
func (r *ProgressRepository) CountCompletions(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM lesson_completions WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return count, nil
}

// ListCompletionTimes returns only completion timestamps, enough to
// reconstruct the longest streak.
func (r *ProgressRepository) ListCompletionTimes(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT completed_at FROM lesson_completions WHERE user_id = $1 ORDER BY completed_at`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completion times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan completion time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Atomic operations
// ─────────────────────────────────────────────────────────────────────────────

// RecordCompletion inserts the completion and applies fn to the locked
// progress row in one transaction. The unique constraint on
// (user_id, lesson_id) resolves concurrent duplicates: the loser gets
// shared.ErrLessonAlreadyCompleted and nothing is committed.
func (r *ProgressRepository) RecordCompletion(ctx context.Context, completion *progress.LessonCompletion, fn progress.MutateFunc) (*progress.UserProgress, error) {
	var result *progress.UserProgress

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		p, err := lockProgressRow(ctx, tx, completion.UserID)
		if err != nil {
			return err
		}

		insert := `
			INSERT INTO lesson_completions (id, user_id, lesson_id, completed_at, score, time_spent_seconds)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, insert,
			completion.ID,
			completion.UserID,
			completion.LessonID,
			completion.CompletedAt,
			completion.Score,
			completion.TimeSpentSeconds,
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrLessonAlreadyCompleted
			}
			return fmt.Errorf("insert completion: %w", err)
		}

		if err := fn(p); err != nil {
			return err
		}
		if err := saveProgressRow(ctx, tx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordAdjustment applies fn to the locked progress row and inserts the
// audit record in one transaction.
func (r *ProgressRepository) RecordAdjustment(ctx context.Context, adj *progress.AdminAdjustment, fn progress.MutateFunc) (*progress.UserProgress, error) {
	var result *progress.UserProgress

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		p, err := lockProgressRow(ctx, tx, adj.TargetUserID)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		if err := saveProgressRow(ctx, tx, p); err != nil {
			return err
		}
		if err := insertAdjustment(ctx, tx, adj); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ResetProgress deletes all completions, restores defaults and writes the
// audit record in one transaction. Returns the number of deleted completions.
func (r *ProgressRepository) ResetProgress(ctx context.Context, adj *progress.AdminAdjustment) (int, error) {
	var deleted int

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		p, err := lockProgressRow(ctx, tx, adj.TargetUserID)
		if err != nil {
			return err
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM lesson_completions WHERE user_id = $1`, adj.TargetUserID,
		)
		if err != nil {
			return fmt.Errorf("delete completions: %w", err)
		}
		deleted = int(tag.RowsAffected())

		p.ResetToDefaults()
		if err := saveProgressRow(ctx, tx, p); err != nil {
			return err
		}
		return insertAdjustment(ctx, tx, adj)
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Audit
// ─────────────────────────────────────────────────────────────────────────────

// SaveAdjustment stores a standalone audit record.
func (r *ProgressRepository) SaveAdjustment(ctx context.Context, adj *progress.AdminAdjustment) error {
	return insertAdjustment(ctx, r.conn, adj)
}

// ListAdjustments returns audit records for a user, newest first.
func (r *ProgressRepository) ListAdjustments(ctx context.Context, targetUserID string, limit int) ([]*progress.AdminAdjustment, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, target_user_id, actor_id, kind, points_delta, reason, created_at
		FROM admin_adjustments
		WHERE target_user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, targetUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []*progress.AdminAdjustment
	for rows.Next() {
		var (
			adj  progress.AdminAdjustment
			kind string
		)
		if err := rows.Scan(&adj.ID, &adj.TargetUserID, &adj.ActorID, &kind, &adj.PointsDelta, &adj.Reason, &adj.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		adj.Kind = progress.AdjustmentKind(kind)
		adjustments = append(adjustments, &adj)
	}
	return adjustments, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Row helpers
// ─────────────────────────────────────────────────────────────────────────────

// lockProgressRow selects the progress row FOR UPDATE, inserting a default
// row first if the user is new.
func lockProgressRow(ctx context.Context, tx pgx.Tx, userID string) (*progress.UserProgress, error) {
	insert := `
		INSERT INTO user_progress (user_id, lives_current, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, insert, userID, progress.DefaultLives); err != nil {
		return nil, fmt.Errorf("ensure progress row: %w", err)
	}

	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1 FOR UPDATE`
	return scanProgress(tx.QueryRow(ctx, query, userID))
}

func saveProgressRow(ctx context.Context, tx pgx.Tx, p *progress.UserProgress) error {
	query := `
		UPDATE user_progress SET
			experience_points = $2,
			lives_current = $3,
			streak_current = $4,
			last_completed_lesson_id = $5,
			last_activity_date = $6,
			updated_at = $7
		WHERE user_id = $1
	`

	_, err := tx.Exec(ctx, query,
		p.UserID,
		p.ExperiencePoints,
		p.LivesCurrent,
		p.StreakCurrent,
		p.LastCompletedLessonID,
		p.LastActivityDate,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func insertAdjustment(ctx context.Context, q Querier, adj *progress.AdminAdjustment) error {
	query := `
		INSERT INTO admin_adjustments (id, target_user_id, actor_id, kind, points_delta, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		adj.ID,
		adj.TargetUserID,
		adj.ActorID,
		string(adj.Kind),
		adj.PointsDelta,
		adj.Reason,
		adj.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

func scanProgress(row pgx.Row) (*progress.UserProgress, error) {
	var p progress.UserProgress
	err := row.Scan(
		&p.UserID,
		&p.ExperiencePoints,
		&p.LivesCurrent,
		&p.StreakCurrent,
		&p.LastCompletedLessonID,
		&p.LastActivityDate,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan progress: %w", err)
	}
	return &p, nil
}

func scanCompletion(row pgx.Row) (*progress.LessonCompletion, error) {
	var c progress.LessonCompletion
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.LessonID,
		&c.CompletedAt,
		&c.Score,
		&c.TimeSpentSeconds,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
