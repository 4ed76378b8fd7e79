package postgres

import (
	"context"
	"fmt"

	"github.com/lingua-hub/lingua-progress-hub/internal/domain/content"
	"github.com/lingua-hub/lingua-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONTENT REPOSITORY IMPLEMENTATION
// Read-only view of the course catalog. Authoring lives in a separate system;
// the engine only validates lesson references and reads base XP values.
// ══════════════════════════════════════════════════════════════════════════════

// ContentRepository implements content.Lookup for PostgreSQL.
type ContentRepository struct {
	conn *Connection
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(conn *Connection) *ContentRepository {
	return &ContentRepository{conn: conn}
}

// LessonExists reports whether a published lesson with the given ID exists.
func (r *ContentRepository) LessonExists(ctx context.Context, lessonID string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1 AND published)`, lessonID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("lesson exists: %w", err)
	}
	return exists, nil
}

// GetLesson returns lesson metadata needed by the engine.
func (r *ContentRepository) GetLesson(ctx context.Context, lessonID string) (*content.LessonInfo, error) {
	query := `
		SELECT l.id, l.module_id, m.course_id, l.title, l.experience_points, l.published
		FROM lessons l
		JOIN course_modules m ON m.id = l.module_id
		WHERE l.id = $1
	`

	var info content.LessonInfo
	err := r.conn.QueryRow(ctx, query, lessonID).Scan(
		&info.ID,
		&info.ModuleID,
		&info.CourseID,
		&info.Title,
		&info.ExperiencePoints,
		&info.Published,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLessonNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	// Неопубликованный урок для движка не существует.
	if !info.Published {
		return nil, shared.ErrLessonNotFound
	}
	return &info, nil
}

// TotalLessonCount returns the number of published lessons in the catalog.
func (r *ContentRepository) TotalLessonCount(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM lessons WHERE published`,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("total lesson count: %w", err)
	}
	return count, nil
}

// GetCourseStats returns per-user course aggregates: a course counts as
// started once any of its lessons is completed, and as completed when all
// its published lessons are.
func (r *ContentRepository) GetCourseStats(ctx context.Context, userID string) (*content.CourseStats, error) {
	query := `
		WITH course_totals AS (
			SELECT m.course_id, COUNT(*) AS total
			FROM lessons l
			JOIN course_modules m ON m.id = l.module_id
			WHERE l.published
			GROUP BY m.course_id
		),
		course_done AS (
			SELECT m.course_id, COUNT(*) AS done
			FROM lesson_completions c
			JOIN lessons l ON l.id = c.lesson_id
			JOIN course_modules m ON m.id = l.module_id
			WHERE c.user_id = $1 AND l.published
			GROUP BY m.course_id
		)
		SELECT
			COUNT(d.course_id),
			COUNT(d.course_id) FILTER (WHERE d.done >= t.total)
		FROM course_done d
		JOIN course_totals t ON t.course_id = d.course_id
	`

	var stats content.CourseStats
	err := r.conn.QueryRow(ctx, query, userID).Scan(&stats.CoursesStarted, &stats.CoursesCompleted)
	if err != nil {
		return nil, fmt.Errorf("course stats: %w", err)
	}
	return &stats, nil
}
