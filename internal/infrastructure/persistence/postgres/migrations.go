// Package postgres implements the PostgreSQL persistence layer for the
// progress engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create user progress and lesson completions
-- Version: 001

CREATE TABLE IF NOT EXISTS user_progress (
    user_id VARCHAR(64) PRIMARY KEY,
    experience_points INTEGER NOT NULL DEFAULT 0,
    lives_current INTEGER NOT NULL DEFAULT 5,
    streak_current INTEGER NOT NULL DEFAULT 0,
    last_completed_lesson_id VARCHAR(64),
    last_activity_date TIMESTAMP WITH TIME ZONE,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (experience_points >= 0),
    CONSTRAINT valid_lives CHECK (lives_current >= 0 AND lives_current <= 10),
    CONSTRAINT valid_streak CHECK (streak_current >= 0)
);

-- Leaderboard reads sort by XP
CREATE INDEX IF NOT EXISTS idx_user_progress_xp ON user_progress(experience_points DESC, user_id);

CREATE TABLE IF NOT EXISTS lesson_completions (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    lesson_id VARCHAR(64) NOT NULL,
    completed_at TIMESTAMP WITH TIME ZONE NOT NULL,
    score INTEGER,
    time_spent_seconds INTEGER,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    -- Serialization point for idempotent completion
    CONSTRAINT uq_completion_user_lesson UNIQUE (user_id, lesson_id),
    CONSTRAINT valid_score CHECK (score IS NULL OR (score >= 0 AND score <= 100)),
    CONSTRAINT valid_time_spent CHECK (time_spent_seconds IS NULL OR time_spent_seconds >= 0)
);

CREATE INDEX IF NOT EXISTS idx_completions_user ON lesson_completions(user_id, completed_at);
CREATE INDEX IF NOT EXISTS idx_completions_lesson ON lesson_completions(lesson_id);
`

const migration001Down = `
DROP TABLE IF EXISTS lesson_completions;
DROP TABLE IF EXISTS user_progress;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE CONTENT
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create content catalog (courses, modules, lessons)
-- Version: 002
-- The engine reads the catalog; authoring happens in a separate system.

CREATE TABLE IF NOT EXISTS courses (
    id VARCHAR(64) PRIMARY KEY,
    language_code VARCHAR(8) NOT NULL,
    title VARCHAR(200) NOT NULL,
    published BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS course_modules (
    id VARCHAR(64) PRIMARY KEY,
    course_id VARCHAR(64) NOT NULL REFERENCES courses(id),
    title VARCHAR(200) NOT NULL,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lessons (
    id VARCHAR(64) PRIMARY KEY,
    module_id VARCHAR(64) NOT NULL REFERENCES course_modules(id),
    title VARCHAR(200) NOT NULL,
    experience_points INTEGER NOT NULL DEFAULT 10,
    published BOOLEAN NOT NULL DEFAULT FALSE,
    position INTEGER NOT NULL DEFAULT 0,

    CONSTRAINT valid_base_xp CHECK (experience_points > 0)
);

CREATE INDEX IF NOT EXISTS idx_lessons_module ON lessons(module_id, position);
CREATE INDEX IF NOT EXISTS idx_lessons_published ON lessons(published) WHERE published;
CREATE INDEX IF NOT EXISTS idx_modules_course ON course_modules(course_id, position);
`

const migration002Down = `
DROP TABLE IF EXISTS lessons;
DROP TABLE IF EXISTS course_modules;
DROP TABLE IF EXISTS courses;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE ADMIN AUDIT
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create audit trail for privileged operations
-- Version: 003

CREATE TABLE IF NOT EXISTS admin_adjustments (
    id UUID PRIMARY KEY,
    target_user_id VARCHAR(64) NOT NULL,
    actor_id VARCHAR(64) NOT NULL,
    kind VARCHAR(16) NOT NULL,
    points_delta INTEGER NOT NULL DEFAULT 0,
    reason TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_kind CHECK (kind IN ('bonus', 'reset')),
    CONSTRAINT valid_delta CHECK (points_delta >= 0),
    CONSTRAINT non_empty_reason CHECK (length(reason) > 0)
);

CREATE INDEX IF NOT EXISTS idx_adjustments_target ON admin_adjustments(target_user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_adjustments_actor ON admin_adjustments(actor_id, created_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS admin_adjustments;
`
