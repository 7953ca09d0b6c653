package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go's New function.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createCoursesTable(ctx, db); err != nil {
		return err
	}
	if err := createReviewsTable(ctx, db); err != nil {
		return err
	}
	return createAIRatingsTable(ctx, db)
}

func createCoursesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS courses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		instructor TEXT,
		org_name TEXT,
		category TEXT,
		subcategory TEXT,
		summary TEXT,
		url TEXT,
		image_url TEXT,
		enrollment_start TEXT,
		enrollment_end TEXT,
		study_start TEXT,
		study_end TEXT,
		weeks REAL,
		playtime_minutes REAL,
		avg_external_rating REAL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_courses_name ON courses(name);
	CREATE INDEX IF NOT EXISTS idx_courses_identity ON courses(name, instructor);
	CREATE INDEX IF NOT EXISTS idx_courses_category ON courses(category);
	CREATE INDEX IF NOT EXISTS idx_courses_org ON courses(org_name);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create courses table: %w", err)
	}
	return nil
}

func createReviewsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		course_id INTEGER NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		user_name TEXT,
		content TEXT NOT NULL,
		rating INTEGER NOT NULL CHECK(rating BETWEEN 1 AND 5),
		sentiment_label TEXT CHECK(sentiment_label IN ('positive', 'negative')),
		sentiment_prob REAL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_course ON reviews(course_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_course_created ON reviews(course_id, created_at DESC);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create reviews table: %w", err)
	}
	return nil
}

func createAIRatingsTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS ai_ratings (
		course_id INTEGER PRIMARY KEY REFERENCES courses(id) ON DELETE CASCADE,
		summary TEXT,
		theory_rating REAL NOT NULL CHECK(theory_rating BETWEEN 0.0 AND 5.0),
		practical_rating REAL NOT NULL CHECK(practical_rating BETWEEN 0.0 AND 5.0),
		difficulty_rating REAL NOT NULL CHECK(difficulty_rating BETWEEN 0.0 AND 5.0),
		duration_rating REAL NOT NULL CHECK(duration_rating BETWEEN 0.0 AND 5.0),
		average_rating REAL NOT NULL CHECK(average_rating BETWEEN 0.0 AND 5.0),
		model_version TEXT,
		prompt_version TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ai_ratings_average ON ai_ratings(average_rating);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create ai_ratings table: %w", err)
	}
	return nil
}
