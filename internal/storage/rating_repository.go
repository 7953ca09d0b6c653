package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SaveAIRating upserts the AI-derived rating profile for a course.
func (db *DB) SaveAIRating(ctx context.Context, rating *AIRating) error {
	query := `
		INSERT INTO ai_ratings (
			course_id, summary, theory_rating, practical_rating, difficulty_rating, duration_rating,
			average_rating, model_version, prompt_version, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_id) DO UPDATE SET
			summary = excluded.summary,
			theory_rating = excluded.theory_rating,
			practical_rating = excluded.practical_rating,
			difficulty_rating = excluded.difficulty_rating,
			duration_rating = excluded.duration_rating,
			average_rating = excluded.average_rating,
			model_version = excluded.model_version,
			prompt_version = excluded.prompt_version,
			updated_at = excluded.updated_at
	`
	now := time.Now().Unix()
	createdAt := rating.CreatedAt
	if createdAt == 0 {
		createdAt = now
	}
	_, err := db.conn.ExecContext(ctx, query,
		rating.CourseID, rating.Summary,
		rating.TheoryRating, rating.PracticalRating, rating.DifficultyRating, rating.DurationRating,
		rating.AverageRating, rating.ModelVersion, rating.PromptVersion,
		createdAt, now)
	if err != nil {
		return fmt.Errorf("failed to save ai rating for course %d: %w", rating.CourseID, err)
	}
	return nil
}

// SaveAIRatingsBatch upserts multiple rating profiles in one transaction.
func (db *DB) SaveAIRatingsBatch(ctx context.Context, ratings []*AIRating) error {
	if len(ratings) == 0 {
		return nil
	}

	query := `
		INSERT INTO ai_ratings (
			course_id, summary, theory_rating, practical_rating, difficulty_rating, duration_rating,
			average_rating, model_version, prompt_version, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(course_id) DO UPDATE SET
			summary = excluded.summary,
			theory_rating = excluded.theory_rating,
			practical_rating = excluded.practical_rating,
			difficulty_rating = excluded.difficulty_rating,
			duration_rating = excluded.duration_rating,
			average_rating = excluded.average_rating,
			model_version = excluded.model_version,
			prompt_version = excluded.prompt_version,
			updated_at = excluded.updated_at
	`
	now := time.Now().Unix()
	return db.ExecBatch(ctx, query, func(stmt *sql.Stmt) error {
		for _, rating := range ratings {
			createdAt := rating.CreatedAt
			if createdAt == 0 {
				createdAt = now
			}
			if _, err := stmt.ExecContext(ctx,
				rating.CourseID, rating.Summary,
				rating.TheoryRating, rating.PracticalRating, rating.DifficultyRating, rating.DurationRating,
				rating.AverageRating, rating.ModelVersion, rating.PromptVersion,
				createdAt, now); err != nil {
				return fmt.Errorf("failed to save ai rating for course %d: %w", rating.CourseID, err)
			}
		}
		return nil
	})
}

const aiRatingColumns = `
	course_id, summary, theory_rating, practical_rating, difficulty_rating, duration_rating,
	average_rating, model_version, prompt_version, created_at, updated_at`

// GetAIRating retrieves the rating profile for a course, or ErrNotFound.
func (db *DB) GetAIRating(ctx context.Context, courseID int64) (*AIRating, error) {
	query := `SELECT` + aiRatingColumns + ` FROM ai_ratings WHERE course_id = ?`
	row := db.conn.QueryRowContext(ctx, query, courseID)

	rating, err := scanAIRating(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ai rating for course %d: %w", courseID, err)
	}
	return rating, nil
}

// GetAIRatingsByCourseIDs returns rating profiles keyed by course id.
// Courses without a profile are absent from the map.
func (db *DB) GetAIRatingsByCourseIDs(ctx context.Context, courseIDs []int64) (map[int64]*AIRating, error) {
	if len(courseIDs) == 0 {
		return map[int64]*AIRating{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(courseIDs)), ",")
	query := `SELECT` + aiRatingColumns + ` FROM ai_ratings WHERE course_id IN (` + placeholders + `)`

	args := make([]any, len(courseIDs))
	for i, id := range courseIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get ai ratings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[int64]*AIRating)
	for rows.Next() {
		rating, err := scanAIRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ai rating: %w", err)
		}
		byID[rating.CourseID] = rating
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ai ratings: %w", err)
	}
	return byID, nil
}

func scanAIRating(row rowScanner) (*AIRating, error) {
	var r AIRating
	var modelVersion, promptVersion sql.NullString
	err := row.Scan(
		&r.CourseID, &r.Summary,
		&r.TheoryRating, &r.PracticalRating, &r.DifficultyRating, &r.DurationRating,
		&r.AverageRating, &modelVersion, &promptVersion,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ModelVersion = modelVersion.String
	r.PromptVersion = promptVersion.String
	return &r, nil
}
