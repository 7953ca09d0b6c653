package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SaveReview inserts a single review.
func (db *DB) SaveReview(ctx context.Context, review *Review) error {
	query := `
		INSERT INTO reviews (course_id, user_name, content, rating, sentiment_label, sentiment_prob, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	createdAt := review.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	result, err := db.conn.ExecContext(ctx, query,
		review.CourseID, nullString(review.UserName), review.Content, review.Rating,
		nullStringPtr(review.SentimentLabel), nullFloat(review.SentimentProb), createdAt)
	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil {
		review.ID = id
	}
	return nil
}

// SaveReviewsBatch inserts multiple reviews in one transaction.
func (db *DB) SaveReviewsBatch(ctx context.Context, reviews []*Review) error {
	if len(reviews) == 0 {
		return nil
	}

	query := `
		INSERT INTO reviews (course_id, user_name, content, rating, sentiment_label, sentiment_prob, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	start := time.Now()
	now := start.Unix()
	err := db.ExecBatch(ctx, query, func(stmt *sql.Stmt) error {
		for _, review := range reviews {
			createdAt := review.CreatedAt
			if createdAt == 0 {
				createdAt = now
			}
			if _, err := stmt.ExecContext(ctx,
				review.CourseID, nullString(review.UserName), review.Content, review.Rating,
				nullStringPtr(review.SentimentLabel), nullFloat(review.SentimentProb), createdAt); err != nil {
				return fmt.Errorf("failed to save review for course %d: %w", review.CourseID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if duration := time.Since(start); duration > 500*time.Millisecond {
		slog.WarnContext(ctx, "slow batch operation",
			"operation", "SaveReviewsBatch",
			"count", len(reviews),
			"duration_ms", duration.Milliseconds())
	}
	return nil
}

// GetReviewsByCourse returns a page of reviews for a course, newest first.
func (db *DB) GetReviewsByCourse(ctx context.Context, courseID int64, page, pageSize int) ([]Review, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE course_id = ?`, courseID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}

	if page < 1 {
		page = 1
	}
	query := `
		SELECT id, course_id, user_name, content, rating, sentiment_label, sentiment_prob, created_at
		FROM reviews
		WHERE course_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.conn.QueryContext(ctx, query, courseID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get reviews for course %d: %w", courseID, err)
	}
	defer func() { _ = rows.Close() }()

	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// GetLabeledReviews returns sentiment-labeled reviews whose content is at
// least minLength characters, for the sentiment aggregator.
func (db *DB) GetLabeledReviews(ctx context.Context, courseID int64, minLength int) ([]LabeledReview, error) {
	query := `
		SELECT sentiment_label, COALESCE(sentiment_prob, 0.0)
		FROM reviews
		WHERE course_id = ?
			AND sentiment_label IS NOT NULL
			AND LENGTH(content) >= ?
	`
	rows, err := db.conn.QueryContext(ctx, query, courseID, minLength)
	if err != nil {
		return nil, fmt.Errorf("failed to get labeled reviews for course %d: %w", courseID, err)
	}
	defer func() { _ = rows.Close() }()

	var labeled []LabeledReview
	for rows.Next() {
		var lr LabeledReview
		if err := rows.Scan(&lr.Label, &lr.Probability); err != nil {
			return nil, fmt.Errorf("failed to scan labeled review: %w", err)
		}
		labeled = append(labeled, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate labeled reviews: %w", err)
	}
	return labeled, nil
}

// GetReviewTexts returns up to limit review texts of at least minLength
// characters, newest first, plus the total count of qualifying reviews.
func (db *DB) GetReviewTexts(ctx context.Context, courseID int64, minLength, limit int) ([]string, int, error) {
	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE course_id = ? AND LENGTH(content) >= ?`,
		courseID, minLength).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count review texts: %w", err)
	}

	query := `
		SELECT content
		FROM reviews
		WHERE course_id = ? AND LENGTH(content) >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	rows, err := db.conn.QueryContext(ctx, query, courseID, minLength, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get review texts for course %d: %w", courseID, err)
	}
	defer func() { _ = rows.Close() }()

	var texts []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, 0, fmt.Errorf("failed to scan review text: %w", err)
		}
		texts = append(texts, content)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate review texts: %w", err)
	}
	return texts, total, nil
}

func scanReviews(rows *sql.Rows) ([]Review, error) {
	var reviews []Review
	for rows.Next() {
		var r Review
		var userName, label sql.NullString
		var prob sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.CourseID, &userName, &r.Content, &r.Rating, &label, &prob, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.UserName = userName.String
		if label.Valid {
			v := label.String
			r.SentimentLabel = &v
		}
		r.SentimentProb = floatPtr(prob)
		reviews = append(reviews, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}
	return reviews, nil
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
