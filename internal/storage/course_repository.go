package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CourseFilter holds structural filters shared by list and search endpoints.
// Category and Subcategories match exactly; OrgName and Instructor are
// partial, case-insensitive matches.
type CourseFilter struct {
	Keywords      []string // AND substring match on course name
	Category      string
	Subcategories []string
	OrgName       string
	Instructor    string
}

// Empty reports whether no filter is set.
func (f CourseFilter) Empty() bool {
	return len(f.Keywords) == 0 && f.Category == "" && len(f.Subcategories) == 0 &&
		f.OrgName == "" && f.Instructor == ""
}

// ListOptions controls catalog list queries.
type ListOptions struct {
	Filter   CourseFilter
	Ordering string // whitelisted in ListCourses
	Page     int    // 1-based
	PageSize int
}

// allowedOrderings maps the public ordering parameter to an ORDER BY clause.
// Unknown values fall back to -average_rating.
var allowedOrderings = map[string]string{
	"average_rating":  "average_rating ASC",
	"-average_rating": "average_rating DESC",
	"review_count":    "review_count ASC",
	"-review_count":   "review_count DESC",
	"created_at":      "created_at ASC",
	"-created_at":     "created_at DESC",
	"name":            "name ASC",
	"-name":           "name DESC",
	"study_start":     "study_start ASC NULLS FIRST",
	"-study_start":    "study_start DESC NULLS LAST",
}

// SaveCourse inserts or updates a course record keyed by external id.
func (db *DB) SaveCourse(ctx context.Context, course *Course) error {
	query := `
		INSERT INTO courses (
			external_id, name, instructor, org_name, category, subcategory,
			summary, url, image_url, enrollment_start, enrollment_end,
			study_start, study_end, weeks, playtime_minutes,
			avg_external_rating, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			name = excluded.name,
			instructor = excluded.instructor,
			org_name = excluded.org_name,
			category = excluded.category,
			subcategory = excluded.subcategory,
			summary = excluded.summary,
			url = excluded.url,
			image_url = excluded.image_url,
			enrollment_start = excluded.enrollment_start,
			enrollment_end = excluded.enrollment_end,
			study_start = excluded.study_start,
			study_end = excluded.study_end,
			weeks = excluded.weeks,
			playtime_minutes = excluded.playtime_minutes,
			avg_external_rating = excluded.avg_external_rating,
			updated_at = excluded.updated_at
	`
	now := time.Now().Unix()
	_, err := db.conn.ExecContext(ctx, query, courseArgs(course, now)...)
	if err != nil {
		slog.ErrorContext(ctx, "failed to save course",
			"external_id", course.ExternalID,
			"error", err)
		return fmt.Errorf("failed to save course: %w", err)
	}
	return nil
}

// SaveCoursesBatch inserts or updates multiple courses in one transaction.
func (db *DB) SaveCoursesBatch(ctx context.Context, courses []*Course) error {
	if len(courses) == 0 {
		return nil
	}

	query := `
		INSERT INTO courses (
			external_id, name, instructor, org_name, category, subcategory,
			summary, url, image_url, enrollment_start, enrollment_end,
			study_start, study_end, weeks, playtime_minutes,
			avg_external_rating, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_id) DO UPDATE SET
			name = excluded.name,
			instructor = excluded.instructor,
			org_name = excluded.org_name,
			category = excluded.category,
			subcategory = excluded.subcategory,
			summary = excluded.summary,
			url = excluded.url,
			image_url = excluded.image_url,
			enrollment_start = excluded.enrollment_start,
			enrollment_end = excluded.enrollment_end,
			study_start = excluded.study_start,
			study_end = excluded.study_end,
			weeks = excluded.weeks,
			playtime_minutes = excluded.playtime_minutes,
			avg_external_rating = excluded.avg_external_rating,
			updated_at = excluded.updated_at
	`

	start := time.Now()
	now := start.Unix()
	err := db.ExecBatch(ctx, query, func(stmt *sql.Stmt) error {
		for _, course := range courses {
			if _, err := stmt.ExecContext(ctx, courseArgs(course, now)...); err != nil {
				return fmt.Errorf("failed to save course %s: %w", course.ExternalID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if duration := time.Since(start); duration > 500*time.Millisecond {
		slog.WarnContext(ctx, "slow batch operation",
			"operation", "SaveCoursesBatch",
			"count", len(courses),
			"duration_ms", duration.Milliseconds())
	}
	return nil
}

func courseArgs(c *Course, now int64) []any {
	createdAt := c.CreatedAt
	if createdAt == 0 {
		createdAt = now
	}
	return []any{
		c.ExternalID, c.Name, nullString(c.Instructor), nullString(c.OrgName),
		nullString(c.Category), nullString(c.Subcategory), nullString(c.Summary),
		nullString(c.URL), nullString(c.ImageURL),
		nullDate(c.EnrollmentStart), nullDate(c.EnrollmentEnd),
		nullDate(c.StudyStart), nullDate(c.StudyEnd),
		nullFloat(c.Weeks), nullFloat(c.PlaytimeMinutes), nullFloat(c.AvgExternalRating),
		createdAt, now,
	}
}

const courseColumns = `
	id, external_id, name, instructor, org_name, category, subcategory,
	summary, url, image_url, enrollment_start, enrollment_end,
	study_start, study_end, weeks, playtime_minutes, avg_external_rating,
	created_at, updated_at`

// GetCourseByID retrieves a single course.
func (db *DB) GetCourseByID(ctx context.Context, id int64) (*Course, error) {
	query := `SELECT` + courseColumns + ` FROM courses WHERE id = ?`
	row := db.conn.QueryRowContext(ctx, query, id)

	course, err := scanCourse(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get course %d: %w", id, err)
	}
	return course, nil
}

// GetCoursesByIDs retrieves courses for an id set. Missing ids are simply
// absent from the result; callers that care compare lengths.
func (db *DB) GetCoursesByIDs(ctx context.Context, ids []int64) ([]*Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT` + courseColumns + ` FROM courses WHERE id IN (` + placeholders + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get courses by ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCourses(rows)
}

// GetCourseIDsByExternalIDs maps external ids to database ids. Unknown
// external ids are absent from the result.
func (db *DB) GetCourseIDsByExternalIDs(ctx context.Context, externalIDs []string) (map[string]int64, error) {
	if len(externalIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(externalIDs)), ",")
	query := `SELECT external_id, id FROM courses WHERE external_id IN (` + placeholders + `)`

	args := make([]any, len(externalIDs))
	for i, id := range externalIDs {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get course ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int64, len(externalIDs))
	for rows.Next() {
		var externalID string
		var id int64
		if err := rows.Scan(&externalID, &id); err != nil {
			return nil, fmt.Errorf("failed to scan course id: %w", err)
		}
		out[externalID] = id
	}
	return out, rows.Err()
}

// ListCourses returns a deduplicated, annotated catalog page. Repeated
// offerings of the same (name, instructor) collapse to the most recent
// study_start at the SQL level (NULL starts sort last), matching the
// identity resolver's recency policy.
func (db *DB) ListCourses(ctx context.Context, opts ListOptions) ([]CourseListItem, int, error) {
	where, args := buildCourseWhere(opts.Filter)

	orderBy, ok := allowedOrderings[opts.Ordering]
	if !ok {
		orderBy = allowedOrderings["-average_rating"]
	}

	base := `
		SELECT * FROM (
			SELECT c.id, c.external_id, c.name, c.instructor, c.org_name,
				c.category, c.subcategory, c.summary, c.url, c.image_url,
				c.enrollment_start, c.enrollment_end, c.study_start, c.study_end,
				c.weeks, c.playtime_minutes, c.avg_external_rating,
				c.created_at, c.updated_at,
				COALESCE(AVG(r.rating), 0.0) AS average_rating,
				COUNT(DISTINCT r.id) AS review_count,
				ROW_NUMBER() OVER (
					PARTITION BY TRIM(c.name), TRIM(COALESCE(c.instructor, ''))
					ORDER BY c.study_start DESC NULLS LAST, c.id DESC
				) AS row_num
			FROM courses c
			LEFT JOIN reviews r ON r.course_id = c.id
			` + where + `
			GROUP BY c.id
		) WHERE row_num = 1`

	countQuery := `SELECT COUNT(*) FROM (` + base + `)`
	var total int
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count courses: %w", err)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	query := base + ` ORDER BY ` + orderBy + ` LIMIT ? OFFSET ?`
	pagedArgs := append(append([]any{}, args...), opts.PageSize, (page-1)*opts.PageSize)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, pagedArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items, err := scanCourseListItems(rows)
	if err != nil {
		return nil, 0, err
	}

	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "ListCourses",
			"duration_ms", duration.Milliseconds())
	}
	return items, total, nil
}

// FilterCourseIDs narrows a candidate id set by structural filters while
// preserving nothing about order; callers re-apply their own ranking.
func (db *DB) FilterCourseIDs(ctx context.Context, ids []int64, filter CourseFilter) (map[int64]*Course, error) {
	if len(ids) == 0 {
		return map[int64]*Course{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	where, filterArgs := buildCourseWhere(filter)
	if where == "" {
		where = "WHERE c.id IN (" + placeholders + ")"
	} else {
		where += " AND c.id IN (" + placeholders + ")"
	}

	args := append([]any{}, filterArgs...)
	for _, id := range ids {
		args = append(args, id)
	}

	query := `
		SELECT c.id, c.external_id, c.name, c.instructor, c.org_name,
			c.category, c.subcategory, c.summary, c.url, c.image_url,
			c.enrollment_start, c.enrollment_end, c.study_start, c.study_end,
			c.weeks, c.playtime_minutes, c.avg_external_rating,
			c.created_at, c.updated_at
		FROM courses c ` + where

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	courses, err := scanCourses(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*Course, len(courses))
	for _, c := range courses {
		byID[c.ID] = c
	}
	return byID, nil
}

// CountCourses returns the total number of stored course rows.
func (db *DB) CountCourses(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// GetAllCourses returns every course row, used by the catalog loader to
// build search indexes.
func (db *DB) GetAllCourses(ctx context.Context) ([]*Course, error) {
	query := `SELECT` + courseColumns + ` FROM courses ORDER BY id`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanCourses(rows)
}

func buildCourseWhere(f CourseFilter) (string, []any) {
	var clauses []string
	var args []any

	for _, kw := range f.Keywords {
		clauses = append(clauses, "c.name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+kw+"%")
	}
	if f.Category != "" {
		clauses = append(clauses, "c.category = ?")
		args = append(args, f.Category)
	}
	if len(f.Subcategories) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.Subcategories)), ",")
		clauses = append(clauses, "c.subcategory IN ("+placeholders+")")
		for _, s := range f.Subcategories {
			args = append(args, s)
		}
	}
	if f.OrgName != "" {
		clauses = append(clauses, "c.org_name LIKE ? COLLATE NOCASE")
		args = append(args, "%"+f.OrgName+"%")
	}
	if f.Instructor != "" {
		clauses = append(clauses, "c.instructor LIKE ? COLLATE NOCASE")
		args = append(args, "%"+f.Instructor+"%")
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (*Course, error) {
	var c Course
	var instructor, orgName, category, subcategory, summary, url, imageURL sql.NullString
	var enrollStart, enrollEnd, studyStart, studyEnd sql.NullString
	var weeks, playtime, extRating sql.NullFloat64

	err := row.Scan(
		&c.ID, &c.ExternalID, &c.Name, &instructor, &orgName, &category,
		&subcategory, &summary, &url, &imageURL,
		&enrollStart, &enrollEnd, &studyStart, &studyEnd,
		&weeks, &playtime, &extRating,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Instructor = instructor.String
	c.OrgName = orgName.String
	c.Category = category.String
	c.Subcategory = subcategory.String
	c.Summary = summary.String
	c.URL = url.String
	c.ImageURL = imageURL.String
	c.EnrollmentStart = parseDate(enrollStart)
	c.EnrollmentEnd = parseDate(enrollEnd)
	c.StudyStart = parseDate(studyStart)
	c.StudyEnd = parseDate(studyEnd)
	c.Weeks = floatPtr(weeks)
	c.PlaytimeMinutes = floatPtr(playtime)
	c.AvgExternalRating = floatPtr(extRating)
	return &c, nil
}

func scanCourses(rows *sql.Rows) ([]*Course, error) {
	var courses []*Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate courses: %w", err)
	}
	return courses, nil
}

func scanCourseListItems(rows *sql.Rows) ([]CourseListItem, error) {
	var items []CourseListItem
	for rows.Next() {
		var item CourseListItem
		var instructor, orgName, category, subcategory, summary, url, imageURL sql.NullString
		var enrollStart, enrollEnd, studyStart, studyEnd sql.NullString
		var weeks, playtime, extRating sql.NullFloat64
		var rowNum int

		err := rows.Scan(
			&item.ID, &item.ExternalID, &item.Name, &instructor, &orgName,
			&category, &subcategory, &summary, &url, &imageURL,
			&enrollStart, &enrollEnd, &studyStart, &studyEnd,
			&weeks, &playtime, &extRating,
			&item.CreatedAt, &item.UpdatedAt,
			&item.AverageRating, &item.ReviewCount, &rowNum,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course list item: %w", err)
		}

		item.Instructor = instructor.String
		item.OrgName = orgName.String
		item.Category = category.String
		item.Subcategory = subcategory.String
		item.Summary = summary.String
		item.URL = url.String
		item.ImageURL = imageURL.String
		item.EnrollmentStart = parseDate(enrollStart)
		item.EnrollmentEnd = parseDate(enrollEnd)
		item.StudyStart = parseDate(studyStart)
		item.StudyEnd = parseDate(studyEnd)
		item.Weeks = floatPtr(weeks)
		item.PlaytimeMinutes = floatPtr(playtime)
		item.AvgExternalRating = floatPtr(extRating)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate course list items: %w", err)
	}
	return items, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(DateLayout), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func parseDate(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
