// Package identity collapses repeated offerings of the same course. Two
// catalog rows are the same course when their normalized (name, instructor)
// pairs match; which row represents the group depends on the caller:
// ranked results keep the best-ranked row, storage views keep the most
// recent offering.
package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/moduway/moduway-go/internal/storage"
)

var folder = cases.Fold()

// Normalize canonicalizes a name component: Unicode NFKC, case folding,
// surrounding whitespace trimmed. Full-width and half-width variants of
// the same text normalize to the same key.
func Normalize(s string) string {
	return folder.String(norm.NFKC.String(strings.TrimSpace(s)))
}

// Key returns the identity key for a (name, instructor) pair. The NUL
// separator keeps ("ab", "c") and ("a", "bc") distinct.
func Key(name, instructor string) string {
	return Normalize(name) + "\x00" + Normalize(instructor)
}

// CourseKey returns the identity key for a course row.
func CourseKey(c *storage.Course) string {
	return Key(c.Name, c.Instructor)
}

// CollapseByRelevance keeps the first occurrence of each identity and drops
// the rest, preserving input order. Use for ranked candidate lists, where
// position encodes relevance.
func CollapseByRelevance(courses []*storage.Course) []*storage.Course {
	if len(courses) <= 1 {
		return courses
	}

	seen := make(map[string]struct{}, len(courses))
	result := make([]*storage.Course, 0, len(courses))
	for _, c := range courses {
		key := CourseKey(c)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, c)
	}
	return result
}

// CollapseByRecency keeps, for each identity, the offering with the most
// recent study start. Offerings without a start date lose to dated ones;
// ties fall to the higher row id. The surviving rows appear in the order
// their identity was first encountered.
func CollapseByRecency(courses []*storage.Course) []*storage.Course {
	if len(courses) <= 1 {
		return courses
	}

	best := make(map[string]*storage.Course, len(courses))
	order := make([]string, 0, len(courses))
	for _, c := range courses {
		key := CourseKey(c)
		current, ok := best[key]
		if !ok {
			best[key] = c
			order = append(order, key)
			continue
		}
		if moreRecent(c, current) {
			best[key] = c
		}
	}

	result := make([]*storage.Course, 0, len(order))
	for _, key := range order {
		result = append(result, best[key])
	}
	return result
}

// moreRecent reports whether a should replace b as the representative
// offering of a shared identity.
func moreRecent(a, b *storage.Course) bool {
	switch {
	case a.StudyStart == nil && b.StudyStart == nil:
		return a.ID > b.ID
	case a.StudyStart == nil:
		return false
	case b.StudyStart == nil:
		return true
	case a.StudyStart.Equal(*b.StudyStart):
		return a.ID > b.ID
	default:
		return a.StudyStart.After(*b.StudyStart)
	}
}
