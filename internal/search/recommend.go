package search

import (
	"context"

	"github.com/moduway/moduway-go/internal/identity"
	"github.com/moduway/moduway-go/internal/storage"
)

// RecommendationCap is the maximum number of neighbor courses returned.
const RecommendationCap = 4

// Recommend returns courses similar to the target course: its embedding's
// nearest neighbors, with the target's own identity excluded and repeated
// offerings collapsed. Backend failures degrade to an empty list.
func (o *Orchestrator) Recommend(ctx context.Context, target *storage.Course, limit int) ([]*storage.Course, error) {
	if limit <= 0 || limit > RecommendationCap {
		limit = RecommendationCap
	}
	if o.vector == nil {
		return []*storage.Course{}, nil
	}

	// Over-fetch: the target's own chunks and repeated offerings shrink the set.
	neighbors, err := o.vector.SearchByCourse(ctx, target, limit*3+1)
	if err != nil {
		o.logger.WithError(err).WithField("course_id", target.ID).Warn("recommendation backend failed, returning empty list")
		o.metrics.SearchDegradedTotal.WithLabelValues("recommend", "backend_error").Inc()
		return []*storage.Course{}, nil
	}
	if len(neighbors) == 0 {
		return []*storage.Course{}, nil
	}

	ids := make([]int64, 0, len(neighbors))
	for _, n := range neighbors {
		if n.CourseID == target.ID {
			continue
		}
		ids = append(ids, n.CourseID)
	}

	byID, err := o.db.FilterCourseIDs(ctx, ids, storage.CourseFilter{})
	if err != nil {
		return nil, err
	}

	targetKey := identity.CourseKey(target)
	ranked := make([]*storage.Course, 0, len(ids))
	for _, id := range ids {
		course, ok := byID[id]
		if !ok {
			continue
		}
		if identity.CourseKey(course) == targetKey {
			continue
		}
		ranked = append(ranked, course)
	}

	deduped := identity.CollapseByRelevance(ranked)
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}
	return deduped, nil
}
