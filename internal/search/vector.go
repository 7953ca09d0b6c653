package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/storage"
)

const (
	// CourseCollectionName is the chromem collection holding course embeddings.
	CourseCollectionName = "courses"

	// SemanticK is how many nearest neighbors a semantic query keeps.
	SemanticK = 50

	// SemanticCandidatePool is how many documents the kNN scan considers
	// before keeping the top k.
	SemanticCandidatePool = 500
)

// VectorResult is a ranked semantic match.
type VectorResult struct {
	CourseID   int64
	Similarity float32 // cosine similarity, higher is better
}

// VectorIndex wraps a persistent chromem collection of course embeddings.
// One document per course: name, summary, and category metadata embedded
// together.
type VectorIndex struct {
	db          *chromem.DB
	collection  *chromem.Collection
	embedFunc   chromem.EmbeddingFunc
	pool        int
	logger      *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

// NewVectorIndex opens (or creates) the persistent vector store at
// persistPath. embedFunc produces query and document embeddings. pool caps
// the candidates examined per query; <= 0 uses SemanticCandidatePool.
func NewVectorIndex(persistPath string, embedFunc chromem.EmbeddingFunc, pool int, log *logger.Logger) (*VectorIndex, error) {
	db, err := chromem.NewPersistentDB(persistPath, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	if pool <= 0 {
		pool = SemanticCandidatePool
	}

	return &VectorIndex{
		db:        db,
		embedFunc: embedFunc,
		pool:      pool,
		logger:    log,
	}, nil
}

// Initialize opens the course collection. Safe to call more than once.
func (v *VectorIndex) Initialize(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	collection, err := v.db.GetOrCreateCollection(CourseCollectionName, nil, v.embedFunc)
	if err != nil {
		return fmt.Errorf("failed to open course collection: %w", err)
	}
	v.collection = collection
	v.initialized = true

	if count := collection.Count(); count > 0 {
		v.logger.WithField("count", count).Info("loaded course embeddings from disk")
	}
	return nil
}

// EmbeddingText is the document text embedded for a course.
func EmbeddingText(c *storage.Course) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{c.Name, c.Summary, c.Category, c.Subcategory} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, "\n")
}

// AddCourses embeds and stores documents for the given courses. Courses
// whose embedding text is empty are skipped.
func (v *VectorIndex) AddCourses(ctx context.Context, courses []*storage.Course) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.collection == nil {
		return fmt.Errorf("vector index not initialized")
	}

	docs := make([]chromem.Document, 0, len(courses))
	for _, c := range courses {
		content := EmbeddingText(c)
		if content == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      strconv.FormatInt(c.ID, 10),
			Content: content,
			Metadata: map[string]string{
				"name":       c.Name,
				"instructor": c.Instructor,
			},
		})
	}
	if len(docs) == 0 {
		return nil
	}

	// 4 concurrent embedding requests
	if err := v.collection.AddDocuments(ctx, docs, 4); err != nil {
		return fmt.Errorf("failed to add course documents: %w", err)
	}
	return nil
}

// Search returns up to k nearest courses for the query text.
func (v *VectorIndex) Search(ctx context.Context, query string, k int) ([]VectorResult, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.collection == nil {
		return nil, fmt.Errorf("vector index not initialized")
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	if k <= 0 {
		k = SemanticK
	}

	docCount := v.collection.Count()
	if docCount == 0 {
		return nil, nil
	}

	limit := v.pool
	if limit > docCount {
		limit = docCount
	}

	results, err := v.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("vector query failed: %w", err)
	}

	out := make([]VectorResult, 0, k)
	for _, r := range results {
		courseID, err := strconv.ParseInt(r.ID, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, VectorResult{CourseID: courseID, Similarity: r.Similarity})
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

// SearchByCourse returns up to k nearest courses to an already-indexed
// course's document, for recommendation neighbors. The target course itself
// is included when present; callers filter it out.
func (v *VectorIndex) SearchByCourse(ctx context.Context, course *storage.Course, k int) ([]VectorResult, error) {
	return v.Search(ctx, EmbeddingText(course), k)
}

// Count returns the number of stored course documents.
func (v *VectorIndex) Count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.collection == nil {
		return 0
	}
	return v.collection.Count()
}

// Ready reports whether Initialize has completed.
func (v *VectorIndex) Ready() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.initialized
}
