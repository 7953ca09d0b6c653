// Package search implements the two retrieval modes over the course
// catalog: keyword (BM25) and semantic (vector kNN), plus the shared
// post-pipeline that turns ranked candidate ids into filtered, deduplicated
// result pages.
package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/crawlab-team/bm25"

	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/storage"
)

// KeywordFetchCap is the maximum number of candidates a keyword query
// produces before the post-pipeline runs.
const KeywordFetchCap = 200

// KeywordResult is a ranked keyword match.
type KeywordResult struct {
	CourseID int64
	Score    float64 // BM25 score, higher is better
	Rank     int     // 1-indexed rank position
}

// KeywordIndex provides BM25 search over course names and summaries.
// Names are indexed as their own documents so that title matches outrank
// summary matches, mirroring a boosted-name field.
type KeywordIndex struct {
	bm25Okapi   *bm25.BM25Okapi
	docToCourse []int64
	logger      *logger.Logger
	mu          sync.RWMutex
	initialized bool
}

// NewKeywordIndex creates an empty keyword index.
func NewKeywordIndex(log *logger.Logger) *KeywordIndex {
	return &KeywordIndex{logger: log}
}

// Build constructs the index from the full catalog. BM25 IDF uses global
// document statistics, so incremental additions rebuild from scratch.
func (idx *KeywordIndex) Build(courses []*storage.Course) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var corpus []string
	var docToCourse []int64
	for _, c := range courses {
		if name := strings.TrimSpace(c.Name); name != "" {
			// Index the name twice to weight title matches above summary matches
			corpus = append(corpus, name+" "+name)
			docToCourse = append(docToCourse, c.ID)
		}
		if summary := strings.TrimSpace(c.Summary); summary != "" {
			corpus = append(corpus, summary)
			docToCourse = append(docToCourse, c.ID)
		}
	}

	if len(corpus) == 0 {
		idx.bm25Okapi = nil
		idx.docToCourse = nil
		idx.initialized = true
		return nil
	}

	// k1=1.5, b=0.75 are standard BM25 parameters
	bm25Okapi, err := bm25.NewBM25Okapi(corpus, tokenize, 1.5, 0.75, nil)
	if err != nil {
		return fmt.Errorf("failed to build keyword index: %w", err)
	}

	idx.bm25Okapi = bm25Okapi
	idx.docToCourse = docToCourse
	idx.initialized = true

	idx.logger.WithField("docs", len(corpus)).Info("keyword index built")
	return nil
}

// Search returns up to topN course ids ranked by BM25 score, deduplicated
// by course keeping each course's best-scoring document.
func (idx *KeywordIndex) Search(query string, topN int) ([]KeywordResult, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if !idx.initialized || idx.bm25Okapi == nil {
		return nil, nil
	}
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.bm25Okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("keyword scoring failed: %w", err)
	}

	best := make(map[int64]float64)
	for docID, score := range scores {
		if score <= 0 || docID >= len(idx.docToCourse) {
			continue
		}
		courseID := idx.docToCourse[docID]
		if existing, ok := best[courseID]; !ok || score > existing {
			best[courseID] = score
		}
	}

	results := make([]KeywordResult, 0, len(best))
	for courseID, score := range best {
		results = append(results, KeywordResult{CourseID: courseID, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CourseID < results[j].CourseID
	})

	if topN > 0 && len(results) > topN {
		results = results[:topN]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// Ready reports whether Build has completed.
func (idx *KeywordIndex) Ready() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.initialized
}

// tokenize splits text into BM25 tokens. CJK characters become unigrams
// plus bigrams (typo-tolerant at bigram granularity); everything else
// accumulates into lowercase words.
func tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	var currentWord strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if isCJK(r) {
				if currentWord.Len() > 0 {
					tokens = append(tokens, currentWord.String())
					currentWord.Reset()
				}
				tokens = append(tokens, string(r))
				if i+1 < len(runes) && isCJK(runes[i+1]) {
					tokens = append(tokens, string(r)+string(runes[i+1]))
				}
			} else {
				currentWord.WriteRune(r)
			}
		} else {
			if currentWord.Len() > 0 {
				tokens = append(tokens, currentWord.String())
				currentWord.Reset()
			}
		}
	}
	if currentWord.Len() > 0 {
		tokens = append(tokens, currentWord.String())
	}
	return tokens
}

// isCJK returns true if the rune is a CJK character.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
