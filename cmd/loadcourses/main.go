// Command loadcourses imports a catalog export into the moduway database.
// The input is a JSON array of course records, each optionally carrying its
// reviews and AI rating. Existing rows with the same external id are
// overwritten.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/moduway/moduway-go/internal/config"
	"github.com/moduway/moduway-go/internal/genai"
	"github.com/moduway/moduway-go/internal/logger"
	"github.com/moduway/moduway-go/internal/search"
	"github.com/moduway/moduway-go/internal/storage"
)

// CLI flags
var (
	fileFlag  = flag.String("file", "", "Path to the JSON catalog export (required)")
	embedFlag = flag.Bool("embed", false, "Also populate the semantic search index (requires OpenAI API key)")
)

// catalogRecord is one entry of the export file.
type catalogRecord struct {
	storage.Course
	Reviews  []*storage.Review `json:"reviews,omitempty"`
	AIRating *storage.AIRating `json:"ai_rating,omitempty"`
}

func main() {
	flag.Parse()

	if *fileFlag == "" {
		_, _ = fmt.Fprintln(os.Stderr, "Usage: loadcourses -file <catalog.json> [-embed]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting catalog import")

	ctx := context.Background()
	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	records, err := readCatalog(*fileFlag)
	if err != nil {
		log.WithError(err).Fatal("Failed to read catalog file")
	}
	log.WithField("records", len(records)).Info("Catalog file parsed")

	courses := make([]*storage.Course, 0, len(records))
	externalIDs := make([]string, 0, len(records))
	for i := range records {
		courses = append(courses, &records[i].Course)
		externalIDs = append(externalIDs, records[i].ExternalID)
	}

	if err := db.SaveCoursesBatch(ctx, courses); err != nil {
		log.WithError(err).Fatal("Failed to save courses")
	}
	log.WithField("courses", len(courses)).Info("Courses imported")

	// Reviews and ratings reference courses by database id, so resolve the
	// upserted rows before importing them.
	idByExternal, err := db.GetCourseIDsByExternalIDs(ctx, externalIDs)
	if err != nil {
		log.WithError(err).Fatal("Failed to resolve course ids")
	}

	var reviews []*storage.Review
	var ratings []*storage.AIRating
	for i := range records {
		courseID, ok := idByExternal[records[i].ExternalID]
		if !ok {
			log.WithField("external_id", records[i].ExternalID).Warn("Course missing after import, skipping attachments")
			continue
		}
		courses[i].ID = courseID
		for _, r := range records[i].Reviews {
			r.CourseID = courseID
			reviews = append(reviews, r)
		}
		if records[i].AIRating != nil {
			records[i].AIRating.CourseID = courseID
			ratings = append(ratings, records[i].AIRating)
		}
	}

	if len(reviews) > 0 {
		if err := db.SaveReviewsBatch(ctx, reviews); err != nil {
			log.WithError(err).Fatal("Failed to save reviews")
		}
		log.WithField("reviews", len(reviews)).Info("Reviews imported")
	}

	if len(ratings) > 0 {
		if err := db.SaveAIRatingsBatch(ctx, ratings); err != nil {
			log.WithError(err).Fatal("Failed to save AI ratings")
		}
		log.WithField("ratings", len(ratings)).Info("AI ratings imported")
	}

	if *embedFlag {
		if err := embedCatalog(ctx, cfg, courses, log); err != nil {
			log.WithError(err).Fatal("Failed to populate semantic index")
		}
	}

	fmt.Printf("Imported %d courses, %d reviews, %d ratings\n", len(courses), len(reviews), len(ratings))
}

func readCatalog(path string) ([]catalogRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []catalogRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("invalid catalog JSON: %w", err)
	}
	return records, nil
}

func embedCatalog(ctx context.Context, cfg *config.Config, courses []*storage.Course, log *logger.Logger) error {
	if cfg.OpenAIAPIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}

	embedder := genai.NewEmbeddingClient(cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.OpenAIBaseURL, nil)
	index, err := search.NewVectorIndex(cfg.VectorStorePath(), embedder.NewEmbeddingFunc(), cfg.SemanticPool, log)
	if err != nil {
		return err
	}
	if err := index.Initialize(ctx); err != nil {
		return err
	}

	log.WithField("courses", len(courses)).Info("Embedding catalog")
	if err := index.AddCourses(ctx, courses); err != nil {
		return err
	}
	log.WithField("indexed", index.Count()).Info("Semantic index populated")
	return nil
}
