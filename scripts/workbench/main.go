// workbench is a terminal front end for the review engine, useful for
// exercising the API without the mobile app. It drives the same session
// core the app embeds: the queue paginator, the persisted draft cache,
// and the submit guards.
//
// Usage:
//
//	go run ./scripts/workbench -token <jwt> [flags] list
//	go run ./scripts/workbench -token <jwt> [flags] show <question-id>
//	go run ./scripts/workbench -token <jwt> [flags] draft <question-id> <answer text>
//
// Drafts persist to -state-file between runs, or to Redis when
// REDIS_HOST is set.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropdesk/review-engine/pkg/client"
	"github.com/cropdesk/review-engine/pkg/config"
	"github.com/cropdesk/review-engine/pkg/database"
	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/workbench"
)

func main() {
	engineURL := flag.String("engine-url", "http://localhost:8084", "Review engine base URL")
	token := flag.String("token", "", "Reviewer bearer JWT (required)")
	reviewerID := flag.String("reviewer-id", "", "Reviewer UUID, used as the Redis state key")
	stateFile := flag.String("state-file", defaultStateFile(), "Draft state file when Redis is not configured")
	crop := flag.String("crop", "", "Filter the queue by crop")
	pageSize := flag.Int("page-size", 10, "Queue page size")
	flag.Parse()

	if *token == "" || flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s -token <jwt> [flags] list|show|draft ...\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(*engineURL, *token, *reviewerID, *stateFile, *crop, *pageSize, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "workbench: %v\n", err)
		os.Exit(1)
	}
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "workbench-state.json"
	}
	return filepath.Join(home, ".cropdesk", "workbench-state.json")
}

// newStore prefers Redis when configured and falls back to the state file.
func newStore(reviewerID, stateFile string) (workbench.PersistedStore, error) {
	cfg, err := config.Load("dev")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if redisClient == nil {
		return workbench.NewFileStore(stateFile), nil
	}

	id, err := uuid.Parse(reviewerID)
	if err != nil {
		return nil, fmt.Errorf("-reviewer-id must be a UUID when Redis is configured")
	}
	return workbench.NewRedisStore(redisClient, id), nil
}

func run(engineURL, token, reviewerID, stateFile, crop string, pageSize int, args []string) error {
	ctx := context.Background()

	store, err := newStore(reviewerID, stateFile)
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	drafts, err := workbench.NewDraftCache(ctx, store, workbench.NewClock(), workbench.DefaultFlushDelay, logger)
	if err != nil {
		return fmt.Errorf("load drafts: %w", err)
	}
	defer func() { _ = drafts.Flush(ctx) }()

	api := client.NewClient(engineURL, token, logger)
	filter := models.AllocationFilter{Crop: crop}
	paginator := workbench.NewPaginator(api, filter, pageSize)
	session := workbench.NewSession(api, paginator, drafts, logger)

	switch args[0] {
	case "list":
		return listQueue(ctx, paginator)
	case "show":
		if len(args) < 2 {
			return fmt.Errorf("show needs a question id")
		}
		return showQuestion(ctx, session, args[1])
	case "draft":
		if len(args) < 3 {
			return fmt.Errorf("draft needs a question id and answer text")
		}
		return saveDraft(ctx, drafts, args[1], args[2])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func listQueue(ctx context.Context, paginator *workbench.Paginator) error {
	for paginator.HasNextPage() {
		items, err := paginator.FetchNextPage(ctx)
		if err != nil {
			return err
		}
		for _, item := range items {
			fmt.Printf("%s  [%s/%s]  %s\n", item.ID, item.Status, item.Priority, item.Text)
		}
	}
	fmt.Printf("%d questions in queue\n", len(paginator.Items()))
	return nil
}

func showQuestion(ctx context.Context, session *workbench.Session, rawID string) error {
	questionID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid question id %q", rawID)
	}

	full, err := session.Select(ctx, questionID)
	if err != nil {
		return err
	}

	fmt.Printf("Question: %s\nStatus:   %s\nCrop:     %s\n",
		full.Question.Text, full.DisplayStatus, full.Question.Details.Crop)

	if full.Submission != nil {
		for _, item := range full.Submission.History {
			line := fmt.Sprintf("  %s  %s", item.CreatedAt.Format(time.RFC3339), item.Status)
			if item.Answer != nil {
				line += fmt.Sprintf("  (iteration %d) %s", item.Answer.Iteration, item.Answer.Text)
			}
			fmt.Println(line)
		}
	}

	if draft, ok := session.Drafts().Get(questionID); ok {
		fmt.Printf("Draft:    %s\n", draft.Answer)
	}
	return nil
}

func saveDraft(ctx context.Context, drafts *workbench.DraftCache, rawID, answer string) error {
	questionID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid question id %q", rawID)
	}

	drafts.Set(questionID, models.Draft{Answer: answer})
	if err := drafts.Flush(ctx); err != nil {
		return err
	}
	fmt.Printf("draft saved for %s\n", questionID)
	return nil
}
