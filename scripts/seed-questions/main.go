// seed-questions inserts sample agricultural questions for local
// development and manual testing of the allocation queue.
//
// Usage: go run ./scripts/seed-questions [-count N] [-crop name]
//
// Database connection: reads config.yaml / PG* environment variables,
// same as the engine itself.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cropdesk/review-engine/pkg/config"
	"github.com/cropdesk/review-engine/pkg/database"
	"github.com/cropdesk/review-engine/pkg/models"
	"github.com/cropdesk/review-engine/pkg/repositories"
)

var sampleQuestions = []struct {
	text    string
	details models.QuestionDetails
}{
	{"Yellowing leaves on my paddy crop two weeks after transplanting, what should I do?",
		models.QuestionDetails{Crop: "paddy", State: "Telangana", Season: "kharif", Domain: "plant-protection"}},
	{"Which fertilizer dose suits drip-irrigated tomato in red soils?",
		models.QuestionDetails{Crop: "tomato", State: "Karnataka", Domain: "soil-fertility"}},
	{"How do I control pink bollworm in cotton without spraying every week?",
		models.QuestionDetails{Crop: "cotton", State: "Maharashtra", Season: "kharif", Domain: "plant-protection"}},
	{"Is intercropping chickpea with coriander advisable this rabi?",
		models.QuestionDetails{Crop: "chickpea", State: "Madhya Pradesh", Season: "rabi", Domain: "agronomy"}},
	{"What is the recommended seed rate for direct-seeded rice?",
		models.QuestionDetails{Crop: "paddy", State: "Punjab", Domain: "agronomy"}},
}

func main() {
	count := flag.Int("count", len(sampleQuestions), "Number of questions to insert")
	crop := flag.String("crop", "", "Override the crop on every inserted question")
	flag.Parse()

	if err := run(*count, *crop); err != nil {
		fmt.Fprintf(os.Stderr, "seed-questions: %v\n", err)
		os.Exit(1)
	}
}

func run(count int, crop string) error {
	cfg, err := config.Load("dev")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: 2,
	})
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	repo := repositories.NewQuestionRepository(db)
	priorities := []models.QuestionPriority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh}

	for i := 0; i < count; i++ {
		sample := sampleQuestions[i%len(sampleQuestions)]
		details := sample.details
		if crop != "" {
			details.Crop = crop
		}

		q := &models.Question{
			Text:     sample.text,
			Status:   models.QuestionStatusOpen,
			Priority: priorities[i%len(priorities)],
			Source:   "seed-script",
			Details:  details,
		}
		if err := repo.Create(ctx, q); err != nil {
			return fmt.Errorf("insert question %d: %w", i+1, err)
		}
		fmt.Printf("inserted %s  %q\n", q.ID, q.Text)
	}

	fmt.Printf("seeded %d questions\n", count)
	return nil
}
