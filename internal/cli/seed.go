package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/config"
	"trivia-match-service/internal/domain"
	pgstore "trivia-match-service/internal/infra/postgres"
)

// NewSeedCmd loads a starter data set: an admin account, categories, a small
// question bank and the round-pack products. Safe to skip on non-empty
// databases.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed starter categories, questions and products",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg)
		},
	}
}

func runSeed(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	categories := pgstore.NewCategoryStore(pool)
	questions := pgstore.NewQuestionStore(pool)
	products := pgstore.NewProductStore(pool)
	users := pgstore.NewUserRepository(pool)

	existing, err := categories.List(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Printf("database already seeded (%d categories), skipping", len(existing))
		return nil
	}

	now := time.Now().UTC()

	if err := seedAdmin(ctx, users, now); err != nil {
		return err
	}

	names := []struct {
		ar, en string
	}{
		{"تاريخ", "History"},
		{"جغرافيا", "Geography"},
		{"علوم", "Science"},
		{"رياضة", "Sports"},
		{"أفلام", "Movies"},
		{"موسيقى", "Music"},
	}
	for i, n := range names {
		cat := &domain.Category{
			ID:        uuid.NewString(),
			NameAR:    n.ar,
			NameEN:    n.en,
			Active:    true,
			Order:     i,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := categories.Insert(ctx, cat); err != nil {
			return err
		}
		if err := seedQuestions(ctx, questions, cat, now); err != nil {
			return err
		}
	}

	five, ten := 5, 10
	priceFive, priceTen := "$4.99", "$8.99"
	for _, p := range []*domain.Product{
		{ID: uuid.NewString(), NameAR: "٥ جولات", NameEN: "5 rounds", Type: domain.ProductRounds, Rounds: &five, PriceDisplay: &priceFive, Active: true, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), NameAR: "١٠ جولات", NameEN: "10 rounds", Type: domain.ProductRounds, Rounds: &ten, PriceDisplay: &priceTen, Active: true, CreatedAt: now, UpdatedAt: now},
	} {
		if err := products.Insert(ctx, p); err != nil {
			return err
		}
	}

	log.Printf("seeded %d categories with questions and %d products", len(names), 2)
	return nil
}

func seedAdmin(ctx context.Context, users *pgstore.UserRepository, now time.Time) error {
	email := os.Getenv("SEED_ADMIN_EMAIL")
	if email == "" {
		email = "admin@example.com"
	}
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "change-me-now"
	}
	hash, err := app.HashPassword(password)
	if err != nil {
		return err
	}
	name := "Admin"
	return users.Insert(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         &name,
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func seedQuestions(ctx context.Context, store *pgstore.QuestionStore, cat *domain.Category, now time.Time) error {
	for level := 1; level <= 3; level++ {
		points := domain.LevelPoints[level]
		for i := 1; i <= 3; i++ {
			prompt := fmt.Sprintf("%s sample question, level %d, #%d", cat.NameEN, level, i)
			answer := fmt.Sprintf("Sample answer %d", i)
			q := &domain.Question{
				ID:         uuid.NewString(),
				CategoryID: cat.ID,
				Level:      level,
				Points:     points,
				Prompt:     domain.ContentBlock{Text: &prompt},
				Hint:       domain.Hint{Enabled: true, Content: &domain.ContentBlock{Text: &answer}},
				Answer:     &domain.ContentBlock{Text: &answer},
				Status:     domain.QuestionActive,
				CreatedAt:  now.Add(time.Duration(i) * time.Millisecond),
				UpdatedAt:  now,
			}
			if err := store.Insert(ctx, q); err != nil {
				return err
			}
		}
	}
	return nil
}
