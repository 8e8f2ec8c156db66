package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/config"
	"trivia-match-service/internal/infra/media"
	"trivia-match-service/internal/infra/memory"
	pgstore "trivia-match-service/internal/infra/postgres"
	redisstore "trivia-match-service/internal/infra/redis"
	smtpmailer "trivia-match-service/internal/infra/smtp"
	"trivia-match-service/internal/logging"
	transport "trivia-match-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Format, cfg.Log.Level)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	// Postgres-backed stores in production; in-memory twins keep local
	// development dependency-free.
	var (
		matches    app.MatchRepository
		users      app.UserRepository
		questions  app.QuestionStore
		categories app.CategoryStore
		products   app.ProductStore
		purchases  app.PurchaseRepository
	)
	if pool != nil {
		matches = pgstore.NewMatchRepository(pool)
		users = pgstore.NewUserRepository(pool)
		questions = pgstore.NewQuestionStore(pool)
		categories = pgstore.NewCategoryStore(pool)
		products = pgstore.NewProductStore(pool)
		purchases = pgstore.NewPurchaseRepository(pool)
	} else {
		log.Warn("postgres not configured, using in-memory storage")
		matches = memory.NewMatchRepository()
		users = memory.NewUserRepository()
		questions = memory.NewQuestionStore()
		categories = memory.NewCategoryStore()
		products = memory.NewProductStore()
		purchases = memory.NewPurchaseRepository()
	}

	var answers app.AnswerSource = questions
	var otpStore app.OTPStore = memory.NewOTPStore()
	if redisClient != nil {
		answerTTL := config.TTLDuration(cfg.Match.AnswerCacheTTL, time.Hour)
		answers = redisstore.NewAnswerCache(redisClient, questions, answerTTL)
		otpStore = redisstore.NewOTPStore(redisClient)
	}

	var mailer app.Mailer
	if cfg.SMTP.Host != "" {
		mailer = smtpmailer.NewMailer(smtpmailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	var uploader transport.Uploader
	if cfg.Media.Endpoint != "" && cfg.Media.Bucket != "" {
		store, err := media.NewStore(ctx, media.Config{
			Endpoint:        cfg.Media.Endpoint,
			Region:          cfg.Media.Region,
			AccessKeyID:     cfg.Media.AccessKeyID,
			AccessKeySecret: cfg.Media.AccessKeySecret,
			Bucket:          cfg.Media.Bucket,
			PublicBaseURL:   cfg.Media.PublicBaseURL,
		})
		if err != nil {
			return err
		}
		uploader = store
	}

	tokens := app.NewTokenIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, 30*24*time.Hour))
	wallet := app.NewWalletService(users, purchases)
	projector := app.NewProjector(answers)
	matchSvc := app.NewMatchService(matches, questions, categories, wallet, projector)
	authSvc := app.NewAuthService(users, tokens)
	otpSvc := app.NewOTPService(otpStore, mailer, users, tokens, app.OTPConfig{
		Length:         cfg.OTP.Length,
		TTL:            config.TTLDuration(cfg.OTP.TTL, 10*time.Minute),
		Dev:            cfg.OTP.Dev,
		EchoInResponse: cfg.OTP.EchoInResponse,
	}, log)
	categorySvc := app.NewCategoryService(categories)
	questionSvc := app.NewQuestionService(questions)
	catalogSvc := app.NewCatalogService(products, wallet)

	sweeper := app.NewSweeper(matches, users, config.TTLDuration(cfg.Match.AbandonAfter, 24*time.Hour), log)
	scheduler, err := sweeper.Start(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = scheduler.Shutdown() }()

	fiberApp := transport.NewApp(transport.Deps{
		Auth:       authSvc,
		OTP:        otpSvc,
		Tokens:     tokens,
		Matches:    matchSvc,
		Wallet:     wallet,
		Catalog:    catalogSvc,
		Categories: categorySvc,
		Questions:  questionSvc,
		Media:      uploader,
		Log:        log,
	})

	go func() {
		log.Info("starting trivia match service", "port", finalPort)
		if err := fiberApp.Listen(":" + finalPort); err != nil {
			log.Error("server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	return fiberApp.ShutdownWithTimeout(5 * time.Second)
}
