package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hospital-portal/internal/auth"
	"hospital-portal/internal/config"
	"hospital-portal/internal/core"
	"hospital-portal/internal/db"
	httpserver "hospital-portal/internal/http"
	"hospital-portal/internal/llm"
	"hospital-portal/internal/memstore"
	"hospital-portal/internal/storage"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log, err := cfg.Logger()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	shutdownTracing, err := initTracing(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	blobs, err := openBlobs(cfg)
	if err != nil {
		return err
	}

	if cfg.OpenAIKey == "" {
		log.Warn("OPENAI_API_KEY is not set; the chat assistant will answer with errors")
	}
	model := llm.NewOpenAIClient(llm.Config{
		APIKey:       cfg.OpenAIKey,
		BaseURL:      cfg.OpenAIBaseURL,
		ChatModel:    cfg.ChatModel,
		SummaryModel: cfg.SummaryModel,
	})
	var summaryModel llm.Client
	if cfg.OpenAIKey != "" {
		summaryModel = model
	}

	srv, err := httpserver.NewServer(httpserver.Config{
		Store:         b.Store,
		Auth:          auth.NewService(b.Accounts, auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL)),
		Chat:          core.NewChatService(model, b.Store, log),
		Summarizer:    core.NewSummarizer(summaryModel, log),
		Blobs:         blobs,
		Notifier:      b.Notifier,
		Log:           log,
		MessageCap:    cfg.MessageCap,
		SecureCookies: cfg.SecureCookies,
	})
	if err != nil {
		return fmt.Errorf("failed to construct server: %w", err)
	}

	hs := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", hs.Addr).Info("listening")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := hs.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// backend is the content and account storage selected by the config.
type backend struct {
	Store    core.Store
	Accounts core.AccountStore
	Notifier core.ChangeNotifier
	DB       *sql.DB
}

func (b *backend) Close() {
	if b.DB != nil {
		_ = b.DB.Close()
	}
}

// openBackend connects to Postgres and applies the schema.  Without a
// DATABASE_URL everything is kept in memory and lost on exit.
func openBackend(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*backend, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set; content is kept in memory")
		store, err := memstore.New()
		if err != nil {
			return nil, err
		}
		return &backend{Store: store, Accounts: store, Notifier: core.NopNotifier{}}, nil
	}

	conn, err := openDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	gdb, err := db.OpenGorm(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &backend{
		Store:    db.NewRepository(conn),
		Accounts: db.NewAccountRepository(gdb),
		Notifier: db.NewNotifier(conn, cfg.NotifyChannel, log),
		DB:       conn,
	}, nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}

func openBlobs(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageDriver {
	case config.StorageS3:
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.S3Region)})
		if err != nil {
			return nil, fmt.Errorf("aws session: %w", err)
		}
		return storage.NewS3(sess, cfg.S3Bucket, cfg.S3Prefix), nil
	case config.StorageMemory:
		return storage.NewMemory(), nil
	default:
		return storage.NewLocal(cfg.StoragePath)
	}
}
