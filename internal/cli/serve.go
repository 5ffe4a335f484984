package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/ignite/vcfbot/internal/config"
	"github.com/ignite/vcfbot/internal/phone"
	"github.com/ignite/vcfbot/internal/pkg/distlock"
	"github.com/ignite/vcfbot/internal/replies"
	"github.com/ignite/vcfbot/internal/repository/postgres"
	"github.com/ignite/vcfbot/internal/service/session"
	"github.com/ignite/vcfbot/internal/service/upload"
	"github.com/ignite/vcfbot/internal/storage"
	"github.com/ignite/vcfbot/internal/telegram"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot",
	Long: `Run the bot in poll or webhook mode (telegram.mode).

Poll mode long-polls getUpdates. With several replicas, only the holder of
the poller lock polls; the lock lives in Redis when REDIS_URL is set, else
in Postgres when DATABASE_URL is set, else in process memory.

Webhook mode registers <webhook_url>/telegram/webhook/<secret> with Telegram
and serves it. /healthz is served in both modes.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  vcfbot (cmd/vcfbot serve)                                 ║")
	log.Println("║  Telegram TXT/VCF conversion bot                           ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policy := phone.NewPolicy(cfg.Phone.CountryCode)
	rdr, err := replies.New()
	if err != nil {
		return fmt.Errorf("failed to load reply templates: %w", err)
	}
	client := telegram.NewClient(cfg.Telegram)

	opts := session.Options{
		Gateway:   telegram.NewGateway(client),
		Replies:   rdr,
		Uploads:   upload.NewAggregator(uploadConfig(cfg.Upload), policy),
		SendDelay: cfg.Delivery.SendDelay(),
	}

	// Output archive
	if cfg.Storage.Type != "none" {
		archive, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		opts.Archiver = archive
		log.Printf("Output archive enabled: %s", archive)
	} else {
		log.Println("Output archive disabled")
	}

	// Conversion history
	var db *sql.DB
	if cfg.History.Enabled {
		db, err = openDatabase(ctx, cfg.History.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Recorder = postgres.NewHistoryRepo(db)
		log.Printf("Conversion history enabled: %s", dsnHost(cfg.History.DatabaseURL))
	} else {
		log.Println("Conversion history disabled (DATABASE_URL not set)")
	}

	registry := session.NewRegistry(ctx, session.NewMachine(opts), session.RegistryConfig{})
	router := telegram.NewRouter(client, registry, cfg.Upload.MaxFileBytes)

	secret := ""
	if cfg.Telegram.Mode == config.ModeWebhook {
		secret = cfg.Telegram.WebhookSecret
	}
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           telegram.NewWebhookHandler(router, secret, registry).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	switch cfg.Telegram.Mode {
	case config.ModeWebhook:
		runErr = serveWebhook(ctx, client, cfg.Telegram, serverErr)
	default:
		runErr = servePoll(ctx, client, router, db, cfg, serverErr)
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	registry.Close()
	log.Println("Server stopped")
	return runErr
}

func serveWebhook(ctx context.Context, client *telegram.Client, cfg config.TelegramConfig, serverErr <-chan error) error {
	if cfg.WebhookURL != "" {
		url := strings.TrimRight(cfg.WebhookURL, "/") + "/telegram/webhook/" + cfg.WebhookSecret
		if err := client.SetWebhook(ctx, url, cfg.WebhookSecret); err != nil {
			return fmt.Errorf("failed to register webhook: %w", err)
		}
		log.Printf("Webhook registered at %s/telegram/webhook/...", strings.TrimRight(cfg.WebhookURL, "/"))
	} else {
		log.Println("Warning: telegram.webhook_url not set, assuming the webhook is already registered")
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}
}

func servePoll(ctx context.Context, client *telegram.Client, router *telegram.Router, db *sql.DB, cfg *config.Config, serverErr <-chan error) error {
	rdb := openRedis(ctx, cfg.Redis.URL)
	if rdb != nil {
		defer rdb.Close()
	}
	lock := distlock.NewLock(rdb, db, telegram.PollLockKey, cfg.Telegram.PollLockTTL())
	poller := telegram.NewPoller(client, router, lock, cfg.Telegram)

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pollErr := make(chan error, 1)
	go func() { pollErr <- poller.Run(pollCtx) }()

	select {
	case err := <-pollErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("poller stopped: %w", err)
		}
		return nil
	case err := <-serverErr:
		cancel()
		<-pollErr
		return fmt.Errorf("server error: %w", err)
	}
}

// openDatabase connects to Postgres with the pool limits used across the
// deployment and pings it before returning.
func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(3)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database (%s): %w", dsnHost(dsn), err)
	}
	return db, nil
}

// openRedis returns a connected client, or nil when url is empty or the
// server does not answer.
func openRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		log.Println("Redis not configured (REDIS_URL not set)")
		return nil
	}
	var client *redis.Client
	opts, err := redis.ParseURL(url)
	if err != nil {
		client = redis.NewClient(&redis.Options{Addr: url})
	} else {
		client = redis.NewClient(opts)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		client.Close()
		return nil
	}
	log.Println("Redis connected (poller lock)")
	return client
}

// dsnHost returns the host part of a Postgres URL for logging.
func dsnHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}
