// Command order-sync drains a pending order queue against an orders HTTP
// endpoint. It polls the queue, posts each due order and reschedules
// failures with exponential backoff, the same loop a client app embeds
// in-process.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/afterten/orderbox"
	"github.com/afterten/orderbox/mysql"
	"github.com/afterten/orderbox/postgres"
)

const (
	exitUsage = 2

	maxResponseSample = 512
)

type stdLogger struct {
	logger  *log.Logger
	verbose bool
}

func (l stdLogger) Debug(msg string, args ...any) {
	if !l.verbose {
		return
	}
	l.logger.Printf("DEBUG %s %s", msg, formatArgs(args))
}

func (l stdLogger) Info(msg string, args ...any) {
	l.logger.Printf("INFO %s %s", msg, formatArgs(args))
}

func (l stdLogger) Warn(msg string, args ...any) {
	l.logger.Printf("WARN %s %s", msg, formatArgs(args))
}

func (l stdLogger) Error(msg string, args ...any) {
	l.logger.Printf("ERROR %s %s", msg, formatArgs(args))
}

func formatArgs(args []any) string {
	if len(args) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(args))
	for i := 0; i < len(args); i += 2 {
		key := args[i]
		val := any("<missing>")
		if i+1 < len(args) {
			val = args[i+1]
		}
		pairs = append(pairs, fmt.Sprintf("%v=%v", key, val))
	}

	return strings.Join(pairs, " ")
}

type syncConfig struct {
	dsn           string
	driver        string
	tablePrefix   string
	table         string
	endpoint      string
	token         string
	poll          time.Duration
	submitTimeout time.Duration
	backoffBase   time.Duration
	backoffCap    time.Duration
	maxAttempts   int
	once          bool
	verbose       bool
}

func parseFlags(args []string) (syncConfig, error) {
	var cfg syncConfig

	fs := flag.NewFlagSet("order-sync", flag.ContinueOnError)
	fs.StringVar(&cfg.dsn, "dsn", "", "Database DSN")
	fs.StringVar(&cfg.driver, "driver", "mysql", "Queue database driver: mysql or postgres")
	fs.StringVar(&cfg.tablePrefix, "table-prefix", "", "Table name prefix (mysql)")
	fs.StringVar(&cfg.table, "table", "", "Pending orders table name (postgres)")
	fs.StringVar(&cfg.endpoint, "endpoint", "", "Orders HTTP endpoint")
	fs.StringVar(&cfg.token, "token", "", "Bearer token for the orders endpoint (optional)")
	fs.DurationVar(&cfg.poll, "poll", 15*time.Second, "Queue poll interval")
	fs.DurationVar(&cfg.submitTimeout, "submit-timeout", 30*time.Second, "Per-order submit timeout")
	fs.DurationVar(&cfg.backoffBase, "backoff-base", orderbox.DefaultBackoffBase, "Base retry delay")
	fs.DurationVar(&cfg.backoffCap, "backoff-cap", orderbox.DefaultBackoffCap, "Maximum retry delay")
	fs.IntVar(&cfg.maxAttempts, "max-attempts", 0, "Abandon orders after this many attempts (0 retries forever)")
	fs.BoolVar(&cfg.once, "once", false, "Run a single sweep and exit")
	fs.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return syncConfig{}, err
	}

	return cfg, validateConfig(cfg)
}

func validateConfig(cfg syncConfig) error {
	if cfg.dsn == "" {
		return errors.New("dsn is required")
	}
	if cfg.endpoint == "" {
		return errors.New("endpoint is required")
	}
	if cfg.driver != "mysql" && cfg.driver != "postgres" {
		return fmt.Errorf("unsupported driver %q", cfg.driver)
	}
	if cfg.maxAttempts < 0 {
		return errors.New("max-attempts must be non-negative")
	}

	return nil
}

// httpSubmitter posts orders as JSON. The client reference travels in an
// idempotency header so a retried delivery of an already accepted order
// is deduplicated server-side.
type httpSubmitter struct {
	client   *http.Client
	endpoint string
	token    string
}

type orderPayload struct {
	OutletID     string          `json:"outlet_id"`
	EmployeeName string          `json:"employee_name"`
	ClientRef    string          `json:"client_ref"`
	Items        json.RawMessage `json:"items"`
}

func (s *httpSubmitter) Submit(ctx context.Context, order orderbox.PendingOrder) error {
	body, err := json.Marshal(orderPayload{
		OutletID:     order.OutletID,
		EmployeeName: order.EmployeeName,
		ClientRef:    order.ClientRef,
		Items:        order.Items,
	})
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", order.ClientRef)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sample, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSample))

		return fmt.Errorf("orders endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(sample)))
	}

	return nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	if err := run(cfg); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func run(cfg syncConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := stdLogger{logger: log.New(os.Stdout, "", log.LstdFlags), verbose: cfg.verbose}

	queue, cleanup, err := openQueue(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	submitter := &httpSubmitter{
		client:   &http.Client{Timeout: cfg.submitTimeout},
		endpoint: cfg.endpoint,
		token:    cfg.token,
	}

	opts := []orderbox.SchedulerOption{
		orderbox.WithPollInterval(cfg.poll),
		orderbox.WithSubmitTimeout(cfg.submitTimeout),
		orderbox.WithBackoff(orderbox.ExponentialBackoff(cfg.backoffBase, cfg.backoffCap)),
		orderbox.WithLogger(logger),
	}
	if cfg.maxAttempts > 0 {
		opts = append(opts, orderbox.WithFailureClassifier(orderbox.AbandonAfter(cfg.maxAttempts)))
	}

	scheduler := orderbox.NewScheduler(queue, submitter, opts...)

	if cfg.once {
		processed, err := scheduler.SweepOnce(ctx)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		logger.Info("sweep done", "processed", processed)

		return nil
	}

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run scheduler: %w", err)
	}

	return nil
}

func openQueue(ctx context.Context, cfg syncConfig) (orderbox.Queue, func(), error) {
	switch cfg.driver {
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres pool: %w", err)
		}
		opts := []postgres.Option{}
		if cfg.table != "" {
			opts = append(opts, postgres.WithTable(cfg.table))
		}
		if err := postgres.EnsureSchema(ctx, pool, opts...); err != nil {
			pool.Close()

			return nil, nil, err
		}
		queue, err := postgres.NewQueue(pool, opts...)
		if err != nil {
			pool.Close()

			return nil, nil, err
		}

		return queue, pool.Close, nil
	default:
		db, err := sql.Open("mysql", cfg.dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		opts := []mysql.Option{mysql.WithTablePrefix(cfg.tablePrefix)}
		if err := mysql.Migrate(ctx, db, opts...); err != nil {
			_ = db.Close()

			return nil, nil, err
		}
		store, err := mysql.NewStore(db, opts...)
		if err != nil {
			_ = db.Close()

			return nil, nil, err
		}

		return store, func() { _ = db.Close() }, nil
	}
}
