// Command order-reaper abandons stuck pending orders in a MySQL queue.
//
// It wraps mysql.Reaper for use in cron/CronJobs when the application
// itself should not decide about giving up on orders.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/afterten/orderbox"
	"github.com/afterten/orderbox/mysql"
)

const exitUsage = 2

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

func main() {
	var (
		dsn         string
		tablePrefix string
		maxAttempts int
		maxAge      time.Duration
		checkEvery  time.Duration
		limit       int
		lockName    string
		once        bool
		verbose     bool
	)

	flag.StringVar(&dsn, "dsn", "", "MySQL DSN, e.g. user:pass@tcp(host:3306)/db?parseTime=true")
	flag.StringVar(&tablePrefix, "table-prefix", "", "Table name prefix")
	flag.IntVar(&maxAttempts, "max-attempts", 0, "Abandon orders with at least this many attempts (0 disables)")
	flag.DurationVar(&maxAge, "max-age", 0, "Abandon orders older than this duration (0 disables)")
	flag.DurationVar(&checkEvery, "check-every", time.Hour, "How often to run the reap")
	flag.IntVar(&limit, "limit", 0, "Max rows removed per run (0 uses default)")
	flag.StringVar(&lockName, "lock-name", "", "Advisory lock name (optional)")
	flag.BoolVar(&once, "once", false, "Run once and exit")
	flag.BoolVar(&verbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if dsn == "" {
		fmt.Fprintln(os.Stderr, "dsn is required")
		flag.Usage()
		os.Exit(exitUsage)
	}

	if err := run(dsn, tablePrefix, maxAttempts, limit, maxAge, checkEvery, lockName, once, verbose); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func run(
	dsn, tablePrefix string,
	maxAttempts, limit int,
	maxAge, checkEvery time.Duration,
	lockName string,
	once, verbose bool,
) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	logger := stdLogger{logger: log.New(os.Stdout, "", log.LstdFlags), verbose: verbose}
	cfg := mysql.ReaperConfig{
		TablePrefix: tablePrefix,
		MaxAttempts: maxAttempts,
		MaxAge:      maxAge,
		CheckEvery:  checkEvery,
		Limit:       limit,
		LockName:    lockName,
		Clock:       orderbox.SystemClock{},
		Logger:      logger,
	}
	reaper, err := mysql.NewReaper(db, cfg)
	if err != nil {
		return fmt.Errorf("init reaper: %w", err)
	}

	ctx := context.Background()
	if once {
		result, err := reaper.Ensure(ctx)
		if err != nil {
			return fmt.Errorf("reap: %w", err)
		}
		if result.Abandoned > 0 {
			logger.Info("reap done", "abandoned", result.Abandoned)
		}

		return nil
	}

	if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run reaper: %w", err)
	}

	return nil
}
