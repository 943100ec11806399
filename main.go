package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/tvorozhniki/cliparse"
	"github.com/danielhkuo/tvorozhniki/db"
	"github.com/danielhkuo/tvorozhniki/handlers"
	"github.com/danielhkuo/tvorozhniki/metrics"
	"github.com/danielhkuo/tvorozhniki/middleware"
	"github.com/danielhkuo/tvorozhniki/router"
	"github.com/danielhkuo/tvorozhniki/ttstore"
)

func main() {
	var err error

	if err := cliparse.LoadEnv(); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	store, closer, err := openStore(context.Background(), cfg)
	if err != nil {
		slog.Error("vote store unavailable", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer closer.Close()
	slog.Info("Vote store ready", "type", cfg.DatabaseType)

	// Create router
	mux := router.NewRouter(store, metrics.New())

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}

// openStore connects the configured backend and prepares its schema.
func openStore(ctx context.Context, cfg cliparse.Config) (handlers.VoteStore, io.Closer, error) {
	if cfg.DatabaseType == "tarantool" {
		conn, err := ttstore.Connect(ctx, ttstore.Config{
			Address:  cfg.DatabaseURL,
			User:     cfg.TTUser,
			Password: cfg.TTPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connection to tarantool refused: %w", err)
		}
		store := ttstore.NewVoteStore(conn)
		if err := store.EnsureSchema(ctx); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return store, conn, nil
	}

	dialect, err := db.ParseDialect(cfg.DatabaseType)
	if err != nil {
		return nil, nil, err
	}

	dbConn, err := sql.Open(string(dialect), cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	if dialect == db.SQLite {
		// One writer at a time
		dbConn.SetMaxOpenConns(1)
	}

	// Verify connection
	if err := dbConn.PingContext(ctx); err != nil {
		dbConn.Close()
		return nil, nil, fmt.Errorf("database ping failed: %w", err)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn, dialect); err != nil {
		dbConn.Close()
		return nil, nil, err
	}

	return db.NewVoteStore(dbConn), dbConn, nil
}
