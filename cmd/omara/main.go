package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/erazemk/omara/internal/api"
	"github.com/erazemk/omara/internal/assets"
	"github.com/erazemk/omara/internal/auth"
	"github.com/erazemk/omara/internal/classify"
	"github.com/erazemk/omara/internal/config"
	"github.com/erazemk/omara/internal/db"
	"github.com/erazemk/omara/internal/document"
	"github.com/erazemk/omara/internal/recommend"
	"github.com/erazemk/omara/internal/session"
	"github.com/erazemk/omara/internal/store"
	"github.com/erazemk/omara/internal/wardrobe"
	"github.com/erazemk/omara/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("omara", flag.ContinueOnError)

	// Flags default to the environment, so a set flag wins.
	fs.StringVar(&cfg.Storage.DBPath, "db", cfg.Storage.DBPath, "")
	fs.StringVar(&cfg.Storage.DBPath, "d", cfg.Storage.DBPath, "")

	fs.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "")
	fs.StringVar(&cfg.Server.Addr, "a", cfg.Server.Addr, "")

	fs.StringVar(&cfg.Server.LogFile, "log", cfg.Server.LogFile, "")
	fs.StringVar(&cfg.Server.LogFile, "l", cfg.Server.LogFile, "")

	fs.StringVar(&cfg.Storage.Backend, "storage", cfg.Storage.Backend, "")
	fs.StringVar(&cfg.Storage.Backend, "s", cfg.Storage.Backend, "")

	var importPath string
	fs.StringVar(&importPath, "import", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: omara [flags]

Flags:
  -d, -db <path>          SQLite database path (default: omara.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -s, -storage <backend>  wardrobe storage: sqlite or json (default: sqlite)
  -import <path>          copy wardrobes from a JSON document into the
                          configured storage, then exit
  -h, -help               show this help and exit

Other settings are read from OMARA_* environment variables or a .env file.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.Server.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	ctx := context.Background()

	repo, jwtSecret, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	if importPath != "" {
		n, err := importDocument(ctx, importPath, repo)
		if err != nil {
			slog.Error("import failed", "path", importPath, "error", err)
			closeStorage()
			os.Exit(1)
		}
		fmt.Printf("Imported %d wardrobes from %s into %s storage.\n", n, importPath, cfg.Storage.Backend)
		return
	}

	images, err := assets.New(cfg.Storage.ImageDir)
	if err != nil {
		slog.Error("failed to open image directory", "error", err)
		closeStorage()
		os.Exit(1)
	}

	classifier := classify.New(classify.Config{
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
		BaseURL: cfg.AI.BaseURL,
		Timeout: cfg.AI.Timeout,
	})
	if !classifier.Enabled() {
		slog.Info("image classification disabled, set OMARA_AI_API_KEY to enable")
	}

	sessions := session.NewManager(session.Config{
		Repository: repo,
		Weather: weather.New(weather.Config{
			URL:      cfg.Weather.URL,
			Timeout:  cfg.Weather.Timeout,
			Fallback: cfg.Weather.Fallback,
		}),
		Latitude:    cfg.Weather.Latitude,
		Longitude:   cfg.Weather.Longitude,
		Recommender: recommend.NewDefault(),
		TTL:         cfg.Auth.SessionTTL,
	})

	handler := api.NewRouter(api.Deps{
		Sessions:   sessions,
		Assets:     images,
		Classifier: classifier,
		JWTSecret:  jwtSecret,
		TokenTTL:   cfg.Auth.SessionTTL,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Server.Addr, "storage", cfg.Storage.Backend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		closeStorage()
		os.Exit(1)
	}

	slog.Info("server stopped, closing storage")
}

// openStorage opens the configured wardrobe backend and settles the token
// signing secret. The returned cleanup must be called on exit.
func openStorage(ctx context.Context, cfg *config.Config) (wardrobe.Repository, string, func(), error) {
	secret := cfg.Auth.JWTSecret

	switch cfg.Storage.Backend {
	case config.BackendJSON:
		slog.Info("document storage ready", "path", cfg.Storage.DocumentPath)
		if secret == "" {
			var err error
			if secret, err = auth.GenerateSecret(); err != nil {
				return nil, "", nil, err
			}
		}
		return document.Open(cfg.Storage.DocumentPath), secret, func() {}, nil

	default:
		database, err := db.Open(cfg.Storage.DBPath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("opening database: %w", err)
		}

		// Ensure schema exists (idempotent).
		if err := db.EnsureSchema(database); err != nil {
			database.Close()
			return nil, "", nil, fmt.Errorf("ensuring schema: %w", err)
		}
		slog.Info("database ready", "path", cfg.Storage.DBPath)

		// Load JWT secret from database (auto-generated on first run).
		if secret == "" {
			if secret, err = store.GetJWTSecret(ctx, database); err != nil {
				database.Close()
				return nil, "", nil, err
			}
		}

		cleanup := sync.OnceFunc(func() { database.Close() })
		return store.NewRepository(database), secret, cleanup, nil
	}
}

// importDocument copies every wardrobe in a JSON document into repo,
// replacing wardrobes of the same name. Other wardrobes are kept. A
// malformed document is an error and the file is left untouched.
func importDocument(ctx context.Context, path string, repo wardrobe.Repository) (int, error) {
	src, err := document.Read(path)
	if err != nil {
		return 0, fmt.Errorf("reading import file: %w", err)
	}

	for name, items := range src {
		if err := repo.SaveUserStore(ctx, name, wardrobe.StoreFromItems(items)); err != nil {
			return 0, fmt.Errorf("importing wardrobe %q: %w", name, err)
		}
		slog.Info("imported wardrobe", "user", name, "items", len(items))
	}
	return len(src), nil
}
