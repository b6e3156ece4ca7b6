package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tawjihai/tawjih/internal/assessment"
	"github.com/tawjihai/tawjih/internal/counselor"
	"github.com/tawjihai/tawjih/internal/dashboard"
	"github.com/tawjihai/tawjih/internal/handler"
	appI18n "github.com/tawjihai/tawjih/internal/i18n"
	"github.com/tawjihai/tawjih/internal/llm"
	"github.com/tawjihai/tawjih/internal/matching"
	"github.com/tawjihai/tawjih/internal/model"
	"github.com/tawjihai/tawjih/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tawjih",
		Short: "Career guidance service for high school students",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func catalogFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("seed", true, "Load the sample catalog and demo accounts")
	f.StringSliceP("catalog", "c", nil, "Paths to catalog JSON files to import (repeatable)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	catalogFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringP("lang", "l", "en", "Default language (en, fr, ar)")
	f.String("session-key", "", "Session cookie signing key (random if empty)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.Uint64("rand-seed", 0, "Seed for placeholder scores (0 = time based)")
	f.Int("max-students", dashboard.DefaultMaxStudents, "Maximum students listed on the teacher dashboard")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty = keyword replies)")
	f.String("llm-key", "", "API key for LLM")
	f.String("llm-model", "gpt-4o-mini", "LLM model name")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the reference catalog as JSON",
		RunE:  runExport,
	}
	catalogFlags(cmd)
	cmd.Flags().StringP("output", "o", "-", "Output file path (- for stdout)")
	return cmd
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("TAWJIH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("tawjih")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/tawjih")
	v.AddConfigPath("/etc/tawjih")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openStore builds the in-memory store with the sample data and any catalog files.
func openStore(v *viper.Viper, clock model.Clock) (*store.Store, error) {
	s := store.New(store.WithClock(clock))
	if v.GetBool("seed") {
		if err := s.Seed(); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
	}
	if err := loadCatalogs(s, v.GetStringSlice("catalog")); err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	return s, nil
}

func loadCatalogs(s *store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		res, err := s.ImportCatalogFile(filepath.Base(path), data)
		if err != nil {
			return err
		}
		if res.Duplicate {
			slog.Info("catalog file already imported, skipping", "path", path)
			continue
		}
		slog.Info("imported catalog", "path", path, "quizzes", res.Quizzes, "careers", res.Careers)
	}
	return nil
}

func newRand(seed uint64) model.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return model.LockedRand(rand.New(rand.NewPCG(seed, seed)))
}

// memberResponder returns the LLM client when an endpoint is configured and
// reachable, and the keyword responder otherwise.
func memberResponder(ctx context.Context, v *viper.Viper) counselor.Responder {
	url := v.GetString("llm-url")
	if url == "" {
		slog.Info("no LLM endpoint configured, using keyword replies")
		return counselor.NewKeywordResponder()
	}
	client := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
	if err := client.Ping(ctx); err != nil {
		slog.Warn("LLM health check failed, using keyword replies", "url", url, "error", err)
		return counselor.NewKeywordResponder()
	}
	slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
	return client
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	clock := model.Clock(time.Now)
	s, err := openStore(v, clock)
	if err != nil {
		return err
	}

	rng := newRand(v.GetUint64("rand-seed"))
	svc := handler.Services{
		Assessment: assessment.New(s, rng, clock),
		Matching:   matching.New(s, rng, clock),
		Dashboard:  dashboard.New(s, rng, clock, dashboard.WithMaxStudents(v.GetInt("max-students"))),
		Counselor: counselor.NewService(s,
			memberResponder(cmd.Context(), v),
			counselor.NewRandomResponder(rng),
		),
	}

	cfg := model.AppConfig{
		DefaultLanguage: lang,
		SecureCookies:   v.GetBool("secure-cookies"),
		SessionKey:      v.GetString("session-key"),
	}
	h, err := handler.New(s, svc, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"users", s.UserCount(),
		"secure_cookies", cfg.SecureCookies,
		"max_students", v.GetInt("max-students"),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	setupLogging(v)

	s, err := openStore(v, time.Now)
	if err != nil {
		return err
	}

	export := s.Snapshot()
	now := time.Now().UTC()
	export.ExportedAt = &now

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	slog.Info("exported catalog", "quizzes", len(export.Quizzes), "careers", len(export.Careers))
	return nil
}
