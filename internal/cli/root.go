package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-studio/internal/app"
	"quiz-studio/internal/config"
	"quiz-studio/internal/export"
	"quiz-studio/internal/infra/file"
	"quiz-studio/internal/infra/memory"
	infraredis "quiz-studio/internal/infra/redis"
	"quiz-studio/internal/metrics"
	"quiz-studio/internal/persist"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	// .env is optional
	_ = godotenv.Load()
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "quiz-studio",
		Short:         "Author, take and export Arabic interactive quizzes",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&port, "port", os.Getenv("PORT"), "port to listen on (overrides config)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(newImportCmd(&configPath))
	cmd.AddCommand(newExportCmd(&configPath))
	cmd.AddCommand(newExportHTMLCmd(&configPath))
	cmd.AddCommand(newQuestionCmd(&configPath))
	cmd.AddCommand(newSettingsCmd(&configPath))
	cmd.AddCommand(newConfigCmd(&configPath))
	cmd.AddCommand(newResetCmd(&configPath))
	return cmd
}

// env is what every command needs: config, logger, storage and metrics.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	codec   *persist.Codec
	metrics *metrics.Metrics
	closers []func() error
}

func loadEnv(configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	e := &env{cfg: cfg, logger: logger, metrics: metrics.New()}
	store, err := e.openStore()
	if err != nil {
		return nil, err
	}
	e.codec = persist.NewCodec(store, cfg.Storage.Namespace, logger)
	return e, nil
}

func (e *env) openStore() (persist.Store, error) {
	cfg := e.cfg
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		e.closers = append(e.closers, client.Close)
		ttl := config.Duration(cfg.Redis.TTL, 0)
		store := infraredis.NewStore(client, cfg.Redis.Prefix, ttl)
		cacheTTL := config.Duration(cfg.Storage.CacheTTL, 5*time.Second)
		if cacheTTL <= 0 {
			return store, nil
		}
		return memory.NewCachedStore(store, cacheTTL), nil
	default:
		return file.NewStore(cfg.Storage.Dir)
	}
}

// service restores the stored quiz into a QuizService. The countdown is
// not started.
func (e *env) service(ctx context.Context) *app.QuizService {
	state, quizCfg, found := e.codec.Load(ctx)
	if !found {
		state.QuestionTime = e.cfg.Quiz.QuestionTime
		state.TimeLeft = state.QuestionTime
	}
	return app.NewQuizService(state, quizCfg, e.codec, app.Options{
		Tick:        config.Duration(e.cfg.Quiz.Tick, app.DefaultTick),
		AutoAdvance: config.Duration(e.cfg.Quiz.AutoAdvance, 0),
		RNG:         app.NewRNG(e.cfg.Quiz.Seed),
		Metrics:     e.metrics,
		Logger:      e.logger,
	})
}

// static builds the student document renderer with the configured timing.
func (e *env) static() *export.Static {
	s := export.NewStatic(export.WasmRuntime{
		WasmPath: e.cfg.Export.Wasm,
		GluePath: e.cfg.Export.WasmExec,
	})
	s.Tick = config.Duration(e.cfg.Quiz.Tick, app.DefaultTick)
	s.AutoAdvance = config.Duration(e.cfg.Quiz.AutoAdvance, 0)
	return s
}

func (e *env) Close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			e.logger.Warn("close failed", "err", err)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Log.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// withEnv wraps a command body with config loading and cleanup.
func withEnv(configPath *string, run func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		defer e.Close()
		return run(cmd, args, e)
	}
}
