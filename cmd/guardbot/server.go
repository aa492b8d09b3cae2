package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/R1das67/mein-nc-bot/guard/auditor"
	"github.com/R1das67/mein-nc-bot/guard/consumer"
	"github.com/R1das67/mein-nc-bot/guard/countstore"
	"github.com/R1das67/mein-nc-bot/guard/enforcer"
	"github.com/R1das67/mein-nc-bot/guard/engine"
	"github.com/R1das67/mein-nc-bot/guard/platform"
	"github.com/R1das67/mein-nc-bot/guard/rules"
	"github.com/R1das67/mein-nc-bot/guard/setstore"
	"github.com/R1das67/mein-nc-bot/guard/windowstore"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	logger   *slog.Logger
	engine   *engine.Engine
	consumer *consumer.GatewayConsumer
}

type Config struct {
	GatewayHost  string
	APIHost      string
	BotToken     string
	SetsFileJSON string
	RedisURL     string
	SelfID       uint64
	APIRateLimit int
	Parallelism  int
	Logger       *slog.Logger
}

func NewServer(config Config) (*Server, error) {

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	client := platform.NewClient(config.APIHost, config.BotToken, logger, config.APIRateLimit)

	sets := setstore.NewMemSetStore()
	if config.SetsFileJSON != "" {
		if err := sets.LoadFromFileJSON(config.SetsFileJSON); err != nil {
			return nil, fmt.Errorf("initializing in-process setstore: %w", err)
		}
		logger.Info("loaded trusted accounts from JSON file",
			"path", config.SetsFileJSON,
			"count", sets.SetSize(setstore.TrustedAccounts),
		)
	}

	var counters countstore.CountStore
	var windows windowstore.WindowStore
	var rdb *redis.Client
	if config.RedisURL != "" {
		cnt, err := countstore.NewRedisCountStore(config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("initializing redis countstore: %w", err)
		}
		counters = cnt
		win, err := windowstore.NewRedisWindowStore(config.RedisURL, rules.InviteWindow, rules.InviteWindowCap)
		if err != nil {
			return nil, fmt.Errorf("initializing redis windowstore: %w", err)
		}
		windows = win

		// cursor-persist connection
		opt, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			return nil, err
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(context.TODO()).Err(); err != nil {
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
	} else {
		counters = countstore.NewMemCountStore()
		windows = windowstore.NewMemWindowStore(rules.InviteWindow, rules.InviteWindowCap)
	}

	eng := engine.Engine{
		Logger:   logger,
		Rules:    rules.DefaultRules(),
		Trusted:  sets,
		Counters: counters,
		Windows:  windows,
		Auditor:  auditor.NewCorrelator(client, logger),
		Actuator: enforcer.NewActuator(client, logger),
		SelfID:   platform.Snowflake(config.SelfID),
	}

	gc := consumer.GatewayConsumer{
		Parallelism: config.Parallelism,
		Logger:      logger,
		RedisClient: rdb,
		Engine:      &eng,
		Host:        config.GatewayHost,
		Token:       config.BotToken,
	}

	s := &Server{
		logger:   logger,
		engine:   &eng,
		consumer: &gc,
	}
	return s, nil
}

func (s *Server) RunMetrics(listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("guardbot\n"))
	})
	srv := &http.Server{
		Addr:        listen,
		Handler:     mux,
		ReadTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) Run(ctx context.Context) error {
	go func() {
		if err := s.consumer.RunPersistCursor(ctx); err != nil {
			s.logger.Error("cursor routine failed", "err", err)
		}
	}()
	return s.consumer.Run(ctx)
}
