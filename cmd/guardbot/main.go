package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "guardbot",
		Usage:   "community moderation daemon (keeps the peace)",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "gateway-host",
			Usage:   "scheme, hostname, and port of the platform gateway event stream",
			Value:   "wss://gateway.example.com",
			EnvVars: []string{"GUARDBOT_GATEWAY_HOST"},
		},
		&cli.StringFlag{
			Name:    "api-host",
			Usage:   "scheme, hostname, and port of the platform REST API",
			Value:   "https://api.example.com",
			EnvVars: []string{"GUARDBOT_API_HOST"},
		},
		&cli.StringFlag{
			Name:    "bot-token",
			Usage:   "authentication token for the moderation account",
			EnvVars: []string{"GUARDBOT_TOKEN", "DISCORD_TOKEN"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
	}

	return app.Run(args)
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the service",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "sets-json-path",
			Usage:   "file path of JSON file containing the trusted-account set",
			Value:   "trusted-accounts.json",
			EnvVars: []string{"GUARDBOT_SETS_JSON_PATH"},
		},
		&cli.StringFlag{
			Name:    "redis-url",
			Usage:   "redis connection URL; enables shared counters, windows, and stream cursor",
			EnvVars: []string{"GUARDBOT_REDIS_URL"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			Value:   ":3989",
			EnvVars: []string{"GUARDBOT_METRICS_LISTEN"},
		},
		&cli.Uint64Flag{
			Name:    "self-account-id",
			Usage:   "account id of the moderation account itself (its messages are ignored)",
			EnvVars: []string{"GUARDBOT_SELF_ACCOUNT_ID"},
		},
		&cli.IntFlag{
			Name:    "api-rate-limit",
			Usage:   "max number of REST requests per second to the platform",
			Value:   20,
			EnvVars: []string{"GUARDBOT_API_RATE_LIMIT"},
		},
		&cli.IntFlag{
			Name:    "parallelism",
			Usage:   "number of concurrent event-processing workers",
			Value:   8,
			EnvVars: []string{"GUARDBOT_PARALLELISM"},
		},
	},
	Action: func(cctx *cli.Context) error {
		ctx := context.Background()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
		slog.SetDefault(logger)

		// Enable OTLP HTTP exporter
		// For relevant environment variables:
		// https://pkg.go.dev/go.opentelemetry.io/otel/exporters/otlp/otlptrace#readme-environment-variables
		// At a minimum, you need to set
		// OTEL_EXPORTER_OTLP_ENDPOINT=http://localhost:4318
		if ep := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); ep != "" {
			slog.Info("setting up trace exporter", "endpoint", ep)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			exp, err := otlptracehttp.New(ctx)
			if err != nil {
				log.Fatal("failed to create trace exporter", "error", err)
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := exp.Shutdown(ctx); err != nil {
					slog.Error("failed to shutdown trace exporter", "error", err)
				}
			}()

			tp := tracesdk.NewTracerProvider(
				tracesdk.WithBatcher(exp),
				tracesdk.WithResource(resource.NewWithAttributes(
					semconv.SchemaURL,
					semconv.ServiceNameKey.String("guardbot"),
					attribute.String("env", os.Getenv("ENVIRONMENT")),         // DataDog
					attribute.String("environment", os.Getenv("ENVIRONMENT")), // Others
					attribute.Int64("ID", 1),
				)),
			)
			otel.SetTracerProvider(tp)
		}

		srv, err := NewServer(Config{
			GatewayHost:  cctx.String("gateway-host"),
			APIHost:      cctx.String("api-host"),
			BotToken:     cctx.String("bot-token"),
			SetsFileJSON: cctx.String("sets-json-path"),
			RedisURL:     cctx.String("redis-url"),
			SelfID:       cctx.Uint64("self-account-id"),
			APIRateLimit: cctx.Int("api-rate-limit"),
			Parallelism:  cctx.Int("parallelism"),
			Logger:       logger,
		})
		if err != nil {
			return err
		}

		go func() {
			if err := srv.RunMetrics(cctx.String("metrics-listen")); err != nil {
				slog.Error("failed to start metrics endpoint", "error", err)
				panic(err)
			}
		}()

		return srv.Run(ctx)
	},
}
