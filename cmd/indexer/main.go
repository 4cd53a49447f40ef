package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kingxl111/search-engine/internal/index"
	"github.com/kingxl111/search-engine/internal/source"
	"github.com/kingxl111/search-engine/internal/tokenizer"
	"github.com/kingxl111/search-engine/pkg/config"
	"github.com/kingxl111/search-engine/pkg/kafka"
	"github.com/kingxl111/search-engine/pkg/logger"
	"github.com/kingxl111/search-engine/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting indexer",
		"source", cfg.Index.Source,
		"output", cfg.Index.Path,
	)

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		slog.Error("failed to create tokenizer", "error", err)
		os.Exit(1)
	}

	builder := index.NewBuilder(tok,
		index.WithChunkSize(cfg.Index.ChunkSize),
		index.WithOptimize(cfg.Index.Optimize),
		index.WithMetrics(m),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var stats index.BuildStats
	switch cfg.Index.Source {
	case "file":
		stats, err = builder.BuildFromSource(ctx, source.NewFileSource(cfg.Index.SourcePath))

	case "postgres":
		var src *source.PostgresSource
		src, err = source.NewPostgresSource(cfg.Postgres)
		if err == nil {
			defer src.Close()
			stats, err = builder.BuildFromSource(ctx, src)
		}

	case "mongo":
		var src *source.MongoSource
		src, err = source.NewMongoSource(ctx, cfg.Mongo)
		if err == nil {
			defer src.Close(context.Background())
			stats, err = builder.BuildFromSource(ctx, src)
		}

	case "kafka":
		stats, err = consumeFromKafka(ctx, cfg, builder)

	default:
		slog.Error("unknown index source", "source", cfg.Index.Source)
		os.Exit(1)
	}
	if err != nil && ctx.Err() == nil {
		slog.Error("build failed", "error", err)
		os.Exit(1)
	}

	ix := builder.Index()
	if cfg.Index.ValidateAfter {
		if err := ix.Validate(); err != nil {
			slog.Error("built index failed validation", "error", err)
			os.Exit(1)
		}
	}

	if err := ix.SaveToFile(cfg.Index.Path); err != nil {
		m.IndexSavesTotal.WithLabelValues("error").Inc()
		slog.Error("failed to save index", "path", cfg.Index.Path, "error", err)
		os.Exit(1)
	}
	m.IndexSavesTotal.WithLabelValues("ok").Inc()

	slog.Info("index written",
		"path", cfg.Index.Path,
		"documents", ix.DocumentCount(),
		"terms", ix.TermCount(),
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"docs_per_second", fmt.Sprintf("%.1f", stats.DocsPerSecond),
	)

	if metricsShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
}

// kafkaDocument is the message payload on the document topic.
type kafkaDocument struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// consumeFromKafka indexes documents from the topic until the process is
// signalled to stop, then hands back so the accumulated index gets saved.
func consumeFromKafka(ctx context.Context, cfg *config.Config, builder *index.Builder) (index.BuildStats, error) {
	handler := func(ctx context.Context, key, value []byte) error {
		doc, err := kafka.DecodeJSON[kafkaDocument](value)
		if err != nil {
			return err
		}
		builder.IndexOne(doc.Title, doc.URL, doc.Content)
		return nil
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.DocumentTopic, handler)
	slog.Info("consuming documents from kafka",
		"topic", cfg.Kafka.DocumentTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil {
		return index.BuildStats{}, err
	}
	return builder.Finish(), nil
}
