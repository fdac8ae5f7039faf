// Package bootstrap wires infrastructure into the use cases shared by
// the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ramay1243/docscan/internal/config"
	"github.com/ramay1243/docscan/internal/core/analyze"
	"github.com/ramay1243/docscan/internal/core/classify"
	"github.com/ramay1243/docscan/internal/core/domain"
	"github.com/ramay1243/docscan/internal/core/ports"
	"github.com/ramay1243/docscan/internal/core/usecase"
	"github.com/ramay1243/docscan/internal/infrastructure/extractor"
	"github.com/ramay1243/docscan/internal/infrastructure/llm/openaiproxy"
	natsqueue "github.com/ramay1243/docscan/internal/infrastructure/queue/nats"
	"github.com/ramay1243/docscan/internal/infrastructure/notify"
	"github.com/ramay1243/docscan/internal/infrastructure/quota"
	"github.com/ramay1243/docscan/internal/infrastructure/repository/postgres"
	"github.com/ramay1243/docscan/internal/infrastructure/resilience"
	"github.com/ramay1243/docscan/internal/infrastructure/storage/localfs"
	"github.com/ramay1243/docscan/internal/report"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Repo     ports.TaskRepository
	TaskUC   *usecase.CreateTaskUseCase
	Process  ports.TaskProcessor
	Compare  ports.ComparisonService
	Renderer *report.Renderer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewTaskRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	runner := resilience.NewRunner(resilience.Options{})

	queue, err := natsqueue.New(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		Runner: runner,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	completion := openaiproxy.New(openaiproxy.Config{
		BaseURL:           cfg.LLMBaseURL,
		APIKey:            cfg.LLMAPIKey,
		Model:             cfg.LLMModel,
		Temperature:       cfg.LLMTemperature,
		Timeout:           120 * time.Second,
		RequestsPerMinute: cfg.LLMRequestsPerMinute,
	}, runner)
	ai := analyze.NewAdapter(completion, cfg.LLMMaxInputChars, cfg.LLMMaxOutputTokens)

	classifier := classify.NewTable(classifierExtensions(cfg)...)
	quotaStore := quota.New(quota.Config{
		DailyLimit:     cfg.QuotaDailyLimit,
		EntitledOwners: cfg.QuotaEntitledOwners,
	})
	notifier := notify.NewWebhook(cfg.WebhookURL, cfg.WebhookSecret)
	textExtractor := extractor.New(storage)

	taskUC := usecase.NewCreateTaskUseCase(repo, storage, queue, quotaStore)
	processUC := usecase.NewProcessTaskUseCase(repo, textExtractor, classifier, ai, quotaStore, notifier, logger, cfg.MinDocumentChars)
	compareUC := usecase.NewCompareUseCase(storage, textExtractor, ai, quotaStore)

	return &App{
		Config: cfg,

		Queue:    queue,
		Repo:     repo,
		TaskUC:   taskUC,
		Process:  processUC,
		Compare:  compareUC,
		Renderer: report.NewRenderer(report.RendererConfig{MaxRiskRows: cfg.ReportMaxRiskRows}),

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func classifierExtensions(cfg config.Config) []classify.Rule {
	rules := make([]classify.Rule, 0, len(cfg.ExtraClassifierRules))
	for _, rule := range cfg.ExtraClassifierRules {
		if rule.DocumentType == "" || len(rule.Keywords) == 0 {
			continue
		}
		rules = append(rules, classify.Rule{
			Type:     domain.DocumentType(rule.DocumentType),
			Keywords: rule.Keywords,
		})
	}
	return rules
}
