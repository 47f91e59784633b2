package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson"

	"cyber-news-digest/internal/config"
	"cyber-news-digest/internal/logger"
	"cyber-news-digest/internal/store"
	"cyber-news-digest/models"
	"cyber-news-digest/services"
)

const (
	TaskGenerateSummary = "summary:generate"
	TaskGenerateTips    = "tips:generate"
)

type GeneratePayload struct {
	ArticleID string `json:"article_id"`
}

// Task creators
func NewSummaryTask(articleID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GeneratePayload{ArticleID: articleID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskGenerateSummary,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(3*time.Minute),
		asynq.Queue("default"),
	), nil
}

func NewTipsTask(articleID string) (*asynq.Task, error) {
	payload, err := json.Marshal(GeneratePayload{ArticleID: articleID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskGenerateTips,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(3*time.Minute),
		asynq.Queue("default"),
	), nil
}

// Client enqueues generation work for articles.
type Client struct {
	client *asynq.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueGeneration queues both derived documents for one article.
func (c *Client) EnqueueGeneration(articleID string) error {
	summaryTask, err := NewSummaryTask(articleID)
	if err != nil {
		return err
	}
	if _, err := c.client.Enqueue(summaryTask); err != nil {
		return fmt.Errorf("failed to enqueue summary task: %w", err)
	}

	tipsTask, err := NewTipsTask(articleID)
	if err != nil {
		return err
	}
	if _, err := c.client.Enqueue(tipsTask); err != nil {
		return fmt.Errorf("failed to enqueue tips task: %w", err)
	}
	return nil
}

// TaskProcessor handles generation tasks on the worker side.
type TaskProcessor struct {
	store     store.Store
	cols      config.Collections
	generator services.Generator
	upserter  *services.UpsertCoordinator
}

func NewTaskProcessor(s store.Store, cols config.Collections, generator services.Generator, upserter *services.UpsertCoordinator) *TaskProcessor {
	return &TaskProcessor{
		store:     s,
		cols:      cols,
		generator: generator,
		upserter:  upserter,
	}
}

// Register attaches the handlers to an asynq mux.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskGenerateSummary, p.GenerateSummary)
	mux.HandleFunc(TaskGenerateTips, p.GenerateTips)
}

func (p *TaskProcessor) GenerateSummary(ctx context.Context, t *asynq.Task) error {
	article, err := p.loadArticle(ctx, t)
	if err != nil {
		return err
	}

	summary, err := p.generator.GenerateSummary(ctx, article)
	if err != nil {
		return err // will retry
	}
	if err := p.upserter.UpsertSummary(ctx, article.ID, summary); err != nil {
		return err
	}

	logger.Info("summary generated", "article_id", article.ID)
	return nil
}

func (p *TaskProcessor) GenerateTips(ctx context.Context, t *asynq.Task) error {
	article, err := p.loadArticle(ctx, t)
	if err != nil {
		return err
	}

	tips, err := p.generator.GenerateTips(ctx, article)
	if err != nil {
		return err // will retry
	}
	if err := p.upserter.UpsertTips(ctx, article.ID, tips); err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			// A schema-invalid reply may come out valid on the next attempt.
			logger.Warn("generated tips rejected", "article_id", article.ID, "error", err)
		}
		return err
	}

	logger.Info("tips generated", "article_id", article.ID)
	return nil
}

// loadArticle resolves the task payload to its stored article. A missing
// article means it was deleted after enqueueing, so the task is dropped.
func (p *TaskProcessor) loadArticle(ctx context.Context, t *asynq.Task) (models.Article, error) {
	var payload GeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return models.Article{}, fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}
	if payload.ArticleID == "" {
		return models.Article{}, fmt.Errorf("empty article_id: %w", asynq.SkipRetry)
	}

	raw, err := p.store.Get(ctx, p.cols.News, payload.ArticleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Article{}, fmt.Errorf("article %s no longer exists: %w", payload.ArticleID, asynq.SkipRetry)
		}
		return models.Article{}, err
	}

	var article models.Article
	if err := decodeArticle(raw, &article); err != nil {
		return models.Article{}, fmt.Errorf("undecodable article %s: %w", payload.ArticleID, asynq.SkipRetry)
	}
	return article, nil
}

func decodeArticle(raw bson.M, article *models.Article) error {
	data, err := bson.Marshal(raw)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, article)
}
