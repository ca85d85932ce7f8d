// internal/workers/recommendation/recommend-animals/handler.go
package recommendanimals

import (
	"context"

	"matchpet-workers/internal/common/camunda"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/validation"
	"matchpet-workers/internal/match/engine"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "recommend-animals"
)

type Recommender interface {
	RecommendAnimals(ctx context.Context, seniorID, mode string, req engine.PageRequest) (*engine.Page[engine.ScoredAnimal], error)
}

type Handler struct {
	config *Config
	engine Recommender
	schema *validation.Schema
	logger logger.Logger
}

func NewHandler(config *Config, eng Recommender, schema *validation.Schema, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		engine: eng,
		schema: schema,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	run := camunda.Begin(client, job, h.logger)

	ctx, cancel := camunda.Context(job, h.config.Timeout)
	defer cancel()

	var input Input
	if err := run.Decode(h.schema, &input); err != nil {
		run.Fail(ctx, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		run.Fail(ctx, err)
		return
	}
	run.Complete(ctx, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req := engine.PageRequest{Page: input.Page, Size: h.config.DefaultPageSize}
	if input.Size != nil {
		req.Size = *input.Size
	}

	page, err := h.engine.RecommendAnimals(ctx, input.SeniorID, input.Mode, req)
	if err != nil {
		return nil, err
	}

	h.logger.Info("animals recommended", map[string]interface{}{
		"seniorId": input.SeniorID,
		"mode":     input.Mode,
		"returned": len(page.Items),
		"total":    page.Total,
	})

	return &Output{
		Animals: page.Items,
		Page:    page.Page,
		Size:    page.Size,
		Total:   page.Total,
	}, nil
}
