// internal/workers/classification/classify-special-mark/handler.go
package classifyspecialmark

import (
	"context"

	"matchpet-workers/internal/catalog"
	"matchpet-workers/internal/common/camunda"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/validation"
	"matchpet-workers/internal/match/classifier"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "classify-special-mark"
)

type Handler struct {
	config     *Config
	classifier *classifier.Classifier
	schema     *validation.Schema
	logger     logger.Logger
}

func NewHandler(config *Config, cls *classifier.Classifier, schema *validation.Schema, log logger.Logger) *Handler {
	if cls == nil {
		cls = classifier.Default()
	}
	return &Handler{
		config:     config,
		classifier: cls,
		schema:     schema,
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

// Execute never fails. An empty note classifies as CAUTION.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	res := h.classifier.Classify(input.SpecialMark)

	out := &Output{
		AnimalID:           input.AnimalID,
		Tier:               res.Tier,
		Excluded:           res.Tier.Excluded(),
		BeginnerFriendly:   res.BeginnerFriendly,
		HighActivity:       res.HighActivity,
		MedicationRequired: res.MedicationRequired,
		Aggressive:         res.Aggressive,
		CleanedText:        res.CleanedText,
		Hits:               res.Hits,
		Species:            catalog.SpeciesOf(input.KindCd),
		Breed:              catalog.SanitizeBreed(input.KindCd),
		SizeClass:          catalog.SizeClassOf(input.Weight),
	}

	h.logger.Debug("special mark classified", map[string]interface{}{
		"animalId": input.AnimalID,
		"tier":     string(res.Tier),
	})
	return out, nil
}
