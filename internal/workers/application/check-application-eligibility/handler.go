// internal/workers/application/check-application-eligibility/handler.go
package checkapplicationeligibility

import (
	"context"

	"matchpet-workers/internal/common/camunda"
	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/validation"
	"matchpet-workers/internal/match/address"
	"matchpet-workers/internal/match/classifier"
	"matchpet-workers/internal/match/engine"
	"matchpet-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"
)

const (
	TaskType = "check-application-eligibility"
)

type Handler struct {
	config     *Config
	seniors    engine.SeniorSource
	animals    engine.AnimalSource
	address    *address.Parser
	classifier *classifier.Classifier
	schema     *validation.Schema
	logger     logger.Logger
}

func NewHandler(
	config *Config,
	seniors engine.SeniorSource,
	animals engine.AnimalSource,
	parser *address.Parser,
	cls *classifier.Classifier,
	schema *validation.Schema,
	log logger.Logger,
) *Handler {
	if parser == nil {
		parser = address.NewParser(address.DefaultMetro)
	}
	if cls == nil {
		cls = classifier.Default()
	}
	return &Handler{
		config:     config,
		seniors:    seniors,
		animals:    animals,
		address:    parser,
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

// Execute returns every rule the pair fails. An ineligible result is a normal
// outcome; only lookups that fail return an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		senior *models.Senior
		animal *models.Animal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := h.seniors.GetSenior(gctx, input.SeniorID)
		senior = s
		return err
	})
	g.Go(func() error {
		a, err := h.animals.GetAnimal(gctx, input.AnimalID)
		animal = a
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if senior == nil {
		return nil, errors.NewResourceNotFoundError("seniors", "seniorId: "+input.SeniorID)
	}
	if animal == nil {
		return nil, errors.NewResourceNotFoundError("animals", "animalId: "+input.AnimalID)
	}

	out := h.evaluate(senior, animal)

	h.logger.Info("eligibility checked", map[string]interface{}{
		"seniorId": input.SeniorID,
		"animalId": input.AnimalID,
		"eligible": out.Eligible,
		"reasons":  out.Reasons,
	})
	return out, nil
}

func (h *Handler) evaluate(s *models.Senior, a *models.Animal) *Output {
	risk := h.classifier.Classify(a.SpecialMark)
	out := &Output{
		Reasons:      []string{},
		Tier:         risk.Tier,
		CityDistrict: h.address.CityDistrict(a.ShelterAddress),
	}

	if !s.TermsAgreed {
		out.Reasons = append(out.Reasons, ReasonTermsNotAgreed)
	}
	if !s.BodycamAgreed {
		out.Reasons = append(out.Reasons, ReasonBodycamNotAgreed)
	}
	if !a.StatusEligible() {
		out.Reasons = append(out.Reasons, ReasonAnimalUnavailable)
	}
	switch {
	case !h.address.IsInMetro(s.Address) || !h.address.IsInMetro(a.ShelterAddress):
		out.Reasons = append(out.Reasons, ReasonOutsideMetro)
	case !h.address.SameDistrict(s.Address, a.ShelterAddress):
		out.Reasons = append(out.Reasons, ReasonDistrictMismatch)
	}
	if risk.Tier.Excluded() {
		out.Reasons = append(out.Reasons, ReasonAnimalBlocked)
	}
	if !s.HasPetExperience && (risk.Aggressive || risk.MedicationRequired) {
		out.Reasons = append(out.Reasons, ReasonExperienceNeeded)
	}

	out.Eligible = len(out.Reasons) == 0
	return out
}
