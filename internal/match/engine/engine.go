// Package engine ranks animals, managers and animal/manager pairs for a senior.
// Every call recomputes rankings from the current catalog state.
package engine

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"matchpet-workers/internal/common/config"
	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/metrics"
	"matchpet-workers/internal/match/address"
	"matchpet-workers/internal/match/classifier"
	"matchpet-workers/internal/match/score"
	"matchpet-workers/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	opAnimals  = "recommend_animals"
	opManagers = "recommend_managers"
	opPairs    = "recommend_pairs"
)

type Options struct {
	FitWeight            float64
	MaxPageSize          int
	CandidateLimit       int
	PairCandidateCap     int
	MemoizeManagerScores bool
	PredictionConfidence int
	OverlayRules         []OverlayRule
	SlowThreshold        time.Duration
}

func DefaultOptions() Options {
	return Options{
		FitWeight:            0.6,
		MaxPageSize:          50,
		CandidateLimit:       500,
		PairCandidateCap:     100,
		MemoizeManagerScores: true,
		PredictionConfidence: 60,
		OverlayRules:         DefaultOverlayRules(),
		SlowThreshold:        500 * time.Millisecond,
	}
}

func OptionsFromConfig(cfg config.MatchingConfig) Options {
	opts := DefaultOptions()
	if cfg.FitWeight > 0 {
		opts.FitWeight = cfg.FitWeight
	}
	if cfg.MaxPageSize > 0 {
		opts.MaxPageSize = cfg.MaxPageSize
	}
	if cfg.CandidateLimit > 0 {
		opts.CandidateLimit = cfg.CandidateLimit
	}
	if cfg.PairCandidateCap > 0 {
		opts.PairCandidateCap = cfg.PairCandidateCap
	}
	if cfg.PredictionConfidence > 0 {
		opts.PredictionConfidence = cfg.PredictionConfidence
	}
	opts.MemoizeManagerScores = cfg.MemoizeManagerScores
	return opts
}

// Recorder receives one observation per request.
type Recorder interface {
	RecordRecommendation(ctx context.Context, operation, status string, duration time.Duration)
}

type Option func(*Engine)

func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithRules replaces the default rule chain.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) { e.rules = rules }
}

type Engine struct {
	seniors    SeniorSource
	animals    AnimalSource
	managers   ManagerSource
	address    *address.Parser
	classifier *classifier.Classifier
	rules      []Rule
	opts       Options
	tracer     trace.Tracer
	recorder   Recorder
	logger     logger.Logger
}

func New(
	seniors SeniorSource,
	animals AnimalSource,
	managers ManagerSource,
	parser *address.Parser,
	cls *classifier.Classifier,
	opts Options,
	log logger.Logger,
	options ...Option,
) *Engine {
	if parser == nil {
		parser = address.NewParser(address.DefaultMetro)
	}
	if cls == nil {
		cls = classifier.Default()
	}
	e := &Engine{
		seniors:    seniors,
		animals:    animals,
		managers:   managers,
		address:    parser,
		classifier: cls,
		rules:      DefaultRules(opts.OverlayRules),
		opts:       opts,
		tracer:     otel.Tracer("matchpet-workers/engine"),
		logger:     log.WithFields(map[string]interface{}{"component": "engine"}),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// evaluation is one candidate that survived the hard filters.
type evaluation struct {
	animal   *models.Animal
	district string
	risk     classifier.Result
	pet      float64
	total    float64
	reasons  []string
}

// profile is a senior with predicted values filled in where the explicit ones are unknown.
type profile struct {
	senior    *models.Senior
	fit       score.SeniorFit
	predicted []string
}

func (e *Engine) profileOf(s *models.Senior) profile {
	p := profile{senior: s, fit: score.FitOf(s)}
	if s == nil || s.Predictions == nil {
		return p
	}
	pred := s.Predictions
	threshold := e.opts.PredictionConfidence

	if !p.fit.Mobility.Known() && pred.Mobility.Confidence >= threshold {
		if l := models.ParseLevel(pred.Mobility.Value); l.Known() {
			p.fit.Mobility = l
			p.predicted = append(p.predicted, "predicted mobility")
		}
	}
	if !p.fit.VisitStyle.Known() && pred.VisitStyle.Confidence >= threshold {
		if st := models.ParseStyle(pred.VisitStyle.Value); st.Known() {
			p.fit.VisitStyle = st
			p.predicted = append(p.predicted, "predicted visit style")
		}
	}
	if !p.fit.TechComfort.Known() && pred.TechComfort.Confidence >= threshold {
		if l := models.ParseLevel(pred.TechComfort.Value); l.Known() {
			p.fit.TechComfort = l
			p.predicted = append(p.predicted, "predicted tech comfort")
		}
	}
	return p
}

// admitted is the request-level gate: consent on file and an address in the service area.
func (e *Engine) admitted(s *models.Senior) bool {
	return s != nil && s.Consented() && e.address.IsInMetro(s.Address)
}

// reject returns the hard-filter reason that removes the candidate, or "".
func (e *Engine) reject(s *models.Senior, a *models.Animal, risk classifier.Result, mode Mode) string {
	switch {
	case !a.StatusEligible():
		return "status"
	case !e.address.SameDistrict(s.Address, a.ShelterAddress):
		return "district"
	case risk.Tier.Excluded():
		return strings.ToLower(string(risk.Tier))
	case risk.Tier == classifier.TierLimitBehavior && !mode.AdmitsLimitBehavior():
		return "limit_behavior"
	case !s.HasPetExperience && (risk.Aggressive || risk.MedicationRequired):
		return "inexperienced"
	case risk.MedicationRequired && s.Availability.Empty():
		return "no_care_availability"
	}
	return ""
}

// evaluate applies the hard filters and scores survivors, sorted by total
// descending with ties in input order.
func (e *Engine) evaluate(p profile, animals []*models.Animal, mode Mode) []evaluation {
	out := make([]evaluation, 0, len(animals))
	for _, a := range animals {
		if a == nil {
			continue
		}
		risk := e.classifier.Classify(a.SpecialMark)
		if reason := e.reject(p.senior, a, risk, mode); reason != "" {
			metrics.CandidatesRejected.WithLabelValues(reason).Inc()
			continue
		}
		out = append(out, e.score(p, a, risk))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].total > out[j].total })
	return out
}

func (e *Engine) score(p profile, a *models.Animal, risk classifier.Result) evaluation {
	pet := score.PetScore(p.fit, a)
	in := &RuleInput{Senior: p.senior, Fit: p.fit, Animal: a, Risk: risk}

	total := e.opts.FitWeight * pet
	reasons := []string{"fit " + formatScore(pet)}
	for _, rule := range e.rules {
		for _, adj := range rule(in) {
			total += adj.Delta
			reasons = append(reasons, adj.String())
		}
	}
	reasons = append(reasons, p.predicted...)

	return evaluation{
		animal:   a,
		district: e.address.CityDistrict(a.ShelterAddress),
		risk:     risk,
		pet:      pet,
		total:    score.Clamp(total, 0, 100),
		reasons:  reasons,
	}
}

func (ev evaluation) scored() ScoredAnimal {
	a := ev.animal
	return ScoredAnimal{
		AnimalID:       a.ID,
		DesertionNo:    a.DesertionNo,
		Species:        a.Species,
		Breed:          a.Breed,
		Sex:            a.Sex,
		Age:            a.Age,
		Size:           a.Size,
		PhotoURL:       a.PhotoURL,
		ShelterAddress: a.ShelterAddress,
		CityDistrict:   ev.district,
		Status:         a.Status,
		Tier:           ev.risk.Tier,
		PetScore:       score.Round2(ev.pet),
		Score:          score.Round2(ev.total),
		Reason:         strings.Join(ev.reasons, ", "),
	}
}

// RecommendAnimals ranks eligible animals in the senior's district.
func (e *Engine) RecommendAnimals(ctx context.Context, seniorID, mode string, req PageRequest) (*Page[ScoredAnimal], error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.RecommendAnimals", trace.WithAttributes(
		attribute.String("seniorId", seniorID),
		attribute.String("mode", mode),
	))
	defer span.End()

	m, err := ParseMode(mode)
	if err != nil {
		return nil, e.fail(ctx, span, opAnimals, start, err)
	}
	if req, err = req.normalize(e.opts.MaxPageSize); err != nil {
		return nil, e.fail(ctx, span, opAnimals, start, err)
	}

	senior, err := e.lookupSenior(ctx, seniorID)
	if err != nil {
		return nil, e.fail(ctx, span, opAnimals, start, err)
	}
	if !e.admitted(senior) {
		e.finish(ctx, span, opAnimals, seniorID, start, 0, 0)
		return emptyPage[ScoredAnimal](req), nil
	}

	district := e.address.CityDistrict(senior.Address)
	if district == "" {
		e.finish(ctx, span, opAnimals, seniorID, start, 0, 0)
		return emptyPage[ScoredAnimal](req), nil
	}

	animals, err := e.animals.ListCandidates(ctx, district, e.opts.CandidateLimit)
	if err != nil {
		return nil, e.fail(ctx, span, opAnimals, start, err)
	}

	evals := e.evaluate(e.profileOf(senior), animals, m)
	items := make([]ScoredAnimal, len(evals))
	for i, ev := range evals {
		items[i] = ev.scored()
	}

	page := paginate(items, req)
	e.finish(ctx, span, opAnimals, seniorID, start, len(animals), len(page.Items))
	return page, nil
}

// lookupSenior returns nil without error when the senior does not exist.
func (e *Engine) lookupSenior(ctx context.Context, id string) (*models.Senior, error) {
	s, err := e.seniors.GetSenior(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			e.logger.Warn("senior not found", map[string]interface{}{"seniorId": id})
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (e *Engine) finish(ctx context.Context, span trace.Span, op, seniorID string, start time.Time, candidates, returned int) {
	elapsed := time.Since(start)
	status := "ok"
	if returned == 0 {
		status = "empty"
	}

	span.SetAttributes(
		attribute.Int("candidates", candidates),
		attribute.Int("returned", returned),
	)
	metrics.RecommendationsReturned.WithLabelValues(op).Observe(float64(returned))
	if e.recorder != nil {
		e.recorder.RecordRecommendation(ctx, op, status, elapsed)
	}

	fields := map[string]interface{}{
		"operation":  op,
		"seniorId":   seniorID,
		"candidates": candidates,
		"returned":   returned,
		"durationMs": elapsed.Milliseconds(),
	}
	e.logger.Info("recommendation completed", fields)
	if e.opts.SlowThreshold > 0 && elapsed > e.opts.SlowThreshold {
		e.logger.Warn("slow recommendation", fields)
	}
}

func (e *Engine) fail(ctx context.Context, span trace.Span, op string, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if e.recorder != nil {
		e.recorder.RecordRecommendation(ctx, op, "error", time.Since(start))
	}
	e.logger.Error("recommendation failed", map[string]interface{}{
		"operation": op,
		"errorCode": string(errors.CodeOf(err)),
		"error":     err,
	})
	return err
}

func formatScore(v float64) string {
	return strconv.FormatFloat(score.Round2(v), 'f', -1, 64)
}
