package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/match/score"
	"matchpet-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type rankedManager struct {
	manager  *models.Manager
	coverage float64
	score    float64
}

func rankManagers(mobility models.Level, managers []*models.Manager, required models.TagSet) []rankedManager {
	out := make([]rankedManager, 0, len(managers))
	for _, m := range managers {
		if m == nil {
			continue
		}
		out = append(out, rankedManager{
			manager:  m,
			coverage: score.Coverage(required, m.SkillTags),
			score:    score.ManagerScore(mobility, m, required),
		})
	}
	return out
}

func (r rankedManager) scored(mobility models.Level, required models.TagSet) ScoredManager {
	m := r.manager
	return ScoredManager{
		ManagerID:   m.ID,
		Name:        m.Name,
		Intro:       m.Intro,
		PhotoURL:    m.PhotoURL,
		Experience:  m.Experience,
		Reliability: m.Reliability,
		SkillTags:   m.SkillTags.Sorted(),
		Coverage:    score.Round2(r.coverage),
		Score:       score.Round2(r.score),
		Reason:      managerReason(mobility, m, required),
	}
}

func managerReason(mobility models.Level, m *models.Manager, required models.TagSet) string {
	reliability := "reliability n/a"
	if m.Reliability != nil {
		reliability = fmt.Sprintf("reliability %.2f", score.Clamp01(*m.Reliability))
	}
	have := 0
	for tag := range required {
		if m.SkillTags.Has(tag) {
			have++
		}
	}
	return fmt.Sprintf("experience fit %.2f, %s, skills %d/%d",
		score.OrdinalMatch(mobility, m.Experience), reliability, have, required.Len())
}

// RecommendManagers ranks every manager for one animal. A missing animal is an
// error; a missing senior scores with neutral mobility.
func (e *Engine) RecommendManagers(ctx context.Context, seniorID, animalID string, req PageRequest) (*Page[ScoredManager], error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.RecommendManagers", trace.WithAttributes(
		attribute.String("seniorId", seniorID),
		attribute.String("animalId", animalID),
	))
	defer span.End()

	req, err := req.normalize(e.opts.MaxPageSize)
	if err != nil {
		return nil, e.fail(ctx, span, opManagers, start, err)
	}

	var (
		senior   *models.Senior
		animal   *models.Animal
		managers []*models.Manager
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		senior, err = e.lookupSenior(gctx, seniorID)
		return err
	})
	g.Go(func() error {
		var err error
		animal, err = e.animals.GetAnimal(gctx, animalID)
		return err
	})
	g.Go(func() error {
		var err error
		managers, err = e.managers.ListManagers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, e.fail(ctx, span, opManagers, start, err)
	}
	if animal == nil {
		return nil, e.fail(ctx, span, opManagers, start, errors.NewResourceNotFoundError("animals", "animalId: "+animalID))
	}

	mobility := e.profileOf(senior).fit.Mobility
	required := score.RequiredTagsFor(animal)

	ranked := rankManagers(mobility, managers, required)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	items := make([]ScoredManager, len(ranked))
	for i, r := range ranked {
		items[i] = r.scored(mobility, required)
	}

	page := paginate(items, req)
	e.finish(ctx, span, opManagers, seniorID, start, len(managers), len(page.Items))
	return page, nil
}
