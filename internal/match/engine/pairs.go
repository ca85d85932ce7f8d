package engine

import (
	"context"
	"sort"
	"time"

	"matchpet-workers/internal/match/score"
	"matchpet-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// RecommendPairs proposes at most one manager per eligible animal: the one that
// maximizes the pair score for that animal. Only the top
// min((page+1)*size, PairCandidateCap) ranked animals are paired; Total is
// min(eligible animals, PairCandidateCap) on every page.
func (e *Engine) RecommendPairs(ctx context.Context, seniorID string, req PageRequest) (*Page[ScoredPair], error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "engine.RecommendPairs", trace.WithAttributes(
		attribute.String("seniorId", seniorID),
	))
	defer span.End()

	req, err := req.normalize(e.opts.MaxPageSize)
	if err != nil {
		return nil, e.fail(ctx, span, opPairs, start, err)
	}

	senior, err := e.lookupSenior(ctx, seniorID)
	if err != nil {
		return nil, e.fail(ctx, span, opPairs, start, err)
	}
	district := ""
	if e.admitted(senior) {
		district = e.address.CityDistrict(senior.Address)
	}
	if district == "" {
		e.finish(ctx, span, opPairs, seniorID, start, 0, 0)
		return emptyPage[ScoredPair](req), nil
	}

	var (
		animals  []*models.Animal
		managers []*models.Manager
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		animals, err = e.animals.ListCandidates(gctx, district, e.opts.CandidateLimit)
		return err
	})
	g.Go(func() error {
		var err error
		managers, err = e.managers.ListManagers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, e.fail(ctx, span, opPairs, start, err)
	}

	p := e.profileOf(senior)
	evals := e.evaluate(p, animals, ModeBalanced)
	reachable := min(len(evals), e.opts.PairCandidateCap)
	if limit := min(req.end(), reachable); len(evals) > limit {
		evals = evals[:limit]
	}

	pairs := e.pair(p.fit.Mobility, evals, managers)
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })

	page := paginate(pairs, req)
	// Total counts every pair reachable by paging, not just those built for this page.
	if len(pairs) > 0 {
		page.Total = reachable
	}
	e.finish(ctx, span, opPairs, seniorID, start, len(animals), len(page.Items))
	return page, nil
}

func (e *Engine) pair(mobility models.Level, evals []evaluation, managers []*models.Manager) []ScoredPair {
	if len(managers) == 0 {
		return []ScoredPair{}
	}

	var memo map[string][]rankedManager
	if e.opts.MemoizeManagerScores {
		memo = make(map[string][]rankedManager)
	}

	pairs := make([]ScoredPair, 0, len(evals))
	for _, ev := range evals {
		required := score.RequiredTagsFor(ev.animal)

		var ranked []rankedManager
		if memo != nil {
			key := required.Key()
			if cached, ok := memo[key]; ok {
				ranked = cached
			} else {
				ranked = rankManagers(mobility, managers, required)
				memo[key] = ranked
			}
		} else {
			ranked = rankManagers(mobility, managers, required)
		}
		if len(ranked) == 0 {
			continue
		}

		best, bestTotal := 0, score.PairScore(ev.pet, ranked[0].score)
		for i := 1; i < len(ranked); i++ {
			if total := score.PairScore(ev.pet, ranked[i].score); total > bestTotal {
				best, bestTotal = i, total
			}
		}

		animal := ev.scored()
		manager := ranked[best].scored(mobility, required)
		pairs = append(pairs, ScoredPair{
			Animal:       animal,
			Manager:      manager,
			PetScore:     score.Round2(ev.pet),
			ManagerScore: manager.Score,
			Score:        score.Round2(bestTotal),
			Reason:       animal.Reason + "; " + manager.Reason,
		})
	}
	return pairs
}
