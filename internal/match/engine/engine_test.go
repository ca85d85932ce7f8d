package engine

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/match/address"
	"matchpet-workers/internal/match/classifier"
	"matchpet-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ==========================
// Test Fixtures
// ==========================

const (
	haeundae = "부산광역시 해운대구 우동 1"
	gangseo  = "부산광역시 강서구 대저동 2"
)

type memCatalog struct {
	seniors  map[string]*models.Senior
	animals  []*models.Animal
	managers []*models.Manager
	listErr  error
}

func (c *memCatalog) GetSenior(_ context.Context, id string) (*models.Senior, error) {
	if s, ok := c.seniors[id]; ok {
		return s, nil
	}
	return nil, errors.NewResourceNotFoundError("seniors", "seniorId: "+id)
}

func (c *memCatalog) GetAnimal(_ context.Context, id string) (*models.Animal, error) {
	for _, a := range c.animals {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.NewResourceNotFoundError("animals", "animalId: "+id)
}

// ListCandidates ignores the district so the engine's own filter is exercised.
func (c *memCatalog) ListCandidates(_ context.Context, _ string, limit int) ([]*models.Animal, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	if len(c.animals) > limit {
		return c.animals[:limit], nil
	}
	return c.animals, nil
}

func (c *memCatalog) ListManagers(_ context.Context) ([]*models.Manager, error) {
	return c.managers, nil
}

type mockManagerSource struct {
	mock.Mock
}

func (m *mockManagerSource) ListManagers(ctx context.Context) ([]*models.Manager, error) {
	args := m.Called(ctx)
	managers, _ := args.Get(0).([]*models.Manager)
	return managers, args.Error(1)
}

func createTestSenior() *models.Senior {
	return &models.Senior{
		ID:               "senior-1",
		Address:          haeundae,
		Mobility:         models.LevelMid,
		VisitStyle:       models.StyleQuiet,
		TechComfort:      models.LevelLow,
		HasPetExperience: false,
		TermsAgreed:      true,
		BodycamAgreed:    true,
	}
}

func animal(id, addr, note string) *models.Animal {
	return &models.Animal{
		ID:             id,
		ShelterAddress: addr,
		Status:         models.StatusAvailable,
		SpecialMark:    note,
		Energy:         models.LevelLow,
		Temperament:    models.StyleQuiet,
	}
}

func reliability(v float64) *float64 { return &v }

func newTestEngine(t *testing.T, cat *memCatalog, opts Options, extra ...Option) *Engine {
	t.Helper()
	return New(cat, cat, cat, address.NewParser(address.DefaultMetro), classifier.Default(),
		opts, logger.NewTestLogger(t), extra...)
}

func catalogWith(senior *models.Senior, animals ...*models.Animal) *memCatalog {
	return &memCatalog{
		seniors: map[string]*models.Senior{senior.ID: senior},
		animals: animals,
	}
}

func ids(items []ScoredAnimal) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.AnimalID
	}
	return out
}

var firstPage = PageRequest{Page: 0, Size: 20}

// ==========================
// RecommendAnimals
// ==========================

func TestRecommendAnimals_GreenBeginnerFriendly(t *testing.T) {
	cat := catalogWith(createTestSenior(), animal("a1", haeundae, "온순하고 산책을 좋아함"))
	e := newTestEngine(t, cat, DefaultOptions())

	page, err := e.RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	got := page.Items[0]
	assert.Equal(t, "a1", got.AnimalID)
	assert.Equal(t, classifier.TierGreen, got.Tier)
	assert.GreaterOrEqual(t, got.Score, 33.0)
	assert.Contains(t, got.Reason, "GREEN")
	assert.Contains(t, got.Reason, "beginner friendly +3")
	assert.Equal(t, "부산광역시 해운대구", got.CityDistrict)
	// 0.6 * 77.5 + 30 + 3
	assert.InDelta(t, 79.5, got.Score, 1e-9)
}

func TestRecommendAnimals_DistrictMismatchExcluded(t *testing.T) {
	cat := catalogWith(createTestSenior(),
		animal("near", haeundae, "온순함"),
		animal("far", gangseo, "온순함"),
	)
	e := newTestEngine(t, cat, DefaultOptions())

	page, err := e.RecommendAnimals(context.Background(), "senior-1", "", firstPage)
	require.NoError(t, err)
	assert.Equal(t, []string{"near"}, ids(page.Items))
	assert.Equal(t, 1, page.Total)
}

func TestRecommendAnimals_TierFiltersByMode(t *testing.T) {
	senior := createTestSenior()
	senior.HasPetExperience = true
	senior.Availability = &models.Availability{TimeSlots: []string{"morning"}}

	cat := catalogWith(senior,
		animal("block", haeundae, "교상 이력, 심각한 공격성"),
		animal("medical", haeundae, "파보 치료중, 격리"),
		animal("limit", haeundae, "분리불안 있음"),
		animal("green", haeundae, "온순함"),
	)
	e := newTestEngine(t, cat, DefaultOptions())

	tests := []struct {
		mode string
		want []string
	}{
		{"conservative", []string{"green"}},
		{"balanced", []string{"green"}},
		{"manager_assisted", []string{"green", "limit"}},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			page, err := e.RecommendAnimals(context.Background(), "senior-1", tt.mode, firstPage)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page.Items))
		})
	}
}

func TestRecommendAnimals_RequestGate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *models.Senior)
	}{
		{"outside metro", func(s *models.Senior) { s.Address = "서울특별시 강남구 역삼동" }},
		{"terms not agreed", func(s *models.Senior) { s.TermsAgreed = false }},
		{"bodycam not agreed", func(s *models.Senior) { s.BodycamAgreed = false }},
		{"unparsable district", func(s *models.Senior) { s.Address = "부산광역시" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			senior := createTestSenior()
			tt.mutate(senior)
			cat := catalogWith(senior, animal("a1", haeundae, "온순함"))
			cat.listErr = stderrors.New("catalog must not be queried")

			page, err := newTestEngine(t, cat, DefaultOptions()).
				RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
			require.NoError(t, err)
			assert.Empty(t, page.Items)
			assert.Equal(t, 0, page.Total)
		})
	}
}

func TestRecommendAnimals_CareFilters(t *testing.T) {
	med := animal("med", haeundae, "하루 두 번 투약 필요, 온순")

	t.Run("inexperienced senior rejects medication", func(t *testing.T) {
		senior := createTestSenior()
		senior.Availability = &models.Availability{TimeSlots: []string{"evening"}}
		page, err := newTestEngine(t, catalogWith(senior, med), DefaultOptions()).
			RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("medication without availability rejected", func(t *testing.T) {
		senior := createTestSenior()
		senior.HasPetExperience = true
		page, err := newTestEngine(t, catalogWith(senior, med), DefaultOptions()).
			RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})

	t.Run("experienced senior with availability admitted", func(t *testing.T) {
		senior := createTestSenior()
		senior.HasPetExperience = true
		senior.Availability = &models.Availability{Note: "평일 오후 가능"}
		page, err := newTestEngine(t, catalogWith(senior, med), DefaultOptions()).
			RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
		require.NoError(t, err)
		assert.Equal(t, []string{"med"}, ids(page.Items))
	})
}

func TestRecommendAnimals_StatusGate(t *testing.T) {
	pending := animal("pending", haeundae, "온순함")
	pending.Status = models.StatusPending
	pending.ProcessState = "보호중"

	closed := animal("closed", haeundae, "온순함")
	closed.Status = models.StatusPending
	closed.ProcessState = "종료(입양)"

	adopted := animal("adopted", haeundae, "온순함")
	adopted.Status = models.StatusAdopted

	weird := animal("weird", haeundae, "온순함")
	weird.Status = models.ParseAnimalStatus("lost")

	cat := catalogWith(createTestSenior(), pending, closed, adopted, weird)
	page, err := newTestEngine(t, cat, DefaultOptions()).
		RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending"}, ids(page.Items))
}

func TestRecommendAnimals_OrderingAndPagination(t *testing.T) {
	caution := animal("caution", haeundae, "")
	plain := animal("plain", haeundae, "건강함")
	friendly := animal("friendly", haeundae, "사람 좋아함")
	twin := animal("twin", haeundae, "사람 좋아함")

	cat := catalogWith(createTestSenior(), caution, plain, friendly, twin)
	e := newTestEngine(t, cat, DefaultOptions())

	page, err := e.RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)
	// ties keep input order
	assert.Equal(t, []string{"friendly", "twin", "plain", "caution"}, ids(page.Items))
	assert.Contains(t, page.Items[3].Reason, "sparse information -5")

	again, err := e.RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)
	assert.Equal(t, page.Items, again.Items)

	second, err := e.RecommendAnimals(context.Background(), "senior-1", "balanced", PageRequest{Page: 1, Size: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"caution"}, ids(second.Items))
	assert.Equal(t, 4, second.Total)

	beyond, err := e.RecommendAnimals(context.Background(), "senior-1", "balanced", PageRequest{Page: 5, Size: 3})
	require.NoError(t, err)
	assert.NotNil(t, beyond.Items)
	assert.Empty(t, beyond.Items)
}

func TestRecommendAnimals_PageSizeClamped(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxPageSize = 2
	cat := catalogWith(createTestSenior(),
		animal("a", haeundae, "온순"), animal("b", haeundae, "온순"), animal("c", haeundae, "온순"))

	page, err := newTestEngine(t, cat, opts).
		RecommendAnimals(context.Background(), "senior-1", "balanced", PageRequest{Page: 0, Size: 100})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Size)
	assert.Len(t, page.Items, 2)
}

func TestRecommendAnimals_InvalidInput(t *testing.T) {
	e := newTestEngine(t, catalogWith(createTestSenior()), DefaultOptions())

	_, err := e.RecommendAnimals(context.Background(), "senior-1", "reckless", firstPage)
	assert.Equal(t, errors.ErrCodeInvalidMode, errors.CodeOf(err))

	_, err = e.RecommendAnimals(context.Background(), "senior-1", "balanced", PageRequest{Page: -1, Size: 10})
	assert.Equal(t, errors.ErrCodeInvalidPage, errors.CodeOf(err))

	_, err = e.RecommendAnimals(context.Background(), "senior-1", "balanced", PageRequest{Page: 0, Size: 0})
	assert.Equal(t, errors.ErrCodeInvalidPage, errors.CodeOf(err))
}

func TestRecommendAnimals_MissingSeniorIsEmpty(t *testing.T) {
	e := newTestEngine(t, catalogWith(createTestSenior(), animal("a1", haeundae, "온순")), DefaultOptions())

	page, err := e.RecommendAnimals(context.Background(), "ghost", "balanced", firstPage)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestRecommendAnimals_CatalogErrorPropagates(t *testing.T) {
	cat := catalogWith(createTestSenior())
	cat.listErr = errors.NewCatalogUnavailableError("elasticsearch", stderrors.New("breaker open"))

	_, err := newTestEngine(t, cat, DefaultOptions()).
		RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCatalogUnavailable, errors.CodeOf(err))
}

func TestRecommendAnimals_PredictionsFillUnknownFields(t *testing.T) {
	senior := createTestSenior()
	senior.Mobility = models.LevelUnknown
	senior.Predictions = &models.Predictions{
		Mobility:   models.Prediction{Value: "LOW", Confidence: 80},
		VisitStyle: models.Prediction{Value: "ACTIVE", Confidence: 90},
	}

	page, err := newTestEngine(t, catalogWith(senior, animal("a1", haeundae, "온순")), DefaultOptions()).
		RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	// explicit QUIET visit style wins over the prediction
	assert.Contains(t, page.Items[0].Reason, "predicted mobility")
	assert.NotContains(t, page.Items[0].Reason, "predicted visit style")
	// LOW/LOW, QUIET/QUIET, no device
	assert.InDelta(t, 100, page.Items[0].PetScore, 1e-9)
}

func TestRecommendAnimals_LowConfidencePredictionIgnored(t *testing.T) {
	senior := createTestSenior()
	senior.Mobility = models.LevelUnknown
	senior.Predictions = &models.Predictions{Mobility: models.Prediction{Value: "LOW", Confidence: 40}}

	page, err := newTestEngine(t, catalogWith(senior, animal("a1", haeundae, "온순")), DefaultOptions()).
		RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)
	assert.NotContains(t, page.Items[0].Reason, "predicted")
}

func TestRecommendAnimals_RecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	e := newTestEngine(t, catalogWith(createTestSenior(), animal("a1", haeundae, "온순")),
		DefaultOptions(), WithTracer(tp.Tracer("test")))

	_, err := e.RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "engine.RecommendAnimals", spans[0].Name())
}

// ==========================
// RecommendManagers
// ==========================

func TestRecommendManagers_RankingAndCoverage(t *testing.T) {
	a := animal("a1", haeundae, "온순")
	a.Energy = models.LevelHigh
	a.Temperament = models.StyleUnknown
	a.DeviceRequired = true

	cat := catalogWith(createTestSenior(), a)
	cat.managers = []*models.Manager{
		{ID: "m-half", Experience: models.LevelMid, Reliability: reliability(0.5), SkillTags: models.NewTagSet("high_energy_handling")},
		{ID: "m-full", Experience: models.LevelMid, Reliability: reliability(0.5), SkillTags: models.NewTagSet("high_energy_handling", "device_friendly")},
		{ID: "m-none", Experience: models.LevelLow},
	}

	page, err := newTestEngine(t, cat, DefaultOptions()).
		RecommendManagers(context.Background(), "senior-1", "a1", firstPage)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	assert.Equal(t, "m-full", page.Items[0].ManagerID)
	assert.Equal(t, "m-half", page.Items[1].ManagerID)
	assert.Equal(t, 0.5, page.Items[1].Coverage)
	assert.Contains(t, page.Items[1].Reason, "skills 1/2")
	assert.Equal(t, "m-none", page.Items[2].ManagerID)
	assert.Contains(t, page.Items[2].Reason, "reliability n/a")
}

func TestRecommendManagers_MissingAnimal(t *testing.T) {
	cat := catalogWith(createTestSenior())
	cat.managers = []*models.Manager{{ID: "m1"}}

	_, err := newTestEngine(t, cat, DefaultOptions()).
		RecommendManagers(context.Background(), "senior-1", "nope", firstPage)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRecommendManagers_MissingSeniorIsNeutral(t *testing.T) {
	cat := catalogWith(createTestSenior(), animal("a1", haeundae, ""))
	cat.managers = []*models.Manager{{ID: "m1", Experience: models.LevelHigh}}

	page, err := newTestEngine(t, cat, DefaultOptions()).
		RecommendManagers(context.Background(), "ghost", "a1", firstPage)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	// neutral 0.5 experience fit, no reliability, no tags against {low_activity_care, shy_care}
	assert.InDelta(t, 25, page.Items[0].Score, 1e-9)
}

func TestRecommendManagers_ManagerSourceError(t *testing.T) {
	cat := catalogWith(createTestSenior(), animal("a1", haeundae, ""))
	managers := new(mockManagerSource)
	managers.On("ListManagers", mock.Anything).
		Return(nil, errors.NewQueryExecutionFailedError("list_managers", stderrors.New("connection reset")))

	e := New(cat, cat, managers, nil, nil, DefaultOptions(), logger.NewTestLogger(t))
	_, err := e.RecommendManagers(context.Background(), "senior-1", "a1", firstPage)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.CodeOf(err))
	managers.AssertExpectations(t)
}

// ==========================
// RecommendPairs
// ==========================

func pairCatalog() *memCatalog {
	active := animal("active", haeundae, "온순")
	active.Energy = models.LevelHigh
	active.DeviceRequired = true

	calm := animal("calm", haeundae, "온순")

	cat := catalogWith(createTestSenior(), active, calm)
	cat.managers = []*models.Manager{
		{ID: "m-calm", Experience: models.LevelMid, Reliability: reliability(0.5), SkillTags: models.NewTagSet("low_activity_care", "shy_care")},
		{ID: "m-active", Experience: models.LevelMid, Reliability: reliability(0.5), SkillTags: models.NewTagSet("high_energy_handling", "device_friendly", "shy_care")},
	}
	return cat
}

func TestRecommendPairs_BestManagerPerAnimal(t *testing.T) {
	page, err := newTestEngine(t, pairCatalog(), DefaultOptions()).
		RecommendPairs(context.Background(), "senior-1", firstPage)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	byAnimal := map[string]string{}
	for _, p := range page.Items {
		byAnimal[p.Animal.AnimalID] = p.Manager.ManagerID
		assert.GreaterOrEqual(t, p.Score, 0.0)
		assert.LessOrEqual(t, p.Score, 100.0)
	}
	assert.Equal(t, "m-active", byAnimal["active"])
	assert.Equal(t, "m-calm", byAnimal["calm"])
	assert.GreaterOrEqual(t, page.Items[0].Score, page.Items[1].Score)
}

func TestRecommendPairs_MemoizationDoesNotChangeResults(t *testing.T) {
	memo := DefaultOptions()
	plain := DefaultOptions()
	plain.MemoizeManagerScores = false

	a, err := newTestEngine(t, pairCatalog(), memo).RecommendPairs(context.Background(), "senior-1", firstPage)
	require.NoError(t, err)
	b, err := newTestEngine(t, pairCatalog(), plain).RecommendPairs(context.Background(), "senior-1", firstPage)
	require.NoError(t, err)
	assert.Equal(t, a.Items, b.Items)
}

func TestRecommendPairs_CandidateCap(t *testing.T) {
	opts := DefaultOptions()
	opts.PairCandidateCap = 1

	page, err := newTestEngine(t, pairCatalog(), opts).
		RecommendPairs(context.Background(), "senior-1", firstPage)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 1, page.Total)
}

func TestRecommendPairs_NoManagers(t *testing.T) {
	cat := pairCatalog()
	cat.managers = nil

	page, err := newTestEngine(t, cat, DefaultOptions()).
		RecommendPairs(context.Background(), "senior-1", firstPage)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestRecommendPairs_GateAndMissingSenior(t *testing.T) {
	cat := pairCatalog()
	cat.seniors["senior-1"].BodycamAgreed = false
	e := newTestEngine(t, cat, DefaultOptions())

	page, err := e.RecommendPairs(context.Background(), "senior-1", firstPage)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = e.RecommendPairs(context.Background(), "ghost", firstPage)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestRecommendPairs_TotalStableAcrossPages(t *testing.T) {
	e := newTestEngine(t, pairCatalog(), DefaultOptions())

	first, err := e.RecommendPairs(context.Background(), "senior-1", PageRequest{Page: 0, Size: 1})
	require.NoError(t, err)
	second, err := e.RecommendPairs(context.Background(), "senior-1", PageRequest{Page: 1, Size: 1})
	require.NoError(t, err)

	assert.Len(t, first.Items, 1)
	assert.Len(t, second.Items, 1)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 2, second.Total)
}

func TestPageOverflowIsRejected(t *testing.T) {
	cat := pairCatalog()
	e := newTestEngine(t, cat, DefaultOptions())
	huge := PageRequest{Page: math.MaxInt/20 + 1, Size: 20}

	_, err := e.RecommendAnimals(context.Background(), "senior-1", "balanced", huge)
	assert.Equal(t, errors.ErrCodeInvalidPage, errors.CodeOf(err))

	_, err = e.RecommendManagers(context.Background(), "senior-1", "calm", huge)
	assert.Equal(t, errors.ErrCodeInvalidPage, errors.CodeOf(err))

	_, err = e.RecommendPairs(context.Background(), "senior-1", huge)
	assert.Equal(t, errors.ErrCodeInvalidPage, errors.CodeOf(err))

	// The largest page that still fits is valid and simply empty.
	last := PageRequest{Page: math.MaxInt/20 - 1, Size: 20}
	page, err := e.RecommendPairs(context.Background(), "senior-1", last)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestRecommendAnimals_ConsentRevokedBetweenCalls(t *testing.T) {
	cat := catalogWith(createTestSenior(), animal("a1", haeundae, "온순"))
	e := newTestEngine(t, cat, DefaultOptions())

	page, err := e.RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	cat.seniors["senior-1"].TermsAgreed = false

	page, err = e.RecommendAnimals(context.Background(), "senior-1", "balanced", firstPage)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Manager_Assisted ")
	require.NoError(t, err)
	assert.Equal(t, ModeManagerAssisted, m)
	assert.True(t, m.AdmitsLimitBehavior())

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeBalanced, m)

	_, err = ParseMode("aggressive")
	assert.Error(t, err)
}
