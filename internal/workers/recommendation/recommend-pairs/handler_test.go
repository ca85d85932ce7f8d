package recommendpairs

import (
	"context"
	"testing"

	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/match/engine"
	"matchpet-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// In-memory catalog
// ==========================

type stubCatalog struct {
	senior   *models.Senior
	animals  []*models.Animal
	managers []*models.Manager
}

func (c *stubCatalog) GetSenior(_ context.Context, id string) (*models.Senior, error) {
	if c.senior != nil && c.senior.ID == id {
		return c.senior, nil
	}
	return nil, errors.NewResourceNotFoundError("seniors", "id: "+id)
}

func (c *stubCatalog) GetAnimal(_ context.Context, id string) (*models.Animal, error) {
	for _, a := range c.animals {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.NewResourceNotFoundError("animals", "id: "+id)
}

func (c *stubCatalog) ListCandidates(_ context.Context, _ string, _ int) ([]*models.Animal, error) {
	return c.animals, nil
}

func (c *stubCatalog) ListManagers(_ context.Context) ([]*models.Manager, error) {
	return c.managers, nil
}

func createTestCatalog() *stubCatalog {
	rel := 0.8
	return &stubCatalog{
		senior: &models.Senior{
			ID:            "7",
			Address:       "부산광역시 해운대구 우동 1",
			Mobility:      models.LevelMid,
			VisitStyle:    models.StyleQuiet,
			TechComfort:   models.LevelLow,
			TermsAgreed:   true,
			BodycamAgreed: true,
		},
		animals: []*models.Animal{
			{ID: "a1", ShelterAddress: "부산광역시 해운대구 좌동", Status: models.StatusAvailable,
				SpecialMark: "온순함", Energy: models.LevelLow, Temperament: models.StyleQuiet},
			{ID: "a2", ShelterAddress: "부산광역시 해운대구 중동", Status: models.StatusAvailable,
				SpecialMark: "교상 이력 있음", Energy: models.LevelHigh, Temperament: models.StyleActive},
		},
		managers: []*models.Manager{
			{ID: "m1", Name: "김매니저", Experience: models.LevelMid, Reliability: &rel,
				SkillTags: models.NewTagSet("shy_care")},
		},
	}
}

func TestHandler_Execute_WithEngine(t *testing.T) {
	cat := createTestCatalog()
	eng := engine.New(cat, cat, cat, nil, nil, engine.DefaultOptions(), logger.NewTestLogger(t))
	h := NewHandler(LoadConfig(), eng, nil, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{SeniorID: "7"})
	require.NoError(t, err)

	require.Len(t, out.Pairs, 1)
	pair := out.Pairs[0]
	assert.Equal(t, "a1", pair.Animal.AnimalID)
	assert.Equal(t, "m1", pair.Manager.ManagerID)
	assert.GreaterOrEqual(t, pair.Score, 0.0)
	assert.LessOrEqual(t, pair.Score, 100.0)
	assert.Contains(t, pair.Reason, "GREEN")
	assert.Equal(t, 10, out.Size)
}

func TestHandler_Execute_UnknownSeniorIsEmpty(t *testing.T) {
	cat := createTestCatalog()
	eng := engine.New(cat, cat, cat, nil, nil, engine.DefaultOptions(), logger.NewNoOpLogger())
	h := NewHandler(LoadConfig(), eng, nil, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{SeniorID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, out.Pairs)
	assert.Equal(t, 0, out.Total)
}

func TestHandler_Execute_InvalidPage(t *testing.T) {
	cat := createTestCatalog()
	eng := engine.New(cat, cat, cat, nil, nil, engine.DefaultOptions(), logger.NewNoOpLogger())
	h := NewHandler(LoadConfig(), eng, nil, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{SeniorID: "7", Page: -1})
	assert.Equal(t, errors.ErrCodeInvalidPage, errors.CodeOf(err))
}
