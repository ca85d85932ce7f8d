// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchpet-workers/internal/common/camunda"
	"matchpet-workers/internal/common/config"
	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/match/engine"
	"matchpet-workers/internal/models"
	"matchpet-workers/pkg/registry"

	cae "matchpet-workers/internal/workers/application/check-application-eligibility"
	car "matchpet-workers/internal/workers/application/create-application-record"
	sn "matchpet-workers/internal/workers/application/send-notification"
	rp "matchpet-workers/internal/workers/recommendation/recommend-pairs"
)

// ==========================
// In-memory catalog
// ==========================

type catalog struct {
	seniors  map[string]*models.Senior
	animals  []*models.Animal
	managers []*models.Manager
}

func (c *catalog) GetSenior(_ context.Context, id string) (*models.Senior, error) {
	if s, ok := c.seniors[id]; ok {
		return s, nil
	}
	return nil, errors.NewResourceNotFoundError("seniors", "id: "+id)
}

func (c *catalog) GetAnimal(_ context.Context, id string) (*models.Animal, error) {
	for _, a := range c.animals {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, errors.NewResourceNotFoundError("animals", "id: "+id)
}

func (c *catalog) ListCandidates(_ context.Context, _ string, _ int) ([]*models.Animal, error) {
	return c.animals, nil
}

func (c *catalog) ListManagers(_ context.Context) ([]*models.Manager, error) {
	return c.managers, nil
}

func newCatalog() *catalog {
	rel := 0.9
	return &catalog{
		seniors: map[string]*models.Senior{
			"7": {
				ID: "7", Name: "김순자", Phone: "010-1234-5678",
				Address:  "부산광역시 수영구 광안동 12",
				Mobility: models.LevelMid, VisitStyle: models.StyleQuiet, TechComfort: models.LevelLow,
				TermsAgreed: true, BodycamAgreed: true,
			},
		},
		animals: []*models.Animal{
			{ID: "a1", DesertionNo: "448567202600123", ShelterAddress: "부산광역시 수영구 남천동",
				Status: models.StatusAvailable, SpecialMark: "온순하고 사람 좋아함",
				Energy: models.LevelLow, Temperament: models.StyleQuiet},
			{ID: "a2", ShelterAddress: "부산광역시 수영구 망미동",
				Status: models.StatusAvailable, SpecialMark: "파보 격리 치료중"},
		},
		managers: []*models.Manager{
			{ID: "m1", Name: "이매니저", Email: "lee@matchpet.kr", Experience: models.LevelHigh,
				Reliability: &rel, SkillTags: models.NewTagSet("shy_care", "senior_support")},
		},
	}
}

type recorder struct {
	sent []string
}

func (r *recorder) Send(_ context.Context, to, _, _ string) (string, error) {
	r.sent = append(r.sent, to)
	return "msg", nil
}

type smsRecorder struct {
	sent []string
}

func (r *smsRecorder) Send(_ context.Context, phone, _ string) (string, error) {
	r.sent = append(r.sent, phone)
	return "sms", nil
}

type nopHandler struct{}

func (nopHandler) Handle(worker.JobClient, entities.Job) {}

// ==========================
// Application flow
// ==========================

// TestApplicationFlow walks the recommend, check, record and notify tasks the
// way the adoption process chains them, feeding each output into the next input.
func TestApplicationFlow(t *testing.T) {
	ctx := context.Background()
	log := logger.NewTestLogger(t)
	cat := newCatalog()

	reg, err := registry.LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)
	schemas, err := reg.InputSchemas()
	require.NoError(t, err)

	eng := engine.New(cat, cat, cat, nil, nil, engine.DefaultOptions(), log)

	// 1. recommend pairs
	var pairsIn rp.Input
	require.NoError(t, camunda.Decode(`{"seniorId":"7"}`, schemas[rp.TaskType], &pairsIn))
	pairs, err := rp.NewHandler(rp.LoadConfig(), eng, schemas[rp.TaskType], log).Execute(ctx, &pairsIn)
	require.NoError(t, err)
	require.Len(t, pairs.Pairs, 1, "medical hold animal must be excluded")
	top := pairs.Pairs[0]
	assert.Equal(t, "a1", top.Animal.AnimalID)
	assert.Equal(t, "m1", top.Manager.ManagerID)

	// 2. eligibility
	eligibility, err := cae.NewHandler(cae.LoadConfig(), cat, cat, nil, nil, schemas[cae.TaskType], log).
		Execute(ctx, &cae.Input{SeniorID: "7", AnimalID: top.Animal.AnimalID})
	require.NoError(t, err)
	require.True(t, eligibility.Eligible, "reasons: %v", eligibility.Reasons)
	assert.Equal(t, "부산광역시 수영구", eligibility.CityDistrict)

	// 3. record
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`INSERT INTO adoption_applications`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO audit_log`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	recordVars, err := json.Marshal(map[string]interface{}{
		"seniorId":      "7",
		"animalId":      top.Animal.AnimalID,
		"managerId":     top.Manager.ManagerID,
		"visitsPerWeek": 2,
		"days":          []string{"TUE", "THU"},
		"startDate":     "2026-11-03",
	})
	require.NoError(t, err)
	var recordIn car.Input
	require.NoError(t, camunda.Decode(string(recordVars), schemas[car.TaskType], &recordIn))

	record, err := car.NewHandler(car.LoadConfig(), db, schemas[car.TaskType], log).Execute(ctx, &recordIn)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, record.ApplicationStatus)

	// 4. notify
	mock.ExpectQuery(`SELECT a.id`).
		WithArgs(record.ApplicationID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "sn", "sp", "mn", "me", "dn", "sd"}).
			AddRow(record.ApplicationID, "PENDING", "김순자", "010-1234-5678", "이매니저", "lee@matchpet.kr", "448567202600123", "2026-11-03"))

	email := &recorder{}
	sms := &smsRecorder{}
	notify := sn.NewHandler(sn.LoadConfig(config.NotificationConfig{EmailEnabled: true, SMSEnabled: true}),
		db, email, sms, schemas[sn.TaskType], log)
	sent, err := notify.Execute(ctx, &sn.Input{ApplicationID: record.ApplicationID, NotificationType: sn.TypeApplicationSubmitted})
	require.NoError(t, err)

	assert.Equal(t, sn.StatusSent, sent.Status)
	assert.Equal(t, []string{"lee@matchpet.kr"}, email.sent)
	assert.Equal(t, []string{"+821012345678"}, sms.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInputSchemasRejectBadVariables(t *testing.T) {
	reg, err := registry.LoadRegistry("../../configs/activity-registry.json")
	require.NoError(t, err)
	schemas, err := reg.InputSchemas()
	require.NoError(t, err)

	tests := []struct {
		taskType  string
		variables string
	}{
		{rp.TaskType, `{}`},
		{rp.TaskType, `{"seniorId":"7","page":10001}`},
		{car.TaskType, `{"seniorId":"7","animalId":"a1","visitsPerWeek":9}`},
		{sn.TaskType, `{"applicationId":"x","notificationType":"welcome"}`},
		{cae.TaskType, `{"seniorId":"7"}`},
	}
	for _, tt := range tests {
		t.Run(tt.taskType, func(t *testing.T) {
			var dst map[string]interface{}
			err := camunda.Decode(tt.variables, schemas[tt.taskType], &dst)
			assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
		})
	}
}

// ==========================
// Live broker
// ==========================

func TestBrokerTopology(t *testing.T) {
	addr := os.Getenv("ZEEBE_ADDRESS")
	if addr == "" {
		t.Skip("ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := camunda.Connect(ctx, config.CamundaConfig{BrokerAddress: addr}, camunda.Backoff{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     2 * time.Second,
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer client.Close()

	pool := camunda.NewPool(client, logger.NewTestLogger(t))
	defer pool.Close()
	assert.True(t, pool.Start("classify-special-mark", config.WorkerConfig{Enabled: true, MaxJobsActive: 1, Timeout: 1000}, nopHandler{}))
	assert.Equal(t, []string{"classify-special-mark"}, pool.TaskTypes())
}
