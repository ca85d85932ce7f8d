// internal/workers/application/create-application-record/handler.go
package createapplicationrecord

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"matchpet-workers/internal/common/camunda"
	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/validation"
	"matchpet-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "create-application-record"
)

type Handler struct {
	config *Config
	db     *sql.DB
	schema *validation.Schema
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, schema *validation.Schema, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
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
	if input.VisitsPerWeek < 1 || input.VisitsPerWeek > 7 {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("visitsPerWeek: %d", input.VisitsPerWeek))
	}
	if input.StartDate != "" {
		if _, err := time.Parse("2006-01-02", input.StartDate); err != nil {
			return nil, errors.NewInvalidInputError("startDate: " + input.StartDate)
		}
	}

	// One pending application per senior and animal.
	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM adoption_applications
			WHERE senior_id = $1 AND animal_id = $2 AND status = $3
		)`, input.SeniorID, input.AnimalID, models.ApplicationPending).Scan(&exists)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(fmt.Errorf("duplicate check: %w", err))
	}
	if exists {
		return nil, errors.NewDuplicateApplicationError(input.SeniorID, input.AnimalID)
	}

	appID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	var startDate interface{}
	if input.StartDate != "" {
		startDate = input.StartDate
	}
	var managerID interface{}
	if input.ManagerID != "" {
		managerID = input.ManagerID
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO adoption_applications (
			id, senior_id, animal_id, manager_id, visits_per_week,
			time_range, days, start_date, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		appID,
		input.SeniorID,
		input.AnimalID,
		managerID,
		input.VisitsPerWeek,
		input.TimeRange,
		strings.Join(input.Days, ","),
		startDate,
		models.ApplicationPending,
		createdAt,
	)
	if err != nil {
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	// Audit failures are logged only.
	details, err := json.Marshal(map[string]interface{}{
		"seniorId":      input.SeniorID,
		"animalId":      input.AnimalID,
		"managerId":     input.ManagerID,
		"visitsPerWeek": input.VisitsPerWeek,
	})
	if err != nil {
		details = []byte("{}")
	}
	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"application_created",
		"adoption_application",
		appID,
		details,
		createdAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":         err,
			"applicationId": appID,
		})
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId": appID,
		"seniorId":      input.SeniorID,
		"animalId":      input.AnimalID,
		"managerId":     input.ManagerID,
	})

	return &Output{
		ApplicationID:     appID,
		ApplicationStatus: models.ApplicationPending,
		CreatedAt:         createdAt,
	}, nil
}
