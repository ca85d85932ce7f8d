// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"matchpet-workers/internal/common/camunda"
	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-notification"
)

type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

type SMSSender interface {
	Send(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config    *Config
	db        *sql.DB
	email     EmailSender
	sms       SMSSender
	templates map[string]template
	schema    *validation.Schema
	logger    logger.Logger
}

func NewHandler(config *Config, db *sql.DB, email EmailSender, sms SMSSender, schema *validation.Schema, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		db:        db,
		email:     email,
		sms:       sms,
		templates: loadTemplates(),
		schema:    schema,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

// Execute sends the manager email and the senior SMS for the application.
// A channel that is disabled or has no address is skipped. The job fails
// only when every attempted channel fails.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	tmpl, ok := h.templates[input.NotificationType]
	if !ok {
		return nil, errors.NewTemplateNotFoundError(input.NotificationType)
	}

	rcpt, err := h.lookupRecipients(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}

	data := map[string]interface{}{
		"applicationId": rcpt.ApplicationID,
		"status":        rcpt.Status,
		"seniorName":    rcpt.SeniorName,
		"managerName":   rcpt.ManagerName,
		"desertionNo":   rcpt.DesertionNo,
		"startDate":     rcpt.StartDate,
	}
	for k, v := range input.Metadata {
		data[k] = v
	}

	out := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	var (
		attempted int
		lastErr   error
	)

	if h.config.EmailEnabled && h.email != nil && rcpt.ManagerEmail != "" {
		attempted++
		subject := renderTemplate(tmpl.Subject, data)
		body := renderTemplate(tmpl.Body, data)
		if _, err := h.email.Send(ctx, rcpt.ManagerEmail, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error":         err,
				"applicationId": rcpt.ApplicationID,
			})
			lastErr = err
		} else {
			out.EmailSent = true
		}
	}

	if h.config.SMSEnabled && h.sms != nil && rcpt.SeniorPhone != "" {
		attempted++
		phone := validation.ToE164(rcpt.SeniorPhone)
		if _, err := h.sms.Send(ctx, phone, renderTemplate(tmpl.SMS, data)); err != nil {
			h.logger.Error("SMS send failed", map[string]interface{}{
				"error":         err,
				"applicationId": rcpt.ApplicationID,
			})
			lastErr = err
		} else {
			out.SMSSent = true
		}
	}

	if attempted > 0 && !out.EmailSent && !out.SMSSent {
		return nil, errors.NewNotificationSendFailedError(input.NotificationType, lastErr)
	}
	if out.EmailSent || out.SMSSent {
		out.Status = StatusSent
	}

	h.logger.Info("notification processed", map[string]interface{}{
		"applicationId":    rcpt.ApplicationID,
		"notificationType": input.NotificationType,
		"status":           out.Status,
		"emailSent":        out.EmailSent,
		"smsSent":          out.SMSSent,
	})
	return out, nil
}

const recipientQuery = `
	SELECT a.id, COALESCE(a.status, ''),
	       COALESCE(s.name, ''), COALESCE(s.phone, ''),
	       COALESCE(m.name, ''), COALESCE(m.email, ''),
	       COALESCE(an.desertion_no, ''), COALESCE(a.start_date::text, '')
	FROM adoption_applications a
	JOIN seniors s ON s.id = a.senior_id
	LEFT JOIN managers m ON m.id = a.manager_id
	LEFT JOIN animals an ON an.id = a.animal_id
	WHERE a.id = $1`

func (h *Handler) lookupRecipients(ctx context.Context, applicationID string) (*recipients, error) {
	var r recipients
	err := h.db.QueryRowContext(ctx, recipientQuery, applicationID).Scan(
		&r.ApplicationID, &r.Status,
		&r.SeniorName, &r.SeniorPhone,
		&r.ManagerName, &r.ManagerEmail,
		&r.DesertionNo, &r.StartDate,
	)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return nil, errors.NewResourceNotFoundError("adoption_applications", "id: "+applicationID)
	case err != nil:
		return nil, errors.NewQueryExecutionFailedError("lookup_recipients", err)
	}
	return &r, nil
}

// renderTemplate substitutes {{key}} placeholders; unknown placeholders render empty.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		switch t := v.(type) {
		case string:
			value = t
		case nil:
		default:
			value = fmt.Sprintf("%v", t)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}

func loadTemplates() map[string]template {
	return map[string]template{
		TypeApplicationSubmitted: {
			Subject: "[매치펫] 새 돌봄 신청이 접수되었습니다",
			Body:    "{{managerName}} 매니저님, {{seniorName}} 어르신의 돌봄 신청({{applicationId}})이 접수되었습니다. 공고번호: {{desertionNo}}",
			SMS:     "[매치펫] {{seniorName}}님의 돌봄 신청이 접수되었습니다. 검토 후 연락드리겠습니다.",
		},
		TypeApplicationApproved: {
			Subject: "[매치펫] 돌봄 신청이 승인되었습니다",
			Body:    "{{managerName}} 매니저님, 신청 {{applicationId}}이 승인되었습니다. 시작일: {{startDate}}",
			SMS:     "[매치펫] {{seniorName}}님의 돌봄 신청이 승인되었습니다. 시작일: {{startDate}}",
		},
		TypeApplicationRejected: {
			Subject: "[매치펫] 돌봄 신청이 반려되었습니다",
			Body:    "{{managerName}} 매니저님, 신청 {{applicationId}}이 반려되었습니다. 사유: {{reason}}",
			SMS:     "[매치펫] {{seniorName}}님의 돌봄 신청이 반려되었습니다. 사유: {{reason}}",
		},
	}
}
