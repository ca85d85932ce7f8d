// internal/common/camunda/job.go
package camunda

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/logger"
	"matchpet-workers/internal/common/metrics"
	"matchpet-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Run tracks one activated job from decoding to its final command.
type Run struct {
	client worker.JobClient
	job    entities.Job
	logger logger.Logger
	start  time.Time
}

func Begin(client worker.JobClient, job entities.Job, log logger.Logger) *Run {
	log.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
		"retries":     job.Retries,
	})
	metrics.WorkerJobsActive.WithLabelValues(job.Type).Inc()
	return &Run{client: client, job: job, logger: log, start: time.Now()}
}

// Decode validates the job variables against schema when one is given, then
// unmarshals them into dst.
func (r *Run) Decode(schema *validation.Schema, dst interface{}) error {
	return Decode(r.job.Variables, schema, dst)
}

func Decode(variables string, schema *validation.Schema, dst interface{}) error {
	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}
	if schema != nil {
		if res := schema.Validate(variables); !res.Valid {
			return errors.NewInvalidInputError(strings.Join(res.GetErrorMessages(), "; "))
		}
	}
	if err := json.Unmarshal([]byte(variables), dst); err != nil {
		return errors.NewInvalidInputError("parse input: " + err.Error())
	}
	return nil
}

func (r *Run) Complete(ctx context.Context, out interface{}) {
	defer r.done()

	cmd, err := r.client.NewCompleteJobCommand().
		JobKey(r.job.Key).
		VariablesFromObject(out)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(r.job.Type).Inc()
	r.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":     r.job.Key,
		"durationMs": time.Since(r.start).Milliseconds(),
	})
}

// Fail reports err to the broker as planned by PlanFailure.
func (r *Run) Fail(ctx context.Context, err error) {
	defer r.done()

	plan := PlanFailure(r.job, err)
	metrics.WorkerJobsFailed.WithLabelValues(r.job.Type, plan.BPMN.Code).Inc()

	r.logger.Error("job failed", map[string]interface{}{
		"jobKey":        r.job.Key,
		"errorCode":     plan.BPMN.Code,
		"errorMessage":  plan.BPMN.Message,
		"details":       plan.BPMN.Details,
		"errorCategory": errors.GetErrorCategory(errors.ErrorCode(plan.BPMN.Code)),
		"retries":       plan.Retries,
		"throw":         plan.Throw,
	})

	vars, _ := json.Marshal(plan.BPMN.ToErrorVariables())

	if plan.Throw {
		cmd := r.client.NewThrowErrorCommand().
			JobKey(r.job.Key).
			ErrorCode(plan.BPMN.Code).
			ErrorMessage(plan.BPMN.Message)
		withVars, varErr := cmd.VariablesFromString(string(vars))
		if varErr != nil {
			_, err = cmd.Send(ctx)
		} else {
			_, err = withVars.Send(ctx)
		}
		if err != nil {
			r.logger.Error("failed to throw error", map[string]interface{}{"error": err})
		}
		return
	}

	cmd := r.client.NewFailJobCommand().
		JobKey(r.job.Key).
		Retries(plan.Retries).
		ErrorMessage(plan.BPMN.Message)
	withVars, varErr := cmd.VariablesFromString(string(vars))
	if varErr != nil {
		_, err = cmd.Send(ctx)
	} else {
		_, err = withVars.Send(ctx)
	}
	if err != nil {
		r.logger.Error("failed to send fail job command", map[string]interface{}{"error": err})
	}
}

func (r *Run) done() {
	metrics.WorkerJobsActive.WithLabelValues(r.job.Type).Dec()
	metrics.WorkerJobDuration.WithLabelValues(r.job.Type).Observe(time.Since(r.start).Seconds())
}

// Failure is how an error is reported back to the broker.
type Failure struct {
	BPMN    *errors.BPMNError
	Retries int32
	Throw   bool
}

// PlanFailure fails retryable errors with a decremented retry count while
// the job has attempts left; business errors and exhausted jobs throw a BPMN
// error the process model can catch.
func PlanFailure(job entities.Job, err error) Failure {
	bpmn := errors.ToBPMN(err)
	if bpmn.Retries <= 0 || job.Retries <= 1 {
		return Failure{BPMN: bpmn, Throw: true}
	}
	remaining := job.Retries - 1
	if int32(bpmn.Retries) < remaining {
		remaining = int32(bpmn.Retries)
	}
	return Failure{BPMN: bpmn, Retries: remaining}
}

// Context derives the per-job context, bounded by timeout and by the job deadline.
func Context(job entities.Job, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx := context.Background()
	if job.Deadline > 0 {
		deadline := time.UnixMilli(job.Deadline)
		if timeout <= 0 || time.Until(deadline) < timeout {
			return context.WithDeadline(ctx, deadline)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
