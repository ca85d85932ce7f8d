// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/common/validation"
)

var implementationStatuses = map[string]bool{
	"planned":     true,
	"in-progress": true,
	"completed":   true,
	"verified":    true,
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Find returns the activity registered for a task type.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// Validate reports every problem in the registry rather than stopping at the first.
func (r *ActivityRegistry) Validate() []error {
	var problems []error
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)

	for _, a := range r.Activities {
		if a.ID == "" {
			problems = append(problems, fmt.Errorf("activity with taskType %q has no id", a.TaskType))
		} else if ids[a.ID] {
			problems = append(problems, fmt.Errorf("duplicate activity id %q", a.ID))
		}
		ids[a.ID] = true

		if err := validation.ValidateTaskTypeNaming(a.TaskType); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", a.ID, err))
		} else if taskTypes[a.TaskType] {
			problems = append(problems, fmt.Errorf("duplicate taskType %q", a.TaskType))
		}
		taskTypes[a.TaskType] = true

		if !implementationStatuses[a.ImplementationStatus] {
			problems = append(problems, fmt.Errorf("%s: unknown implementationStatus %q", a.ID, a.ImplementationStatus))
		}
		if a.Timeout != "" {
			if _, err := time.ParseDuration(a.Timeout); err != nil {
				problems = append(problems, fmt.Errorf("%s: invalid timeout %q", a.ID, a.Timeout))
			}
		}
		for _, code := range a.ErrorCodes {
			if _, ok := errors.BPMNErrorMapping[errors.ErrorCode(code)]; !ok {
				problems = append(problems, fmt.Errorf("%s: unknown error code %q", a.ID, code))
			}
		}
		if len(a.InputSchema) > 0 {
			if _, err := validation.Compile(a.InputSchema); err != nil {
				problems = append(problems, fmt.Errorf("%s: input schema: %w", a.ID, err))
			}
		}
	}
	return problems
}

// InputSchemas compiles the input schema of every activity that declares one, keyed by task type.
func (r *ActivityRegistry) InputSchemas() (map[string]*validation.Schema, error) {
	out := make(map[string]*validation.Schema, len(r.Activities))
	for _, a := range r.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		s, err := validation.Compile(a.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.TaskType, err)
		}
		out[a.TaskType] = s
	}
	return out, nil
}
