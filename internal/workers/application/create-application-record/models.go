// internal/workers/application/create-application-record/models.go
package createapplicationrecord

import "matchpet-workers/internal/models"

type Input struct {
	SeniorID      string   `json:"seniorId"`
	AnimalID      string   `json:"animalId"`
	ManagerID     string   `json:"managerId,omitempty"`
	VisitsPerWeek int      `json:"visitsPerWeek"`
	TimeRange     string   `json:"timeRange,omitempty"`
	Days          []string `json:"days,omitempty"`
	StartDate     string   `json:"startDate,omitempty"` // YYYY-MM-DD
}

type Output struct {
	ApplicationID     string                   `json:"applicationId"`
	ApplicationStatus models.ApplicationStatus `json:"applicationStatus"`
	CreatedAt         string                   `json:"createdAt"` // ISO 8601
}
