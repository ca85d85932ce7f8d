// internal/models/application.go
package models

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "PENDING"
	ApplicationApproved ApplicationStatus = "APPROVED"
	ApplicationRejected ApplicationStatus = "REJECTED"
)

type Application struct {
	ID            string            `json:"id"`
	SeniorID      string            `json:"seniorId"`
	AnimalID      string            `json:"animalId"`
	ManagerID     string            `json:"managerId,omitempty"`
	VisitsPerWeek int               `json:"visitsPerWeek"`
	TimeRange     string            `json:"timeRange,omitempty"`
	Days          []string          `json:"days,omitempty"`
	StartDate     string            `json:"startDate,omitempty"`
	Status        ApplicationStatus `json:"status"`
	CreatedAt     string            `json:"createdAt"`
}
