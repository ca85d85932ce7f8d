// internal/workers/recommendation/recommend-managers/models.go
package recommendmanagers

import "matchpet-workers/internal/match/engine"

type Input struct {
	SeniorID string `json:"seniorId"`
	AnimalID string `json:"animalId"`
	Page     int    `json:"page"`
	Size     *int   `json:"size,omitempty"`
}

type Output struct {
	Managers []engine.ScoredManager `json:"managers"`
	Page     int                    `json:"page"`
	Size     int                    `json:"size"`
	Total    int                    `json:"total"`
}
