// internal/workers/recommendation/recommend-animals/models.go
package recommendanimals

import "matchpet-workers/internal/match/engine"

type Input struct {
	SeniorID string `json:"seniorId"`
	Mode     string `json:"mode,omitempty"`
	Page     int    `json:"page"`
	Size     *int   `json:"size,omitempty"`
}

type Output struct {
	Animals []engine.ScoredAnimal `json:"animals"`
	Page    int                   `json:"page"`
	Size    int                   `json:"size"`
	Total   int                   `json:"total"`
}
