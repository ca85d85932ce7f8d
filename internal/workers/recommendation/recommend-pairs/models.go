// internal/workers/recommendation/recommend-pairs/models.go
package recommendpairs

import "matchpet-workers/internal/match/engine"

type Input struct {
	SeniorID string `json:"seniorId"`
	Page     int    `json:"page"`
	Size     *int   `json:"size,omitempty"`
}

type Output struct {
	Pairs []engine.ScoredPair `json:"pairs"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
	Total int                 `json:"total"`
}
