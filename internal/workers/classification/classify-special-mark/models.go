// internal/workers/classification/classify-special-mark/models.go
package classifyspecialmark

import (
	"matchpet-workers/internal/match/classifier"
	"matchpet-workers/internal/models"
)

type Input struct {
	AnimalID    string `json:"animalId,omitempty"`
	SpecialMark string `json:"specialMark"`
	KindCd      string `json:"kindCd,omitempty"`
	Weight      string `json:"weight,omitempty"`
}

type Output struct {
	AnimalID           string           `json:"animalId,omitempty"`
	Tier               classifier.Tier  `json:"tier"`
	Excluded           bool             `json:"excluded"`
	BeginnerFriendly   bool             `json:"beginnerFriendly"`
	HighActivity       bool             `json:"highActivity"`
	MedicationRequired bool             `json:"medicationRequired"`
	Aggressive         bool             `json:"aggressive"`
	CleanedText        string           `json:"cleanedText"`
	Hits               classifier.Hits  `json:"hits"`
	Species            string           `json:"species,omitempty"`
	Breed              string           `json:"breed,omitempty"`
	SizeClass          models.SizeClass `json:"sizeClass,omitempty"`
}
