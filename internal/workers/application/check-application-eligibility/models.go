// internal/workers/application/check-application-eligibility/models.go
package checkapplicationeligibility

import "matchpet-workers/internal/match/classifier"

type Input struct {
	SeniorID string `json:"seniorId"`
	AnimalID string `json:"animalId"`
}

type Output struct {
	Eligible     bool            `json:"eligible"`
	Reasons      []string        `json:"reasons"`
	Tier         classifier.Tier `json:"tier"`
	CityDistrict string          `json:"cityDistrict,omitempty"`
}

// Ineligibility reasons
const (
	ReasonTermsNotAgreed    = "terms not agreed"
	ReasonBodycamNotAgreed  = "bodycam not agreed"
	ReasonAnimalUnavailable = "animal not in protection"
	ReasonOutsideMetro      = "address outside service area"
	ReasonDistrictMismatch  = "shelter in a different district"
	ReasonAnimalBlocked     = "animal excluded by risk tier"
	ReasonExperienceNeeded  = "animal requires an experienced carer"
)
