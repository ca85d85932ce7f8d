// internal/models/senior.go
package models

type Senior struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Phone            string        `json:"phone,omitempty"`
	Address          string        `json:"address"`
	Mobility         Level         `json:"mobility"`
	VisitStyle       Style         `json:"visitStyle"`
	TechComfort      Level         `json:"techComfort"`
	HasPetExperience bool          `json:"hasPetExperience"`
	TermsAgreed      bool          `json:"termsAgreed"`
	BodycamAgreed    bool          `json:"bodycamAgreed"`
	Preferences      *Preferences  `json:"preferences,omitempty"`
	Availability     *Availability `json:"availability,omitempty"`
	Predictions      *Predictions  `json:"predictions,omitempty"`
}

func (s *Senior) Consented() bool {
	return s.TermsAgreed && s.BodycamAgreed
}

// Preferences is the optional structured preference document.
type Preferences struct {
	Species          string    `json:"species,omitempty"`
	Size             SizeClass `json:"size,omitempty"`
	Gender           string    `json:"gender,omitempty"` // "M" or "F"
	Traits           []string  `json:"traits,omitempty"`
	MedicalTolerance *bool     `json:"medicalTolerance,omitempty"`
}

func (p *Preferences) Empty() bool {
	return p == nil || (p.Species == "" && p.Size == SizeUnknown && p.Gender == "" &&
		len(p.Traits) == 0 && p.MedicalTolerance == nil)
}

// Availability is the optional care-availability document.
type Availability struct {
	TimeSlots []string `json:"timeSlots,omitempty"`
	Days      []string `json:"days,omitempty"`
	Note      string   `json:"note,omitempty"`
}

func (a *Availability) Empty() bool {
	return a == nil || (len(a.TimeSlots) == 0 && len(a.Days) == 0 && a.Note == "")
}

// Predictions are model-inferred values for fields the senior left blank.
type Predictions struct {
	Mobility    Prediction `json:"mobility"`
	VisitStyle  Prediction `json:"visitStyle"`
	TechComfort Prediction `json:"techComfort"`
}

type Prediction struct {
	Value      string `json:"value,omitempty"`
	Confidence int    `json:"confidence"` // 0-100
}
