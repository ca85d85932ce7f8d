// internal/models/manager.go
package models

type Manager struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Intro       string   `json:"intro,omitempty"`
	PhotoURL    string   `json:"photoUrl,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Email       string   `json:"email,omitempty"`
	Experience  Level    `json:"experience"`
	Reliability *float64 `json:"reliability,omitempty"`
	SkillTags   TagSet   `json:"skillTags"`
}
