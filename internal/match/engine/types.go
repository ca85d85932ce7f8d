package engine

import (
	"context"
	"math"
	"strings"

	"matchpet-workers/internal/common/errors"
	"matchpet-workers/internal/match/classifier"
	"matchpet-workers/internal/models"
)

// SeniorSource looks up senior profiles. A missing senior is reported as a
// RESOURCE_NOT_FOUND StandardError.
type SeniorSource interface {
	GetSenior(ctx context.Context, id string) (*models.Senior, error)
}

// AnimalSource returns animals whose status is available or protected. ListCandidates
// narrows to one "metro district" key; the engine still applies every hard filter.
type AnimalSource interface {
	GetAnimal(ctx context.Context, id string) (*models.Animal, error)
	ListCandidates(ctx context.Context, district string, limit int) ([]*models.Animal, error)
}

type ManagerSource interface {
	ListManagers(ctx context.Context) ([]*models.Manager, error)
}

type Mode string

const (
	ModeConservative    Mode = "conservative"
	ModeBalanced        Mode = "balanced"
	ModeManagerAssisted Mode = "manager_assisted"
)

// ParseMode accepts the three mode tokens; an empty token means balanced.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBalanced:
		return ModeBalanced, nil
	case ModeConservative:
		return ModeConservative, nil
	case ModeManagerAssisted:
		return ModeManagerAssisted, nil
	default:
		return "", errors.NewInvalidModeError(s)
	}
}

// AdmitsLimitBehavior reports whether LIMIT_BEHAVIOR animals may be recommended.
func (m Mode) AdmitsLimitBehavior() bool {
	return m == ModeManagerAssisted
}

type PageRequest struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

func (r PageRequest) normalize(maxSize int) (PageRequest, error) {
	if r.Page < 0 || r.Size <= 0 {
		return r, errors.NewInvalidPageError(r.Page, r.Size)
	}
	if maxSize > 0 && r.Size > maxSize {
		r.Size = maxSize
	}
	// (Page+1)*Size must fit in an int.
	if r.Page > math.MaxInt/r.Size-1 {
		return r, errors.NewInvalidPageError(r.Page, r.Size)
	}
	return r, nil
}

func (r PageRequest) end() int {
	return (r.Page + 1) * r.Size
}

type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
}

func paginate[T any](items []T, req PageRequest) *Page[T] {
	p := &Page[T]{Items: []T{}, Page: req.Page, Size: req.Size, Total: len(items)}
	start := req.Page * req.Size
	if start >= len(items) {
		return p
	}
	p.Items = items[start:min(req.end(), len(items))]
	return p
}

func emptyPage[T any](req PageRequest) *Page[T] {
	return paginate[T](nil, req)
}

type ScoredAnimal struct {
	AnimalID       string              `json:"animalId"`
	DesertionNo    string              `json:"desertionNo,omitempty"`
	Species        string              `json:"species,omitempty"`
	Breed          string              `json:"breed,omitempty"`
	Sex            string              `json:"sex,omitempty"`
	Age            string              `json:"age,omitempty"`
	Size           models.SizeClass    `json:"size,omitempty"`
	PhotoURL       string              `json:"photoUrl,omitempty"`
	ShelterAddress string              `json:"shelterAddress"`
	CityDistrict   string              `json:"cityDistrict"`
	Status         models.AnimalStatus `json:"status"`
	Tier           classifier.Tier     `json:"tier"`
	PetScore       float64             `json:"petScore"`
	Score          float64             `json:"score"`
	Reason         string              `json:"reason"`
}

type ScoredManager struct {
	ManagerID   string       `json:"managerId"`
	Name        string       `json:"name"`
	Intro       string       `json:"intro,omitempty"`
	PhotoURL    string       `json:"photoUrl,omitempty"`
	Experience  models.Level `json:"experience"`
	Reliability *float64     `json:"reliability,omitempty"`
	SkillTags   []string     `json:"skillTags"`
	Coverage    float64      `json:"coverage"`
	Score       float64      `json:"score"`
	Reason      string       `json:"reason"`
}

type ScoredPair struct {
	Animal       ScoredAnimal  `json:"animal"`
	Manager      ScoredManager `json:"manager"`
	PetScore     float64       `json:"petScore"`
	ManagerScore float64       `json:"managerScore"`
	Score        float64       `json:"score"`
	Reason       string        `json:"reason"`
}
