// Package score holds the pure numeric functions used to rank animals,
// managers and animal/manager pairs. Every function is side-effect free.
package score

import (
	"math"

	"matchpet-workers/internal/models"
)

const (
	neutral = 0.5

	mobilityWeight   = 0.45
	visitStyleWeight = 0.35
	techWeight       = 0.20

	experienceWeight  = 0.50
	reliabilityWeight = 0.30
	coverageWeight    = 0.20

	PairPetWeight     = 0.7
	PairManagerWeight = 0.3
)

// Required skill tags derived from an animal's attributes.
const (
	TagHighEnergyHandling   = "high_energy_handling"
	TagBasicActivitySupport = "basic_activity_support"
	TagLowActivityCare      = "low_activity_care"
	TagActivePlay           = "active_play"
	TagShyCare              = "shy_care"
	TagCompanionshipFocus   = "companionship_focus"
	TagDeviceFriendly       = "device_friendly"
)

// OrdinalMatch is 1 - |idx(a)-idx(b)|/2, or 0.5 when either side is unknown.
func OrdinalMatch(a, b models.Level) float64 {
	ia, okA := a.Index()
	ib, okB := b.Index()
	if !okA || !okB {
		return neutral
	}
	d := ia - ib
	if d < 0 {
		d = -d
	}
	return 1 - float64(d)/2
}

func VisitStyleMatch(senior, animal models.Style) float64 {
	if !senior.Known() || !animal.Known() {
		return neutral
	}
	if senior == animal {
		return 1
	}
	if pairOf(senior, animal, models.StyleQuiet, models.StyleActive) {
		return 0
	}
	return neutral
}

func pairOf(a, b, x, y models.Style) bool {
	return (a == x && b == y) || (a == y && b == x)
}

// TechDeviceMatch scores how well a senior's tech comfort handles a device-dependent animal.
func TechDeviceMatch(tech models.Level, deviceRequired bool) float64 {
	if !deviceRequired {
		return 1
	}
	switch tech {
	case models.LevelLow:
		return 0.2
	case models.LevelMid:
		return 0.6
	case models.LevelHigh:
		return 1
	default:
		return neutral
	}
}

// SeniorFit is the subset of a senior profile the pet score depends on.
type SeniorFit struct {
	Mobility    models.Level
	VisitStyle  models.Style
	TechComfort models.Level
}

func FitOf(s *models.Senior) SeniorFit {
	if s == nil {
		return SeniorFit{}
	}
	return SeniorFit{Mobility: s.Mobility, VisitStyle: s.VisitStyle, TechComfort: s.TechComfort}
}

// PetScore returns a value in [0,100].
func PetScore(s SeniorFit, a *models.Animal) float64 {
	v := mobilityWeight*OrdinalMatch(s.Mobility, a.Energy) +
		visitStyleWeight*VisitStyleMatch(s.VisitStyle, a.Temperament) +
		techWeight*TechDeviceMatch(s.TechComfort, a.DeviceRequired)
	return Clamp(100*v, 0, 100)
}

// RequiredTags lists the skills a manager needs to support the animal.
func RequiredTags(energy models.Level, temperament models.Style, deviceRequired bool) models.TagSet {
	tags := models.NewTagSet()
	switch energy {
	case models.LevelHigh:
		tags.Add(TagHighEnergyHandling)
	case models.LevelMid:
		tags.Add(TagBasicActivitySupport)
	case models.LevelLow:
		tags.Add(TagLowActivityCare)
	}
	switch temperament {
	case models.StyleActive:
		tags.Add(TagActivePlay)
	case models.StyleQuiet:
		tags.Add(TagShyCare)
	case models.StyleCompanion:
		tags.Add(TagCompanionshipFocus)
	}
	if deviceRequired {
		tags.Add(TagDeviceFriendly)
	}
	return tags
}

func RequiredTagsFor(a *models.Animal) models.TagSet {
	return RequiredTags(a.Energy, a.Temperament, a.DeviceRequired)
}

// Coverage is the fraction of required tags the manager has.
func Coverage(required, have models.TagSet) float64 {
	if required.Len() == 0 {
		return 1
	}
	if have.Len() == 0 {
		return 0
	}
	n := 0
	for tag := range required {
		if have.Has(tag) {
			n++
		}
	}
	return float64(n) / float64(required.Len())
}

// ManagerScore returns a value in [0,100]. A nil reliability contributes nothing.
func ManagerScore(seniorMobility models.Level, m *models.Manager, required models.TagSet) float64 {
	reliability := 0.0
	if m.Reliability != nil {
		reliability = Clamp01(*m.Reliability)
	}
	v := experienceWeight*OrdinalMatch(seniorMobility, m.Experience) +
		reliabilityWeight*reliability +
		coverageWeight*Coverage(required, m.SkillTags)
	return Clamp(100*v, 0, 100)
}

func PairScore(pet, manager float64) float64 {
	return Clamp(PairPetWeight*pet+PairManagerWeight*manager, 0, 100)
}

func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Clamp bounds v to [lo,hi]; NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds to two decimals for presentation.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
