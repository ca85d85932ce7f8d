package engine

import (
	"strconv"
	"strings"

	"matchpet-workers/internal/match/classifier"
	"matchpet-workers/internal/match/score"
	"matchpet-workers/internal/models"
)

// Adjustment is one signed score contribution with its explanation.
type Adjustment struct {
	Delta  float64
	Reason string
}

func (a Adjustment) String() string {
	d := strconv.FormatFloat(a.Delta, 'f', -1, 64)
	if a.Delta >= 0 {
		d = "+" + d
	}
	return a.Reason + " " + d
}

// RuleInput is everything a scoring rule may look at for one candidate.
type RuleInput struct {
	Senior *models.Senior
	Fit    score.SeniorFit
	Animal *models.Animal
	Risk   classifier.Result
}

func (in *RuleInput) preferences() *models.Preferences {
	if in.Senior == nil || in.Senior.Preferences == nil {
		return &models.Preferences{}
	}
	return in.Senior.Preferences
}

func (in *RuleInput) availability() *models.Availability {
	if in.Senior == nil {
		return nil
	}
	return in.Senior.Availability
}

// Rule turns a candidate into zero or more adjustments.
type Rule func(in *RuleInput) []Adjustment

const (
	greenBase   = 30
	cautionBase = 15

	speciesMatch, speciesMismatch = 3, -2
	sizeMatch, sizeMismatch       = 2, -2
	genderMatch, genderMismatch   = 2, -2
	traitMatch                    = 3
	medicalTolerant               = 2
	medicalIntolerant             = -3

	walkWindowFit      = 3
	walkWindowMissing  = -3
	availabilityOnFile = 1

	beginnerBonus   = 3
	scarcityPenalty = -5
)

// DefaultRules returns the standard rule chain, with overlay rules appended before
// the information-scarcity penalty.
func DefaultRules(overlay []OverlayRule) []Rule {
	rules := []Rule{TierRule, PreferenceRule, TimeFitRule, BeginnerRule}
	for _, o := range overlay {
		rules = append(rules, o.Rule())
	}
	return append(rules, ScarcityRule)
}

func TierRule(in *RuleInput) []Adjustment {
	switch in.Risk.Tier {
	case classifier.TierGreen:
		return []Adjustment{{greenBase, "GREEN tier"}}
	case classifier.TierCaution:
		return []Adjustment{{cautionBase, "CAUTION tier"}}
	case classifier.TierLimitBehavior:
		return []Adjustment{{0, "LIMIT_BEHAVIOR tier"}}
	}
	return nil
}

func PreferenceRule(in *RuleInput) []Adjustment {
	p := in.preferences()
	a := in.Animal
	var out []Adjustment

	if p.Species != "" && a.Species != "" {
		if strings.Contains(strings.ToLower(a.Species), strings.ToLower(strings.TrimSpace(p.Species))) {
			out = append(out, Adjustment{speciesMatch, "species match"})
		} else {
			out = append(out, Adjustment{speciesMismatch, "species mismatch"})
		}
	}

	if p.Size != models.SizeUnknown && a.Size != models.SizeUnknown {
		if p.Size == a.Size {
			out = append(out, Adjustment{sizeMatch, "size match"})
		} else {
			out = append(out, Adjustment{sizeMismatch, "size mismatch"})
		}
	}

	if want, have := normalizeSex(p.Gender), normalizeSex(a.Sex); want != "" && have != "" {
		if want == have {
			out = append(out, Adjustment{genderMatch, "gender match"})
		} else {
			out = append(out, Adjustment{genderMismatch, "gender mismatch"})
		}
	}

	note := strings.ToLower(in.Risk.CleanedText)
	for _, trait := range p.Traits {
		trait = strings.ToLower(strings.TrimSpace(trait))
		if trait != "" && strings.Contains(note, trait) {
			out = append(out, Adjustment{traitMatch, "trait " + trait})
			break
		}
	}

	if p.MedicalTolerance != nil && in.Risk.MedicationRequired {
		if *p.MedicalTolerance {
			out = append(out, Adjustment{medicalTolerant, "medication tolerated"})
		} else {
			out = append(out, Adjustment{medicalIntolerant, "medication not preferred"})
		}
	}
	return out
}

func normalizeSex(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE", "수컷":
		return "M"
	case "F", "FEMALE", "암컷":
		return "F"
	default:
		return ""
	}
}

var walkWindows = []string{"morning", "evening", "walk", "아침", "오전", "저녁", "산책"}

// TimeFitRule weighs the senior's availability against the animal's activity level.
func TimeFitRule(in *RuleInput) []Adjustment {
	avail := in.availability()
	active := in.Risk.HighActivity || in.Animal.Energy == models.LevelHigh

	if active {
		if hasWalkWindow(avail) {
			return []Adjustment{{walkWindowFit, "walk window fits"}}
		}
		return []Adjustment{{walkWindowMissing, "no walk window"}}
	}
	if !avail.Empty() {
		return []Adjustment{{availabilityOnFile, "availability on file"}}
	}
	return nil
}

func hasWalkWindow(a *models.Availability) bool {
	if a.Empty() {
		return false
	}
	text := strings.ToLower(strings.Join(a.TimeSlots, " ") + " " + a.Note)
	for _, w := range walkWindows {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func BeginnerRule(in *RuleInput) []Adjustment {
	if in.Risk.BeginnerFriendly {
		return []Adjustment{{beginnerBonus, "beginner friendly"}}
	}
	return nil
}

// ScarcityRule penalizes candidates scored with no note and no senior payloads.
func ScarcityRule(in *RuleInput) []Adjustment {
	if in.Risk.CleanedText == "" && in.preferences().Empty() && in.availability().Empty() {
		return []Adjustment{{scarcityPenalty, "sparse information"}}
	}
	return nil
}

// OverlayRule nudges the score from one inferred animal attribute. The delta is
// Weight scaled by the inference confidence (0-100).
type OverlayRule struct {
	Field     string
	Reason    string
	Weight    float64
	Predicate func(in *RuleInput, value string) bool
}

func (o OverlayRule) Rule() Rule {
	return func(in *RuleInput) []Adjustment {
		inf, ok := in.Animal.Overlay[o.Field]
		if !ok || inf.Confidence <= 0 || o.Predicate == nil {
			return nil
		}
		if !o.Predicate(in, inf.Value) {
			return nil
		}
		conf := score.Clamp(float64(inf.Confidence), 0, 100)
		delta := score.Round2(o.Weight * conf / 100)
		if delta == 0 {
			return nil
		}
		return []Adjustment{{delta, o.Reason}}
	}
}

func DefaultOverlayRules() []OverlayRule {
	return []OverlayRule{
		{
			Field:  "energy",
			Reason: "inferred energy suits mobility",
			Weight: 3,
			Predicate: func(in *RuleInput, v string) bool {
				l := models.ParseLevel(v)
				return l.Known() && in.Fit.Mobility.Known() && l == in.Fit.Mobility
			},
		},
		{
			Field:  "energy",
			Reason: "inferred energy opposes mobility",
			Weight: -3,
			Predicate: func(in *RuleInput, v string) bool {
				l := models.ParseLevel(v)
				return l.Known() && in.Fit.Mobility.Known() && score.OrdinalMatch(in.Fit.Mobility, l) == 0
			},
		},
		{
			Field:  "temperament",
			Reason: "inferred temperament suits visit style",
			Weight: 3,
			Predicate: func(in *RuleInput, v string) bool {
				s := models.ParseStyle(v)
				return s.Known() && s == in.Fit.VisitStyle
			},
		},
		{
			Field:  "beginnerFriendly",
			Reason: "inferred beginner friendly",
			Weight: 2,
			Predicate: func(in *RuleInput, v string) bool {
				ok, err := strconv.ParseBool(strings.TrimSpace(v))
				return err == nil && ok && in.Senior != nil && !in.Senior.HasPetExperience
			},
		},
	}
}
