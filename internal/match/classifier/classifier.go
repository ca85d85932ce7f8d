// Package classifier assigns a risk tier and trait flags to a shelter animal's
// free-text behavioral note.
package classifier

import (
	"fmt"
	"regexp"
	"strings"
)

type Tier string

const (
	TierBlock         Tier = "BLOCK"
	TierHoldMedical   Tier = "HOLD_MEDICAL"
	TierLimitBehavior Tier = "LIMIT_BEHAVIOR"
	TierCaution       Tier = "CAUTION"
	TierGreen         Tier = "GREEN"
)

// Excluded reports whether the tier removes a candidate in every mode.
func (t Tier) Excluded() bool {
	return t == TierBlock || t == TierHoldMedical
}

type Result struct {
	Tier               Tier   `json:"tier"`
	BeginnerFriendly   bool   `json:"beginnerFriendly"`
	HighActivity       bool   `json:"highActivity"`
	MedicationRequired bool   `json:"medicationRequired"`
	Aggressive         bool   `json:"aggressive"`
	CleanedText        string `json:"cleanedText"`
	Hits               Hits   `json:"hits"`
}

type Hits struct {
	Block         int `json:"block"`
	HoldMedical   int `json:"holdMedical"`
	LimitBehavior int `json:"limitBehavior"`
}

// Classifier is a pure function of its keyword configuration; it holds no
// mutable state and may be shared across goroutines.
type Classifier struct {
	block            []string
	holdMedical      []string
	limitBehavior    []string
	beginnerFriendly []string
	highActivity     []string
	medication       []string
	noise            []*regexp.Regexp
}

var whitespace = regexp.MustCompile(`\s+`)

func New(kw Keywords) (*Classifier, error) {
	c := &Classifier{
		block:            lowerAll(kw.Block),
		holdMedical:      lowerAll(kw.HoldMedical),
		limitBehavior:    lowerAll(kw.LimitBehavior),
		beginnerFriendly: lowerAll(kw.BeginnerFriendly),
		highActivity:     lowerAll(kw.HighActivity),
		medication:       lowerAll(kw.Medication),
	}
	for _, pattern := range kw.Noise {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile noise pattern %q: %w", pattern, err)
		}
		c.noise = append(c.noise, re)
	}
	return c, nil
}

// Default returns a classifier over DefaultKeywords.
func Default() *Classifier {
	c, err := New(DefaultKeywords())
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Classifier) Classify(raw string) Result {
	cleaned := c.Clean(raw)
	text := strings.ToLower(cleaned)

	hits := Hits{
		Block:         countHits(text, c.block),
		HoldMedical:   countHits(text, c.holdMedical),
		LimitBehavior: countHits(text, c.limitBehavior),
	}

	res := Result{
		CleanedText:        cleaned,
		Hits:               hits,
		Aggressive:         hits.Block > 0,
		BeginnerFriendly:   countHits(text, c.beginnerFriendly) > 0,
		HighActivity:       countHits(text, c.highActivity) > 0,
		MedicationRequired: countHits(text, c.medication) > 0,
	}

	switch {
	case hits.Block > 0:
		res.Tier = TierBlock
	case hits.HoldMedical > 0:
		res.Tier = TierHoldMedical
	case hits.LimitBehavior > 0:
		res.Tier = TierLimitBehavior
	case cleaned == "":
		res.Tier = TierCaution
	default:
		res.Tier = TierGreen
	}
	return res
}

// Clean removes address lines, phone lines and phone numbers, then collapses whitespace.
func (c *Classifier) Clean(raw string) string {
	s := raw
	for _, re := range c.noise {
		s = re.ReplaceAllString(s, " ")
	}
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func countHits(text string, keywords []string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
