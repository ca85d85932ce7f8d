// internal/models/levels.go
package models

import "strings"

// Level is an ordinal LOW/MID/HIGH attribute. The zero value means unknown.
type Level string

const (
	LevelUnknown Level = ""
	LevelLow     Level = "LOW"
	LevelMid     Level = "MID"
	LevelHigh    Level = "HIGH"
)

// ParseLevel maps a stored token to a Level; unrecognized tokens become LevelUnknown.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return LevelLow
	case "MID", "MEDIUM":
		return LevelMid
	case "HIGH":
		return LevelHigh
	default:
		return LevelUnknown
	}
}

// Index returns 0/1/2 for LOW/MID/HIGH and false when unknown.
func (l Level) Index() (int, bool) {
	switch l {
	case LevelLow:
		return 0, true
	case LevelMid:
		return 1, true
	case LevelHigh:
		return 2, true
	default:
		return 0, false
	}
}

func (l Level) Known() bool {
	_, ok := l.Index()
	return ok
}

// Style is the shared vocabulary of a senior's preferred visit style and an animal's temperament.
type Style string

const (
	StyleUnknown   Style = ""
	StyleQuiet     Style = "QUIET"
	StyleActive    Style = "ACTIVE"
	StyleCompanion Style = "COMPANION"
)

func ParseStyle(s string) Style {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "QUIET":
		return StyleQuiet
	case "ACTIVE":
		return StyleActive
	case "COMPANION":
		return StyleCompanion
	default:
		return StyleUnknown
	}
}

func (s Style) Known() bool {
	return s == StyleQuiet || s == StyleActive || s == StyleCompanion
}

type AnimalStatus string

const (
	StatusAvailable AnimalStatus = "AVAILABLE"
	StatusPending   AnimalStatus = "PENDING"
	StatusMatched   AnimalStatus = "MATCHED"
	StatusAdopted   AnimalStatus = "ADOPTED"
)

// ParseAnimalStatus upper-cases the token. Unknown tokens are kept so callers can log them.
func ParseAnimalStatus(s string) AnimalStatus {
	return AnimalStatus(strings.ToUpper(strings.TrimSpace(s)))
}

type SizeClass string

const (
	SizeUnknown SizeClass = ""
	SizeSmall   SizeClass = "small"
	SizeMedium  SizeClass = "medium"
	SizeLarge   SizeClass = "large"
)

func ParseSizeClass(s string) SizeClass {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "소형":
		return SizeSmall
	case "medium", "중형":
		return SizeMedium
	case "large", "대형":
		return SizeLarge
	default:
		return SizeUnknown
	}
}
