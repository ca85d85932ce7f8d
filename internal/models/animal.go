// internal/models/animal.go
package models

import "strings"

// ProtectedState is the shelter process state that keeps a PENDING animal eligible.
const ProtectedState = "보호중"

type Animal struct {
	ID             string       `json:"id"`
	DesertionNo    string       `json:"desertionNo,omitempty"`
	ShelterAddress string       `json:"shelterAddress"`
	Status         AnimalStatus `json:"status"`
	ProcessState   string       `json:"processState,omitempty"`
	SpecialMark    string       `json:"specialMark,omitempty"`
	Species        string       `json:"species,omitempty"`
	Breed          string       `json:"breed,omitempty"`
	Sex            string       `json:"sex,omitempty"`
	Age            string       `json:"age,omitempty"`
	Weight         string       `json:"weight,omitempty"`
	Size           SizeClass    `json:"size,omitempty"`
	PhotoURL       string       `json:"photoUrl,omitempty"`
	Energy         Level        `json:"energy"`
	Temperament    Style        `json:"temperament"`
	DeviceRequired bool         `json:"deviceRequired"`
	Overlay        Overlay      `json:"overlay,omitempty"`
}

// StatusEligible reports whether the animal can be recommended at all:
// AVAILABLE, or PENDING while the shelter still reports it as protected.
func (a *Animal) StatusEligible() bool {
	switch a.Status {
	case StatusAvailable:
		return true
	case StatusPending:
		return strings.Contains(a.ProcessState, ProtectedState)
	default:
		return false
	}
}

// Overlay holds inferred attributes keyed by field name.
type Overlay map[string]Inference

type Inference struct {
	Value      string `json:"value"`
	Confidence int    `json:"confidence"` // 0-100
}
