package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords is the keyword configuration a Classifier is built from. Matching is
// a case-insensitive substring test against the cleaned note.
type Keywords struct {
	Block            []string `yaml:"block"`
	HoldMedical      []string `yaml:"hold_medical"`
	LimitBehavior    []string `yaml:"limit_behavior"`
	BeginnerFriendly []string `yaml:"beginner_friendly"`
	HighActivity     []string `yaml:"high_activity"`
	Medication       []string `yaml:"medication"`
	// Noise holds regular expressions removed before matching.
	Noise []string `yaml:"noise"`
}

func DefaultKeywords() Keywords {
	return Keywords{
		Block: []string{
			"교상", "공격", "사납", "무는", "입질 심함", "광견", "심각한 공격성",
		},
		HoldMedical: []string{
			"파보", "전염", "격리", "치료 중", "치료중", "수술 예정", "감염", "폐렴", "입원",
		},
		LimitBehavior: []string{
			"분리불안", "지속 짖음", "짖음 심함", "배변 훈련 안됨", "활동량 많음",
			"견인 강함", "경계 심함", "산책 교육 필요",
		},
		BeginnerFriendly: []string{
			"온순", "순함", "사람 좋아함", "착함", "순둥", "적응 빠름", "기본 훈련", "소형",
		},
		HighActivity: []string{
			"활발", "에너지", "산책 많이", "대형", "하이퍼", "견인",
		},
		Medication: []string{
			"투약", "복약", "약 복용", "약 먹", "치료 중", "치료중",
		},
		Noise: []string{
			`주소[:：].*`,
			`전화[:：].*`,
			`\d{2,4}-\d{2,4}-\d{3,4}`,
		},
	}
}

// LoadKeywords reads a YAML keyword file. Sections missing from the file keep
// their default values.
func LoadKeywords(path string) (Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, fmt.Errorf("read keywords %s: %w", path, err)
	}

	var file Keywords
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Keywords{}, fmt.Errorf("parse keywords %s: %w", path, err)
	}

	kw := DefaultKeywords()
	overlay(&kw.Block, file.Block)
	overlay(&kw.HoldMedical, file.HoldMedical)
	overlay(&kw.LimitBehavior, file.LimitBehavior)
	overlay(&kw.BeginnerFriendly, file.BeginnerFriendly)
	overlay(&kw.HighActivity, file.HighActivity)
	overlay(&kw.Medication, file.Medication)
	overlay(&kw.Noise, file.Noise)
	return kw, nil
}

func overlay(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = src
	}
}
