package catalog

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"matchpet-workers/internal/models"
)

// ParseSkillTags accepts a JSON array or a comma-separated list.
func ParseSkillTags(raw string) models.TagSet {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return models.NewTagSet()
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return models.NewTagSet(tags...)
		}
		raw = strings.Trim(raw, "[]")
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), `"'`)
	}
	return models.NewTagSet(parts...)
}

// ParsePreferences decodes the stored preference document. A nil result with a
// non-nil error means the document was malformed and must be treated as absent.
func ParsePreferences(raw []byte) (*models.Preferences, error) {
	doc, err := parseDocument(raw)
	if err != nil || doc == nil {
		return nil, err
	}

	p := &models.Preferences{
		Species: stringField(doc, "species", "preferredSpecies"),
		Size:    models.ParseSizeClass(stringField(doc, "size", "preferredSize")),
		Gender:  stringField(doc, "gender", "sex"),
		Traits:  listField(doc, "traits", "traitKeywords", "trait_keywords"),
	}
	if v, ok := boolField(doc, "medicalTolerance", "medical_tolerance"); ok {
		p.MedicalTolerance = &v
	}
	if p.Empty() {
		return nil, nil
	}
	return p, nil
}

func ParseAvailability(raw []byte) (*models.Availability, error) {
	doc, err := parseDocument(raw)
	if err != nil || doc == nil {
		return nil, err
	}

	a := &models.Availability{
		TimeSlots: listField(doc, "timeSlots", "time_slots", "times", "windows"),
		Days:      listField(doc, "days", "weekdays"),
		Note:      stringField(doc, "note", "memo"),
	}
	if a.Empty() {
		return nil, nil
	}
	return a, nil
}

// ParseOverlay decodes {"field": {"value": ..., "confidence": 0-100}}.
func ParseOverlay(raw []byte) (models.Overlay, error) {
	doc, err := parseDocument(raw)
	if err != nil || doc == nil {
		return nil, err
	}
	out := make(models.Overlay, len(doc))
	for field, v := range doc {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		conf, _ := numberField(entry, "confidence", "conf")
		out[field] = models.Inference{
			Value:      stringField(entry, "value"),
			Confidence: int(conf),
		}
	}
	return out, nil
}

func parseDocument(raw []byte) (map[string]interface{}, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	return doc, nil
}

func stringField(doc map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case string:
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}

func listField(doc map[string]interface{}, keys ...string) []string {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case []interface{}:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
			}
			if len(out) > 0 {
				return out
			}
		case string:
			var out []string
			for _, s := range strings.Split(v, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

func boolField(doc map[string]interface{}, keys ...string) (bool, bool) {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case bool:
			return v, true
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b, true
			}
		}
	}
	return false, false
}

func numberField(doc map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := doc[k].(type) {
		case float64:
			return v, true
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

var (
	kindPrefix   = regexp.MustCompile(`^\[([^\]]+)\]\s*`)
	numericOnly  = regexp.MustCompile(`^\d+$`)
	leadingFloat = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)
)

// SanitizeBreed turns a feed kind code such as "[개] 믹스견" into "믹스견".
// Bare numeric codes carry no display value and become "".
func SanitizeBreed(kindCd string) string {
	s := strings.TrimSpace(kindCd)
	if numericOnly.MatchString(s) {
		return ""
	}
	return strings.TrimSpace(kindPrefix.ReplaceAllString(s, ""))
}

// SpeciesOf extracts the bracketed species from a kind code ("[개] 믹스견" -> "개").
func SpeciesOf(kindCd string) string {
	if m := kindPrefix.FindStringSubmatch(strings.TrimSpace(kindCd)); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// SizeClassOf buckets a weight string such as "4.2(Kg)" by its leading number.
func SizeClassOf(weight string) models.SizeClass {
	m := leadingFloat.FindStringSubmatch(weight)
	if m == nil {
		return models.SizeUnknown
	}
	kg, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return models.SizeUnknown
	}
	switch {
	case kg < 5:
		return models.SizeSmall
	case kg < 15:
		return models.SizeMedium
	default:
		return models.SizeLarge
	}
}

// PhotoURL prefers the full-size image over the thumbnail.
func PhotoURL(popfile, filename string) string {
	if p := strings.TrimSpace(popfile); p != "" {
		return p
	}
	return strings.TrimSpace(filename)
}
