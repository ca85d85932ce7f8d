package catalog

import (
	"testing"

	"matchpet-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSkillTags(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["High_Energy_Handling", "device_friendly"]`, []string{"device_friendly", "high_energy_handling"}},
		{"csv", "shy_care, device_friendly ,,", []string{"device_friendly", "shy_care"}},
		{"single", "active_play", []string{"active_play"}},
		{"broken json falls back to csv", `["shy_care", "active_play"`, []string{"active_play", "shy_care"}},
		{"empty", "  ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSkillTags(tt.raw).Sorted())
		})
	}
}

func TestParsePreferences(t *testing.T) {
	p, err := ParsePreferences([]byte(`{"species":"개","size":"소형","gender":"F","traits":"온순, 조용함","medical_tolerance":"true"}`))
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "개", p.Species)
	assert.Equal(t, models.SizeSmall, p.Size)
	assert.Equal(t, "F", p.Gender)
	assert.Equal(t, []string{"온순", "조용함"}, p.Traits)
	require.NotNil(t, p.MedicalTolerance)
	assert.True(t, *p.MedicalTolerance)

	p, err = ParsePreferences([]byte(`{"traits":["활발"],"medicalTolerance":false}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"활발"}, p.Traits)
	assert.False(t, *p.MedicalTolerance)

	p, err = ParsePreferences([]byte(`{"unrelated": 1}`))
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = ParsePreferences(nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = ParsePreferences([]byte(`{not json`))
	require.Error(t, err)
	assert.Nil(t, p)
}

func TestParseAvailability(t *testing.T) {
	a, err := ParseAvailability([]byte(`{"time_slots":["morning","evening"],"days":"월,수","note":"산책 가능"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"morning", "evening"}, a.TimeSlots)
	assert.Equal(t, []string{"월", "수"}, a.Days)
	assert.Equal(t, "산책 가능", a.Note)

	a, err = ParseAvailability([]byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, a)

	_, err = ParseAvailability([]byte(`[1,2]`))
	require.Error(t, err)
}

func TestParseOverlay(t *testing.T) {
	o, err := ParseOverlay([]byte(`{"energy":{"value":"HIGH","confidence":80},"temperament":{"value":"QUIET","conf":"55"},"junk":3}`))
	require.NoError(t, err)
	assert.Equal(t, models.Inference{Value: "HIGH", Confidence: 80}, o["energy"])
	assert.Equal(t, models.Inference{Value: "QUIET", Confidence: 55}, o["temperament"])
	_, ok := o["junk"]
	assert.False(t, ok)
}

func TestSanitizeBreedAndSpecies(t *testing.T) {
	assert.Equal(t, "믹스견", SanitizeBreed("[개] 믹스견"))
	assert.Equal(t, "코리안숏헤어", SanitizeBreed("[고양이]코리안숏헤어"))
	assert.Equal(t, "", SanitizeBreed("417000"))
	assert.Equal(t, "푸들", SanitizeBreed(" 푸들 "))

	assert.Equal(t, "개", SpeciesOf("[개] 믹스견"))
	assert.Equal(t, "", SpeciesOf("믹스견"))
}

func TestSizeClassOf(t *testing.T) {
	assert.Equal(t, models.SizeSmall, SizeClassOf("4.2(Kg)"))
	assert.Equal(t, models.SizeMedium, SizeClassOf("5(Kg)"))
	assert.Equal(t, models.SizeMedium, SizeClassOf("14.9"))
	assert.Equal(t, models.SizeLarge, SizeClassOf("22.5(Kg)"))
	assert.Equal(t, models.SizeUnknown, SizeClassOf("미상"))
	assert.Equal(t, models.SizeUnknown, SizeClassOf(""))
}

func TestPhotoURL(t *testing.T) {
	assert.Equal(t, "http://img/pop.jpg", PhotoURL("http://img/pop.jpg", "http://img/thumb.jpg"))
	assert.Equal(t, "http://img/thumb.jpg", PhotoURL(" ", "http://img/thumb.jpg"))
}
