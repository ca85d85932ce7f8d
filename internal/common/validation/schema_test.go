package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pageSchema = `{
  "type": "object",
  "required": ["seniorId"],
  "properties": {
    "seniorId": {"type": "string", "minLength": 1},
    "mode": {"type": "string", "enum": ["conservative", "balanced", "manager_assisted", ""]},
    "page": {"type": "integer", "minimum": 0},
    "size": {"type": "integer", "minimum": 1}
  }
}`

func TestSchema_Validate(t *testing.T) {
	s, err := CompileString(pageSchema)
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     string
		valid   bool
		errorAt string
	}{
		{"valid", `{"seniorId":"7","mode":"balanced","page":0,"size":10}`, true, ""},
		{"missing senior", `{"page":0}`, false, "(root)"},
		{"bad mode", `{"seniorId":"7","mode":"reckless"}`, false, "mode"},
		{"negative page", `{"seniorId":"7","page":-1}`, false, "page"},
		{"malformed json", `{"seniorId":`, false, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.Validate(tt.raw)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.errorAt != "" {
				assert.True(t, res.HasErrors(tt.errorAt), "errors: %v", res.GetErrorMessages())
			}
		})
	}
}

func TestSchema_ValidateInput(t *testing.T) {
	s, err := Compile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"animalId"},
	})
	require.NoError(t, err)

	assert.True(t, s.ValidateInput(map[string]interface{}{"animalId": "a1"}).Valid)
	res := s.ValidateInput(map[string]interface{}{})
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.GetErrorMessages())
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := CompileString(`{"type": 12}`)
	assert.Error(t, err)
}

func TestValidateTaskTypeNaming(t *testing.T) {
	assert.NoError(t, ValidateTaskTypeNaming("recommend-animals"))
	assert.NoError(t, ValidateTaskTypeNaming("check-application-eligibility"))
	assert.Error(t, ValidateTaskTypeNaming("recommend"))
	assert.Error(t, ValidateTaskTypeNaming("Recommend-Animals"))
	assert.Error(t, ValidateTaskTypeNaming("recommend.animals"))
}

func TestPhoneHelpers(t *testing.T) {
	assert.True(t, ValidatePhone("010-1234-5678"))
	assert.True(t, ValidatePhone("+821012345678"))
	assert.False(t, ValidatePhone("12-34"))

	assert.Equal(t, "+821012345678", ToE164("010-1234-5678"))
	assert.Equal(t, "+821012345678", ToE164("+82 10 1234 5678"))
	assert.True(t, ValidateEmail("care@matchpet.kr"))
	assert.False(t, ValidateEmail("care@"))
}
