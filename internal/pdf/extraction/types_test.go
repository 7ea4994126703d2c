package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldSpecs_Validate(t *testing.T) {
	tests := []struct {
		name    string
		specs   FieldSpecs
		wantErr string
	}{
		{name: "defaults", specs: DefaultFieldSpecs()},
		{name: "empty", specs: FieldSpecs{}},
		{
			name:    "missing key",
			specs:   FieldSpecs{Values: []FieldSpec{{Field: "Doc Num"}}},
			wantErr: "value spec 0: key cannot be empty",
		},
		{
			name:    "missing field",
			specs:   FieldSpecs{Choices: []FieldSpec{{Key: "county"}}},
			wantErr: `choice spec "county": field name cannot be empty`,
		},
		{
			name: "duplicate key",
			specs: FieldSpecs{Values: []FieldSpec{
				{Key: "county", Field: "County"},
				{Key: "county", Field: "Parish"},
			}},
			wantErr: `value spec "county": duplicate key`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.specs.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestDefaultFieldSpecs(t *testing.T) {
	specs := DefaultFieldSpecs()

	assert.Equal(t, []string{KeyDocNum, KeyCornerOfSection, KeyTownship, KeyRange, KeyCounty}, specs.ValueKeys())
	assert.Equal(t, []string{KeyTownship, KeyRange, KeyCounty}, specs.ChoiceKeys())
	assert.Equal(t, "Survey Image", specs.Image)
	assert.Equal(t, "Corner of Section", specs.FieldName(KeyCornerOfSection))
	assert.Equal(t, "", specs.FieldName("nope"))
}

func TestExtractionResult_ImageFlagMatchesBool(t *testing.T) {
	for _, present := range []bool{true, false} {
		r := ExtractionResult{ImagePresent: present}
		assert.Equal(t, present, r.ImageFlag() == FlagYes)
		assert.Equal(t, !present, r.ImageFlag() == FlagNo)
	}
}

func TestExtractionResult_Lookups(t *testing.T) {
	r := &ExtractionResult{
		Filename: "a.pdf",
		Values:   []FieldValue{{Key: KeyDocNum, Value: "17"}},
		Options:  []FieldOptions{{Key: KeyCounty, Options: []string{"Adams"}}},
	}

	assert.Equal(t, "17", r.Value(KeyDocNum))
	assert.Equal(t, "", r.Value(KeyCounty))
	assert.Equal(t, []string{"Adams"}, r.OptionList(KeyCounty))
	assert.Nil(t, r.OptionList(KeyRange))
	assert.Equal(t, "doc_num:17", r.DedupeKey())

	r.Values[0].Value = ""
	assert.Equal(t, "filename:a.pdf", r.DedupeKey())
}
