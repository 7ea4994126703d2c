package extraction

import (
	"fmt"
)

// Record keys of the default survey form.
const (
	KeyDocNum          = "doc_num"
	KeyCornerOfSection = "corner_of_section"
	KeyTownship        = "township"
	KeyRange           = "range"
	KeyCounty          = "county"
)

// Image flag values
const (
	FlagYes = "Y"
	FlagNo  = "N"
)

// FieldSpec maps a form field name to the key it is reported under.
type FieldSpec struct {
	Key   string `json:"key"`
	Field string `json:"field"`
}

// FieldSpecs selects the fields a session reads: plain values, choice
// fields whose option lists are wanted, and the image button.
type FieldSpecs struct {
	Values  []FieldSpec `json:"values"`
	Choices []FieldSpec `json:"choices"`
	Image   string      `json:"image"`
}

// DefaultFieldSpecs returns the field names of the survey form.
func DefaultFieldSpecs() FieldSpecs {
	return FieldSpecs{
		Values: []FieldSpec{
			{Key: KeyDocNum, Field: "Doc Num"},
			{Key: KeyCornerOfSection, Field: "Corner of Section"},
			{Key: KeyTownship, Field: "Township"},
			{Key: KeyRange, Field: "Range"},
			{Key: KeyCounty, Field: "County"},
		},
		Choices: []FieldSpec{
			{Key: KeyTownship, Field: "Township"},
			{Key: KeyRange, Field: "Range"},
			{Key: KeyCounty, Field: "County"},
		},
		Image: "Survey Image",
	}
}

// Validate checks that every spec has a key and a field name and that keys
// are unique within their group.
func (fs FieldSpecs) Validate() error {
	if err := validateGroup("value", fs.Values); err != nil {
		return err
	}
	return validateGroup("choice", fs.Choices)
}

func validateGroup(group string, specs []FieldSpec) error {
	seen := make(map[string]bool, len(specs))
	for i, spec := range specs {
		if spec.Key == "" {
			return fmt.Errorf("%s spec %d: key cannot be empty", group, i)
		}
		if spec.Field == "" {
			return fmt.Errorf("%s spec %q: field name cannot be empty", group, spec.Key)
		}
		if seen[spec.Key] {
			return fmt.Errorf("%s spec %q: duplicate key", group, spec.Key)
		}
		seen[spec.Key] = true
	}
	return nil
}

// ValueKeys returns the value keys in configured order.
func (fs FieldSpecs) ValueKeys() []string {
	return keys(fs.Values)
}

// ChoiceKeys returns the choice keys in configured order.
func (fs FieldSpecs) ChoiceKeys() []string {
	return keys(fs.Choices)
}

// FieldName returns the field name for a value key, or "".
func (fs FieldSpecs) FieldName(key string) string {
	for _, spec := range fs.Values {
		if spec.Key == key {
			return spec.Field
		}
	}
	return ""
}

func keys(specs []FieldSpec) []string {
	out := make([]string, len(specs))
	for i, spec := range specs {
		out[i] = spec.Key
	}
	return out
}

// FieldValue is one extracted value.
type FieldValue struct {
	Key   string `json:"key"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// FieldOptions is the option list of one choice field.
type FieldOptions struct {
	Key     string   `json:"key"`
	Field   string   `json:"field"`
	Options []string `json:"options"`
}

// ExtractionResult is the record produced for one document. The image flag
// is derived from ImagePresent so the two always agree.
type ExtractionResult struct {
	Filename     string         `json:"filename"`
	Values       []FieldValue   `json:"values"`
	Options      []FieldOptions `json:"options"`
	ImagePresent bool           `json:"image_present"`
}

// ImageFlag renders a boolean as "Y" or "N".
func ImageFlag(present bool) string {
	if present {
		return FlagYes
	}
	return FlagNo
}

// ImageFlag returns "Y" when an image is present and "N" otherwise.
func (r *ExtractionResult) ImageFlag() string {
	return ImageFlag(r.ImagePresent)
}

// Value returns the value stored under key, or "".
func (r *ExtractionResult) Value(key string) string {
	for _, v := range r.Values {
		if v.Key == key {
			return v.Value
		}
	}
	return ""
}

// OptionList returns the options stored under key, or nil.
func (r *ExtractionResult) OptionList(key string) []string {
	for _, o := range r.Options {
		if o.Key == key {
			return o.Options
		}
	}
	return nil
}

// DedupeKey identifies the record across runs: the document number when
// present, the filename otherwise.
func (r *ExtractionResult) DedupeKey() string {
	if docNum := r.Value(KeyDocNum); docNum != "" {
		return KeyDocNum + ":" + docNum
	}
	return "filename:" + r.Filename
}
