package acroform

import (
	"fmt"
	"strconv"
	"strings"

	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"
)

// Value returns the field's /V as text. Absent fields, absent values and
// undecodable values all yield "". Decode failures are logged as warnings.
func (ix *FieldIndex) Value(name string) string {
	node := ix.fields[name]
	if node == nil {
		return ""
	}
	if node.valueErr != nil {
		ix.warnField(name, "Cannot read field value",
			pdferrors.WrapError(pdferrors.ErrorTypeFieldReadFailure, node.valueErr).WithField(name))
		return ""
	}
	return node.Value
}

// ChoiceOptions returns the export values of a choice field's /Opt array in
// stored order. Non-choice fields and failures yield an empty slice.
func (ix *FieldIndex) ChoiceOptions(name string) []string {
	node := ix.fields[name]
	if node == nil || node.Type != FieldTypeChoice {
		return []string{}
	}
	if node.optionsErr != nil {
		ix.warnField(name, "Cannot read choice options",
			pdferrors.WrapError(pdferrors.ErrorTypeFieldReadFailure, node.optionsErr).WithField(name))
		return []string{}
	}

	options := make([]string, len(node.Options))
	copy(options, node.Options)
	return options
}

func (ix *FieldIndex) warnField(name, msg string, err error) {
	ix.log.WithFields(logrus.Fields{
		"file":  ix.source,
		"field": name,
		"error": err,
	}).Warn(msg)
}

// decodeValue renders a /V entry. The boolean result is false when the
// value is PDF null.
func decodeValue(res *Resolver, obj types.Object) (string, bool, error) {
	r := res.Resolve(obj)
	if !r.OK() {
		return "", false, r.Err()
	}
	if r.Value == nil {
		return "", false, nil
	}

	if arr, ok := r.Value.(types.Array); ok {
		parts := make([]string, 0, len(arr))
		for i, elem := range arr {
			er := res.Resolve(elem)
			if !er.OK() {
				return "", false, fmt.Errorf("value element %d: %w", i, er.Err())
			}
			s, err := scalarText(er.Value)
			if err != nil {
				return "", false, fmt.Errorf("value element %d: %w", i, err)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), true, nil
	}

	s, err := scalarText(r.Value)
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

// scalarText renders strings, names, numbers and booleans.
func scalarText(obj types.Object) (string, error) {
	switch v := obj.(type) {
	case types.Integer:
		return strconv.Itoa(int(v)), nil
	case types.Float:
		return strconv.FormatFloat(float64(v), 'f', -1, 64), nil
	case types.Boolean:
		return strconv.FormatBool(bool(v)), nil
	default:
		return decodeText(v)
	}
}

// decodeOptions reads /Opt. Each entry is a string or an [export display]
// pair; pairs contribute their export element.
func decodeOptions(res *Resolver, d types.Dict) ([]string, error) {
	optObj, found := d.Find("Opt")
	if !found {
		return []string{}, nil
	}
	opts, err := res.Array(optObj)
	if err != nil {
		return nil, fmt.Errorf("Opt: %w", err)
	}

	options := make([]string, 0, len(opts))
	for i, entry := range opts {
		r := res.Resolve(entry)
		if !r.OK() {
			return nil, fmt.Errorf("option %d: %w", i, r.Err())
		}

		elem := r.Value
		if pair, ok := elem.(types.Array); ok {
			if len(pair) == 0 {
				return nil, fmt.Errorf("option %d: empty pair", i)
			}
			elem = pair[0]
		}

		s, err := res.Text(elem)
		if err != nil {
			return nil, fmt.Errorf("option %d: %w", i, err)
		}
		options = append(options, s)
	}

	return options, nil
}
