package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a3tai/pdf-form-extract/internal/pdf/extraction"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	resultsMarker   = "Extraction results for "
	separator       = "--------------------------------------------------"
	labelImageBool  = "Image present (bool)"
	labelImageFlag  = "Image present (Y/N)"
)

var now = time.Now

// labels maps record keys to console labels. Fields that are also choice
// fields get a " (value)" suffix to tell the value line from the options
// line.
type labels struct {
	values  map[string]string // label -> value key
	options map[string]string // label -> choice key
}

func valueLabel(specs extraction.FieldSpecs, spec extraction.FieldSpec) string {
	for _, c := range specs.Choices {
		if c.Key == spec.Key {
			return spec.Field + " (value)"
		}
	}
	return spec.Field
}

func optionsLabel(spec extraction.FieldSpec) string {
	return spec.Field + " options"
}

func newLabels(specs extraction.FieldSpecs) labels {
	l := labels{
		values:  make(map[string]string, len(specs.Values)),
		options: make(map[string]string, len(specs.Choices)),
	}
	for _, spec := range specs.Values {
		l.values[valueLabel(specs, spec)] = spec.Key
	}
	for _, spec := range specs.Choices {
		l.options[optionsLabel(spec)] = spec.Key
	}
	return l
}

// WriteText prints each record as a console block: a timestamped header
// line, one line per value, the image lines, one line per option list, and
// a dashed separator.
func WriteText(w io.Writer, specs extraction.FieldSpecs, results []*extraction.ExtractionResult) error {
	bw := bufio.NewWriter(w)
	for _, r := range results {
		fmt.Fprintf(bw, "[%s] INFO: %s%s:\n", now().Format(timestampLayout), resultsMarker, r.Filename)
		for _, spec := range specs.Values {
			fmt.Fprintf(bw, "%s: %s\n", valueLabel(specs, spec), r.Value(spec.Key))
		}
		fmt.Fprintf(bw, "%s: %s\n", labelImageBool, pyBool(r.ImagePresent))
		fmt.Fprintf(bw, "%s: %s\n", labelImageFlag, r.ImageFlag())
		for _, spec := range specs.Choices {
			opts := "None"
			if list := r.OptionList(spec.Key); len(list) > 0 {
				opts = strings.Join(list, ", ")
			}
			fmt.Fprintf(bw, "%s: %s\n", optionsLabel(spec), opts)
		}
		fmt.Fprintln(bw, separator)
	}
	return bw.Flush()
}

func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// textRecord accumulates one block while parsing
type textRecord struct {
	result  *extraction.ExtractionResult
	values  map[string]string
	options map[string][]string
	image   *bool
	flag    string
}

// ParseText reads records written by WriteText. Lines outside a block are
// ignored, so log output may be interleaved. A block whose bool and flag
// lines disagree is rejected.
func ParseText(r io.Reader, specs extraction.FieldSpecs) ([]*extraction.ExtractionResult, error) {
	l := newLabels(specs)
	var (
		out     []*extraction.ExtractionResult
		current *textRecord
	)

	flush := func() error {
		if current == nil {
			return nil
		}
		res, err := current.finish(specs)
		current = nil
		if err != nil {
			return err
		}
		out = append(out, res)
		return nil
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if i := strings.Index(line, resultsMarker); i >= 0 && strings.HasSuffix(line, ":") {
			if err := flush(); err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(line[i+len(resultsMarker):], ":")
			current = &textRecord{
				result:  &extraction.ExtractionResult{Filename: name},
				values:  map[string]string{},
				options: map[string][]string{},
			}
			continue
		}

		if current == nil {
			continue
		}

		label, value, ok := strings.Cut(line, ":")
		if !ok {
			if strings.Contains(line, "---") {
				if err := flush(); err != nil {
					return nil, err
				}
			}
			continue
		}
		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)

		switch {
		case label == labelImageBool:
			b := value == "True" || value == "true"
			current.image = &b
		case label == labelImageFlag:
			current.flag = value
		case l.values[label] != "":
			current.values[l.values[label]] = value
		case l.options[label] != "":
			if value == "None" {
				value = ""
			}
			current.options[l.options[label]] = SplitOptions(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return out, nil
}

func (t *textRecord) finish(specs extraction.FieldSpecs) (*extraction.ExtractionResult, error) {
	res := t.result

	switch {
	case t.image != nil && t.flag != "":
		if extraction.ImageFlag(*t.image) != t.flag {
			return nil, fmt.Errorf("record %s: image flag %q contradicts image bool %s",
				res.Filename, t.flag, pyBool(*t.image))
		}
		res.ImagePresent = *t.image
	case t.image != nil:
		res.ImagePresent = *t.image
	case t.flag != "":
		res.ImagePresent = t.flag == extraction.FlagYes
	}

	res.Values = make([]extraction.FieldValue, 0, len(specs.Values))
	for _, spec := range specs.Values {
		res.Values = append(res.Values, extraction.FieldValue{
			Key:   spec.Key,
			Field: spec.Field,
			Value: t.values[spec.Key],
		})
	}

	res.Options = make([]extraction.FieldOptions, 0, len(specs.Choices))
	for _, spec := range specs.Choices {
		opts, ok := t.options[spec.Key]
		if !ok {
			opts = []string{}
		}
		res.Options = append(res.Options, extraction.FieldOptions{
			Key:     spec.Key,
			Field:   spec.Field,
			Options: opts,
		})
	}

	return res, nil
}
