package acroform

import (
	"fmt"
	"sort"

	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/sirupsen/logrus"
)

// scanSignal is the outcome of one image check.
type scanSignal int

const (
	keepScanning scanSignal = iota
	imagePresent
)

// imageCheck is one step of the image heuristic. Steps run in table order
// and the first imagePresent wins.
type imageCheck struct {
	name string
	run  func(ix *FieldIndex, node *FieldNode) (scanSignal, error)
}

var imageChecks = []imageCheck{
	{name: "icon", run: checkIcon},
	{name: "appearance", run: checkAppearanceResources},
	{name: "embedded files", run: checkEmbeddedFiles},
}

// HasImage reports whether the button field name carries a raster image.
// Absent and non-button fields are false. Any failure while inspecting the
// field is logged as a warning and yields false.
func (ix *FieldIndex) HasImage(name string) (present bool) {
	node := ix.fields[name]
	if node == nil || node.Type != FieldTypeButton {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			present = false
			ix.warnImage(name, fmt.Errorf("panic: %v", r))
		}
	}()

	for _, check := range imageChecks {
		signal, err := check.run(ix, node)
		if err != nil {
			ix.warnImage(name, fmt.Errorf("%s check: %w", check.name, err))
			return false
		}
		if signal == imagePresent {
			ix.log.WithFields(logrus.Fields{
				"file":  ix.source,
				"field": name,
				"check": check.name,
			}).Debug("Image detected")
			return true
		}
	}

	return false
}

func (ix *FieldIndex) warnImage(name string, err error) {
	ix.log.WithFields(logrus.Fields{
		"file":  ix.source,
		"field": name,
		"error": pdferrors.WrapError(pdferrors.ErrorTypeImageDetectionFailure, err).WithField(name),
	}).Warn("Image detection error")
}

// checkIcon: a non-null /MK /I entry is enough, its content is not inspected.
func checkIcon(ix *FieldIndex, node *FieldNode) (scanSignal, error) {
	_, present, err := iconEntry(ix.resolver, node.dict)
	if err != nil {
		return keepScanning, err
	}
	if present {
		return imagePresent, nil
	}
	return keepScanning, nil
}

// checkAppearanceResources scans the XObjects of the normal appearance
// stream. Only a stream qualifies; an appearance subdictionary of named
// states is not descended into. XObject entries that fail to resolve are
// skipped.
func checkAppearanceResources(ix *FieldIndex, node *FieldNode) (scanSignal, error) {
	res := ix.resolver

	n, err := normalAppearance(res, node.dict)
	if err != nil || n == nil {
		return keepScanning, err
	}

	stream, ok, err := res.Stream(n)
	if err != nil || !ok {
		return keepScanning, err
	}

	resourcesObj, found := stream.Dict.Find("Resources")
	if !found {
		return keepScanning, nil
	}
	resources, err := res.Dict(resourcesObj)
	if err != nil || resources == nil {
		return keepScanning, err
	}

	xobjObj, found := resources.Find("XObject")
	if !found {
		return keepScanning, nil
	}
	xobjects, err := res.Dict(xobjObj)
	if err != nil || xobjects == nil {
		return keepScanning, err
	}

	keys := make([]string, 0, len(xobjects))
	for k := range xobjects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		xobj, ok, err := res.Stream(xobjects[key])
		if err != nil || !ok {
			continue
		}
		subtypeObj, found := xobj.Dict.Find("Subtype")
		if !found {
			continue
		}
		subtype, err := res.Name(subtypeObj)
		if err != nil {
			continue
		}
		if subtype == "Image" {
			return imagePresent, nil
		}
	}

	return keepScanning, nil
}

// checkEmbeddedFiles looks at the catalog's /Names /EmbeddedFiles tree. It
// never signals: attachments are not evidence of an image in the field.
func checkEmbeddedFiles(ix *FieldIndex, _ *FieldNode) (scanSignal, error) {
	namesObj, found := ix.catalog.Find("Names")
	if !found {
		return keepScanning, nil
	}
	names, err := ix.resolver.Dict(namesObj)
	if err != nil || names == nil {
		return keepScanning, nil
	}
	if _, found := names.Find("EmbeddedFiles"); found {
		ix.log.WithField("file", ix.source).Debug("Document has embedded files, ignored for image detection")
	}
	return keepScanning, nil
}
