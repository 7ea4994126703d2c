package acroform

import (
	"fmt"

	"github.com/a3tai/pdf-form-extract/internal/logging"
	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"
)

// FieldType classifies a field by its /FT entry.
type FieldType int

const (
	FieldTypeOther FieldType = iota
	FieldTypeText
	FieldTypeChoice
	FieldTypeButton
)

func (t FieldType) String() string {
	switch t {
	case FieldTypeText:
		return "text"
	case FieldTypeChoice:
		return "choice"
	case FieldTypeButton:
		return "button"
	default:
		return "other"
	}
}

func classifyFieldType(name string) FieldType {
	switch name {
	case "Tx":
		return FieldTypeText
	case "Ch":
		return FieldTypeChoice
	case "Btn":
		return FieldTypeButton
	default:
		return FieldTypeOther
	}
}

// FieldNode is a snapshot of one top-level form field.
type FieldNode struct {
	Name string
	Type FieldType
	Ref  *ObjectRef // nil for fields stored inline in /Fields

	Value    string
	HasValue bool
	Options  []string

	// Appearance is the /AP /N entry as stored, nil when absent.
	Appearance types.Object
	// Icon is the /MK /I entry as stored; HasIcon is false when absent or null.
	Icon    types.Object
	HasIcon bool

	dict       types.Dict
	valueErr   error
	optionsErr error
}

// FieldIndex maps field names to nodes. It is built once per document and
// keeps the document's resolver for the image heuristic.
type FieldIndex struct {
	fields   map[string]*FieldNode
	order    []string
	resolver *Resolver
	catalog  types.Dict
	log      logrus.FieldLogger
	source   string
}

// Len returns the number of indexed fields.
func (ix *FieldIndex) Len() int {
	return len(ix.fields)
}

// Names returns field names in the order they first appear in /Fields.
func (ix *FieldIndex) Names() []string {
	names := make([]string, len(ix.order))
	copy(names, ix.order)
	return names
}

// Field returns the node for name, or nil.
func (ix *FieldIndex) Field(name string) *FieldNode {
	return ix.fields[name]
}

func (ix *FieldIndex) add(node *FieldNode) {
	if _, dup := ix.fields[node.Name]; dup {
		ix.log.WithFields(logrus.Fields{
			"file":  ix.source,
			"field": node.Name,
		}).Debug("Duplicate field name, keeping the last one")
	} else {
		ix.order = append(ix.order, node.Name)
	}
	ix.fields[node.Name] = node
}

// fieldEntry is a resolved member of /Fields.
type fieldEntry struct {
	dict types.Dict
	ref  *ObjectRef
}

// BuildFieldIndex indexes the top-level entries of the catalog's
// /AcroForm /Fields array by their /T name. Kids are not descended into.
// A document without a form yields an empty index.
func BuildFieldIndex(doc *Document, log logrus.FieldLogger) (*FieldIndex, error) {
	log = logging.OrDiscard(log)
	if doc.closed() {
		return nil, pdferrors.NewPDFError(pdferrors.ErrorTypeMalformedStructure, "document is closed").WithFile(doc.name)
	}

	catalog, err := doc.Catalog()
	if err != nil {
		return nil, err
	}

	entries, err := primaryFieldEntries(doc.ctx)
	if err != nil {
		log.WithFields(logrus.Fields{
			"file":  doc.name,
			"error": err,
		}).Debug("Typed form traversal failed, falling back to manual traversal")

		entries, err = fallbackFieldEntries(doc.resolver, catalog, log.WithField("file", doc.name))
		if err != nil {
			return nil, pdferrors.Wrapf(pdferrors.ErrorTypeMalformedStructure, err,
				"cannot locate form fields").WithFile(doc.name)
		}
	}

	ix := &FieldIndex{
		fields:   make(map[string]*FieldNode, len(entries)),
		resolver: doc.resolver,
		catalog:  catalog,
		log:      log,
		source:   doc.name,
	}

	for _, entry := range entries {
		node := newFieldNode(doc.resolver, entry)
		if node == nil {
			continue
		}
		ix.add(node)
	}

	log.WithFields(logrus.Fields{
		"file":   doc.name,
		"fields": ix.Len(),
	}).Debug("Built field index")

	return ix, nil
}

// primaryFieldEntries walks catalog, AcroForm and Fields with pdfcpu's typed
// dereference helpers. Any error abandons the walk.
func primaryFieldEntries(ctx *model.Context) ([]fieldEntry, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	if rootDict == nil {
		return nil, fmt.Errorf("catalog is missing")
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found || acroFormObj == nil {
		return nil, nil
	}

	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference AcroForm: %w", err)
	}
	if acroFormDict == nil {
		return nil, nil
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found || fieldsObj == nil {
		return nil, nil
	}

	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	entries := make([]fieldEntry, 0, len(fieldsArray))
	for i, fieldObj := range fieldsArray {
		fieldDict, err := ctx.DereferenceDict(fieldObj)
		if err != nil {
			return nil, fmt.Errorf("failed to dereference field %d: %w", i, err)
		}
		if fieldDict == nil {
			continue
		}
		entries = append(entries, fieldEntry{dict: fieldDict, ref: refPtr(fieldObj)})
	}

	return entries, nil
}

// fallbackFieldEntries walks the same path through the tagged resolver,
// skipping /Fields members that do not resolve to a dictionary.
func fallbackFieldEntries(res *Resolver, catalog types.Dict, log logrus.FieldLogger) ([]fieldEntry, error) {
	acroFormObj, found := catalog.Find("AcroForm")
	if !found {
		return nil, nil
	}

	acroForm := res.Resolve(acroFormObj)
	if acroForm.Status == NotFound || (acroForm.OK() && acroForm.Value == nil) {
		return nil, nil
	}
	acroFormDict, err := res.Dict(acroFormObj)
	if err != nil {
		return nil, fmt.Errorf("AcroForm: %w", err)
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return nil, nil
	}
	fields := res.Resolve(fieldsObj)
	if fields.Status == NotFound || (fields.OK() && fields.Value == nil) {
		return nil, nil
	}
	fieldsArray, err := res.Array(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("Fields: %w", err)
	}

	entries := make([]fieldEntry, 0, len(fieldsArray))
	for i, fieldObj := range fieldsArray {
		fieldDict, err := res.Dict(fieldObj)
		if err != nil {
			log.WithFields(logrus.Fields{
				"entry": i,
				"error": err,
			}).Debug("Skipping unresolvable field entry")
			continue
		}
		if fieldDict == nil {
			continue
		}
		entries = append(entries, fieldEntry{dict: fieldDict, ref: refPtr(fieldObj)})
	}

	return entries, nil
}

func refPtr(obj types.Object) *ObjectRef {
	ref, ok := refOf(obj)
	if !ok {
		return nil
	}
	return &ref
}

// newFieldNode reads the attributes of one field dictionary. Absent or
// undecodable attributes are left empty; decode errors are kept for the
// reader to report. Entries without a name yield nil.
func newFieldNode(res *Resolver, entry fieldEntry) *FieldNode {
	d := entry.dict

	nameObj, found := d.Find("T")
	if !found {
		return nil
	}
	name, err := res.Text(nameObj)
	if err != nil || name == "" {
		return nil
	}

	node := &FieldNode{
		Name: name,
		Ref:  entry.ref,
		dict: d,
	}

	if ftObj, found := d.Find("FT"); found {
		if ft, err := res.Name(ftObj); err == nil {
			node.Type = classifyFieldType(ft)
		}
	}

	if valueObj, found := d.Find("V"); found {
		node.Value, node.HasValue, node.valueErr = decodeValue(res, valueObj)
	}

	if node.Type == FieldTypeChoice {
		node.Options, node.optionsErr = decodeOptions(res, d)
	}

	node.Appearance, _ = normalAppearance(res, d)
	node.Icon, node.HasIcon, _ = iconEntry(res, d)

	return node
}

// normalAppearance returns the /AP /N entry without resolving it.
func normalAppearance(res *Resolver, d types.Dict) (types.Object, error) {
	apObj, found := d.Find("AP")
	if !found {
		return nil, nil
	}
	ap, err := res.Dict(apObj)
	if err != nil {
		return nil, fmt.Errorf("AP: %w", err)
	}
	if ap == nil {
		return nil, nil
	}
	n, _ := ap.Find("N")
	return n, nil
}

// iconEntry returns the /MK /I entry. A present but null entry is reported
// as absent.
func iconEntry(res *Resolver, d types.Dict) (types.Object, bool, error) {
	mkObj, found := d.Find("MK")
	if !found {
		return nil, false, nil
	}
	mk, err := res.Dict(mkObj)
	if err != nil {
		return nil, false, fmt.Errorf("MK: %w", err)
	}
	if mk == nil {
		return nil, false, nil
	}
	icon, found := mk.Find("I")
	if !found || icon == nil {
		return nil, false, nil
	}
	return icon, true, nil
}
