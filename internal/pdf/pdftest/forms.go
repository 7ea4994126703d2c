package pdftest

import (
	"fmt"
	"strings"
	"testing"
)

// Object numbers fixed by NewForm.
const (
	CatalogObject  = 1
	PagesObject    = 2
	PageObject     = 3
	AcroFormObject = 4
)

// Form is a Builder preloaded with a catalog, a one-page tree and an
// indirect AcroForm dictionary. Field objects added through AddField are
// listed in /Fields in call order.
type Form struct {
	*Builder
	fields       []string
	catalogExtra string
}

// NewForm returns a form document with no fields.
func NewForm() *Form {
	b := New()
	b.Reserve()
	b.Add(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count 1 >>", Ref(PageObject)))
	b.Add(fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 612 792] >>", Ref(PagesObject)))
	b.Reserve()
	b.SetRoot(CatalogObject)
	return &Form{Builder: b}
}

// AddField adds a field dictionary as an indirect object and lists it in
// /Fields. It returns the object number.
func (f *Form) AddField(body string) int {
	num := f.Add(body)
	f.fields = append(f.fields, Ref(num))
	return num
}

// AddFieldEntry lists raw PDF syntax in /Fields, e.g. a dangling reference
// or an inline dictionary.
func (f *Form) AddFieldEntry(raw string) {
	f.fields = append(f.fields, raw)
}

// SetCatalogExtra appends raw entries to the catalog dictionary.
func (f *Form) SetCatalogExtra(entries string) {
	f.catalogExtra = entries
}

// Bytes renders the document.
func (f *Form) Bytes() []byte {
	f.Set(CatalogObject, fmt.Sprintf("<< /Type /Catalog /Pages %s /AcroForm %s %s>>",
		Ref(PagesObject), Ref(AcroFormObject), f.catalogExtra))
	f.Set(AcroFormObject, fmt.Sprintf("<< /Fields [%s] >>", strings.Join(f.fields, " ")))
	return f.Builder.Bytes()
}

// WriteFile renders the document into dir/name and returns the path.
func (f *Form) WriteFile(t testing.TB, dir, name string) string {
	f.Bytes()
	return f.Builder.WriteFile(t, dir, name)
}

// TextField renders a text field dictionary with a string value.
func TextField(name, value string) string {
	return fmt.Sprintf("<< /FT /Tx /T %s /V %s >>", Literal(name), Literal(value))
}

// ChoiceField renders a choice field dictionary. Each option is raw PDF
// syntax, either a string or a two-element array.
func ChoiceField(name, value string, options ...string) string {
	return fmt.Sprintf("<< /FT /Ch /T %s /V %s /Opt [%s] >>",
		Literal(name), Literal(value), strings.Join(options, " "))
}

// ButtonField renders a button field dictionary with extra raw entries such
// as /MK or /AP.
func ButtonField(name, entries string) string {
	return fmt.Sprintf("<< /FT /Btn /T %s %s >>", Literal(name), entries)
}

// ImageXObject renders a 1x1 grayscale image stream.
func ImageXObject() string {
	return Stream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", "\x80")
}

// FormXObject renders an appearance stream whose resources list the given
// XObject entries, e.g. "/Im1 7 0 R".
func FormXObject(xobjects string) string {
	return Stream(fmt.Sprintf("/Type /XObject /Subtype /Form /BBox [0 0 10 10] /Resources << /XObject << %s >> >>", xobjects),
		"q 10 0 0 10 0 0 cm /Im1 Do Q")
}
