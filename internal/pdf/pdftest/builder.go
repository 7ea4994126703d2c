// Package pdftest writes small, well-formed PDF documents for tests. Object
// bodies are given as raw PDF syntax; the builder lays out the file and
// computes the cross-reference table.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Builder accumulates indirect objects. Object numbers start at 1 and are
// assigned in the order Add or Reserve is called.
type Builder struct {
	objects []string
	root    int
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{}
}

// Add appends an object with the given body and returns its number.
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, body)
	return len(b.objects)
}

// Reserve allocates an object number whose body is filled in later with Set.
// Unset reserved objects are written as null.
func (b *Builder) Reserve() int {
	return b.Add("")
}

// Set replaces the body of object num.
func (b *Builder) Set(num int, body string) {
	b.objects[num-1] = body
}

// SetRoot selects the catalog object. Without it the first object is used.
func (b *Builder) SetRoot(num int) {
	b.root = num
}

// Bytes renders the document.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(b.objects))
	for i, body := range b.objects {
		if body == "" {
			body = "null"
		}
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(b.objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}

	root := b.root
	if root == 0 {
		root = 1
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(b.objects)+1, root, xrefOffset)

	return buf.Bytes()
}

// WriteFile renders the document into dir/name and returns the path.
func (b *Builder) WriteFile(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, b.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Ref renders an indirect reference to object num.
func Ref(num int) string {
	return fmt.Sprintf("%d 0 R", num)
}

// Stream renders a stream object body. The /Length entry is computed from
// data and appended to dict entries.
func Stream(dictEntries, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dictEntries, len(data), data)
}

// Literal renders s as a PDF string literal, escaping delimiters.
func Literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}
