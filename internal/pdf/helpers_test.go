package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/pdf-form-extract/internal/pdf/pdftest"
	"github.com/stretchr/testify/require"
)

// surveyForm renders a complete survey form with the given document number.
func surveyForm(docNum string) *pdftest.Form {
	f := pdftest.NewForm()
	icon := f.Add(pdftest.ImageXObject())
	f.AddField(pdftest.TextField("Doc Num", docNum))
	f.AddField(pdftest.TextField("Corner of Section", "SW"))
	f.AddField(pdftest.ChoiceField("Township", "T3S", "(T2S)", "(T3S)"))
	f.AddField(pdftest.ChoiceField("Range", "R9E", "(R9E)"))
	f.AddField(pdftest.ChoiceField("County", "Brown", "(Adams)", "(Brown)"))
	f.AddField(pdftest.ButtonField("Survey Image", "/MK << /I "+pdftest.Ref(icon)+" >>"))
	return f
}

func writeSurvey(t *testing.T, dir, name, docNum string) string {
	t.Helper()
	return surveyForm(docNum).WriteFile(t, dir, name)
}

func writeRaw(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
