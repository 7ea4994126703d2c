package pdf

import (
	"os"
	"path/filepath"
	"testing"

	pdferrors "github.com/a3tai/pdf-form-extract/internal/pdf/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Check(t *testing.T) {
	dir := t.TempDir()
	valid := writeSurvey(t, dir, "valid.pdf", "1")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.pdf"), 0o755))

	validator := NewValidator(64 * 1024)

	tests := []struct {
		name    string
		path    string
		wantErr pdferrors.ErrorType
	}{
		{"valid form", valid, pdferrors.ErrorTypeUnknown},
		{"upper case extension", writeSurvey(t, dir, "LOUD.PDF", "2"), pdferrors.ErrorTypeUnknown},
		{"empty path", "", pdferrors.ErrorTypeSourceNotFound},
		{"missing file", filepath.Join(dir, "missing.pdf"), pdferrors.ErrorTypeSourceNotFound},
		{"directory", filepath.Join(dir, "folder.pdf"), pdferrors.ErrorTypeSourceNotFound},
		{"too large", writeRaw(t, dir, "large.pdf", make([]byte, 65*1024)), pdferrors.ErrorTypeSourceNotFound},
		{"wrong extension", writeRaw(t, dir, "notes.txt", []byte("hello")), pdferrors.ErrorTypeMalformedStructure},
		{"empty file", writeRaw(t, dir, "empty.pdf", nil), pdferrors.ErrorTypeMalformedStructure},
		{"not a pdf", writeRaw(t, dir, "fake.pdf", []byte("this is plain text")), pdferrors.ErrorTypeMalformedStructure},
		{"truncated", writeRaw(t, dir, "cut.pdf", []byte("%PDF-1.7\n1 0 obj\n<<")), pdferrors.ErrorTypeMalformedStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Check(tt.path)
			if tt.wantErr == pdferrors.ErrorTypeUnknown {
				assert.NoError(t, err)
				assert.True(t, validator.IsValidPDF(tt.path))
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, pdferrors.TypeOf(err), "got %v", err)
			assert.False(t, validator.IsValidPDF(tt.path))
		})
	}
}

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	validator := NewValidator(1024 * 1024)

	result, err := validator.ValidateFile(FormValidateFileRequest{Path: writeSurvey(t, dir, "ok.pdf", "1")})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Message)
	assert.Empty(t, result.ErrorType)

	missing := filepath.Join(dir, "gone.pdf")
	result, err = validator.ValidateFile(FormValidateFileRequest{Path: missing})
	require.NoError(t, err, "validation failures are reported in the result")
	assert.False(t, result.Valid)
	assert.Equal(t, missing, result.Path)
	assert.Equal(t, "SOURCE_NOT_FOUND", result.ErrorType)
	assert.Contains(t, result.Message, "file does not exist")
}

func TestValidator_ZeroMaxSizeMeansUnlimited(t *testing.T) {
	path := writeSurvey(t, t.TempDir(), "any.pdf", "1")
	assert.NoError(t, NewValidator(0).Check(path))
}
