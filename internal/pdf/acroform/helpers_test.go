package acroform

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func openBytes(t *testing.T, data []byte) *Document {
	t.Helper()
	doc, err := OpenReader("form.pdf", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = doc.Close() })
	return doc
}

func indexBytes(t *testing.T, data []byte) (*FieldIndex, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	ix, err := BuildFieldIndex(openBytes(t, data), logger)
	require.NoError(t, err)
	return ix, hook
}

func warnings(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}
