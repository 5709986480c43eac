package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"tableflip.dev/questlog/pkg/app"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/quest"
)

type fakeExporter struct {
	data app.Export
	err  error
}

func (f fakeExporter) Export(context.Context) (app.Export, error) {
	return f.data, f.err
}

func sample() app.Export {
	return app.Export{
		Key:        "ash-ketchum",
		Quests:     []quest.Quest{{ID: "q1", Name: "Hunt", Difficulty: 2}},
		ExportedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestExportFormats(t *testing.T) {
	var buf bytes.Buffer
	e := Export{Format: "json", Out: &buf, Exporter: fakeExporter{data: sample()}}
	require.NoError(t, e.Do(context.Background()))
	var back app.Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "ash-ketchum", back.Key)

	buf.Reset()
	e.Format = "YAML"
	require.NoError(t, e.Do(context.Background()))
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "ash-ketchum", doc["key"])

	e.Format = "xml"
	assert.Error(t, e.Do(context.Background()))
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hunter.yaml")
	e := Export{File: path, Exporter: fakeExporter{data: sample()}}
	require.NoError(t, e.Do(context.Background()))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "key: ash-ketchum")
}

func TestExportPropagatesErrors(t *testing.T) {
	e := Export{Exporter: fakeExporter{err: errs.ErrNoAccount}}
	assert.ErrorIs(t, e.Do(context.Background()), errs.ErrNoAccount)
}
