package report_test

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

	"github.com/katalvlaran/egraphx/bottomup"
	"github.com/katalvlaran/egraphx/extract"
	"github.com/katalvlaran/egraphx/internal/egtest"
	"github.com/katalvlaran/egraphx/internal/report"
)

func TestNew(t *testing.T) {
	g := egtest.Scenario3(t)
	r, err := bottomup.NewFaster().Extract(context.Background(), g, g.Roots())
	require.NoError(t, err)

	rep, err := report.New("s3.json", "faster-bottom-up", g, g.Roots(), r, 1500*time.Microsecond)
	require.NoError(t, err)
	assert.Equal(t, report.Report{
		Name:      "s3.json",
		Extractor: "faster-bottom-up",
		Tree:      11,
		Dag:       6,
		Micros:    1500,
		Outcome:   "complete",
	}, rep)
	assert.Len(t, rep.Fields(), 6)
}

func TestNew_RejectsInvalidSelection(t *testing.T) {
	g := egtest.Scenario3(t)
	empty := extract.NewResult(g)
	_, err := report.New("s3.json", "broken", g, g.Roots(), empty, time.Millisecond)
	require.ErrorIs(t, err, extract.ErrUnresolvedClass)
}

func TestWrite(t *testing.T) {
	rep := report.Report{Name: "a", Extractor: "ilp", Tree: 3, Dag: 2, Micros: 9, Outcome: "unproven"}
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, rep))
	assert.JSONEq(t, `{"name":"a","extractor":"ilp","tree":3,"dag":2,"micros":9,"outcome":"unproven"}`, buf.String())

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, report.WriteFile(path, rep))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var back report.Report
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, rep, back)
}
