package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/warpviz/config"
	"github.com/pthm-cable/warpviz/params"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	assert.Nil(t, om)

	// Methods on a nil manager are no-ops.
	assert.NoError(t, om.WritePerf(PerfStats{}, 1))
	assert.NoError(t, om.WriteParams(1, 1, params.Set{}))
	assert.NoError(t, om.WriteBookmarks([]Bookmark{{Type: BookmarkFrameSpike}}))
	assert.NoError(t, om.Close())
	assert.Equal(t, "", om.Dir())
}

func TestOutputManagerWritesParams(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	a := params.Set{DutyCycle: 0.14, GeometricAmplification: 26, SagDepthNM: 16}
	b := params.Set{DutyCycle: 0.5, GeometricAmplification: 2, SagDepthNM: 8}
	require.NoError(t, om.WriteParams(1, 0, a))
	require.NoError(t, om.WriteParams(30, 1, b))
	require.NoError(t, om.Close())

	f, err := os.Open(filepath.Join(dir, "params.csv"))
	require.NoError(t, err)
	defer f.Close()

	var rows []ParamRecord
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, uint64(30), rows[1].Frame)
	assert.Equal(t, uint64(1), rows[1].Version)
	assert.Equal(t, a, rows[0].Set)
	assert.Equal(t, b, rows[1].Set)
}

func TestOutputManagerWritesPerfHeaderOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	stats := PerfStats{AvgFrame: 2 * time.Millisecond, PhasePct: map[string]float64{PhaseDraw: 80}}
	require.NoError(t, om.WritePerf(stats, 60))
	require.NoError(t, om.WritePerf(stats, 120))
	require.NoError(t, om.Close())

	f, err := os.Open(filepath.Join(dir, "perf.csv"))
	require.NoError(t, err)
	defer f.Close()

	var rows []PerfStatsCSV
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, uint64(120), rows[1].Frame)
	assert.Equal(t, int64(2000), rows[0].AvgFrameUS)
	assert.Equal(t, 80.0, rows[0].DrawPct)
}

func TestOutputManagerWritesConfig(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	require.NoError(t, err)
	defer om.Close()

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.NoError(t, om.WriteConfig(cfg))

	again, err := config.Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, cfg.Params, again.Params)
}

func TestOutputManagerWritesBookmarks(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	require.NoError(t, om.WriteBookmarks(nil))
	require.NoError(t, om.WriteBookmarks([]Bookmark{{Type: BookmarkFieldVanished, Frame: 12, Description: "gone"}}))
	require.NoError(t, om.WriteBookmarks([]Bookmark{{Type: BookmarkFieldRestored, Frame: 40, Description: "back"}}))
	require.NoError(t, om.Close())

	f, err := os.Open(filepath.Join(dir, "bookmarks.csv"))
	require.NoError(t, err)
	defer f.Close()

	var rows []Bookmark
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, BookmarkFieldVanished, rows[0].Type)
	assert.Equal(t, uint64(40), rows[1].Frame)
	assert.Equal(t, "back", rows[1].Description)
}
