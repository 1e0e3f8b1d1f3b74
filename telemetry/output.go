// Package telemetry records frame timing and parameter history.
package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/warpviz/config"
	"github.com/pthm-cable/warpviz/params"
)

// ParamRecord is one row of params.csv: the snapshot a frame first rendered
// after the store's version changed.
type ParamRecord struct {
	Frame     uint64 `csv:"frame"`
	Version   uint64 `csv:"version"`
	ElapsedMS int64  `csv:"elapsed_ms"`
	params.Set
}

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir        string
	perfFile   *os.File
	paramsFile *os.File
	marksFile  *os.File
	start      time.Time

	// Track if headers have been written
	perfHeaderWritten   bool
	paramsHeaderWritten bool
	marksHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, start: time.Now()}

	f, err := os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	f, err = os.Create(filepath.Join(dir, "params.csv"))
	if err != nil {
		om.perfFile.Close()
		return nil, fmt.Errorf("creating params.csv: %w", err)
	}
	om.paramsFile = f

	f, err = os.Create(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		om.perfFile.Close()
		om.paramsFile.Close()
		return nil, fmt.Errorf("creating bookmarks.csv: %w", err)
	}
	om.marksFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePerf writes a frame statistics record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, frame uint64) error {
	if om == nil {
		return nil
	}
	records := []PerfStatsCSV{stats.ToCSV(frame)}
	if err := om.write(om.perfFile, records, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteParams writes a parameter snapshot to params.csv.
func (om *OutputManager) WriteParams(frame, version uint64, set params.Set) error {
	if om == nil {
		return nil
	}
	records := []ParamRecord{{
		Frame:     frame,
		Version:   version,
		ElapsedMS: time.Since(om.start).Milliseconds(),
		Set:       set,
	}}
	if err := om.write(om.paramsFile, records, &om.paramsHeaderWritten); err != nil {
		return fmt.Errorf("writing params: %w", err)
	}
	return nil
}

// WriteBookmarks appends bookmarks to bookmarks.csv.
func (om *OutputManager) WriteBookmarks(bookmarks []Bookmark) error {
	if om == nil || len(bookmarks) == 0 {
		return nil
	}
	if err := om.write(om.marksFile, bookmarks, &om.marksHeaderWritten); err != nil {
		return fmt.Errorf("writing bookmarks: %w", err)
	}
	return nil
}

// write appends records, emitting the header only on the first call.
func (om *OutputManager) write(f *os.File, records any, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.perfFile, om.paramsFile, om.marksFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
