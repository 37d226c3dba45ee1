package aggregator

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tomtom-odat/odat-go/internal/ingest"
	"github.com/tomtom-odat/odat-go/internal/result"
)

// outputRecord is one element of the output JSON's "locations" array
// (spec.md §6).
type outputRecord struct {
	LocationReference string  `json:"locationReference"`
	Category          string  `json:"category"`
	FRC               int     `json:"frc"`
	Result            result.AnalysisResult `json:"result"`
	Fraction          float64 `json:"fraction"`
}

// Writer streams the output JSON file one record at a time, placing
// commas correctly as records arrive (spec.md §5: "the first record
// has no leading comma; subsequent records are prefixed by one"). It
// is not safe for concurrent use; exactly one Aggregator drives it.
type Writer struct {
	w       *bufio.Writer
	closer  io.Closer
	wrote   bool
}

// Create opens outputDir/results.json (created if outputDir doesn't
// exist, per SPEC_FULL.md §6) and writes the metadata header and the
// opening of the "locations" array.
func Create(outputDir string, metadata map[string]interface{}) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("aggregator: creating output dir: %w", err)
	}

	f, err := os.Create(filepath.Join(outputDir, "results.json"))
	if err != nil {
		return nil, fmt.Errorf("aggregator: creating output file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if _, err := bw.WriteString(`{"metadata":`); err != nil {
		f.Close()
		return nil, err
	}
	metaBytes, err := json.Marshal(metadata)
	if err != nil {
		f.Close()
		return nil, err
	}
	if _, err := bw.Write(metaBytes); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := bw.WriteString(`,"locations":[`); err != nil {
		f.Close()
		return nil, err
	}

	return &Writer{w: bw, closer: f}, nil
}

// WriteRecord appends one record to the "locations" array.
func (w *Writer) WriteRecord(job ingest.Job, r result.AnalysisResult, fraction float64) error {
	rec := outputRecord{
		LocationReference: job.OLR,
		Category:          job.Category,
		FRC:               job.FRC,
		Result:            r,
		Fraction:          fraction,
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("aggregator: marshaling output record: %w", err)
	}

	if w.wrote {
		if _, err := w.w.WriteString(","); err != nil {
			return err
		}
	}
	w.wrote = true
	_, err = w.w.Write(body)
	return err
}

// Close finishes the "locations" array and the top-level object, then
// flushes and closes the underlying file.
func (w *Writer) Close() error {
	if _, err := w.w.WriteString("]}"); err != nil {
		return err
	}
	if err := w.w.Flush(); err != nil {
		return err
	}
	return w.closer.Close()
}
