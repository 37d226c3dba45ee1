package ingest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/pkg/apperrors"
	appvalidator "github.com/tomtom-odat/odat-go/internal/pkg/validator"
)

// Job is one validated, geometry-decoded input ready for the worker
// pool (spec.md §5). Index is the record's position in the input
// file; output is written in completion order and duplicates are
// detected by OLR alone, so neither reads it.
type Job struct {
	Index    int
	OLR      string
	Geometry geocoord.LineString
	Category string
	FRC      int
}

// Load reads path, parses its "locations" array, and validates and
// decodes each record into a Job. A record that fails struct
// validation or whose geometry hex fails to decode to a LineString is
// skipped and logged (spec.md §6: "malformed records are skipped, not
// fatal"), rather than aborting the whole run.
func Load(path string, logger *zap.Logger) ([]Job, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.ErrInputFileInvalid.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	var file InputFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, apperrors.ErrInputFileInvalid.WithDetails(map[string]interface{}{"cause": err.Error()})
	}

	jobs := make([]Job, 0, len(file.Locations))
	for i, rec := range file.Locations {
		if err := appvalidator.Validate(rec); err != nil {
			logger.Warn("skipping malformed input record", zap.Int("index", i), zap.Error(err))
			continue
		}

		ls, err := decodeGeometry(rec.Geometry)
		if err != nil {
			logger.Warn("skipping record with undecodable geometry", zap.Int("index", i), zap.Error(err))
			continue
		}

		jobs = append(jobs, Job{
			Index:    i,
			OLR:      rec.LocationReference,
			Geometry: ls,
			Category: rec.Category,
			FRC:      rec.FRC,
		})
	}

	logger.Info("input loaded", zap.Int("total", len(file.Locations)), zap.Int("accepted", len(jobs)))
	return jobs, nil
}

func decodeGeometry(hexWKB string) (geocoord.LineString, error) {
	raw, err := hex.DecodeString(hexWKB)
	if err != nil {
		return nil, fmt.Errorf("ingest: invalid geometry hex: %w", err)
	}
	geom, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("ingest: invalid geometry WKB: %w", err)
	}
	ls, ok := geom.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("ingest: geometry is not a LineString")
	}
	return geocoord.FromOrbLineString(ls), nil
}
