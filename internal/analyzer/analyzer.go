package analyzer

import (
	"math"

	"github.com/tomtom-odat/odat-go/internal/decoding"
	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/result"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
	"github.com/tomtom-odat/odat-go/internal/roadmap/buffer"
	"go.uber.org/zap"
)

// Params bundles the configurable geometric parameters the decision
// tree needs (spec.md §6: buffer, lrp_radius) plus the decoder config
// variant selected for the baseline full-map/buffer decode (Strict or
// Relaxed, per spec.md §6's decoder_config option).
type Params struct {
	BufferMeters    float64
	LRPRadiusMeters float64
	BaseConfig      roadmap.DecodeConfig
}

// withRadius returns cfg with its LRPRadiusMeters set to the run's
// configured lrp_radius (spec.md §6), so every decode this Analyzer
// performs -- base, cascade, and buffer-strict -- honors it.
func (a *Analyzer) withRadius(cfg roadmap.DecodeConfig) roadmap.DecodeConfig {
	return cfg.WithLRPRadius(a.params.LRPRadiusMeters)
}

// Analyzer orchestrates spec.md §4.4's master decision tree for one
// worker. It holds no mutable state across calls: every Analyze call
// constructs its own BufferOverlay (spec.md §3: "discarded when the
// per-input analysis completes").
type Analyzer struct {
	fullMap   roadmap.FullMapReader
	mapBounds *geocoord.Polygon
	params    Params
	logger    *zap.Logger
}

// New builds an Analyzer over fullMap. mapBounds may be nil to skip the
// out-of-bounds pre-check (spec.md §4.4 step 1: "if a precomputed map
// polygon is supplied").
func New(fullMap roadmap.FullMapReader, mapBounds *geocoord.Polygon, params Params, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{fullMap: fullMap, mapBounds: mapBounds, params: params, logger: logger}
}

// Analyze implements spec.md §4.4 end to end for one (OpenLR code,
// source geometry) input, returning the categorical verdict and the
// fraction of the decoded geometry (or 0) that lies within the buffer.
func (a *Analyzer) Analyze(olr string, ls geocoord.LineString) (result.AnalysisResult, float64) {
	if a.mapBounds != nil && !a.mapBounds.Covers(ls) {
		return result.OutsideMapBounds, 0
	}

	ref, err := openlr.Decode(olr)
	if err != nil {
		a.logger.Info("openlr decode failed", zap.String("olr", olr), zap.Error(err))
		return result.UnknownError, 0
	}
	lineRef, ok := ref.(*openlr.LineLocationReference)
	if !ok {
		return result.UnsupportedLocationType, 0
	}

	corridor := geocoord.BufferWGS84(ls, a.params.BufferMeters)

	candidates := decoding.NewCandidateCollector()
	loc, decodedLS, decErr := a.fullMap.Match(lineRef, a.withRadius(a.params.BaseConfig), candidates)
	if decErr != nil {
		a.logger.Info("full-map decode errored, falling back to cascade", zap.Error(decErr))
	}
	if loc == nil {
		overlay, err := buffer.New(a.fullMap, corridor, lineRef, a.logger)
		if err != nil {
			a.logger.Warn("buffer overlay construction failed", zap.Error(err))
			return result.UnknownError, 0
		}
		return a.cascade(overlay, lineRef), 0
	}

	decodedLS = buildDecodedLineString(decodedLS, loc)

	if corridor.Covers(decodedLS) {
		return result.OK, 1
	}

	frac := fractionWithinBuffer(corridor, decodedLS)

	if loc.POff > 0 || loc.NOff > 0 {
		return a.adjustAndMatch(lineRef, decodedLS, corridor, candidates), frac
	}
	return a.analyzeWithinBuffer(lineRef, corridor, candidates), frac
}

// adjustAndMatch implements spec.md §4.6.
func (a *Analyzer) adjustAndMatch(ref *openlr.LineLocationReference, decodedLS geocoord.LineString, corridor geocoord.Polygon, outsideCandidates *decoding.CandidateCollector) result.AnalysisResult {
	adjusted, err := AdjustLocationReference(ref, decodedLS)
	if err != nil {
		return result.InvalidGeometry
	}

	insideCandidates := decoding.NewCandidateCollector()
	loc, adjustedLS, decErr := a.fullMap.Match(adjusted, a.withRadius(a.params.BaseConfig), insideCandidates)
	if decErr != nil {
		a.logger.Info("full-map re-decode of adjusted reference errored", zap.Error(decErr))
	}
	if loc == nil {
		overlay, err := buffer.New(a.fullMap, corridor, adjusted, a.logger)
		if err != nil {
			a.logger.Warn("buffer overlay construction failed", zap.Error(err))
			return result.UnknownError
		}
		return a.cascade(overlay, adjusted)
	}

	if corridor.Covers(adjustedLS) {
		return compareCandidates(adjusted, outsideCandidates.Candidates, insideCandidates.Candidates, a.withRadius(a.params.BaseConfig))
	}

	return a.analyzeWithinBuffer(adjusted, corridor, outsideCandidates)
}

// analyzeWithinBuffer implements spec.md §4.7.
func (a *Analyzer) analyzeWithinBuffer(ref *openlr.LineLocationReference, corridor geocoord.Polygon, outsideCandidates *decoding.CandidateCollector) result.AnalysisResult {
	overlay, err := buffer.New(a.fullMap, corridor, ref, a.logger)
	if err != nil {
		a.logger.Warn("buffer overlay construction failed", zap.Error(err))
		return result.UnknownError
	}

	insideCandidates := decoding.NewCandidateCollector()
	loc, _, decErr := overlay.Match(ref, a.withRadius(roadmap.StrictConfig), insideCandidates)
	if decErr != nil {
		a.logger.Info("overlay strict decode errored", zap.Error(decErr))
	}
	if loc != nil {
		return compareCandidates(ref, outsideCandidates.Candidates, insideCandidates.Candidates, a.withRadius(roadmap.StrictConfig))
	}
	return a.cascade(overlay, ref)
}

// cascade implements spec.md §4.5: run overlay decodes with increasing
// relaxation and return the first positive result's named cause.
func (a *Analyzer) cascade(overlay *buffer.Overlay, ref *openlr.LineLocationReference) result.AnalysisResult {
	if loc, _, _ := overlay.Match(ref, a.withRadius(roadmap.AnyPathConfig), nil); loc == nil {
		return result.MissingOrMisconfiguredRoad
	}
	if loc, _, _ := overlay.Match(ref, a.withRadius(roadmap.IgnoreFRCConfig), nil); loc != nil {
		return result.FRCMismatch
	}
	if loc, _, _ := overlay.Match(ref, a.withRadius(roadmap.IgnoreFOWConfig), nil); loc != nil {
		return result.FOWMismatch
	}
	if loc, _, _ := overlay.Match(ref, a.withRadius(roadmap.IgnorePathLengthConfig), nil); loc != nil {
		return result.PathLengthMismatch
	}
	if loc, _, _ := overlay.Match(ref, a.withRadius(roadmap.IgnoreBearingConfig), nil); loc != nil {
		return result.BearingMismatch
	}
	return result.MultipleAttributeMismatches
}

// buildDecodedLineString implements spec.md §4.4 step 4's decoded_ls
// construction: trim ls by loc.POff from the front and loc.NOff from the
// back, shrinking the offsets first if their sum would leave less than
// 1 meter of line (spec.md §8's degenerate-collapse boundary case).
// Grounded on original_source/odat/analyzer.py:build_decoded_ls.
func buildDecodedLineString(ls geocoord.LineString, loc *roadmap.LineLocation) geocoord.LineString {
	const minLengthM = 1.0
	if loc.POff <= 0 && loc.NOff <= 0 {
		return ls
	}

	posOff, negOff := loc.POff, loc.NOff
	var lineLength float64
	for _, l := range loc.Lines {
		lineLength += l.Length
	}
	if lineLength-posOff-negOff < minLengthM {
		additional := math.Max((posOff+negOff-lineLength)/2.0, minLengthM)
		posOff = math.Max(posOff-additional, 0)
		negOff = math.Max(negOff-additional, 0)
	}

	front := ls
	if posOff > 0 {
		_, tail := geocoord.SplitLine(ls, posOff)
		if tail == nil {
			return geocoord.LineString{ls.End(), ls.End()}
		}
		front = *tail
	}

	back := front
	if negOff > 0 {
		_, tail := geocoord.SplitLine(front.Reverse(), negOff)
		if tail == nil {
			return geocoord.LineString{front.Start(), front.Start()}
		}
		back = tail.Reverse()
	}
	return back
}

func fractionWithinBuffer(corridor geocoord.Polygon, decodedLS geocoord.LineString) float64 {
	total := geocoord.LineStringLength(decodedLS)
	if total <= 0 {
		return 0
	}
	frac := corridor.IntersectionLength(decodedLS) / total
	return math.Max(0, math.Min(1, frac))
}
