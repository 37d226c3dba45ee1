// Package result defines the closed AnalysisResult enum: the analyzer's
// one categorical outcome per input, never a Go error crossing a
// package boundary. Values and semantics are ported exactly from
// original_source/odat/analysis_result.py; only the naming convention
// (SCREAMING_SNAKE -> Go-exported identifier) and the JSON
// representation (spec.md §6: "name without enum prefix") change.
package result

import "encoding/json"

// AnalysisResult is the analyzer's single categorical verdict for one
// (OpenLR code, source geometry) input.
type AnalysisResult int

const (
	// OK: decoding succeeded and the decoded LineString was completely
	// within the buffer.
	OK AnalysisResult = iota

	// MissingOrMisconfiguredRoad: decoding failed and no viable path
	// could be found within the buffer even with every attribute
	// relaxed -- probably missing or misconfigured roads in the target
	// map, or an OpenLR beyond the map's extent.
	MissingOrMisconfiguredRoad

	// AlternateShortestPath: decoding succeeded, the decoded geometry
	// was not fully within the buffer, but every LRP was placed
	// identically to the in-buffer decode -- a shorter interior path
	// exists in the target map that the encoder either didn't know
	// about or excluded on FRC grounds.
	AlternateShortestPath

	// FRCMismatch: a viable in-buffer path exists but was only
	// selected once FRC/LFRC restrictions were ignored -- a road's FRC
	// in the target map is too low relative to the LRPs.
	FRCMismatch

	// FOWMismatch: a viable in-buffer path exists but was only
	// selected once FOW restrictions were ignored -- a road's FOW
	// doesn't match what the LRPs expect.
	FOWMismatch

	// BearingMismatch: a viable in-buffer path exists but was only
	// selected once bearing restrictions were ignored.
	BearingMismatch

	// PathLengthMismatch: a viable in-buffer path exists but was only
	// selected once path-length restrictions were ignored -- the
	// encoded path likely wasn't the intended one, or roads are
	// missing that would otherwise form an acceptably short path.
	PathLengthMismatch

	// UnsupportedLocationType: the OpenLR code is not a line location.
	UnsupportedLocationType

	// MultipleAttributeMismatches: a viable in-buffer path exists but
	// relaxing any single attribute individually still failed to
	// surface it -- more than one attribute (e.g. bearing and FRC
	// together) is incompatible with the LRPs.
	MultipleAttributeMismatches

	// UnknownError: an unexpected error occurred during analysis;
	// consult logs for the cause.
	UnknownError

	// OutsideMapBounds: the source geometry lies outside the target
	// map's extent. Not necessarily an error in isolation, but a
	// cluster of these may indicate a source/target region mismatch.
	OutsideMapBounds

	// DuplicateOpenLRCode: this OpenLR code was already analyzed in
	// this run. Excluded from aggregate statistics.
	DuplicateOpenLRCode

	// BetterGeolocationFound: decoding succeeded but the decoded
	// geometry wasn't fully within the buffer, and the dominant reason
	// an outside-buffer LRP placement beat its in-buffer counterpart
	// was geolocation score.
	BetterGeolocationFound

	// BetterBearingFound: as above, dominant reason was bearing score.
	BetterBearingFound

	// BetterFRCFound: as above, dominant reason was FRC score.
	BetterFRCFound

	// BetterFOWFound: as above, dominant reason was FOW score.
	BetterFOWFound

	// BetterScoreFound: as above, but more than one scoring axis
	// contributed to the outside candidate's advantage.
	BetterScoreFound

	// InvalidGeometry: adjusting the location reference's offsets
	// collapsed the geometry to zero length and raised a geodesic
	// error.
	InvalidGeometry
)

var names = [...]string{
	"OK",
	"MISSING_OR_MISCONFIGURED_ROAD",
	"ALTERNATE_SHORTEST_PATH",
	"FRC_MISMATCH",
	"FOW_MISMATCH",
	"BEARING_MISMATCH",
	"PATH_LENGTH_MISMATCH",
	"UNSUPPORTED_LOCATION_TYPE",
	"MULTIPLE_ATTRIBUTE_MISMATCHES",
	"UNKNOWN_ERROR",
	"OUTSIDE_MAP_BOUNDS",
	"DUPLICATE_OPENLR_CODE",
	"BETTER_GEOLOCATION_FOUND",
	"BETTER_BEARING_FOUND",
	"BETTER_FRC_FOUND",
	"BETTER_FOW_FOUND",
	"BETTER_SCORE_FOUND",
	"INVALID_GEOMETRY",
}

// String returns the result's name, matching spec.md §6's wire format
// exactly (no Go-identifier prefix, no package qualifier).
func (r AnalysisResult) String() string {
	if int(r) < 0 || int(r) >= len(names) {
		return "UNKNOWN_ERROR"
	}
	return names[r]
}

// MarshalJSON emits the result as its bare name string.
func (r AnalysisResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON accepts the bare name string form MarshalJSON produces.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for i, n := range names {
		if n == s {
			*r = AnalysisResult(i)
			return nil
		}
	}
	*r = UnknownError
	return nil
}

// IsFullDecodeFailureTerminal reports whether r is a terminal verdict
// reached via the "full decode failed" branch of the decision tree, for
// which spec.md §8 fixes fraction_within_buffer to 0.0 regardless of
// any computed overlap.
func (r AnalysisResult) IsFullDecodeFailureTerminal() bool {
	switch r {
	case OutsideMapBounds, UnsupportedLocationType,
		MissingOrMisconfiguredRoad, FRCMismatch, FOWMismatch,
		BearingMismatch, PathLengthMismatch, MultipleAttributeMismatches:
		return true
	default:
		return false
	}
}
