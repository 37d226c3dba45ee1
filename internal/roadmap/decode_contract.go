package roadmap

// DecodeConfig is one of the seven named decoding parameter sets below.
// It lives in this package (rather than internal/decoding,
// which implements the engine that consumes it) so that MapReader
// implementations can declare a Match method without decoding
// importing roadmap and roadmap importing decoding at the same time.
type DecodeConfig struct {
	Name string

	// IgnoreFRC disables the FRC checks against an LRP's LFRCNP: a
	// candidate whose FRC is worse is no longer rejected, and connecting
	// paths may traverse lines worse than LFRCNP.
	IgnoreFRC bool

	// IgnoreFOW disables the FOW compatibility check between an LRP's
	// expected FOW and a candidate Line's FOW.
	IgnoreFOW bool

	// IgnoreBearing disables the bearing-deviation rejection/score
	// term entirely.
	IgnoreBearing bool

	// IgnorePathLength disables the DNP-derived path length bound that
	// ordinarily rejects a candidate path whose length strays too far
	// from the LRP's encoded distance-to-next-point.
	IgnorePathLength bool

	// MaxBearingDeviationDeg bounds the acceptable angular difference
	// between an LRP's encoded bearing and a candidate's bearing at
	// its anchor point.
	MaxBearingDeviationDeg float64

	// PathLengthToleranceFraction bounds how far a candidate path's
	// length may deviate from DNP, as a fraction of DNP.
	PathLengthToleranceFraction float64

	// AnyPath relaxes every attribute check (FRC, FOW, bearing, length)
	// at once, including the LFRCNP ceiling on connecting paths,
	// retaining only graph connectivity -- used to test whether a path
	// exists at all.
	AnyPath bool

	// LRPRadiusMeters is the candidate search radius around an LRP's
	// coordinates (spec.md §6's lrp_radius), also used to normalize the
	// geo score. Zero means "use the package default" (decoding.DefaultLRPRadiusM).
	LRPRadiusMeters float64
}

// WithLRPRadius returns a copy of c with LRPRadiusMeters set to m, for
// threading the run's configured lrp_radius (spec.md §6) into one of the
// named configs below without mutating the shared package-level value.
func (c DecodeConfig) WithLRPRadius(m float64) DecodeConfig {
	c.LRPRadiusMeters = m
	return c
}

// Observer is the capability set the decoding engine reports events
// through. CandidateCollector and ScoreCollector (internal/decoding)
// are the two concrete sinks the analyzer wires in; either argument may
// be nil, in which case the engine performs no reporting.
type Observer interface {
	OnCandidateFound(lrpIndex int, c *Candidate)
	OnCandidateRejected(lrpIndex int, c *Candidate)
	OnCandidateRejectedFRC(lrpIndex int, c *Candidate)
	OnCandidateRejectedBearing(lrpIndex int, c *Candidate)
	OnCandidateScore(lrpIndex int, c *Candidate)
	OnCandidatesFound(lrpIndex int, candidates []*Candidate)
	OnNoCandidatesFound(lrpIndex int)
	OnRouteFail(fromLRP, toLRP int)
	OnRouteFailLength(fromLRP, toLRP int)
	OnRouteSuccess(fromLRP, toLRP int, lines []*Line)
	OnLocationEndReached(lrpIndex int, c *Candidate)
	OnMatchingFail(reason string)
}

// Named configurations, per spec.md §4.3. Values for the tolerance
// fields follow the teacher-pack's geo package defaults.
var (
	StrictConfig = DecodeConfig{
		Name:                        "Strict",
		MaxBearingDeviationDeg:      90,
		PathLengthToleranceFraction: 0.3,
	}
	RelaxedConfig = DecodeConfig{
		Name:                        "Relaxed",
		MaxBearingDeviationDeg:      135,
		PathLengthToleranceFraction: 0.5,
	}
	AnyPathConfig = DecodeConfig{
		Name:    "AnyPath",
		AnyPath: true,
	}
	IgnoreFRCConfig = DecodeConfig{
		Name:                        "IgnoreFRC",
		IgnoreFRC:                   true,
		MaxBearingDeviationDeg:      90,
		PathLengthToleranceFraction: 0.3,
	}
	IgnoreFOWConfig = DecodeConfig{
		Name:                        "IgnoreFOW",
		IgnoreFOW:                   true,
		MaxBearingDeviationDeg:      90,
		PathLengthToleranceFraction: 0.3,
	}
	IgnoreBearingConfig = DecodeConfig{
		Name:                        "IgnoreBearing",
		IgnoreBearing:               true,
		MaxBearingDeviationDeg:      180,
		PathLengthToleranceFraction: 0.3,
	}
	IgnorePathLengthConfig = DecodeConfig{
		Name:                        "IgnorePathLength",
		IgnorePathLength:            true,
		MaxBearingDeviationDeg:      90,
		PathLengthToleranceFraction: 1e9,
	}
)
