// Package decoding implements the candidate-search / path-matching
// decoder: given a map-reader capability set, an OpenLR line-location
// reference, and a DecodeConfig, finds a node-connected chain of Lines
// that matches the reference. Grounded on
// original_source/odat/odat_observer.py for the two observer sinks and
// on the general shape of openlr_dereferencer's candidate/routing
// split, reimplemented directly since that dependency's source isn't
// vendored in the retrieval pack.
package decoding

import "github.com/tomtom-odat/odat-go/internal/roadmap"

// CandidateCollector stores the one confirmed Candidate per LRP index,
// captured only when the decoder reaches the end of the location
// (on_location_end_reached in the original tool). It is the observer
// the analyzer attaches to a full decode it intends to compare against
// a second decode's candidate sequence.
type CandidateCollector struct {
	Candidates map[int]*roadmap.Candidate
}

func NewCandidateCollector() *CandidateCollector {
	return &CandidateCollector{Candidates: make(map[int]*roadmap.Candidate)}
}

func (c *CandidateCollector) OnCandidateFound(int, *roadmap.Candidate)            {}
func (c *CandidateCollector) OnCandidateRejected(int, *roadmap.Candidate)         {}
func (c *CandidateCollector) OnCandidateRejectedFRC(int, *roadmap.Candidate)      {}
func (c *CandidateCollector) OnCandidateRejectedBearing(int, *roadmap.Candidate)  {}
func (c *CandidateCollector) OnCandidateScore(int, *roadmap.Candidate)            {}
func (c *CandidateCollector) OnCandidatesFound(int, []*roadmap.Candidate)         {}
func (c *CandidateCollector) OnNoCandidatesFound(int)                            {}
func (c *CandidateCollector) OnRouteFail(int, int)                               {}
func (c *CandidateCollector) OnRouteFailLength(int, int)                         {}
func (c *CandidateCollector) OnRouteSuccess(int, int, []*roadmap.Line)           {}
func (c *CandidateCollector) OnMatchingFail(string)                             {}

func (c *CandidateCollector) OnLocationEndReached(lrpIndex int, cand *roadmap.Candidate) {
	c.Candidates[lrpIndex] = cand
}

// ScoreCollector overwrites its scalar fields on every scoring event,
// retaining only the most recent. diagnoseScore (internal/analyzer)
// attaches a fresh ScoreCollector around a single re-scored candidate to
// read back its axis scores and rejection flags.
type ScoreCollector struct {
	GeoScore     float64
	BearingScore float64
	FRCScore     float64
	FOWScore     float64
	TotalScore   float64

	FRCReject     bool
	BearingReject bool
	ScoreReject   bool
}

func NewScoreCollector() *ScoreCollector { return &ScoreCollector{} }

func (s *ScoreCollector) OnCandidateFound(int, *roadmap.Candidate)           {}
func (s *ScoreCollector) OnCandidateRejected(int, *roadmap.Candidate)        {}
func (s *ScoreCollector) OnCandidatesFound(int, []*roadmap.Candidate)        {}
func (s *ScoreCollector) OnNoCandidatesFound(int)                           {}
func (s *ScoreCollector) OnRouteFail(int, int)                              {}
func (s *ScoreCollector) OnRouteFailLength(int, int)                        {}
func (s *ScoreCollector) OnRouteSuccess(int, int, []*roadmap.Line)          {}
func (s *ScoreCollector) OnLocationEndReached(int, *roadmap.Candidate)      {}
func (s *ScoreCollector) OnMatchingFail(string)                            {}

func (s *ScoreCollector) OnCandidateRejectedFRC(_ int, c *roadmap.Candidate) {
	s.FRCReject = true
}

func (s *ScoreCollector) OnCandidateRejectedBearing(_ int, c *roadmap.Candidate) {
	s.BearingReject = true
}

func (s *ScoreCollector) OnCandidateScore(_ int, c *roadmap.Candidate) {
	s.GeoScore = c.GeoScore
	s.BearingScore = c.BearingScore
	s.FRCScore = c.FRCScore
	s.FOWScore = c.FOWScore
	s.TotalScore = c.TotalScore
	if c.ScoreReject {
		s.ScoreReject = true
	}
}

var _ roadmap.Observer = (*CandidateCollector)(nil)
var _ roadmap.Observer = (*ScoreCollector)(nil)
