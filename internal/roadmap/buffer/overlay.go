// Package buffer implements the BufferOverlay (spec.md §4.1): a
// read-only view of the target map restricted to a corridor polygon
// around the source geometry being analyzed, exposing the same
// MapReader/Matcher contract as the full map so the decoding engine is
// agnostic to which it sees. Grounded on
// original_source/odat/buffer_reader.py's Corridor/buffer construction,
// generalized from its SQLite schema onto the roadmap.FullMapReader
// capability set.
package buffer

import (
	"github.com/tomtom-odat/odat-go/internal/decoding"
	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
	"go.uber.org/zap"
)

// Overlay is constructed once per analyzed input from the corridor
// polygon B and the LineLocationReference L being analyzed, and
// discarded when that input's analysis completes. It is never shared
// across workers or across inputs.
type Overlay struct {
	poly geocoord.Polygon

	// firstCoord and lastCoord are L.points[0] and L.points[-1]: the two
	// coordinates for which FindLinesCloseTo returns entry/exit lines
	// regardless of buffer containment.
	firstCoord geocoord.Coordinates
	lastCoord  geocoord.Coordinates

	lines map[string]*roadmap.Line
	nodes map[string]*roadmap.Node

	logger *zap.Logger
}

// New builds a BufferOverlay over poly, seeded from source's
// FindLinesIntersecting (a spatial-index MBR prefilter followed by a
// precise intersection test, per spec.md §4.1), parameterized by the
// reference ref whose first/last LRP coordinates get the entry/exit
// exception. logger may be nil, in which case a no-op logger is used.
func New(source roadmap.BufferSource, poly geocoord.Polygon, ref *openlr.LineLocationReference, logger *zap.Logger) (*Overlay, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	lines, err := source.FindLinesIntersecting(poly)
	if err != nil {
		return nil, err
	}

	o := &Overlay{
		poly:       poly,
		firstCoord: ref.Points[0].Coordinates,
		lastCoord:  ref.Points[len(ref.Points)-1].Coordinates,
		lines:      make(map[string]*roadmap.Line, len(lines)*2),
		nodes:      make(map[string]*roadmap.Node),
		logger:     logger,
	}

	for _, src := range lines {
		o.addLine(src)
		if src.Bidirectional {
			o.addLine(peerOf(src))
		}
	}

	return o, nil
}

func (o *Overlay) addLine(l *roadmap.Line) {
	cp := *l
	cp.ContainedInBuffer = o.poly.Contains(cp.Geometry)
	o.lines[cp.ID] = &cp

	startNode := o.nodeFor(cp.StartNode, cp.Geometry.Start())
	endNode := o.nodeFor(cp.EndNode, cp.Geometry.End())
	startNode.AddOutgoing(&cp)
	endNode.AddIncoming(&cp)
}

func (o *Overlay) nodeFor(id string, coord geocoord.Coordinates) *roadmap.Node {
	if n, ok := o.nodes[id]; ok {
		return n
	}
	n := &roadmap.Node{ID: id, Coordinates: coord, ContainedInBuffer: o.poly.ContainsPoint(coord)}
	o.nodes[id] = n
	return n
}

// peerOf builds the reversed-geometry peer of a bidirectional Line,
// sharing FRC/FOW/length and swapped endpoints, per spec.md §3's Line
// invariant.
func peerOf(l *roadmap.Line) *roadmap.Line {
	return &roadmap.Line{
		ID:            roadmap.PeerID(l.ID),
		FRC:           l.FRC,
		FOW:           l.FOW,
		Length:        l.Length,
		StartNode:     l.EndNode,
		EndNode:       l.StartNode,
		Geometry:      l.Geometry.Reverse(),
		Bidirectional: l.Bidirectional,
	}
}

func (o *Overlay) GetLine(id string) (*roadmap.Line, error) {
	l, ok := o.lines[id]
	if !ok {
		return nil, roadmap.ErrLineNotFound
	}
	return l, nil
}

func (o *Overlay) GetNode(id string) (*roadmap.Node, error) {
	n, ok := o.nodes[id]
	if !ok {
		return nil, roadmap.ErrNodeNotFound
	}
	return n, nil
}

// FindLinesCloseTo implements spec.md §4.1's entry/exit exception:
// when coord is the reference's first or last LRP coordinate, every
// Line within distM is returned regardless of containment, and
// EntryOrExit is atomically set true on each. For any other coord, only
// contained-in-buffer Lines are considered.
func (o *Overlay) FindLinesCloseTo(coord geocoord.Coordinates, distM float64) ([]*roadmap.Line, error) {
	isEndpoint := coord == o.firstCoord || coord == o.lastCoord

	var out []*roadmap.Line
	for _, l := range o.lines {
		if !isEndpoint && !l.ContainedInBuffer {
			continue
		}
		if l.DistanceTo(coord) > distM {
			continue
		}
		if isEndpoint {
			l.EntryOrExit = true
		}
		out = append(out, l)
	}
	return out, nil
}

func (o *Overlay) FindNodesCloseTo(coord geocoord.Coordinates, distM float64) ([]*roadmap.Node, error) {
	var out []*roadmap.Node
	for _, n := range o.nodes {
		if geocoord.Distance(n.Coordinates, coord) <= distM {
			out = append(out, n)
		}
	}
	return out, nil
}

func (o *Overlay) GetLineCount() (int, error) { return len(o.lines), nil }
func (o *Overlay) GetNodeCount() (int, error) { return len(o.nodes), nil }

// Match invokes the decoding engine against this overlay. Any decoder
// failure is caught and converted to a nil LineLocation, per spec.md
// §4.1's "any decoder exception is caught and converted to None
// (logged at info level)".
func (o *Overlay) Match(ref *openlr.LineLocationReference, config roadmap.DecodeConfig, observer roadmap.Observer) (loc *roadmap.LineLocation, decodedLS geocoord.LineString, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Info("buffer overlay decode panicked, treating as no match", zap.String("config", config.Name), zap.Any("panic", r))
			loc, decodedLS, err = nil, nil, nil
		}
	}()

	loc, decodedLS, decErr := decoding.Decode(o, ref, config, observer)
	if decErr != nil {
		o.logger.Info("buffer overlay decode failed, treating as no match", zap.String("config", config.Name), zap.Error(decErr))
		return nil, nil, nil
	}
	return loc, decodedLS, nil
}

var _ roadmap.MapReader = (*Overlay)(nil)
var _ roadmap.Matcher = (*Overlay)(nil)
