// Package roadmap defines the target-map entity model (Line, Node,
// Candidate, LineLocation) and the map-reader capability set the
// decoder is polymorphic over. Grounded on original_source/odat's
// buffer_line.py / buffer_node.py, generalized to an interface any
// concrete reader (PostGIS-backed full map, buffer overlay) can
// satisfy.
package roadmap

import (
	"errors"
	"strings"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
)

// ErrLineNotFound and ErrNodeNotFound are returned by GetLine/GetNode
// when the requested id isn't present in the reader (full map or
// overlay).
var (
	ErrLineNotFound = errors.New("roadmap: line not found")
	ErrNodeNotFound = errors.New("roadmap: node not found")
)

// Line is one directed segment of the target road network. A
// bidirectional physical road is represented as two Lines, ids "X" and
// "-X", geometries reversed, sharing FRC/FOW/Length; they are peers and
// must never both appear in a decoded route.
type Line struct {
	ID        string
	FRC       openlr.FRC
	FOW       openlr.FOW
	Length    float64
	StartNode string
	EndNode   string
	Geometry  geocoord.LineString

	// Bidirectional marks a physical road the source schema records as
	// traversable in both directions; readers that seed a BufferOverlay
	// use it to decide whether to also instantiate the "-"-prefixed peer.
	Bidirectional bool

	// ContainedInBuffer and EntryOrExit are meaningful only when this
	// Line was produced by a buffer overlay; a full-map reader always
	// reports ContainedInBuffer true and EntryOrExit false.
	ContainedInBuffer bool
	EntryOrExit       bool
}

// DistanceTo returns the minimum geodesic distance from coord to this
// Line's geometry.
func (l *Line) DistanceTo(coord geocoord.Coordinates) float64 {
	return geocoord.DistanceBetween(l.Geometry, coord)
}

// IsPeerID reports whether id and other name the same physical road in
// opposite directions: ids differ only by a leading "-" on one side.
func IsPeerID(id, other string) bool {
	return other == "-"+id || id == "-"+other
}

// ArePeers reports whether candidate and source are peer Lines.
func ArePeers(candidate, source *Line) bool {
	if candidate == nil || source == nil {
		return false
	}
	return IsPeerID(candidate.ID, source.ID)
}

// PeerID returns the id of l's peer line ("X" <-> "-X").
func PeerID(id string) string {
	if strings.HasPrefix(id, "-") {
		return strings.TrimPrefix(id, "-")
	}
	return "-" + id
}

// Node is a junction in the target road network.
type Node struct {
	ID          string
	Coordinates geocoord.Coordinates

	ContainedInBuffer bool

	outgoing []*Line
	incoming []*Line
}

// AddOutgoing registers l as leaving this node.
func (n *Node) AddOutgoing(l *Line) { n.outgoing = append(n.outgoing, l) }

// AddIncoming registers l as entering this node.
func (n *Node) AddIncoming(l *Line) { n.incoming = append(n.incoming, l) }

// OutgoingLines returns the Lines leaving this node that are traversable
// given source (the line the path arrived on): contained in the buffer
// or flagged entry/exit, and not a peer of source.
func (n *Node) OutgoingLines(source *Line) []*Line {
	return filterTraversable(n.outgoing, source)
}

// IncomingLines returns the Lines entering this node under the same
// traversability rule as OutgoingLines.
func (n *Node) IncomingLines(source *Line) []*Line {
	return filterTraversable(n.incoming, source)
}

// ConnectedLines returns the union of outgoing and incoming traversable
// lines.
func (n *Node) ConnectedLines(source *Line) []*Line {
	out := make([]*Line, 0, len(n.outgoing)+len(n.incoming))
	out = append(out, n.OutgoingLines(source)...)
	out = append(out, n.IncomingLines(source)...)
	return out
}

func filterTraversable(lines []*Line, source *Line) []*Line {
	out := make([]*Line, 0, len(lines))
	for _, l := range lines {
		if !(l.ContainedInBuffer || l.EntryOrExit) {
			continue
		}
		if ArePeers(l, source) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Candidate is a Line considered as the placement of one LRP during
// decoding, carrying the per-axis scores and rejection flags the
// analyzer's candidate comparator reads post-hoc.
type Candidate struct {
	Line       *Line
	PointOnLine geocoord.Coordinates

	GeoScore     float64
	BearingScore float64
	FRCScore     float64
	FOWScore     float64
	TotalScore   float64

	FRCReject     bool
	BearingReject bool
	ScoreReject   bool
}

// LineLocation is the decoder's output: a non-empty, node-connected,
// peer-free chain of Lines plus the residual positive/negative offsets
// in meters.
type LineLocation struct {
	Lines []*Line
	POff  float64
	NOff  float64
}

// MapReader is the capability set the decoder is polymorphic over. Both
// the PostGIS-backed full map reader and a buffer overlay implement it
// identically; the decoder never type-switches between them.
type MapReader interface {
	GetLine(id string) (*Line, error)
	GetNode(id string) (*Node, error)
	FindLinesCloseTo(coord geocoord.Coordinates, distM float64) ([]*Line, error)
	FindNodesCloseTo(coord geocoord.Coordinates, distM float64) ([]*Node, error)
	GetLineCount() (int, error)
	GetNodeCount() (int, error)
}

// Matcher decodes a reference against whatever map a MapReader exposes.
// Both the PostGIS-backed full map reader and a buffer overlay
// implement it identically; match returns (nil, nil, nil) -- not an
// error -- when decoding legitimately finds no location, mirroring the
// original tool's exception-to-None contract.
type Matcher interface {
	Match(ref *openlr.LineLocationReference, config DecodeConfig, observer Observer) (*LineLocation, geocoord.LineString, error)
}

// BufferSource is implemented by full-map readers capable of seeding a
// buffer overlay: returning every Line whose geometry intersects a
// corridor polygon, using a spatial-index MBR prefilter followed by a
// precise intersection test.
type BufferSource interface {
	FindLinesIntersecting(poly geocoord.Polygon) ([]*Line, error)
}

// FullMapReader extends MapReader with the full-map-only operations the
// analyzer needs: decoding a reference directly (producing the
// LineLocation, decoded geometry, and populated observer), and
// extracting the map's overall bounds for the out-of-bounds check.
type FullMapReader interface {
	MapReader
	Matcher
	BufferSource

	// MapBounds returns the polygon enclosing the full target map, used
	// for the out-of-bounds pre-check. concaveRatio >= 1.0 bypasses the
	// concave hull computation in favor of a convex hull (spec.md §6).
	MapBounds(concaveRatio float64) (geocoord.Polygon, error)
}
