package postgis

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"

	"github.com/tomtom-odat/odat-go/internal/decoding"
	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/openlr"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

// Reader is a roadmap.FullMapReader backed by a lines/nodes schema in
// PostGIS, in the style of the teacher's postgresosm repositories: one
// struct per table family, sqlx query/scan, sql.ErrNoRows mapped to
// the roadmap package's not-found errors and other database failures
// returned wrapped.
type Reader struct {
	db         *sqlx.DB
	linesTable string
	nodesTable string
	logger     *zap.Logger
}

// NewReader builds a Reader over db, reading from linesTable/nodesTable
// (spec.md §6: lines_table, nodes_table options).
func NewReader(db *DB, linesTable, nodesTable string, logger *zap.Logger) *Reader {
	return &Reader{db: db.DB, linesTable: linesTable, nodesTable: nodesTable, logger: logger}
}

type lineRow struct {
	ID            string `db:"id"`
	FRC           int    `db:"frc"`
	FOW           int    `db:"fow"`
	Length        float64 `db:"length_m"`
	StartNode     string `db:"start_node"`
	EndNode       string `db:"end_node"`
	Bidirectional bool   `db:"bidirectional"`
	Geom          []byte `db:"geom"`
}

func (r *lineRow) toLine() (*roadmap.Line, error) {
	geom, err := wkb.Unmarshal(r.Geom)
	if err != nil {
		return nil, fmt.Errorf("postgis: decoding line %s geometry: %w", r.ID, err)
	}
	ls, ok := geom.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("postgis: line %s geometry is not a LineString", r.ID)
	}
	return &roadmap.Line{
		ID:                r.ID,
		FRC:               openlr.FRC(r.FRC),
		FOW:               openlr.FOW(r.FOW),
		Length:            r.Length,
		StartNode:         r.StartNode,
		EndNode:           r.EndNode,
		Bidirectional:     r.Bidirectional,
		Geometry:          geocoord.FromOrbLineString(ls),
		ContainedInBuffer: true,
	}, nil
}

// GetLine looks up id, transparently resolving the "-"-prefixed peer of
// a bidirectional line onto its base row with reversed geometry and
// swapped endpoints, per spec.md §3's Line invariant and SPEC_FULL.md
// §5's peer-identity convention.
func (r *Reader) GetLine(id string) (*roadmap.Line, error) {
	baseID, reversed := roadmap.PeerID(id), false
	lookupID := id
	if len(id) > 0 && id[0] == '-' {
		lookupID = baseID
		reversed = true
	}

	query := fmt.Sprintf(`
		SELECT id, frc, fow, length_m, start_node, end_node, bidirectional,
		       ST_AsBinary(geom) AS geom
		FROM %s WHERE id = $1`, r.linesTable)

	var row lineRow
	if err := r.db.Get(&row, query, lookupID); err != nil {
		if err == sql.ErrNoRows {
			return nil, roadmap.ErrLineNotFound
		}
		r.logger.Error("get line failed", zap.String("id", lookupID), zap.Error(err))
		return nil, fmt.Errorf("postgis: get line %s: %w", lookupID, err)
	}

	line, err := row.toLine()
	if err != nil {
		return nil, err
	}
	if reversed {
		if !line.Bidirectional {
			return nil, roadmap.ErrLineNotFound
		}
		line.ID = "-" + line.ID
		line.StartNode, line.EndNode = line.EndNode, line.StartNode
		line.Geometry = line.Geometry.Reverse()
	}
	return line, nil
}

type nodeRow struct {
	ID  string  `db:"id"`
	Lon float64 `db:"lon"`
	Lat float64 `db:"lat"`
}

func (r *Reader) GetNode(id string) (*roadmap.Node, error) {
	query := fmt.Sprintf(`SELECT id, lon, lat FROM %s WHERE id = $1`, r.nodesTable)

	var row nodeRow
	if err := r.db.Get(&row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, roadmap.ErrNodeNotFound
		}
		r.logger.Error("get node failed", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("postgis: get node %s: %w", id, err)
	}

	node := &roadmap.Node{ID: row.ID, Coordinates: geocoord.Coordinates{Lon: row.Lon, Lat: row.Lat}, ContainedInBuffer: true}

	outQuery := fmt.Sprintf(`
		SELECT id, frc, fow, length_m, start_node, end_node, bidirectional,
		       ST_AsBinary(geom) AS geom
		FROM %s WHERE start_node = $1`, r.linesTable)
	var outRows []lineRow
	if err := r.db.Select(&outRows, outQuery, id); err != nil {
		return nil, fmt.Errorf("postgis: outgoing lines for node %s: %w", id, err)
	}
	for _, rr := range outRows {
		l, err := rr.toLine()
		if err != nil {
			return nil, err
		}
		node.AddOutgoing(l)
		if l.Bidirectional {
			node.AddIncoming(peerLine(l))
		}
	}

	inQuery := fmt.Sprintf(`
		SELECT id, frc, fow, length_m, start_node, end_node, bidirectional,
		       ST_AsBinary(geom) AS geom
		FROM %s WHERE end_node = $1`, r.linesTable)
	var inRows []lineRow
	if err := r.db.Select(&inRows, inQuery, id); err != nil {
		return nil, fmt.Errorf("postgis: incoming lines for node %s: %w", id, err)
	}
	for _, rr := range inRows {
		l, err := rr.toLine()
		if err != nil {
			return nil, err
		}
		node.AddIncoming(l)
		if l.Bidirectional {
			node.AddOutgoing(peerLine(l))
		}
	}

	return node, nil
}

func peerLine(l *roadmap.Line) *roadmap.Line {
	return &roadmap.Line{
		ID:                roadmap.PeerID(l.ID),
		FRC:               l.FRC,
		FOW:               l.FOW,
		Length:            l.Length,
		StartNode:         l.EndNode,
		EndNode:           l.StartNode,
		Bidirectional:     l.Bidirectional,
		Geometry:          l.Geometry.Reverse(),
		ContainedInBuffer: true,
	}
}

// FindLinesCloseTo runs an ST_DWithin proximity query (geography cast,
// so distM is meters regardless of the stored SRID).
func (r *Reader) FindLinesCloseTo(coord geocoord.Coordinates, distM float64) ([]*roadmap.Line, error) {
	query := fmt.Sprintf(`
		SELECT id, frc, fow, length_m, start_node, end_node, bidirectional,
		       ST_AsBinary(geom) AS geom
		FROM %s
		WHERE ST_DWithin(geom::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)`,
		r.linesTable)

	var rows []lineRow
	if err := r.db.Select(&rows, query, coord.Lon, coord.Lat, distM); err != nil {
		return nil, fmt.Errorf("postgis: find lines close to point: %w", err)
	}

	out := make([]*roadmap.Line, 0, len(rows)*2)
	for _, rr := range rows {
		l, err := rr.toLine()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
		if l.Bidirectional {
			out = append(out, peerLine(l))
		}
	}
	return out, nil
}

func (r *Reader) FindNodesCloseTo(coord geocoord.Coordinates, distM float64) ([]*roadmap.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, lon, lat FROM %s
		WHERE ST_DWithin(
			ST_SetSRID(ST_MakePoint(lon, lat), 4326)::geography,
			ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)`,
		r.nodesTable)

	var rows []nodeRow
	if err := r.db.Select(&rows, query, coord.Lon, coord.Lat, distM); err != nil {
		return nil, fmt.Errorf("postgis: find nodes close to point: %w", err)
	}

	out := make([]*roadmap.Node, 0, len(rows))
	for _, rr := range rows {
		out = append(out, &roadmap.Node{ID: rr.ID, Coordinates: geocoord.Coordinates{Lon: rr.Lon, Lat: rr.Lat}, ContainedInBuffer: true})
	}
	return out, nil
}

func (r *Reader) GetLineCount() (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, r.linesTable)
	if err := r.db.Get(&n, query); err != nil {
		return 0, fmt.Errorf("postgis: count lines: %w", err)
	}
	return n, nil
}

func (r *Reader) GetNodeCount() (int, error) {
	var n int
	query := fmt.Sprintf(`SELECT count(*) FROM %s`, r.nodesTable)
	if err := r.db.Get(&n, query); err != nil {
		return 0, fmt.Errorf("postgis: count nodes: %w", err)
	}
	return n, nil
}

// FindLinesIntersecting implements the BufferOverlay seed query
// (spec.md §4.1): a spatial-index MBR prefilter (the "&&" bounding-box
// operator) followed by the precise ST_Intersects test.
func (r *Reader) FindLinesIntersecting(poly geocoord.Polygon) ([]*roadmap.Line, error) {
	wkt := polygonWKT(poly)
	query := fmt.Sprintf(`
		SELECT id, frc, fow, length_m, start_node, end_node, bidirectional,
		       ST_AsBinary(geom) AS geom
		FROM %s
		WHERE geom && ST_GeomFromText($1, 4326)
		  AND ST_Intersects(geom, ST_GeomFromText($1, 4326))`,
		r.linesTable)

	var rows []lineRow
	if err := r.db.Select(&rows, query, wkt); err != nil {
		return nil, fmt.Errorf("postgis: find lines intersecting corridor: %w", err)
	}

	out := make([]*roadmap.Line, 0, len(rows))
	for _, rr := range rows {
		l, err := rr.toLine()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// MapBounds computes the full target map's extent via ST_ConcaveHull,
// falling back to ST_ConvexHull on a data error per spec.md §6/§7
// ("fall back to convex hull if the concave computation fails with a
// data error"), grounded on original_source/run_analyzer.py:get_map_bounds.
func (r *Reader) MapBounds(concaveRatio float64) (geocoord.Polygon, error) {
	if concaveRatio >= 1.0 {
		return r.convexMapBounds()
	}

	query := fmt.Sprintf(`
		SELECT ST_AsBinary(ST_ConcaveHull(ST_Collect(geom), $1)) FROM %s`, r.linesTable)

	var wkbBytes []byte
	if err := r.db.Get(&wkbBytes, query, concaveRatio); err != nil {
		r.logger.Warn("concave hull computation failed, falling back to convex hull", zap.Error(err))
		return r.convexMapBounds()
	}
	return decodePolygon(wkbBytes)
}

func (r *Reader) convexMapBounds() (geocoord.Polygon, error) {
	query := fmt.Sprintf(`SELECT ST_AsBinary(ST_ConvexHull(ST_Collect(geom))) FROM %s`, r.linesTable)
	var wkbBytes []byte
	if err := r.db.Get(&wkbBytes, query); err != nil {
		return geocoord.Polygon{}, fmt.Errorf("postgis: convex hull map bounds: %w", err)
	}
	return decodePolygon(wkbBytes)
}

func decodePolygon(wkbBytes []byte) (geocoord.Polygon, error) {
	geom, err := wkb.Unmarshal(wkbBytes)
	if err != nil {
		return geocoord.Polygon{}, fmt.Errorf("postgis: decoding map bounds geometry: %w", err)
	}
	op, ok := geom.(orb.Polygon)
	if !ok {
		return geocoord.Polygon{}, fmt.Errorf("postgis: map bounds geometry is not a Polygon")
	}
	return geocoord.FromOrbPolygon(op), nil
}

func polygonWKT(poly geocoord.Polygon) string {
	ring := poly.Ring
	coords := make([]string, 0, len(ring))
	for _, c := range ring {
		coords = append(coords, fmt.Sprintf("%f %f", c.Lon, c.Lat))
	}
	return "POLYGON((" + strings.Join(coords, ", ") + "))"
}

// Match decodes ref against the full map, in the teacher-observer style
// the analyzer attaches CandidateCollector/ScoreCollector through.
func (r *Reader) Match(ref *openlr.LineLocationReference, config roadmap.DecodeConfig, observer roadmap.Observer) (*roadmap.LineLocation, geocoord.LineString, error) {
	return decoding.Decode(r, ref, config, observer)
}

var _ roadmap.FullMapReader = (*Reader)(nil)
