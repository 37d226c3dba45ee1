package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
	"github.com/tomtom-odat/odat-go/internal/roadmap"
)

func meridianLine(startLat, endLat float64) geocoord.LineString {
	return geocoord.LineString{{Lon: 0, Lat: startLat}, {Lon: 0, Lat: endLat}}
}

func TestBuildDecodedLineStringNoopWhenOffsetsZero(t *testing.T) {
	ls := meridianLine(0, 0.01)
	loc := &roadmap.LineLocation{Lines: []*roadmap.Line{{Length: 1110}}}

	out := buildDecodedLineString(ls, loc)
	assert.Equal(t, ls, out)
}

func TestBuildDecodedLineStringTrimsFrontByPositiveOffset(t *testing.T) {
	ls := meridianLine(0, 0.01) // ~1112m north-south
	loc := &roadmap.LineLocation{Lines: []*roadmap.Line{{Length: 1112}}, POff: 200}

	out := buildDecodedLineString(ls, loc)
	require.Len(t, out, 2)
	assert.Less(t, ls.Start().Lat, out.Start().Lat)
	assert.InDelta(t, 200, geocoord.Distance(ls.Start(), out.Start()), 1)
	assert.Equal(t, ls.End(), out.End())
}

func TestBuildDecodedLineStringTrimsBackByNegativeOffset(t *testing.T) {
	ls := meridianLine(0, 0.01)
	loc := &roadmap.LineLocation{Lines: []*roadmap.Line{{Length: 1112}}, NOff: 200}

	out := buildDecodedLineString(ls, loc)
	require.Len(t, out, 2)
	assert.Equal(t, ls.Start(), out.Start())
	assert.InDelta(t, 200, geocoord.Distance(ls.End(), out.End()), 1)
}

func TestBuildDecodedLineStringTrimsBothEnds(t *testing.T) {
	ls := meridianLine(0, 0.01)
	loc := &roadmap.LineLocation{Lines: []*roadmap.Line{{Length: 1112}}, POff: 200, NOff: 300}

	out := buildDecodedLineString(ls, loc)
	require.Len(t, out, 2)
	assert.InDelta(t, 200, geocoord.Distance(ls.Start(), out.Start()), 1)
	assert.InDelta(t, 300, geocoord.Distance(ls.End(), out.End()), 1)
	assert.Less(t, geocoord.LineStringLength(out), geocoord.LineStringLength(ls))
}

// TestBuildDecodedLineStringShrinksDegenerateOffsets covers spec.md §8's
// boundary case: when POff+NOff would leave less than a meter of line,
// both offsets are shrunk symmetrically rather than producing a negative-
// length trim. The shrink formula can still land on a near-zero-length
// result when it does (here POff == NOff == 80 against a ~111m line
// leaves well under a meter) -- that degenerate collapse is itself the
// expected behavior, not a bug.
func TestBuildDecodedLineStringShrinksDegenerateOffsets(t *testing.T) {
	ls := meridianLine(0, 0.001) // ~111m
	loc := &roadmap.LineLocation{Lines: []*roadmap.Line{{Length: 111}}, POff: 80, NOff: 80}

	out := buildDecodedLineString(ls, loc)
	require.Len(t, out, 2)
	assert.LessOrEqual(t, geocoord.LineStringLength(out), 1.0)
}

func TestBuildDecodedLineStringOffsetsConsumingEntireLineCollapseToEndpoint(t *testing.T) {
	ls := meridianLine(0, 0.001)
	loc := &roadmap.LineLocation{Lines: []*roadmap.Line{{Length: 111}}, POff: 500}

	out := buildDecodedLineString(ls, loc)
	require.Len(t, out, 2)
	assert.Equal(t, out[0], out[1])
}
