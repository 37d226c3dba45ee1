package openlr

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildLineLocationPayload assembles a minimal two-LRP line location
// (one first LRP, one last LRP, no offsets) for round-trip testing.
func buildLineLocationPayload() []byte {
	buf := []byte{
		0x01, // status: location type = line (1)
		0x00, // offset flags: no pos/neg offset
	}

	// First LRP: lon=0x00186A (6250, ~0.134deg at coordScale),
	// lat=0x000C35 (3125, ~0.067deg),
	// attr1: FRC=2 (010), FOW=3 (011) -> 010 011 00 = 0x4C
	// attr2: LFRCNP=1 (001), bearing sector=4 -> 001 00100 = 0x24
	// dnp byte = 10
	buf = append(buf, 0x00, 0x18, 0x6A) // lon 24-bit
	buf = append(buf, 0x00, 0x0C, 0x35) // lat 24-bit
	buf = append(buf, 0x4C, 0x24, 10)

	// Last LRP: rel lon/lat = 0, attr1 FRC=2 FOW=3 -> 0x4C, attr2 bearing
	// sector=8 (no LFRCNP bits meaningful) -> 0x08
	buf = append(buf, 0x00, 0x00, 0x00, 0x00, 0x4C, 0x08)

	return buf
}

func TestDecodeBytesLineLocation(t *testing.T) {
	raw := buildLineLocationPayload()

	ref, err := DecodeBytes(raw)
	require.NoError(t, err)

	lineRef, ok := ref.(*LineLocationReference)
	require.True(t, ok, "expected a line location reference")
	assert.Len(t, lineRef.Points, 2)
	assert.Equal(t, FRC2, lineRef.Points[0].FRC)
	assert.Equal(t, FOWSingleCarriageway, lineRef.Points[0].FOW)
	assert.InDelta(t, 0.0, lineRef.PosOff, 1e-9)
	assert.InDelta(t, 0.0, lineRef.NegOff, 1e-9)
}

func TestDecodeHexRoundTrip(t *testing.T) {
	raw := buildLineLocationPayload()
	hexPayload := hex.EncodeToString(raw)

	ref, err := Decode(hexPayload)
	require.NoError(t, err)
	require.IsType(t, &LineLocationReference{}, ref)
}

func TestDecodeUnsupportedLocationType(t *testing.T) {
	raw := []byte{0x02, 0x00} // location type 2 = geo coordinate
	ref, err := DecodeBytes(raw)
	require.NoError(t, err)

	unsupported, ok := ref.(*UnsupportedLocationReference)
	require.True(t, ok)
	assert.Equal(t, LocationTypeGeoCoordinate, unsupported.Type())
}

func TestDecodeTruncatedPayload(t *testing.T) {
	_, err := DecodeBytes([]byte{0x01, 0x00, 0x01, 0x02})
	assert.Error(t, err)
}

func TestDecodeInvalidHex(t *testing.T) {
	_, err := Decode("not-hex!!")
	assert.Error(t, err)
}
