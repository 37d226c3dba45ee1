package openlr

import (
	"encoding/hex"
	"fmt"

	"github.com/tomtom-odat/odat-go/internal/geocoord"
)

// coordScale converts a raw 24-bit signed grid coordinate to a WGS-84
// degree value. The OpenLR physical format quantizes both longitude and
// latitude to the same 2^24-step grid over 360 degrees.
const coordScale = 360.0 / (1 << 24)

// relCoordScale converts a relative 16-bit signed delta (used by every
// LRP after the first) back to degrees. One relative unit is 1/100th of
// one step of the absolute first-point grid.
const relCoordScale = coordScale / 100.0

// bearingSectorDeg is the angular width of one of the 32 bearing sectors
// the format quantizes bearing into.
const bearingSectorDeg = 360.0 / 32.0

// dnpValueToMeters converts the 1-byte "distance to next point" value (0-255)
// into meters, per the format's 256-step table covering 0..15000m.
func dnpValueToMeters(v byte) float64 {
	return (float64(v) + 0.5) * (15000.0 / 256.0)
}

// decodeError is returned when a binary payload is shorter than its
// header declares it should be, or its length doesn't resolve to a
// whole number of LRPs.
type decodeError struct{ msg string }

func (e *decodeError) Error() string { return e.msg }

func errTruncated(where string) error {
	return &decodeError{msg: fmt.Sprintf("openlr: truncated payload at %s", where)}
}

// Decode parses a hex-encoded OpenLR physical binary payload. Line
// locations are fully decoded into a *LineLocationReference; any other
// recognized header tag yields an *UnsupportedLocationReference.
func Decode(hexPayload string) (LocationReference, error) {
	raw, err := hex.DecodeString(hexPayload)
	if err != nil {
		return nil, fmt.Errorf("openlr: invalid hex payload: %w", err)
	}
	return DecodeBytes(raw)
}

// DecodeBytes parses a raw OpenLR physical binary payload.
func DecodeBytes(raw []byte) (LocationReference, error) {
	if len(raw) < 1 {
		return nil, errTruncated("header")
	}

	status := raw[0]
	locType := LocationType(status & 0x07)

	if locType != LocationTypeLine {
		return &UnsupportedLocationReference{LocationType: locType}, nil
	}

	if len(raw) < 2 {
		return nil, errTruncated("offset flags")
	}
	offsetFlags := raw[1]
	hasPosOff := offsetFlags&0x40 != 0
	hasNegOff := offsetFlags&0x20 != 0

	offsetBytes := 0
	if hasPosOff {
		offsetBytes++
	}
	if hasNegOff {
		offsetBytes++
	}

	// The format carries no explicit LRP count; it is derived from the
	// total payload length once the fixed-size header, first LRP, last
	// LRP, and trailing offset bytes are accounted for, leaving a
	// remainder that must be an exact multiple of one intermediate
	// LRP's size.
	const headerSize = 2
	fixed := headerSize + firstLRPSize + lastLRPSize + offsetBytes
	if len(raw) < fixed {
		return nil, errTruncated("LRP list")
	}
	remainder := len(raw) - fixed
	if remainder%intermediateLRPSize != 0 {
		return nil, &decodeError{msg: "openlr: payload length is not a whole number of LRPs"}
	}
	numIntermediate := remainder / intermediateLRPSize

	r := &byteReader{data: raw, pos: 2}

	first, err := decodeFirstLRP(r)
	if err != nil {
		return nil, err
	}
	points := []LocationReferencePoint{first}

	// Intermediate and last LRPs are relative to the previous point and
	// share the same on-wire attribute layout; only the last omits
	// LFRCNP and DNP.
	lastLon, lastLat := first.Coordinates.Lon, first.Coordinates.Lat
	for i := 0; i <= numIntermediate; i++ {
		isLast := i == numIntermediate
		p, lon, lat, err := decodeSubsequentLRP(r, lastLon, lastLat, isLast)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
		lastLon, lastLat = lon, lat
	}

	ref := &LineLocationReference{Points: points}

	if hasPosOff {
		v, err := r.byte()
		if err != nil {
			return nil, errTruncated("positive offset")
		}
		dnp := points[0].DNP
		ref.PosOff = offsetFraction(v) * dnp
	}
	if hasNegOff {
		v, err := r.byte()
		if err != nil {
			return nil, errTruncated("negative offset")
		}
		dnp := points[len(points)-2].DNP
		ref.NegOff = offsetFraction(v) * dnp
	}

	return ref, nil
}

func offsetFraction(v byte) float64 {
	return (float64(v) + 0.5) / 256.0
}

// On-wire sizes, in bytes, of each LRP kind.
const (
	firstLRPSize        = 3 + 3 + 1 + 1 + 1 // lon, lat, attr1, attr2, dnp
	intermediateLRPSize = 2 + 2 + 1 + 1 + 1 // rel lon, rel lat, attr1, attr2, dnp
	lastLRPSize         = 2 + 2 + 1 + 1     // rel lon, rel lat, attr1, attr2
)

func decodeFirstLRP(r *byteReader) (LocationReferencePoint, error) {
	lonRaw, err := r.int24()
	if err != nil {
		return LocationReferencePoint{}, errTruncated("first LRP longitude")
	}
	latRaw, err := r.int24()
	if err != nil {
		return LocationReferencePoint{}, errTruncated("first LRP latitude")
	}
	lon := float64(lonRaw) * coordScale
	lat := float64(latRaw) * coordScale

	attr1, err := r.byte()
	if err != nil {
		return LocationReferencePoint{}, errTruncated("first LRP attribute 1")
	}
	attr2, err := r.byte()
	if err != nil {
		return LocationReferencePoint{}, errTruncated("first LRP attribute 2")
	}
	dnpByte, err := r.byte()
	if err != nil {
		return LocationReferencePoint{}, errTruncated("first LRP DNP")
	}

	frc := FRC((attr1 >> 5) & 0x07)
	fow := FOW((attr1 >> 2) & 0x07)
	lfrcnp := FRC((attr2 >> 5) & 0x07)
	bearing := float64(attr2&0x1F) * bearingSectorDeg

	return LocationReferencePoint{
		Coordinates: geocoord.Coordinates{Lon: lon, Lat: lat},
		FRC:         frc,
		FOW:         fow,
		Bearing:     bearing,
		LFRCNP:      lfrcnp,
		DNP:         dnpValueToMeters(dnpByte),
	}, nil
}

// decodeSubsequentLRP decodes an intermediate or final LRP. isLast
// controls whether LFRCNP/DNP bytes are expected on the wire.
func decodeSubsequentLRP(r *byteReader, prevLon, prevLat float64, isLast bool) (LocationReferencePoint, float64, float64, error) {
	dLonRaw, err := r.int16()
	if err != nil {
		return LocationReferencePoint{}, 0, 0, errTruncated("LRP relative longitude")
	}
	dLatRaw, err := r.int16()
	if err != nil {
		return LocationReferencePoint{}, 0, 0, errTruncated("LRP relative latitude")
	}
	lon := prevLon + float64(dLonRaw)*relCoordScale
	lat := prevLat + float64(dLatRaw)*relCoordScale

	attr1, err := r.byte()
	if err != nil {
		return LocationReferencePoint{}, 0, 0, errTruncated("LRP attribute 1")
	}
	attr2, err := r.byte()
	if err != nil {
		return LocationReferencePoint{}, 0, 0, errTruncated("LRP attribute 2")
	}

	frc := FRC((attr1 >> 5) & 0x07)
	fow := FOW((attr1 >> 2) & 0x07)
	bearing := float64(attr2&0x1F) * bearingSectorDeg

	p := LocationReferencePoint{
		Coordinates: geocoord.Coordinates{Lon: lon, Lat: lat},
		FRC:         frc,
		FOW:         fow,
		Bearing:     bearing,
	}

	if !isLast {
		lfrcnp := FRC((attr2 >> 5) & 0x07)
		p.LFRCNP = lfrcnp
		dnpByte, err := r.byte()
		if err != nil {
			return LocationReferencePoint{}, 0, 0, errTruncated("LRP DNP")
		}
		p.DNP = dnpValueToMeters(dnpByte)
	}

	return p, lon, lat, nil
}

// byteReader is a small cursor over a binary payload, grounded on the
// forward-only scanning style the teacher's WKB readers use internally
// for sqlite/PostGIS blobs (internal/repository/postgresosm scanning
// helpers).
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) remaining() int { return len(r.data) - r.pos }

func (r *byteReader) byte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errTruncated("byte")
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) int16() (int16, error) {
	if r.remaining() < 2 {
		return 0, errTruncated("int16")
	}
	v := int16(uint16(r.data[r.pos])<<8 | uint16(r.data[r.pos+1]))
	r.pos += 2
	return v, nil
}

// int24 reads a signed 24-bit big-endian integer, sign-extended to
// int32.
func (r *byteReader) int24() (int32, error) {
	if r.remaining() < 3 {
		return 0, errTruncated("int24")
	}
	u := uint32(r.data[r.pos])<<16 | uint32(r.data[r.pos+1])<<8 | uint32(r.data[r.pos+2])
	r.pos += 3
	if u&0x800000 != 0 {
		u |= 0xFF000000
	}
	return int32(u), nil
}
