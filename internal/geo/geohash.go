package geo

import "strings"

// LabelPrecision is the geohash precision used for marker and favorite
// labels in the console client. Six characters is roughly ±0.61 km, enough
// to tell points apart without printing raw coordinates.
const LabelPrecision = 6

// base32 is the geohash base32 alphabet (excludes 'a', 'i', 'l', 'o').
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Encode encodes latitude and longitude into a geohash string with the
// specified precision using the standard interleaved base32 algorithm.
// A precision below 1 falls back to LabelPrecision.
func Encode(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = LabelPrecision
	}

	latRange := [2]float64{-90.0, 90.0}
	lngRange := [2]float64{-180.0, 180.0}

	var geohash strings.Builder
	geohash.Grow(precision)

	bits := 0
	var ch uint

	even := true
	for geohash.Len() < precision {
		if even {
			// Longitude
			mid := (lngRange[0] + lngRange[1]) / 2
			if lng > mid {
				ch |= (1 << (4 - bits))
				lngRange[0] = mid
			} else {
				lngRange[1] = mid
			}
		} else {
			// Latitude
			mid := (latRange[0] + latRange[1]) / 2
			if lat > mid {
				ch |= (1 << (4 - bits))
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}

		even = !even
		bits++

		if bits == 5 {
			geohash.WriteByte(base32[ch])
			bits = 0
			ch = 0
		}
	}

	return geohash.String()
}

// Label returns the geohash label for a point at LabelPrecision.
func Label(p Point) string {
	return Encode(p.Lat, p.Lng, LabelPrecision)
}
