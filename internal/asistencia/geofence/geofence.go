// Package geofence tests device positions against a circular region.
package geofence

import (
	"math"

	"github.com/asistencia-qr/server/internal/asistencia/types"
)

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000.0

// Fence is a circular region: center plus tolerance radius.
type Fence struct {
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
}

func (f Fence) Center() types.GeoPoint {
	return types.GeoPoint{Lat: f.Lat, Lng: f.Lng}
}

// Result is the outcome of a containment check.
type Result struct {
	Valid          bool    `json:"valid"`
	DistanceMeters float64 `json:"distance_meters"`
}

// DistanceMeters returns the great-circle (haversine) distance between
// two points, in meters.
func DistanceMeters(a, b types.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Check decides containment.  The boundary is inclusive: a position at
// exactly RadiusMeters distance is inside.
func Check(pos types.GeoPoint, fence Fence) Result {
	d := DistanceMeters(pos, fence.Center())
	return Result{
		Valid:          d <= fence.RadiusMeters,
		DistanceMeters: d,
	}
}
