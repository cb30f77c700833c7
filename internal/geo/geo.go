// Poseidon - Maritime Domain Awareness and Vessel Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/poseidon

// Package geo holds the spherical helpers shared by the persister and the
// detectors: great-circle distance, spatial cells, dead reckoning and the
// coastline-based receiver classifier.
package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/maptile"
)

// MetersPerNM is one international nautical mile.
const MetersPerNM = 1852.0

// CellZoom is the map tile zoom level of position cells (about 10 km at the
// equator).
const CellZoom maptile.Zoom = 12

// GreatCircleNM returns the haversine distance between two points in nautical
// miles.
func GreatCircleNM(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / MetersPerNM
}

// Cell returns the zoom-12 quadkey of the tile containing the point, as a
// base-4 string of CellZoom digits.
func Cell(lat, lon float64) string {
	tile := maptile.At(orb.Point{lon, lat}, CellZoom)
	key := strconv.FormatUint(tile.Quadkey(), 4)
	if pad := int(CellZoom) - len(key); pad > 0 {
		key = strings.Repeat("0", pad) + key
	}
	return key
}

// DeadReckon projects a position forward along cog at sog for hours using a
// flat-earth approximation. Latitude is clamped to ±90 and longitude wrapped
// into [-180, 180). A non-positive sog returns the input unchanged.
func DeadReckon(lat, lon, sog, cog, hours float64) (float64, float64) {
	if sog <= 0 {
		return lat, lon
	}
	distNM := sog * hours
	rad := cog * math.Pi / 180

	dLat := distNM / 60 * math.Cos(rad)
	cosLat := math.Cos(lat * math.Pi / 180)
	if math.Abs(cosLat) < 1e-9 {
		cosLat = 1e-9
	}
	dLon := distNM / 60 * math.Sin(rad) / cosLat

	newLat := math.Max(-90, math.Min(90, lat+dLat))
	newLon := math.Mod(lon+dLon+180, 360)
	if newLon < 0 {
		newLon += 360
	}
	return newLat, newLon - 180
}

// SearchRadiusNM is the dark-vessel search radius: half the distance the
// vessel could have covered, assuming 1 knot when sog is unknown or zero.
func SearchRadiusNM(sog *float64, hours float64) float64 {
	speed := 1.0
	if sog != nil && *sog > 0 {
		speed = *sog
	}
	return speed * hours * 0.5
}

// Centroid returns the mean lat/lon of points and the largest great-circle
// distance from that mean to any point, in nautical miles.
func Centroid(points []orb.Point) (lat, lon, radiusNM float64) {
	if len(points) == 0 {
		return 0, 0, 0
	}
	for _, p := range points {
		lon += p.Lon()
		lat += p.Lat()
	}
	lat /= float64(len(points))
	lon /= float64(len(points))

	for _, p := range points {
		if d := GreatCircleNM(lat, lon, p.Lat(), p.Lon()); d > radiusNM {
			radiusNM = d
		}
	}
	return lat, lon, radiusNM
}
