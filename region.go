package main

// LocationID identifies one of the five fixed regions a node can occupy.
// InTransit is returned when a position falls inside none of them.
type LocationID int

const (
	Location0 LocationID = iota
	Location1
	Location2
	Location3
	Location4
	InTransit
	UnknownLocation = -1
)

// numLocations is the size of the Markov location state space (§3): the five
// named regions. InTransit and UnknownLocation are sentinel values outside
// that space.
const numLocations = 5

// Vector is a 3D position, matching ns3::Vector in the original model.
type Vector struct {
	X, Y, Z float64
}

// Box is an axis-aligned bounding region.
type Box struct {
	XMin, XMax float64
	YMin, YMax float64
	ZMin, ZMax float64
}

func (b Box) contains(v Vector) bool {
	return v.X >= b.XMin && v.X <= b.XMax &&
		v.Y >= b.YMin && v.Y <= b.YMax &&
		v.Z >= b.ZMin && v.Z <= b.ZMax
}

func (b Box) center() Vector {
	return Vector{
		X: (b.XMin + b.XMax) / 2,
		Y: (b.YMin + b.YMax) / 2,
		Z: (b.ZMin + b.ZMax) / 2,
	}
}

// World bounds used to sample initial node positions (§6).
const (
	WorldXMax = 500.0
	WorldYMax = 450.0
	WorldZMax = 100.0
)

// regionBoxes are the five primary region boxes from spec §6, in the fixed
// containment-test order used by PositionToLocation.
var regionBoxes = [numLocations]Box{
	{0, 150, 0, 150, 0, 100},   // L0
	{50, 150, 200, 350, 0, 100}, // L1
	{200, 300, 0, 200, 0, 100},  // L2
	{220, 500, 300, 450, 0, 100}, // L3
	{350, 500, 0, 250, 0, 100},  // L4
}

// nearestRegionBoxes are the secondary, larger boxes used only when a node
// is in transit and the predictor needs a current-region proxy (§4.A,
// §6 of SPEC_FULL.md).
var nearestRegionBoxes = [numLocations]Box{
	{0, 200, 0, 200, 0, 100},   // N0
	{0, 200, 150, 400, 0, 100}, // N1
	{150, 350, 0, 250, 0, 100}, // N2
	{170, 500, 250, 450, 0, 100}, // N3
	{300, 500, 0, 300, 0, 100},  // N4
}

// RegionMap resolves positions to location ids. It is a pure, stateless
// value — every method is safe to call from any goroutine.
type RegionMap struct{}

// PositionToLocation maps a position to one of the five regions, or
// InTransit if it falls in none of them. Boxes are tested in the fixed
// order L0..L4; a position inside more than one box (none do, by
// construction) would resolve to the lowest-indexed one.
func (RegionMap) PositionToLocation(v Vector) LocationID {
	for i, b := range regionBoxes {
		if b.contains(v) {
			return LocationID(i)
		}
	}
	return InTransit
}

// NearestLocation resolves a position against the larger, overlapping
// secondary boxes, used only when a node is in transit and a current-region
// proxy is needed. Returns UnknownLocation if the position falls outside
// all secondary boxes.
func (RegionMap) NearestLocation(v Vector) LocationID {
	for i, b := range nearestRegionBoxes {
		if b.contains(v) {
			return LocationID(i)
		}
	}
	return UnknownLocation
}

// Center returns the midpoint of region id. Panics on an out-of-range id;
// callers only ever pass ids returned by PositionToLocation/NearestLocation
// restricted to 0..4.
func (RegionMap) Center(id LocationID) Vector {
	return regionBoxes[id].center()
}
