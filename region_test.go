package main

import "testing"

func TestRegionMap_PositionToLocation(t *testing.T) {
	r := RegionMap{}
	tests := []struct {
		name string
		pos  Vector
		want LocationID
	}{
		{"in L0", Vector{X: 10, Y: 10, Z: 10}, Location0},
		{"in L1", Vector{X: 100, Y: 250, Z: 10}, Location1},
		{"in L2", Vector{X: 250, Y: 100, Z: 10}, Location2},
		{"in L3", Vector{X: 300, Y: 400, Z: 10}, Location3},
		{"in L4", Vector{X: 400, Y: 100, Z: 10}, Location4},
		{"in transit", Vector{X: 180, Y: 180, Z: 50}, InTransit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.PositionToLocation(tt.pos); got != tt.want {
				t.Errorf("PositionToLocation(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}
}

func TestRegionMap_NearestLocation(t *testing.T) {
	r := RegionMap{}
	got := r.NearestLocation(Vector{X: 500, Y: 450, Z: 100})
	if got == UnknownLocation {
		t.Errorf("NearestLocation should resolve the world's far corner, got UnknownLocation")
	}
	if got < 0 || int(got) >= numLocations {
		t.Errorf("NearestLocation returned out-of-range id %v", got)
	}
}

func TestRegionMap_Center(t *testing.T) {
	r := RegionMap{}
	for id := Location0; id <= Location4; id++ {
		c := r.Center(id)
		if r.PositionToLocation(c) != id {
			t.Errorf("Center(%v) = %v is not classified back into %v", id, c, id)
		}
	}
}
