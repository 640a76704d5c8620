package main

import "testing"

func TestEstimateLinkLifetime(t *testing.T) {
	tests := []struct {
		name           string
		myInterval     int
		peerInterval   int
		want           float64
	}{
		{"both short", 0, 0, 10},
		{"mine longer", 2, 0, 10},
		{"peer longer", 0, 2, 10},
		{"both long", 2, 2, 60},
		{"mixed medium/long", 1, 2, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateLinkLifetime(tt.myInterval, tt.peerInterval); got != tt.want {
				t.Errorf("EstimateLinkLifetime(%d, %d) = %v, want %v", tt.myInterval, tt.peerInterval, got, tt.want)
			}
		})
	}
}
