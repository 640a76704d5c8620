package main

import "math/rand"

// numIntervals is the size of the dwell-interval state space (§3): short,
// medium, long.
const numIntervals = 3

// LocCell holds one cell of the 5x5 location-transition matrix: how many
// times the node has moved from row to column, the shared row total, and
// the resulting probability.
type LocCell struct {
	Visits      int
	TotalVisits int
	Prob        float64
}

// TimeCell holds one cell of a location-pair's 3x3 dwell-interval
// transition matrix.
type TimeCell struct {
	Count int
	Total int
	Prob  float64
}

// Predictor is a node's Markov mobility model: a 5x5 location-transition
// matrix, each cell of which owns a 3x3 dwell-interval transition matrix,
// plus the bookkeeping fields needed to feed the next Observe call. It is a
// pure data structure — every operation is total, per spec §4.B.
type Predictor struct {
	Loc  [numLocations][numLocations]LocCell
	Time [numLocations][numLocations][numIntervals][numIntervals]TimeCell

	PrevLocation LocationID
	CurrLocation LocationID

	// PrevInterval/CurrInterval are keyed by (prevLoc, currLoc) and record
	// the dwell-interval bucket most recently observed for that ordered
	// pair, used as the row/column of its owned time submatrix on the
	// next Observe call for the same pair.
	PrevInterval [numLocations][numLocations]int
	CurrInterval [numLocations][numLocations]int

	ArrivalTime map[LocationID]float64
	TimeSpent   [numLocations][numLocations]float64

	rng *rand.Rand
}

// NewPredictor builds a Predictor seeded per spec §3: every location cell
// starts with visits=100, totalVisits=100, probability=0.2; every time
// cell starts with count=100, total=100, diagonal probability 0.34 and
// off-diagonal 0.33. initial is the node's starting location, used as the
// first CurrLocation (mirroring the original's m_currLocation = 0 default).
func NewPredictor(rng *rand.Rand, initial LocationID) *Predictor {
	p := &Predictor{
		PrevLocation: InTransit,
		CurrLocation: initial,
		ArrivalTime:  make(map[LocationID]float64),
		rng:          rng,
	}
	for i := 0; i < numLocations; i++ {
		for j := 0; j < numLocations; j++ {
			p.Loc[i][j] = LocCell{Visits: 100, TotalVisits: 100, Prob: 0.2}
			for k := 0; k < numIntervals; k++ {
				for l := 0; l < numIntervals; l++ {
					prob := 0.33
					if k == l {
						prob = 0.34
					}
					p.Time[i][j][k][l] = TimeCell{Count: 100, Total: 100, Prob: prob}
				}
			}
		}
	}
	return p
}

// Observe records a confirmed transition prev -> curr, where the node
// dwelled at curr for a duration discretized into intervalBucket (0, 1, or
// 2; see TimeIntervalBucket). Per spec §4.B this is a no-op unless prev !=
// curr and neither is InTransit — Observe never errors or panics.
func (p *Predictor) Observe(prev, curr LocationID, intervalBucket int) {
	if prev == curr || !validLocation(prev) || !validLocation(curr) {
		return
	}

	row := p.PrevInterval[prev][curr]
	p.updateLocationRow(prev, curr)
	p.updateTimeRow(prev, curr, row, intervalBucket)

	p.CurrInterval[prev][curr] = intervalBucket
	p.PrevInterval[prev][curr] = intervalBucket
	p.PrevLocation = prev
	p.CurrLocation = curr
}

func validLocation(l LocationID) bool {
	return l >= 0 && int(l) < numLocations
}

// updateLocationRow implements spec §4.B steps 1-3 for the transition
// prev -> curr.
func (p *Predictor) updateLocationRow(prev, curr LocationID) {
	rowTotal := 0
	for j := 0; j < numLocations; j++ {
		rowTotal += p.Loc[prev][j].Visits
	}
	p.Loc[prev][curr].Visits++
	newTotal := rowTotal + 1

	for j := 0; j < numLocations; j++ {
		p.Loc[prev][j].TotalVisits = newTotal
	}
	p.Loc[prev][curr].Prob = float64(p.Loc[prev][curr].Visits) / float64(newTotal)

	normalizeRow(p.Loc[prev][:], int(curr))
}

// updateTimeRow implements spec §4.B step 4: the analogous procedure on
// the 3x3 dwell-interval submatrix owned by loc cell (prev, curr), row
// being the previously recorded interval bucket for this pair and col the
// newly observed one.
func (p *Predictor) updateTimeRow(prev, curr LocationID, row, col int) {
	cells := &p.Time[prev][curr]

	rowTotal := 0
	for k := 0; k < numIntervals; k++ {
		rowTotal += cells[row][k].Count
	}
	cells[row][col].Count++
	newTotal := rowTotal + 1

	for k := 0; k < numIntervals; k++ {
		cells[row][k].Total = newTotal
	}
	cells[row][col].Prob = float64(cells[row][col].Count) / float64(newTotal)

	normalizeTimeRow(cells[row][:], col)
}

// normalizeRow distributes the residual (1 - rowSum) equally over the
// non-updated cells of a 5-wide location row, per spec §4.B step 3 and
// DESIGN NOTES §9.
func normalizeRow(row []LocCell, updated int) {
	sum := 0.0
	for _, c := range row {
		sum += c.Prob
	}
	if sum == 1 {
		return
	}
	residual := (1 - sum) / float64(len(row)-1)
	for i := range row {
		if i != updated {
			row[i].Prob += residual
		}
	}
}

// normalizeTimeRow is the 3-wide analogue of normalizeRow, splitting the
// residual over the two non-updated cells.
func normalizeTimeRow(row []TimeCell, updated int) {
	sum := 0.0
	for _, c := range row {
		sum += c.Prob
	}
	if sum == 1 {
		return
	}
	residual := (1 - sum) / float64(len(row)-1)
	for i := range row {
		if i != updated {
			row[i].Prob += residual
		}
	}
}

// SampleNextLocation draws a destination from the row for the node's
// current location, per spec §4.B's CDF sampling rule.
func (p *Predictor) SampleNextLocation() LocationID {
	probs := make([]float64, numLocations)
	for j := 0; j < numLocations; j++ {
		probs[j] = p.Loc[p.CurrLocation][j].Prob
	}
	return LocationID(sampleCDF(probs, p.rng.Float64()))
}

// SampleNextInterval draws a dwell-interval bucket for the leg from the
// node's current location to target, using the time submatrix owned by
// that (curr, target) location cell.
func (p *Predictor) SampleNextInterval(target LocationID) int {
	row := p.CurrInterval[p.CurrLocation][target]
	cells := p.Time[p.CurrLocation][target][row]
	probs := make([]float64, numIntervals)
	for k := 0; k < numIntervals; k++ {
		probs[k] = cells[k].Prob
	}
	return sampleCDF(probs, p.rng.Float64())
}

// sampleCDF builds a CDF from probs and returns the first index whose
// prefix sum exceeds u, ties broken by lowest index. Falls back to the
// last index to absorb floating-point rounding at the tail.
func sampleCDF(probs []float64, u float64) int {
	cum := 0.0
	for i, pr := range probs {
		cum += pr
		if cum > u {
			return i
		}
	}
	return len(probs) - 1
}

// TimeIntervalBucket discretizes a dwell duration in seconds into the
// 3-valued interval space used throughout the predictor (§3).
func TimeIntervalBucket(seconds float64) int {
	switch {
	case seconds <= 5:
		return 0
	case seconds <= 10:
		return 1
	default:
		return 2
	}
}

// TimeIntervalToSeconds is the inverse mapping used for simulated pauses
// and for the link-lifetime estimator (§3, §4.G).
func TimeIntervalToSeconds(bucket int) float64 {
	switch bucket {
	case 0:
		return 10
	case 1:
		return 30
	default:
		return 60
	}
}
