package main

import (
	"math"
	"math/rand"
)

// MobilityState is a node's position in the Idle/Paused/Walking state
// machine (§4.C).
type MobilityState int

const (
	StateIdle MobilityState = iota
	StatePaused
	StateWalking
)

func (s MobilityState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaused:
		return "paused"
	case StateWalking:
		return "walking"
	default:
		return "unknown"
	}
}

// Mobility drives one node's position through the Markov-predicted
// region graph: Idle(initialized) -> Paused -> Walking -> Paused -> ...
// (§4.C). It owns the node's Predictor and is the sole writer of both
// the node's position and the predictor's state.
type Mobility struct {
	sched *Scheduler
	pred  *Predictor
	rng   *rand.Rand

	regions  RegionMap
	speedMin float64
	speedMax float64

	state    MobilityState
	position Vector

	arrivedAt float64

	nextLoc         LocationID
	nextIntervalBkt int
	destPos         Vector

	departLoc   LocationID
	dwellBucket int

	pendingEvent EventID
}

// NewMobility constructs a driver at the given initial position. The
// predictor is seeded with whichever region initial resolves to (nearest
// region if the point falls between regions).
func NewMobility(sched *Scheduler, rng *rand.Rand, regions RegionMap, initial Vector, speedMin, speedMax float64) *Mobility {
	loc := regions.PositionToLocation(initial)
	if loc == InTransit {
		loc = regions.NearestLocation(initial)
	}
	return &Mobility{
		sched:    sched,
		pred:     NewPredictor(rng, loc),
		rng:      rng,
		regions:  regions,
		speedMin: speedMin,
		speedMax: speedMax,
		state:    StateIdle,
		position: initial,
		nextLoc:  loc,
	}
}

// Start schedules the first pause-expiry event and transitions out of
// Idle. Per spec it happens immediately: a freshly initialized node is
// already "at" its starting region with the pause clock running.
func (m *Mobility) Start() {
	m.state = StatePaused
	m.arrivedAt = m.sched.Now()
	m.nextIntervalBkt = m.pred.SampleNextInterval(m.pred.CurrLocation)
	m.scheduleNextWake(TimeIntervalToSeconds(m.nextIntervalBkt))
}

func (m *Mobility) scheduleNextWake(delay float64) {
	m.pendingEvent = m.sched.Schedule(delay, m.onPauseExpired)
}

// onPauseExpired ends a dwell: it samples the destination region and
// speed for the upcoming leg (both advertised to neighbors from this
// point on, per §4.C) and begins walking. The predictor update for the
// completed dwell is deferred to onArrival, matching the state
// diagram's "update predictor ... [at arrival]".
func (m *Mobility) onPauseExpired() {
	now := m.sched.Now()
	m.departLoc = m.pred.CurrLocation
	m.dwellBucket = TimeIntervalBucket(now - m.arrivedAt)

	destLoc := m.pred.SampleNextLocation()
	m.nextLoc = destLoc
	m.nextIntervalBkt = m.pred.SampleNextInterval(destLoc)
	m.destPos = m.regions.Center(destLoc)

	speed := m.speedMin + m.rng.Float64()*(m.speedMax-m.speedMin)
	distance := euclidean(m.position, m.destPos)
	var delay float64
	if speed > 0 {
		delay = distance / speed
	}

	m.state = StateWalking
	m.pendingEvent = m.sched.Schedule(delay, m.onArrival)
}

// onArrival completes a walking leg: position snaps to the destination
// region's center, the completed dwell is recorded against the
// predictor, and a new dwell begins, timed by the interval sampled for
// this location back when the leg was planned.
func (m *Mobility) onArrival() {
	m.position = m.destPos
	m.pred.Observe(m.departLoc, m.nextLoc, m.dwellBucket)
	m.arrivedAt = m.sched.Now()
	m.state = StatePaused
	m.scheduleNextWake(TimeIntervalToSeconds(m.nextIntervalBkt))
}

// Position returns the node's current simulated position. During a
// Walking leg this still reports the departure point — intermediate
// interpolation is not modeled (§9 DESIGN NOTES: positions are only
// meaningful at rest).
func (m *Mobility) Position() Vector { return m.position }

// CurrentLocation returns the region the node currently occupies while
// Paused, or the region it last departed while Walking.
func (m *Mobility) CurrentLocation() LocationID { return m.pred.CurrLocation }

// NextLocation returns the node's currently advertised predicted next
// region — stable for the whole leg, recomputed each time a dwell ends.
func (m *Mobility) NextLocation() LocationID { return m.nextLoc }

// NextInterval returns the node's currently advertised predicted dwell
// bucket at NextLocation.
func (m *Mobility) NextInterval() int { return m.nextIntervalBkt }

// State reports the driver's current Idle/Paused/Walking state.
func (m *Mobility) State() MobilityState { return m.state }

func euclidean(a, b Vector) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
