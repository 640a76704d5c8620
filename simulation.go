package main

import (
	"fmt"
	"io"
	"math/rand"

	log "github.com/sirupsen/logrus"
)

const inactivitySweepPeriod = 5.0
const mobilityTracePeriod = 1.0

// Simulation wires every component together and drives the run (§2):
// nodes, the two process-wide routing tables, the task queue, the
// allocator, metrics, and the scheduler that orchestrates them all.
type Simulation struct {
	sched *Scheduler
	rng   *rand.Rand
	cfg   Config

	nodes   []*Node
	tableW  *Table
	tableWD *Table
	queue   *TaskQueue
	alloc   *Allocator
	metrics *Metrics

	traceWriter io.Writer
}

// NewSimulation constructs every component per cfg and wires the
// discovery apps' broadcast domains.
func NewSimulation(cfg Config, csvSink, traceSink io.Writer) *Simulation {
	sched := NewScheduler()
	rng := rand.New(rand.NewSource(cfg.Seed))
	regions := RegionMap{}
	metrics := NewMetrics(csvSink)

	s := &Simulation{
		sched: sched, rng: rng, cfg: cfg,
		tableW: NewTable(), tableWD: NewTable(),
		queue: NewTaskQueue(), metrics: metrics,
		traceWriter: traceSink,
	}

	nodes := make([]*Node, cfg.Nodes)
	for i := 0; i < cfg.Nodes; i++ {
		initial := Vector{
			X: rng.Float64() * WorldXMax,
			Y: rng.Float64() * WorldYMax,
			Z: rng.Float64() * WorldZMax,
		}
		cpuSpeed := cfg.CPUSpeedMin + rng.Float64()*(cfg.CPUSpeedMax-cfg.CPUSpeedMin)
		nodes[i] = NewNode(i, sched, rng, regions, initial, cfg.SpeedMin, cfg.SpeedMax, cpuSpeed)

		capW := cfg.BandwidthWMin + rng.Float64()*(cfg.BandwidthWMax-cfg.BandwidthWMin)
		capWD := cfg.BandwidthWDMin + rng.Float64()*(cfg.BandwidthWDMax-cfg.BandwidthWDMin)
		metrics.SetCapacity(i, capW, capWD)
	}
	s.nodes = nodes

	for _, n := range nodes {
		n := n
		w := NewDiscoveryApp(n, IfaceW, n.AddrW, s.tableW, metrics, sched, rng, cfg.ServicePeriod, func() []*DiscoveryApp { return s.appsFor(IfaceW) })
		wd := NewDiscoveryApp(n, IfaceWD, n.AddrWD, s.tableWD, metrics, sched, rng, cfg.ServicePeriod, func() []*DiscoveryApp { return s.appsFor(IfaceWD) })
		n.AttachDiscovery(w, wd)
	}

	s.alloc = NewAllocator(sched, rng, s.queue, s.tableW, s.tableWD, metrics, nodes)
	s.alloc.SortByCPU = cfg.SortByCPU
	s.alloc.UseMaxCPU = cfg.UseMaxCPU
	return s
}

func (s *Simulation) appsFor(iface string) []*DiscoveryApp {
	out := make([]*DiscoveryApp, 0, len(s.nodes))
	for _, n := range s.nodes {
		if iface == IfaceW {
			out = append(out, n.DiscoveryW)
		} else {
			out = append(out, n.DiscoveryWD)
		}
	}
	return out
}

// Run starts mobility, the allocator, and the periodic sweeps, then
// drives the scheduler to completion of the given duration (§4.J).
func (s *Simulation) Run(duration float64) {
	for _, n := range s.nodes {
		n.Mobility.Start()
	}
	s.alloc.Start()
	s.scheduleSweep()
	s.scheduleTick(0)
	if s.cfg.TraceMobility {
		s.scheduleTrace()
	}

	s.sched.Run(duration)

	for _, n := range s.nodes {
		n.Stop()
	}
}

func (s *Simulation) scheduleSweep() {
	s.sched.Schedule(inactivitySweepPeriod, func() {
		for _, n := range s.nodes {
			n.DiscoveryW.SweepInactive()
			n.DiscoveryWD.SweepInactive()
		}
		s.scheduleSweep()
	})
}

func (s *Simulation) scheduleTick(second int) {
	s.sched.Schedule(1.0, func() {
		for _, n := range s.nodes {
			s.metrics.Tick(n.ID, second+1)
		}
		s.scheduleTick(second + 1)
	})
}

func (s *Simulation) scheduleTrace() {
	s.sched.Schedule(mobilityTracePeriod, func() {
		now := int(s.sched.Now())
		for _, n := range s.nodes {
			pos := n.Mobility.Position()
			log.WithFields(log.Fields{
				"t": now, "node": n.ID, "x": pos.X, "y": pos.Y, "z": pos.Z,
				"loc": n.Mobility.CurrentLocation(),
			}).Trace("mobility")
			if s.traceWriter != nil {
				_, _ = io.WriteString(s.traceWriter, traceRow(now, n))
			}
		}
		s.scheduleTrace()
	})
}

func traceRow(second int, n *Node) string {
	pos := n.Mobility.Position()
	return fmt.Sprintf("%d,%d,%.3f,%.3f,%.3f,%d\n", second, n.ID, pos.X, pos.Y, pos.Z, int(n.Mobility.CurrentLocation()))
}

// Allocator exposes the allocator for tests and the outcome invariants.
func (s *Simulation) Allocator() *Allocator { return s.alloc }

// Nodes exposes the node set for tests.
func (s *Simulation) Nodes() []*Node { return s.nodes }
