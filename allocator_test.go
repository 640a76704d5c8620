package main

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestAllocatorPair(t *testing.T, llt, deadline float64, capW, capWD float64) (*Allocator, *Scheduler, *Node, Task) {
	t.Helper()
	sched := NewScheduler()
	rng := rand.New(rand.NewSource(1))
	regions := RegionMap{}

	sender := NewNode(0, sched, rng, regions, Vector{X: 75, Y: 75, Z: 50}, 1, 15, 2.0)
	peer := NewNode(1, sched, rng, regions, Vector{X: 75, Y: 75, Z: 50}, 1, 15, 3.0)

	tableW := NewTable()
	tableWD := NewTable()
	tableW.Insert(&Entry{MyAddr: sender.AddrW.String(), PeerAddr: peer.AddrW.String(), LinkLifetime: llt, PeerCPUSpeed: peer.CPUSpeed})
	tableWD.Insert(&Entry{MyAddr: sender.AddrWD.String(), PeerAddr: peer.AddrWD.String(), LinkLifetime: llt, PeerCPUSpeed: peer.CPUSpeed})

	metrics := NewMetrics(nil)
	metrics.SetCapacity(sender.ID, capW, capWD)

	queue := &TaskQueue{}
	task := Task{ID: 0, SizeMB: 110, Deadline: deadline}
	queue.Push(task)

	alloc := NewAllocator(sched, rng, queue, tableW, tableWD, metrics, []*Node{sender, peer})
	return alloc, sched, sender, task
}

// S1: single-task happy path.
func TestAllocator_HappyPath(t *testing.T) {
	alloc, sched, sender, _ := newTestAllocatorPair(t, 20, 20, 6, 12)

	plan, _, _, _, err := alloc.tryAllocate(sender, Task{ID: 0, SizeMB: 110, Deadline: 20})
	require.NoError(t, err, "expected a viable transfer plan")
	require.Equal(t, IfaceWD, plan.Primary.Iface)
	require.LessOrEqual(t, plan.Primary.Duration, 20.0)

	_ = sched
}

// S2: deadline infeasible.
func TestAllocator_DeadlineInfeasible(t *testing.T) {
	alloc, _, sender, _ := newTestAllocatorPair(t, 20, 5, 6, 12)

	_, _, _, _, err := alloc.tryAllocate(sender, Task{ID: 0, SizeMB: 110, Deadline: 5})
	require.Error(t, err, "expected no viable plan when the deadline is infeasible")
	require.True(t, errors.Is(err, ErrNoViableRoute))
}

func TestAllocator_NoAvailableBandwidthOnEitherInterface(t *testing.T) {
	alloc, _, sender, _ := newTestAllocatorPair(t, 20, 20, 0, 0)

	_, _, _, _, err := alloc.tryAllocate(sender, Task{ID: 0, SizeMB: 110, Deadline: 20})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoAvailableBandwidth))
}

// §4.I step 3 fails the task unless BOTH interfaces have positive
// available bandwidth; a single starved interface must not let the
// allocator fall back to the other one.
func TestAllocator_NoAvailableBandwidthWhenOnlyOneInterfaceStarved(t *testing.T) {
	alloc, _, sender, _ := newTestAllocatorPair(t, 20, 20, 6, 0)

	_, _, _, _, err := alloc.tryAllocate(sender, Task{ID: 0, SizeMB: 110, Deadline: 20})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoAvailableBandwidth))

	alloc2, _, sender2, _ := newTestAllocatorPair(t, 20, 20, 0, 12)
	_, _, _, _, err2 := alloc2.tryAllocate(sender2, Task{ID: 0, SizeMB: 110, Deadline: 20})
	require.Error(t, err2)
	require.True(t, errors.Is(err2, ErrNoAvailableBandwidth))
}

// Invariant 6 (restricted to one allocation): tasks_assigned = tasks_failed + successes.
func TestAllocator_RunRecordsOutcome(t *testing.T) {
	alloc, sched, sender, _ := newTestAllocatorPair(t, 20, 20, 6, 12)
	alloc.run()

	outcomes := alloc.Outcomes(sender.ID)
	require.Len(t, outcomes, 1)
	o := outcomes[0]
	require.True(t, o.Success)
	require.Nil(t, o.FailureReason)
	require.GreaterOrEqual(t, o.TransferComplete, o.TransferStart)
	require.GreaterOrEqual(t, o.TransferStart, o.AssignTime)
	_ = sched
}

func TestAllocator_RunRecordsFailureReason(t *testing.T) {
	alloc, _, sender, _ := newTestAllocatorPair(t, 20, 5, 6, 12)
	alloc.run()

	outcomes := alloc.Outcomes(sender.ID)
	require.Len(t, outcomes, 1)
	require.False(t, outcomes[0].Success)
	require.Error(t, outcomes[0].FailureReason)
}

// A winning plan must record its simulated application traffic against
// both the sender and the receiving peer, feeding back into
// Metrics.UsedBandwidth and crediting the peer's rx counters.
func TestAllocator_RunRecordsApplicationTraffic(t *testing.T) {
	alloc, _, sender, _ := newTestAllocatorPair(t, 20, 20, 6, 12)
	peer := alloc.nodes[1]

	beforeUsed := alloc.metrics.UsedBandwidth(sender.ID, IfaceWD)
	alloc.run()
	afterUsed := alloc.metrics.UsedBandwidth(sender.ID, IfaceWD)
	require.Greater(t, afterUsed, beforeUsed)

	peerCounters := alloc.metrics.counterFor(peer.ID)
	require.Greater(t, peerCounters.rxAppWD, 0, "the receiving peer should have its rx counters credited, not just the sender's tx")
}
