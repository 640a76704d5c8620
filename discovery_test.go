package main

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// newDiscoveryPair builds two nodes, each with a DiscoveryApp bound to
// the W interface of the other as its sole broadcast peer, and forces
// both nodes' advertised next locations to nextA/nextB respectively.
func newDiscoveryPair(t *testing.T, nextA, nextB LocationID) (a, b *DiscoveryApp, tableA, tableB *Table) {
	t.Helper()
	sched := NewScheduler()
	rng := rand.New(rand.NewSource(3))
	regions := RegionMap{}

	nodeA := NewNode(0, sched, rng, regions, Vector{X: 75, Y: 75, Z: 50}, 1, 15, 1.5)
	nodeB := NewNode(1, sched, rng, regions, Vector{X: 75, Y: 75, Z: 50}, 1, 15, 2.5)
	nodeA.Mobility.nextLoc = nextA
	nodeB.Mobility.nextLoc = nextB

	tableA = NewTable()
	tableB = NewTable()
	metrics := NewMetrics(nil)

	var appA, appB *DiscoveryApp
	appA = NewDiscoveryApp(nodeA, IfaceW, nodeA.AddrW, tableA, metrics, sched, rng, 2, func() []*DiscoveryApp { return []*DiscoveryApp{appB} })
	appB = NewDiscoveryApp(nodeB, IfaceW, nodeB.AddrW, tableB, metrics, sched, rng, 2, func() []*DiscoveryApp { return []*DiscoveryApp{appA} })
	return appA, appB, tableA, tableB
}

func TestDiscovery_MatchingPredictionCreatesRoutingEntries(t *testing.T) {
	appA, _, tableA, tableB := newDiscoveryPair(t, 2, 2)

	appA.broadcast()

	require.Equal(t, 1, tableB.Size(), "the matching peer should have inserted a partial entry on DISCOVERY")
	require.Equal(t, 1, tableA.Size(), "the REPLY should have inserted the full entry back on the broadcaster")

	entry, ok := tableA.Lookup(appA.addr.String(), appA.peers()[0].addr.String())
	require.True(t, ok)
	require.Greater(t, entry.LinkLifetime, 0.0)
}

// S3: nodes whose predicted next locations disagree exchange no entries.
func TestDiscovery_MismatchedPredictionCreatesNoEntry(t *testing.T) {
	appA, _, tableA, tableB := newDiscoveryPair(t, 1, 4)

	appA.broadcast()

	require.Equal(t, 0, tableB.Size())
	require.Equal(t, 0, tableA.Size())
}

func TestDiscovery_ReplyPopulatesPeerCPUSpeedAndInterval(t *testing.T) {
	appA, appB, tableA, _ := newDiscoveryPair(t, 3, 3)
	appA.broadcast()

	entry, ok := tableA.Lookup(appA.addr.String(), appB.addr.String())
	require.True(t, ok)
	require.Equal(t, appB.node.CPUSpeed, entry.PeerCPUSpeed)
	require.Equal(t, appB.node.Mobility.NextInterval(), entry.NextInterval)
}

func TestDiscoveryApp_SweepInactiveDoesNotDelete(t *testing.T) {
	appA, appB, tableA, _ := newDiscoveryPair(t, 2, 2)
	appA.broadcast()

	before := tableA.Size()
	appA.SweepInactive() // fresh entry, nothing idle yet
	require.Equal(t, before, tableA.Size())

	// Age the entry past the inactivity threshold and sweep again; it
	// must be logged, not removed (log-only sweep, §4.E).
	tableA.Update(appA.addr.String(), appB.addr.String(), func(e *Entry) {
		e.TimeLastPkt = -(inactivityThreshold + 1)
	})
	appA.SweepInactive()
	require.Equal(t, before, tableA.Size())
}

func TestDiscoveryApp_StopCancelsPendingEvent(t *testing.T) {
	appA, _, _, _ := newDiscoveryPair(t, 2, 2)
	appA.Start()
	require.NotZero(t, appA.pendingEvent)
	appA.Stop()
	require.True(t, appA.stopped)
}
