package main

import (
	"math/rand"
	"net"

	log "github.com/sirupsen/logrus"
)

// DiscoveryApp is one node's discovery application on one interface
// (§4.E). Each node runs two: one bound to AddrW, one to AddrWD.
type DiscoveryApp struct {
	node  *Node
	iface string
	addr  net.IP

	table   *Table
	metrics *Metrics
	sched   *Scheduler
	rng     *rand.Rand

	servicePeriod float64
	peers         func() []*DiscoveryApp

	pendingEvent EventID
	stopped      bool
}

// NewDiscoveryApp constructs a discovery application. peers must return
// every other node's DiscoveryApp on the same interface (the broadcast
// domain); it is resolved lazily since all nodes are wired up together.
func NewDiscoveryApp(node *Node, iface string, addr net.IP, table *Table, metrics *Metrics, sched *Scheduler, rng *rand.Rand, servicePeriod float64, peers func() []*DiscoveryApp) *DiscoveryApp {
	return &DiscoveryApp{
		node: node, iface: iface, addr: addr,
		table: table, metrics: metrics, sched: sched, rng: rng,
		servicePeriod: servicePeriod, peers: peers,
	}
}

// Start opens the logical socket and schedules the first broadcast, per
// DESIGN NOTES §9's scoped-acquisition guidance.
func (d *DiscoveryApp) Start() {
	d.stopped = false
	d.scheduleNext()
}

// Stop cancels the pending send event and marks the socket closed; no
// partial send is re-queued (§5).
func (d *DiscoveryApp) Stop() {
	d.stopped = true
	if d.pendingEvent != 0 {
		d.sched.Cancel(d.pendingEvent)
		d.pendingEvent = 0
	}
}

func (d *DiscoveryApp) scheduleNext() {
	jitter := -1 + 2*d.rng.Float64()
	delay := d.servicePeriod + jitter
	if delay < 0 {
		delay = 0
	}
	d.pendingEvent = d.sched.Schedule(delay, d.onServiceTick)
}

func (d *DiscoveryApp) onServiceTick() {
	if d.stopped {
		return
	}
	d.broadcast()
	d.scheduleNext()
}

// broadcast sends a DISCOVERY to every other node's app on this
// interface, carrying this node's currently advertised next location.
// The destination field is left zero (§9 oddity 3: never set in the
// original, treated as reserved).
func (d *DiscoveryApp) broadcast() {
	hdr := DiscoveryHeader{
		Source:      d.addr,
		Destination: net.IPv4zero,
		NextLoc:     uint32(d.node.Mobility.NextLocation()),
	}
	payload := hdr.Serialize()
	d.metrics.RecordTx(d.node.ID, d.iface, len(payload))

	for _, peer := range d.peers() {
		if peer == d {
			continue
		}
		peer := peer
		d.sched.Schedule(0, func() { peer.receiveDiscovery(hdr, d) })
	}
}

// receiveDiscovery applies the prediction-agreement filter and, on a
// match, inserts/updates the sender's table entry and replies (§4.E).
func (d *DiscoveryApp) receiveDiscovery(hdr DiscoveryHeader, from *DiscoveryApp) {
	d.metrics.RecordRx(d.node.ID, d.iface, DiscoverySerializedSize, 0)

	myNext := d.node.Mobility.NextLocation()
	if LocationID(hdr.NextLoc) != myNext {
		return
	}

	now := d.sched.Now()
	peerAddr := from.addr.String()
	myAddr := d.addr.String()
	if _, ok := d.table.Lookup(myAddr, peerAddr); !ok {
		d.table.Insert(&Entry{
			MyAddr: myAddr, PeerAddr: peerAddr,
			TimeFirstPkt: now, TimeLastPkt: now, TimeConnected: 0,
			MyLoc: d.node.Mobility.Position(), PeerLoc: from.node.Mobility.Position(),
			NextLoc: LocationID(hdr.NextLoc),
		})
	} else {
		d.table.Update(myAddr, peerAddr, func(e *Entry) {
			e.TimeLastPkt = now
			e.TimeConnected = now - e.TimeFirstPkt
			e.MyLoc = d.node.Mobility.Position()
			e.PeerLoc = from.node.Mobility.Position()
			e.NextLoc = LocationID(hdr.NextLoc)
		})
	}

	d.sendReply(from)
}

// sendReply unicasts a REPLY back to the sender of a matched DISCOVERY.
func (d *DiscoveryApp) sendReply(to *DiscoveryApp) {
	hdr := ReplyHeader{
		Source:       d.addr,
		Destination:  to.addr,
		NextLoc:      uint16(d.node.Mobility.NextLocation()),
		NextInterval: uint16(d.node.Mobility.NextInterval()),
		PeerCPUSpeed: d.node.CPUSpeed,
	}
	payload := hdr.Serialize()
	d.metrics.RecordTx(d.node.ID, d.iface, len(payload))
	d.sched.Schedule(0, func() { to.receiveReply(hdr, d) })
}

// receiveReply records the replier's full predicted state and computes
// the link lifetime for this (peer, interface) pair (§4.G).
func (d *DiscoveryApp) receiveReply(hdr ReplyHeader, from *DiscoveryApp) {
	d.metrics.RecordRx(d.node.ID, d.iface, ReplySerializedSize, 0)

	now := d.sched.Now()
	peerAddr := from.addr.String()
	myAddr := d.addr.String()
	myNextInterval := d.node.Mobility.NextInterval()
	peerNextInterval := int(hdr.NextInterval)
	lifetime := EstimateLinkLifetime(myNextInterval, peerNextInterval)

	if _, ok := d.table.Lookup(myAddr, peerAddr); !ok {
		d.table.Insert(&Entry{
			MyAddr: myAddr, PeerAddr: peerAddr,
			TimeFirstPkt: now, TimeLastPkt: now, TimeConnected: 0,
			MyLoc: d.node.Mobility.Position(), PeerLoc: from.node.Mobility.Position(),
			NextLoc: LocationID(hdr.NextLoc), NextInterval: peerNextInterval,
			LinkLifetime: lifetime, PeerCPUSpeed: hdr.PeerCPUSpeed,
		})
	} else {
		d.table.Update(myAddr, peerAddr, func(e *Entry) {
			e.TimeLastPkt = now
			e.TimeConnected = now - e.TimeFirstPkt
			e.MyLoc = d.node.Mobility.Position()
			e.PeerLoc = from.node.Mobility.Position()
			e.NextLoc = LocationID(hdr.NextLoc)
			e.NextInterval = peerNextInterval
			e.LinkLifetime = lifetime
			e.PeerCPUSpeed = hdr.PeerCPUSpeed
		})
	}
}

// SweepInactive logs (without deleting) every entry idle for more than
// inactivityThreshold seconds (§4.E, §5).
func (d *DiscoveryApp) SweepInactive() {
	now := d.sched.Now()
	for _, e := range d.table.IterateInactive(now) {
		log.WithFields(log.Fields{
			"my_addr": e.MyAddr, "peer_addr": e.PeerAddr,
			"idle_s": now - e.TimeLastPkt, "iface": d.iface,
		}).Warn("routing entry inactive")
	}
}
