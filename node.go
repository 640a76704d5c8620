package main

import (
	"fmt"
	"math/rand"
	"net"
)

// Node is a simulated mobile compute host with stable identity and two
// interface addresses (§3). It owns exactly one mobility state and one
// predictor; the two discovery apps are attached by the simulation once
// every node exists, so they can resolve each other as broadcast peers.
type Node struct {
	ID       int
	AddrW    net.IP
	AddrWD   net.IP
	CPUSpeed float64

	Mobility *Mobility

	DiscoveryW  *DiscoveryApp
	DiscoveryWD *DiscoveryApp
}

// addrForNode synthesizes a node's interface address deterministically
// from its id (§3): 10.0.0.<id> for W, 10.0.1.<id> for WD.
func addrForNode(id int, iface string) net.IP {
	switch iface {
	case IfaceW:
		return net.IPv4(10, 0, 0, byte(id))
	default:
		return net.IPv4(10, 0, 1, byte(id))
	}
}

// NewNode constructs a node at the given initial position with a
// freshly seeded mobility driver. The discovery apps are attached
// separately via AttachDiscovery once the simulation's routing tables
// and peer directories exist.
func NewNode(id int, sched *Scheduler, rng *rand.Rand, regions RegionMap, initial Vector, speedMin, speedMax, cpuSpeed float64) *Node {
	return &Node{
		ID:       id,
		AddrW:    addrForNode(id, IfaceW),
		AddrWD:   addrForNode(id, IfaceWD),
		CPUSpeed: cpuSpeed,
		Mobility: NewMobility(sched, rng, regions, initial, speedMin, speedMax),
	}
}

// AttachDiscovery wires this node's two discovery applications and
// starts them.
func (n *Node) AttachDiscovery(w, wd *DiscoveryApp) {
	n.DiscoveryW = w
	n.DiscoveryWD = wd
	n.DiscoveryW.Start()
	n.DiscoveryWD.Start()
}

// Stop cancels both discovery applications' pending events.
func (n *Node) Stop() {
	if n.DiscoveryW != nil {
		n.DiscoveryW.Stop()
	}
	if n.DiscoveryWD != nil {
		n.DiscoveryWD.Stop()
	}
}

func (n *Node) String() string {
	return fmt.Sprintf("node %d (W=%s WD=%s)", n.ID, n.AddrW, n.AddrWD)
}
