package main

// Entry is one row of a per-interface routing table, keyed by the
// composite (MyAddr, PeerAddr) (§3).
type Entry struct {
	MyAddr, PeerAddr string

	TimeConnected float64
	TimeLastPkt   float64
	TimeFirstPkt  float64

	MyLoc, PeerLoc Vector

	NextLoc      LocationID
	NextInterval int
	LinkLifetime float64
	PeerCPUSpeed float64
}

// key returns the entry's composite primary key.
func (e *Entry) key() tableKey {
	return tableKey{myAddr: e.MyAddr, peerAddr: e.PeerAddr}
}

type tableKey struct {
	myAddr, peerAddr string
}

// Table is a process-wide, per-interface routing table (§4.F). It is a
// multi-index keyed on PeerAddr with a secondary filter on MyAddr, per
// DESIGN NOTES §9: a map from peer address to a small bucket of entries,
// each tagged by MyAddr.
type Table struct {
	byPeer map[string][]*Entry
}

// NewTable constructs an empty routing table.
func NewTable() *Table {
	return &Table{byPeer: make(map[string][]*Entry)}
}

// Lookup finds the entry for (myAddr, peerAddr), if any.
func (t *Table) Lookup(myAddr, peerAddr string) (*Entry, bool) {
	for _, e := range t.byPeer[peerAddr] {
		if e.MyAddr == myAddr {
			return e, true
		}
	}
	return nil, false
}

// Insert adds a new entry. It does not check for an existing entry with
// the same primary key — callers should Lookup first (§4.E's insert-or-
// update protocol always does).
func (t *Table) Insert(e *Entry) {
	t.byPeer[e.PeerAddr] = append(t.byPeer[e.PeerAddr], e)
}

// Update replaces the fields of the entry keyed by (myAddr, peerAddr) with
// the result of calling mutate on a pointer to it. Returns false if no
// such entry exists.
func (t *Table) Update(myAddr, peerAddr string, mutate func(*Entry)) bool {
	e, ok := t.Lookup(myAddr, peerAddr)
	if !ok {
		return false
	}
	mutate(e)
	return true
}

// DeleteByPeer removes every entry for peerAddr, across all MyAddr values.
func (t *Table) DeleteByPeer(peerAddr string) {
	delete(t.byPeer, peerAddr)
}

// IterateAll returns every entry in the table, in no particular order.
func (t *Table) IterateAll() []*Entry {
	all := make([]*Entry, 0)
	for _, bucket := range t.byPeer {
		all = append(all, bucket...)
	}
	return all
}

// IterateForMyAddr returns every entry owned by myAddr, across all peers.
func (t *Table) IterateForMyAddr(myAddr string) []*Entry {
	var out []*Entry
	for _, bucket := range t.byPeer {
		for _, e := range bucket {
			if e.MyAddr == myAddr {
				out = append(out, e)
			}
		}
	}
	return out
}

// inactivityThreshold is the age, in simulated seconds, beyond which an
// entry is considered inactive (§4.E).
const inactivityThreshold = 5.0

// IterateInactive returns every entry whose last packet is older than
// inactivityThreshold as of now. The sweep is log-only: entries are never
// deleted by this call.
func (t *Table) IterateInactive(now float64) []*Entry {
	var out []*Entry
	for _, e := range t.IterateAll() {
		if now-e.TimeLastPkt > inactivityThreshold {
			out = append(out, e)
		}
	}
	return out
}

// Size returns the total number of entries across all peers.
func (t *Table) Size() int {
	n := 0
	for _, bucket := range t.byPeer {
		n += len(bucket)
	}
	return n
}
