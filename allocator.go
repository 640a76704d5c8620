package main

import (
	"math/rand"

	log "github.com/sirupsen/logrus"
)

// TransferLeg is one (interface, duration) segment of a transfer plan.
type TransferLeg struct {
	Iface    string
	PeerAddr string
	Duration float64
	SizeMB   float64
}

// TransferPlan is the allocator's output for one successfully admitted
// task (§4.I step 4g): a primary leg on the faster interface and an
// optional remainder leg on the other.
type TransferPlan struct {
	Primary   TransferLeg
	Remainder *TransferLeg
}

// Allocator is the deadline-priority task allocator (§4.I). It is
// invoked periodically by the scheduler and mutates the task queue and
// per-node outcome logs.
type Allocator struct {
	sched   *Scheduler
	rng     *rand.Rand
	queue   *TaskQueue
	tableW  *Table
	tableWD *Table
	metrics *Metrics
	nodes   []*Node

	// wdAddrFor maps a node's W address to its WD address, per the
	// global W_addr -> WD_addr map referenced in §4.I step 4a.
	wdAddrFor map[string]string
	// nodeByAddr maps either interface address back to its owning node
	// id, so a transfer leg's receiving side can be credited in Metrics.
	nodeByAddr map[string]int

	rr int // round-robin counter over nodes

	// SortByCPU enables descending-peer-CPU-speed candidate ordering
	// (§4.I step 4, the boolean option).
	SortByCPU bool
	// UseMaxCPU omits the min(deadline, llt) clamp in step 4c when set.
	UseMaxCPU bool

	outcomes map[int][]TaskOutcome // per-node outcome log, insertion order

	retryEvent EventID
}

// NewAllocator constructs an allocator over the given queue, per-
// interface routing tables, and node set.
func NewAllocator(sched *Scheduler, rng *rand.Rand, queue *TaskQueue, tableW, tableWD *Table, metrics *Metrics, nodes []*Node) *Allocator {
	wdAddrFor := make(map[string]string, len(nodes))
	nodeByAddr := make(map[string]int, len(nodes)*2)
	for _, n := range nodes {
		wdAddrFor[n.AddrW.String()] = n.AddrWD.String()
		nodeByAddr[n.AddrW.String()] = n.ID
		nodeByAddr[n.AddrWD.String()] = n.ID
	}
	return &Allocator{
		sched: sched, rng: rng, queue: queue, tableW: tableW, tableWD: tableWD,
		metrics: metrics, nodes: nodes, wdAddrFor: wdAddrFor, nodeByAddr: nodeByAddr,
		outcomes: make(map[int][]TaskOutcome),
	}
}

// Start schedules the first invocation at t=10s (§4.I default).
func (a *Allocator) Start() {
	a.sched.Schedule(10, a.run)
}

func (a *Allocator) pickSender() *Node {
	n := a.nodes[a.rr%len(a.nodes)]
	a.rr++
	return n
}

func (a *Allocator) run() {
	task, ok := a.queue.Peek()
	if !ok {
		return
	}
	sender := a.pickSender()
	now := a.sched.Now()

	plan, remaining, remainingTW, remainingTWD, err := a.tryAllocate(sender, task)
	popped, _ := a.queue.Pop()

	outcome := TaskOutcome{TaskID: popped.ID, AssignTime: now}
	if err == nil {
		primaryDuration := plan.Primary.Duration
		remainderDuration := 0.0
		if plan.Remainder != nil {
			remainderDuration = plan.Remainder.Duration
		}
		outcome.Success = true
		outcome.TransferStart = now
		outcome.TransferComplete = now + maxFloat(primaryDuration, remainderDuration)
		a.recordTransfer(sender, plan.Primary)
		if plan.Remainder != nil {
			a.recordTransfer(sender, *plan.Remainder)
		}
		log.WithFields(log.Fields{
			"node": sender.ID, "task": popped.ID, "primary_iface": plan.Primary.Iface,
			"remaining_mb": remaining, "t_w": remainingTW, "t_wd": remainingTWD,
		}).Info("task allocated")
	} else {
		outcome.Success = false
		outcome.FailureReason = err
		log.WithFields(log.Fields{"node": sender.ID, "task": popped.ID}).WithError(err).Warn("task allocation failed")
	}
	a.outcomes[sender.ID] = append(a.outcomes[sender.ID], outcome)
	a.metrics.RecordTaskAssigned(sender.ID, outcome.Success)

	if a.queue.Len() > 0 {
		gap := a.rng.Float64() * 10
		a.retryEvent = a.sched.Schedule(gap, a.run)
	}
}

// recordTransfer records leg's simulated application traffic against
// both the sender (tx) and the receiving peer (rx), using the wire
// layer's application-packet classifier (§4.E).
func (a *Allocator) recordTransfer(sender *Node, leg TransferLeg) {
	sizeBytes := int(leg.SizeMB * 1e6)
	if sizeBytes < applicationPacketThreshold {
		sizeBytes = applicationPacketThreshold
	}
	a.metrics.RecordTx(sender.ID, leg.Iface, sizeBytes)
	if peerID, ok := a.nodeByAddr[leg.PeerAddr]; ok {
		a.metrics.RecordRx(peerID, leg.Iface, sizeBytes, leg.Duration)
	}
}

// tryAllocate implements §4.I steps 3-4 for one sender/task pair. It
// returns a nil error on a viable plan, or one of the wrapped sentinel
// allocator errors (§7) otherwise.
func (a *Allocator) tryAllocate(sender *Node, task Task) (TransferPlan, float64, float64, float64, error) {
	availableW := a.metrics.TxRate(sender.ID, IfaceW) - a.metrics.UsedBandwidth(sender.ID, IfaceW)
	availableWD := a.metrics.TxRate(sender.ID, IfaceWD) - a.metrics.UsedBandwidth(sender.ID, IfaceWD)
	if availableW <= 0 || availableWD <= 0 {
		return TransferPlan{}, 0, 0, 0, Wrap(ErrNoAvailableBandwidth, "one or both interfaces have no available bandwidth")
	}

	candidates := a.tableW.IterateForMyAddr(sender.AddrW.String())
	if a.SortByCPU {
		candidates = sortByDescendingCPU(candidates)
	}

	for _, wEntry := range candidates {
		wdAddr, ok := a.wdAddrFor[wEntry.PeerAddr]
		if !ok {
			continue
		}
		wdEntry, ok := a.tableWD.Lookup(sender.AddrWD.String(), wdAddr)
		if !ok {
			continue
		}

		tDTW := safeDiv(task.SizeMB, availableW)
		tDTWD := safeDiv(task.SizeMB, availableWD)

		aW := task.Deadline
		aWD := task.Deadline
		if !a.UseMaxCPU {
			aW = minFloat(task.Deadline, wEntry.LinkLifetime)
			aWD = minFloat(task.Deadline, wdEntry.LinkLifetime)
		}

		maxW := clamp(availableW*aW, 0, task.SizeMB)
		maxWD := clamp(availableWD*aWD, 0, task.SizeMB)

		var primary TransferLeg
		var remainder *TransferLeg
		var remaining, remainingTW, remainingTWD, total float64

		if maxWD >= maxW {
			remaining = task.SizeMB - maxWD
			remainingTW = safeDiv(remaining, availableW)
			total = remaining + maxWD
			primary = TransferLeg{Iface: IfaceWD, PeerAddr: wdEntry.PeerAddr, Duration: minFloat(tDTWD, task.Deadline), SizeMB: maxWD}
			if remaining > 0 {
				remainder = &TransferLeg{Iface: IfaceW, PeerAddr: wEntry.PeerAddr, Duration: remainingTW, SizeMB: remaining}
			}
		} else {
			remaining = task.SizeMB - maxW
			remainingTWD = safeDiv(remaining, availableWD)
			total = remaining + maxW
			primary = TransferLeg{Iface: IfaceW, PeerAddr: wEntry.PeerAddr, Duration: minFloat(tDTW, task.Deadline), SizeMB: maxW}
			if remaining > 0 {
				remainder = &TransferLeg{Iface: IfaceWD, PeerAddr: wdEntry.PeerAddr, Duration: remainingTWD, SizeMB: remaining}
			}
		}

		if total < task.SizeMB || remainingTW+remainingTWD > task.Deadline {
			continue
		}

		return TransferPlan{Primary: primary, Remainder: remainder}, remaining, remainingTW, remainingTWD, nil
	}

	return TransferPlan{}, 0, 0, 0, Wrap(ErrNoViableRoute, "no candidate peer satisfies size and deadline")
}

// Outcomes returns nodeID's task-outcome log, in insertion order.
func (a *Allocator) Outcomes(nodeID int) []TaskOutcome {
	return a.outcomes[nodeID]
}

func sortByDescendingCPU(entries []*Entry) []*Entry {
	out := append([]*Entry(nil), entries...)
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && out[j-1].PeerCPUSpeed < out[j].PeerCPUSpeed {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}

func safeDiv(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
