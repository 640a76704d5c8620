package main

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// csvColumns is the fixed per-node-per-second row header (§6). Column
// order here is the column order on the wire; Snapshot's fields mirror
// it one-to-one.
var csvColumns = []string{
	"sim_second", "tasks_assigned", "tasks_failed",
	"mbsDisc", "mbsWDDisc", "mbsApp", "mbsWDApp",
	"throughputDisc", "throughputWDDisc", "throughputApp", "throughputWDApp",
	"pkt_rx_disc", "pkt_rx_wd_disc", "pkt_rx_app", "pkt_rx_wd_app",
	"seq", "seq_wd",
	"tx_rate", "tx_rate_wd", "rx_rate", "rx_rate_wd",
	"delay", "delay_wd",
	"tx_app", "tx_app_wd", "rx_app", "rx_app_wd",
	"tx", "tx_wd", "rx", "rx_wd",
}

// Snapshot is one emitted CSV row: everything counted for one node
// during one simulated second (§4.K). Counters reset after emission.
type Snapshot struct {
	SimSecond     int
	TasksAssigned int
	TasksFailed   int

	MbsDisc, MbsWDDisc, MbsApp, MbsWDApp                 float64
	ThroughputDisc, ThroughputWDDisc                     float64
	ThroughputApp, ThroughputWDApp                       float64
	PktRxDisc, PktRxWDDisc, PktRxApp, PktRxWDApp         int
	Seq, SeqWD                                           int
	TxRate, TxRateWD, RxRate, RxRateWD                   float64
	Delay, DelayWD                                       float64
	TxApp, TxAppWD, RxApp, RxAppWD                       int
	Tx, TxWD, Rx, RxWD                                   int
}

func (s Snapshot) row(nodeID int) []string {
	f := strconv.FormatFloat
	return []string{
		strconv.Itoa(nodeID), // node column prepended, ahead of sim_second
		strconv.Itoa(s.SimSecond), strconv.Itoa(s.TasksAssigned), strconv.Itoa(s.TasksFailed),
		f(s.MbsDisc, 'f', 6, 64), f(s.MbsWDDisc, 'f', 6, 64), f(s.MbsApp, 'f', 6, 64), f(s.MbsWDApp, 'f', 6, 64),
		f(s.ThroughputDisc, 'f', 6, 64), f(s.ThroughputWDDisc, 'f', 6, 64), f(s.ThroughputApp, 'f', 6, 64), f(s.ThroughputWDApp, 'f', 6, 64),
		strconv.Itoa(s.PktRxDisc), strconv.Itoa(s.PktRxWDDisc), strconv.Itoa(s.PktRxApp), strconv.Itoa(s.PktRxWDApp),
		strconv.Itoa(s.Seq), strconv.Itoa(s.SeqWD),
		f(s.TxRate, 'f', 6, 64), f(s.TxRateWD, 'f', 6, 64), f(s.RxRate, 'f', 6, 64), f(s.RxRateWD, 'f', 6, 64),
		f(s.Delay, 'f', 6, 64), f(s.DelayWD, 'f', 6, 64),
		strconv.Itoa(s.TxApp), strconv.Itoa(s.TxAppWD), strconv.Itoa(s.RxApp), strconv.Itoa(s.RxAppWD),
		strconv.Itoa(s.Tx), strconv.Itoa(s.TxWD), strconv.Itoa(s.Rx), strconv.Itoa(s.RxWD),
	}
}

// nodeCounters accumulates the running totals for one node between CSV
// emissions.
type nodeCounters struct {
	tasksAssigned, tasksFailed int

	mbsDisc, mbsWDDisc, mbsApp, mbsWDApp float64
	pktRxDisc, pktRxWDDisc               int
	pktRxApp, pktRxWDApp                 int
	seq, seqWD                           int
	txApp, txAppWD, rxApp, rxAppWD       int
	tx, txWD, rx, rxWD                   int
	delaySum, delaySumWD                 float64
	delayCount, delayCountWD             int
}

// Interface names used as metric labels and as the selector passed to
// Metrics.RecordTx/RecordRx.
const (
	IfaceW  = "W"
	IfaceWD = "WD"
)

var promLabels = []string{"node", "iface"}

// promMetrics is the additive Prometheus mirror of the CSV sink (§10):
// the same counters, exported for scraping, never the source of truth
// for the allocator (the CSV-backed Snapshot history is).
var (
	promPacketsTx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manet_packets_tx_total",
		Help: "Packets transmitted per node per interface.",
	}, promLabels)
	promPacketsRx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manet_packets_rx_total",
		Help: "Packets received per node per interface.",
	}, promLabels)
	promBytesTx = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manet_bytes_tx_total",
		Help: "Bytes transmitted per node per interface.",
	}, promLabels)
	promTxRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "manet_tx_rate_mbps",
		Help: "Most recently observed transmit rate per node per interface, in Mbps.",
	}, promLabels)
	promTasksAssigned = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manet_tasks_assigned_total",
		Help: "Tasks assigned to this node by the allocator.",
	}, []string{"node"})
	promTasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manet_tasks_failed_total",
		Help: "Tasks assigned to this node that the allocator could not complete.",
	}, []string{"node"})
)

// Metrics is the process-wide metrics and tracing sink (§4.K). It owns
// the per-node running counters, the CSV writer, and the configured
// per-interface PHY capacity the allocator treats as speed_W/speed_WD;
// usage counters (used_W/used_WD) and capacity are tracked separately
// so one can never masquerade as the other.
type Metrics struct {
	counters map[int]*nodeCounters
	lastRate map[int][4]float64 // tx_W, tx_WD, rx_W, rx_WD observed throughput, most recent second (CSV columns only)
	capacity map[int][2]float64 // cap_W, cap_WD PHY tx-rate, Mbps — independent of usage, the allocator's speed_W/speed_WD input

	csv *csv.Writer
}

// NewMetrics constructs a sink writing CSV rows to w (nil disables the
// CSV sink entirely; Prometheus counters are always updated).
func NewMetrics(w io.Writer) *Metrics {
	m := &Metrics{
		counters: make(map[int]*nodeCounters),
		lastRate: make(map[int][4]float64),
		capacity: make(map[int][2]float64),
	}
	if w != nil {
		m.csv = csv.NewWriter(w)
		header := append([]string{"node"}, csvColumns...)
		_ = m.csv.Write(header)
	}
	return m
}

// SetCapacity records nodeID's PHY transmit-rate ceiling per interface,
// Mbps — the rate-adaptation-set capacity the original models as
// m_txDataRate, decoupled from how much of it is actually in use.
func (m *Metrics) SetCapacity(nodeID int, capW, capWD float64) {
	m.capacity[nodeID] = [2]float64{capW, capWD}
}

func (m *Metrics) counterFor(nodeID int) *nodeCounters {
	c, ok := m.counters[nodeID]
	if !ok {
		c = &nodeCounters{}
		m.counters[nodeID] = c
	}
	return c
}

// RecordTx records one transmitted packet of size bytes on iface for
// nodeID, classifying it as application or discovery/control traffic
// per the size threshold in §4.E.
func (m *Metrics) RecordTx(nodeID int, iface string, size int) {
	c := m.counterFor(nodeID)
	isApp := size >= applicationPacketThreshold
	mbs := float64(size*8) / 1e6
	switch iface {
	case IfaceW:
		c.tx++
		if isApp {
			c.txApp++
			c.mbsApp += mbs
		} else {
			c.mbsDisc += mbs
			c.seq++
		}
	case IfaceWD:
		c.txWD++
		if isApp {
			c.txAppWD++
			c.mbsWDApp += mbs
		} else {
			c.mbsWDDisc += mbs
			c.seqWD++
		}
	}
	promPacketsTx.WithLabelValues(strconv.Itoa(nodeID), iface).Inc()
	promBytesTx.WithLabelValues(strconv.Itoa(nodeID), iface).Add(float64(size))
}

// RecordRx records one received packet of size bytes on iface for
// nodeID, with the observed delay (seconds) since it was sent.
func (m *Metrics) RecordRx(nodeID int, iface string, size int, delay float64) {
	c := m.counterFor(nodeID)
	isApp := size >= applicationPacketThreshold
	switch iface {
	case IfaceW:
		c.rx++
		c.delaySum += delay
		c.delayCount++
		if isApp {
			c.rxApp++
			c.pktRxApp++
		} else {
			c.pktRxDisc++
		}
	case IfaceWD:
		c.rxWD++
		c.delaySumWD += delay
		c.delayCountWD++
		if isApp {
			c.rxAppWD++
			c.pktRxWDApp++
		} else {
			c.pktRxWDDisc++
		}
	}
	promPacketsRx.WithLabelValues(strconv.Itoa(nodeID), iface).Inc()
}

// RecordTaskAssigned records that the allocator handed nodeID a task.
func (m *Metrics) RecordTaskAssigned(nodeID int, success bool) {
	c := m.counterFor(nodeID)
	c.tasksAssigned++
	promTasksAssigned.WithLabelValues(strconv.Itoa(nodeID)).Inc()
	if !success {
		c.tasksFailed++
		promTasksFailed.WithLabelValues(strconv.Itoa(nodeID)).Inc()
	}
}

// TxRate returns nodeID's configured PHY transmit-rate capacity on
// iface, in Mbps — the allocator's sole source for speed_W/speed_WD
// (§4.I). This is a capacity ceiling, not an observed throughput: it
// does not change as usage counters accumulate.
func (m *Metrics) TxRate(nodeID int, iface string) float64 {
	caps := m.capacity[nodeID]
	switch iface {
	case IfaceW:
		return caps[0]
	case IfaceWD:
		return caps[1]
	default:
		return 0
	}
}

// UsedBandwidth returns the application + discovery throughput
// currently counted for nodeID on iface over the second now in
// progress, in Mbps (§4.I's used_W/used_WD).
func (m *Metrics) UsedBandwidth(nodeID int, iface string) float64 {
	c := m.counterFor(nodeID)
	switch iface {
	case IfaceW:
		return c.mbsApp + c.mbsDisc
	case IfaceWD:
		return c.mbsWDApp + c.mbsWDDisc
	default:
		return 0
	}
}

// Tick closes out one simulated second for nodeID: emits its CSV row
// (if a sink is configured), updates the Prometheus gauges, and resets
// the running counters.
func (m *Metrics) Tick(nodeID int, simSecond int) {
	c := m.counterFor(nodeID)

	txRate := c.mbsApp + c.mbsDisc
	txRateWD := c.mbsWDApp + c.mbsWDDisc
	rxRate := float64(c.rx)
	rxRateWD := float64(c.rxWD)
	m.lastRate[nodeID] = [4]float64{txRate, txRateWD, rxRate, rxRateWD}
	promTxRate.WithLabelValues(strconv.Itoa(nodeID), IfaceW).Set(txRate)
	promTxRate.WithLabelValues(strconv.Itoa(nodeID), IfaceWD).Set(txRateWD)

	var delay, delayWD float64
	if c.delayCount > 0 {
		delay = c.delaySum / float64(c.delayCount)
	}
	if c.delayCountWD > 0 {
		delayWD = c.delaySumWD / float64(c.delayCountWD)
	}

	snap := Snapshot{
		SimSecond: simSecond, TasksAssigned: c.tasksAssigned, TasksFailed: c.tasksFailed,
		MbsDisc: c.mbsDisc, MbsWDDisc: c.mbsWDDisc, MbsApp: c.mbsApp, MbsWDApp: c.mbsWDApp,
		ThroughputDisc: c.mbsDisc, ThroughputWDDisc: c.mbsWDDisc, ThroughputApp: c.mbsApp, ThroughputWDApp: c.mbsWDApp,
		PktRxDisc: c.pktRxDisc, PktRxWDDisc: c.pktRxWDDisc, PktRxApp: c.pktRxApp, PktRxWDApp: c.pktRxWDApp,
		Seq: c.seq, SeqWD: c.seqWD,
		TxRate: txRate, TxRateWD: txRateWD, RxRate: rxRate, RxRateWD: rxRateWD,
		Delay: delay, DelayWD: delayWD,
		TxApp: c.txApp, TxAppWD: c.txAppWD, RxApp: c.rxApp, RxAppWD: c.rxAppWD,
		Tx: c.tx, TxWD: c.txWD, Rx: c.rx, RxWD: c.rxWD,
	}
	if m.csv != nil {
		_ = m.csv.Write(snap.row(nodeID))
		m.csv.Flush()
	}

	*c = nodeCounters{}
}
