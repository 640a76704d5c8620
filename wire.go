package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"net"
)

// MalformedHeaderError is returned by Deserialize when fewer bytes than
// SerializedSize remain in the buffer (§4.D, §7).
type MalformedHeaderError struct {
	Want, Got int
}

func (e *MalformedHeaderError) Error() string {
	return fmt.Sprintf("malformed header: want %d bytes, got %d", e.Want, e.Got)
}

func (e *MalformedHeaderError) Unwrap() error { return ErrMalformedHeader }

// DiscoveryHeader is the 12-byte DISCOVERY wire header (§3, §6):
// src_ipv4[4] | dst_ipv4[4] | next_location:u32 (network byte order).
type DiscoveryHeader struct {
	Source      net.IP
	Destination net.IP
	NextLoc     uint32
}

// DiscoverySerializedSize is the fixed wire size of a DiscoveryHeader.
const DiscoverySerializedSize = 12

// Serialize encodes the header into its fixed 12-byte wire form.
func (h DiscoveryHeader) Serialize() []byte {
	buf := make([]byte, DiscoverySerializedSize)
	copy(buf[0:4], h.Source.To4())
	copy(buf[4:8], h.Destination.To4())
	binary.BigEndian.PutUint32(buf[8:12], h.NextLoc)
	return buf
}

// DeserializeDiscoveryHeader decodes a DiscoveryHeader from buf, failing
// with MalformedHeaderError if fewer than DiscoverySerializedSize bytes
// remain (§4.D).
func DeserializeDiscoveryHeader(buf []byte) (DiscoveryHeader, error) {
	if len(buf) < DiscoverySerializedSize {
		return DiscoveryHeader{}, &MalformedHeaderError{Want: DiscoverySerializedSize, Got: len(buf)}
	}
	return DiscoveryHeader{
		Source:      net.IPv4(buf[0], buf[1], buf[2], buf[3]),
		Destination: net.IPv4(buf[4], buf[5], buf[6], buf[7]),
		NextLoc:     binary.BigEndian.Uint32(buf[8:12]),
	}, nil
}

// ReplySerializedSize is the fixed wire size of a ReplyHeader.
const ReplySerializedSize = 20

// ReplyHeader is the 20-byte REPLY wire header (§3, §6):
// src_ipv4[4] | dst_ipv4[4] | next_location:u16 | next_interval:u16 |
// peer_cpu_speed:f64. The f64 is written as 8 raw bytes in an explicit,
// fixed byte order; this implementation picks little-endian (§9 note 2,
// resolved in SPEC_FULL.md §4.D).
type ReplyHeader struct {
	Source       net.IP
	Destination  net.IP
	NextLoc      uint16
	NextInterval uint16
	PeerCPUSpeed float64
}

// Serialize encodes the header into its fixed 20-byte wire form.
func (h ReplyHeader) Serialize() []byte {
	buf := make([]byte, ReplySerializedSize)
	copy(buf[0:4], h.Source.To4())
	copy(buf[4:8], h.Destination.To4())
	binary.BigEndian.PutUint16(buf[8:10], h.NextLoc)
	binary.BigEndian.PutUint16(buf[10:12], h.NextInterval)
	binary.LittleEndian.PutUint64(buf[12:20], math.Float64bits(h.PeerCPUSpeed))
	return buf
}

// DeserializeReplyHeader decodes a ReplyHeader from buf, failing with
// MalformedHeaderError if fewer than ReplySerializedSize bytes remain.
func DeserializeReplyHeader(buf []byte) (ReplyHeader, error) {
	if len(buf) < ReplySerializedSize {
		return ReplyHeader{}, &MalformedHeaderError{Want: ReplySerializedSize, Got: len(buf)}
	}
	return ReplyHeader{
		Source:       net.IPv4(buf[0], buf[1], buf[2], buf[3]),
		Destination:  net.IPv4(buf[4], buf[5], buf[6], buf[7]),
		NextLoc:      binary.BigEndian.Uint16(buf[8:10]),
		NextInterval: binary.BigEndian.Uint16(buf[10:12]),
		PeerCPUSpeed: math.Float64frombits(binary.LittleEndian.Uint64(buf[12:20])),
	}, nil
}

// Discovery and application-data ports, per interface (§6). DISCOVERY
// packets this implementation models are never shorter than 500 bytes'
// worth of simulated payload on the application channel, and shorter on
// the discovery channel — see Metrics.Observe for the classifier that
// consumes this split.
const (
	PortDiscoveryW  = 9
	PortDiscoveryWD = 80
	PortAppW        = 10
	PortAppWD       = 81

	// applicationPacketThreshold is the sole classifier available to the
	// metrics layer (§4.E): packets >= this size are "application"
	// traffic, smaller ones are "discovery/control".
	applicationPacketThreshold = 500
)
