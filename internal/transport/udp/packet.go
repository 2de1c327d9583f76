// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"audioviz/internal/frame"
)

/*
UDP Packet Structure (BigEndian)

+---------------------------------------------------------------------------+
| Field           | Data Type      | Size (Bytes) | Description             |
|-----------------|----------------|--------------|-------------------------|
| Sequence Number | uint32         | 4            | Monotonically increasing|
| Timestamp       | int64          | 8            | Nanoseconds since epoch |
| BPM             | float32        | 4            | Always 0 for now        |
| Low/Mid/High    | float32 x 3    | 12           | Band powers in [0, 1]   |
| Bucket Count    | uint16         | 2            | Number of buckets (N)   |
| Buckets         | []float32      | N * 4        | Hundred-Hz buckets      |
+---------------------------------------------------------------------------+
*/

// HeaderSize is the packet size without buckets.
const HeaderSize = 4 + 8 + 4*4 + 2

// PacketSize is the size of a packet carrying a full frame.
const PacketSize = HeaderSize + frame.BucketCount*4

// Packet is a decoded frame packet.
type Packet struct {
	Sequence  uint32
	Timestamp int64
	Frame     frame.AudioFrame
}

type packetHeader struct {
	Sequence  uint32
	Timestamp int64
	BPM       float32
	Low       float32
	Mid       float32
	High      float32
	Count     uint16
}

// EncodePacket appends the wire form of f to buf.
func EncodePacket(buf *bytes.Buffer, seq uint32, timestamp int64, f frame.AudioFrame) error {
	hdr := packetHeader{
		Sequence:  seq,
		Timestamp: timestamp,
		BPM:       f.BPM,
		Low:       f.LowPower,
		Mid:       f.MidPower,
		High:      f.HighPower,
		Count:     frame.BucketCount,
	}
	if err := binary.Write(buf, binary.BigEndian, hdr); err != nil {
		return err
	}
	return binary.Write(buf, binary.BigEndian, f.HundredHzBuckets)
}

// DecodePacket parses a packet produced by EncodePacket. Packets carrying
// fewer buckets than a frame holds leave the rest zero; extra buckets are
// ignored.
func DecodePacket(data []byte) (Packet, error) {
	if len(data) < HeaderSize {
		return Packet{}, errors.New("packet shorter than header")
	}

	r := bytes.NewReader(data)
	var hdr packetHeader
	if err := binary.Read(r, binary.BigEndian, &hdr); err != nil {
		return Packet{}, err
	}
	if want := HeaderSize + int(hdr.Count)*4; len(data) < want {
		return Packet{}, fmt.Errorf("packet truncated: %d bytes, want %d", len(data), want)
	}

	p := Packet{
		Sequence:  hdr.Sequence,
		Timestamp: hdr.Timestamp,
		Frame: frame.AudioFrame{
			BPM:       hdr.BPM,
			LowPower:  hdr.Low,
			MidPower:  hdr.Mid,
			HighPower: hdr.High,
		},
	}
	n := min(int(hdr.Count), frame.BucketCount)
	if err := binary.Read(r, binary.BigEndian, p.Frame.HundredHzBuckets[:n]); err != nil {
		return Packet{}, err
	}
	return p, nil
}
