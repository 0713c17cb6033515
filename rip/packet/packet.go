// Package packet implements the wire codec for RIP response messages.
//
// A response message carries the sending router's ID together with zero or
// more (destination, metric) entries, laid out back to back in big-endian
// byte order:
//
//	offset  size   field
//	  0      1     command  (always Command)
//	  1      1     version  (always Version)
//	  2      2     sender router id
//	  4      4     entry[0].DestID
//	  8      4     entry[0].Metric
//	 ...    ...    (8 bytes per entry)
package packet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gopacket/gopacket"
)

const (
	// Command is the single command code this daemon ever sends or accepts:
	// RIPv2 "response" messages. Requests are out of scope.
	Command = 2

	// Version is the RIPv2 wire version carried in every packet.
	Version = 2

	// HeaderSize is the size in bytes of the fixed response header.
	HeaderSize = 4

	// EntrySize is the size in bytes of a single (destId, metric) entry.
	EntrySize = 8

	// MaxPacketSize is the largest response packet this codec will
	// produce or accept.
	MaxPacketSize = 512

	// MaxEntries is the number of entries that fit in MaxPacketSize
	// alongside the fixed header.
	MaxEntries = (MaxPacketSize - HeaderSize) / EntrySize
)

var (
	// ErrPacketTooShort is returned when a buffer is too small to hold a
	// valid header.
	ErrPacketTooShort = errors.New("packet: buffer shorter than header")
	// ErrMisalignedEntries is returned when the entry region length is not
	// a multiple of EntrySize.
	ErrMisalignedEntries = errors.New("packet: entry region is not a multiple of entry size")
	// ErrTooLarge is returned by Encode when the requested payload would
	// not fit within MaxPacketSize.
	ErrTooLarge = errors.New("packet: encoded response would exceed max packet size")
)

// Entry is a single destination/metric pair carried in a Response.
type Entry struct {
	DestID uint32
	Metric uint32
}

// Response is a RIPv2 response message: a sender identity plus the list of
// routes being advertised to whoever receives it.
//
// Response implements gopacket.SerializableLayer so it can be built and
// flattened using the same gopacket.SerializeBuffer machinery used
// elsewhere for wire framing, rather than hand-rolling a second buffer
// discipline just for this codec.
type Response struct {
	SenderID uint16
	Entries  []Entry
}

// LayerType is registered so Response can travel through gopacket decoding
// pipelines alongside other layers, should this daemon ever need to tap a
// capture for debugging.
var LayerType = gopacket.RegisterLayerType(9000, gopacket.LayerTypeMetadata{Name: "RIPv2Response"})

func (r *Response) LayerType() gopacket.LayerType { return LayerType }
func (r *Response) LayerContents() []byte          { b, _ := Encode(r); return b }
func (r *Response) LayerPayload() []byte           { return nil }

// Size reports the exact wire size of r.
func (r *Response) Size() int {
	return HeaderSize + EntrySize*len(r.Entries)
}

// SerializeTo implements gopacket.SerializableLayer.
func (r *Response) SerializeTo(b gopacket.SerializeBuffer, _ gopacket.SerializeOptions) error {
	if len(r.Entries) > MaxEntries {
		return fmt.Errorf("%w: %d entries", ErrTooLarge, len(r.Entries))
	}
	buf, err := b.PrependBytes(r.Size())
	if err != nil {
		return err
	}
	buf[0] = Command
	buf[1] = Version
	binary.BigEndian.PutUint16(buf[2:4], r.SenderID)
	for i, e := range r.Entries {
		off := HeaderSize + i*EntrySize
		binary.BigEndian.PutUint32(buf[off:off+4], e.DestID)
		binary.BigEndian.PutUint32(buf[off+4:off+8], e.Metric)
	}
	return nil
}

// Encode serializes r to a freshly allocated byte slice. It refuses to emit
// a packet larger than MaxPacketSize.
func Encode(r *Response) ([]byte, error) {
	if r.Size() > MaxPacketSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, r.Size())
	}
	b := gopacket.NewSerializeBuffer()
	if err := r.SerializeTo(b, gopacket.SerializeOptions{}); err != nil {
		return nil, err
	}
	out := make([]byte, len(b.Bytes()))
	copy(out, b.Bytes())
	return out, nil
}

// Decode parses a response message out of a raw datagram. It rejects
// packets shorter than HeaderSize and entry regions that are not a whole
// number of entries; it does not interpret the command/version fields or
// entry contents, which is the caller's job (see the receiver's header
// validation and per-entry range checks).
func Decode(buf []byte) (*Response, error) {
	if len(buf) < HeaderSize {
		return nil, ErrPacketTooShort
	}
	entryRegion := buf[HeaderSize:]
	if len(entryRegion)%EntrySize != 0 {
		return nil, ErrMisalignedEntries
	}
	r := &Response{
		SenderID: binary.BigEndian.Uint16(buf[2:4]),
	}
	n := len(entryRegion) / EntrySize
	r.Entries = make([]Entry, n)
	for i := 0; i < n; i++ {
		off := i * EntrySize
		r.Entries[i] = Entry{
			DestID: binary.BigEndian.Uint32(entryRegion[off : off+4]),
			Metric: binary.BigEndian.Uint32(entryRegion[off+4 : off+8]),
		}
	}
	return r, nil
}

// CommandOf returns the raw command byte of buf, or an error if buf is too
// short to contain a header. Used by the receiver before it has decided the
// packet is worth fully decoding.
func CommandOf(buf []byte) (byte, error) {
	if len(buf) < HeaderSize {
		return 0, ErrPacketTooShort
	}
	return buf[0], nil
}

// VersionOf returns the raw version byte of buf.
func VersionOf(buf []byte) (byte, error) {
	if len(buf) < HeaderSize {
		return 0, ErrPacketTooShort
	}
	return buf[1], nil
}
