// Package root reads and writes the metadata root: the BSJB signature, the
// runtime version string and the stream directory that locates the tables
// stream and the heaps.
package root

import (
	"bytes"
	"fmt"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/internal/binary"
)

// Signature is the magic number that opens every metadata root ("BSJB").
const Signature uint32 = 0x424A5342

// Stream names.
const (
	StreamTables             = "#~"
	StreamTablesUncompressed = "#-"
	StreamStrings            = "#Strings"
	StreamBlob               = "#Blob"
	StreamGUID               = "#GUID"
	StreamUserStrings        = "#US"
	StreamPDB                = "#Pdb"
)

// maxVersionLength bounds the version string field.
const maxVersionLength = 255

// StreamHeader is one entry of the stream directory.
type StreamHeader struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Stream is a named stream payload to be laid out by Emit.
type Stream struct {
	Name string
	Data []byte
}

// Root is a parsed metadata root.
type Root struct {
	MajorVersion uint16
	MinorVersion uint16
	Reserved     uint32
	Version      string
	Flags        uint16
	Streams      []StreamHeader

	version []byte // padded version field exactly as read
	data    []byte
}

func readFailed(detail string, cause error) error {
	return errors.New(errors.PhaseRead, errors.KindMalformed).
		Table("metadata root").
		Detail("%s", detail).
		Cause(cause).
		Build()
}

// Parse reads a metadata root and its stream directory from data. Stream
// payloads alias data.
func Parse(data []byte) (*Root, error) {
	r := binary.NewReader(data)
	sig, err := r.ReadU32()
	if err != nil {
		return nil, readFailed("signature", err)
	}
	if sig != Signature {
		return nil, readFailed(fmt.Sprintf("bad signature 0x%08x", sig), nil)
	}

	root := &Root{data: data}
	if root.MajorVersion, err = r.ReadU16(); err != nil {
		return nil, readFailed("major version", err)
	}
	if root.MinorVersion, err = r.ReadU16(); err != nil {
		return nil, readFailed("minor version", err)
	}
	if root.Reserved, err = r.ReadU32(); err != nil {
		return nil, readFailed("reserved", err)
	}
	n, err := r.ReadU32()
	if err != nil {
		return nil, readFailed("version length", err)
	}
	if n > maxVersionLength+1 {
		return nil, readFailed(fmt.Sprintf("version length %d too large", n), nil)
	}
	if root.version, err = r.ReadBytes(int(n)); err != nil {
		return nil, readFailed("version string", err)
	}
	if i := bytes.IndexByte(root.version, 0); i >= 0 {
		root.Version = string(root.version[:i])
	} else {
		root.Version = string(root.version)
	}
	if root.Flags, err = r.ReadU16(); err != nil {
		return nil, readFailed("flags", err)
	}
	count, err := r.ReadU16()
	if err != nil {
		return nil, readFailed("stream count", err)
	}

	root.Streams = make([]StreamHeader, 0, count)
	for i := 0; i < int(count); i++ {
		var h StreamHeader
		if h.Offset, err = r.ReadU32(); err != nil {
			return nil, readFailed("stream offset", err)
		}
		if h.Size, err = r.ReadU32(); err != nil {
			return nil, readFailed("stream size", err)
		}
		name, err := r.ReadCString()
		if err != nil {
			return nil, readFailed("stream name", err)
		}
		if err := r.Align(4); err != nil {
			return nil, readFailed("stream name padding", err)
		}
		h.Name = string(name)
		if uint64(h.Offset)+uint64(h.Size) > uint64(len(data)) {
			return nil, errors.New(errors.PhaseRead, errors.KindOutOfBounds).
				Table(h.Name).
				Detail("stream [%d, %d) exceeds root length %d", h.Offset, uint64(h.Offset)+uint64(h.Size), len(data)).
				Build()
		}
		root.Streams = append(root.Streams, h)
	}
	return root, nil
}

// Stream returns the payload of the named stream.
func (r *Root) Stream(name string) ([]byte, bool) {
	for _, h := range r.Streams {
		if h.Name == name {
			return r.data[h.Offset : h.Offset+h.Size], true
		}
	}
	return nil, false
}

// TablesStream returns the compressed or uncompressed tables stream.
func (r *Root) TablesStream() ([]byte, string, bool) {
	if b, ok := r.Stream(StreamTables); ok {
		return b, StreamTables, true
	}
	if b, ok := r.Stream(StreamTablesUncompressed); ok {
		return b, StreamTablesUncompressed, true
	}
	return nil, "", false
}

// Payloads returns every stream in directory order.
func (r *Root) Payloads() []Stream {
	out := make([]Stream, 0, len(r.Streams))
	for _, h := range r.Streams {
		out = append(out, Stream{Name: h.Name, Data: r.data[h.Offset : h.Offset+h.Size]})
	}
	return out
}

func (r *Root) versionField() []byte {
	if r.version != nil {
		return r.version
	}
	v := append([]byte(r.Version), 0)
	for len(v)%4 != 0 {
		v = append(v, 0)
	}
	return v
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// HeaderSize returns the size of the root header and stream directory for
// the given streams.
func (r *Root) HeaderSize(streams []Stream) int {
	size := 16 + len(r.versionField()) + 4
	for _, s := range streams {
		size += 8 + align4(len(s.Name)+1)
	}
	return size
}

// Layout assigns 4-aligned offsets to streams placed back to back after
// the directory.
func (r *Root) Layout(streams []Stream) []StreamHeader {
	offset := r.HeaderSize(streams)
	out := make([]StreamHeader, len(streams))
	for i, s := range streams {
		out[i] = StreamHeader{Name: s.Name, Offset: uint32(offset), Size: uint32(len(s.Data))}
		offset = align4(offset + len(s.Data))
	}
	return out
}

// Emit writes a metadata root carrying r's version and flags and the given
// streams in order. It returns the bytes and the stream directory written.
func (r *Root) Emit(streams []Stream) ([]byte, []StreamHeader, error) {
	if len(streams) > 0xFFFF {
		return nil, nil, errors.Overflow(errors.PhaseEmit, "Streams", len(streams), 2)
	}
	version := r.versionField()
	if len(version) > maxVersionLength+1 {
		return nil, nil, errors.Overflow(errors.PhaseEmit, "Version", len(version), 1)
	}
	headers := r.Layout(streams)

	w := binary.NewWriterSize(r.HeaderSize(streams))
	w.WriteU32(Signature)
	w.WriteU16(r.MajorVersion)
	w.WriteU16(r.MinorVersion)
	w.WriteU32(r.Reserved)
	w.WriteU32(uint32(len(version)))
	w.WriteBytes(version)
	w.WriteU16(r.Flags)
	w.WriteU16(uint16(len(streams)))
	for _, h := range headers {
		w.WriteU32(h.Offset)
		w.WriteU32(h.Size)
		w.WriteBytes([]byte(h.Name))
		w.Byte(0)
		w.Pad(4, 0)
	}
	for i, s := range streams {
		if w.Len() != int(headers[i].Offset) {
			return nil, nil, errors.WriteLayoutFailed(errors.PhaseEmit,
				fmt.Sprintf("stream %s at %d, layout expects %d", s.Name, w.Len(), headers[i].Offset), nil)
		}
		w.WriteBytes(s.Data)
		w.Pad(4, 0)
	}
	return w.Bytes(), headers, nil
}

// New returns a root for the given runtime version with the usual 1.1 header.
func New(version string) *Root {
	return &Root{MajorVersion: 1, MinorVersion: 1, Version: version}
}
