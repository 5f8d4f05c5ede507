package writer

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/root"
)

// StreamLayout is the placement of one stream inside the metadata root.
type StreamLayout struct {
	Name   string
	Offset uint32
	Size   uint32
	RVA    uint32
}

// Layout is the placement of every stream.
type Layout struct {
	BaseRVA uint32
	// Size is the length of the whole metadata root.
	Size    uint32
	Streams []StreamLayout
}

// Stream returns the placement of the named stream.
func (l *Layout) Stream(name string) (StreamLayout, bool) {
	for _, s := range l.Streams {
		if s.Name == name {
			return s, true
		}
	}
	return StreamLayout{}, false
}

// defaultOrder is the stream order of a root created from loose streams.
var defaultOrder = []string{heaps.NameStrings, heaps.NameUserStrings, heaps.NameGUID, heaps.NameBlob}

// Layout assigns 4-aligned offsets to the streams and computes their RVAs.
func (w *Writer) Layout() (*Layout, error) {
	if err := w.advance(stageBuilt, "Layout", errors.PhaseLayout); err != nil {
		return nil, err
	}
	defer w.metrics.observeStage("layout", time.Now())

	w.root = w.asm.Root
	if w.root == nil {
		w.root = root.New(w.opts.Version)
	}
	w.streams = w.assembleStreams()

	headers := w.root.Layout(w.streams)
	end := uint64(w.root.HeaderSize(w.streams))
	l := &Layout{BaseRVA: w.opts.BaseRVA, Streams: make([]StreamLayout, len(headers))}
	for i, h := range headers {
		l.Streams[i] = StreamLayout{Name: h.Name, Offset: h.Offset, Size: h.Size, RVA: w.opts.BaseRVA + h.Offset}
		end = (uint64(h.Offset) + uint64(h.Size) + 3) &^ 3
	}
	if end > math.MaxUint32 || uint64(w.opts.BaseRVA)+end > math.MaxUint32 {
		return nil, errors.Overflow(errors.PhaseLayout, "RVA", uint64(w.opts.BaseRVA)+end, 4)
	}
	l.Size = uint32(end)
	w.layout = l

	w.log.Debug("layout complete", zap.Uint32("size", l.Size), zap.Int("streams", len(l.Streams)))
	return l, nil
}

// assembleStreams keeps the source stream order, substituting rebuilt
// streams and passing unknown ones through. Heaps the source lacked are
// added only when edits gave them content.
func (w *Writer) assembleStreams() []root.Stream {
	tablesName := w.asm.TablesStreamName()
	seen := make(map[string]bool)
	var out []root.Stream
	if w.asm.Root != nil {
		for _, s := range w.asm.Root.Payloads() {
			switch {
			case s.Name == root.StreamTables || s.Name == root.StreamTablesUncompressed:
				s.Data = w.tablesStream
			default:
				if data, ok := w.heaps[s.Name]; ok {
					s.Data = data
				}
			}
			seen[s.Name] = true
			out = append(out, s)
		}
	}
	if !seen[tablesName] && !seen[root.StreamTables] && !seen[root.StreamTablesUncompressed] {
		out = append([]root.Stream{{Name: tablesName, Data: w.tablesStream}}, out...)
	}

	ch := w.asm.Changes
	changed := map[string]bool{
		heaps.NameStrings:     ch.Strings.HasChanges(),
		heaps.NameBlob:        ch.Blobs.HasChanges(),
		heaps.NameGUID:        ch.GUIDs.HasChanges(),
		heaps.NameUserStrings: ch.UserStrings.HasChanges(),
	}
	for _, name := range defaultOrder {
		if seen[name] {
			continue
		}
		if changed[name] || (w.asm.Root == nil && len(w.sourceHeap(name)) > 0) {
			out = append(out, root.Stream{Name: name, Data: w.heaps[name]})
		}
	}
	return out
}

func (w *Writer) sourceHeap(name string) []byte {
	hs := w.asm.Heaps
	switch name {
	case heaps.NameStrings:
		return hs.Strings.Data()
	case heaps.NameBlob:
		return hs.Blob.Data()
	case heaps.NameGUID:
		return hs.GUID.Data()
	case heaps.NameUserStrings:
		return hs.UserStrings.Data()
	}
	return nil
}

// Emit writes the metadata root.
func (w *Writer) Emit() (*Output, error) {
	if err := w.advance(stageLaidOut, "Emit", errors.PhaseEmit); err != nil {
		return nil, err
	}
	defer w.metrics.observeStage("emit", time.Now())

	data, headers, err := w.root.Emit(w.streams)
	if err != nil {
		return nil, err
	}
	if len(headers) != len(w.layout.Streams) || uint32(len(data)) != w.layout.Size {
		return nil, errors.WriteLayoutFailed(errors.PhaseEmit,
			fmt.Sprintf("emitted %d bytes in %d streams, layout has %d bytes in %d streams",
				len(data), len(headers), w.layout.Size, len(w.layout.Streams)), nil)
	}
	for i, h := range headers {
		if h.Offset != w.layout.Streams[i].Offset {
			return nil, errors.WriteLayoutFailed(errors.PhaseEmit,
				fmt.Sprintf("stream %s emitted at %d, layout has %d", h.Name, h.Offset, w.layout.Streams[i].Offset), nil)
		}
	}

	out := &Output{
		Tables:      w.tablesStream,
		TablesName:  w.asm.TablesStreamName(),
		Strings:     w.heaps[heaps.NameStrings],
		Blob:        w.heaps[heaps.NameBlob],
		GUID:        w.heaps[heaps.NameGUID],
		UserStrings: w.heaps[heaps.NameUserStrings],
		Streams:     w.streams,
		Mappings:    w.mappings,
		RIDMaps:     w.ridMaps,
		Layout:      w.layout,
		Bytes:       data,
	}
	w.log.Info("metadata written",
		zap.Int("bytes", len(data)),
		zap.Int("tables", len(w.rows)),
		zap.Bool("modified", w.asm.Changes.HasChanges()))
	return out, nil
}
