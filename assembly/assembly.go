package assembly

import (
	"context"

	"github.com/wippyai/cilmeta/changes"
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/resolve"
	"github.com/wippyai/cilmeta/root"
	"github.com/wippyai/cilmeta/tables"
)

// Assembly is a read-only source image plus the edits recorded against it.
type Assembly struct {
	// Root is nil when the image was assembled from loose streams.
	Root    *root.Root
	Tables  *tables.Tables
	Heaps   *heaps.Set
	Changes *changes.AssemblyChanges

	tablesName string
}

// Load parses a metadata root and the streams it names.
func Load(data []byte) (*Assembly, error) {
	r, err := root.Parse(data)
	if err != nil {
		return nil, err
	}
	ts, name, ok := r.TablesStream()
	if !ok {
		return nil, errors.New(errors.PhaseRead, errors.KindNotFound).
			Table("metadata root").
			Detail("no tables stream").
			Build()
	}
	str, _ := r.Stream(root.StreamStrings)
	blob, _ := r.Stream(root.StreamBlob)
	guid, _ := r.Stream(root.StreamGUID)
	us, _ := r.Stream(root.StreamUserStrings)

	a, err := FromStreams(ts, str, blob, guid, us)
	if err != nil {
		return nil, err
	}
	a.Root = r
	a.tablesName = name
	return a, nil
}

// FromStreams builds an image from the raw tables stream and heaps.
// Missing heaps may be nil.
func FromStreams(tablesStream, strings, blob, guid, userStrings []byte) (*Assembly, error) {
	ts, err := tables.Parse(tablesStream)
	if err != nil {
		return nil, err
	}
	hs := heaps.NewSet(strings, blob, guid, userStrings)
	return &Assembly{
		Tables:     ts,
		Heaps:      hs,
		Changes:    newChanges(hs),
		tablesName: root.StreamTables,
	}, nil
}

// appendBase is where the first appended entry of a byte heap lands. An
// empty heap gets its reserved zero entry written first.
func appendBase(n int) uint32 {
	if n == 0 {
		return 1
	}
	return uint32(n)
}

func newChanges(hs *heaps.Set) *changes.AssemblyChanges {
	return changes.NewAssemblyChanges(
		changes.NewHeapChanges(appendBase(hs.Strings.Len()), heaps.StringEntrySize),
		changes.NewHeapChanges(appendBase(hs.Blob.Len()), heaps.BlobEntrySize),
		changes.NewHeapChanges(hs.GUID.Count()+1, heaps.GUIDEntrySize),
		changes.NewHeapChanges(appendBase(hs.UserStrings.Len()), heaps.UserStringEntrySize),
	)
}

// TablesStreamName returns "#~" or "#-" as found in the source root.
func (a *Assembly) TablesStreamName() string {
	return a.tablesName
}

// RowCount returns the source row count of table.
func (a *Assembly) RowCount(table tables.TableID) uint32 {
	return a.Tables.RowCount(table)
}

// Resolve loads owned entities from the source image. Pending edits are
// not reflected.
func (a *Assembly) Resolve(ctx context.Context, opts resolve.Options) (*resolve.Result, error) {
	return resolve.Load(ctx, a.Tables, a.Heaps, opts)
}

// Clone returns an Assembly over the same source image with an independent
// copy of the pending edits.
func (a *Assembly) Clone() *Assembly {
	c := *a
	c.Changes = a.Changes.Clone()
	return &c
}

// Discard drops every pending edit.
func (a *Assembly) Discard() {
	a.Changes = newChanges(a.Heaps)
}
