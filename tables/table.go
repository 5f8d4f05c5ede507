package tables

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/cilmeta/errors"
)

// minChunk is the smallest RID range handed to one parallel worker.
const minChunk = 64

// Table is a typed, read-only view over the rows of one metadata table.
type Table[T any, P RowPtr[T]] struct {
	id      TableID
	data    []byte
	rows    uint32
	rowSize uint32
	info    *TableInfo
}

// NewTable creates a view over rows encoded in data.
func NewTable[T any, P RowPtr[T]](data []byte, rows uint32, info *TableInfo) (*Table[T, P], error) {
	id := P(new(T)).TableID()
	size := RowSize(id, info)
	if uint64(len(data)) < uint64(rows)*uint64(size) {
		return nil, errors.New(errors.PhaseRead, errors.KindOutOfBounds).
			Table(id.String()).
			Detail("%d rows of %d bytes need %d bytes, have %d", rows, size, uint64(rows)*uint64(size), len(data)).
			Build()
	}
	return &Table[T, P]{id: id, data: data, rows: rows, rowSize: size, info: info}, nil
}

// TableOf returns the typed view of T within ts. Absent tables yield an empty view.
func TableOf[T any, P RowPtr[T]](ts *Tables) *Table[T, P] {
	id := P(new(T)).TableID()
	return &Table[T, P]{
		id:      id,
		data:    ts.data[id],
		rows:    ts.Header.Rows[id],
		rowSize: RowSize(id, ts.Info),
		info:    ts.Info,
	}
}

// ID returns the table id.
func (t *Table[T, P]) ID() TableID {
	return t.id
}

// Len returns the row count.
func (t *Table[T, P]) Len() uint32 {
	return t.rows
}

// RowSize returns the encoded size of one row.
func (t *Table[T, P]) RowSize() uint32 {
	return t.rowSize
}

// Get decodes the row with the given RID.
func (t *Table[T, P]) Get(rid uint32) (P, error) {
	if rid == 0 || rid > t.rows {
		return nil, errors.OutOfBounds(errors.PhaseRead, t.id.String(), int(rid), int(t.rows))
	}
	offset := int(rid-1) * int(t.rowSize)
	return ReadRow[T, P](t.data, &offset, rid, t.info)
}

// Iter returns a sequential iterator starting at RID 1.
func (t *Table[T, P]) Iter() *Iterator[T, P] {
	return &Iterator[T, P]{table: t, next: 1}
}

// Iterator lazily decodes one row per call to Next.
type Iterator[T any, P RowPtr[T]] struct {
	table *Table[T, P]
	next  uint32
	done  bool
}

// Next returns the next row. A decode failure ends iteration like end of data.
func (it *Iterator[T, P]) Next() (P, bool) {
	if it.done || it.next > it.table.rows {
		return nil, false
	}
	row, err := it.table.Get(it.next)
	if err != nil {
		it.done = true
		return nil, false
	}
	it.next++
	return row, true
}

// All yields rows in RID order, stopping silently at the first decode failure.
func (t *Table[T, P]) All() func(yield func(P) bool) {
	return func(yield func(P) bool) {
		it := t.Iter()
		for row, ok := it.Next(); ok; row, ok = it.Next() {
			if !yield(row) {
				return
			}
		}
	}
}

// chunks splits [1, rows] into contiguous RID ranges for workers.
func (t *Table[T, P]) chunks(workers int) [][2]uint32 {
	if t.rows == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// Several chunks per worker so fast workers pick up slack from slow ones.
	size := max(uint32(minChunk), t.rows/uint32(workers*4)+1)
	var out [][2]uint32
	for start := uint32(1); start <= t.rows; start += size {
		out = append(out, [2]uint32{start, min(start+size-1, t.rows)})
	}
	return out
}

// TryForEach calls fn for every row across up to workers goroutines (0 means
// GOMAXPROCS). The first error from decoding or fn is kept and returned after
// every chunk has finished; other chunks are not cancelled.
func (t *Table[T, P]) TryForEach(workers int, fn func(P) error) error {
	var (
		mu       sync.Mutex
		firstErr error
	)
	record := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	} else {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}
	for _, c := range t.chunks(workers) {
		g.Go(func() error {
			for rid := c[0]; rid <= c[1]; rid++ {
				row, err := t.Get(rid)
				if err == nil {
					err = fn(row)
				}
				if err != nil {
					record(err)
					return nil
				}
			}
			return nil
		})
	}
	_ = g.Wait()
	return firstErr
}

// ParallelForEach calls fn for every row that decodes, across goroutines.
// Rows that fail to decode are skipped.
func (t *Table[T, P]) ParallelForEach(workers int, fn func(P)) {
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	} else {
		g.SetLimit(runtime.GOMAXPROCS(0))
	}
	for _, c := range t.chunks(workers) {
		g.Go(func() error {
			for rid := c[0]; rid <= c[1]; rid++ {
				if row, err := t.Get(rid); err == nil {
					fn(row)
				}
			}
			return nil
		})
	}
	_ = g.Wait()
}
