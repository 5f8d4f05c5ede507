// Package changes records pending edits to a metadata snapshot.
//
// Table edits are kept per table as a timestamp-ordered log of Insert,
// Update and Delete operations (TableModifications) or as a full row
// replacement. Heap edits are kept per heap as appended entries with their
// promised indexes, in-place modifications, removals and an optional full
// replacement (HeapChanges). AssemblyChanges groups both for one session.
//
// Nothing in this package touches bytes; the writer consumes these records
// when it plans and builds the output streams.
package changes
