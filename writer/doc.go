// Package writer serializes an assembly.Assembly, with its pending edits, back
// into a metadata root.
//
// # Stages
//
// A Writer is a strict stage machine. Each stage runs once, in order:
//
//	Plan    resolve conflicts, apply heap reference handling, validate
//	        pending rows, compute RID maps, heap sizes and index widths
//	Build   rebuild the heaps concurrently, remap every heap index and RID,
//	        encode the tables stream with the widths fixed by Plan
//	Layout  place the streams in the metadata root and compute their RVAs
//	Emit    write the metadata root
//
// Calling a stage out of order, or twice, fails with KindWriteLayoutFailed.
// Write runs all four.
//
// # Index widths
//
// Plan fixes the TableInfo used by Build. Heap and table widths are derived
// from the final sizes, but a heap that was already large in the source keeps
// 4-byte indexes so an unmodified image round-trips byte for byte.
//
// # References to removed rows
//
// Table and coded columns that point at a deleted row are written as 0 and
// logged. List columns (FieldList, MethodList, ...) move to the first
// surviving row of their run.
package writer
