// Package heaps reads and rebuilds the four metadata heaps.
//
// Readers (Strings, Blob, GUID, UserStrings) give indexed access to the
// heap bytes of a loaded image. Builders reconstruct a heap from its source
// bytes and a changes.HeapChanges record:
//
//  1. start from the source bytes, a full replacement, or an empty heap
//  2. zero-fill removed entries in place
//  3. overwrite modified entries in place when they fit, otherwise zero the
//     old span and append the new entry
//  4. append new entries
//  5. pad to a 4-byte boundary with zeros
//
// Entries that keep their offset need no reference rewriting. Every entry
// that moved, and every fresh append, is reported by IndexMappings.
//
// A builder is single-use and must stay on one goroutine. Distinct builders
// share no state and may run concurrently.
package heaps
