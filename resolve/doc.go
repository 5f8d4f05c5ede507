// Package resolve turns raw metadata rows into owned entities linked by
// pointers.
//
// Load runs two passes over a parsed tables stream. The first converts every
// row on its own, leaving references that point back into the same table
// (a TypeDef extending a later TypeDef, a nested ExportedType, a TypeRef
// scoped to another TypeRef) for later. The second fills those references
// and then applies the decorating tables, such as ClassLayout and
// NestedClass, to the entities they describe.
//
// Decorations land in write-once cells (Once). A second write to the same
// cell means two rows claim one slot, which Load reports as a Malformed
// error carrying the offending row's token.
//
// Entities are indexed by token in a Registry backed by lock-free skip lists,
// so lookups need no locking even while a load is running.
package resolve
