// Package assembly holds a parsed metadata image together with the edits
// pending against it, and the BuilderContext used to record those edits.
//
// An Assembly never mutates its source streams. Row and heap edits are
// recorded in a changes.AssemblyChanges and only materialize when the
// writer package serializes the image.
//
// Typical use:
//
//	asm, err := assembly.Load(rootBytes)
//	ctx := assembly.NewBuilderContext(asm)
//	tok, err := assembly.NewTypeDefBuilder().
//		Name("Helper").
//		Namespace("Generated").
//		Build(ctx)
package assembly
