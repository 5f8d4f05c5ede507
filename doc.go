// Package cilmeta reads, edits and rewrites ECMA-335 (.NET) metadata.
//
// A metadata root holds a tables stream (#~ or #-) and four heaps
// (#Strings, #Blob, #GUID, #US). cilmeta parses the root into raw rows,
// resolves the rows into linked entities, records edits in a change log
// without touching the source bytes, and serializes the edited image back
// with every index remapped.
//
// # Architecture Overview
//
// The library is organized into packages with distinct responsibilities:
//
//	cilmeta/             Root package with Open and Rewrite helpers
//	├── root/            Metadata root header and stream directory
//	├── tables/          Row codec, coded indexes, tables stream encode/decode
//	├── heaps/           Heap readers, entry encoders and heap builders
//	├── resolve/         Owned entities and the concurrent resolution registry
//	├── changes/         Change log: table operations, heap edits, RID maps
//	├── assembly/        Assembly state, BuilderContext and row builders
//	├── conflict/        Detection and resolution of competing operations
//	├── writer/          Plan, Build, Layout and Emit stages
//	├── config/          YAML configuration
//	├── errors/          Structured error types for debugging
//	└── cmd/cilmeta/     Command line tool
//
// # Quick Start
//
// Add a type and write the result:
//
//	out, err := cilmeta.Rewrite(ctx, data, writer.Options{},
//	    func(b *assembly.BuilderContext) error {
//	        _, err := assembly.NewTypeDefBuilder().
//	            Namespace("Sample").
//	            Name("Helper").
//	            Build(b)
//	        return err
//	    })
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("out.meta", out.Bytes, 0o644)
//
// # Edits
//
// Builders validate every required field before touching the assembly, so a
// failed Build leaves the change log as it was. Heap edits are recorded
// against the index they will occupy; removed entries are zeroed in place
// rather than compacted, keeping every other index stable. Deleted rows are
// compacted and every reference is rewritten through a RID map.
//
// # Thread Safety
//
// A resolved Registry is safe for concurrent reads. BuilderContext and
// Writer are single-writer and must not be shared between goroutines.
package cilmeta
