package resolve

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/internal/logging"
	"github.com/wippyai/cilmeta/tables"
)

// Options configures Load.
type Options struct {
	// SkipMalformed collects per-row failures into Result.Errors instead of
	// aborting on the first one.
	SkipMalformed bool
	// Workers bounds per-table parallelism. Zero means GOMAXPROCS.
	Workers int
}

// Result is the outcome of a load.
type Result struct {
	Registry *Registry
	Errors   []error
}

type loader struct {
	ctx  context.Context
	ts   *tables.Tables
	hs   *heaps.Set
	reg  *Registry
	opts Options

	mu   sync.Mutex
	errs []error
}

// Load builds owned entities for every row of ts in two passes. Pass 1
// converts each row, skipping references into the row's own table. Pass 2
// fills those references and then applies the decorating tables
// (ClassLayout, NestedClass, Constant, ...) to their targets.
func Load(ctx context.Context, ts *tables.Tables, hs *heaps.Set, opts Options) (*Result, error) {
	if hs == nil {
		hs = heaps.NewSet(nil, nil, nil, nil)
	}
	l := &loader{ctx: ctx, ts: ts, hs: hs, reg: NewRegistry(), opts: opts}

	steps := []func() error{
		// pass 1
		func() error { return run(l, l.module) },
		func() error { return run(l, l.moduleRef) },
		func() error { return run(l, l.assemblyRef) },
		func() error { return run(l, l.assembly) },
		func() error { return run(l, l.file) },
		func() error { return run(l, l.typeSpec) },
		func() error { return run(l, l.standAloneSig) },
		func() error { return run(l, l.typeRef) },
		func() error { return run(l, l.param) },
		func() error { return run(l, l.field) },
		func() error { return run(l, l.methodDef) },
		func() error { return run(l, l.typeDef) },
		func() error { return run(l, l.memberRef) },
		func() error { return run(l, l.property) },
		func() error { return run(l, l.event) },
		func() error { return run(l, l.exportedType) },
		func() error { return run(l, l.manifestResource) },
		func() error { return run(l, l.genericParam) },
		func() error { return run(l, l.methodSpec) },

		// pass 2: intra-table references
		func() error { return run(l, l.typeRefScope) },
		func() error { return run(l, l.typeDefExtends) },
		func() error { return run(l, l.exportedTypeImplementation) },

		// pass 2: apply
		func() error { return run(l, l.classLayout) },
		func() error { return run(l, l.fieldLayout) },
		func() error { return run(l, l.fieldRVA) },
		func() error { return run(l, l.nestedClass) },
		func() error { return run(l, l.interfaceImpl) },
		func() error { return run(l, l.declSecurity) },
		func() error { return run(l, l.constant) },
		func() error { return run(l, l.fieldMarshal) },
		func() error { return run(l, l.genericParamConstraint) },
		func() error { return run(l, l.assemblyOS) },
		func() error { return run(l, l.assemblyProcessor) },
		func() error { return run(l, l.assemblyRefOS) },
		func() error { return run(l, l.assemblyRefProcessor) },
		func() error { return run(l, l.eventMap) },
		func() error { return run(l, l.propertyMap) },
		func() error { return run(l, l.methodSemantics) },
		func() error { return run(l, l.methodImpl) },
		func() error { return run(l, l.implMap) },
		func() error { return run(l, l.customAttribute) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}

	logging.Named("resolve").Debug("metadata loaded",
		zap.Int("typedefs", l.reg.TypeDefs.Len()),
		zap.Int("methods", l.reg.Methods.Len()),
		zap.Int("errors", len(l.errs)))

	return &Result{Registry: l.reg, Errors: l.errs}, nil
}

func run[T any, P tables.RowPtr[T]](l *loader, fn func(P) error) error {
	if err := l.ctx.Err(); err != nil {
		return err
	}
	t := tables.TableOf[T, P](l.ts)
	if t.Len() == 0 {
		return nil
	}
	return t.TryForEach(l.opts.Workers, func(r P) error {
		return l.check(fn(r))
	})
}

// check routes a per-row failure: collected when skipping, returned otherwise.
func (l *loader) check(err error) error {
	if err == nil || !l.opts.SkipMalformed {
		return err
	}
	logging.Named("resolve").Warn("skipping malformed row", zap.Error(err))
	l.mu.Lock()
	l.errs = append(l.errs, err)
	l.mu.Unlock()
	return nil
}

func malformed(tok tables.Token, field, format string, args ...any) error {
	return errors.New(errors.PhaseResolve, errors.KindMalformed).
		Table(tok.Table().String()).
		Field(field).
		Token(uint32(tok)).
		Detail(format, args...).
		Build()
}

func heapFailure(tok tables.Token, field string, cause error) error {
	return errors.New(errors.PhaseResolve, errors.KindMalformed).
		Table(tok.Table().String()).
		Field(field).
		Token(uint32(tok)).
		Detail("heap lookup failed").
		Cause(cause).
		Build()
}

func (l *loader) str(tok tables.Token, field string, idx uint32) (string, error) {
	s, err := l.hs.Strings.Get(idx)
	if err != nil {
		return "", heapFailure(tok, field, err)
	}
	return s, nil
}

func (l *loader) blob(tok tables.Token, field string, idx uint32) ([]byte, error) {
	b, err := l.hs.Blob.Get(idx)
	if err != nil {
		return nil, heapFailure(tok, field, err)
	}
	return bytes.Clone(b), nil
}

func (l *loader) guid(tok tables.Token, field string, idx uint32) (uuid.UUID, error) {
	g, err := l.hs.GUID.Get(idx)
	if err != nil {
		return uuid.Nil, heapFailure(tok, field, err)
	}
	return g, nil
}

// ref resolves target to an owned entity. Null targets yield nil. Rows of
// tables without an owned form resolve to a RowRef when they exist.
func (l *loader) ref(tok tables.Token, field string, target tables.Token) (Entity, error) {
	if target.IsNull() {
		return nil, nil
	}
	if e, ok := l.reg.Lookup(target); ok {
		return e, nil
	}
	if !owned(target.Table()) && target.RID() <= l.ts.RowCount(target.Table()) {
		return &RowRef{entity: entity{token: target}}, nil
	}
	return nil, malformed(tok, field, "unresolved reference %s", target)
}

// need is ref for references that may not be null.
func (l *loader) need(tok tables.Token, field string, target tables.Token) (Entity, error) {
	if target.IsNull() {
		return nil, malformed(tok, field, "null reference")
	}
	return l.ref(tok, field, target)
}

func owned(id tables.TableID) bool {
	switch id {
	case tables.FieldPtr, tables.MethodPtr, tables.ParamPtr, tables.EventPtr, tables.PropertyPtr,
		tables.EncLog, tables.EncMap, tables.Constant, tables.FieldMarshal, tables.ClassLayout,
		tables.FieldLayout, tables.EventMap, tables.PropertyMap, tables.FieldRVA,
		tables.AssemblyProcessor, tables.AssemblyOS, tables.AssemblyRefProcessor,
		tables.AssemblyRefOS, tables.NestedClass:
		return false
	}
	return id.Known() && id < tables.Document
}

func lookupAs[T Entity](s *Store[T], tok tables.Token, field string, target tables.Token) (T, error) {
	v, ok := s.Get(target)
	if !ok {
		var zero T
		if target.IsNull() {
			return zero, malformed(tok, field, "null reference")
		}
		return zero, malformed(tok, field, "unresolved reference %s", target)
	}
	return v, nil
}

func setOnce[T any](c *Once[T], v T, tok tables.Token, field string) error {
	if !c.Set(v) {
		return malformed(tok, field, "%s already set", field)
	}
	return nil
}

// listRange returns the RIDs [start, end) owned by the row at rid, where
// the run ends at the next row's start or past the last row of the target.
func listRange(tok tables.Token, field string, start, next, count uint32) (uint32, uint32, error) {
	if start == 0 || start > count {
		return 0, 0, nil
	}
	end := count + 1
	if next != 0 && next < end {
		end = next
	}
	if end < start {
		return 0, 0, malformed(tok, field, "list start %d exceeds next row's start %d", start, end)
	}
	return start, end, nil
}

// members resolves a list column through its Ptr table when one is present.
func members[T Entity](l *loader, s *Store[T], target, ptr tables.TableID,
	tok tables.Token, field string, start, next uint32) ([]T, error) {
	count := l.ts.RowCount(target)
	usePtr := l.ts.RowCount(ptr) > 0
	if usePtr {
		count = l.ts.RowCount(ptr)
	}
	from, to, err := listRange(tok, field, start, next, count)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, to-from)
	for i := from; i < to; i++ {
		rid := i
		if usePtr {
			if rid, err = l.indirect(ptr, i); err != nil {
				return nil, malformed(tok, field, "pointer row %d: %v", i, err)
			}
		}
		v, err := lookupAs(s, tok, field, tables.NewToken(target, rid))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *loader) indirect(ptr tables.TableID, i uint32) (uint32, error) {
	row, err := l.ts.Row(ptr, i)
	if err != nil {
		return 0, err
	}
	switch r := row.(type) {
	case *tables.FieldPtrRaw:
		return r.Field, nil
	case *tables.MethodPtrRaw:
		return r.Method, nil
	case *tables.ParamPtrRaw:
		return r.Param, nil
	case *tables.EventPtrRaw:
		return r.Event, nil
	case *tables.PropertyPtrRaw:
		return r.Property, nil
	}
	return 0, malformed(tables.NewToken(ptr, i), "", "not a pointer table")
}

// nextStart reads the list column of the row after rid, or 0 for the last row.
func nextStart[T any, P tables.RowPtr[T]](l *loader, rid uint32, col func(P) uint32) uint32 {
	t := tables.TableOf[T, P](l.ts)
	if rid >= t.Len() {
		return 0
	}
	r, err := t.Get(rid + 1)
	if err != nil {
		return 0
	}
	return col(r)
}
