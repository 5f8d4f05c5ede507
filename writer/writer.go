package writer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/changes"
	"github.com/wippyai/cilmeta/conflict"
	"github.com/wippyai/cilmeta/errors"
	"github.com/wippyai/cilmeta/heaps"
	"github.com/wippyai/cilmeta/internal/logging"
	"github.com/wippyai/cilmeta/root"
	"github.com/wippyai/cilmeta/tables"
)

// DefaultVersion is the runtime version written when the source image has
// no metadata root.
const DefaultVersion = "v4.0.30319"

// Options configures a Writer.
type Options struct {
	// Resolver settles conflicting operations. When nil, ConflictStrategy
	// is looked up with conflict.ByName.
	Resolver         conflict.Resolver
	ConflictStrategy string

	// BaseRVA is added to stream offsets in the Layout.
	BaseRVA uint32

	// Workers bounds the goroutines remapping tables. Zero means GOMAXPROCS.
	Workers int

	// Metrics receives writer metrics. When nil, Registerer is used to
	// create them, or a private registry when both are nil.
	Metrics    *Metrics
	Registerer prometheus.Registerer

	// Version is the runtime version of a root created from loose streams.
	Version string
}

type stage uint8

const (
	stageNew stage = iota
	stagePlanned
	stageBuilt
	stageLaidOut
	stageEmitted
)

var stageNames = [...]string{"new", "plan", "build", "layout", "emit"}

func (s stage) String() string {
	return stageNames[s]
}

// Writer serializes one Assembly. It is single use.
type Writer struct {
	asm      *assembly.Assembly
	opts     Options
	resolver conflict.Resolver
	metrics  *Metrics
	log      *zap.Logger
	stage    stage

	// Plan
	ridMaps    map[tables.TableID]*changes.RIDMap
	info       *tables.TableInfo
	header     tables.Header
	trailer    []byte
	tablesSize int
	builders   heapBuilders
	heapSizes  map[string]uint64

	// Build
	tablesStream []byte
	heaps        map[string][]byte
	mappings     map[string]map[uint32]uint32
	rows         map[tables.TableID][]tables.Row

	// Layout
	root    *root.Root
	streams []root.Stream
	layout  *Layout
}

// New creates a writer for asm. Plan works on a copy of asm's pending log,
// so asm is never modified.
func New(asm *assembly.Assembly, opts Options) (*Writer, error) {
	if asm == nil {
		return nil, errors.WriteLayoutFailed(errors.PhasePlan, "nil assembly", nil)
	}
	resolver := opts.Resolver
	if resolver == nil {
		var err error
		if resolver, err = conflict.ByName(opts.ConflictStrategy); err != nil {
			return nil, err
		}
	}
	metrics := opts.Metrics
	if metrics == nil {
		reg := opts.Registerer
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		metrics = NewMetrics(reg)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Version == "" {
		opts.Version = DefaultVersion
	}
	return &Writer{
		asm:      asm,
		opts:     opts,
		resolver: resolver,
		metrics:  metrics,
		log:      logging.Named("writer"),
	}, nil
}

// advance moves the machine from want to the next stage.
func (w *Writer) advance(want stage, name string, phase errors.Phase) error {
	if w.stage != want {
		return errors.WriteLayoutFailed(phase,
			fmt.Sprintf("%s called in stage %s, expected %s", name, w.stage, want), nil)
	}
	w.stage = want + 1
	return nil
}

// Write runs Plan, Build, Layout and Emit.
func Write(ctx context.Context, asm *assembly.Assembly, opts Options) (*Output, error) {
	w, err := New(asm, opts)
	if err != nil {
		return nil, err
	}
	if err := w.Plan(ctx); err != nil {
		return nil, err
	}
	if err := w.Build(ctx); err != nil {
		return nil, err
	}
	if _, err := w.Layout(); err != nil {
		return nil, err
	}
	return w.Emit()
}

// Output is everything a write produced.
type Output struct {
	Tables      []byte
	TablesName  string
	Strings     []byte
	Blob        []byte
	GUID        []byte
	UserStrings []byte

	// Streams in root order, including streams passed through unchanged.
	Streams []root.Stream

	// Mappings holds old→new heap indexes keyed by heap stream name.
	Mappings map[string]map[uint32]uint32
	// RIDMaps holds the RID translation of every known table.
	RIDMaps map[tables.TableID]*changes.RIDMap

	Layout *Layout
	// Bytes is the complete metadata root.
	Bytes []byte
}

// Stream returns the named stream as written.
func (o *Output) Stream(name string) ([]byte, bool) {
	for _, s := range o.Streams {
		if s.Name == name {
			return s.Data, true
		}
	}
	return nil, false
}

// MapHeapIndex translates a heap index of the source into the output.
func (o *Output) MapHeapIndex(heap string, index uint32) uint32 {
	if n, ok := o.Mappings[heap][index]; ok {
		return n
	}
	return index
}

// MapToken translates a source token into the output. ok is false when the
// row was deleted.
func (o *Output) MapToken(tok tables.Token) (tables.Token, bool) {
	m, ok := o.RIDMaps[tok.Table()]
	if !ok {
		return tok, true
	}
	rid, ok := m.Map(tok.RID())
	if !ok {
		return 0, false
	}
	return tables.NewToken(tok.Table(), rid), true
}

type heapBuilders struct {
	strings     *heaps.StringBuilder
	blob        *heaps.BlobBuilder
	guid        *heaps.GUIDBuilder
	userStrings *heaps.UserStringBuilder
}

func (b heapBuilders) all() []heaps.Builder {
	return []heaps.Builder{b.strings, b.blob, b.guid, b.userStrings}
}
