package cilmeta

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/internal/logging"
	"github.com/wippyai/cilmeta/resolve"
	"github.com/wippyai/cilmeta/writer"
)

// Open parses a metadata root and resolves its rows.
func Open(ctx context.Context, data []byte, opts resolve.Options) (*assembly.Assembly, *resolve.Result, error) {
	asm, err := assembly.Load(data)
	if err != nil {
		return nil, nil, err
	}
	res, err := asm.Resolve(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return asm, res, nil
}

// EditFunc records edits through a BuilderContext.
type EditFunc func(*assembly.BuilderContext) error

// Rewrite loads data, applies edit and writes the result. An edit error
// discards the session and nothing is written.
func Rewrite(ctx context.Context, data []byte, opts writer.Options, edit EditFunc) (*writer.Output, error) {
	asm, err := assembly.Load(data)
	if err != nil {
		return nil, err
	}
	if edit != nil {
		if err := edit(assembly.NewBuilderContext(asm)); err != nil {
			asm.Discard()
			return nil, err
		}
	}
	return writer.Write(ctx, asm, opts)
}

// SetLogger routes the debug output of every package through l. A nil
// logger silences them again.
func SetLogger(l *zap.Logger) {
	logging.Set(l)
}
