package cilmeta

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/cilmeta/assembly"
	"github.com/wippyai/cilmeta/internal/testimage"
	"github.com/wippyai/cilmeta/resolve"
	"github.com/wippyai/cilmeta/tables"
	"github.com/wippyai/cilmeta/writer"
)

func TestOpen(t *testing.T) {
	asm, res, err := Open(context.Background(), testimage.Sample().MustBytes(), resolve.Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := asm.RowCount(tables.TypeDef); got != 3 {
		t.Errorf("TypeDef rows: got %d, want 3", got)
	}
	if _, ok := res.Registry.FindTypeDef("Sample", "Widget"); !ok {
		t.Error("Sample.Widget not resolved")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	if _, _, err := Open(context.Background(), []byte("garbage"), resolve.Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestRewrite(t *testing.T) {
	ctx := context.Background()
	data := testimage.Sample().MustBytes()

	out, err := Rewrite(ctx, data, writer.Options{}, nil)
	if err != nil {
		t.Fatalf("Rewrite: %v", err)
	}
	if !bytes.Equal(out.Bytes, data) {
		t.Error("rewrite without edits changed the image")
	}

	out, err = Rewrite(ctx, data, writer.Options{}, func(b *assembly.BuilderContext) error {
		_, err := assembly.NewTypeDefBuilder().Namespace("Sample").Name("Helper").Build(b)
		return err
	})
	if err != nil {
		t.Fatalf("Rewrite with edit: %v", err)
	}
	_, res, err := Open(ctx, out.Bytes, resolve.Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, ok := res.Registry.FindTypeDef("Sample", "Helper"); !ok {
		t.Error("Sample.Helper missing after rewrite")
	}
}

func TestRewriteEditError(t *testing.T) {
	want := errors.New("stop")
	_, err := Rewrite(context.Background(), testimage.Sample().MustBytes(), writer.Options{},
		func(*assembly.BuilderContext) error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("got %v, want %v", err, want)
	}
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	if _, _, err := Open(context.Background(), testimage.Sample().MustBytes(), resolve.Options{}); err != nil {
		t.Fatalf("Open: %v", err)
	}
	loaded := logs.FilterMessage("metadata loaded").All()
	if len(loaded) != 1 {
		t.Fatalf("metadata loaded entries: got %d, want 1", len(loaded))
	}
	if loaded[0].LoggerName != "resolve" {
		t.Errorf("logger name: got %q, want resolve", loaded[0].LoggerName)
	}
}
