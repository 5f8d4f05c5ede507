package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseResolve,
				Kind:   KindMalformed,
				Table:  "ClassLayout",
				Field:  "PackingSize",
				Token:  0x0F000001,
				Detail: "packing size 3 is not a power of two",
			},
			contains: []string{"[resolve]", "malformed", "ClassLayout.PackingSize", "0x0f000001", "power of two"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRead,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[read]", "out_of_bounds"},
		},
		{
			name: "field only",
			err: &Error{
				Phase: PhaseModify,
				Kind:  KindInvalidOperation,
				Field: "parent",
			},
			contains: []string{"[modify]", "invalid_operation at parent"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBuild,
				Kind:   KindWriteLayoutFailed,
				Detail: "heap size mismatch",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[build]", "write_layout_failed", "heap size mismatch", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_NoTokenWhenZero(t *testing.T) {
	err := &Error{Phase: PhasePlan, Kind: KindMalformed}
	if strings.Contains(err.Error(), "token") {
		t.Errorf("zero token should not be rendered: %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseRead,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseResolve,
		Kind:  KindMalformed,
		Field: "Parent",
	}

	if !err.Is(&Error{Phase: PhaseResolve, Kind: KindMalformed}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhasePlan, Kind: KindMalformed}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseResolve, Kind: KindOverflow}) {
		t.Error("Is should not match different kind")
	}

	var target *Error
	if !errors.As(error(err), &target) || target.Field != "Parent" {
		t.Error("errors.As should recover *Error")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseModify, KindInvalidOperation).
		Table("TypeDef").
		Field("name").
		Token(0x02000005).
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "int").
		Build()

	if err.Phase != PhaseModify {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseModify)
	}
	if err.Kind != KindInvalidOperation {
		t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidOperation)
	}
	if err.Table != "TypeDef" || err.Field != "name" {
		t.Errorf("Table.Field = %s.%s, want TypeDef.name", err.Table, err.Field)
	}
	if err.Token != 0x02000005 {
		t.Errorf("Token = 0x%08x, want 0x02000005", err.Token)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got int" {
		t.Errorf("Detail = %v, want 'expected string, got int'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("Malformed", func(t *testing.T) {
		err := Malformed(0x02000001, "Extends", "unresolved")
		if err.Kind != KindMalformed || err.Phase != PhaseResolve {
			t.Errorf("got %s/%s, want resolve/malformed", err.Phase, err.Kind)
		}
		if err.Token != 0x02000001 {
			t.Errorf("Token = 0x%08x", err.Token)
		}
	})

	t.Run("MalformedIn", func(t *testing.T) {
		err := MalformedIn(PhasePlan, 1, "f", "d")
		if err.Phase != PhasePlan || err.Kind != KindMalformed {
			t.Errorf("got %s/%s, want plan/malformed", err.Phase, err.Kind)
		}
	})

	t.Run("FieldMissing", func(t *testing.T) {
		err := FieldMissing("ClassLayout", "packing_size")
		if err.Kind != KindInvalidOperation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidOperation)
		}
		if !strings.Contains(err.Error(), "packing_size") {
			t.Errorf("message should name the field: %q", err.Error())
		}
	})

	t.Run("WriteLayoutFailed", func(t *testing.T) {
		err := WriteLayoutFailed(PhaseLayout, "stream offset", nil)
		if err.Kind != KindWriteLayoutFailed || err.Phase != PhaseLayout {
			t.Errorf("got %s/%s", err.Phase, err.Kind)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseBuild, "Parent", 70000, 2)
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
		if err.Value != 70000 {
			t.Errorf("Value = %v, want 70000", err.Value)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseRead, "rid", 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("Conflict", func(t *testing.T) {
		err := Conflict("Field", 0x04000002, "rejected")
		if err.Kind != KindConflict {
			t.Errorf("Kind = %v, want %v", err.Kind, KindConflict)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseModify, "assembly ref", "mscorlib")
		if !strings.Contains(err.Detail, "mscorlib") {
			t.Errorf("Detail = %q", err.Detail)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseRead, "table 0x2d")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("eof")
		err := Wrap(PhaseRead, KindInvalidData, cause, "stream header")
		if !errors.Is(err, cause) {
			t.Error("Wrap should keep cause reachable")
		}
	})
}
