package binary

import "testing"

func FuzzDecodeCompressed(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0x80, 0x80})
	f.Add([]byte{0xC0, 0x00, 0x40, 0x00})
	f.Add([]byte{0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		v, n, err := DecodeCompressed(data)
		if err != nil {
			return
		}
		enc, err := AppendCompressed(nil, v)
		if err != nil {
			t.Fatalf("decoded value 0x%x does not re-encode: %v", v, err)
		}
		// Non-canonical encodings decode fine but re-encode shorter.
		if len(enc) > n {
			t.Fatalf("re-encoding of 0x%x grew from %d to %d bytes", v, n, len(enc))
		}
		v2, _, err := DecodeCompressed(enc)
		if err != nil || v2 != v {
			t.Fatalf("round trip 0x%x: got 0x%x, %v", v, v2, err)
		}
	})
}
