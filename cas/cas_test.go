package cas

import (
	"encoding/hex"
	"testing"
	"time"
)

func TestNowMs(t *testing.T) {
	before := time.Now().UnixMilli()
	got := NowMs()
	after := time.Now().UnixMilli()

	if got < before || got > after {
		t.Errorf("NowMs() = %d, want between %d and %d", got, before, after)
	}
}

func TestCanonicalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"sorted keys", map[string]interface{}{"b": 1, "a": 2}, `{"a":2,"b":1}`},
		{"nested", map[string]interface{}{"z": map[string]interface{}{"y": 1, "x": 2}, "a": "s"}, `{"a":"s","z":{"x":2,"y":1}}`},
		{"array order kept", []interface{}{3, 1, 2}, `[3,1,2]`},
		{"large integer", map[string]interface{}{"ts": int64(1700000000123)}, `{"ts":1700000000123}`},
		{"string", "hi", `"hi"`},
		{"null", nil, `null`},
		{"empty object", map[string]interface{}{}, `{}`},
		{"struct tags", struct {
			Path string `json:"path"`
			Age  int    `json:"age"`
		}{"a.ts", 3}, `{"age":3,"path":"a.ts"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalJSON(tt.input)
			if err != nil {
				t.Fatalf("CanonicalJSON failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCanonicalJSON_Unsupported(t *testing.T) {
	if _, err := CanonicalJSON(make(chan int)); err == nil {
		t.Error("expected error for a channel")
	}
}

func TestBlake3Hash(t *testing.T) {
	a := Blake3Hash([]byte("hello"))
	if len(a) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(a))
	}
	if string(a) != string(Blake3Hash([]byte("hello"))) {
		t.Error("hash is not deterministic")
	}
	if string(a) == string(Blake3Hash([]byte("world"))) {
		t.Error("different inputs produced the same hash")
	}

	// Known BLAKE3 digest of the empty input.
	const empty = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
	if got := Blake3HashHex(nil); got != empty {
		t.Errorf("Blake3HashHex(nil) = %s, want %s", got, empty)
	}
	if Blake3HashHex([]byte("hello")) != hex.EncodeToString(a) {
		t.Error("hex form does not match raw digest")
	}
}

func TestObjectID(t *testing.T) {
	payload := map[string]interface{}{"path": "lib.rs", "notation": "function-unit"}

	id, err := ObjectID("entry", payload)
	if err != nil {
		t.Fatalf("ObjectID failed: %v", err)
	}
	if len(id) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(id))
	}

	reordered := map[string]interface{}{"notation": "function-unit", "path": "lib.rs"}
	id2, _ := ObjectID("entry", reordered)
	if id != id2 {
		t.Error("key order changed the object ID")
	}

	other, _ := ObjectID("blob", payload)
	if id == other {
		t.Error("different kinds produced the same ID")
	}
}
