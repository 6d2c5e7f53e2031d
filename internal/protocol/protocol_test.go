package protocol

import "testing"

func TestDecodeBase(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"REQUEST","protocol_version":"0.4","id":3}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.Type != TypeRequest || m.ProtocolVersion != Version {
		t.Fatalf("base = %+v", m)
	}

	if _, err := DecodeBase([]byte(`{`)); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{"", ErrProtoBadRequest, ErrBadRequest, ErrInvalidTarget, ErrConflict} {
		if !IsKnownCode(code) {
			t.Fatalf("IsKnownCode(%q) = false", code)
		}
	}
	if IsKnownCode("E_TEAPOT") {
		t.Fatal(`IsKnownCode("E_TEAPOT") = true`)
	}
}
