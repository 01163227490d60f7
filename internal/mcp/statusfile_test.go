package mcp

import (
	"testing"
)

func TestStatusFile_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, ok := ReadStatus(); ok {
		t.Fatal("ReadStatus should miss before any write")
	}

	want := Status{
		Enabled:       true,
		Port:          3333,
		URL:           "http://localhost:3333/mcp",
		TargetBaseURL: "http://localhost:3000",
	}
	if err := WriteStatus(want); err != nil {
		t.Fatalf("WriteStatus: %v", err)
	}

	got, ok := ReadStatus()
	if !ok {
		t.Fatal("ReadStatus miss after write")
	}
	if got.Port != want.Port || got.URL != want.URL || got.TargetBaseURL != want.TargetBaseURL || !got.Enabled {
		t.Errorf("ReadStatus() = %+v, want %+v", got, want)
	}
	if got.LastUpdated == "" {
		t.Error("LastUpdated should be stamped on write")
	}

	// A second write with the same content is fine and refreshes the stamp.
	if err := WriteStatus(want); err != nil {
		t.Fatalf("second WriteStatus: %v", err)
	}
	if _, ok := ReadStatus(); !ok {
		t.Fatal("ReadStatus miss after rewrite")
	}
}

func TestPortHint(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if hint := PortHint(); hint != "" {
		t.Errorf("PortHint with no file = %q, want empty", hint)
	}

	WriteStatus(Status{Enabled: true, Port: 4000})
	if hint := PortHint(); hint != "4000" {
		t.Errorf("PortHint = %q, want 4000", hint)
	}

	// The REST target wins over the bridge's own endpoint.
	WriteStatus(Status{
		Enabled:       true,
		Port:          3333,
		URL:           "http://localhost:3333/mcp",
		TargetBaseURL: "http://localhost:3000",
	})
	if hint := PortHint(); hint != "http://localhost:3000" {
		t.Errorf("PortHint = %q, want target base URL", hint)
	}

	// A bridge URL without a target means the port is the bridge's, not the
	// app's, so there is no usable hint.
	WriteStatus(Status{Enabled: true, Port: 3333, URL: "http://localhost:3333/mcp"})
	if hint := PortHint(); hint != "" {
		t.Errorf("PortHint = %q, want empty when only the bridge endpoint is known", hint)
	}

	// A disabled bridge gives no hint.
	WriteStatus(Status{Enabled: false, Port: 4000})
	if hint := PortHint(); hint != "" {
		t.Errorf("PortHint for disabled bridge = %q, want empty", hint)
	}
}
