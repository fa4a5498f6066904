package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) {
		got = fmt.Sprintf(format, v...)
	})
	Logf("bins=%d", 10)

	if got != "bins=10" {
		t.Errorf("custom logger got %q, want %q", got, "bins=10")
	}

	// nil installs a no-op; the previous logger must not see further calls
	got = ""
	SetLogger(nil)
	Logf("muted")
	if got != "" {
		t.Errorf("no-op logger should not have triggered callback, got %q", got)
	}
}

func TestDebugf(t *testing.T) {
	original := Logf
	defer func() {
		Logf = original
		SetDebug(false)
	}()

	calls := 0
	SetLogger(func(string, ...interface{}) { calls++ })

	Debugf("hidden")
	if calls != 0 {
		t.Fatalf("Debugf logged with debug disabled (%d calls)", calls)
	}

	SetDebug(true)
	Debugf("module %d", 1)
	if calls != 1 {
		t.Errorf("Debugf with debug enabled: %d calls, want 1", calls)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}
}
