package testutil

import (
	"bytes"
	"log"
	"testing"

	"github.com/banshee-data/trackml.viz/internal/monitoring"
)

func TestNewEventFS(t *testing.T) {
	mfs := NewEventFS()

	want := []string{
		DetectorsPath,
		EventPrefix + "-hits.csv",
		EventPrefix + "-particles.csv",
		EventPrefix + "-truth.csv",
	}
	got := mfs.Files()
	if len(got) != len(want) {
		t.Fatalf("Files() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Files()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	data, err := mfs.ReadFile(EventPrefix + "-hits.csv")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != HitsCSV {
		t.Error("hits file does not hold HitsCSV")
	}
}

func TestQuietLogs(t *testing.T) {
	var buf bytes.Buffer
	monitoring.SetLogger(func(format string, v ...interface{}) { buf.WriteString(format) })
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })

	t.Run("muted", func(t *testing.T) {
		QuietLogs(t)
		monitoring.Logf("hidden")
	})
	if buf.Len() != 0 {
		t.Errorf("muted logger wrote %q", buf.String())
	}

	monitoring.Logf("visible")
	if buf.String() != "visible" {
		t.Errorf("logger not restored: %q", buf.String())
	}
}
