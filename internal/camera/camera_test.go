package camera

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
)

func TestCandidateIndices(t *testing.T) {
	tests := []struct {
		preferred int
		want      []int
	}{
		{0, []int{0, 1, 2}},
		{1, []int{1, 0, 2}},
		{2, []int{2, 0, 1}},
		{5, []int{5, 0, 1, 2}},
	}

	for _, tt := range tests {
		got := candidateIndices(tt.preferred)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("candidateIndices(%d) = %v, want %v", tt.preferred, got, tt.want)
		}
	}
}

func TestReleaseIdempotent(t *testing.T) {
	// A device that never opened a capture; Release must be a no-op both times.
	d := &Device{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	if err := d.Release(); err != nil {
		t.Fatalf("first Release failed: %v", err)
	}
	if err := d.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
}

func TestReadAfterRelease(t *testing.T) {
	d := &Device{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	if err := d.Release(); err != nil {
		t.Fatal(err)
	}

	if err := d.Read(nil); err != ErrReleased {
		t.Errorf("Read after Release = %v, want ErrReleased", err)
	}
}
