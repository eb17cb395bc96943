package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brawer/cadaref-zurich/internal/config"
)

func TestMutationLog(t *testing.T) {
	date := time.Date(1984, 7, 21, 0, 0, 0, 0, time.UTC)
	log := &mutationLog{id: "20009", date: &date}
	log.printf("num_symbols: %d", 7)
	log.status(StatusCouldNotMatch)

	text := string(log.bytes())
	for _, want := range []string{
		"MutationID: 20009\n",
		"MutationDate: 1984-07-21\n",
		"num_symbols: 7\n",
		"Status: CouldNotMatch\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("log is missing %q:\n%s", want, text)
		}
	}
}

func TestStatusFromLog(t *testing.T) {
	log := &mutationLog{id: "HG3099"}
	log.printf("bounds: none")
	log.status(StatusBoundsNotFound)
	s, ok := statusFromLog(log.bytes())
	if !ok || s != StatusBoundsNotFound {
		t.Errorf("got (%q, %v), want (%q, true)", s, ok, StatusBoundsNotFound)
	}

	if s, ok := statusFromLog([]byte("MutationID: HG3099\n")); ok {
		t.Errorf("got (%q, true) for a log without a status line", s)
	}
}

// A rerun must report a previously processed mutation with the status
// its log recorded, not blanket it as OK.
func TestProcessMutationResume(t *testing.T) {
	dir := t.TempDir()
	log := &mutationLog{id: "WD555"}
	log.status(StatusCouldNotMatch)
	logPath := filepath.Join(dir, "logs", "WD555.txt")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(logPath, log.bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New(&config.Config{Paths: config.PathsConfig{Workdir: dir}}, nil)
	got := p.processMutation(&mutationJob{ID: "WD555"})
	if got.Status != StatusCouldNotMatch {
		t.Errorf("got status %q, want %q", got.Status, StatusCouldNotMatch)
	}
	if got.Mutation != "WD555" {
		t.Errorf("got mutation %q, want WD555", got.Mutation)
	}
}
