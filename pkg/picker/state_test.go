package picker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	if err := SaveState(path, &State{DefaultUsername: "alice"}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	st, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if st.DefaultUsername != "alice" {
		t.Fatalf("DefaultUsername = %q, want alice", st.DefaultUsername)
	}
	if st.Version != 1 {
		t.Fatalf("Version = %d, want 1", st.Version)
	}
	if st.Updated == "" {
		t.Fatal("Updated not set on save")
	}
}

func TestLoadStateMissingFileIsEmptyState(t *testing.T) {
	st, err := LoadState(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if st.DefaultUsername != "" || st.Version != 1 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestLoadStateCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Fatal("corrupt state should error")
	}
}

func TestSaveStateLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	if err := SaveState(path, &State{DefaultUsername: "bob"}); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSaveStateOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := SaveState(path, &State{DefaultUsername: "first"}); err != nil {
		t.Fatal(err)
	}
	if err := SaveState(path, &State{DefaultUsername: "second"}); err != nil {
		t.Fatal(err)
	}
	st, err := LoadState(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.DefaultUsername != "second" {
		t.Fatalf("DefaultUsername = %q, want second", st.DefaultUsername)
	}
}
