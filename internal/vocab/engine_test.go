package vocab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmptyPathPassesThrough(t *testing.T) {
	t.Parallel()

	engine, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := engine.Apply("anything at all"); got != "anything at all" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestLoadMissingFilePassesThrough(t *testing.T) {
	t.Parallel()

	engine, err := Load(filepath.Join(t.TempDir(), "missing.vocab"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got := engine.Apply("unchanged"); got != "unchanged" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestApplySubstitutions(t *testing.T) {
	t.Parallel()

	path := writeVocab(t, strings.Join([]string{
		"# lecture corrections",
		"",
		"mightycondria => mitochondria",
		"crisper => CRISPR",
	}, "\n"))

	engine, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	got := engine.Apply("The Mightycondria uses crisper techniques.")
	want := "The mitochondria uses CRISPR techniques."
	if got != want {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestLoadRejectsMalformedLine(t *testing.T) {
	t.Parallel()

	path := writeVocab(t, "this line has no arrow\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	} else if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("error should name the line: %v", err)
	}
}

func TestLoadRejectsEmptySource(t *testing.T) {
	t.Parallel()

	path := writeVocab(t, " => something\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected empty source error")
	}
}

func writeVocab(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subs.vocab")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	return path
}
