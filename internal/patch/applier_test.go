package patch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bugout-ai/bugout/model"
)

// writeTree creates a temp working tree with the given files.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dirs for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return root
}

func readTreeFile(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", name, err)
	}
	return string(data)
}

func TestApplyReplaceRange(t *testing.T) {
	root := writeTree(t, map[string]string{
		"main.go": "one\ntwo\nthree\nfour\nfive\n",
	})

	results := Apply(root, []model.ProposedEdit{
		{File: "main.go", Type: model.ReplaceRange, StartLine: 2, EndLine: 3, NewContent: "TWO\nTHREE"},
	})

	if len(results) != 1 || !results[0].Succeeded {
		t.Fatalf("Expected one successful result, got %+v", results)
	}
	got := readTreeFile(t, root, "main.go")
	want := "one\nTWO\nTHREE\nfour\nfive\n"
	if got != want {
		t.Errorf("Replace result mismatch:\ngot  %q\nwant %q", got, want)
	}
	if len(results[0].OldLines) != 2 || results[0].OldLines[0] != "two" {
		t.Errorf("Expected pre-image [two three], got %v", results[0].OldLines)
	}
}

func TestApplyInsert(t *testing.T) {
	t.Run("before a line", func(t *testing.T) {
		root := writeTree(t, map[string]string{"f.txt": "a\nb\n"})
		results := Apply(root, []model.ProposedEdit{
			{File: "f.txt", Type: model.Insert, StartLine: 2, NewContent: "x"},
		})
		if !results[0].Succeeded {
			t.Fatalf("Insert failed: %s", results[0].Error)
		}
		if got := readTreeFile(t, root, "f.txt"); got != "a\nx\nb\n" {
			t.Errorf("Insert mismatch: %q", got)
		}
	})

	t.Run("append at len+1", func(t *testing.T) {
		root := writeTree(t, map[string]string{"f.txt": "a\nb\n"})
		results := Apply(root, []model.ProposedEdit{
			{File: "f.txt", Type: model.Insert, StartLine: 3, NewContent: "c"},
		})
		if !results[0].Succeeded {
			t.Fatalf("Append failed: %s", results[0].Error)
		}
		if got := readTreeFile(t, root, "f.txt"); got != "a\nb\nc\n" {
			t.Errorf("Append mismatch: %q", got)
		}
	})

	t.Run("past the end fails", func(t *testing.T) {
		root := writeTree(t, map[string]string{"f.txt": "a\nb\n"})
		results := Apply(root, []model.ProposedEdit{
			{File: "f.txt", Type: model.Insert, StartLine: 5, NewContent: "z"},
		})
		if results[0].Succeeded {
			t.Fatal("Expected out-of-range insert to fail")
		}
		if !strings.Contains(results[0].Error, string(KindLineOutOfRange)) {
			t.Errorf("Expected line-out-of-range error, got %q", results[0].Error)
		}
	})
}

func TestApplyDeleteRange(t *testing.T) {
	root := writeTree(t, map[string]string{"f.txt": "a\nb\nc\nd\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "f.txt", Type: model.DeleteRange, StartLine: 2, EndLine: 3},
	})
	if !results[0].Succeeded {
		t.Fatalf("Delete-range failed: %s", results[0].Error)
	}
	if got := readTreeFile(t, root, "f.txt"); got != "a\nd\n" {
		t.Errorf("Delete-range mismatch: %q", got)
	}
}

func TestApplyCreateFile(t *testing.T) {
	t.Run("creates nested path", func(t *testing.T) {
		root := writeTree(t, nil)
		results := Apply(root, []model.ProposedEdit{
			{File: "pkg/new/file.go", Type: model.CreateFile, NewContent: "package new\n"},
		})
		if !results[0].Succeeded {
			t.Fatalf("Create failed: %s", results[0].Error)
		}
		if got := readTreeFile(t, root, "pkg/new/file.go"); got != "package new\n" {
			t.Errorf("Create content mismatch: %q", got)
		}
	})

	t.Run("existing file is left untouched", func(t *testing.T) {
		root := writeTree(t, map[string]string{"f.txt": "original\n"})
		results := Apply(root, []model.ProposedEdit{
			{File: "f.txt", Type: model.CreateFile, NewContent: "clobber"},
		})
		if results[0].Succeeded {
			t.Fatal("Expected create over existing file to fail")
		}
		if !strings.Contains(results[0].Error, string(KindAlreadyExists)) {
			t.Errorf("Expected already-exists error, got %q", results[0].Error)
		}
		if got := readTreeFile(t, root, "f.txt"); got != "original\n" {
			t.Errorf("Existing file was modified: %q", got)
		}
	})
}

func TestApplyDeleteFile(t *testing.T) {
	root := writeTree(t, map[string]string{"gone.txt": "a\nb\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "gone.txt", Type: model.DeleteFile},
		{File: "missing.txt", Type: model.DeleteFile},
	})

	if !results[0].Succeeded {
		t.Fatalf("Delete failed: %s", results[0].Error)
	}
	if _, err := os.Stat(filepath.Join(root, "gone.txt")); !os.IsNotExist(err) {
		t.Error("Deleted file still exists")
	}
	if len(results[0].OldLines) != 2 {
		t.Errorf("Expected full-file pre-image, got %v", results[0].OldLines)
	}

	if results[1].Succeeded {
		t.Fatal("Expected delete of missing file to fail")
	}
	if !strings.Contains(results[1].Error, string(KindNotFound)) {
		t.Errorf("Expected not-found error, got %q", results[1].Error)
	}
}

func TestApplyPathEscape(t *testing.T) {
	root := writeTree(t, nil)
	outside := filepath.Join(filepath.Dir(root), "escape-victim.txt")
	defer os.Remove(outside)

	results := Apply(root, []model.ProposedEdit{
		{File: "../escape-victim.txt", Type: model.CreateFile, NewContent: "nope"},
	})

	if results[0].Succeeded {
		t.Fatal("Expected path escape to fail")
	}
	if !strings.Contains(results[0].Error, string(KindPathEscape)) {
		t.Errorf("Expected path-escape error, got %q", results[0].Error)
	}
	if _, err := os.Stat(outside); !os.IsNotExist(err) {
		t.Error("File was created outside the working tree")
	}
}

func TestApplyFailureIsolation(t *testing.T) {
	root := writeTree(t, map[string]string{"f.txt": "a\nb\nc\n"})
	edits := []model.ProposedEdit{
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 1, EndLine: 1, NewContent: "A"},
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 90, EndLine: 99, NewContent: "nope"},
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 3, EndLine: 3, NewContent: "C"},
	}

	results := Apply(root, edits)

	if len(results) != len(edits) {
		t.Fatalf("Expected %d results, got %d", len(edits), len(results))
	}
	for i, res := range results {
		if res.Index != i {
			t.Errorf("Result %d carries index %d", i, res.Index)
		}
	}
	if !results[0].Succeeded || results[1].Succeeded || !results[2].Succeeded {
		t.Fatalf("Expected ok/fail/ok, got %v %v %v",
			results[0].Succeeded, results[1].Succeeded, results[2].Succeeded)
	}
	if got := readTreeFile(t, root, "f.txt"); got != "A\nb\nC\n" {
		t.Errorf("Surviving edits mismatch: %q", got)
	}
	if CountApplied(results) != 2 {
		t.Errorf("Expected 2 applied, got %d", CountApplied(results))
	}
}

func TestApplyListOrderOverlap(t *testing.T) {
	// The second edit addresses lines already shifted by the first.
	root := writeTree(t, map[string]string{"f.txt": "a\nb\nc\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "f.txt", Type: model.Insert, StartLine: 1, NewContent: "top"},
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 2, EndLine: 2, NewContent: "A"},
	})
	for _, res := range results {
		if !res.Succeeded {
			t.Fatalf("Edit %d failed: %s", res.Index, res.Error)
		}
	}
	if got := readTreeFile(t, root, "f.txt"); got != "top\nA\nb\nc\n" {
		t.Errorf("Overlap ordering mismatch: %q", got)
	}
}

func TestApplyPreservesCRLF(t *testing.T) {
	root := writeTree(t, map[string]string{"f.txt": "a\r\nb\r\nc\r\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 2, EndLine: 2, NewContent: "B"},
	})
	if !results[0].Succeeded {
		t.Fatalf("Replace failed: %s", results[0].Error)
	}
	if got := readTreeFile(t, root, "f.txt"); got != "a\r\nB\r\nc\r\n" {
		t.Errorf("CRLF not preserved: %q", got)
	}
}

func TestApplyDeterministic(t *testing.T) {
	files := map[string]string{"f.txt": "1\n2\n3\n4\n"}
	edits := []model.ProposedEdit{
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 2, EndLine: 3, NewContent: "x\ny\nz"},
		{File: "new.txt", Type: model.CreateFile, NewContent: "hello\n"},
		{File: "f.txt", Type: model.DeleteRange, StartLine: 1, EndLine: 1},
	}

	rootA := writeTree(t, files)
	rootB := writeTree(t, files)
	Apply(rootA, edits)
	Apply(rootB, edits)

	for _, name := range []string{"f.txt", "new.txt"} {
		if a, b := readTreeFile(t, rootA, name), readTreeFile(t, rootB, name); a != b {
			t.Errorf("Trees diverged for %s:\n%q\n%q", name, a, b)
		}
	}
}
