package patch

import (
	"strings"
	"testing"

	"github.com/bugout-ai/bugout/model"
)

func TestSyntheticDiffReplace(t *testing.T) {
	root := writeTree(t, map[string]string{"main.go": "one\ntwo\nthree\nfour\nfive\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "main.go", Type: model.ReplaceRange, StartLine: 2, EndLine: 3, NewContent: "TWO\nTHREE\nEXTRA"},
	})

	diff := SyntheticDiff(results)
	want := "--- a/main.go\n" +
		"+++ b/main.go\n" +
		"@@ -2,2 +2,3 @@\n" +
		"-two\n" +
		"-three\n" +
		"+TWO\n" +
		"+THREE\n" +
		"+EXTRA\n"
	if diff != want {
		t.Errorf("Replace diff mismatch:\ngot:\n%s\nwant:\n%s", diff, want)
	}
}

func TestSyntheticDiffCreateAndDelete(t *testing.T) {
	root := writeTree(t, map[string]string{"old.txt": "a\nb\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "new.txt", Type: model.CreateFile, NewContent: "x\ny"},
		{File: "old.txt", Type: model.DeleteFile},
	})

	diff := SyntheticDiff(results)
	want := "--- /dev/null\n" +
		"+++ b/new.txt\n" +
		"@@ -0,0 +1,2 @@\n" +
		"+x\n" +
		"+y\n" +
		"--- a/old.txt\n" +
		"+++ /dev/null\n" +
		"@@ -1,2 +0,0 @@\n" +
		"-a\n" +
		"-b\n"
	if diff != want {
		t.Errorf("Create/delete diff mismatch:\ngot:\n%s\nwant:\n%s", diff, want)
	}
}

func TestSyntheticDiffOffsets(t *testing.T) {
	// Two hunks in one file: the first grows the file by one line, so the
	// second edit's start line is already shifted. Its old-side start must
	// de-shift back to the original coordinate.
	root := writeTree(t, map[string]string{"f.txt": "a\nb\nc\nd\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "f.txt", Type: model.Insert, StartLine: 2, NewContent: "inserted"},
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 4, EndLine: 4, NewContent: "D"},
	})
	for _, res := range results {
		if !res.Succeeded {
			t.Fatalf("Edit %d failed: %s", res.Index, res.Error)
		}
	}

	diff := SyntheticDiff(results)
	if !strings.Contains(diff, "@@ -1,0 +2,1 @@") {
		t.Errorf("Insert hunk header missing or wrong:\n%s", diff)
	}
	// The replace targeted line 4 post-insert, which was line 3 ("c") in the
	// original file; the new side stays at 4.
	if !strings.Contains(diff, "@@ -3,1 +4,1 @@") {
		t.Errorf("Offset hunk header missing or wrong:\n%s", diff)
	}
}

func TestSyntheticDiffOffsetsAmbiguousPreImage(t *testing.T) {
	// The file has two identical "}" lines. If the old-side start of the
	// second hunk were misnumbered, a patch tool would relocate it onto the
	// wrong one by content search; the exact headers pin the right line.
	root := writeTree(t, map[string]string{"f.txt": "a\n}\nb\n}\nc\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "f.txt", Type: model.Insert, StartLine: 1, NewContent: "top"},
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 3, EndLine: 3, NewContent: "MOD"},
	})
	for _, res := range results {
		if !res.Succeeded {
			t.Fatalf("Edit %d failed: %s", res.Index, res.Error)
		}
	}
	if got := readTreeFile(t, root, "f.txt"); got != "top\na\nMOD\nb\n}\nc\n" {
		t.Fatalf("Applied content mismatch: %q", got)
	}

	diff := SyntheticDiff(results)
	want := "--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -0,0 +1,1 @@\n" +
		"+top\n" +
		"@@ -2,1 +3,1 @@\n" +
		"-}\n" +
		"+MOD\n"
	if diff != want {
		t.Errorf("Diff mismatch:\ngot:\n%s\nwant:\n%s", diff, want)
	}
}

func TestSyntheticDiffCreateThenEdit(t *testing.T) {
	// Creating a file and editing it in the same run must still yield a
	// single consumable creation diff, not splice hunks under /dev/null.
	root := writeTree(t, nil)
	results := Apply(root, []model.ProposedEdit{
		{File: "fresh.txt", Type: model.CreateFile, NewContent: "a\nb\n"},
		{File: "fresh.txt", Type: model.Insert, StartLine: 2, NewContent: "x"},
	})
	for _, res := range results {
		if !res.Succeeded {
			t.Fatalf("Edit %d failed: %s", res.Index, res.Error)
		}
	}

	diff := SyntheticDiff(results)
	want := "--- /dev/null\n" +
		"+++ b/fresh.txt\n" +
		"@@ -0,0 +1,3 @@\n" +
		"+a\n" +
		"+x\n" +
		"+b\n"
	if diff != want {
		t.Errorf("Create-then-edit diff mismatch:\ngot:\n%s\nwant:\n%s", diff, want)
	}
}

func TestSyntheticDiffFailedEdit(t *testing.T) {
	// A failed edit still emits a hunk recording intent, with an empty
	// pre-image side when nothing was readable.
	root := writeTree(t, map[string]string{"f.txt": "a\n"})
	results := Apply(root, []model.ProposedEdit{
		{File: "f.txt", Type: model.ReplaceRange, StartLine: 7, EndLine: 7, NewContent: "ghost"},
	})
	if results[0].Succeeded {
		t.Fatal("Expected out-of-range edit to fail")
	}

	diff := SyntheticDiff(results)
	if !strings.Contains(diff, "--- a/f.txt\n+++ b/f.txt\n") {
		t.Errorf("Missing file header:\n%s", diff)
	}
	if !strings.Contains(diff, "@@ -7,0 +7,1 @@\n+ghost\n") {
		t.Errorf("Missing intent hunk:\n%s", diff)
	}
}

func TestSyntheticDiffEmpty(t *testing.T) {
	if diff := SyntheticDiff(nil); diff != "" {
		t.Errorf("Expected empty diff for no results, got %q", diff)
	}
}

func TestSyntheticDiffFileOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.txt": "1\n",
		"a.txt": "1\n",
	})
	results := Apply(root, []model.ProposedEdit{
		{File: "b.txt", Type: model.ReplaceRange, StartLine: 1, EndLine: 1, NewContent: "B"},
		{File: "a.txt", Type: model.ReplaceRange, StartLine: 1, EndLine: 1, NewContent: "A"},
	})

	diff := SyntheticDiff(results)
	if strings.Index(diff, "b.txt") > strings.Index(diff, "a.txt") {
		t.Errorf("Files not in first-appearance order:\n%s", diff)
	}
}
