package patch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	bfs "github.com/bugout-ai/bugout/internal/fs"
	"github.com/bugout-ai/bugout/model"
)

// Apply runs every edit against the working tree root, in list order, and
// returns one ApplicationResult per edit in the same order. A failed edit is
// recorded and never aborts the rest of the pass: a partially applied edit
// list is an expected, survivable outcome that the caller reports per edit.
//
// Edits that target overlapping ranges in the same file are applied against
// the file's state at apply time, so a later edit sees line numbers already
// shifted by earlier splices.
func Apply(root string, edits []model.ProposedEdit) []model.ApplicationResult {
	results := make([]model.ApplicationResult, 0, len(edits))
	for i, edit := range edits {
		oldLines, err := applyOne(root, edit)
		res := model.ApplicationResult{
			Edit:      edit,
			Index:     i,
			Succeeded: err == nil,
			AppliedAt: time.Now().UTC(),
			OldLines:  oldLines,
		}
		if err != nil {
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

// applyOne applies a single edit and returns the pre-image of the affected
// line range, captured before the file was mutated.
func applyOne(root string, edit model.ProposedEdit) ([]string, error) {
	path, err := bfs.ResolveInRoot(root, edit.File)
	if err != nil {
		return nil, newError(KindPathEscape, edit.File, err)
	}

	switch edit.Type {
	case model.CreateFile:
		return nil, createFile(path, edit)
	case model.DeleteFile:
		return deleteFile(path, edit)
	default:
		return spliceLines(path, edit)
	}
}

func createFile(path string, edit model.ProposedEdit) error {
	if _, err := os.Stat(path); err == nil {
		return newError(KindAlreadyExists, edit.File, nil)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return newError(KindIOFailure, edit.File, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return newError(KindIOFailure, edit.File, err)
	}
	if err := writeFileAtomic(path, []byte(edit.NewContent), 0644); err != nil {
		return newError(KindIOFailure, edit.File, err)
	}
	return nil
}

func deleteFile(path string, edit model.ProposedEdit) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(KindNotFound, edit.File, nil)
		}
		return nil, newError(KindIOFailure, edit.File, err)
	}
	lines, _, _ := splitLines(string(data))
	if err := os.Remove(path); err != nil {
		return lines, newError(KindIOFailure, edit.File, err)
	}
	return lines, nil
}

// spliceLines handles replace-range, insert and delete-range: read the file
// as lines, splice the new content into the declared range, and write the
// result back with the line-ending convention detected at read time.
func spliceLines(path string, edit model.ProposedEdit) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(KindNotFound, edit.File, nil)
		}
		return nil, newError(KindIOFailure, edit.File, err)
	}
	perm := fs.FileMode(0644)
	if st, err := os.Stat(path); err == nil {
		perm = st.Mode().Perm()
	}

	lines, eol, trailingNewline := splitLines(string(data))

	var spliceAt, removeCount int
	switch edit.Type {
	case model.Insert:
		// Zero-width splice before start_line; start_line == len+1 appends.
		if edit.StartLine > len(lines)+1 {
			return nil, newError(KindLineOutOfRange, edit.File,
				fmt.Errorf("start_line %d exceeds %d line(s)", edit.StartLine, len(lines)))
		}
		spliceAt = edit.StartLine - 1
	case model.ReplaceRange, model.DeleteRange:
		if edit.StartLine > len(lines) || edit.EndLine > len(lines) {
			return nil, newError(KindLineOutOfRange, edit.File,
				fmt.Errorf("range %d-%d exceeds %d line(s)", edit.StartLine, edit.EndLine, len(lines)))
		}
		spliceAt = edit.StartLine - 1
		removeCount = edit.EndLine - edit.StartLine + 1
	default:
		return nil, newError(KindIOFailure, edit.File, fmt.Errorf("unexpected change type %q", edit.Type))
	}

	oldLines := append([]string(nil), lines[spliceAt:spliceAt+removeCount]...)

	var newLines []string
	if edit.Type != model.DeleteRange {
		newLines = strings.Split(edit.NewContent, "\n")
	}

	spliced := make([]string, 0, len(lines)-removeCount+len(newLines))
	spliced = append(spliced, lines[:spliceAt]...)
	spliced = append(spliced, newLines...)
	spliced = append(spliced, lines[spliceAt+removeCount:]...)

	out := strings.Join(spliced, eol)
	if trailingNewline && len(spliced) > 0 {
		out += eol
	}
	if err := writeFileAtomic(path, []byte(out), perm); err != nil {
		return oldLines, newError(KindIOFailure, edit.File, err)
	}
	return oldLines, nil
}

// splitLines splits content into lines, reporting the dominant line-ending
// convention and whether the content ended with a newline. Empty content
// yields no lines. Defaults to "\n" so a new or empty file stays
// platform-neutral.
func splitLines(content string) (lines []string, eol string, trailingNewline bool) {
	eol = "\n"
	if strings.Contains(content, "\r\n") {
		eol = "\r\n"
	}
	if content == "" {
		return nil, eol, true
	}
	trailingNewline = strings.HasSuffix(content, "\n")
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.TrimSuffix(normalized, "\n")
	return strings.Split(normalized, "\n"), eol, trailingNewline
}

// writeFileAtomic writes the whole file via a temp file and rename so a
// failed edit never leaves a half-written target behind.
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".bugout-apply-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
