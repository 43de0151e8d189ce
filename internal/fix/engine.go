// Package fix builds and applies the text edits carried by diagnostics.
//
// Apply works on in-memory buffers only; Write stores the changed buffers
// back to disk.
package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"unitd/internal/diag"
	"unitd/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies a single fix, an always-safe one if any.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every always-safe fix.
	ApplyModeAll
	// ApplyModePreferred applies the preferred fix of every diagnostic
	// unless it needs manual review.
	ApplyModePreferred
	// ApplyModeID applies the fix with ApplyOptions.TargetID.
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID            string
	Title         string
	Code          diag.Code
	Message       string
	Applicability diag.FixApplicability
	PrimaryPath   string
	EditCount     int
}

// SkippedFix captures a skipped fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange is the new content of one modified file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int // index of the diagnostic
}

// Apply collects fixes from diagnostics, selects a subset according to opts
// and applies them to copies of the file buffers.
func Apply(files *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if files == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, skips := gatherCandidates(diagnostics)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	selected, skips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, skips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skips, changes := applyCandidates(files, selected)
	result.Applied = applied
	result.Skipped = append(result.Skipped, skips...)
	result.FileChanges = changes
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

// Write stores every changed file, keeping its permissions.
func Write(res *ApplyResult) error {
	if res == nil {
		return nil
	}
	for _, ch := range res.FileChanges {
		mode := os.FileMode(0o644)
		if info, err := os.Stat(ch.Path); err == nil {
			mode = info.Mode()
		}
		if err := os.WriteFile(ch.Path, ch.Content, mode); err != nil {
			return fmt.Errorf("write %s: %w", ch.Path, err)
		}
	}
	return nil
}

func gatherCandidates(diagnostics []diag.Diagnostic) ([]candidate, []SkippedFix) {
	var (
		cands []candidate
		skips []SkippedFix
	)
	seen := make(map[string]bool)
	for i, d := range diagnostics {
		for idx, f := range d.Fixes {
			if f.ID == "" {
				f.ID = fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
			}
			switch {
			case d.Severity == diag.SevIgnored:
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "diagnostic is suppressed"})
				continue
			case len(f.Edits) == 0:
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			key := fmt.Sprintf("%d/%s", i, f.ID)
			if seen[key] {
				skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
				continue
			}
			seen[key] = true
			cands = append(cands, candidate{diag: d, fix: f, order: i})
		}
	}
	return cands, skips
}

// sortCandidates orders by file, span, diagnostic order, then preferred
// fixes first.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := candidates[i].diag, candidates[j].diag
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if candidates[i].order != candidates[j].order {
			return candidates[i].order < candidates[j].order
		}
		if candidates[i].fix.IsPreferred != candidates[j].fix.IsPreferred {
			return candidates[i].fix.IsPreferred
		}
		return false
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.fix.ID == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{ID: opts.TargetID, Reason: "fix id not found"}}
	case ApplyModeAll:
		var selected []candidate
		var skipped []SkippedFix
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				selected = append(selected, cand)
				continue
			}
			skipped = append(skipped, SkippedFix{
				ID:     cand.fix.ID,
				Title:  cand.fix.Title,
				Reason: fmt.Sprintf("applicability is %s", cand.fix.Applicability),
			})
		}
		return selected, skipped
	case ApplyModePreferred:
		var selected []candidate
		var skipped []SkippedFix
		done := make(map[int]bool)
		for _, cand := range candidates {
			if done[cand.order] {
				continue
			}
			done[cand.order] = true
			if cand.fix.Applicability == diag.FixApplicabilityManualReview {
				skipped = append(skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: "needs manual review"})
				continue
			}
			selected = append(selected, cand)
		}
		return selected, skipped
	case ApplyModeOnce:
		for _, cand := range candidates {
			if cand.fix.Applicability == diag.FixApplicabilityAlwaysSafe {
				return []candidate{cand}, nil
			}
		}
		return candidates[:1], nil
	default:
		return nil, nil
	}
}

// applyCandidates applies the selected fixes in order. A fix whose edits
// overlap an applied edit, fall outside the buffer or do not match their
// guard text is skipped as a whole.
func applyCandidates(files *source.FileSet, selected []candidate) ([]AppliedFix, []SkippedFix, []FileChange) {
	buffers := make(map[source.FileID][]byte)
	appliedEdits := make(map[source.FileID][]diag.TextEdit)
	fileEditCount := make(map[source.FileID]int)

	var (
		applied []AppliedFix
		skipped []SkippedFix
	)
	for _, cand := range selected {
		stagedBuffers := make(map[source.FileID][]byte)
		stagedApplied := make(map[source.FileID][]diag.TextEdit)
		total := 0
		reason := ""

		for fileID, edits := range groupEditsByFile(cand.fix.Edits) {
			file := files.Get(fileID)
			if file == nil {
				reason = "target file is unknown"
				break
			}
			if file.Flags&(source.FileVirtual|source.FileBuiltin) != 0 {
				reason = "target file is virtual"
				break
			}
			if conflictsWithExisting(appliedEdits[fileID], edits) {
				reason = "conflicts with previously applied edits in " + file.Path
				break
			}
			base := buffers[fileID]
			if base == nil {
				base = file.Content
			}
			working, done, err := applyEdits(base, appliedEdits[fileID], edits)
			if err != "" {
				reason = err
				break
			}
			stagedBuffers[fileID] = working
			stagedApplied[fileID] = done
			total += len(edits)
		}
		if reason != "" {
			skipped = append(skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: reason})
			continue
		}
		for fileID, buf := range stagedBuffers {
			buffers[fileID] = buf
			fileEditCount[fileID] += len(stagedApplied[fileID]) - len(appliedEdits[fileID])
			appliedEdits[fileID] = stagedApplied[fileID]
		}
		applied = append(applied, AppliedFix{
			ID:            cand.fix.ID,
			Title:         cand.fix.Title,
			Code:          cand.diag.Code,
			Message:       cand.diag.Message,
			Applicability: cand.fix.Applicability,
			PrimaryPath:   filePath(files, cand.diag.Primary.File),
			EditCount:     total,
		})
	}

	changes := make([]FileChange, 0, len(buffers))
	for fileID, buf := range buffers {
		changes = append(changes, FileChange{
			Path:      files.Get(fileID).Path,
			EditCount: fileEditCount[fileID],
			Content:   buf,
		})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return applied, skipped, changes
}

// applyEdits applies edits to a copy of base; prior lists edits already in
// base, in original coordinates. Edits go from the end of the buffer
// backwards so earlier offsets stay valid.
func applyEdits(base []byte, prior, edits []diag.TextEdit) ([]byte, []diag.TextEdit, string) {
	working := append([]byte(nil), base...)
	done := append([]diag.TextEdit(nil), prior...)
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].Span.Start == edits[j].Span.Start {
			return edits[i].Span.End > edits[j].Span.End
		}
		return edits[i].Span.Start > edits[j].Span.Start
	})
	for _, edit := range edits {
		start := int(edit.Span.Start) + cumulativeDelta(done, int(edit.Span.Start))
		end := int(edit.Span.End) + cumulativeDelta(done, int(edit.Span.End))
		if start < 0 || end < start || end > len(working) {
			return nil, nil, "edit span out of range"
		}
		if edit.OldText != "" && string(working[start:end]) != edit.OldText {
			return nil, nil, "existing text does not match expected content"
		}
		suffix := append([]byte(nil), working[end:]...)
		working = append(append(working[:start], edit.NewText...), suffix...)
		done = insertEditSorted(done, edit)
	}
	return working, done, ""
}

func conflictsWithExisting(existing, edits []diag.TextEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}

// spansConflict treats spans as half-open. Two insertions never conflict;
// an insertion conflicts with a span strictly containing its position.
func spansConflict(a, b diag.TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End
	switch {
	case aStart == aEnd && bStart == bEnd:
		return false
	case aStart == aEnd:
		return bStart < aStart && aStart < bEnd
	case bStart == bEnd:
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

func groupEditsByFile(edits []diag.TextEdit) map[source.FileID][]diag.TextEdit {
	buckets := make(map[source.FileID][]diag.TextEdit)
	for _, edit := range edits {
		buckets[edit.Span.File] = append(buckets[edit.Span.File], edit)
	}
	return buckets
}

// cumulativeDelta is the shift at pos caused by edits ending before it.
func cumulativeDelta(edits []diag.TextEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		start, end := int(e.Span.Start), int(e.Span.End)
		if start > pos {
			break
		}
		if end <= pos {
			delta += len(e.NewText) - (end - start)
		}
	}
	return delta
}

func insertEditSorted(edits []diag.TextEdit, edit diag.TextEdit) []diag.TextEdit {
	i := sort.Search(len(edits), func(i int) bool {
		if edits[i].Span.Start == edit.Span.Start {
			return edits[i].Span.End >= edit.Span.End
		}
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, diag.TextEdit{})
	copy(edits[i+1:], edits[i:])
	edits[i] = edit
	return edits
}

func filePath(files *source.FileSet, id source.FileID) string {
	if f := files.Get(id); f != nil {
		return f.Path
	}
	return ""
}
