package diag

import (
	"cmp"
	"slices"
)

// Bag collects diagnostics for output: it caps the count and drops exact
// repeats (a header included twice reports the same problem twice).
// A limit <= 0 means unbounded.
type Bag struct {
	items   []Diagnostic
	max     int
	dropped int
}

func NewBag(limit int) *Bag {
	hint := 16
	if limit > 0 {
		hint = min(limit, 64)
	}
	return &Bag{items: make([]Diagnostic, 0, hint), max: limit}
}

// Collect builds a bag from diags in order.
func Collect(diags []Diagnostic, limit int) *Bag {
	b := NewBag(limit)
	for _, d := range diags {
		b.Add(d)
	}
	return b
}

// Add appends d unless the limit is reached; the overflow is counted.
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors reports whether any item is an Error or Fatal.
func (b *Bag) HasErrors() bool {
	return slices.ContainsFunc(b.items, func(d Diagnostic) bool { return d.Severity.IsError() })
}

func (b *Bag) Len() int { return len(b.items) }

// Dropped is the number of diagnostics refused by the limit.
func (b *Bag) Dropped() int { return b.dropped }

// Items returns the backing slice; callers must not modify it.
func (b *Bag) Items() []Diagnostic { return b.items }

// Sort orders by file, start, end, then severity descending, then code.
func (b *Bag) Sort() {
	slices.SortStableFunc(b.items, func(x, y Diagnostic) int {
		return cmp.Or(
			cmp.Compare(x.Primary.File, y.Primary.File),
			cmp.Compare(x.Primary.Start, y.Primary.Start),
			cmp.Compare(x.Primary.End, y.Primary.End),
			cmp.Compare(y.Severity, x.Severity),
			cmp.Compare(x.Code, y.Code),
		)
	})
}

// Dedup keeps the first of diagnostics sharing code, primary span and message.
func (b *Bag) Dedup() {
	type key struct {
		code Code
		span string
		msg  string
	}
	seen := make(map[key]struct{}, len(b.items))
	b.items = slices.DeleteFunc(b.items, func(d Diagnostic) bool {
		k := key{d.Code, d.Primary.String(), d.Message}
		if _, dup := seen[k]; dup {
			return true
		}
		seen[k] = struct{}{}
		return false
	})
}
