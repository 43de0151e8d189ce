package index

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"unitd/internal/vfs"
)

const indexTOML = `
[[symbol]]
name = "bfunc"
kind = "function"
declaring_file = "include/b.h"

[[symbol]]
name = "FILE"
kind = "type"
declaring_file = "/usr/include/bits/types/FILE.h"
  [[symbol.include_headers]]
  header = "<wchar.h>"
  references = 3
  [[symbol.include_headers]]
  header = "<stdio.h>"
  references = 40
`

func TestLoadTOML(t *testing.T) {
	fsys := vfs.NewMapFS("/proj", map[string]string{"/proj/index.toml": indexTOML})
	idx, err := LoadTOML(fsys, "/proj/index.toml")
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 2 {
		t.Fatalf("Len = %d", idx.Len())
	}
	var got []Symbol
	if err := idx.Lookup(context.Background(), "bfunc", func(s Symbol) { got = append(got, s) }); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].DeclaringFile != "/proj/include/b.h" || got[0].Kind != KindFunction {
		t.Fatalf("bfunc = %+v", got)
	}
	if h := got[0].PreferredHeaders(); !reflect.DeepEqual(h, []string{"/proj/include/b.h"}) {
		t.Errorf("bfunc headers = %v", h)
	}

	got = nil
	_ = idx.Lookup(context.Background(), "FILE", func(s Symbol) { got = append(got, s) })
	if h := got[0].PreferredHeaders(); !reflect.DeepEqual(h, []string{"<stdio.h>", "<wchar.h>"}) {
		t.Errorf("FILE headers = %v", h)
	}
}

func TestLoadTOMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[[symbol]\n", "failed to parse TOML"},
		{"nameless", "[[symbol]]\nkind = \"macro\"\n", "symbol #1 has no name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := vfs.NewMapFS("/", map[string]string{"/i.toml": tt.content})
			_, err := LoadTOML(fsys, "/i.toml")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
	if _, err := LoadTOML(vfs.NewMapFS("/", nil), "/missing.toml"); err == nil {
		t.Fatal("missing file must fail")
	}
}

func TestLookupHonoursCancelledContext(t *testing.T) {
	idx := NewMemIndex(Symbol{Name: "x"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := idx.Lookup(ctx, "x", func(Symbol) { called = true })
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
}

func TestConcurrentReaders(t *testing.T) {
	idx := NewMemIndex()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			idx.Add(Symbol{Name: "s"})
		}()
		go func() {
			defer wg.Done()
			_ = idx.Lookup(context.Background(), "s", func(Symbol) {})
		}()
	}
	wg.Wait()
	if idx.Len() != 8 {
		t.Fatalf("Len = %d", idx.Len())
	}
}

func TestKindNames(t *testing.T) {
	for k, name := range kindNames {
		if ParseKind(name) != k || k.String() != name {
			t.Errorf("kind %d <-> %q mismatch", k, name)
		}
	}
	if ParseKind("bogus") != KindUnknown {
		t.Error("unknown kind name must map to KindUnknown")
	}
}
