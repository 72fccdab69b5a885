package graph

import (
	"reflect"
	"testing"

	"codepulse/internal/scanner"
	"codepulse/internal/slogutil"
)

func TestFindCyclesNone(t *testing.T) {
	g := NewBuilder(".js", slogutil.NewDiscardLogger()).Build([]scanner.SourceFile{
		{Path: "a.js", Content: `import './b.js';`},
		{Path: "b.js", Content: `import './c.js';`},
		{Path: "c.js", Content: ""},
	})

	if cycles := FindCycles(g); len(cycles) != 0 {
		t.Errorf("FindCycles = %v, want none", cycles)
	}
}

func TestFindCyclesTwoNode(t *testing.T) {
	g := NewBuilder(".js", slogutil.NewDiscardLogger()).Build([]scanner.SourceFile{
		{Path: "a.js", Content: `import './b.js';`},
		{Path: "b.js", Content: `import './a.js';`},
	})

	cycles := FindCycles(g)
	if len(cycles) != 1 {
		t.Fatalf("found %d cycles, want 1", len(cycles))
	}
	want := []string{"a.js", "b.js"}
	if !reflect.DeepEqual(cycles[0].Members, want) {
		t.Errorf("Members = %v, want %v", cycles[0].Members, want)
	}
	if first, last := cycles[0].Path[0], cycles[0].Path[len(cycles[0].Path)-1]; first != last {
		t.Errorf("cycle path does not close: starts %s, ends %s", first, last)
	}
}

func TestFindCyclesDeduplicatesRotations(t *testing.T) {
	// A three-node loop is reachable from every member; only one cycle
	// should survive deduplication.
	g := NewBuilder(".js", slogutil.NewDiscardLogger()).Build([]scanner.SourceFile{
		{Path: "a.js", Content: `import './b.js';`},
		{Path: "b.js", Content: `import './c.js';`},
		{Path: "c.js", Content: `import './a.js';`},
	})

	cycles := FindCycles(g)
	if len(cycles) != 1 {
		t.Fatalf("found %d cycles, want 1", len(cycles))
	}
	want := []string{"a.js", "b.js", "c.js"}
	if !reflect.DeepEqual(cycles[0].Members, want) {
		t.Errorf("Members = %v, want %v", cycles[0].Members, want)
	}
}

func TestFindCyclesSelfLoopExcluded(t *testing.T) {
	// Self imports are dropped at build time, so no single-node cycles.
	g := NewBuilder(".js", slogutil.NewDiscardLogger()).Build([]scanner.SourceFile{
		{Path: "a.js", Content: `import './a.js';`},
	})

	if cycles := FindCycles(g); len(cycles) != 0 {
		t.Errorf("FindCycles = %v, want none", cycles)
	}
}
