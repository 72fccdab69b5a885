package handlers

import (
	"reflect"
	"testing"

	"codepulse/internal/scanner"
	"codepulse/internal/slogutil"
)

func build(files ...scanner.SourceFile) *Registry {
	return BuildRegistry(files, slogutil.NewDiscardLogger())
}

func TestCleanWiringHasNoFindings(t *testing.T) {
	r := build(
		scanner.SourceFile{Path: "src/notes.js", Content: `window.saveNote = function () { return 1; };`},
		scanner.SourceFile{Path: "index.html", Content: `<button onclick="saveNote()">Save</button>`, Markup: true},
	)

	if d := r.Dangling(); len(d) != 0 {
		t.Errorf("Dangling = %v, want none", d)
	}
	if d := r.Duplicates(); len(d) != 0 {
		t.Errorf("Duplicates = %v, want none", d)
	}
	if o := r.Orphans(nil); len(o) != 0 {
		t.Errorf("Orphans = %v, want none", o)
	}
}

func TestDanglingAttributeReference(t *testing.T) {
	r := build(
		scanner.SourceFile{Path: "index.html", Content: `<a onclick="deleteNote(1)">x</a>`, Markup: true},
	)

	dangling := r.Dangling()
	if len(dangling) != 1 {
		t.Fatalf("Dangling = %v, want one finding", dangling)
	}
	if dangling[0].Name != "deleteNote" {
		t.Errorf("Name = %q, want deleteNote", dangling[0].Name)
	}
	if !reflect.DeepEqual(dangling[0].Files, []string{"index.html"}) {
		t.Errorf("Files = %v, want [index.html]", dangling[0].Files)
	}
}

func TestUndefinedDirectCallIsNotDangling(t *testing.T) {
	// Plain identifier calls can target any library function; only markup
	// attributes must resolve against the global handler namespace.
	r := build(
		scanner.SourceFile{Path: "src/app.js", Content: `renderSidebar();`},
	)

	if d := r.Dangling(); len(d) != 0 {
		t.Errorf("Dangling = %v, want none", d)
	}
}

func TestDuplicateDefinitionsListBothFiles(t *testing.T) {
	r := build(
		scanner.SourceFile{Path: "src/a.js", Content: `window.saveNote = () => {};`},
		scanner.SourceFile{Path: "src/b.js", Content: `window.saveNote = function () {};`},
	)

	dups := r.Duplicates()
	if len(dups) != 1 {
		t.Fatalf("Duplicates = %v, want one finding", dups)
	}
	want := []string{"src/a.js", "src/b.js"}
	if !reflect.DeepEqual(dups[0].Files, want) {
		t.Errorf("Files = %v, want %v", dups[0].Files, want)
	}
}

func TestOrphanSuppressedByDirectCall(t *testing.T) {
	r := build(
		scanner.SourceFile{Path: "src/a.js", Content: "window.refreshList = () => {};\nrefreshList();"},
	)

	if o := r.Orphans(nil); len(o) != 0 {
		t.Errorf("Orphans = %v, want none", o)
	}
}

func TestOrphanSuppressedByExtraUsage(t *testing.T) {
	r := build(
		scanner.SourceFile{Path: "src/a.js", Content: `window.refreshList = () => {};`},
	)

	if o := r.Orphans(map[string]bool{"refreshList": true}); len(o) != 0 {
		t.Errorf("Orphans = %v, want none with extra usage", o)
	}
	o := r.Orphans(nil)
	if len(o) != 1 || o[0].Name != "refreshList" {
		t.Errorf("Orphans = %v, want refreshList", o)
	}
}

func TestBlacklistedCallsIgnored(t *testing.T) {
	r := build(
		scanner.SourceFile{Path: "src/a.js", Content: "if (x) { setTimeout(run, 10); }\nconsole.log(1);"},
	)

	for _, name := range []string{"if", "setTimeout", "console"} {
		if _, ok := r.References[name]; ok {
			t.Errorf("blacklisted %q recorded as reference", name)
		}
	}
}

func TestAttributeCalls(t *testing.T) {
	got := AttributeCalls(`<button onclick="save()"/><input onchange='sync()'/>`)
	want := []string{"save", "sync"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AttributeCalls = %v, want %v", got, want)
	}
}
