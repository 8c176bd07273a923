package collector

import (
	"strings"
	"testing"
)

func collect(t *testing.T, path, source string) []Declaration {
	t.Helper()
	c := New()
	defer c.Close()

	decls, err := c.Collect(path, []byte(source))
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return decls
}

func names(decls []Declaration) []string {
	out := make([]string, len(decls))
	for i, d := range decls {
		out[i] = d.Name
	}
	return out
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"a.ts", LangTypeScript},
		{"a.mts", LangTypeScript},
		{"a.tsx", LangTSX},
		{"a.jsx", LangTSX},
		{"a.js", LangJavaScript},
		{"a.mjs", LangJavaScript},
		{"a.go", LangUnknown},
		{"a.css", LangUnknown},
	}
	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestScriptKind(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"a.ts", "TS"},
		{"a.tsx", "TSX"},
		{"a.jsx", "JSX"},
		{"a.js", "JS"},
		{"a.mjs", "JS"},
	}
	for _, tt := range tests {
		if got := ScriptKind(tt.path); got != tt.want {
			t.Errorf("ScriptKind(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestVariableDeclarations(t *testing.T) {
	decls := collect(t, "a.ts", "const x = 1;\nlet y = 2, z = 3;\nvar w = 4;\n")

	want := []string{"x", "y", "z", "w"}
	got := names(decls)
	if len(got) != len(want) {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, got[i], want[i])
		}
		if decls[i].Kind != KindVariable {
			t.Errorf("%s: Kind = %v, want variable", got[i], decls[i].Kind)
		}
		if decls[i].Exported {
			t.Errorf("%s: Exported = true", got[i])
		}
	}
}

func TestDestructuringExpansion(t *testing.T) {
	decls := collect(t, "a.ts", "const {a, b} = x;\n")

	got := names(decls)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("names = %v, want [a b]", got)
	}
	for _, d := range decls {
		if d.Kind != KindVariable {
			t.Errorf("%s: Kind = %v, want variable", d.Name, d.Kind)
		}
	}
}

func TestNestedDestructuring(t *testing.T) {
	source := "const {a: {b, c}, d = 1, ...rest} = x;\nconst [e, [f], ...g] = y;\n"
	decls := collect(t, "a.ts", source)

	want := []string{"b", "c", "d", "rest", "e", "f", "g"}
	got := names(decls)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("names = %v, want %v", got, want)
	}
}

func TestFunctionAndClassDeclarations(t *testing.T) {
	source := "function greet() {}\nclass Widget {}\nfunction* gen() {}\n"
	decls := collect(t, "a.ts", source)

	want := map[string]Kind{
		"greet":  KindFunction,
		"Widget": KindClass,
		"gen":    KindFunction,
	}
	if len(decls) != len(want) {
		t.Fatalf("decls = %v", names(decls))
	}
	for _, d := range decls {
		if want[d.Name] != d.Kind {
			t.Errorf("%s: Kind = %v, want %v", d.Name, d.Kind, want[d.Name])
		}
	}
}

func TestExportMarkers(t *testing.T) {
	source := "export const x = 1;\nexport function f() {}\nexport class C {}\nconst y = 2;\n"
	decls := collect(t, "a.ts", source)

	exported := map[string]bool{}
	for _, d := range decls {
		exported[d.Name] = d.Exported
	}

	for _, name := range []string{"x", "f", "C"} {
		if !exported[name] {
			t.Errorf("%s: Exported = false, want true", name)
		}
	}
	if exported["y"] {
		t.Error("y: Exported = true, want false")
	}
}

func TestImportBindings(t *testing.T) {
	source := `import def from "./a";
import * as ns from "./b";
import {one, two as alias} from "./c";
`
	decls := collect(t, "a.ts", source)

	want := []string{"def", "ns", "one", "alias"}
	got := names(decls)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("names = %v, want %v", got, want)
	}
	for _, d := range decls {
		if d.Kind != KindImport {
			t.Errorf("%s: Kind = %v, want import", d.Name, d.Kind)
		}
		if d.Exported {
			t.Errorf("%s: import marked exported", d.Name)
		}
	}
}

func TestNestedDeclarationsCollected(t *testing.T) {
	source := "function outer() {\n  const inner = 1;\n  function deep() {}\n}\n"
	decls := collect(t, "a.ts", source)

	want := []string{"outer", "inner", "deep"}
	got := names(decls)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("names = %v, want %v (outer-to-inner order)", got, want)
	}
}

func TestOffsetsPointAtIdentifiers(t *testing.T) {
	source := "const alpha = 1;\nfunction beta() {}\n"
	decls := collect(t, "a.ts", source)

	for _, d := range decls {
		if int(d.Offset) > len(source) {
			t.Fatalf("%s: offset %d out of range", d.Name, d.Offset)
		}
		at := source[d.Offset:]
		if !strings.HasPrefix(at, d.Name) {
			t.Errorf("%s: offset %d points at %q", d.Name, d.Offset, at[:min(len(at), 10)])
		}
	}
}

func TestJavaScriptDialect(t *testing.T) {
	decls := collect(t, "a.js", "var legacy = 1;\nfunction fn() {}\n")

	got := names(decls)
	if len(got) != 2 || got[0] != "legacy" || got[1] != "fn" {
		t.Fatalf("names = %v", got)
	}
}

func TestTSXDialect(t *testing.T) {
	source := "const Comp = () => <div/>;\nexport function App() { return <Comp/>; }\n"
	decls := collect(t, "a.tsx", source)

	got := names(decls)
	if len(got) != 2 || got[0] != "Comp" || got[1] != "App" {
		t.Fatalf("names = %v", got)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	c := New()
	defer c.Close()

	if _, err := c.Collect("a.py", []byte("x = 1")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestMalformedSourceBestEffort(t *testing.T) {
	// The grammar's error recovery still exposes the declarations it
	// can make sense of.
	source := "const ok = 1;\nfunction broken( {\nconst after = 2;\n"
	decls := collect(t, "a.ts", source)

	found := false
	for _, d := range decls {
		if d.Name == "ok" {
			found = true
		}
	}
	if !found {
		t.Errorf("declarations before the syntax error were lost: %v", names(decls))
	}
}
