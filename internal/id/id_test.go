package id

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	got, err := Generate("sess")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "sess-") {
		t.Errorf("missing prefix: %q", got)
	}
	if len(got) != len("sess-")+21 {
		t.Errorf("unexpected length: %q", got)
	}
}

func TestGenerateUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id, err := Generate("x")
		if err != nil {
			t.Fatal(err)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %q", id)
		}
		seen[id] = true
	}
}

func TestStoredFileName(t *testing.T) {
	tests := []struct {
		name    string
		wantExt string
	}{
		{"lesson plan.PDF", ".pdf"},
		{"slides.pptx", ".pptx"},
		{"noext", ""},
		{"trailingdot.", ""},
		{"weird.verylongextension", ""},
		{"evil.p/df", ""},
	}

	for _, tt := range tests {
		got, err := StoredFileName(tt.name)
		if err != nil {
			t.Fatal(err)
		}
		if tt.wantExt == "" {
			if strings.Contains(got, ".") {
				t.Errorf("StoredFileName(%q) = %q, want no extension", tt.name, got)
			}
		} else if !strings.HasSuffix(got, tt.wantExt) {
			t.Errorf("StoredFileName(%q) = %q, want suffix %q", tt.name, got, tt.wantExt)
		}
		if strings.ContainsAny(got, "/\\") {
			t.Errorf("StoredFileName(%q) = %q contains path separators", tt.name, got)
		}
	}
}
