package loader

import (
	"errors"
	"testing"
)

func TestParseVersionGate(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{"exact 2.0", `{"asset":{"version":"2.0"}}`, false},
		{"version 1.0", `{"asset":{"version":"1.0"}}`, true},
		{"version 2.1", `{"asset":{"version":"2.1"}}`, true},
		{"missing asset", `{}`, true},
	}

	p := newGLTFParser(parseOptions{captureExtras: true, captureNames: true}, nopLog)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.json))
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedVersion) {
					t.Errorf("expected UnsupportedVersion, got %v", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseInvalidJSON(t *testing.T) {
	p := newGLTFParser(parseOptions{}, nopLog)

	_, err := p.Parse([]byte(`{"asset": {"version": `))
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected InvalidJson, got %v", err)
	}

	var le *Error
	if !errors.As(err, &le) {
		t.Fatal("expected a structured *Error")
	}
	if le.Offset <= 0 {
		t.Errorf("expected a positive byte offset, got %d", le.Offset)
	}
}

func TestParseInvalidJSONTypeError(t *testing.T) {
	p := newGLTFParser(parseOptions{}, nopLog)

	// nodes must be an array, not an object.
	_, err := p.Parse([]byte(`{"asset":{"version":"2.0"},"nodes":{}}`))
	if !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("expected InvalidJson, got %v", err)
	}
}

const captureTestJSON = `{
	"asset": {"version": "2.0"},
	"nodes": [
		{"name": "root", "extras": {"tag": "hero"}},
		{"name": "arm"}
	],
	"meshes": [{"name": "body", "primitives": [{"attributes": {}}]}]
}`

func TestParseCaptureEnabled(t *testing.T) {
	p := newGLTFParser(parseOptions{captureExtras: true, captureNames: true}, nopLog)
	doc, err := p.Parse([]byte(captureTestJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Nodes[0].Name != "root" {
		t.Errorf("expected node name %q, got %q", "root", doc.Nodes[0].Name)
	}
	if len(doc.Nodes[0].Extras) == 0 {
		t.Error("expected extras to be retained")
	}

	if i, ok := doc.FindNode("arm"); !ok || i != 1 {
		t.Errorf("FindNode(arm) = (%d, %v), want (1, true)", i, ok)
	}
	if i, ok := doc.FindMesh("body"); !ok || i != 0 {
		t.Errorf("FindMesh(body) = (%d, %v), want (0, true)", i, ok)
	}
	if _, ok := doc.FindNode("missing"); ok {
		t.Error("FindNode(missing) unexpectedly hit")
	}
}

func TestParseCaptureDisabled(t *testing.T) {
	p := newGLTFParser(parseOptions{}, nopLog)
	doc, err := p.Parse([]byte(captureTestJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Nodes[0].Name != "" {
		t.Errorf("expected names stripped, got %q", doc.Nodes[0].Name)
	}
	if doc.Nodes[0].Extras != nil {
		t.Error("expected extras stripped")
	}
	if _, ok := doc.FindNode("root"); ok {
		t.Error("FindNode hit with name capture disabled")
	}
}

func TestParseDuplicateNamesFirstWins(t *testing.T) {
	p := newGLTFParser(parseOptions{captureNames: true}, nopLog)
	doc, err := p.Parse([]byte(`{
		"asset": {"version": "2.0"},
		"nodes": [{"name": "twin"}, {"name": "twin"}]
	}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if i, ok := doc.FindNode("twin"); !ok || i != 0 {
		t.Errorf("FindNode(twin) = (%d, %v), want first occurrence (0, true)", i, ok)
	}
}
