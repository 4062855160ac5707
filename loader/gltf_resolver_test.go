package loader

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"
)

// mapResolver serves URIs from an in-memory map.
type mapResolver map[string][]byte

func (m mapResolver) Resolve(uri string) ([]byte, error) {
	data, ok := m[uri]
	if !ok {
		return nil, fmt.Errorf("unknown uri %q", uri)
	}
	return data, nil
}

func TestResolveDataURI(t *testing.T) {
	payload := []byte{10, 20, 30, 40}
	doc := &Document{Buffers: []Buffer{{
		URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(payload),
		ByteLength: len(payload),
	}}}

	r := newBufferResolver(nil, 1, 0, nopLog)
	if err := r.ResolveAll(doc, nil); err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}
	if !bytes.Equal(doc.Buffers[0].Data, payload) {
		t.Errorf("decoded data mismatch: got %v, want %v", doc.Buffers[0].Data, payload)
	}
}

func TestResolveDataURILengthMismatch(t *testing.T) {
	doc := &Document{Buffers: []Buffer{{
		URI:        "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString([]byte{1, 2}),
		ByteLength: 8,
	}}}

	r := newBufferResolver(nil, 1, 0, nopLog)
	err := r.ResolveAll(doc, nil)
	if !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected BufferUnavailable, got %v", err)
	}
}

func TestResolveDataURIBadEncoding(t *testing.T) {
	doc := &Document{Buffers: []Buffer{{
		URI:        "data:application/octet-stream;base64,!!!not-base64!!!",
		ByteLength: 4,
	}}}

	r := newBufferResolver(nil, 1, 0, nopLog)
	if err := r.ResolveAll(doc, nil); !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected BufferUnavailable, got %v", err)
	}
}

func TestResolveGLBChunkBinding(t *testing.T) {
	// The chunk carries 2 padding bytes beyond the declared length; they must
	// be trimmed off.
	chunk := []byte{1, 2, 3, 4, 5, 6, 0, 0}
	doc := &Document{Buffers: []Buffer{{ByteLength: 6}}}

	r := newBufferResolver(nil, 1, 0, nopLog)
	if err := r.ResolveAll(doc, chunk); err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}
	if !bytes.Equal(doc.Buffers[0].Data, chunk[:6]) {
		t.Errorf("bound data mismatch: got %v", doc.Buffers[0].Data)
	}
}

func TestResolveGLBChunkMissing(t *testing.T) {
	doc := &Document{Buffers: []Buffer{{ByteLength: 6}}}

	r := newBufferResolver(nil, 1, 0, nopLog)
	if err := r.ResolveAll(doc, nil); !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected BufferUnavailable without a BIN chunk, got %v", err)
	}
}

func TestResolveGLBChunkTooShort(t *testing.T) {
	doc := &Document{Buffers: []Buffer{{ByteLength: 16}}}

	r := newBufferResolver(nil, 1, 0, nopLog)
	if err := r.ResolveAll(doc, []byte{1, 2, 3, 4}); !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected BufferUnavailable for a short chunk, got %v", err)
	}
}

func TestResolveExternal(t *testing.T) {
	doc := &Document{Buffers: []Buffer{
		{URI: "a.bin", ByteLength: 4},
		{URI: "b.bin", ByteLength: 2},
		{URI: "c.bin", ByteLength: 3},
	}}
	resolver := mapResolver{
		"a.bin": {1, 2, 3, 4},
		"b.bin": {5, 6},
		"c.bin": {7, 8, 9},
	}

	r := newBufferResolver(resolver, 2, 0, nopLog)
	if err := r.ResolveAll(doc, nil); err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}

	for i, want := range [][]byte{{1, 2, 3, 4}, {5, 6}, {7, 8, 9}} {
		if !bytes.Equal(doc.Buffers[i].Data, want) {
			t.Errorf("buffer %d: got %v, want %v", i, doc.Buffers[i].Data, want)
		}
	}
}

func TestResolveExternalShortRead(t *testing.T) {
	doc := &Document{Buffers: []Buffer{{URI: "short.bin", ByteLength: 10}}}
	resolver := mapResolver{"short.bin": {1, 2, 3}}

	r := newBufferResolver(resolver, 1, 0, nopLog)
	err := r.ResolveAll(doc, nil)
	if !errors.Is(err, ErrBufferUnavailable) {
		t.Fatalf("expected BufferUnavailable, got %v", err)
	}

	var le *Error
	if errors.As(err, &le) {
		if le.Index != 0 {
			t.Errorf("error index = %d, want 0", le.Index)
		}
		if le.Name != "short.bin" {
			t.Errorf("error name = %q, want the URI", le.Name)
		}
	}
}

func TestResolveExternalMissingURI(t *testing.T) {
	doc := &Document{Buffers: []Buffer{{URI: "gone.bin", ByteLength: 4}}}

	r := newBufferResolver(mapResolver{}, 1, 0, nopLog)
	if err := r.ResolveAll(doc, nil); !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected BufferUnavailable, got %v", err)
	}
}

func TestResolveExternalNoResolver(t *testing.T) {
	doc := &Document{Buffers: []Buffer{{URI: "file.bin", ByteLength: 4}}}

	r := newBufferResolver(nil, 1, 0, nopLog)
	if err := r.ResolveAll(doc, nil); !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected BufferUnavailable without a resolver, got %v", err)
	}
}

func TestResolveMaxBufferSize(t *testing.T) {
	doc := &Document{Buffers: []Buffer{{URI: "big.bin", ByteLength: 1 << 20}}}

	r := newBufferResolver(mapResolver{}, 1, 1024, nopLog)
	if err := r.ResolveAll(doc, nil); !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected BufferUnavailable for oversized buffer, got %v", err)
	}
}

func TestDecodeDataURIRejectsPlainText(t *testing.T) {
	if _, err := decodeDataURI("data:text/plain,hello"); err == nil {
		t.Error("expected error for non-base64 data URI")
	}
	if _, err := decodeDataURI("data:no-comma"); err == nil {
		t.Error("expected error for data URI without a comma")
	}
}
