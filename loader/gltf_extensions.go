package loader

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ExtensionDecoder turns a raw extension payload into a typed value. Decoders
// are registered per extension name on a Loader and shared with every
// document it produces.
type ExtensionDecoder func(raw json.RawMessage) (any, error)

// extensionRegistry maps extension names to decoders. Registration and lookup
// may race with document loads, so access is guarded.
type extensionRegistry struct {
	mu       sync.RWMutex
	decoders map[string]ExtensionDecoder
}

// newExtensionRegistry creates an empty registry.
func newExtensionRegistry() *extensionRegistry {
	return &extensionRegistry{decoders: make(map[string]ExtensionDecoder)}
}

// register adds or replaces the decoder for name.
func (r *extensionRegistry) register(name string, decoder ExtensionDecoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[name] = decoder
}

// lookup returns the decoder for name, if one is registered.
func (r *extensionRegistry) lookup(name string) (ExtensionDecoder, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.decoders[name]
	return d, ok
}

// names returns the registered extension names in no particular order.
func (r *extensionRegistry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.decoders))
	for n := range r.decoders {
		out = append(out, n)
	}
	return out
}

// DecodeExtension decodes a raw extension payload taken from any entity's
// Extensions map using the decoder registered under name. Payloads for
// extensions with no registered decoder stay available as raw JSON; this is
// the opt-in typed path.
//
// Parameters:
//   - name: the extension name, as keyed in the Extensions map
//   - raw: the raw payload
//
// Returns:
//   - any: the decoder's typed value
//   - error: UnsupportedExtension when no decoder is registered under name,
//     or the decoder's own failure wrapped as InvalidJson
func (d *Document) DecodeExtension(name string, raw json.RawMessage) (any, error) {
	if d.registry == nil {
		return nil, &Error{Kind: ErrUnsupportedExtension, Index: -1, Name: name,
			msg: "no extension decoders registered"}
	}
	decoder, ok := d.registry.lookup(name)
	if !ok {
		return nil, &Error{Kind: ErrUnsupportedExtension, Index: -1, Name: name,
			msg: fmt.Sprintf("no decoder registered for %q", name)}
	}
	v, err := decoder(raw)
	if err != nil {
		return nil, &Error{Kind: ErrInvalidJSON, Index: -1, Name: name,
			msg: fmt.Sprintf("extension %q payload rejected", name), err: err}
	}
	return v, nil
}
