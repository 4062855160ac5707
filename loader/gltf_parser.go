package loader

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// parseOptions control which optional payloads the parser retains.
type parseOptions struct {
	// captureExtras retains extras payloads on every entity when true.
	captureExtras bool

	// captureNames retains entity names and builds the by-name lookup maps
	// when true.
	captureNames bool
}

// gltfParserImpl is the implementation of the gltfParser interface.
type gltfParserImpl struct {
	opts parseOptions
	log  *zap.Logger
}

// gltfParser deserializes glTF JSON text into an unvalidated Document tree.
// This is internal to the loader package; validation happens separately.
type gltfParser interface {
	// Parse deserializes JSON bytes into a Document. The document is
	// unvalidated: index references and layout invariants have not been
	// checked and no buffers are resolved.
	//
	// Parameters:
	//   - data: the glTF JSON bytes
	//
	// Returns:
	//   - *Document: the parsed, unvalidated document
	//   - error: InvalidJson on malformed text (with a byte offset when
	//     available) or UnsupportedVersion when asset.version is not "2.0"
	Parse(data []byte) (*Document, error)
}

var _ gltfParser = &gltfParserImpl{}

// newGLTFParser creates a new glTF parser instance.
//
// Parameters:
//   - opts: capture toggles for extras and names
//   - log: structured logger, never nil
//
// Returns:
//   - gltfParser: a new parser instance
func newGLTFParser(opts parseOptions, log *zap.Logger) gltfParser {
	return &gltfParserImpl{opts: opts, log: log}
}

func (p *gltfParserImpl) Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, jsonError(err)
	}

	if doc.Asset.Version != "2.0" {
		return nil, &Error{
			Kind:  ErrUnsupportedVersion,
			Index: -1,
			Name:  doc.Asset.Version,
			msg:   `asset.version must be "2.0"`,
		}
	}

	if !p.opts.captureExtras {
		stripExtras(&doc)
	}
	if !p.opts.captureNames {
		stripNames(&doc)
	} else {
		buildNameIndex(&doc)
	}

	p.log.Debug("parsed document",
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("meshes", len(doc.Meshes)),
		zap.Int("accessors", len(doc.Accessors)),
		zap.Int("buffers", len(doc.Buffers)),
		zap.Bool("extras", p.opts.captureExtras),
		zap.Bool("names", p.opts.captureNames),
	)

	return &doc, nil
}

// jsonError converts an encoding/json failure into a structured InvalidJson
// error, carrying the byte offset when the decoder reports one.
func jsonError(err error) error {
	e := &Error{Kind: ErrInvalidJSON, Index: -1, err: err}
	switch je := err.(type) {
	case *json.SyntaxError:
		e.Offset = je.Offset
		e.msg = fmt.Sprintf("syntax error at byte %d", je.Offset)
	case *json.UnmarshalTypeError:
		e.Offset = je.Offset
		e.msg = fmt.Sprintf("unexpected %s for %s at byte %d", je.Value, je.Field, je.Offset)
	}
	return e
}

// stripExtras drops every captured extras payload. encoding/json cannot skip
// fields during decode, so disabled capture is applied after the fact; the
// observable contract (no extras retained) still holds.
func stripExtras(doc *Document) {
	doc.Extras = nil
	doc.Asset.Extras = nil
	for i := range doc.Scenes {
		doc.Scenes[i].Extras = nil
	}
	for i := range doc.Nodes {
		doc.Nodes[i].Extras = nil
	}
	for i := range doc.Meshes {
		doc.Meshes[i].Extras = nil
		for j := range doc.Meshes[i].Primitives {
			doc.Meshes[i].Primitives[j].Extras = nil
		}
	}
	for i := range doc.Accessors {
		doc.Accessors[i].Extras = nil
		if s := doc.Accessors[i].Sparse; s != nil {
			s.Extras = nil
			s.Indices.Extras = nil
			s.Values.Extras = nil
		}
	}
	for i := range doc.BufferViews {
		doc.BufferViews[i].Extras = nil
	}
	for i := range doc.Buffers {
		doc.Buffers[i].Extras = nil
	}
	for i := range doc.Materials {
		doc.Materials[i].Extras = nil
	}
	for i := range doc.Textures {
		doc.Textures[i].Extras = nil
	}
	for i := range doc.Images {
		doc.Images[i].Extras = nil
	}
	for i := range doc.Samplers {
		doc.Samplers[i].Extras = nil
	}
	for i := range doc.Skins {
		doc.Skins[i].Extras = nil
	}
	for i := range doc.Animations {
		doc.Animations[i].Extras = nil
		for j := range doc.Animations[i].Channels {
			doc.Animations[i].Channels[j].Extras = nil
			doc.Animations[i].Channels[j].Target.Extras = nil
		}
		for j := range doc.Animations[i].Samplers {
			doc.Animations[i].Samplers[j].Extras = nil
		}
	}
	for i := range doc.Cameras {
		doc.Cameras[i].Extras = nil
	}
}

// stripNames drops every captured entity name to reduce the memory footprint
// when name capture is disabled.
func stripNames(doc *Document) {
	for i := range doc.Scenes {
		doc.Scenes[i].Name = ""
	}
	for i := range doc.Nodes {
		doc.Nodes[i].Name = ""
	}
	for i := range doc.Meshes {
		doc.Meshes[i].Name = ""
	}
	for i := range doc.Accessors {
		doc.Accessors[i].Name = ""
	}
	for i := range doc.BufferViews {
		doc.BufferViews[i].Name = ""
	}
	for i := range doc.Buffers {
		doc.Buffers[i].Name = ""
	}
	for i := range doc.Materials {
		doc.Materials[i].Name = ""
	}
	for i := range doc.Textures {
		doc.Textures[i].Name = ""
	}
	for i := range doc.Images {
		doc.Images[i].Name = ""
	}
	for i := range doc.Samplers {
		doc.Samplers[i].Name = ""
	}
	for i := range doc.Skins {
		doc.Skins[i].Name = ""
	}
	for i := range doc.Animations {
		doc.Animations[i].Name = ""
	}
	for i := range doc.Cameras {
		doc.Cameras[i].Name = ""
	}
}

// buildNameIndex populates the by-name lookup maps. On duplicate names the
// first occurrence wins, matching array order.
func buildNameIndex(doc *Document) {
	doc.nodesByName = make(map[string]int)
	for i := range doc.Nodes {
		if n := doc.Nodes[i].Name; n != "" {
			if _, ok := doc.nodesByName[n]; !ok {
				doc.nodesByName[n] = i
			}
		}
	}
	doc.meshesByName = make(map[string]int)
	for i := range doc.Meshes {
		if n := doc.Meshes[i].Name; n != "" {
			if _, ok := doc.meshesByName[n]; !ok {
				doc.meshesByName[n] = i
			}
		}
	}
	doc.accessorsByName = make(map[string]int)
	for i := range doc.Accessors {
		if n := doc.Accessors[i].Name; n != "" {
			if _, ok := doc.accessorsByName[n]; !ok {
				doc.accessorsByName[n] = i
			}
		}
	}
	doc.animsByName = make(map[string]int)
	for i := range doc.Animations {
		if n := doc.Animations[i].Name; n != "" {
			if _, ok := doc.animsByName[n]; !ok {
				doc.animsByName[n] = i
			}
		}
	}
}

// FindNode returns the index of the first node with the given name. It
// requires name capture to be enabled; otherwise it always misses.
func (d *Document) FindNode(name string) (int, bool) {
	i, ok := d.nodesByName[name]
	return i, ok
}

// FindMesh returns the index of the first mesh with the given name.
func (d *Document) FindMesh(name string) (int, bool) {
	i, ok := d.meshesByName[name]
	return i, ok
}

// FindAccessor returns the index of the first accessor with the given name.
func (d *Document) FindAccessor(name string) (int, bool) {
	i, ok := d.accessorsByName[name]
	return i, ok
}

// FindAnimation returns the index of the first animation with the given name.
func (d *Document) FindAnimation(name string) (int, bool) {
	i, ok := d.animsByName[name]
	return i, ok
}
