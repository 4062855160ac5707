package loader

import (
	"fmt"

	"go.uber.org/zap"
)

// gltfValidatorImpl is the implementation of the gltfValidator interface.
type gltfValidatorImpl struct {
	implemented map[string]struct{}
	log         *zap.Logger
}

// gltfValidator walks a parsed document and checks every index reference,
// the node-forest invariants, the accessor/bufferView layout invariants, and
// the required-extension gate. Validation is fail-fast: the first structured
// error is returned and the document is left unmarked.
type gltfValidator interface {
	// Validate checks doc and marks it validated on success.
	//
	// Parameters:
	//   - doc: the parsed document to check
	//
	// Returns:
	//   - error: the first structured validation error, or nil
	Validate(doc *Document) error
}

var _ gltfValidator = &gltfValidatorImpl{}

// newGLTFValidator creates a validator with the given implemented-extension
// set (names that may appear in extensionsRequired without failing).
//
// Parameters:
//   - implemented: extension names the loader implements or tolerates
//   - log: structured logger, never nil
//
// Returns:
//   - gltfValidator: a new validator instance
func newGLTFValidator(implemented map[string]struct{}, log *zap.Logger) gltfValidator {
	return &gltfValidatorImpl{implemented: implemented, log: log}
}

func (v *gltfValidatorImpl) Validate(doc *Document) error {
	if err := v.checkRequiredExtensions(doc); err != nil {
		return err
	}
	if err := v.checkIndices(doc); err != nil {
		return err
	}
	if err := v.checkNodeForest(doc); err != nil {
		return err
	}
	if err := v.checkLayout(doc); err != nil {
		return err
	}

	doc.validated = true
	v.log.Debug("document validated",
		zap.Int("scenes", len(doc.Scenes)),
		zap.Int("nodes", len(doc.Nodes)),
		zap.Int("accessors", len(doc.Accessors)),
	)
	return nil
}

// checkRequiredExtensions gates declared required extensions against the
// implemented set. This runs before anything else so that an unsupported
// document triggers no further work (in particular, no buffer resolution).
func (v *gltfValidatorImpl) checkRequiredExtensions(doc *Document) error {
	for _, name := range doc.ExtensionsRequired {
		if _, ok := v.implemented[name]; !ok {
			return &Error{Kind: ErrUnsupportedExtension, Index: -1, Name: name, msg: "required extension not implemented"}
		}
	}
	return nil
}

// indexCheck reports an IndexOutOfRange error unless 0 <= idx < bound.
func indexCheck(entity string, idx, bound int) error {
	if idx < 0 || idx >= bound {
		return newEntityError(ErrIndexOutOfRange, entity, idx, fmt.Sprintf("target array has %d elements", bound))
	}
	return nil
}

// checkIndices bounds-checks every index reference in the document.
func (v *gltfValidatorImpl) checkIndices(doc *Document) error {
	if doc.Scene != nil {
		if err := indexCheck("scene", *doc.Scene, len(doc.Scenes)); err != nil {
			return err
		}
	}

	for _, s := range doc.Scenes {
		for _, n := range s.Nodes {
			if err := indexCheck("scene.nodes", n, len(doc.Nodes)); err != nil {
				return err
			}
		}
	}

	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		for _, c := range n.Children {
			if err := indexCheck("node.children", c, len(doc.Nodes)); err != nil {
				return err
			}
		}
		if n.Mesh != nil {
			if err := indexCheck("node.mesh", *n.Mesh, len(doc.Meshes)); err != nil {
				return err
			}
		}
		if n.Skin != nil {
			if err := indexCheck("node.skin", *n.Skin, len(doc.Skins)); err != nil {
				return err
			}
		}
		if n.Camera != nil {
			if err := indexCheck("node.camera", *n.Camera, len(doc.Cameras)); err != nil {
				return err
			}
		}
	}

	for i := range doc.Meshes {
		for j := range doc.Meshes[i].Primitives {
			p := &doc.Meshes[i].Primitives[j]
			for _, a := range p.Attributes {
				if err := indexCheck("primitive.attributes", a, len(doc.Accessors)); err != nil {
					return err
				}
			}
			if p.Indices != nil {
				if err := indexCheck("primitive.indices", *p.Indices, len(doc.Accessors)); err != nil {
					return err
				}
			}
			if p.Material != nil {
				if err := indexCheck("primitive.material", *p.Material, len(doc.Materials)); err != nil {
					return err
				}
			}
			for _, target := range p.Targets {
				for _, a := range target {
					if err := indexCheck("primitive.targets", a, len(doc.Accessors)); err != nil {
						return err
					}
				}
			}
		}
	}

	for i := range doc.Accessors {
		a := &doc.Accessors[i]
		if a.BufferView != nil {
			if err := indexCheck("accessor.bufferView", *a.BufferView, len(doc.BufferViews)); err != nil {
				return err
			}
		}
		if s := a.Sparse; s != nil {
			if err := indexCheck("accessor.sparse.indices.bufferView", s.Indices.BufferView, len(doc.BufferViews)); err != nil {
				return err
			}
			if err := indexCheck("accessor.sparse.values.bufferView", s.Values.BufferView, len(doc.BufferViews)); err != nil {
				return err
			}
		}
	}

	for i := range doc.BufferViews {
		if err := indexCheck("bufferView.buffer", doc.BufferViews[i].Buffer, len(doc.Buffers)); err != nil {
			return err
		}
	}

	for i := range doc.Materials {
		m := &doc.Materials[i]
		if pbr := m.PbrMetallicRoughness; pbr != nil {
			if t := pbr.BaseColorTexture; t != nil {
				if err := indexCheck("material.baseColorTexture", t.Index, len(doc.Textures)); err != nil {
					return err
				}
			}
			if t := pbr.MetallicRoughnessTexture; t != nil {
				if err := indexCheck("material.metallicRoughnessTexture", t.Index, len(doc.Textures)); err != nil {
					return err
				}
			}
		}
		if t := m.NormalTexture; t != nil {
			if err := indexCheck("material.normalTexture", t.Index, len(doc.Textures)); err != nil {
				return err
			}
		}
		if t := m.OcclusionTexture; t != nil {
			if err := indexCheck("material.occlusionTexture", t.Index, len(doc.Textures)); err != nil {
				return err
			}
		}
		if t := m.EmissiveTexture; t != nil {
			if err := indexCheck("material.emissiveTexture", t.Index, len(doc.Textures)); err != nil {
				return err
			}
		}
	}

	for i := range doc.Textures {
		t := &doc.Textures[i]
		if t.Sampler != nil {
			if err := indexCheck("texture.sampler", *t.Sampler, len(doc.Samplers)); err != nil {
				return err
			}
		}
		if t.Source != nil {
			if err := indexCheck("texture.source", *t.Source, len(doc.Images)); err != nil {
				return err
			}
		}
	}

	for i := range doc.Images {
		if bv := doc.Images[i].BufferView; bv != nil {
			if err := indexCheck("image.bufferView", *bv, len(doc.BufferViews)); err != nil {
				return err
			}
		}
	}

	for i := range doc.Skins {
		s := &doc.Skins[i]
		if s.InverseBindMatrices != nil {
			if err := indexCheck("skin.inverseBindMatrices", *s.InverseBindMatrices, len(doc.Accessors)); err != nil {
				return err
			}
		}
		if s.Skeleton != nil {
			if err := indexCheck("skin.skeleton", *s.Skeleton, len(doc.Nodes)); err != nil {
				return err
			}
		}
		for _, j := range s.Joints {
			if err := indexCheck("skin.joints", j, len(doc.Nodes)); err != nil {
				return err
			}
		}
	}

	for i := range doc.Animations {
		anim := &doc.Animations[i]
		for j := range anim.Channels {
			ch := &anim.Channels[j]
			if err := indexCheck("animation.channel.sampler", ch.Sampler, len(anim.Samplers)); err != nil {
				return err
			}
			if ch.Target.Node != nil {
				if err := indexCheck("animation.channel.target.node", *ch.Target.Node, len(doc.Nodes)); err != nil {
					return err
				}
			}
		}
		for j := range anim.Samplers {
			smp := &anim.Samplers[j]
			if err := indexCheck("animation.sampler.input", smp.Input, len(doc.Accessors)); err != nil {
				return err
			}
			if err := indexCheck("animation.sampler.output", smp.Output, len(doc.Accessors)); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkNodeForest enforces that the node relation graph is a forest: each
// node has at most one parent, no node is its own ancestor, and a node's
// subtree belongs to at most one scene. The walk starts from every scene
// root and from every orphan root (a node not referenced as any child).
func (v *gltfValidatorImpl) checkNodeForest(doc *Document) error {
	parent := make([]int, len(doc.Nodes))
	for i := range parent {
		parent[i] = -1
	}

	for i := range doc.Nodes {
		for _, c := range doc.Nodes[i].Children {
			if c == i {
				return newEntityError(ErrCyclicNodeGraph, "node", i, "node is its own child")
			}
			if parent[c] != -1 {
				return newEntityError(ErrCyclicNodeGraph, "node", c,
					fmt.Sprintf("node has multiple parents (%d and %d)", parent[c], i))
			}
			parent[c] = i
		}
	}

	// DFS colors: 0 unvisited, 1 on the current path, 2 done.
	color := make([]uint8, len(doc.Nodes))
	sceneOf := make([]int, len(doc.Nodes))
	for i := range sceneOf {
		sceneOf[i] = -1
	}

	var walk func(n, scene int) error
	walk = func(n, scene int) error {
		switch color[n] {
		case 1:
			return newEntityError(ErrCyclicNodeGraph, "node", n, "node is its own ancestor")
		case 2:
			if scene >= 0 && sceneOf[n] >= 0 && sceneOf[n] != scene {
				return newEntityError(ErrCyclicNodeGraph, "node", n,
					fmt.Sprintf("node reused across scenes %d and %d", sceneOf[n], scene))
			}
			return nil
		}
		color[n] = 1
		sceneOf[n] = scene
		for _, c := range doc.Nodes[n].Children {
			if err := walk(c, scene); err != nil {
				return err
			}
		}
		color[n] = 2
		return nil
	}

	for si := range doc.Scenes {
		for _, root := range doc.Scenes[si].Nodes {
			if parent[root] != -1 {
				return newEntityError(ErrCyclicNodeGraph, "node", root,
					fmt.Sprintf("scene %d lists a non-root node", si))
			}
			if err := walk(root, si); err != nil {
				return err
			}
		}
	}

	// Orphan roots: unreferenced nodes outside every scene are allowed, but
	// their subtrees must still be acyclic.
	for i := range doc.Nodes {
		if parent[i] == -1 && color[i] == 0 {
			if err := walk(i, -1); err != nil {
				return err
			}
		}
	}

	// Any node still unvisited has a parent but no reachable root, which can
	// only happen inside a detached cycle. Walking from within surfaces it.
	for i := range doc.Nodes {
		if color[i] == 0 {
			if err := walk(i, -1); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkLayout verifies the accessor and bufferView layout invariants from the
// format: view ranges fit their buffers, offsets are aligned to the component
// size, strides are 4-byte multiples at least as large as the element, and
// every accessor's span fits its view. Node transforms are also checked for
// the matrix-vs-TRS exclusivity rule here.
func (v *gltfValidatorImpl) checkLayout(doc *Document) error {
	for i := range doc.Buffers {
		if doc.Buffers[i].ByteLength < 1 {
			return newEntityError(ErrInvalidAccessorLayout, "buffer", i, "byteLength must be at least 1")
		}
	}

	for i := range doc.BufferViews {
		bv := &doc.BufferViews[i]
		buf := &doc.Buffers[bv.Buffer]
		if bv.ByteOffset < 0 || bv.ByteLength < 1 {
			return newEntityError(ErrInvalidAccessorLayout, "bufferView", i, "negative offset or empty view")
		}
		if bv.ByteOffset+bv.ByteLength > buf.ByteLength {
			return newEntityError(ErrInvalidAccessorLayout, "bufferView", i,
				fmt.Sprintf("view [%d, %d) exceeds buffer length %d",
					bv.ByteOffset, bv.ByteOffset+bv.ByteLength, buf.ByteLength))
		}
		if s := bv.ByteStride; s != nil {
			if *s < 4 || *s > 252 || *s%4 != 0 {
				return newEntityError(ErrInvalidAccessorLayout, "bufferView", i,
					fmt.Sprintf("byteStride %d must be a multiple of 4 in [4, 252]", *s))
			}
		}
	}

	for i := range doc.Accessors {
		a := &doc.Accessors[i]

		compSize := a.ComponentType.Size()
		if compSize == 0 {
			return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
				fmt.Sprintf("unknown componentType %d", a.ComponentType))
		}
		compCount := a.Type.Components()
		if compCount == 0 {
			return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
				fmt.Sprintf("unknown element type %q", a.Type))
		}
		if a.Count < 1 {
			return newEntityError(ErrInvalidAccessorLayout, "accessor", i, "count must be at least 1")
		}
		if a.Normalized && (a.ComponentType == ComponentTypeFloat || a.ComponentType == ComponentTypeUnsignedInt) {
			return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
				fmt.Sprintf("normalized is only valid for byte and short component types, not %d", a.ComponentType))
		}
		if a.ByteOffset < 0 || a.ByteOffset%compSize != 0 {
			return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
				fmt.Sprintf("byteOffset %d is not a multiple of component size %d", a.ByteOffset, compSize))
		}

		elemSize := compSize * compCount

		if a.BufferView != nil {
			bv := &doc.BufferViews[*a.BufferView]
			if (bv.ByteOffset+a.ByteOffset)%compSize != 0 {
				return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
					"combined view and accessor offset is not aligned to the component size")
			}

			stride := elemSize
			if bv.ByteStride != nil {
				stride = *bv.ByteStride
				if stride < elemSize {
					return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
						fmt.Sprintf("view stride %d is smaller than element size %d", stride, elemSize))
				}
			}

			span := a.ByteOffset + (a.Count-1)*stride + elemSize
			if span > bv.ByteLength {
				return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
					fmt.Sprintf("span %d exceeds view length %d", span, bv.ByteLength))
			}
		}

		if s := a.Sparse; s != nil {
			if s.Count < 1 || s.Count > a.Count {
				return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
					fmt.Sprintf("sparse count %d outside [1, %d]", s.Count, a.Count))
			}

			idxSize := s.Indices.ComponentType.Size()
			if !s.Indices.ComponentType.Unsigned() || idxSize == 0 {
				return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
					"sparse indices must use an unsigned integer component type")
			}
			ibv := &doc.BufferViews[s.Indices.BufferView]
			if ibv.ByteStride != nil {
				return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
					"sparse indices view must not declare a byteStride")
			}
			if s.Indices.ByteOffset < 0 || s.Indices.ByteOffset+s.Count*idxSize > ibv.ByteLength {
				return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
					"sparse indices exceed their view")
			}

			vbv := &doc.BufferViews[s.Values.BufferView]
			if vbv.ByteStride != nil {
				return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
					"sparse values view must not declare a byteStride")
			}
			if s.Values.ByteOffset < 0 || s.Values.ByteOffset+s.Count*elemSize > vbv.ByteLength {
				return newEntityError(ErrInvalidAccessorLayout, "accessor", i,
					"sparse values exceed their view")
			}
		}
	}

	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.Matrix != nil && (n.Translation != nil || n.Rotation != nil || n.Scale != nil) {
			return newEntityError(ErrInvalidAccessorLayout, "node", i,
				"matrix is mutually exclusive with translation/rotation/scale")
		}
	}

	return nil
}
