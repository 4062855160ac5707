// gltf_types.go contains glTF 2.0 spec data structures for JSON deserialization.
// These types map directly to the glTF 2.0 JSON schema and form the document graph
// returned to callers after validation.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

import "encoding/json"

// --- glTF Root Structure ---

// Document represents the root of a glTF document graph.
// It is produced by parsing, fixed during validation, and read-only thereafter.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-gltf
type Document struct {
	// Asset contains metadata about the glTF asset.
	Asset Asset `json:"asset"`

	// Scene is the index of the default scene.
	Scene *int `json:"scene,omitempty"`

	// Scenes is an array of scenes.
	Scenes []Scene `json:"scenes,omitempty"`

	// Nodes is an array of nodes (transform hierarchy).
	Nodes []Node `json:"nodes,omitempty"`

	// Meshes is an array of meshes.
	Meshes []Mesh `json:"meshes,omitempty"`

	// Accessors define how to interpret buffer data.
	Accessors []Accessor `json:"accessors,omitempty"`

	// BufferViews define portions of buffers.
	BufferViews []BufferView `json:"bufferViews,omitempty"`

	// Buffers are raw binary data containers.
	Buffers []Buffer `json:"buffers,omitempty"`

	// Materials is an array of materials.
	Materials []Material `json:"materials,omitempty"`

	// Textures is an array of textures.
	Textures []Texture `json:"textures,omitempty"`

	// Images is an array of images.
	Images []Image `json:"images,omitempty"`

	// Samplers define texture sampling parameters.
	Samplers []Sampler `json:"samplers,omitempty"`

	// Skins is an array of skins (skeletal animation binding).
	Skins []Skin `json:"skins,omitempty"`

	// Animations is an array of animations.
	Animations []Animation `json:"animations,omitempty"`

	// Cameras is an array of cameras.
	Cameras []Camera `json:"cameras,omitempty"`

	// ExtensionsUsed lists extensions used by this asset.
	ExtensionsUsed []string `json:"extensionsUsed,omitempty"`

	// ExtensionsRequired lists extensions required to load this asset.
	ExtensionsRequired []string `json:"extensionsRequired,omitempty"`

	// Extensions holds unrecognized extension payloads keyed by extension name.
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`

	// Extras is opaque application-specific data.
	Extras json.RawMessage `json:"extras,omitempty"`

	// validated is set once the reference validator has accepted the document.
	validated bool

	// registry resolves extension payloads to typed values; shared with the
	// Loader that produced this document.
	registry *extensionRegistry

	// nodesByName and friends back the by-name query surface. Only populated
	// when name capture is enabled.
	nodesByName     map[string]int
	meshesByName    map[string]int
	accessorsByName map[string]int
	animsByName     map[string]int
}

// Validated reports whether this document passed reference validation.
func (d *Document) Validated() bool {
	return d.validated
}

// --- Asset Metadata ---

// Asset contains metadata about the glTF asset.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-asset
type Asset struct {
	// Version is the glTF version (required, must be "2.0").
	Version string `json:"version"`

	// MinVersion is the minimum glTF version required.
	MinVersion string `json:"minVersion,omitempty"`

	// Generator is the tool that generated this asset.
	Generator string `json:"generator,omitempty"`

	// Copyright information.
	Copyright string `json:"copyright,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// --- Scene Graph ---

// Scene is a set of visual objects to render.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-scene
type Scene struct {
	// Name is an optional name for this scene.
	Name string `json:"name,omitempty"`

	// Nodes are the indices of root nodes in this scene.
	Nodes []int `json:"nodes,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Node is a node in the node hierarchy. The node relation graph is a forest:
// each node has at most one parent and no node is its own ancestor.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-node
type Node struct {
	// Name is an optional name for this node.
	Name string `json:"name,omitempty"`

	// Children are indices of child nodes.
	Children []int `json:"children,omitempty"`

	// Mesh is the index of the mesh in this node.
	Mesh *int `json:"mesh,omitempty"`

	// Skin is the index of the skin for this node (skeletal animation).
	Skin *int `json:"skin,omitempty"`

	// Camera is the index of the camera referenced by this node.
	Camera *int `json:"camera,omitempty"`

	// Matrix is a 4x4 transformation matrix (column-major).
	// Mutually exclusive with Translation/Rotation/Scale.
	Matrix *[16]float32 `json:"matrix,omitempty"`

	// Translation is the node's translation (x, y, z).
	Translation *[3]float32 `json:"translation,omitempty"`

	// Rotation is the node's rotation as a quaternion (x, y, z, w).
	Rotation *[4]float32 `json:"rotation,omitempty"`

	// Scale is the node's scale (x, y, z).
	Scale *[3]float32 `json:"scale,omitempty"`

	// Weights are morph target weights (for blend shapes).
	Weights []float32 `json:"weights,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// --- Mesh Data ---

// Mesh is a set of primitives to be rendered.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-mesh
type Mesh struct {
	// Name is an optional name for this mesh.
	Name string `json:"name,omitempty"`

	// Primitives defines the geometry to render.
	Primitives []Primitive `json:"primitives"`

	// Weights are default morph target weights.
	Weights []float32 `json:"weights,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Primitive defines geometry for rendering.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-mesh-primitive
type Primitive struct {
	// Attributes is a map of attribute semantic to accessor index.
	// Standard attributes: POSITION, NORMAL, TANGENT, TEXCOORD_0, COLOR_0, JOINTS_0, WEIGHTS_0
	Attributes map[string]int `json:"attributes"`

	// Indices is the accessor index for the index buffer.
	Indices *int `json:"indices,omitempty"`

	// Material is the material index.
	Material *int `json:"material,omitempty"`

	// Mode is the primitive topology.
	// 0=POINTS, 1=LINES, 2=LINE_LOOP, 3=LINE_STRIP, 4=TRIANGLES (default), 5=TRIANGLE_STRIP, 6=TRIANGLE_FAN
	Mode *int `json:"mode,omitempty"`

	// Targets are morph targets for this primitive.
	Targets []map[string]int `json:"targets,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// PrimitiveMode constants
const (
	PrimitiveModePoints        = 0
	PrimitiveModeLines         = 1
	PrimitiveModeLineLoop      = 2
	PrimitiveModeLineStrip     = 3
	PrimitiveModeTriangles     = 4
	PrimitiveModeTriangleStrip = 5
	PrimitiveModeTriangleFan   = 6
)

// --- Buffer Data ---

// ComponentType identifies the scalar storage type of accessor components.
type ComponentType int

// ComponentType constants
const (
	ComponentTypeByte          ComponentType = 5120
	ComponentTypeUnsignedByte  ComponentType = 5121
	ComponentTypeShort         ComponentType = 5122
	ComponentTypeUnsignedShort ComponentType = 5123
	ComponentTypeUnsignedInt   ComponentType = 5125
	ComponentTypeFloat         ComponentType = 5126
)

// Size returns the byte size of one component, or 0 for an unknown type.
func (c ComponentType) Size() int {
	switch c {
	case ComponentTypeByte, ComponentTypeUnsignedByte:
		return 1
	case ComponentTypeShort, ComponentTypeUnsignedShort:
		return 2
	case ComponentTypeUnsignedInt, ComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// Unsigned reports whether the component type is an unsigned integer type.
func (c ComponentType) Unsigned() bool {
	switch c {
	case ComponentTypeUnsignedByte, ComponentTypeUnsignedShort, ComponentTypeUnsignedInt:
		return true
	default:
		return false
	}
}

// ElementType identifies the element shape of an accessor (scalar or a
// fixed-size numeric tuple).
type ElementType string

// ElementType constants
const (
	ElementTypeScalar ElementType = "SCALAR"
	ElementTypeVec2   ElementType = "VEC2"
	ElementTypeVec3   ElementType = "VEC3"
	ElementTypeVec4   ElementType = "VEC4"
	ElementTypeMat2   ElementType = "MAT2"
	ElementTypeMat3   ElementType = "MAT3"
	ElementTypeMat4   ElementType = "MAT4"

	// ElementTypeAny skips the shape check at view construction.
	ElementTypeAny ElementType = ""
)

// Components returns the number of components per element, or 0 for an
// unknown element type.
func (e ElementType) Components() int {
	switch e {
	case ElementTypeScalar:
		return 1
	case ElementTypeVec2:
		return 2
	case ElementTypeVec3:
		return 3
	case ElementTypeVec4:
		return 4
	case ElementTypeMat2:
		return 4
	case ElementTypeMat3:
		return 9
	case ElementTypeMat4:
		return 16
	default:
		return 0
	}
}

// Accessor defines how to interpret buffer data.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-accessor
type Accessor struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// BufferView is the index of the bufferView. When absent, the accessor's
	// base elements are all zero (used together with Sparse).
	BufferView *int `json:"bufferView,omitempty"`

	// ByteOffset is the offset within the bufferView.
	ByteOffset int `json:"byteOffset,omitempty"`

	// ComponentType is the data type of components.
	ComponentType ComponentType `json:"componentType"`

	// Normalized indicates if integer data should be normalized.
	Normalized bool `json:"normalized,omitempty"`

	// Count is the number of elements.
	Count int `json:"count"`

	// Type is the element type (SCALAR, VEC2, VEC3, VEC4, MAT2, MAT3, MAT4).
	Type ElementType `json:"type"`

	// Max is the maximum value of each component.
	Max []float32 `json:"max,omitempty"`

	// Min is the minimum value of each component.
	Min []float32 `json:"min,omitempty"`

	// Sparse defines sparse storage of accessor values.
	Sparse *AccessorSparse `json:"sparse,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// ElementSize returns the byte size of one element (component size times
// component count).
func (a *Accessor) ElementSize() int {
	return a.ComponentType.Size() * a.Type.Components()
}

// AccessorSparse defines sparse storage: a mostly-zero (or base) accessor with
// a small explicit set of index/value overrides.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-accessor-sparse
type AccessorSparse struct {
	// Count is the number of sparse entries.
	Count int `json:"count"`

	// Indices locates the strictly increasing override indices.
	Indices SparseIndices `json:"indices"`

	// Values locates the override values, tightly packed.
	Values SparseValues `json:"values"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// SparseIndices locates the sparse override indices within a bufferView.
type SparseIndices struct {
	BufferView    int           `json:"bufferView"`
	ByteOffset    int           `json:"byteOffset,omitempty"`
	ComponentType ComponentType `json:"componentType"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// SparseValues locates the sparse override values within a bufferView.
type SparseValues struct {
	BufferView int `json:"bufferView"`
	ByteOffset int `json:"byteOffset,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// BufferView represents a subset of a buffer.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-bufferview
type BufferView struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// Buffer is the index of the buffer.
	Buffer int `json:"buffer"`

	// ByteOffset is the offset into the buffer.
	ByteOffset int `json:"byteOffset,omitempty"`

	// ByteLength is the length of the bufferView.
	ByteLength int `json:"byteLength"`

	// ByteStride is the stride for interleaved data (optional).
	ByteStride *int `json:"byteStride,omitempty"`

	// Target is the intended GPU buffer type.
	// 34962=ARRAY_BUFFER, 34963=ELEMENT_ARRAY_BUFFER
	Target *int `json:"target,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// BufferView target constants
const (
	TargetArrayBuffer        = 34962
	TargetElementArrayBuffer = 34963
)

// Buffer represents binary data.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-buffer
type Buffer struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// URI is the URI of the buffer data (can be data: URI or external file).
	// An empty URI binds the buffer to the GLB binary chunk.
	URI string `json:"uri,omitempty"`

	// ByteLength is the length of the buffer.
	ByteLength int `json:"byteLength"`

	// Data holds the resolved binary data (not part of JSON, populated by the
	// buffer resolver and never mutated afterwards).
	Data []byte `json:"-"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// --- Materials and Textures ---

// Material defines the material appearance of a primitive.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-material
type Material struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// PbrMetallicRoughness is the PBR metallic-roughness model.
	PbrMetallicRoughness *PbrMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`

	// NormalTexture is the normal map.
	NormalTexture *NormalTextureInfo `json:"normalTexture,omitempty"`

	// OcclusionTexture is the occlusion map.
	OcclusionTexture *OcclusionTextureInfo `json:"occlusionTexture,omitempty"`

	// EmissiveTexture is the emissive map.
	EmissiveTexture *TextureInfo `json:"emissiveTexture,omitempty"`

	// EmissiveFactor is the emissive color (RGB).
	EmissiveFactor *[3]float32 `json:"emissiveFactor,omitempty"`

	// AlphaMode is the alpha rendering mode: "OPAQUE" (default), "MASK", "BLEND".
	AlphaMode string `json:"alphaMode,omitempty"`

	// AlphaCutoff is the alpha cutoff for MASK mode.
	AlphaCutoff *float32 `json:"alphaCutoff,omitempty"`

	// DoubleSided indicates if the material is double-sided.
	DoubleSided bool `json:"doubleSided,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// PbrMetallicRoughness is the metallic-roughness material model.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-material-pbrmetallicroughness
type PbrMetallicRoughness struct {
	// BaseColorFactor is the base color (RGBA).
	BaseColorFactor *[4]float32 `json:"baseColorFactor,omitempty"`

	// BaseColorTexture is the base color texture.
	BaseColorTexture *TextureInfo `json:"baseColorTexture,omitempty"`

	// MetallicFactor is the metalness (0.0 = dielectric, 1.0 = metal).
	MetallicFactor *float32 `json:"metallicFactor,omitempty"`

	// RoughnessFactor is the roughness (0.0 = smooth, 1.0 = rough).
	RoughnessFactor *float32 `json:"roughnessFactor,omitempty"`

	// MetallicRoughnessTexture contains metallic (B) and roughness (G) channels.
	MetallicRoughnessTexture *TextureInfo `json:"metallicRoughnessTexture,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// TextureInfo references a texture.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-textureinfo
type TextureInfo struct {
	// Index is the texture index.
	Index int `json:"index"`

	// TexCoord is the UV set to use (default 0).
	TexCoord int `json:"texCoord,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// NormalTextureInfo references a normal map.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-material-normaltextureinfo
type NormalTextureInfo struct {
	TextureInfo

	// Scale is the normal scale factor.
	Scale *float32 `json:"scale,omitempty"`
}

// OcclusionTextureInfo references an occlusion map.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-material-occlusiontextureinfo
type OcclusionTextureInfo struct {
	TextureInfo

	// Strength is the occlusion strength.
	Strength *float32 `json:"strength,omitempty"`
}

// Texture combines an image and a sampler.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-texture
type Texture struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// Sampler is the sampler index.
	Sampler *int `json:"sampler,omitempty"`

	// Source is the image index.
	Source *int `json:"source,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Image is a texture image source. Pixel decoding is not performed here;
// callers receive the URI or bufferView reference as-is.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-image
type Image struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// URI is the image URI (can be data: URI or external file).
	URI string `json:"uri,omitempty"`

	// MimeType is the MIME type when embedded in a bufferView.
	MimeType string `json:"mimeType,omitempty"`

	// BufferView is the index of the bufferView containing the image.
	BufferView *int `json:"bufferView,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Sampler defines texture sampling parameters.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-sampler
type Sampler struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// MagFilter is the magnification filter.
	// 9728=NEAREST, 9729=LINEAR
	MagFilter *int `json:"magFilter,omitempty"`

	// MinFilter is the minification filter.
	// 9728=NEAREST, 9729=LINEAR, 9984-9987=mipmapped variants
	MinFilter *int `json:"minFilter,omitempty"`

	// WrapS is the U wrapping mode.
	// 33071=CLAMP_TO_EDGE, 33648=MIRRORED_REPEAT, 10497=REPEAT (default)
	WrapS *int `json:"wrapS,omitempty"`

	// WrapT is the V wrapping mode.
	WrapT *int `json:"wrapT,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Sampler filter constants
const (
	FilterNearest              = 9728
	FilterLinear               = 9729
	FilterNearestMipmapNearest = 9984
	FilterLinearMipmapNearest  = 9985
	FilterNearestMipmapLinear  = 9986
	FilterLinearMipmapLinear   = 9987
)

// Sampler wrap constants
const (
	WrapClampToEdge    = 33071
	WrapMirroredRepeat = 33648
	WrapRepeat         = 10497
)

// --- Cameras ---

// Camera projects a scene onto a viewing plane.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-camera
type Camera struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// Type is "perspective" or "orthographic".
	Type string `json:"type"`

	// Orthographic projection parameters, set when Type is "orthographic".
	Orthographic *CameraOrthographic `json:"orthographic,omitempty"`

	// Perspective projection parameters, set when Type is "perspective".
	Perspective *CameraPerspective `json:"perspective,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Camera type constants
const (
	CameraTypePerspective  = "perspective"
	CameraTypeOrthographic = "orthographic"
)

// CameraOrthographic holds an orthographic projection.
type CameraOrthographic struct {
	XMag  float32 `json:"xmag"`
	YMag  float32 `json:"ymag"`
	ZFar  float32 `json:"zfar"`
	ZNear float32 `json:"znear"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// CameraPerspective holds a perspective projection.
type CameraPerspective struct {
	AspectRatio *float32 `json:"aspectRatio,omitempty"`
	YFov        float32  `json:"yfov"`
	ZFar        *float32 `json:"zfar,omitempty"` // absent for infinite perspective
	ZNear       float32  `json:"znear"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// --- Skeletal Animation ---

// Skin defines how a mesh is deformed by a skeleton.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-skin
type Skin struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// InverseBindMatrices is the accessor index for the inverse bind matrices.
	// When absent, each matrix is the 4x4 identity.
	InverseBindMatrices *int `json:"inverseBindMatrices,omitempty"`

	// Skeleton is the node index of the skeleton root (optional).
	Skeleton *int `json:"skeleton,omitempty"`

	// Joints are the node indices of the skeleton joints (bones).
	Joints []int `json:"joints"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Animation defines keyframe animation.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-animation
type Animation struct {
	// Name is an optional name.
	Name string `json:"name,omitempty"`

	// Channels connect samplers to target nodes/properties.
	Channels []AnimChannel `json:"channels"`

	// Samplers define the keyframe data.
	Samplers []AnimSampler `json:"samplers"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// AnimChannel connects a sampler to a target.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-animation-channel
type AnimChannel struct {
	// Sampler is the sampler index within the owning animation.
	Sampler int `json:"sampler"`

	// Target specifies what to animate.
	Target AnimTarget `json:"target"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// AnimTarget specifies the animated property.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-animation-channel-target
type AnimTarget struct {
	// Node is the target node index.
	Node *int `json:"node,omitempty"`

	// Path is the animated property: "translation", "rotation", "scale", "weights".
	Path string `json:"path"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// AnimSampler defines animation keyframe data.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#reference-animation-sampler
type AnimSampler struct {
	// Input is the accessor index for keyframe times.
	Input int `json:"input"`

	// Output is the accessor index for keyframe values.
	Output int `json:"output"`

	// Interpolation mode: "LINEAR" (default), "STEP", "CUBICSPLINE".
	Interpolation string `json:"interpolation,omitempty"`

	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
	Extras     json.RawMessage            `json:"extras,omitempty"`
}

// Animation interpolation constants
const (
	AnimInterpolationLinear      = "LINEAR"
	AnimInterpolationStep        = "STEP"
	AnimInterpolationCubicSpline = "CUBICSPLINE"
)

// Animation path constants
const (
	AnimPathTranslation = "translation"
	AnimPathRotation    = "rotation"
	AnimPathScale       = "scale"
	AnimPathWeights     = "weights"
)

// --- GLB Binary Format ---

// glbHeader is the header of a GLB file (12 bytes).
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
type glbHeader struct {
	Magic   uint32 // Must be 0x46546C67 ("glTF" in ASCII)
	Version uint32 // Must be 2
	Length  uint32 // Total file length
}

// glbChunkHeader is the header of a GLB chunk (8 bytes).
type glbChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32 // 0x4E4F534A for JSON, 0x004E4942 for BIN
}

// GLB magic number and chunk type constants
const (
	glbMagic     = 0x46546C67 // "glTF" in little-endian ASCII
	glbVersion   = 2
	glbChunkJSON = 0x4E4F534A // "JSON" in little-endian ASCII
	glbChunkBIN  = 0x004E4942 // "BIN\0" in little-endian ASCII
)
