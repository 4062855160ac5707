package loader

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// importOptions carries everything the import pipeline needs beyond the raw
// bytes themselves.
type importOptions struct {
	parse         parseOptions
	implemented   map[string]struct{}
	resolver      URIResolver
	registry      *extensionRegistry
	workers       int
	maxBufferSize int
}

// gltfImporterImpl is the implementation of the gltfImporter interface.
type gltfImporterImpl struct {
	parser    gltfParser
	validator gltfValidator
	resolver  bufferResolver
	registry  *extensionRegistry
	log       *zap.Logger
}

// gltfImporter runs the full import pipeline over raw document bytes:
// container unwrap (for GLB), JSON parse, reference validation, then buffer
// resolution. Each stage must succeed before the next runs, so a document
// that fails validation never triggers buffer I/O.
type gltfImporter interface {
	// Import runs the pipeline over raw bytes.
	//
	// Parameters:
	//   - data: the complete file contents, GLB or JSON text
	//   - isGLB: whether data is a GLB container; when false the bytes are
	//     treated as JSON text even if they begin with the GLB magic
	//
	// Returns:
	//   - *Document: the validated document with buffers resolved
	//   - error: the first structured error from any stage
	Import(data []byte, isGLB bool) (*Document, error)
}

var _ gltfImporter = &gltfImporterImpl{}

// newGLTFImporter wires the pipeline stages together.
//
// Parameters:
//   - opts: capture toggles, extension set, resolver and limits
//   - log: structured logger, never nil
//
// Returns:
//   - gltfImporter: a new importer instance
func newGLTFImporter(opts importOptions, log *zap.Logger) gltfImporter {
	return &gltfImporterImpl{
		parser:    newGLTFParser(opts.parse, log),
		validator: newGLTFValidator(opts.implemented, log),
		resolver:  newBufferResolver(opts.resolver, opts.workers, opts.maxBufferSize, log),
		registry:  opts.registry,
		log:       log,
	}
}

func (im *gltfImporterImpl) Import(data []byte, isGLB bool) (*Document, error) {
	var (
		jsonChunk = data
		binChunk  []byte
	)

	if isGLB {
		container, err := unwrapGLB(data)
		if err != nil {
			return nil, err
		}
		jsonChunk = container.jsonChunk
		binChunk = container.binChunk
	}

	doc, err := im.parser.Parse(jsonChunk)
	if err != nil {
		return nil, err
	}

	if err := im.validator.Validate(doc); err != nil {
		return nil, err
	}

	if err := im.resolver.ResolveAll(doc, binChunk); err != nil {
		return nil, err
	}

	doc.registry = im.registry
	return doc, nil
}

// detectGLB decides whether bytes at path should be treated as a GLB
// container, by extension first and magic bytes as a fallback for files with
// unhelpful names.
func detectGLB(path string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(path), ".glb") {
		return true
	}
	if strings.HasSuffix(strings.ToLower(path), ".gltf") {
		return false
	}
	return isGLB(data)
}

// implementedSet merges the registered decoder names with a configured
// allow-list into the validator's implemented-extension set.
func implementedSet(registry *extensionRegistry, allowList []string) map[string]struct{} {
	set := make(map[string]struct{}, len(allowList))
	for _, name := range registry.names() {
		set[name] = struct{}{}
	}
	for _, name := range allowList {
		set[name] = struct{}{}
	}
	return set
}

// describeDocument is a compact one-line summary used for debug logging.
func describeDocument(doc *Document) string {
	return fmt.Sprintf("scenes=%d nodes=%d meshes=%d accessors=%d buffers=%d animations=%d",
		len(doc.Scenes), len(doc.Nodes), len(doc.Meshes),
		len(doc.Accessors), len(doc.Buffers), len(doc.Animations))
}
