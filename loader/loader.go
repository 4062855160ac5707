package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/gltf-go/common"
	"github.com/Carmen-Shannon/gltf-go/config"
	"go.uber.org/zap"
)

// LoaderBackendType identifies the document file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	cfg      *config.Config
	log      *zap.Logger
	resolver URIResolver
	registry *extensionRegistry

	documentCache map[string]*Document

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching glTF
// documents. It abstracts the file format (JSON text or GLB container)
// behind a generic backend and manages a cache of previously loaded
// documents. All methods are safe for concurrent use; cached documents are
// immutable after load, so a document returned to two goroutines may be read
// from both without coordination.
type Loader interface {
	// Load imports a document file and caches the result. If the document
	// is already cached (by file path), the cached version is returned.
	// The container format is detected from the file extension, falling
	// back to the GLB magic bytes for unhelpful names.
	//
	// Parameters:
	//   - path: the file path to the document file
	//
	// Returns:
	//   - *Document: the loaded and cached document
	//   - error: error if loading fails
	Load(path string) (*Document, error)

	// LoadReader imports a document from a reader stream and caches it by
	// the given name. External buffer URIs require a URIResolver configured
	// via WithURIResolver since a stream has no base directory.
	//
	// Parameters:
	//   - name: the cache key for the loaded document
	//   - r: the reader providing document data
	//   - isGLB: true if the reader provides GLB binary data
	//
	// Returns:
	//   - *Document: the loaded document
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader, isGLB bool) (*Document, error)

	// Get retrieves a cached document by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Document: the cached document or nil
	Get(name string) *Document

	// Documents returns the full document cache.
	//
	// Returns:
	//   - map[string]*Document: all cached documents keyed by name
	Documents() map[string]*Document

	// RegisterExtension registers a typed decoder for an extension name.
	// Registered names count as implemented: documents requiring them pass
	// the required-extension gate, and their payloads can be decoded via
	// Document.DecodeExtension. Registration affects subsequent loads only.
	//
	// Parameters:
	//   - name: the extension name as it appears in documents
	//   - decoder: the payload decoder
	RegisterExtension(name string, decoder ExtensionDecoder)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and
// options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:            sync.RWMutex{},
		registry:      newExtensionRegistry(),
		documentCache: make(map[string]*Document),
	}

	for _, option := range options {
		option(l)
	}

	l.cfg = common.Coalesce(l.cfg, config.Default())
	if l.log == nil {
		l.log = zap.NewNop()
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(backendSettings{
			parse: parseOptions{
				captureExtras: l.cfg.Capture.Extras,
				captureNames:  l.cfg.Capture.Names,
			},
			allowList:     l.cfg.Extensions.AllowList,
			resolver:      l.resolver,
			registry:      l.registry,
			workers:       l.cfg.Resolver.Workers,
			maxBufferSize: l.cfg.Resolver.MaxBufferSizeMB * 1024 * 1024,
			log:           l.log,
		})
	}

	return l
}

func (l *loader) Load(path string) (*Document, error) {
	l.mu.RLock()
	if cached, ok := l.documentCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	doc, err := backend.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.documentCache[path] = doc
	l.mu.Unlock()

	return doc, nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (*Document, error) {
	l.mu.RLock()
	if cached, ok := l.documentCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	doc, err := l.backend.LoadReader(r, isGLB)
	if err != nil {
		return nil, fmt.Errorf("failed to load from reader %q: %w", name, err)
	}

	l.mu.Lock()
	l.documentCache[name] = doc
	l.mu.Unlock()

	return doc, nil
}

func (l *loader) Get(name string) *Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.documentCache[name]
}

func (l *loader) Documents() map[string]*Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Document, len(l.documentCache))
	for k, v := range l.documentCache {
		result[k] = v
	}
	return result
}

func (l *loader) RegisterExtension(name string, decoder ExtensionDecoder) {
	l.registry.register(name, decoder)
}

// resolveBackend selects an appropriate loader backend based on the file
// extension. Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		return l.backend, nil
	default:
		return nil, fmt.Errorf("unsupported document format: %s", ext)
	}
}
