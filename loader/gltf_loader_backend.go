package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// backendSettings carries the loader-level configuration the backend needs to
// build an import pipeline per load.
type backendSettings struct {
	parse         parseOptions
	allowList     []string
	resolver      URIResolver
	registry      *extensionRegistry
	workers       int
	maxBufferSize int
	log           *zap.Logger
}

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	settings backendSettings
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
// It delegates to the gltfImporter for parsing, validation, and buffer
// resolution.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - settings: the loader-level configuration
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(settings backendSettings) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{settings: settings}
}

func (b *gltfLoaderBackendImpl) Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	resolver := b.settings.resolver
	if resolver == nil {
		resolver = FileResolver{BaseDir: filepath.Dir(path)}
	}

	importer := b.newImporter(resolver)
	doc, err := importer.Import(data, detectGLB(path, data))
	if err != nil {
		return nil, err
	}

	b.settings.log.Debug("imported document",
		zap.String("path", path),
		zap.String("summary", describeDocument(doc)),
	)
	return doc, nil
}

func (b *gltfLoaderBackendImpl) LoadReader(r io.Reader, isGLB bool) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document stream: %w", err)
	}

	// Streams have no base directory; external URIs only work with an
	// explicitly configured resolver.
	importer := b.newImporter(b.settings.resolver)
	return importer.Import(data, isGLB)
}

// newImporter builds an import pipeline bound to the given resolver.
func (b *gltfLoaderBackendImpl) newImporter(resolver URIResolver) gltfImporter {
	return newGLTFImporter(importOptions{
		parse:         b.settings.parse,
		implemented:   implementedSet(b.settings.registry, b.settings.allowList),
		resolver:      resolver,
		registry:      b.settings.registry,
		workers:       b.settings.workers,
		maxBufferSize: b.settings.maxBufferSize,
	}, b.settings.log)
}
