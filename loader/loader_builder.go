package loader

import (
	"github.com/Carmen-Shannon/gltf-go/config"
	"go.uber.org/zap"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithConfig is an option builder that sets the configuration used by the Loader.
//
// Parameters:
//   - cfg: the loader configuration
//
// Returns:
//   - LoaderBuilderOption: a function that applies the config option to a loader
func WithConfig(cfg *config.Config) LoaderBuilderOption {
	return func(l *loader) {
		l.cfg = cfg
	}
}

// WithLogger is an option builder that sets the structured logger used by the Loader.
//
// Parameters:
//   - log: the zap logger instance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the logger option to a loader
func WithLogger(log *zap.Logger) LoaderBuilderOption {
	return func(l *loader) {
		l.log = log
	}
}

// WithURIResolver is an option builder that sets the external buffer resolver.
// When unset, file loads resolve URIs relative to the document's directory
// and reader loads fail on external URIs.
//
// Parameters:
//   - r: the URI resolver collaborator
//
// Returns:
//   - LoaderBuilderOption: a function that applies the resolver option to a loader
func WithURIResolver(r URIResolver) LoaderBuilderOption {
	return func(l *loader) {
		l.resolver = r
	}
}

// WithExtension is an option builder that registers a typed extension decoder
// at construction time.
//
// Parameters:
//   - name: the extension name as it appears in documents
//   - decoder: the payload decoder
//
// Returns:
//   - LoaderBuilderOption: a function that applies the extension option to a loader
func WithExtension(name string, decoder ExtensionDecoder) LoaderBuilderOption {
	return func(l *loader) {
		l.registry.register(name, decoder)
	}
}

// WithDocument is an option builder that pre-populates the document cache.
//
// Parameters:
//   - key: the cache key for the document
//   - doc: the document to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the document option to a loader
func WithDocument(key string, doc *Document) LoaderBuilderOption {
	return func(l *loader) {
		l.documentCache[key] = doc
	}
}
