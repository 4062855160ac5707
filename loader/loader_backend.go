package loader

import "io"

// loaderBackend defines the generic interface for loading documents from
// files or streams. Concrete implementations (e.g., gltfLoaderBackend) handle
// format-specific details.
type loaderBackend interface {
	// Load performs a full document import from the given file path. The
	// result is parsed, validated, and has every buffer resolved.
	//
	// Parameters:
	//   - path: the file path to load
	//
	// Returns:
	//   - *Document: the imported document
	//   - error: error if loading fails
	Load(path string) (*Document, error)

	// LoadReader imports a document from a reader stream. External buffer
	// URIs require a configured URIResolver since a stream has no base
	// directory.
	//
	// Parameters:
	//   - r: the reader providing document data
	//   - isGLB: true if the reader provides GLB binary data, false for JSON text
	//
	// Returns:
	//   - *Document: the imported document
	//   - error: error if loading fails
	LoadReader(r io.Reader, isGLB bool) (*Document, error)
}
