package loader

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// URIResolver supplies the bytes behind an external buffer URI. It is the
// caller-supplied collaborator for everything outside the document: the core
// never performs I/O on its own beyond the default file resolver. Resolution
// may block (disk or network); callers in asynchronous environments supply
// their own non-blocking implementation.
type URIResolver interface {
	// Resolve returns the complete byte contents behind uri.
	//
	// Parameters:
	//   - uri: the URI as written in the document
	//
	// Returns:
	//   - []byte: the bytes, which must cover the declared buffer length
	//   - error: error if the bytes cannot be supplied
	Resolve(uri string) ([]byte, error)
}

// FileResolver resolves URIs as paths relative to a base directory. It is the
// default collaborator, matching how documents reference sibling .bin files.
type FileResolver struct {
	// BaseDir is the directory containing the document.
	BaseDir string
}

var _ URIResolver = FileResolver{}

// Resolve reads the file at BaseDir/uri.
func (f FileResolver) Resolve(uri string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(f.BaseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to read buffer file %q: %w", uri, err)
	}
	return data, nil
}

// bufferResolverImpl is the implementation of the bufferResolver interface.
type bufferResolverImpl struct {
	resolver      URIResolver
	workers       int
	maxBufferSize int
	log           *zap.Logger
}

// bufferResolver loads or decodes each buffer's bytes into a contiguous byte
// region: embedded base64 data URIs are decoded inline, a bufferless URI
// binds to the GLB binary chunk, and external URIs are delegated to the
// URIResolver collaborator. External fetches for multiple buffers are fanned
// out across a worker pool since they may block on I/O. Resolved regions are
// never mutated after resolution.
type bufferResolver interface {
	// ResolveAll populates Data on every buffer in doc.
	//
	// Parameters:
	//   - doc: the validated document whose buffers need bytes
	//   - binChunk: the GLB binary chunk, nil for plain-text documents
	//
	// Returns:
	//   - error: a BufferUnavailable error naming the first failing buffer
	ResolveAll(doc *Document, binChunk []byte) error
}

var _ bufferResolver = &bufferResolverImpl{}

// newBufferResolver creates a buffer resolver.
//
// Parameters:
//   - resolver: the external byte-loading collaborator, may be nil when the
//     document has no external buffers
//   - workers: worker pool size for concurrent external fetches
//   - maxBufferSize: upper bound in bytes on any single declared buffer, 0
//     for no bound
//   - log: structured logger, never nil
//
// Returns:
//   - bufferResolver: a new resolver instance
func newBufferResolver(resolver URIResolver, workers, maxBufferSize int, log *zap.Logger) bufferResolver {
	if workers < 1 {
		workers = 1
	}
	return &bufferResolverImpl{
		resolver:      resolver,
		workers:       workers,
		maxBufferSize: maxBufferSize,
		log:           log,
	}
}

func (r *bufferResolverImpl) ResolveAll(doc *Document, binChunk []byte) error {
	var external []int

	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		if r.maxBufferSize > 0 && buf.ByteLength > r.maxBufferSize {
			return &Error{
				Kind: ErrBufferUnavailable, Entity: "buffer", Index: i,
				msg: fmt.Sprintf("declared length %d exceeds configured maximum %d", buf.ByteLength, r.maxBufferSize),
			}
		}

		switch {
		case buf.URI == "":
			// By convention a bufferless URI binds buffer 0 to the GLB
			// binary chunk. The chunk may carry up to 3 trailing padding
			// bytes from 4-byte alignment.
			if i != 0 || binChunk == nil {
				return newEntityError(ErrBufferUnavailable, "buffer", i, "no URI and no binary chunk to bind")
			}
			if len(binChunk) < buf.ByteLength {
				return newEntityError(ErrBufferUnavailable, "buffer", i,
					fmt.Sprintf("binary chunk has %d bytes, buffer declares %d", len(binChunk), buf.ByteLength))
			}
			buf.Data = binChunk[:buf.ByteLength]

		case strings.HasPrefix(buf.URI, "data:"):
			data, err := decodeDataURI(buf.URI)
			if err != nil {
				return &Error{Kind: ErrBufferUnavailable, Entity: "buffer", Index: i, err: err}
			}
			if len(data) != buf.ByteLength {
				return newEntityError(ErrBufferUnavailable, "buffer", i,
					fmt.Sprintf("embedded data has %d bytes, buffer declares %d", len(data), buf.ByteLength))
			}
			buf.Data = data

		default:
			external = append(external, i)
		}
	}

	if len(external) == 0 {
		return nil
	}
	if r.resolver == nil {
		i := external[0]
		return &Error{
			Kind: ErrBufferUnavailable, Entity: "buffer", Index: i,
			Name: doc.Buffers[i].URI, msg: "no URI resolver configured",
		}
	}

	return r.resolveExternal(doc, external)
}

// resolveExternal fans the external fetches out across a worker pool with a
// WaitGroup barrier. The first failure wins; later results are discarded.
func (r *bufferResolverImpl) resolveExternal(doc *Document, external []int) error {
	pool := worker.NewDynamicWorkerPool(min(r.workers, len(external)), len(external), 1*time.Second)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for taskID, idx := range external {
		wg.Add(1)
		i := idx
		pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()

				buf := &doc.Buffers[i]
				data, err := r.resolver.Resolve(buf.URI)
				if err == nil && len(data) != buf.ByteLength {
					err = fmt.Errorf("resolver returned %d bytes, buffer declares %d", len(data), buf.ByteLength)
				}

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = &Error{
							Kind: ErrBufferUnavailable, Entity: "buffer", Index: i,
							Name: buf.URI, err: err,
						}
					}
					return nil, err
				}
				if firstErr == nil {
					buf.Data = data
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	r.log.Debug("resolved external buffers", zap.Int("count", len(external)))
	return nil
}

// decodeDataURI decodes a base64 data URI.
// Format: data:[<mediatype>][;base64],<data>
func decodeDataURI(uri string) ([]byte, error) {
	commaIdx := strings.Index(uri, ",")
	if commaIdx < 0 {
		return nil, fmt.Errorf("invalid data URI")
	}

	header := uri[5:commaIdx]
	dataStr := uri[commaIdx+1:]

	if !strings.Contains(header, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}

	data, err := base64.StdEncoding.DecodeString(dataStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	return data, nil
}
