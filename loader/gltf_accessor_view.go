package loader

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// AccessorView is a lazy, strided, typed view over one accessor's elements.
// It captures only the immutable byte region plus the layout (offset, stride,
// component layout, sparse overlay) at construction; nothing is copied and no
// mutable cursor is shared, so any number of independent views and iterators
// may exist over the same accessor. Shape and layout problems surface at
// construction, never per element.
type AccessorView struct {
	data   []byte // base view bytes, nil when the accessor has no bufferView
	offset int    // accessor byte offset within data
	stride int    // effective stride between elements

	compType  ComponentType
	compSize  int
	compCount int
	normalize bool
	count     int

	sparse *sparseOverlay
}

// sparseOverlay holds a decoded sparse substitution: sorted override indices
// and a tightly packed values region.
type sparseOverlay struct {
	indices  []uint32
	values   []byte
	elemSize int
}

// AccessorView constructs a typed view over the accessor at index. The
// expected element shape is checked here: a mismatch fails with TypeMismatch
// before any element can be read. Pass ElementTypeAny to accept the
// accessor's own shape. The document must be validated and its buffers
// resolved.
//
// Parameters:
//   - index: the accessor index
//   - expected: the element shape the caller wants, or ElementTypeAny
//
// Returns:
//   - *AccessorView: the constructed view
//   - error: TypeMismatch on a shape conflict, IndexOutOfRange for a bad
//     index, InvalidAccessorLayout if a sparse overlay is inconsistent
func (d *Document) AccessorView(index int, expected ElementType) (*AccessorView, error) {
	if index < 0 || index >= len(d.Accessors) {
		return nil, newEntityError(ErrIndexOutOfRange, "accessor", index,
			fmt.Sprintf("document has %d accessors", len(d.Accessors)))
	}
	acc := &d.Accessors[index]

	if expected != ElementTypeAny && acc.Type != expected {
		return nil, newEntityError(ErrTypeMismatch, "accessor", index,
			fmt.Sprintf("accessor is %s, caller requested %s", acc.Type, expected))
	}

	v := &AccessorView{
		compType:  acc.ComponentType,
		compSize:  acc.ComponentType.Size(),
		compCount: acc.Type.Components(),
		normalize: acc.Normalized,
		count:     acc.Count,
	}
	elemSize := v.compSize * v.compCount

	if acc.BufferView != nil {
		bv := &d.BufferViews[*acc.BufferView]
		buf := &d.Buffers[bv.Buffer]
		v.data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
		v.offset = acc.ByteOffset
		v.stride = elemSize
		if bv.ByteStride != nil {
			v.stride = *bv.ByteStride
		}
	} else {
		// No buffer view: all base elements are logically zero.
		v.stride = elemSize
	}

	if acc.Sparse != nil {
		overlay, err := d.decodeSparse(index, acc, elemSize)
		if err != nil {
			return nil, err
		}
		v.sparse = overlay
	}

	return v, nil
}

// decodeSparse materializes the sparse index list (it must be strictly
// increasing and in range) and captures the packed values region.
func (d *Document) decodeSparse(accIndex int, acc *Accessor, elemSize int) (*sparseOverlay, error) {
	s := acc.Sparse

	ibv := &d.BufferViews[s.Indices.BufferView]
	ibuf := &d.Buffers[ibv.Buffer]
	idxData := ibuf.Data[ibv.ByteOffset+s.Indices.ByteOffset:]
	idxSize := s.Indices.ComponentType.Size()

	indices := make([]uint32, s.Count)
	for k := 0; k < s.Count; k++ {
		switch s.Indices.ComponentType {
		case ComponentTypeUnsignedByte:
			indices[k] = uint32(idxData[k])
		case ComponentTypeUnsignedShort:
			indices[k] = uint32(binary.LittleEndian.Uint16(idxData[k*idxSize:]))
		case ComponentTypeUnsignedInt:
			indices[k] = binary.LittleEndian.Uint32(idxData[k*idxSize:])
		}
		if int(indices[k]) >= acc.Count {
			return nil, newEntityError(ErrInvalidAccessorLayout, "accessor", accIndex,
				fmt.Sprintf("sparse index %d exceeds element count %d", indices[k], acc.Count))
		}
		if k > 0 && indices[k] <= indices[k-1] {
			return nil, newEntityError(ErrInvalidAccessorLayout, "accessor", accIndex,
				"sparse indices are not strictly increasing")
		}
	}

	vbv := &d.BufferViews[s.Values.BufferView]
	vbuf := &d.Buffers[vbv.Buffer]
	start := vbv.ByteOffset + s.Values.ByteOffset

	return &sparseOverlay{
		indices:  indices,
		values:   vbuf.Data[start : start+s.Count*elemSize],
		elemSize: elemSize,
	}, nil
}

// Count returns the number of elements in the view.
func (v *AccessorView) Count() int {
	return v.count
}

// Components returns the number of components per element.
func (v *AccessorView) Components() int {
	return v.compCount
}

// ComponentType returns the scalar storage type of the view's components.
func (v *AccessorView) ComponentType() ComponentType {
	return v.compType
}

// Normalized reports whether integer components are mapped to floating range.
func (v *AccessorView) Normalized() bool {
	return v.normalize
}

// elementBytes returns the raw bytes of the k-th element, honoring the sparse
// overlay. It returns nil for a zero base element (absent buffer view).
func (v *AccessorView) elementBytes(k int) []byte {
	if v.sparse != nil {
		pos := sort.Search(len(v.sparse.indices), func(i int) bool {
			return v.sparse.indices[i] >= uint32(k)
		})
		if pos < len(v.sparse.indices) && v.sparse.indices[pos] == uint32(k) {
			off := pos * v.sparse.elemSize
			return v.sparse.values[off : off+v.sparse.elemSize]
		}
	}
	if v.data == nil {
		return nil
	}
	off := v.offset + k*v.stride
	return v.data[off : off+v.compSize*v.compCount]
}

// Element reads the k-th element into dst as floats, applying normalization
// when the accessor is normalized: unsigned types map to [0, 1] by dividing
// by the type maximum; signed types map to [-1, 1] by dividing by the maximum
// positive value, with the most-negative raw value clamped to -1 exactly.
// dst must have at least Components() capacity; the filled prefix is
// returned. k must be in [0, Count).
func (v *AccessorView) Element(k int, dst []float32) []float32 {
	dst = dst[:v.compCount]
	raw := v.elementBytes(k)
	if raw == nil {
		for c := range dst {
			dst[c] = 0
		}
		return dst
	}
	for c := 0; c < v.compCount; c++ {
		dst[c] = v.component(raw, c)
	}
	return dst
}

// component decodes the c-th component of a raw element.
func (v *AccessorView) component(raw []byte, c int) float32 {
	off := c * v.compSize
	switch v.compType {
	case ComponentTypeFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))
	case ComponentTypeUnsignedByte:
		u := raw[off]
		if v.normalize {
			return float32(u) / 255
		}
		return float32(u)
	case ComponentTypeUnsignedShort:
		u := binary.LittleEndian.Uint16(raw[off:])
		if v.normalize {
			return float32(u) / 65535
		}
		return float32(u)
	case ComponentTypeUnsignedInt:
		// Validation rejects normalized on 32-bit and float component types.
		u := binary.LittleEndian.Uint32(raw[off:])
		return float32(u)
	case ComponentTypeByte:
		s := int8(raw[off])
		if v.normalize {
			if s == -128 {
				return -1
			}
			return float32(s) / 127
		}
		return float32(s)
	case ComponentTypeShort:
		s := int16(binary.LittleEndian.Uint16(raw[off:]))
		if v.normalize {
			if s == -32768 {
				return -1
			}
			return float32(s) / 32767
		}
		return float32(s)
	default:
		return 0
	}
}

// Uint reads the k-th element's first component as an unsigned integer. The
// view must be an unsigned, non-normalized scalar view (index data); anything
// else is a TypeMismatch.
func (v *AccessorView) Uint(k int) (uint32, error) {
	if v.compCount != 1 || v.normalize || !v.compType.Unsigned() {
		return 0, newError(ErrTypeMismatch, "view is not an unsigned scalar")
	}
	raw := v.elementBytes(k)
	if raw == nil {
		return 0, nil
	}
	switch v.compType {
	case ComponentTypeUnsignedByte:
		return uint32(raw[0]), nil
	case ComponentTypeUnsignedShort:
		return uint32(binary.LittleEndian.Uint16(raw)), nil
	default:
		return binary.LittleEndian.Uint32(raw), nil
	}
}

// Elements returns a fresh iterator over the view. Iterators are independent:
// each call restarts from the first element and reconstructs from the same
// immutable state, so re-iterating yields an identical sequence.
func (v *AccessorView) Elements() *ElementIter {
	return &ElementIter{view: v, next: 0, buf: make([]float32, v.compCount)}
}

// ElementIter walks an AccessorView's elements in order. It is finite
// (exactly Count elements) and never mutates the underlying view.
type ElementIter struct {
	view *AccessorView
	next int
	buf  []float32
}

// Next advances to the next element, returning false after the last one.
func (it *ElementIter) Next() bool {
	if it.next >= it.view.count {
		return false
	}
	it.view.Element(it.next, it.buf)
	it.next++
	return true
}

// Value returns the current element as floats. The slice is reused between
// calls to Next; copy it to retain.
func (it *ElementIter) Value() []float32 {
	return it.buf
}
