package loader

import (
	"errors"
	"math"
	"testing"
)

// viewDoc builds a single-buffer document whose only view spans the data.
func viewDoc(data []byte, acc Accessor) *Document {
	return &Document{
		Buffers:     []Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []BufferView{{Buffer: 0, ByteLength: len(data)}},
		Accessors:   []Accessor{acc},
	}
}

func TestAccessorViewFloatVec3(t *testing.T) {
	data := f32bytes(
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	)
	doc := viewDoc(data, Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeFloat,
		Count: 3, Type: ElementTypeVec3,
	})

	v, err := doc.AccessorView(0, ElementTypeVec3)
	if err != nil {
		t.Fatalf("AccessorView failed: %v", err)
	}
	if v.Count() != 3 || v.Components() != 3 {
		t.Fatalf("shape = (%d, %d), want (3, 3)", v.Count(), v.Components())
	}

	want := [][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	var buf [3]float32
	for k := range want {
		v.Element(k, buf[:])
		if buf != want[k] {
			t.Errorf("element %d = %v, want %v", k, buf, want[k])
		}
	}
}

func TestAccessorViewTypeMismatchAtConstruction(t *testing.T) {
	doc := viewDoc(f32bytes(0, 0, 0), Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeFloat,
		Count: 1, Type: ElementTypeVec3,
	})

	_, err := doc.AccessorView(0, ElementTypeVec2)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected TypeMismatch, got %v", err)
	}
}

func TestAccessorViewIndexOutOfRange(t *testing.T) {
	doc := &Document{}
	if _, err := doc.AccessorView(0, ElementTypeAny); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected IndexOutOfRange, got %v", err)
	}
	if _, err := doc.AccessorView(-1, ElementTypeAny); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected IndexOutOfRange for negative index, got %v", err)
	}
}

func TestAccessorViewNormalizedUnsigned(t *testing.T) {
	doc := viewDoc([]byte{0, 128, 255, 0}, Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeUnsignedByte,
		Normalized: true, Count: 3, Type: ElementTypeScalar,
	})

	v, err := doc.AccessorView(0, ElementTypeScalar)
	if err != nil {
		t.Fatalf("AccessorView failed: %v", err)
	}

	var buf [1]float32
	if v.Element(0, buf[:]); buf[0] != 0 {
		t.Errorf("0 normalized to %v, want 0", buf[0])
	}
	if v.Element(2, buf[:]); buf[0] != 1 {
		t.Errorf("255 normalized to %v, want 1", buf[0])
	}
	if v.Element(1, buf[:]); math.Abs(float64(buf[0])-128.0/255.0) > 1e-6 {
		t.Errorf("128 normalized to %v, want 128/255", buf[0])
	}
}

func TestAccessorViewNormalizedSigned(t *testing.T) {
	doc := viewDoc([]byte{0x80, 0x7F, 0x00, 0xFF}, Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeByte,
		Normalized: true, Count: 4, Type: ElementTypeScalar,
	})

	v, err := doc.AccessorView(0, ElementTypeScalar)
	if err != nil {
		t.Fatalf("AccessorView failed: %v", err)
	}

	var buf [1]float32
	if v.Element(0, buf[:]); buf[0] != -1 {
		t.Errorf("-128 normalized to %v, want exactly -1", buf[0])
	}
	if v.Element(1, buf[:]); buf[0] != 1 {
		t.Errorf("127 normalized to %v, want 1", buf[0])
	}
	if v.Element(2, buf[:]); buf[0] != 0 {
		t.Errorf("0 normalized to %v, want 0", buf[0])
	}
	if v.Element(3, buf[:]); math.Abs(float64(buf[0])+1.0/127.0) > 1e-6 {
		t.Errorf("-1 normalized to %v, want -1/127", buf[0])
	}
}

func TestAccessorViewNonNormalizedIntegers(t *testing.T) {
	doc := viewDoc([]byte{0, 200, 0, 0}, Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeUnsignedByte,
		Count: 2, Type: ElementTypeScalar,
	})

	v, err := doc.AccessorView(0, ElementTypeScalar)
	if err != nil {
		t.Fatalf("AccessorView failed: %v", err)
	}

	var buf [1]float32
	if v.Element(1, buf[:]); buf[0] != 200 {
		t.Errorf("raw 200 decoded to %v, want 200", buf[0])
	}
}

func TestAccessorViewStrided(t *testing.T) {
	// Interleaved layout: vec3 position then vec3 normal, stride 24.
	data := f32bytes(
		1, 2, 3 /* pos 0 */, 0, 0, 1, /* normal 0 */
		4, 5, 6 /* pos 1 */, 0, 1, 0, /* normal 1 */
	)
	doc := &Document{
		Buffers:     []Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []BufferView{{Buffer: 0, ByteLength: len(data), ByteStride: intPtr(24)}},
		Accessors: []Accessor{
			{BufferView: intPtr(0), ByteOffset: 0, ComponentType: ComponentTypeFloat, Count: 2, Type: ElementTypeVec3},
			{BufferView: intPtr(0), ByteOffset: 12, ComponentType: ComponentTypeFloat, Count: 2, Type: ElementTypeVec3},
		},
	}

	positions, err := doc.ReadVec3(0)
	if err != nil {
		t.Fatalf("ReadVec3(0) failed: %v", err)
	}
	normals, err := doc.ReadVec3(1)
	if err != nil {
		t.Fatalf("ReadVec3(1) failed: %v", err)
	}

	if positions[1] != [3]float32{4, 5, 6} {
		t.Errorf("position 1 = %v, want [4 5 6]", positions[1])
	}
	if normals[0] != [3]float32{0, 0, 1} {
		t.Errorf("normal 0 = %v, want [0 0 1]", normals[0])
	}
}

func TestAccessorViewSparseZeroBase(t *testing.T) {
	// No bufferView: the base is all zeros, with overrides at 1 and 3.
	idxData := u16bytes(1, 3)
	valData := f32bytes(5, 7)
	data := append(append([]byte{}, idxData...), valData...)

	doc := &Document{
		Buffers: []Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 4},
			{Buffer: 0, ByteOffset: 4, ByteLength: 8},
		},
		Accessors: []Accessor{{
			ComponentType: ComponentTypeFloat, Count: 4, Type: ElementTypeScalar,
			Sparse: &AccessorSparse{
				Count:   2,
				Indices: SparseIndices{BufferView: 0, ComponentType: ComponentTypeUnsignedShort},
				Values:  SparseValues{BufferView: 1},
			},
		}},
	}

	got, err := doc.ReadScalar(0)
	if err != nil {
		t.Fatalf("ReadScalar failed: %v", err)
	}
	want := []float32{0, 5, 0, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAccessorViewSparseOverBase(t *testing.T) {
	// A dense base with one override in the middle.
	baseData := f32bytes(10, 20, 30)
	idxData := pad4([]byte{1}, 0) // u8 index 1, padded
	valData := f32bytes(99)
	data := append(append(append([]byte{}, baseData...), idxData...), valData...)

	doc := &Document{
		Buffers: []Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 12},
			{Buffer: 0, ByteOffset: 12, ByteLength: 4},
			{Buffer: 0, ByteOffset: 16, ByteLength: 4},
		},
		Accessors: []Accessor{{
			BufferView: intPtr(0), ComponentType: ComponentTypeFloat, Count: 3, Type: ElementTypeScalar,
			Sparse: &AccessorSparse{
				Count:   1,
				Indices: SparseIndices{BufferView: 1, ComponentType: ComponentTypeUnsignedByte},
				Values:  SparseValues{BufferView: 2},
			},
		}},
	}

	got, err := doc.ReadScalar(0)
	if err != nil {
		t.Fatalf("ReadScalar failed: %v", err)
	}
	want := []float32{10, 99, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("element %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAccessorViewSparseNotIncreasing(t *testing.T) {
	idxData := u16bytes(3, 1)
	valData := f32bytes(5, 7)
	data := append(append([]byte{}, idxData...), valData...)

	doc := &Document{
		Buffers: []Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 4},
			{Buffer: 0, ByteOffset: 4, ByteLength: 8},
		},
		Accessors: []Accessor{{
			ComponentType: ComponentTypeFloat, Count: 4, Type: ElementTypeScalar,
			Sparse: &AccessorSparse{
				Count:   2,
				Indices: SparseIndices{BufferView: 0, ComponentType: ComponentTypeUnsignedShort},
				Values:  SparseValues{BufferView: 1},
			},
		}},
	}

	_, err := doc.AccessorView(0, ElementTypeScalar)
	if !errors.Is(err, ErrInvalidAccessorLayout) {
		t.Errorf("expected InvalidAccessorLayout, got %v", err)
	}
}

func TestAccessorViewSparseIndexExceedsCount(t *testing.T) {
	idxData := u16bytes(9)
	valData := f32bytes(5)
	data := append(append([]byte{}, idxData...), valData...)

	doc := &Document{
		Buffers: []Buffer{{ByteLength: len(data), Data: data}},
		BufferViews: []BufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: 2},
			{Buffer: 0, ByteOffset: 2, ByteLength: 4},
		},
		Accessors: []Accessor{{
			ComponentType: ComponentTypeFloat, Count: 4, Type: ElementTypeScalar,
			Sparse: &AccessorSparse{
				Count:   1,
				Indices: SparseIndices{BufferView: 0, ComponentType: ComponentTypeUnsignedShort},
				Values:  SparseValues{BufferView: 1},
			},
		}},
	}

	_, err := doc.AccessorView(0, ElementTypeScalar)
	if !errors.Is(err, ErrInvalidAccessorLayout) {
		t.Errorf("expected InvalidAccessorLayout, got %v", err)
	}
}

func TestAccessorViewUint(t *testing.T) {
	doc := viewDoc(u16bytes(0, 1, 2, 1), Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeUnsignedShort,
		Count: 4, Type: ElementTypeScalar,
	})

	indices, err := doc.ReadIndices(0)
	if err != nil {
		t.Fatalf("ReadIndices failed: %v", err)
	}
	want := []uint32{0, 1, 2, 1}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("index %d = %d, want %d", i, indices[i], want[i])
		}
	}
}

func TestAccessorViewUintRejectsFloats(t *testing.T) {
	doc := viewDoc(f32bytes(1, 2), Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeFloat,
		Count: 2, Type: ElementTypeScalar,
	})

	v, err := doc.AccessorView(0, ElementTypeScalar)
	if err != nil {
		t.Fatalf("AccessorView failed: %v", err)
	}
	if _, err := v.Uint(0); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected TypeMismatch, got %v", err)
	}
}

func TestElementIterRestartable(t *testing.T) {
	doc := viewDoc(f32bytes(1, 2, 3), Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeFloat,
		Count: 3, Type: ElementTypeScalar,
	})

	v, err := doc.AccessorView(0, ElementTypeScalar)
	if err != nil {
		t.Fatalf("AccessorView failed: %v", err)
	}

	collect := func() []float32 {
		var out []float32
		it := v.Elements()
		for it.Next() {
			out = append(out, it.Value()[0])
		}
		return out
	}

	first := collect()
	second := collect()

	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("iteration lengths = %d, %d, want 3, 3", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("re-iteration diverged at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestElementIterIndependent(t *testing.T) {
	doc := viewDoc(f32bytes(1, 2), Accessor{
		BufferView: intPtr(0), ComponentType: ComponentTypeFloat,
		Count: 2, Type: ElementTypeScalar,
	})

	v, _ := doc.AccessorView(0, ElementTypeScalar)
	a := v.Elements()
	b := v.Elements()

	a.Next()
	a.Next()
	if !b.Next() {
		t.Fatal("second iterator exhausted by the first")
	}
	if b.Value()[0] != 1 {
		t.Errorf("second iterator starts at %v, want 1", b.Value()[0])
	}
}
