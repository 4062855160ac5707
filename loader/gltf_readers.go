package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Typed convenience readers over the lazy accessor views. Each reader
// validates the element shape up front and then materializes the sequence;
// callers that want streaming access use AccessorView directly.

// ReadVec2 reads an accessor as vec2 float data, normalization applied.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - [][2]float32: the vec2 data
//   - error: TypeMismatch if the accessor is not VEC2
func (d *Document) ReadVec2(index int) ([][2]float32, error) {
	v, err := d.AccessorView(index, ElementTypeVec2)
	if err != nil {
		return nil, err
	}
	result := make([][2]float32, v.Count())
	for k := range result {
		v.Element(k, result[k][:])
	}
	return result, nil
}

// ReadVec3 reads an accessor as vec3 float data, normalization applied.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - [][3]float32: the vec3 data
//   - error: TypeMismatch if the accessor is not VEC3
func (d *Document) ReadVec3(index int) ([][3]float32, error) {
	v, err := d.AccessorView(index, ElementTypeVec3)
	if err != nil {
		return nil, err
	}
	result := make([][3]float32, v.Count())
	for k := range result {
		v.Element(k, result[k][:])
	}
	return result, nil
}

// ReadVec4 reads an accessor as vec4 float data, normalization applied.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - [][4]float32: the vec4 data
//   - error: TypeMismatch if the accessor is not VEC4
func (d *Document) ReadVec4(index int) ([][4]float32, error) {
	v, err := d.AccessorView(index, ElementTypeVec4)
	if err != nil {
		return nil, err
	}
	result := make([][4]float32, v.Count())
	for k := range result {
		v.Element(k, result[k][:])
	}
	return result, nil
}

// ReadScalar reads an accessor as scalar float data, normalization applied.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - []float32: the scalar data
//   - error: TypeMismatch if the accessor is not SCALAR
func (d *Document) ReadScalar(index int) ([]float32, error) {
	v, err := d.AccessorView(index, ElementTypeScalar)
	if err != nil {
		return nil, err
	}
	result := make([]float32, v.Count())
	var buf [1]float32
	for k := range result {
		v.Element(k, buf[:])
		result[k] = buf[0]
	}
	return result, nil
}

// ReadMat4 reads an accessor as mat4 float data (column-major).
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - []mgl32.Mat4: the matrices
//   - error: TypeMismatch if the accessor is not MAT4
func (d *Document) ReadMat4(index int) ([]mgl32.Mat4, error) {
	v, err := d.AccessorView(index, ElementTypeMat4)
	if err != nil {
		return nil, err
	}
	result := make([]mgl32.Mat4, v.Count())
	for k := range result {
		v.Element(k, result[k][:])
	}
	return result, nil
}

// ReadIndices reads an accessor as index data, widening UNSIGNED_BYTE and
// UNSIGNED_SHORT components to uint32.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - []uint32: the index data
//   - error: TypeMismatch unless the accessor is an unsigned scalar
func (d *Document) ReadIndices(index int) ([]uint32, error) {
	v, err := d.AccessorView(index, ElementTypeScalar)
	if err != nil {
		return nil, err
	}
	if v.Normalized() || !v.ComponentType().Unsigned() {
		return nil, newEntityError(ErrTypeMismatch, "accessor", index,
			"indices must use an unsigned, non-normalized component type")
	}
	result := make([]uint32, v.Count())
	for k := range result {
		u, err := v.Uint(k)
		if err != nil {
			return nil, err
		}
		result[k] = u
	}
	return result, nil
}

// ReadJoints reads an accessor as joint indices (vec4 of unsigned integers),
// widening to uint32.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - [][4]uint32: the joint indices
//   - error: TypeMismatch unless the accessor is an unsigned VEC4
func (d *Document) ReadJoints(index int) ([][4]uint32, error) {
	v, err := d.AccessorView(index, ElementTypeVec4)
	if err != nil {
		return nil, err
	}
	if v.Normalized() || !v.ComponentType().Unsigned() {
		return nil, newEntityError(ErrTypeMismatch, "accessor", index,
			"joints must use an unsigned, non-normalized component type")
	}
	result := make([][4]uint32, v.Count())
	var buf [4]float32
	for k := range result {
		v.Element(k, buf[:])
		for c := 0; c < 4; c++ {
			result[k][c] = uint32(buf[c])
		}
	}
	return result, nil
}

// ReadInverseBindMatrices reads a skin's inverse bind matrices. When the skin
// declares no accessor, every joint's matrix is the identity, which implies
// the inverse-bind matrices were pre-applied.
//
// Parameters:
//   - skinIndex: the skin index
//
// Returns:
//   - []mgl32.Mat4: one matrix per joint
//   - error: error if the skin index or accessor shape is wrong
func (d *Document) ReadInverseBindMatrices(skinIndex int) ([]mgl32.Mat4, error) {
	if skinIndex < 0 || skinIndex >= len(d.Skins) {
		return nil, newEntityError(ErrIndexOutOfRange, "skin", skinIndex,
			fmt.Sprintf("document has %d skins", len(d.Skins)))
	}
	skin := &d.Skins[skinIndex]

	if skin.InverseBindMatrices == nil {
		result := make([]mgl32.Mat4, len(skin.Joints))
		for i := range result {
			result[i] = mgl32.Ident4()
		}
		return result, nil
	}

	return d.ReadMat4(*skin.InverseBindMatrices)
}

// ReadKeyframeTimes reads an animation sampler's input accessor (keyframe
// times in seconds).
//
// Parameters:
//   - animIndex: the animation index
//   - samplerIndex: the sampler index within that animation
//
// Returns:
//   - []float32: the keyframe times
//   - error: error if an index or the accessor shape is wrong
func (d *Document) ReadKeyframeTimes(animIndex, samplerIndex int) ([]float32, error) {
	smp, err := d.animSampler(animIndex, samplerIndex)
	if err != nil {
		return nil, err
	}
	return d.ReadScalar(smp.Input)
}

// ReadKeyframeValues reads an animation sampler's output accessor as flat
// float elements, one slice per keyframe. Normalized integer outputs (common
// for rotations) are mapped to floating range. The component width follows
// the target path: 3 for translation/scale, 4 for rotation, 1 per weight.
//
// Parameters:
//   - animIndex: the animation index
//   - samplerIndex: the sampler index within that animation
//
// Returns:
//   - [][]float32: the keyframe values
//   - error: error if an index is wrong
func (d *Document) ReadKeyframeValues(animIndex, samplerIndex int) ([][]float32, error) {
	smp, err := d.animSampler(animIndex, samplerIndex)
	if err != nil {
		return nil, err
	}

	v, err := d.AccessorView(smp.Output, ElementTypeAny)
	if err != nil {
		return nil, err
	}

	result := make([][]float32, v.Count())
	for k := range result {
		result[k] = v.Element(k, make([]float32, v.Components()))
	}
	return result, nil
}

// animSampler resolves an (animation, sampler) pair with bounds checks.
func (d *Document) animSampler(animIndex, samplerIndex int) (*AnimSampler, error) {
	if animIndex < 0 || animIndex >= len(d.Animations) {
		return nil, newEntityError(ErrIndexOutOfRange, "animation", animIndex,
			fmt.Sprintf("document has %d animations", len(d.Animations)))
	}
	anim := &d.Animations[animIndex]
	if samplerIndex < 0 || samplerIndex >= len(anim.Samplers) {
		return nil, newEntityError(ErrIndexOutOfRange, "animation.sampler", samplerIndex,
			fmt.Sprintf("animation has %d samplers", len(anim.Samplers)))
	}
	return &anim.Samplers[samplerIndex], nil
}
