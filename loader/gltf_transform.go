package loader

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LocalMatrix returns the node's local transform. A node carries either an
// explicit column-major matrix or a translation/rotation/scale triple; the
// triple composes as T * R * S with identity defaults for absent parts.
func (n *Node) LocalMatrix() mgl32.Mat4 {
	if n.Matrix != nil {
		var m mgl32.Mat4
		copy(m[:], n.Matrix[:])
		return m
	}

	m := mgl32.Ident4()
	if n.Translation != nil {
		m = m.Mul4(mgl32.Translate3D(n.Translation[0], n.Translation[1], n.Translation[2]))
	}
	if n.Rotation != nil {
		q := mgl32.Quat{
			W: n.Rotation[3],
			V: mgl32.Vec3{n.Rotation[0], n.Rotation[1], n.Rotation[2]},
		}
		m = m.Mul4(q.Mat4())
	}
	if n.Scale != nil {
		m = m.Mul4(mgl32.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
	}
	return m
}

// GlobalTransforms computes the world-space transform of every node reachable
// from a scene's roots, as parent matrix times local matrix down the tree.
// Nodes outside the scene keep the identity. The document must be validated
// first so the walk cannot cycle.
//
// Parameters:
//   - sceneIndex: the scene whose roots seed the walk
//
// Returns:
//   - []mgl32.Mat4: one matrix per node, indexed like doc.Nodes
//   - error: IndexOutOfRange for a bad scene index
func (d *Document) GlobalTransforms(sceneIndex int) ([]mgl32.Mat4, error) {
	if sceneIndex < 0 || sceneIndex >= len(d.Scenes) {
		return nil, newEntityError(ErrIndexOutOfRange, "scene", sceneIndex,
			fmt.Sprintf("document has %d scenes", len(d.Scenes)))
	}

	transforms := make([]mgl32.Mat4, len(d.Nodes))
	for i := range transforms {
		transforms[i] = mgl32.Ident4()
	}

	var walk func(node int, parent mgl32.Mat4)
	walk = func(node int, parent mgl32.Mat4) {
		global := parent.Mul4(d.Nodes[node].LocalMatrix())
		transforms[node] = global
		for _, child := range d.Nodes[node].Children {
			walk(child, global)
		}
	}

	for _, root := range d.Scenes[sceneIndex].Nodes {
		walk(root, mgl32.Ident4())
	}
	return transforms, nil
}
