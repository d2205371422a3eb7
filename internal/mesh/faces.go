package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/annel0/voxel-stream/internal/world/block"
)

// faceOffsets - смещение соседнего блока для каждой грани
var faceOffsets = [block.FaceCount][3]int{
	block.FaceTop:    {0, 1, 0},
	block.FaceFront:  {0, 0, -1},
	block.FaceLeft:   {-1, 0, 0},
	block.FaceRight:  {1, 0, 0},
	block.FaceBack:   {0, 0, 1},
	block.FaceBottom: {0, -1, 0},
}

// faceNormals - нормали граней
var faceNormals = [block.FaceCount]mgl32.Vec3{
	block.FaceTop:    {0, 1, 0},
	block.FaceFront:  {0, 0, -1},
	block.FaceLeft:   {-1, 0, 0},
	block.FaceRight:  {1, 0, 0},
	block.FaceBack:   {0, 0, 1},
	block.FaceBottom: {0, -1, 0},
}

// faceVertices - четыре вершины каждой грани единичного куба.
// Порядок согласован с faceIndices и углами UV в appendFace.
var faceVertices = [block.FaceCount][4]mgl32.Vec3{
	block.FaceTop:    {{0, 1, 0}, {0, 1, 1}, {1, 1, 0}, {1, 1, 1}},
	block.FaceFront:  {{0, 0, 0}, {0, 1, 0}, {1, 0, 0}, {1, 1, 0}},
	block.FaceLeft:   {{0, 0, 1}, {0, 1, 1}, {0, 0, 0}, {0, 1, 0}},
	block.FaceRight:  {{1, 0, 0}, {1, 1, 0}, {1, 0, 1}, {1, 1, 1}},
	block.FaceBack:   {{1, 0, 1}, {1, 1, 1}, {0, 0, 1}, {0, 1, 1}},
	block.FaceBottom: {{0, 0, 1}, {0, 0, 0}, {1, 0, 1}, {1, 0, 0}},
}

// faceIndices - два треугольника грани
var faceIndices = [6]uint32{0, 1, 2, 2, 1, 3}
