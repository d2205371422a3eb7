package block

import "fmt"

// BlockID представляет идентификатор типа блока - индекс в Registry
type BlockID uint16

// Flags - битовый набор свойств блока
type Flags uint8

const (
	FlagAir Flags = 1 << iota
	FlagSolid
	FlagLiquid
)

// Has возвращает true, если установлены все биты f2
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Shape - форма блока для построения меша
type Shape uint8

const (
	ShapeNone  Shape = iota // Блок не рисуется
	ShapeCube               // Полный куб 1x1x1
	ShapeCross              // Две пересекающиеся плоскости (трава, цветы)
)

// String возвращает имя формы
func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "none"
	case ShapeCube:
		return "cube"
	case ShapeCross:
		return "cross"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

// ParseShape разбирает форму из строки определения блока
func ParseShape(s string) (Shape, error) {
	switch s {
	case "", "none":
		return ShapeNone, nil
	case "cube":
		return ShapeCube, nil
	case "cross":
		return ShapeCross, nil
	}
	return ShapeNone, fmt.Errorf("неизвестная форма блока: %q", s)
}

// Face - грань куба. Порядок совпадает с порядком проверки соседей при построении меша.
type Face uint8

const (
	FaceTop Face = iota
	FaceFront
	FaceLeft
	FaceRight
	FaceBack
	FaceBottom

	FaceCount = 6
)

// Faces перечисляет все грани в каноническом порядке
var Faces = [FaceCount]Face{FaceTop, FaceFront, FaceLeft, FaceRight, FaceBack, FaceBottom}

// String возвращает имя грани
func (f Face) String() string {
	switch f {
	case FaceTop:
		return "top"
	case FaceFront:
		return "front"
	case FaceLeft:
		return "left"
	case FaceRight:
		return "right"
	case FaceBack:
		return "back"
	case FaceBottom:
		return "bottom"
	default:
		return fmt.Sprintf("face(%d)", uint8(f))
	}
}

// Metadata описывает тип блока: свойства, форму и текстуры граней.
type Metadata struct {
	Key   string
	Name  string
	Flags Flags
	Shape Shape

	// Textures - пути текстур; FaceTextures - индекс в Textures для каждой грани
	Textures     []string
	FaceTextures [FaceCount]int
}

// IsAir возвращает true для блоков, помеченных как воздух
func (m *Metadata) IsAir() bool {
	return m.Flags.Has(FlagAir)
}

// IsInvisible возвращает true для блоков, у которых нет граней: воздух и ShapeNone
func (m *Metadata) IsInvisible() bool {
	return m.IsAir() || m.Shape == ShapeNone
}

// IsOpaqueCube возвращает true, если блок полностью закрывает соседние грани
func (m *Metadata) IsOpaqueCube() bool {
	return !m.IsInvisible() && m.Shape == ShapeCube
}

// FaceTexture возвращает путь текстуры для грани или "" для NoFaces
func (m *Metadata) FaceTexture(face Face) string {
	idx := m.FaceTextures[face]
	if idx == NoTexture {
		return ""
	}
	return m.Textures[idx]
}

// NoTexture - индекс грани без текстуры
const NoTexture = -1

// UniformFaces возвращает раскладку, где все грани используют одну текстуру
func UniformFaces(index int) [FaceCount]int {
	return [FaceCount]int{index, index, index, index, index, index}
}

// NoFaces - раскладка блока без граней. Допустима только для невидимых блоков.
func NoFaces() [FaceCount]int {
	return UniformFaces(NoTexture)
}

// validate проверяет инварианты метаданных перед регистрацией
func (m *Metadata) validate() error {
	if m.Key == "" {
		return ErrEmptyKey
	}
	if m.FaceTextures == NoFaces() {
		if m.IsInvisible() {
			return nil
		}
		return fmt.Errorf("%w: видимый блок %q без текстур граней", ErrTextureIndex, m.Key)
	}
	for face, idx := range m.FaceTextures {
		if idx < 0 || idx >= len(m.Textures) {
			return fmt.Errorf("%w: блок %q, грань %s, индекс %d, текстур %d",
				ErrTextureIndex, m.Key, Face(face), idx, len(m.Textures))
		}
	}
	return nil
}
