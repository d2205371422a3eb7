package block

// Ключи базовых блоков, на которые опирается генератор мира
const (
	DirtKey    = "dirt"
	GrassKey   = "grass"
	StoneKey   = "stone"
	BedrockKey = "bedrock"
)

// DefaultBlocks возвращает базовый набор блоков
func DefaultBlocks() []Metadata {
	return []Metadata{
		{
			Key:          AirKey,
			Name:         "Air",
			Flags:        FlagAir,
			Shape:        ShapeNone,
			FaceTextures: NoFaces(),
		},
		{
			Key:          DirtKey,
			Name:         "Dirt Block",
			Flags:        FlagSolid,
			Shape:        ShapeCube,
			Textures:     []string{"blocks/dirt.png"},
			FaceTextures: UniformFaces(0),
		},
		{
			Key:      GrassKey,
			Name:     "Grass Block",
			Flags:    FlagSolid,
			Shape:    ShapeCube,
			Textures: []string{"blocks/grass_top.png", "blocks/grass_side.png", "blocks/dirt.png"},
			// Top, Front, Left, Right, Back, Bottom
			FaceTextures: [FaceCount]int{0, 1, 1, 1, 1, 2},
		},
		{
			Key:          StoneKey,
			Name:         "Stone Block",
			Flags:        FlagSolid,
			Shape:        ShapeCube,
			Textures:     []string{"blocks/stone.png"},
			FaceTextures: UniformFaces(0),
		},
		{
			Key:          BedrockKey,
			Name:         "Bedrock",
			Flags:        FlagSolid,
			Shape:        ShapeCube,
			Textures:     []string{"blocks/bedrock.png"},
			FaceTextures: UniformFaces(0),
		},
	}
}

// RegisterDefaults регистрирует базовый набор блоков
func RegisterDefaults(r *Registry) error {
	for _, meta := range DefaultBlocks() {
		if _, err := r.Register(meta); err != nil {
			return err
		}
	}
	return nil
}
