package block

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// definitionFile - формат YAML-файла с описаниями блоков
type definitionFile struct {
	Blocks []definition `yaml:"blocks"`
}

type definition struct {
	Key          string   `yaml:"key"`
	Name         string   `yaml:"name"`
	Flags        []string `yaml:"flags"`
	Shape        string   `yaml:"shape"`
	Textures     []string `yaml:"textures"`
	FaceTextures []int    `yaml:"face_textures"` // 6 индексов; пусто - все грани 0, без текстур - NoFaces
}

func (d definition) toMetadata() (Metadata, error) {
	meta := Metadata{
		Key:      d.Key,
		Name:     d.Name,
		Textures: d.Textures,
	}

	for _, f := range d.Flags {
		switch strings.ToLower(f) {
		case "air":
			meta.Flags |= FlagAir
		case "solid":
			meta.Flags |= FlagSolid
		case "liquid":
			meta.Flags |= FlagLiquid
		default:
			return meta, fmt.Errorf("блок %q: неизвестный флаг %q", d.Key, f)
		}
	}

	shape, err := ParseShape(d.Shape)
	if err != nil {
		return meta, fmt.Errorf("блок %q: %w", d.Key, err)
	}
	meta.Shape = shape

	switch len(d.FaceTextures) {
	case 0:
		meta.FaceTextures = UniformFaces(0)
		if len(d.Textures) == 0 {
			meta.FaceTextures = NoFaces()
		}
	case FaceCount:
		copy(meta.FaceTextures[:], d.FaceTextures)
	default:
		return meta, fmt.Errorf("блок %q: face_textures должен содержать %d индексов, получено %d",
			d.Key, FaceCount, len(d.FaceTextures))
	}

	return meta, nil
}

// ParseDefinitions разбирает YAML-описание блоков
func ParseDefinitions(data []byte) ([]Metadata, error) {
	var file definitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("ошибка разбора YAML: %w", err)
	}

	result := make([]Metadata, 0, len(file.Blocks))
	for _, d := range file.Blocks {
		meta, err := d.toMetadata()
		if err != nil {
			return nil, err
		}
		result = append(result, meta)
	}
	return result, nil
}

// LoadDefinitions регистрирует блоки из всех *.yaml файлов каталога.
// Файлы обрабатываются в алфавитном порядке, чтобы индексы блоков были
// одинаковыми на сервере и клиенте. Отсутствующий каталог - не ошибка.
func LoadDefinitions(r *Registry, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("ошибка чтения каталога блоков %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	registered := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return registered, fmt.Errorf("ошибка чтения %s: %w", path, err)
		}
		metas, err := ParseDefinitions(data)
		if err != nil {
			return registered, fmt.Errorf("%s: %w", path, err)
		}
		for _, meta := range metas {
			if _, err := r.Register(meta); err != nil {
				return registered, fmt.Errorf("%s: %w", path, err)
			}
			registered++
		}
	}
	return registered, nil
}

// LoadRegistry создаёт реестр со стандартными блоками и блоками из каталога dir.
// Сервер и клиент должны вызывать его с одинаковым каталогом, иначе индексы разойдутся.
func LoadRegistry(dir string) (*Registry, error) {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		return nil, err
	}
	if dir == "" {
		return r, nil
	}
	if _, err := LoadDefinitions(r, dir); err != nil {
		return nil, err
	}
	return r, nil
}
