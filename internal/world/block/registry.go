package block

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyKey      = errors.New("пустой ключ блока")
	ErrDuplicateKey  = errors.New("ключ блока уже зарегистрирован")
	ErrTextureIndex  = errors.New("индекс текстуры грани вне диапазона")
	ErrRegistryFull  = errors.New("реестр блоков переполнен")
	ErrUnknownKey    = errors.New("неизвестный ключ блока")
	ErrMissingAirKey = errors.New("в реестре нет блока \"air\"")
)

// AirKey - ключ канонического блока воздуха
const AirKey = "air"

// Registry - реестр типов блоков.
// Плотный массив по BlockID плюс отображение ключ -> BlockID.
// Заполняется при старте процесса, после этого только читается и может
// без блокировок разделяться фоновыми задачами генерации и мешинга.
type Registry struct {
	types []Metadata
	byKey map[string]BlockID
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]BlockID),
	}
}

// Register добавляет тип блока и возвращает присвоенный ему индекс
func (r *Registry) Register(meta Metadata) (BlockID, error) {
	if err := meta.validate(); err != nil {
		return 0, err
	}
	if _, exists := r.byKey[meta.Key]; exists {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateKey, meta.Key)
	}
	if len(r.types) > math.MaxUint16 {
		return 0, ErrRegistryFull
	}

	// Копируем срез текстур, чтобы вызывающий код не мог изменить реестр
	meta.Textures = append([]string(nil), meta.Textures...)

	id := BlockID(len(r.types))
	r.types = append(r.types, meta)
	r.byKey[meta.Key] = id
	return id, nil
}

// MustRegister регистрирует блок и паникует при ошибке. Только для кода инициализации.
func (r *Registry) MustRegister(meta Metadata) BlockID {
	id, err := r.Register(meta)
	if err != nil {
		panic(err)
	}
	return id
}

// ByKey возвращает индекс блока по ключу
func (r *Registry) ByKey(key string) (BlockID, bool) {
	id, ok := r.byKey[key]
	return id, ok
}

// MustByKey возвращает индекс блока или ошибку с ключом
func (r *Registry) MustByKey(key string) (BlockID, error) {
	id, ok := r.byKey[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return id, nil
}

// ByID возвращает метаданные блока по индексу
func (r *Registry) ByID(id BlockID) (*Metadata, bool) {
	if int(id) >= len(r.types) {
		return nil, false
	}
	return &r.types[id], true
}

// Air возвращает индекс канонического блока воздуха
func (r *Registry) Air() (BlockID, error) {
	id, ok := r.byKey[AirKey]
	if !ok {
		return 0, ErrMissingAirKey
	}
	return id, nil
}

// Len возвращает количество зарегистрированных типов
func (r *Registry) Len() int {
	return len(r.types)
}

// Textures возвращает все пути текстур в порядке регистрации без повторов
func (r *Registry) Textures() []string {
	seen := make(map[string]struct{})
	var result []string
	for i := range r.types {
		for _, tex := range r.types[i].Textures {
			if _, ok := seen[tex]; ok {
				continue
			}
			seen[tex] = struct{}{}
			result = append(result, tex)
		}
	}
	return result
}
