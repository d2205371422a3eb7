package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxel-stream/internal/world"
	"github.com/annel0/voxel-stream/internal/world/block"
)

var (
	// ErrMalformedChunk - сжатые данные чанка повреждены или обрезаны
	ErrMalformedChunk = errors.New("повреждённые данные чанка")
	// ErrChunkTooLarge - несжатый чанк не помещается в кадр протокола
	ErrChunkTooLarge = errors.New("чанк слишком большой для передачи")
)

const (
	sizePrefixLen = 4
	bytesPerBlock = 2

	// MaxRawChunkSize - предел несжатого размера чанка. Половина MaxFrameSize
	// оставляет место на худший случай zstd, префикс и поля сообщения.
	MaxRawChunkSize = MaxFrameSize / 2
)

// RawChunkSize возвращает размер несжатых данных чанка в байтах
func RawChunkSize(dims world.Dimensions) int {
	return dims.Volume() * bytesPerBlock
}

// ValidateDims проверяет, что чанк таких размеров можно передать одним кадром
func ValidateDims(dims world.Dimensions) error {
	if err := dims.Validate(); err != nil {
		return err
	}
	if size := RawChunkSize(dims); size > MaxRawChunkSize {
		return fmt.Errorf("%w: %dx%dx%d = %d байт, предел %d",
			ErrChunkTooLarge, dims.Size, dims.Height, dims.Size, size, MaxRawChunkSize)
	}
	return nil
}

// ChunkCodec сжимает сетку блоков для передачи по сети.
//
// Формат: uint32 LE с размером несжатых данных, затем кадр zstd.
// Несжатые данные - по uint16 LE на блок в порядке хранения ChunkData.
// Compress и Decompress можно вызывать из нескольких горутин одновременно.
type ChunkCodec struct {
	dims    world.Dimensions
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewChunkCodec создаёт кодек для чанков указанного размера
func NewChunkCodec(dims world.Dimensions) (*ChunkCodec, error) {
	if err := ValidateDims(dims); err != nil {
		return nil, err
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания zstd компрессора: %w", err)
	}

	// Кадры меньше zstd.MinWindowSize объявляют окно MinWindowSize, поэтому
	// предел памяти декодера не может быть ниже него
	maxMemory := max(RawChunkSize(dims), zstd.MinWindowSize)
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(maxMemory)))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("ошибка создания zstd декомпрессора: %w", err)
	}

	return &ChunkCodec{dims: dims, encoder: encoder, decoder: decoder}, nil
}

// Dims возвращает размеры чанков, с которыми работает кодек
func (c *ChunkCodec) Dims() world.Dimensions {
	return c.dims
}

// Compress сериализует и сжимает сетку. Сетка только читается.
func (c *ChunkCodec) Compress(data *world.ChunkData) ([]byte, error) {
	if data.Dims() != c.dims {
		return nil, fmt.Errorf("размер чанка %v не совпадает с кодеком %v", data.Dims(), c.dims)
	}

	blocks := data.Blocks()
	raw := make([]byte, len(blocks)*bytesPerBlock)
	for i, b := range blocks {
		binary.LittleEndian.PutUint16(raw[i*bytesPerBlock:], uint16(b.Type))
	}

	out := make([]byte, sizePrefixLen, sizePrefixLen+len(raw)/4)
	binary.LittleEndian.PutUint32(out, uint32(len(raw)))
	return c.encoder.EncodeAll(raw, out), nil
}

// Decompress восстанавливает сетку. Любое расхождение размера возвращает ErrMalformedChunk.
func (c *ChunkCodec) Decompress(payload []byte) (*world.ChunkData, error) {
	if len(payload) < sizePrefixLen {
		return nil, fmt.Errorf("%w: нет префикса размера (%d байт)", ErrMalformedChunk, len(payload))
	}

	expected := RawChunkSize(c.dims)
	size := binary.LittleEndian.Uint32(payload)
	if int64(size) != int64(expected) {
		return nil, fmt.Errorf("%w: заявлено %d байт, ожидалось %d", ErrMalformedChunk, size, expected)
	}

	raw, err := c.decoder.DecodeAll(payload[sizePrefixLen:], make([]byte, 0, expected))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedChunk, err)
	}
	if len(raw) != expected {
		return nil, fmt.Errorf("%w: распаковано %d байт, ожидалось %d", ErrMalformedChunk, len(raw), expected)
	}

	blocks := make([]world.Block, c.dims.Volume())
	for i := range blocks {
		blocks[i].Type = block.BlockID(binary.LittleEndian.Uint16(raw[i*bytesPerBlock:]))
	}
	return world.FromBlocks(c.dims, blocks)
}

// Close освобождает ресурсы zstd
func (c *ChunkCodec) Close() {
	c.encoder.Close()
	c.decoder.Close()
}
