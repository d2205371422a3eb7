package protocol

import (
	"bytes"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/annel0/voxel-stream/internal/vec"
)

// Номера полей в теле сообщений (формат protobuf)
const (
	fieldX    protowire.Number = 1
	fieldY    protowire.Number = 2
	fieldData protowire.Number = 3
)

var (
	// ErrUnknownMessage - тип сообщения не поддерживается
	ErrUnknownMessage = errors.New("неизвестный тип сообщения")
	// ErrMalformedMessage - тело сообщения не разбирается
	ErrMalformedMessage = errors.New("повреждённое сообщение")
)

// Message - сообщение, которое можно положить в кадр
type Message interface {
	Type() MessageType
	Marshal() []byte
}

// ChunkRequest - запрос чанка клиентом
type ChunkRequest struct {
	Pos vec.ChunkPos
}

// ChunkData - сжатые данные чанка от сервера.
// Data может разделяться между несколькими получателями и не изменяется после создания.
type ChunkData struct {
	Pos  vec.ChunkPos
	Data []byte
}

func (ChunkRequest) Type() MessageType { return MsgChunkRequest }
func (ChunkData) Type() MessageType    { return MsgChunkData }

// Marshal кодирует запрос
func (m ChunkRequest) Marshal() []byte {
	b := make([]byte, 0, 2*(1+maxVarintLen))
	return appendPos(b, m.Pos)
}

// Marshal кодирует данные чанка
func (m ChunkData) Marshal() []byte {
	b := make([]byte, 0, 2*(1+maxVarintLen)+1+maxVarintLen+len(m.Data))
	b = appendPos(b, m.Pos)
	b = protowire.AppendTag(b, fieldData, protowire.BytesType)
	return protowire.AppendBytes(b, m.Data)
}

const maxVarintLen = 10

func appendPos(b []byte, pos vec.ChunkPos) []byte {
	b = protowire.AppendTag(b, fieldX, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeZigZag(pos.X))
	b = protowire.AppendTag(b, fieldY, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(pos.Y))
}

// UnmarshalChunkRequest разбирает запрос чанка
func UnmarshalChunkRequest(b []byte) (ChunkRequest, error) {
	var m ChunkRequest
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		return consumePos(num, typ, b, &m.Pos)
	})
	if err != nil {
		return ChunkRequest{}, fmt.Errorf("ChunkRequest: %w", err)
	}
	return m, nil
}

// UnmarshalChunkData разбирает данные чанка. Data ссылается на b.
func UnmarshalChunkData(b []byte) (ChunkData, error) {
	var m ChunkData
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == fieldData && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowire.ParseError(n)
			}
			m.Data = v
			return n, nil
		}
		return consumePos(num, typ, b, &m.Pos)
	})
	if err != nil {
		return ChunkData{}, fmt.Errorf("ChunkData: %w", err)
	}
	return m, nil
}

// Decode разбирает тело кадра указанного типа
func Decode(msgType MessageType, body []byte) (Message, error) {
	switch msgType {
	case MsgChunkRequest:
		return UnmarshalChunkRequest(body)
	case MsgChunkData:
		return UnmarshalChunkData(body)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, uint16(msgType))
	}
}

type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

// walkFields обходит поля сообщения. fn возвращает количество прочитанных байт
// значения или -1, если поле ей не известно (тогда поле пропускается).
func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedMessage, protowire.ParseError(n))
		}
		b = b[n:]

		n, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("%w: поле %d: %v", ErrMalformedMessage, num, err)
		}
		if n < 0 {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("%w: поле %d: %v", ErrMalformedMessage, num, protowire.ParseError(n))
			}
		}
		b = b[n:]
	}
	return nil
}

func consumePos(num protowire.Number, typ protowire.Type, b []byte, pos *vec.ChunkPos) (int, error) {
	if typ != protowire.VarintType || (num != fieldX && num != fieldY) {
		return -1, nil
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	if num == fieldX {
		pos.X = protowire.DecodeZigZag(v)
	} else {
		pos.Y = protowire.DecodeZigZag(v)
	}
	return n, nil
}

// EncodeFrame кодирует сообщение вместе с заголовком кадра
func EncodeFrame(m Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, m.Type(), m.Marshal()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
