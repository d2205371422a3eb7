package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MessageType - тип сообщения в заголовке кадра
type MessageType uint16

const (
	MsgChunkRequest MessageType = iota + 1 // клиент -> сервер
	MsgChunkData                           // сервер -> клиент
)

func (t MessageType) String() string {
	switch t {
	case MsgChunkRequest:
		return "ChunkRequest"
	case MsgChunkData:
		return "ChunkData"
	default:
		return fmt.Sprintf("MessageType(%d)", uint16(t))
	}
}

const (
	// HeaderSize - 4 байта длины тела + 2 байта типа сообщения
	HeaderSize = 6
	// MaxFrameSize - максимальный размер тела кадра
	MaxFrameSize = 4 << 20
)

// ErrFrameTooLarge возвращается, если длина тела превышает MaxFrameSize
var ErrFrameTooLarge = errors.New("слишком большой кадр")

// WriteFrame записывает кадр одним вызовом Write
func WriteFrame(w io.Writer, msgType MessageType, body []byte) error {
	if len(body) > MaxFrameSize {
		return fmt.Errorf("%w: %d байт", ErrFrameTooLarge, len(body))
	}

	frame := make([]byte, HeaderSize+len(body))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(body)))
	binary.BigEndian.PutUint16(frame[4:6], uint16(msgType))
	copy(frame[HeaderSize:], body)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("ошибка записи кадра %s: %w", msgType, err)
	}
	return nil
}

// ReadFrame читает один кадр. При обрыве посреди кадра возвращает io.ErrUnexpectedEOF.
func ReadFrame(r io.Reader) (MessageType, []byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}

	length := binary.BigEndian.Uint32(header[0:4])
	msgType := MessageType(binary.BigEndian.Uint16(header[4:6]))

	if length > MaxFrameSize {
		return 0, nil, fmt.Errorf("%w: %d байт", ErrFrameTooLarge, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, nil, fmt.Errorf("ошибка чтения тела %s: %w", msgType, err)
	}
	return msgType, body, nil
}
