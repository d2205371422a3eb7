package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/xtaci/kcp-go/v5"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/vec"
)

// Client - соединение клиента с сервером чанков. Реализует client.RequestSender.
type Client struct {
	conn    net.Conn
	logger  *logging.Logger
	inbound chan protocol.ChunkData

	writeMu   sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// Dial подключается к серверу по KCP
func Dial(ctx context.Context, addr string, logger *logging.Logger) (*Client, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := kcp.DialWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к %s: %w", addr, err)
	}
	configureSession(conn)
	return NewClient(conn, logger), nil
}

// NewClient оборачивает готовое соединение и запускает чтение
func NewClient(conn net.Conn, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	c := &Client{
		conn:    conn,
		logger:  logger,
		inbound: make(chan protocol.ChunkData, 256),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Inbound возвращает канал полученных чанков. Закрывается при разрыве соединения.
func (c *Client) Inbound() <-chan protocol.ChunkData {
	return c.inbound
}

// Done закрывается, когда соединение разорвано
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// RequestChunk отправляет запрос чанка
func (c *Client) RequestChunk(pos vec.ChunkPos) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return protocol.WriteFrame(c.conn, protocol.MsgChunkRequest, protocol.ChunkRequest{Pos: pos}.Marshal())
}

// Close закрывает соединение
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.inbound)

	for {
		msgType, body, err := protocol.ReadFrame(c.conn)
		if err != nil {
			select {
			case <-c.closed:
			default:
				if !errors.Is(err, io.EOF) {
					c.logger.Warn("Ошибка чтения от сервера: %v", err)
				}
			}
			return
		}

		msg, err := protocol.Decode(msgType, body)
		if err != nil {
			c.logger.LogProtocolError("server", err, body)
			continue
		}
		data, ok := msg.(protocol.ChunkData)
		if !ok {
			c.logger.Warn("Неожиданное сообщение от сервера: %s", msgType)
			continue
		}

		select {
		case c.inbound <- data:
		case <-c.closed:
			return
		}
	}
}
