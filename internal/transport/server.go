package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/xtaci/kcp-go/v5"
	"golang.org/x/time/rate"

	"github.com/annel0/voxel-stream/internal/logging"
	"github.com/annel0/voxel-stream/internal/protocol"
	"github.com/annel0/voxel-stream/internal/server"
)

var (
	// ErrUnknownSession - сессия отключилась или не существовала
	ErrUnknownSession = errors.New("неизвестная сессия")
	// ErrOutboxFull - очередь отправки сессии переполнена, сообщение отброшено
	ErrOutboxFull = errors.New("очередь отправки переполнена")
)

// ServerOptions - настройки транспорта сервера
type ServerOptions struct {
	Addr              string
	OutboxSize        int
	InboundSize       int
	RequestsPerSecond float64 // <= 0 - без ограничения
	RequestBurst      int
}

// Server принимает KCP-соединения и превращает запросы клиентов в server.Request.
// Реализует server.Sender.
type Server struct {
	opts     ServerOptions
	logger   *logging.Logger
	listener net.Listener
	inbound  chan server.Request

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	wg       sync.WaitGroup
}

// NewServer создаёт транспорт сервера
func NewServer(opts ServerOptions, logger *logging.Logger) *Server {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 256
	}
	if opts.InboundSize <= 0 {
		opts.InboundSize = 1024
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Server{
		opts:     opts,
		logger:   logger,
		inbound:  make(chan server.Request, opts.InboundSize),
		sessions: make(map[uuid.UUID]*session),
	}
}

// Inbound возвращает канал запросов для ChunkServer.Run
func (s *Server) Inbound() <-chan server.Request {
	return s.inbound
}

// Listen открывает KCP-сокет
func (s *Server) Listen() error {
	listener, err := kcp.ListenWithOptions(s.opts.Addr, nil, 0, 0)
	if err != nil {
		return fmt.Errorf("ошибка запуска KCP на %s: %w", s.opts.Addr, err)
	}
	s.listener = listener
	s.logger.Info("🌐 KCP сервер слушает %s", listener.Addr())
	return nil
}

// Addr возвращает адрес слушающего сокета
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve принимает соединения до отмены ctx. Перед вызовом нужен Listen.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("Serve вызван до Listen")
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdown()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ошибка приёма соединения: %w", err)
		}

		if kcpConn, ok := conn.(*kcp.UDPSession); ok {
			configureSession(kcpConn)
		}
		s.Attach(ctx, conn)
	}
}

// shutdown закрывает слушатель и все сессии и ждёт их циклы
func (s *Server) shutdown() {
	s.listener.Close()
	s.closeSessions()
	s.wg.Wait()
}

// Attach регистрирует соединение как новую сессию и запускает её циклы
func (s *Server) Attach(ctx context.Context, conn net.Conn) uuid.UUID {
	limit := rate.Inf
	if s.opts.RequestsPerSecond > 0 {
		limit = rate.Limit(s.opts.RequestsPerSecond)
	}
	burst := s.opts.RequestBurst
	if burst <= 0 {
		burst = 1
	}

	sess := &session{
		id:      uuid.New(),
		conn:    conn,
		outbox:  make(chan []byte, s.opts.OutboxSize),
		limiter: rate.NewLimiter(limit, burst),
		closed:  make(chan struct{}),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("🔌 Клиент %s подключился (%s)", sess.id, conn.RemoteAddr())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.writeLoop(sess)
	}()
	go func() {
		defer s.wg.Done()
		s.readLoop(ctx, sess)
	}()
	return sess.id
}

// Send ставит ChunkData в очередь сессии без блокировки
func (s *Server) Send(requester uuid.UUID, msg protocol.ChunkData) error {
	s.mu.RLock()
	sess, ok := s.sessions[requester]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, requester)
	}

	frame, err := protocol.EncodeFrame(msg)
	if err != nil {
		return err
	}

	select {
	case sess.outbox <- frame:
		return nil
	case <-sess.closed:
		return fmt.Errorf("%w: %s", ErrUnknownSession, requester)
	default:
		return fmt.Errorf("%w: %s", ErrOutboxFull, requester)
	}
}

// Sessions возвращает число подключённых клиентов
func (s *Server) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) readLoop(ctx context.Context, sess *session) {
	defer s.disconnect(ctx, sess)

	for {
		msgType, body, err := protocol.ReadFrame(sess.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) && !sess.isClosed() {
				s.logger.Warn("Ошибка чтения от %s: %v", sess.id, err)
			}
			return
		}

		msg, err := protocol.Decode(msgType, body)
		if err != nil {
			s.logger.LogProtocolError(sess.id.String(), err, body)
			continue
		}

		req, ok := msg.(protocol.ChunkRequest)
		if !ok {
			s.logger.Warn("Клиент %s прислал неожиданное сообщение %s", sess.id, msgType)
			continue
		}
		if !sess.limiter.Allow() {
			s.logger.Debug("Клиент %s превысил лимит запросов, %s отброшен", sess.id, req.Pos)
			continue
		}

		select {
		case s.inbound <- server.Request{Requester: sess.id, Pos: req.Pos}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) writeLoop(sess *session) {
	for {
		select {
		case frame := <-sess.outbox:
			if _, err := sess.conn.Write(frame); err != nil {
				s.logger.Warn("Ошибка записи клиенту %s: %v", sess.id, err)
				sess.close()
				return
			}
		case <-sess.closed:
			return
		}
	}
}

func (s *Server) disconnect(ctx context.Context, sess *session) {
	sess.close()

	s.mu.Lock()
	delete(s.sessions, sess.id)
	s.mu.Unlock()

	s.logger.Info("👋 Клиент %s отключился", sess.id)
	select {
	case s.inbound <- server.Request{Requester: sess.id, Disconnect: true}:
	case <-ctx.Done():
	}
}

func (s *Server) closeSessions() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		sess.close()
	}
}

type session struct {
	id      uuid.UUID
	conn    net.Conn
	outbox  chan []byte
	limiter *rate.Limiter

	closeOnce sync.Once
	closed    chan struct{}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

func (s *session) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}
