package server

import (
	"context"
	"net"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"tilewm/wm"
)

// Server listens on a Unix domain socket and serves IPC clients. It
// never touches tree state directly: every command goes through the
// engine's queue, and replies come back through the same path.
type Server struct {
	addr    string
	manager *Manager
	engine  *wm.Engine
	bus     *wm.Bus
	log     *log.Logger

	listener net.Listener
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewServer(addr string, engine *wm.Engine, bus *wm.Bus, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		addr:    addr,
		manager: NewManager(),
		engine:  engine,
		bus:     bus,
		log:     logger,
		quit:    make(chan struct{}),
	}
}

func (s *Server) Start() error {
	if err := os.RemoveAll(s.addr); err != nil {
		return err
	}
	l, err := net.Listen("unix", s.addr)
	if err != nil {
		return err
	}
	s.listener = l
	s.log.Infof("listening on %s", s.addr)
	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
			}
			continue
		}

		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			defer c.Close()

			session, err := handleHandshake(c, s.manager)
			if err != nil {
				s.log.Debugf("handshake failed: %v", err)
				return
			}
			defer s.manager.Close(session.ID())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				// On shutdown, cancel pending commands so the engine
				// drops them at dequeue, and unblock the read loop.
				select {
				case <-s.quit:
					cancel()
					c.Close()
				case <-ctx.Done():
				}
			}()

			cc := newConnection(c, session, s.engine, s.bus, s.log)
			if err := cc.serve(ctx); err != nil {
				s.log.Debugf("session %s: connection closed: %v", session.ID(), err)
			}
		}(conn)
	}
}

// Addr returns the socket path the server is bound to.
func (s *Server) Addr() string { return s.addr }

// Manager exposes session accounting.
func (s *Server) Manager() *Manager { return s.manager }

func (s *Server) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
