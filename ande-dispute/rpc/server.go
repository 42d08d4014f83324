package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/log"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

const (
	DisputeNamespace = "dispute"
	AdminNamespace   = "admin"
	LedgerNamespace  = "ledger"
)

// Server serves the registered APIs over HTTP JSON-RPC.
type Server struct {
	log      log.Logger
	rpc      *gethrpc.Server
	handlers map[string]http.Handler
	listener net.Listener
	http     *http.Server
}

func NewServer(logger log.Logger, apis []gethrpc.API) (*Server, error) {
	srv := gethrpc.NewServer()
	for _, api := range apis {
		if err := srv.RegisterName(api.Namespace, api.Service); err != nil {
			srv.Stop()
			return nil, fmt.Errorf("failed to register %s API: %w", api.Namespace, err)
		}
	}
	return &Server{log: logger, rpc: srv, handlers: make(map[string]http.Handler)}, nil
}

// Handle serves an additional HTTP handler next to the JSON-RPC endpoint. It must be called before Start.
func (s *Server) Handle(path string, h http.Handler) {
	s.handlers[path] = h
}

// InProc returns a client connected to the server without going through the network.
func (s *Server) InProc() *gethrpc.Client {
	return gethrpc.DialInProc(s.rpc)
}

func (s *Server) Start(host string, port int) error {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind RPC listener on %s: %w", addr, err)
	}
	s.listener = listener
	mux := http.NewServeMux()
	mux.Handle("/", s.rpc)
	for path, h := range s.handlers {
		mux.Handle(path, h)
	}
	s.http = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("RPC server failed", "err", err)
		}
	}()
	s.log.Info("Started RPC server", "endpoint", s.Endpoint())
	return nil
}

func (s *Server) Endpoint() string {
	if s.listener == nil {
		return ""
	}
	return "http://" + s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.rpc.Stop()
	return err
}
