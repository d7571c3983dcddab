package modbus

import (
	"fmt"
	"time"

	"github.com/simonvetter/modbus"
)

type Server struct {
	server *modbus.ModbusServer
}

func NewServer(host string, port uint, handler modbus.RequestHandler) (*Server, error) {
	server, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        fmt.Sprintf("tcp://%s:%d", host, port),
		Timeout:    30 * time.Second,
		MaxClients: 8,
	}, handler)
	if err != nil {
		return nil, err
	}
	return &Server{server: server}, nil
}

func (s *Server) Start() error {
	return s.server.Start()
}

func (s *Server) Stop() error {
	return s.server.Stop()
}
