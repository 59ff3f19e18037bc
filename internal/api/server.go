package api

import (
	"penbox/internal/config"
	"penbox/internal/database"
	"penbox/internal/websocket"
)

type Server struct {
	config *config.Config
	store  *database.Store
	wsHub  *websocket.Hub
}

func NewServer(cfg *config.Config, store *database.Store, wsHub *websocket.Hub) *Server {
	return &Server{
		config: cfg,
		store:  store,
		wsHub:  wsHub,
	}
}
