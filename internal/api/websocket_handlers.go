package api

import (
	"log"
	"net/http"
	"penbox/internal/auth"
	"penbox/internal/websocket"
)

// ServeWsHandler upgrades to a websocket carrying the caller's pen and
// collection activity. The access token travels in the query string because
// browsers cannot set headers on websocket handshakes.
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		log.Println("WS connection attempt without token")
		return
	}

	claims, err := auth.VerifyAccessToken(tokenString, s.config.JWT.AccessSecret)
	if err != nil {
		log.Printf("WS connection attempt with invalid token: %v", err)
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	client := websocket.NewClient(s.wsHub, conn, claims.UserID)
	s.wsHub.Register <- client

	go client.ReadPump()
	go client.WritePump()
}
