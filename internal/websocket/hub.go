// Package websocket рассылает обновления лидербордов подписанным клиентам.
package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/kpsahani/Contest-Participation-System/internal/domain/entity"
)

// Hub хранит подписчиков по конкурсам
type Hub struct {
	mu       sync.RWMutex
	rooms    map[uint]map[*Client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub создает хаб. Пустой allowedOrigins разрешает любой Origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		rooms:  make(map[uint]map[*Client]struct{}),
		logger: logger.Named("WSHub"),
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Не браузерный клиент
			if origin == "" || len(allowed) == 0 {
				return true
			}
			if _, ok := allowed[origin]; ok {
				return true
			}
			h.logger.Warn("websocket: rejected origin", zap.String("origin", origin))
			return false
		},
	}
	return h
}

// Serve переводит запрос в WebSocket и подписывает клиента на лидерборд конкурса.
// snapshot, если не nil, отправляется сразу после подключения.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, contestID uint, userID string, snapshot []entity.LeaderboardEntry) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := newClient(h, conn, contestID, userID)
	if snapshot != nil {
		if msg, err := encode(LEADERBOARD_SNAPSHOT, contestID, snapshot); err == nil {
			client.send <- msg
		}
	}
	h.register(client)

	go client.writePump()
	go client.readPump()
	return nil
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.ContestID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.ContestID] = room
	}
	room[c] = struct{}{}
	c.logger.Debug("websocket client subscribed")
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	room, ok := h.rooms[c.ContestID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.ContestID)
	}
	c.closeSend()
}

// BroadcastLeaderboard рассылает лидерборд всем подписчикам конкурса.
// Клиент с переполненным буфером отключается.
func (h *Hub) BroadcastLeaderboard(contestID uint, entries []entity.LeaderboardEntry) {
	msg, err := encode(LEADERBOARD_UPDATE, contestID, entries)
	if err != nil {
		h.logger.Error("failed to encode leaderboard", zap.Uint("contest_id", contestID), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[contestID] {
		select {
		case c.send <- msg:
		default:
			c.logger.Warn("websocket client buffer full, disconnecting")
			h.removeLocked(c)
		}
	}
}

// Subscribers возвращает число подписчиков конкурса
func (h *Hub) Subscribers(contestID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[contestID])
}

// ConnectionCount возвращает число активных подключений по всем конкурсам
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, room := range h.rooms {
		n += len(room)
	}
	return n
}

// Close отключает всех клиентов
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.rooms {
		for c := range room {
			h.removeLocked(c)
		}
	}
}

func encode(msgType string, contestID uint, entries []entity.LeaderboardEntry) ([]byte, error) {
	if entries == nil {
		entries = []entity.LeaderboardEntry{}
	}
	return json.Marshal(Message{
		Type: msgType,
		Data: LeaderboardPayload{ContestID: contestID, Entries: entries},
	})
}
