package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"

	"crawlnet/logger"
)

// ClientConn 观战连接的发送包装（只写，不接受输入）
type ClientConn struct {
	ID   string
	ws   *websocket.Conn
	send chan []byte
}

func NewClientConn(ws *websocket.Conn) *ClientConn {
	return &ClientConn{
		ID:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, 64),
	}
}

// Enqueue 将要发送的消息压入队列（非阻塞，满则丢弃）
func (c *ClientConn) Enqueue(b []byte) {
	select {
	case c.send <- b:
	default:
		// 慢连接丢帧，不阻塞 Tick
	}
}

// writePump 独立协程，负责从 send 队列写出到 WS
func (c *ClientConn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump 只处理控制帧；对端关闭或超时后通知 hub 移除
func (c *ClientConn) readPump(h *Hub) {
	defer h.remove(c)
	c.ws.SetReadLimit(1 << 10)
	c.ws.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.ws.SetPongHandler(func(string) error { c.ws.SetReadDeadline(time.Now().Add(60 * time.Second)); return nil })
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

// Hub 观战端集合：Tick 协程发布，HTTP 协程增删
type Hub struct {
	mu      deadlock.Mutex
	clients map[string]*ClientConn
	lastMap []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*ClientConn)}
}

// Len 当前观战连接数
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// SetMap 记录并推送最新地图；新连接加入时先收到它
func (h *Hub) SetMap(b []byte) {
	if b == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastMap = b
	for _, c := range h.clients {
		c.Enqueue(b)
	}
}

// Publish 推送一帧状态
func (h *Hub) Publish(b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.Enqueue(b)
	}
}

func (h *Hub) add(c *ClientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	if h.lastMap != nil {
		c.Enqueue(h.lastMap)
	}
}

// remove 关闭发送队列以结束写协程；重复调用无副作用
func (h *Hub) remove(c *ClientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.send)
	logger.Log.Debugf("spectator %s left", c.ID)
}

// CloseAll 断开全部观战连接
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 观战只读，允许所有来源
		return true
	},
}

// HandleWS 观战 WebSocket 接入：先收到当前地图，之后每 Tick 一帧 JSON 状态
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("upgrade error: %v", err)
		return
	}
	c := NewClientConn(ws)
	s.spectators.add(c)
	logger.Log.Debugf("spectator %s joined from %s", c.ID, r.RemoteAddr)

	go c.writePump()
	go c.readPump(s.spectators)
}
