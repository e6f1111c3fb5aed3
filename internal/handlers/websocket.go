package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"forum/internal/models"
	"forum/internal/services"
	"forum/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = 30 * time.Second
	wsMaxMessageSize = 512
	wsSendBuffer     = 64
)

// ModerationHub 审核事件推送中心
//
// 审核员通过 /ws/moderation 订阅，举报创建与处理事件广播给所有在线审核员。
// 发送缓冲满的客户端会被直接断开；每次 ping 时重新校验角色，失去审核权限的连接被关闭。
type ModerationHub struct {
	logger     utils.Logger
	upgrader   websocket.Upgrader
	moderators services.ModeratorChecker
	pingPeriod time.Duration
	clients    map[*moderationClient]struct{}
	mu         sync.RWMutex
	broadcast  chan []byte
	register   chan *moderationClient
	unregister chan *moderationClient
	done       chan struct{}
	stopOnce   sync.Once
}

// moderationClient 单个审核员连接
type moderationClient struct {
	id     string
	userID uint
	conn   *websocket.Conn
	send   chan []byte
	hub    *ModerationHub
}

// NewModerationHub 创建并启动推送中心，allowedOrigins 为空或含 * 时不校验来源，moderators 为 nil 时不复查角色
func NewModerationHub(allowedOrigins []string, moderators services.ModeratorChecker) *ModerationHub {
	h := &ModerationHub{
		logger: utils.GetLogger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		moderators: moderators,
		pingPeriod: wsPingPeriod,
		clients:    make(map[*moderationClient]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *moderationClient),
		unregister: make(chan *moderationClient),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// run 推送中心主循环
func (h *ModerationHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("审核员已连接", "clientID", client.id, "userID", client.userID, "totalClients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("审核员已断开", "clientID", client.id, "userID", client.userID, "totalClients", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 消费过慢，断开
					delete(h.clients, client)
					close(client.send)
					h.logger.Warn("审核员连接发送缓冲已满，断开", "clientID", client.id, "userID", client.userID)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Publish 实现 services.ReportNotifier，不阻塞调用方
func (h *ModerationHub) Publish(event models.ModerationEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("序列化审核事件失败", "type", event.Type, "error", err.Error())
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.logger.Warn("审核事件队列已满，丢弃事件", "type", event.Type)
	}
}

// Stop 关闭推送中心并断开所有连接
func (h *ModerationHub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount 在线审核员连接数
func (h *ModerationHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket GET /ws/moderation，需先经过认证与审核员角色校验
func (h *ModerationHub) HandleWebSocket(c *gin.Context) {
	userID, ok := getUserIDOrFail(c)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket升级失败", "userID", userID, "error", err.Error())
		return
	}

	client := &moderationClient{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		hub:    h,
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump 只处理控制帧，客户端发来的数据直接丢弃
func (c *moderationClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket读取错误", "clientID", c.id, "error", err.Error())
			}
			return
		}
	}
}

// writePump 推送事件并定时 ping
func (c *moderationClient) writePump() {
	ticker := time.NewTicker(c.hub.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logNonBlockingError(c.hub.logger, "推送审核事件", err, "clientID", c.id)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !c.stillModerator() {
				closing := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "moderator role revoked")
				_ = c.conn.WriteMessage(websocket.CloseMessage, closing)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// stillModerator 查询失败时保留连接，等下一次 ping 再查
func (c *moderationClient) stillModerator() bool {
	if c.hub.moderators == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(context.Background(), wsWriteWait)
	defer cancel()

	ok, err := c.hub.moderators.IsModerator(ctx, c.userID)
	if err != nil {
		logNonBlockingError(c.hub.logger, "复查审核员角色", err, "clientID", c.id, "userID", c.userID)
		return true
	}
	if !ok {
		c.hub.logger.Info("审核权限已撤销，关闭连接", "clientID", c.id, "userID", c.userID)
	}
	return ok
}
