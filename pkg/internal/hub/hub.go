// Package hub 提供认证后的实时推送通道.
//
// 连接在握手时验证访问令牌，加入租户房间 org:<id> 与主体房间 user:<id>，
// 可按需订阅 video:<id>. 发布按房间寻址，投递是尽力而为：每个连接持有一个
// 有界的发送队列，溢出时丢弃最旧的帧；掉线客户端重连后应回读视频行对账.
package hub

import (
	"sync"

	"github.com/bytedance/sonic"

	nlog "github.com/yeisme/vidvault/pkg/log"
)

// 推送事件名.
const (
	EventConnected     = "connected"
	EventVideoProgress = "video:progress"
	EventVideoComplete = "video:process:complete"
	EventVideoFailed   = "video:process:failed"
)

// Frame 下行帧：事件名 + 负载.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// OrgRoom 租户房间名.
func OrgRoom(orgID string) string { return "org:" + orgID }

// UserRoom 主体房间名.
func UserRoom(userID string) string { return "user:" + userID }

// VideoRoom 视频房间名.
func VideoRoom(videoID string) string { return "video:" + videoID }

// Hub 维护房间到连接集合的映射并向房间广播.
// 成员表由细粒度读写锁保护；单个连接的下行由其发送队列串行化.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub 创建 Hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
	}
}

// Join 将连接加入房间.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.rooms[room]
	if !ok {
		set = make(map[*Client]struct{})
		h.rooms[room] = set
	}

	set[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Leave 将连接移出房间.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if set, ok := h.rooms[room]; ok {
		delete(set, c)

		if len(set) == 0 {
			delete(h.rooms, room)
		}
	}

	delete(c.rooms, room)
}

// remove 将连接移出所有房间，连接关闭时调用.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
}

// Emit 向房间内所有连接广播事件. 帧只编码一次.
func (h *Hub) Emit(room, event string, data any) {
	payload, err := sonic.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		nlog.Logger().Error().Err(err).Str("event", event).Msg("marshal frame failed")
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[room]))

	for c := range h.rooms[room] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.enqueue(payload)
	}
}

// RoomSize 返回房间内的连接数.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[room])
}

// ClientCount 返回所有房间的去重连接数.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Client]struct{})

	for _, set := range h.rooms {
		for c := range set {
			seen[c] = struct{}{}
		}
	}

	return len(seen)
}

// CloseAll 关闭所有连接，优雅停机时调用.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	seen := make(map[*Client]struct{})

	for _, set := range h.rooms {
		for c := range set {
			seen[c] = struct{}{}
		}
	}
	h.mu.Unlock()

	for c := range seen {
		c.Close()
	}
}
