package hub

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	nlog "github.com/yeisme/vidvault/pkg/log"
	"github.com/yeisme/vidvault/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendQueueSize  = 64
)

// clientIDCounter 为连接生成单调递增的标识.
var clientIDCounter atomic.Uint64

// Client 是 websocket 连接与 Hub 之间的中间人.
// 下行帧经由有界的 send 队列串行写出，溢出时丢弃最旧的帧.
type Client struct {
	id        uint64
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	rooms     map[string]struct{} // 由 hub.mu 保护
	closeOnce sync.Once

	SubjectID string
	OrgID     string
	ExpiresAt time.Time
}

// NewClient 创建连接包装. 房间加入由调用方（握手处理器）完成.
func NewClient(h *Hub, conn *websocket.Conn, subjectID, orgID string, expiresAt time.Time) *Client {
	return &Client{
		id:        clientIDCounter.Add(1),
		hub:       h,
		conn:      conn,
		send:      make(chan []byte, sendQueueSize),
		rooms:     make(map[string]struct{}),
		SubjectID: subjectID,
		OrgID:     orgID,
		ExpiresAt: expiresAt,
	}
}

// ID 返回连接标识.
func (c *Client) ID() uint64 { return c.id }

// Start 启动读写泵. 令牌到期时服务端主动关闭连接，客户端带新令牌重连.
func (c *Client) Start() {
	metrics.WSConnections.Inc()

	if ttl := time.Until(c.ExpiresAt); ttl > 0 {
		time.AfterFunc(ttl, c.Close)
	} else {
		// 理论上握手时已验证过期，兜底直接关闭
		c.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// Close 关闭连接并清理房间成员.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.remove(c)
		close(c.send)
		metrics.WSConnections.Dec()
	})
}

// enqueue 帧入队；队列满时丢弃最旧的帧为新帧腾位.
func (c *Client) enqueue(frame []byte) {
	defer func() {
		// Close 竞争下向已关闭通道发送的兜底
		_ = recover()
	}()

	for {
		select {
		case c.send <- frame:
			return
		default:
		}

		select {
		case <-c.send:
			nlog.Logger().Debug().Uint64("client", c.id).Msg("send queue full, dropping oldest frame")
		default:
		}
	}
}

// inboundMessage 客户端上行消息.
type inboundMessage struct {
	Type    string `json:"type"`
	VideoID string `json:"video_id,omitempty"`
}

// readPump 读取上行消息：按需订阅/退订视频房间，处理 ping.
func (c *Client) readPump() {
	defer func() {
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				nlog.Logger().Warn().Err(err).Uint64("client", c.id).Msg("unexpected websocket close")
			}

			break
		}

		var msg inboundMessage
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "subscribe:video":
			if msg.VideoID != "" {
				c.hub.Join(c, VideoRoom(msg.VideoID))
			}
		case "unsubscribe:video":
			if msg.VideoID != "" {
				c.hub.Leave(c, VideoRoom(msg.VideoID))
			}
		case "ping":
			c.enqueueFrame(Frame{Event: "pong"})
		}
	}
}

// Send 编码并入队一帧下行事件.
func (c *Client) Send(event string, data any) {
	c.enqueueFrame(Frame{Event: event, Data: data})
}

// enqueueFrame 编码并入队一帧.
func (c *Client) enqueueFrame(f Frame) {
	b, err := sonic.Marshal(f)
	if err != nil {
		return
	}

	c.enqueue(b)
}

// writePump 将队列中的帧写出，周期性发送 ping 保活.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if !ok {
				// Hub 关闭了队列
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
