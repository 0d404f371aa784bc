package hub

import (
	"fmt"
	"testing"
	"time"

	"github.com/bytedance/sonic"
)

func newTestClient(h *Hub) *Client {
	return NewClient(h, nil, "user-1", "org-1", time.Now().Add(time.Hour))
}

// TestJoinEmitLeave 房间加入后能收到广播，离开后不再接收.
func TestJoinEmitLeave(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)

	h.Join(c, OrgRoom("org-1"))

	if h.RoomSize(OrgRoom("org-1")) != 1 {
		t.Fatalf("room size = %d, want 1", h.RoomSize(OrgRoom("org-1")))
	}

	h.Emit(OrgRoom("org-1"), EventVideoProgress, map[string]any{"video_id": "v1", "progress": 15})

	select {
	case raw := <-c.send:
		var f Frame
		if err := sonic.Unmarshal(raw, &f); err != nil {
			t.Fatalf("unmarshal frame: %v", err)
		}

		if f.Event != EventVideoProgress {
			t.Errorf("event = %q", f.Event)
		}
	default:
		t.Fatal("expected frame in send queue")
	}

	h.Leave(c, OrgRoom("org-1"))
	h.Emit(OrgRoom("org-1"), EventVideoProgress, map[string]any{"video_id": "v1"})

	select {
	case <-c.send:
		t.Error("client left the room but still received a frame")
	default:
	}
}

// TestEmitOtherRoomNotDelivered 广播只到达目标房间.
func TestEmitOtherRoomNotDelivered(t *testing.T) {
	h := NewHub()
	a := newTestClient(h)
	b := newTestClient(h)

	h.Join(a, OrgRoom("org-a"))
	h.Join(b, OrgRoom("org-b"))

	h.Emit(OrgRoom("org-a"), EventVideoComplete, map[string]any{"video_id": "v1"})

	if len(a.send) != 1 {
		t.Errorf("room org-a client: %d frames, want 1", len(a.send))
	}

	if len(b.send) != 0 {
		t.Errorf("room org-b client: %d frames, want 0", len(b.send))
	}
}

// TestDropOldest 发送队列溢出时丢最旧的帧，保留最新.
func TestDropOldest(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)

	h.Join(c, UserRoom("user-1"))

	total := sendQueueSize + 8
	for i := range total {
		h.Emit(UserRoom("user-1"), EventVideoProgress, map[string]any{"seq": i})
	}

	if len(c.send) != sendQueueSize {
		t.Fatalf("queue length = %d, want %d", len(c.send), sendQueueSize)
	}

	// 队列里最后一帧应当是最新的 seq
	var last Frame

	for len(c.send) > 0 {
		raw := <-c.send
		_ = sonic.Unmarshal(raw, &last)
	}

	data, _ := last.Data.(map[string]any)

	if fmt.Sprint(data["seq"]) != fmt.Sprint(total-1) {
		t.Errorf("newest frame seq = %v, want %d", data["seq"], total-1)
	}
}

// TestRemoveCleansMembership 关闭连接后房间成员被清理.
func TestRemoveCleansMembership(t *testing.T) {
	h := NewHub()
	c := newTestClient(h)

	h.Join(c, OrgRoom("org-1"))
	h.Join(c, VideoRoom("v1"))

	h.remove(c)

	if h.RoomSize(OrgRoom("org-1")) != 0 || h.RoomSize(VideoRoom("v1")) != 0 {
		t.Error("expected empty rooms after remove")
	}

	if h.ClientCount() != 0 {
		t.Errorf("client count = %d, want 0", h.ClientCount())
	}
}

// TestRoomNames 房间命名.
func TestRoomNames(t *testing.T) {
	if OrgRoom("x") != "org:x" || UserRoom("y") != "user:y" || VideoRoom("z") != "video:z" {
		t.Error("unexpected room name format")
	}
}
