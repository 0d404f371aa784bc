package model

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid"
)

// NewID 生成一个按时间有序、抗碰撞的 ULID 标识（26 字符，小写）.
// 同时用于实体主键与对象存储键的随机部分.
func NewID() string {
	id := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader)
	return strings.ToLower(id.String())
}
