package db

import (
	"github.com/glebarez/sqlite"

	"github.com/yeisme/vidvault/pkg/configs"
)

// init 注册纯 Go 实现的 SQLite dialector，无需 cgo.
func init() {
	RegisterDialectorFactory(configs.SQLite, sqlite.Open)
}
