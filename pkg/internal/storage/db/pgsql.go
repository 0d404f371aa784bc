package db

import (
	"gorm.io/driver/postgres"

	"github.com/yeisme/vidvault/pkg/configs"
)

// init 注册 PostgreSQL dialector（含别名）.
func init() {
	RegisterDialectorFactory(configs.PostgreSQL, postgres.Open)
	RegisterDialectorFactory(configs.Postgres, postgres.Open)
	RegisterDialectorFactory(configs.Pg, postgres.Open)
}
