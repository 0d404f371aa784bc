package db

import (
	"gorm.io/driver/mysql"

	"github.com/yeisme/vidvault/pkg/configs"
)

// init 注册 MySQL dialector（含别名）.
func init() {
	RegisterDialectorFactory(configs.MySQL, mysql.Open)
	RegisterDialectorFactory(configs.MariaDB, mysql.Open)
}
