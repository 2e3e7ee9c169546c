package data

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stake-plus/chatledger/src/logging"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// ConnectMySQL opens a gorm DB with sane defaults.
func ConnectMySQL(dsn string, log *logrus.Logger) (*gorm.DB, error) {
	dsn = ensureParam(dsn, "parseTime", "true")
	if !strings.Contains(dsn, "charset=") {
		dsn = ensureParam(dsn, "charset", "utf8mb4")
		dsn = ensureParam(dsn, "collation", "utf8mb4_unicode_ci")
	}
	return gorm.Open(mysql.Open(dsn), GormConfig(log))
}

// GormConfig is shared by the MySQL connection and the test databases.
func GormConfig(log *logrus.Logger) *gorm.Config {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &gorm.Config{Logger: logging.Gorm(log), TranslateError: true}
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}
