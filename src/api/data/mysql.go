package data

import (
	"github.com/sirupsen/logrus"
	shareddata "github.com/stake-plus/chatledger/src/data"
	"gorm.io/gorm"
)

func MustMySQL(dsn string, log *logrus.Logger) *gorm.DB {
	db, err := shareddata.ConnectMySQL(dsn, log)
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}
