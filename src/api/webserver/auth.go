package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/stake-plus/chatledger/src/api/data"
	"github.com/stake-plus/chatledger/src/identity"
)

type Auth struct {
	rdb       *redis.Client
	jwtSecret []byte
	log       logrus.FieldLogger
}

func NewAuth(rdb *redis.Client, secret []byte, log logrus.FieldLogger) Auth {
	return Auth{rdb: rdb, jwtSecret: secret, log: log}
}

// ChallengeMessage is the exact byte string a wallet signs for nonce.
func ChallengeMessage(nonce string) []byte {
	return []byte("<Bytes>chatledger:" + nonce + "</Bytes>")
}

func (a Auth) Challenge(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	addr, err := identity.Normalize(req.Address)
	if err != nil {
		writeErr(c, err)
		return
	}
	nonce := uuid.NewString()
	if err := data.SetNonce(c, a.rdb, addr, nonce); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce, "message": string(ChallengeMessage(nonce))})
}

func (a Auth) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address"   binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	addr, err := identity.Normalize(req.Address)
	if err != nil {
		writeErr(c, err)
		return
	}
	nonce, err := data.GetAndDelNonce(c, a.rdb, addr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"err": "challenge expired", "code": "unauthorized"})
		return
	}
	if err := identity.Verify(addr, req.Signature, ChallengeMessage(nonce)); err != nil {
		a.log.WithField("addr", addr).WithError(err).Debug("signature rejected")
		c.JSON(http.StatusUnauthorized, gin.H{"err": "bad signature", "code": "unauthorized"})
		return
	}
	token, err := issueJWT(addr, a.jwtSecret)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "address": addr})
}
