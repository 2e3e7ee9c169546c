package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/identity"
	"github.com/stake-plus/chatledger/src/ledger"
)

var kindStatus = map[ledger.Kind]int{
	ledger.KindAuthorization:    http.StatusForbidden,
	ledger.KindInvalidOperation: http.StatusConflict,
	ledger.KindAlreadyExists:    http.StatusConflict,
	ledger.KindInvalidLength:    http.StatusBadRequest,
	ledger.KindNotFound:         http.StatusNotFound,
}

// writeErr maps err to a status and the {"err", "code"} body.
func writeErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidAddress):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error(), "code": "bad_address"})
		return
	case errors.Is(err, errBadRequest):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error(), "code": "bad_request"})
		return
	}
	if status, ok := kindStatus[ledger.KindOf(err)]; ok {
		c.JSON(status, gin.H{"err": err.Error(), "code": ledger.CodeOf(err)})
		return
	}
	c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"err": "internal error", "code": "internal"})
}

var errBadRequest = errors.New("bad request")

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"err": err.Error(), "code": "bad_request"})
}
