package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/ledger"
)

type Treasury struct {
	l *ledger.Ledger
}

func (t Treasury) Tokens(c *gin.Context) {
	tokens, err := t.l.ListFeeTokens(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

func (t Treasury) Balance(c *gin.Context) {
	owner, err := identityParam(c.Param("owner"))
	if err != nil {
		writeErr(c, err)
		return
	}
	amount, err := t.l.Balance(c, c.Param("mint"), owner)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mint": c.Param("mint"), "owner": owner, "amount": amount})
}
