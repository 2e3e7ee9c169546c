package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/ledger"
)

type Accounts struct {
	l     *ledger.Ledger
	clean sanitizer
}

func (a Accounts) Create(c *gin.Context) {
	acct, err := a.l.CreateAccount(c, caller(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, acct)
}

func (a Accounts) SetName(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Mint string `json:"mint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	acct, err := a.l.SetCustomName(c, caller(c), a.clean.Sanitize(req.Name), req.Mint)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

func (a Accounts) SetUseCustomName(c *gin.Context) {
	var req struct {
		Enabled *bool  `json:"enabled" binding:"required"`
		Mint    string `json:"mint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	acct, err := a.l.SetUseCustomName(c, caller(c), *req.Enabled, req.Mint)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, acct)
}

func (a Accounts) Get(c *gin.Context) {
	owner, err := identityParam(c.Param("owner"))
	if err != nil {
		writeErr(c, err)
		return
	}
	acct, err := a.l.GetAccount(c, owner)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acct, "displayName": acct.DisplayName()})
}

func (a Accounts) List(c *gin.Context) {
	accts, err := a.l.ListAccounts(c, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accts})
}

func (a Accounts) Votes(c *gin.Context) {
	owner, err := identityParam(c.Param("owner"))
	if err != nil {
		writeErr(c, err)
		return
	}
	votes, err := a.l.ListVoteRecords(c, owner, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"votes": votes})
}
