package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/ledger"
)

type Polls struct {
	l *ledger.Ledger
}

func (p Polls) Vote(c *gin.Context) {
	id, idx, err := pollOptionParams(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req struct {
		Weight int64  `json:"weight"`
		Mint   string `json:"mint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	opt, err := p.l.VotePollOption(c, caller(c), id, idx, req.Weight, req.Mint)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, opt)
}

func (p Polls) Get(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeErr(c, err)
		return
	}
	poll, err := p.l.GetPoll(c, id)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

func (p Polls) List(c *gin.Context) {
	polls, err := p.l.ListPolls(c, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"polls": polls})
}
