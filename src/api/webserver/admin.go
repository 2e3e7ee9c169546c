package webserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/chatledger/src/ledger"
)

// Admin serves the moderator-only routes. The ledger re-checks the role on
// every call.
type Admin struct {
	l     *ledger.Ledger
	clean sanitizer
	log   logrus.FieldLogger
}

func AdminMiddleware(moderator ledger.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		if moderator == "" || caller(c) != moderator {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "admin access required", "code": ledger.CodeNotModerator})
			return
		}
		c.Next()
	}
}

func (a Admin) AddFeeToken(c *gin.Context) {
	var req struct {
		Mint     string `json:"mint" binding:"required,max=64"`
		Decimals uint8  `json:"decimals" binding:"max=18"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	tok, err := a.l.AddFeeToken(c, caller(c), req.Mint, req.Decimals)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, tok)
}

func (a Admin) RemoveFeeToken(c *gin.Context) {
	if err := a.l.RemoveFeeToken(c, caller(c), c.Param("mint")); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a Admin) Mint(c *gin.Context) {
	var req struct {
		Mint   string `json:"mint" binding:"required"`
		To     string `json:"to" binding:"required"`
		Amount uint64 `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	to, err := identityParam(req.To)
	if err != nil {
		writeErr(c, err)
		return
	}
	total, err := a.l.MintTo(c, caller(c), req.Mint, to, req.Amount)
	if err != nil {
		writeErr(c, err)
		return
	}
	a.log.WithFields(logrus.Fields{"mint": req.Mint, "to": to, "amount": req.Amount}).Info("minted fee tokens")
	c.JSON(http.StatusOK, gin.H{"mint": req.Mint, "owner": to, "amount": total})
}

func (a Admin) SetSectionDisabled(c *gin.Context) {
	var req toggle
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sec, err := a.l.SetSectionDisabled(c, caller(c), sectionParam(c), *req.Value)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sec)
}

func (a Admin) DeleteSection(c *gin.Context) {
	if err := a.l.DeleteSection(c, caller(c), sectionParam(c)); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a Admin) SetStar(c *gin.Context) {
	a.setPostFlag(c, a.l.SetStar)
}

func (a Admin) SetFed(c *gin.Context) {
	a.setPostFlag(c, a.l.SetFed)
}

func (a Admin) setPostFlag(c *gin.Context, set func(context.Context, ledger.Identity, ledger.Address, bool) (*ledger.Post, error)) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req toggle
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	post, err := set(c, caller(c), addr, *req.Value)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, postJSON(post))
}

func (a Admin) SetIdeaImplemented(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req toggle
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	idea, err := a.l.SetIdeaImplemented(c, caller(c), addr, *req.Value)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (a Admin) UpdateIdea(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	idea, err := a.l.UpdateIdea(c, caller(c), addr, a.clean.Sanitize(req.Text))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

type pollName struct {
	Name string `json:"name" binding:"required"`
}

func (a Admin) CreatePoll(c *gin.Context) {
	var req pollName
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	poll, err := a.l.CreatePoll(c, caller(c), a.clean.Sanitize(req.Name))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, poll)
}

func (a Admin) EditPoll(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeErr(c, err)
		return
	}
	var req pollName
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	poll, err := a.l.EditPoll(c, caller(c), id, a.clean.Sanitize(req.Name))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

func (a Admin) SetPollActive(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeErr(c, err)
		return
	}
	var req toggle
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	poll, err := a.l.SetPollActive(c, caller(c), id, *req.Value)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, poll)
}

func (a Admin) DeletePoll(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeErr(c, err)
		return
	}
	if err := a.l.DeletePoll(c, caller(c), id); err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (a Admin) CreatePollOption(c *gin.Context) {
	id, err := uintParam(c, "id")
	if err != nil {
		writeErr(c, err)
		return
	}
	var req pollName
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	opt, err := a.l.CreatePollOption(c, caller(c), id, a.clean.Sanitize(req.Name))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, opt)
}

func (a Admin) EditPollOption(c *gin.Context) {
	id, idx, err := pollOptionParams(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req pollName
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	opt, err := a.l.EditPollOption(c, caller(c), id, idx, a.clean.Sanitize(req.Name))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, opt)
}

func (a Admin) SetPollOptionActive(c *gin.Context) {
	id, idx, err := pollOptionParams(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req toggle
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	opt, err := a.l.SetPollOptionActive(c, caller(c), id, idx, *req.Value)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, opt)
}
