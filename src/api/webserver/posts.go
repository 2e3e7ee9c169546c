package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/ledger"
)

type Posts struct {
	l     *ledger.Ledger
	clean sanitizer
}

func postJSON(p *ledger.Post) gin.H {
	return gin.H{"post": p, "address": p.Address().String()}
}

func (p Posts) Create(c *gin.Context) {
	var req struct {
		Domain  string `json:"domain" binding:"required"`
		Prefix  string `json:"prefix" binding:"required"`
		Name    string `json:"name" binding:"required"`
		Message string `json:"message" binding:"required"`
		Mint    string `json:"mint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	domain, err := ledger.ParseDomain(req.Domain)
	if err != nil {
		writeErr(c, err)
		return
	}
	key := ledger.SectionKey{Prefix: req.Prefix, Name: req.Name}
	post, err := p.l.CreatePost(c, caller(c), domain, key, p.clean.Sanitize(req.Message), req.Mint)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, postJSON(post))
}

func (p Posts) Reply(c *gin.Context) {
	parent, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req struct {
		Message string `json:"message" binding:"required"`
		Mint    string `json:"mint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	post, err := p.l.Reply(c, caller(c), parent, p.clean.Sanitize(req.Message), req.Mint)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, postJSON(post))
}

func (p Posts) Edit(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req struct {
		Message string `json:"message" binding:"required"`
		Mint    string `json:"mint"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	post, err := p.l.EditPost(c, caller(c), addr, p.clean.Sanitize(req.Message), req.Mint)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, postJSON(post))
}

// Delete takes the fee mint from the query string.
func (p Posts) Delete(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	post, err := p.l.DeletePost(c, caller(c), addr, c.Query("mint"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, postJSON(post))
}

func (p Posts) Vote(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	var req struct {
		Candidate string `json:"candidate" binding:"required"`
		Weight    int64  `json:"weight"`
		Mint      string `json:"mint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	candidate, err := identityParam(req.Candidate)
	if err != nil {
		writeErr(c, err)
		return
	}
	post, err := p.l.VotePost(c, caller(c), addr, candidate, req.Weight, req.Mint)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, postJSON(post))
}

func (p Posts) Get(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	post, err := p.l.GetPost(c, addr)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, postJSON(post))
}

func (p Posts) Replies(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	posts, err := p.l.ListReplies(c, addr, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// List filters by domain, prefix+name, depth, owner and deleted=true.
func (p Posts) List(c *gin.Context) {
	var f ledger.PostFilter
	if raw := c.Query("domain"); raw != "" {
		d, err := ledger.ParseDomain(raw)
		if err != nil {
			writeErr(c, err)
			return
		}
		f.Domain = d
	}
	f.Section = ledger.SectionKey{Prefix: c.Query("prefix"), Name: c.Query("name")}
	if raw := c.Query("depth"); raw != "" {
		d, err := strconv.ParseUint(raw, 10, 8)
		if err != nil || !ledger.Depth(d).Valid() {
			badRequest(c, errBadRequest)
			return
		}
		f.Depth = ledger.Depth(d)
	}
	if raw := c.Query("owner"); raw != "" {
		owner, err := identityParam(raw)
		if err != nil {
			writeErr(c, err)
			return
		}
		f.Owner = owner
	}
	deleted, err := boolQuery(c, "deleted")
	if err != nil {
		writeErr(c, err)
		return
	}
	f.IncludeDeleted = deleted != nil && *deleted
	posts, err := p.l.ListPosts(c, f, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}
