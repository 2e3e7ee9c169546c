package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/ledger"
)

type Sections struct {
	l *ledger.Ledger
}

func (s Sections) Create(c *gin.Context) {
	var req struct {
		Prefix string `json:"prefix" binding:"required"`
		Name   string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sec, err := s.l.CreateSection(c, caller(c), ledger.SectionKey{Prefix: req.Prefix, Name: req.Name})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, sec)
}

// Vote casts a video vote on the section.
func (s Sections) Vote(c *gin.Context) {
	var req struct {
		Weight int64  `json:"weight"`
		Mint   string `json:"mint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sec, err := s.l.VoteSection(c, caller(c), sectionParam(c), req.Weight, req.Mint)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sec)
}

func (s Sections) Get(c *gin.Context) {
	sec, err := s.l.GetSection(c, sectionParam(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, sec)
}

func (s Sections) List(c *gin.Context) {
	secs, err := s.l.ListSections(c, c.Query("prefix"), pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sections": secs})
}
