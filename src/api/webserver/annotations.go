package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/ledger"
)

// Annotations serves ideas (starred posts) and flag records (fed posts).
type Annotations struct {
	l *ledger.Ledger
}

func (a Annotations) GetIdea(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	idea, err := a.l.GetIdea(c, addr)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (a Annotations) ListIdeas(c *gin.Context) {
	implemented, err := boolQuery(c, "implemented")
	if err != nil {
		writeErr(c, err)
		return
	}
	ideas, err := a.l.ListIdeas(c, implemented, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ideas": ideas})
}

func (a Annotations) GetFlag(c *gin.Context) {
	addr, err := pathAddress(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	flag, err := a.l.GetFlagRecord(c, addr)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, flag)
}

func (a Annotations) ListFlags(c *gin.Context) {
	flags, err := a.l.ListFlagRecords(c, pageQuery(c))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flags": flags})
}
