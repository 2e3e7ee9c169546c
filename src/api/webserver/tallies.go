package webserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/api/data"
	"github.com/stake-plus/chatledger/src/ledger"
)

type Tallies struct {
	l     *ledger.Ledger
	cache *data.TallyCache
}

func (t Tallies) Protocol(c *gin.Context) {
	ps, err := t.l.ProtocolState(c)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

func (t Tallies) ProtocolLevels(c *gin.Context) {
	t.levels(c, ledger.ScopeProtocol, "", "")
}

func (t Tallies) DomainLevels(c *gin.Context) {
	d, err := ledger.ParseDomain(c.Param("domain"))
	if err != nil {
		writeErr(c, err)
		return
	}
	t.levels(c, ledger.ScopeDomain, "", d)
}

// SectionLevels aggregates every domain unless ?domain= names one.
func (t Tallies) SectionLevels(c *gin.Context) {
	var d ledger.Domain
	if raw := c.Query("domain"); raw != "" {
		var err error
		if d, err = ledger.ParseDomain(raw); err != nil {
			writeErr(c, err)
			return
		}
	}
	t.levels(c, ledger.ScopeSection, sectionParam(c).String(), d)
}

func (t Tallies) levels(c *gin.Context, scope ledger.Scope, key string, domain ledger.Domain) {
	load := func(ctx context.Context) (data.Levels, error) {
		return t.l.TallyLevels(ctx, scope, key, domain)
	}
	var (
		lv  data.Levels
		err error
	)
	if t.cache != nil {
		lv, err = t.cache.Levels(c, scope, key, domain, load)
	} else {
		lv, err = load(c)
	}
	if err != nil {
		writeErr(c, err)
		return
	}
	byDepth := make(map[string]ledger.Tally, ledger.MaxDepth)
	for d := ledger.DepthComment; d <= ledger.MaxDepth; d++ {
		byDepth[d.String()] = lv[d]
	}
	c.JSON(http.StatusOK, gin.H{"scope": scope, "key": key, "domain": domain, "total": lv[0], "levels": byDepth})
}
