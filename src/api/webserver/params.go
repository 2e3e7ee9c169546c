package webserver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/chatledger/src/identity"
	"github.com/stake-plus/chatledger/src/ledger"
)

func caller(c *gin.Context) ledger.Identity {
	return ledger.Identity(c.GetString("addr"))
}

func identityParam(raw string) (ledger.Identity, error) {
	addr, err := identity.Normalize(raw)
	if err != nil {
		return "", err
	}
	return ledger.Identity(addr), nil
}

// pathAddress reads a post address from the postPath parameters.
func pathAddress(c *gin.Context) (ledger.Address, error) {
	owner, err := identityParam(c.Param("owner"))
	if err != nil {
		return ledger.Address{}, err
	}
	return ledger.ParseAddress(strings.Join([]string{
		c.Param("domain"), c.Param("prefix"), c.Param("name"), c.Param("depth"), string(owner), c.Param("seq"),
	}, "/"))
}

func sectionParam(c *gin.Context) ledger.SectionKey {
	return ledger.SectionKey{Prefix: c.Param("prefix"), Name: c.Param("name")}
}

func uintParam(c *gin.Context, name string) (uint64, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errBadRequest, name)
	}
	return v, nil
}

func pollOptionParams(c *gin.Context) (uint64, int, error) {
	id, err := uintParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	idx, err := uintParam(c, "index")
	if err != nil {
		return 0, 0, err
	}
	return id, int(idx), nil
}

func pageQuery(c *gin.Context) ledger.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return ledger.Page{Limit: limit, Offset: offset}
}

func boolQuery(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", errBadRequest, name)
	}
	return &v, nil
}

// toggle is the body of every flag-setting admin route.
type toggle struct {
	Value *bool `json:"value" binding:"required"`
}
