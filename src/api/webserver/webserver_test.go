package webserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stake-plus/chatledger/src/api/config"
	"github.com/stake-plus/chatledger/src/api/data"
	"github.com/stake-plus/chatledger/src/identity"
	"github.com/stake-plus/chatledger/src/ledger"
)

const (
	testSecret = "0123456789abcdef0123456789abcdef"
	testMint   = "USDC"
)

type harness struct {
	t         *testing.T
	router    *gin.Engine
	ledger    *ledger.Ledger
	moderator *identity.KeyPair
	treasurer *identity.KeyPair
	alice     *identity.KeyPair
	bob       *identity.KeyPair
	tokens    map[string]string
}

func newKeyPair(t *testing.T) *identity.KeyPair {
	t.Helper()
	phrase, err := identity.NewMnemonic()
	require.NoError(t, err)
	kp, err := identity.FromMnemonic(phrase, "")
	require.NoError(t, err)
	return kp
}

func newHarness(t *testing.T, rps float64, burst int) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	h := &harness{
		t:         t,
		moderator: newKeyPair(t),
		treasurer: newKeyPair(t),
		alice:     newKeyPair(t),
		bob:       newKeyPair(t),
		tokens:    map[string]string{},
	}
	cfg := config.Config{
		JWTSecret:      testSecret,
		Moderator:      ledger.Identity(h.moderator.Address),
		Treasurer:      ledger.Identity(h.treasurer.Address),
		Fees:           ledger.DefaultFees(),
		RateLimitRPS:   rps,
		RateLimitBurst: burst,
		AllowOrigins:   []string{"http://localhost:3000"},
	}

	store := ledger.NewStore(db)
	require.NoError(t, store.Migrate())
	cache := data.NewTallyCache(rdb, time.Minute, log)
	metrics := NewMetrics()
	l, err := ledger.New(store, cfg.Roles(), ledger.WithLogger(log), ledger.WithSinks(cache, metrics))
	require.NoError(t, err)
	h.ledger = l

	h.router = New(Deps{Config: cfg, Ledger: l, Redis: rdb, Cache: cache, Metrics: metrics, Log: log})
	return h
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(h.t, err)
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (h *harness) login(kp *identity.KeyPair) string {
	h.t.Helper()
	if tok, ok := h.tokens[kp.Address]; ok {
		return tok
	}
	w := h.do(http.MethodPost, "/v1/auth/challenge", "", gin.H{"address": kp.Address})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	nonce := decode(h.t, w)["nonce"].(string)

	sig, err := kp.Sign(ChallengeMessage(nonce))
	require.NoError(h.t, err)
	w = h.do(http.MethodPost, "/v1/auth/verify", "", gin.H{"address": kp.Address, "signature": sig})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	tok := decode(h.t, w)["token"].(string)
	h.tokens[kp.Address] = tok
	return tok
}

// bootstrap registers the fee token, opens accounts for every key and funds
// alice and bob.
func (h *harness) bootstrap() {
	h.t.Helper()
	mod := h.login(h.moderator)
	w := h.do(http.MethodPost, "/v1/admin/fee-tokens", mod, gin.H{"mint": testMint, "decimals": 6})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())

	for _, kp := range []*identity.KeyPair{h.moderator, h.alice, h.bob} {
		w = h.do(http.MethodPost, "/v1/accounts", h.login(kp), nil)
		require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	}
	for _, kp := range []*identity.KeyPair{h.alice, h.bob} {
		w = h.do(http.MethodPost, "/v1/admin/mint", mod, gin.H{"mint": testMint, "to": kp.Address, "amount": 100_000_000})
		require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	}
	w = h.do(http.MethodPost, "/v1/sections", h.login(h.alice), gin.H{"prefix": "yt", "name": "abc123"})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
}

func TestAuthChallengeVerify(t *testing.T) {
	h := newHarness(t, 1000, 1000)

	w := h.do(http.MethodPost, "/v1/auth/challenge", "", gin.H{"address": h.alice.Address})
	require.Equal(t, http.StatusOK, w.Code)
	nonce := decode(t, w)["nonce"].(string)

	wrong, err := h.bob.Sign(ChallengeMessage(nonce))
	require.NoError(t, err)
	w = h.do(http.MethodPost, "/v1/auth/verify", "", gin.H{"address": h.alice.Address, "signature": wrong})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// the nonce was consumed by the failed attempt
	sig, err := h.alice.Sign(ChallengeMessage(nonce))
	require.NoError(t, err)
	w = h.do(http.MethodPost, "/v1/auth/verify", "", gin.H{"address": h.alice.Address, "signature": sig})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok := h.login(h.alice)
	w = h.do(http.MethodPost, "/v1/accounts", tok, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = h.do(http.MethodPost, "/v1/accounts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = h.do(http.MethodPost, "/v1/accounts", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(http.MethodPost, "/v1/auth/challenge", "", gin.H{"address": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_address", decode(t, w)["code"])
}

func TestPostLifecycle(t *testing.T) {
	h := newHarness(t, 1000, 1000)
	h.bootstrap()
	alice, bob, mod := h.login(h.alice), h.login(h.bob), h.login(h.moderator)

	w := h.do(http.MethodPost, "/v1/posts", alice, gin.H{
		"domain": "main", "prefix": "yt", "name": "abc123", "message": "<b>hello</b> world", "mint": testMint,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	addr := body["address"].(string)
	assert.Equal(t, "hello world", body["post"].(map[string]any)["message"])

	w = h.do(http.MethodPost, "/v1/posts/"+addr+"/replies", bob, gin.H{"message": "agreed", "mint": testMint})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/v1/posts/"+addr+"/replies", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["posts"], 1)

	w = h.do(http.MethodPost, "/v1/posts/"+addr+"/votes", bob, gin.H{"candidate": h.alice.Address, "weight": 3, "mint": testMint})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 3, decode(t, w)["post"].(map[string]any)["voteScore"])

	w = h.do(http.MethodPost, "/v1/posts/"+addr+"/votes", bob, gin.H{"candidate": h.bob.Address, "weight": 1, "mint": testMint})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(ledger.CodeWrongCandidate), decode(t, w)["code"])

	w = h.do(http.MethodPut, "/v1/admin/posts/"+addr+"/star", alice, gin.H{"value": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPut, "/v1/admin/posts/"+addr+"/star", mod, gin.H{"value": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/v1/ideas/"+addr, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world", decode(t, w)["text"])

	w = h.do(http.MethodPut, "/v1/admin/ideas/"+addr+"/implemented", mod, gin.H{"value": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodGet, "/v1/ideas?implemented=true", "", nil)
	assert.Len(t, decode(t, w)["ideas"], 1)

	w = h.do(http.MethodGet, "/v1/tallies/sections/yt/abc123", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tally := decode(t, w)
	total := tally["total"].(map[string]any)
	assert.EqualValues(t, 2, total["posts"])
	assert.EqualValues(t, 1, total["stars"])
	assert.EqualValues(t, 3, total["upVoteScore"])

	w = h.do(http.MethodDelete, "/v1/posts/"+addr+"?mint="+testMint, alice, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// the delete invalidated the cached counters
	w = h.do(http.MethodGet, "/v1/tallies/sections/yt/abc123?domain=main", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"].(map[string]any)["deletes"])

	w = h.do(http.MethodPut, "/v1/posts/"+addr, alice, gin.H{"message": "again", "mint": testMint})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(ledger.CodePostDeleted), decode(t, w)["code"])
}

func TestUserTextKeepsPunctuation(t *testing.T) {
	h := newHarness(t, 1000, 1000)
	h.bootstrap()
	alice, mod := h.login(h.alice), h.login(h.moderator)

	full := "it's " + strings.Repeat("x", ledger.MaxMessageLen-5)
	require.Len(t, full, ledger.MaxMessageLen)
	w := h.do(http.MethodPost, "/v1/posts", alice, gin.H{
		"domain": "main", "prefix": "yt", "name": "abc123", "message": full, "mint": testMint,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	addr := body["address"].(string)
	assert.Equal(t, full, body["post"].(map[string]any)["message"])

	w = h.do(http.MethodPut, "/v1/posts/"+addr, alice, gin.H{"message": `a < b && "c" > d <i>x</i>`, "mint": testMint})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `a < b && "c" > d x`, decode(t, w)["post"].(map[string]any)["message"])

	w = h.do(http.MethodPost, "/v1/posts/"+addr+"/replies", alice, gin.H{"message": "<script>alert(1)</script>Tom's", "mint": testMint})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Tom's", decode(t, w)["post"].(map[string]any)["message"])

	w = h.do(http.MethodPut, "/v1/accounts/me/name", alice, gin.H{"name": "O'Brien & Co", "mint": testMint})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "O'Brien & Co", decode(t, w)["name"])

	w = h.do(http.MethodPost, "/v1/admin/polls", mod, gin.H{"name": "what's next?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "what's next?", decode(t, w)["name"])
}

func TestVoteWeightOutOfRange(t *testing.T) {
	h := newHarness(t, 1000, 1000)
	h.bootstrap()
	alice, bob := h.login(h.alice), h.login(h.bob)

	w := h.do(http.MethodPost, "/v1/posts", alice, gin.H{
		"domain": "main", "prefix": "yt", "name": "abc123", "message": "hi", "mint": testMint,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	addr := decode(t, w)["address"].(string)

	w = h.do(http.MethodPost, "/v1/posts/"+addr+"/votes", bob, gin.H{"candidate": h.alice.Address, "weight": int64(math.MinInt64), "mint": testMint})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(ledger.CodeBadAmount), decode(t, w)["code"])

	w = h.do(http.MethodPost, "/v1/sections/yt/abc123/votes", bob, gin.H{"weight": int64(math.MinInt64), "mint": testMint})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(ledger.CodeBadAmount), decode(t, w)["code"])

	w = h.do(http.MethodGet, "/v1/balances/"+testMint+"/"+h.bob.Address, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 100_000_000, decode(t, w)["amount"])
}

func TestErrorMapping(t *testing.T) {
	h := newHarness(t, 1000, 1000)
	h.bootstrap()
	alice := h.login(h.alice)

	missing := "main/yt/abc123/1/" + h.alice.Address + "/99"
	w := h.do(http.MethodGet, "/v1/posts/"+missing, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, string(ledger.CodePostNotFound), decode(t, w)["code"])

	w = h.do(http.MethodGet, "/v1/posts/main/yt/abc123/1/not-an-address/0", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPost, "/v1/posts", alice, gin.H{
		"domain": "main", "prefix": "yt", "name": "abc123", "message": strings.Repeat("x", ledger.MaxMessageLen+1), "mint": testMint,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(ledger.CodeTooLong), decode(t, w)["code"])

	w = h.do(http.MethodPost, "/v1/posts", alice, gin.H{
		"domain": "forum", "prefix": "yt", "name": "abc123", "message": "hi", "mint": testMint,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(ledger.CodeUnknownDomain), decode(t, w)["code"])

	w = h.do(http.MethodPost, "/v1/sections", alice, gin.H{"prefix": "yt", "name": "abc123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(ledger.CodeSectionExists), decode(t, w)["code"])

	w = h.do(http.MethodPost, "/v1/sections/yt/abc123/votes", alice, gin.H{"weight": 0, "mint": testMint})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(ledger.CodeZeroVote), decode(t, w)["code"])

	w = h.do(http.MethodGet, "/v1/polls/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, "/v1/balances/"+testMint+"/"+h.alice.Address, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 100_000_000, decode(t, w)["amount"], "rejected calls must not charge fees")
}

func TestPollRoutes(t *testing.T) {
	h := newHarness(t, 1000, 1000)
	h.bootstrap()
	mod, bob := h.login(h.moderator), h.login(h.bob)

	w := h.do(http.MethodPost, "/v1/admin/polls", mod, gin.H{"name": "Next feature"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := int(decode(t, w)["id"].(float64))
	pollPath := "/v1/admin/polls/" + strconv.Itoa(id)

	w = h.do(http.MethodPost, pollPath+"/options", mod, gin.H{"name": "Dark mode"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	votePath := "/v1/polls/" + strconv.Itoa(id) + "/options/1/votes"
	w = h.do(http.MethodPost, votePath, bob, gin.H{"weight": 2, "mint": testMint})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodDelete, pollPath, mod, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(ledger.CodeActiveChildren), decode(t, w)["code"])

	w = h.do(http.MethodPut, pollPath+"/options/1/active", mod, gin.H{"value": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = h.do(http.MethodPost, votePath, bob, gin.H{"weight": 2, "mint": testMint})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodDelete, pollPath, mod, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, 0.001, 2)
	for i := 0; i < 2; i++ {
		w := h.do(http.MethodGet, "/v1/sections", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := h.do(http.MethodGet, "/v1/sections", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "rate_limited", decode(t, w)["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, 1000, 1000)
	h.bootstrap()

	w := h.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()
	assert.Contains(t, out, `chatledger_http_requests_total{method="POST",route="/v1/accounts",status="201"} 3`)
	assert.Contains(t, out, `chatledger_ledger_events_total{action="account.create"} 3`)
}

func TestAdminMiddlewareRejectsOthers(t *testing.T) {
	h := newHarness(t, 1000, 1000)
	w := h.do(http.MethodPost, "/v1/admin/fee-tokens", h.login(h.alice), gin.H{"mint": testMint, "decimals": 6})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, string(ledger.CodeNotModerator), decode(t, w)["code"])

	_, err := h.ledger.ListFeeTokens(context.Background())
	require.NoError(t, err)
}
