package webserver

import (
	"html"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stake-plus/chatledger/src/api/config"
	"github.com/stake-plus/chatledger/src/api/data"
	"github.com/stake-plus/chatledger/src/ledger"
)

// Deps is everything the HTTP layer talks to.
type Deps struct {
	Config  config.Config
	Ledger  *ledger.Ledger
	Redis   *redis.Client
	Cache   *data.TallyCache
	Metrics *Metrics
	Log     logrus.FieldLogger
}

func New(d Deps) *gin.Engine {
	if d.Metrics == nil {
		d.Metrics = NewMetrics()
	}
	if d.Log == nil {
		d.Log = logrus.StandardLogger()
	}
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery(), d.Metrics.Middleware())
	attachRoutes(g, d)
	return g
}

// postPath addresses one post: domain/prefix/name/depth/owner/seq.
const postPath = "/:domain/:prefix/:name/:depth/:owner/:seq"

func attachRoutes(r *gin.Engine, d Deps) {
	cfg := d.Config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/metrics", d.Metrics.Handler())
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	secret := []byte(cfg.JWTSecret)
	limiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	clean := newSanitizer()

	authH := NewAuth(d.Redis, secret, d.Log)
	accountH := Accounts{l: d.Ledger, clean: clean}
	sectionH := Sections{l: d.Ledger}
	postH := Posts{l: d.Ledger, clean: clean}
	pollH := Polls{l: d.Ledger}
	annH := Annotations{l: d.Ledger}
	treasuryH := Treasury{l: d.Ledger}
	tallyH := Tallies{l: d.Ledger, cache: d.Cache}
	adminH := Admin{l: d.Ledger, clean: clean, log: d.Log}

	v1 := r.Group("/v1")
	v1.Use(RateLimitMiddleware(limiter))
	{
		v1.POST("/auth/challenge", authH.Challenge)
		v1.POST("/auth/verify", authH.Verify)

		v1.GET("/accounts", accountH.List)
		v1.GET("/accounts/:owner", accountH.Get)
		v1.GET("/accounts/:owner/votes", accountH.Votes)
		v1.GET("/sections", sectionH.List)
		v1.GET("/sections/:prefix/:name", sectionH.Get)
		v1.GET("/posts", postH.List)
		v1.GET("/posts"+postPath, postH.Get)
		v1.GET("/posts"+postPath+"/replies", postH.Replies)
		v1.GET("/ideas", annH.ListIdeas)
		v1.GET("/ideas"+postPath, annH.GetIdea)
		v1.GET("/flags", annH.ListFlags)
		v1.GET("/flags"+postPath, annH.GetFlag)
		v1.GET("/polls", pollH.List)
		v1.GET("/polls/:id", pollH.Get)
		v1.GET("/fee-tokens", treasuryH.Tokens)
		v1.GET("/balances/:mint/:owner", treasuryH.Balance)
		v1.GET("/protocol", tallyH.Protocol)
		v1.GET("/tallies/protocol", tallyH.ProtocolLevels)
		v1.GET("/tallies/domains/:domain", tallyH.DomainLevels)
		v1.GET("/tallies/sections/:prefix/:name", tallyH.SectionLevels)
	}

	secured := v1.Group("")
	secured.Use(JWTMiddleware(secret), RateLimitMiddleware(limiter))
	{
		secured.POST("/accounts", accountH.Create)
		secured.PUT("/accounts/me/name", accountH.SetName)
		secured.PUT("/accounts/me/custom-name", accountH.SetUseCustomName)

		secured.POST("/sections", sectionH.Create)
		secured.POST("/sections/:prefix/:name/votes", sectionH.Vote)

		secured.POST("/posts", postH.Create)
		secured.POST("/posts"+postPath+"/replies", postH.Reply)
		secured.PUT("/posts"+postPath, postH.Edit)
		secured.DELETE("/posts"+postPath, postH.Delete)
		secured.POST("/posts"+postPath+"/votes", postH.Vote)

		secured.POST("/polls/:id/options/:index/votes", pollH.Vote)
	}

	admin := secured.Group("/admin")
	admin.Use(AdminMiddleware(cfg.Moderator))
	{
		admin.POST("/fee-tokens", adminH.AddFeeToken)
		admin.DELETE("/fee-tokens/:mint", adminH.RemoveFeeToken)
		admin.POST("/mint", adminH.Mint)

		admin.PUT("/sections/:prefix/:name/disabled", adminH.SetSectionDisabled)
		admin.DELETE("/sections/:prefix/:name", adminH.DeleteSection)

		admin.PUT("/posts"+postPath+"/star", adminH.SetStar)
		admin.PUT("/posts"+postPath+"/fed", adminH.SetFed)
		admin.PUT("/ideas"+postPath+"/implemented", adminH.SetIdeaImplemented)
		admin.PUT("/ideas"+postPath, adminH.UpdateIdea)

		admin.POST("/polls", adminH.CreatePoll)
		admin.PUT("/polls/:id", adminH.EditPoll)
		admin.PUT("/polls/:id/active", adminH.SetPollActive)
		admin.DELETE("/polls/:id", adminH.DeletePoll)
		admin.POST("/polls/:id/options", adminH.CreatePollOption)
		admin.PUT("/polls/:id/options/:index", adminH.EditPollOption)
		admin.PUT("/polls/:id/options/:index/active", adminH.SetPollOptionActive)
	}
}

// sanitizer strips all markup from user text before it reaches the ledger.
// The ledger stores plain text, so the entities StrictPolicy escapes to are
// decoded again.
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() sanitizer {
	return sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s sanitizer) Sanitize(text string) string {
	return html.UnescapeString(s.policy.Sanitize(text))
}
