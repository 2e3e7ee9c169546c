// Minimal end-to-end smoke run against a live ledger API. LEDGER_MNEMONIC
// must belong to the configured moderator.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/stake-plus/chatledger/src/identity"
	"github.com/stake-plus/chatledger/src/webclient"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8080/v1")
	mnemonic = os.Getenv("LEDGER_MNEMONIC")
	mint     = getenv("SMOKE_MINT", "SMOKE")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func must(step string, err error) {
	if err != nil {
		log.Fatalf("%s: %v", step, err)
	}
	log.Printf("ok  %s", step)
}

func main() {
	if mnemonic == "" {
		log.Fatal("LEDGER_MNEMONIC is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mod, err := identity.FromMnemonic(mnemonic, "")
	must("derive moderator key", err)
	user, err := identity.FromMnemonic(mnemonic, uuid.NewString())
	must("derive throwaway user key", err)

	admin := webclient.New(baseURL)
	_, err = admin.Login(ctx, mod.Address, mod)
	must("moderator login", err)
	if err := admin.Do(ctx, http.MethodPost, "/accounts", nil, nil); err != nil {
		log.Printf("moderator account: %v", err)
	}
	if err := admin.Do(ctx, http.MethodPost, "/admin/fee-tokens", map[string]any{"mint": mint, "decimals": 10}, nil); err != nil {
		log.Printf("fee token: %v", err)
	}
	must("mint to user", admin.Do(ctx, http.MethodPost, "/admin/mint",
		map[string]any{"mint": mint, "to": user.Address, "amount": uint64(100_000_000_000)}, nil))

	c := webclient.New(baseURL)
	_, err = c.Login(ctx, user.Address, user)
	must("user login", err)
	must("create account", c.Do(ctx, http.MethodPost, "/accounts", nil, nil))

	section := "s" + uuid.NewString()[:8]
	must("create section", c.Do(ctx, http.MethodPost, "/sections", map[string]string{"prefix": "smoke", "name": section}, nil))

	var created struct {
		Address string `json:"address"`
	}
	must("create post", c.Do(ctx, http.MethodPost, "/posts", map[string]string{
		"domain": "main", "prefix": "smoke", "name": section, "message": "hello from the smoke run", "mint": mint,
	}, &created))
	must("reply", c.Do(ctx, http.MethodPost, "/posts/"+created.Address+"/replies",
		map[string]string{"message": "first reply", "mint": mint}, nil))
	must("star", admin.Do(ctx, http.MethodPut, "/admin/posts/"+created.Address+"/star", map[string]bool{"value": true}, nil))

	var tally struct {
		Total map[string]any `json:"total"`
	}
	must("section tally", c.Do(ctx, http.MethodGet, "/tallies/sections/smoke/"+section+"?domain=main", nil, &tally))
	fmt.Printf("section smoke/%s totals: %v\n", section, tally.Total)
}
