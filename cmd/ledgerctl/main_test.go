package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/chatledger/src/api/webserver"
	"github.com/stake-plus/chatledger/src/identity"
)

func TestRunRejectsUnknownCommand(t *testing.T) {
	assert.ErrorIs(t, run(nil, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run([]string{"frobnicate"}, &bytes.Buffer{}), errUsage)

	var buf bytes.Buffer
	usage(&buf)
	assert.Contains(t, buf.String(), "keygen")
	assert.Contains(t, buf.String(), "fees")
}

func TestKeygenThenSign(t *testing.T) {
	t.Setenv("LEDGER_MNEMONIC", "")
	var buf bytes.Buffer
	require.NoError(t, run([]string{"keygen"}, &buf))
	m := regexp.MustCompile(`mnemonic: (.+)\naddress:  (\S+)`).FindStringSubmatch(buf.String())
	require.Len(t, m, 3)
	phrase, addr := m[1], m[2]

	buf.Reset()
	require.NoError(t, run([]string{"sign", "--mnemonic", phrase, "-n", "abc123"}, &buf))
	sig := regexp.MustCompile(`signature: (0x[0-9a-f]+)`).FindStringSubmatch(buf.String())
	require.Len(t, sig, 2)
	assert.Contains(t, buf.String(), addr)
	assert.NoError(t, identity.Verify(addr, sig[1], webserver.ChallengeMessage("abc123")))

	buf.Reset()
	require.NoError(t, run([]string{"sign", "-m", phrase, "-n", "abc123", "--raw"}, &buf))
	sig = regexp.MustCompile(`signature: (0x[0-9a-f]+)`).FindStringSubmatch(buf.String())
	require.Len(t, sig, 2)
	assert.NoError(t, identity.Verify(addr, sig[1], []byte("abc123")))

	assert.Error(t, run([]string{"sign", "-n", "abc123"}, &buf))
}

func TestAddress(t *testing.T) {
	const alice = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	var buf bytes.Buffer
	require.NoError(t, run([]string{"address", "0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"}, &buf))
	assert.Contains(t, buf.String(), alice)

	buf.Reset()
	err := run([]string{"address", alice, "nope"}, &buf)
	assert.ErrorContains(t, err, "1 invalid")
	assert.Contains(t, buf.String(), "nope\tinvalid")

	assert.Error(t, run([]string{"address"}, &buf))
}

func TestFeesPreview(t *testing.T) {
	t.Setenv("LEDGER_FEES_FILE", "")
	var buf bytes.Buffer
	require.NoError(t, run([]string{"fees"}, &buf))
	out := buf.String()
	assert.Regexp(t, `post\s+1000000000\s+-`, out)
	assert.Regexp(t, `upvote x1\s+300000000\s+100000000`, out)
	assert.Regexp(t, `downvote x1\s+400000000\s+0`, out)

	path := filepath.Join(t.TempDir(), "fees.yaml")
	require.NoError(t, os.WriteFile(path, []byte("post: \"2\"\nvotes:\n  target: \"0.5\"\n"), 0o600))
	buf.Reset()
	require.NoError(t, run([]string{"fees", "-f", path, "--decimals", "2", "--weight", "3"}, &buf))
	out = buf.String()
	assert.Regexp(t, `post\s+200\s+-`, out)
	assert.Regexp(t, `target vote x3\s+150\s+-`, out)
	assert.True(t, strings.HasPrefix(out, "ACTION"))

	assert.Error(t, run([]string{"fees", "-f", filepath.Join(t.TempDir(), "missing.yaml")}, &buf))
}

func TestLogin(t *testing.T) {
	phrase, err := identity.NewMnemonic()
	require.NoError(t, err)
	kp, err := identity.FromMnemonic(phrase, "")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch r.URL.Path {
		case "/v1/auth/challenge":
			_ = json.NewEncoder(w).Encode(map[string]string{"nonce": "n1", "message": string(webserver.ChallengeMessage("n1"))})
		case "/v1/auth/verify":
			if identity.Verify(req["address"], req["signature"], webserver.ChallengeMessage("n1")) != nil {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"err":"bad signature","code":"unauthorized"}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-" + req["address"]})
		}
	}))
	defer srv.Close()

	var buf bytes.Buffer
	require.NoError(t, run([]string{"login", "--api", srv.URL + "/v1", "-m", phrase}, &buf))
	assert.Equal(t, "tok-"+kp.Address, strings.TrimSpace(buf.String()))

	t.Setenv("LEDGER_MNEMONIC", "")
	assert.ErrorContains(t, run([]string{"login", "--api", srv.URL + "/v1"}, &buf), "--mnemonic is required")
}
