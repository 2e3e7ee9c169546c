package webserver

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSelfSigned(t *testing.T, certFile, keyFile, cn string, mod time.Time) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	require.NoError(t, os.Chtimes(certFile, mod, mod))
	require.NoError(t, os.Chtimes(keyFile, mod, mod))
}

func leafCN(t *testing.T, r *TLSReloader) string {
	t.Helper()
	cert, err := r.GetConfig().GetCertificate(nil)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf.Subject.CommonName
}

func TestTLSReloaderPicksUpRenewal(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem")
	start := time.Now().Add(-time.Hour)
	writeSelfSigned(t, certFile, keyFile, "first", start)

	log := logrus.New()
	log.SetOutput(io.Discard)
	r, err := NewTLSReloader(certFile, keyFile, log)
	require.NoError(t, err)
	assert.Equal(t, "first", leafCN(t, r))

	r.check()
	assert.Equal(t, "first", leafCN(t, r))

	writeSelfSigned(t, certFile, keyFile, "second", start.Add(time.Minute))
	r.check()
	assert.Equal(t, "second", leafCN(t, r))
}

func TestTLSReloaderRejectsMissingFiles(t *testing.T) {
	_, err := NewTLSReloader("/nonexistent/cert.pem", "/nonexistent/key.pem", logrus.New())
	assert.Error(t, err)
}
