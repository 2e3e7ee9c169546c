package webserver

import (
	"context"
	"crypto/tls"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TLSReloader serves a certificate pair from disk and picks up renewals
// without a restart.
type TLSReloader struct {
	certFile    string
	keyFile     string
	log         logrus.FieldLogger
	mu          sync.RWMutex
	cert        *tls.Certificate
	lastModCert time.Time
	lastModKey  time.Time
}

func NewTLSReloader(certFile, keyFile string, log logrus.FieldLogger) (*TLSReloader, error) {
	r := &TLSReloader{certFile: certFile, keyFile: keyFile, log: log}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *TLSReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return err
	}
	certInfo, _ := os.Stat(r.certFile)
	keyInfo, _ := os.Stat(r.keyFile)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cert = &cert
	if certInfo != nil {
		r.lastModCert = certInfo.ModTime()
	}
	if keyInfo != nil {
		r.lastModKey = keyInfo.ModTime()
	}
	r.log.WithField("cert", r.certFile).Info("TLS certificate loaded")
	return nil
}

// check reloads the pair when either file is newer than the loaded copy.
func (r *TLSReloader) check() {
	certInfo, err := os.Stat(r.certFile)
	if err != nil {
		r.log.WithError(err).Warn("stat cert file")
		return
	}
	keyInfo, err := os.Stat(r.keyFile)
	if err != nil {
		r.log.WithError(err).Warn("stat key file")
		return
	}
	r.mu.RLock()
	changed := certInfo.ModTime().After(r.lastModCert) || keyInfo.ModTime().After(r.lastModKey)
	r.mu.RUnlock()
	if !changed {
		return
	}
	if err := r.reload(); err != nil {
		r.log.WithError(err).Error("reload TLS certificate")
	}
}

// Watch polls the files every interval until ctx ends.
func (r *TLSReloader) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.check()
		}
	}
}

func (r *TLSReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

func (r *TLSReloader) GetConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: r.GetCertificate,
		MinVersion:     tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		},
	}
}
