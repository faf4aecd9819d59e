package tlsconfig

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type keyPair struct {
	cert *x509.Certificate
	key  *ecdsa.PrivateKey
}

// issue creates a certificate signed by parent, or self-signed when parent is nil.
func issue(t *testing.T, dir, name string, parent *keyPair, isCA bool, usage x509.ExtKeyUsage) *keyPair {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: name},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  isCA,
		DNSNames:              []string{"localhost"},
	}
	if isCA {
		tmpl.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature
	} else {
		tmpl.KeyUsage = x509.KeyUsageDigitalSignature
		tmpl.ExtKeyUsage = []x509.ExtKeyUsage{usage}
	}

	signer, signerKey := tmpl, key
	if parent != nil {
		signer, signerKey = parent.cert, parent.key
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, signer, &key.PublicKey, signerKey)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate: %v", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	writePEM(t, filepath.Join(dir, name+".crt"), "CERTIFICATE", der)
	writePEM(t, filepath.Join(dir, name+".key"), "EC PRIVATE KEY", keyDER)

	return &keyPair{cert: cert, key: key}
}

func writePEM(t *testing.T, path, typ string, der []byte) {
	t.Helper()
	if err := os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der}), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func setupCerts(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	ca := issue(t, dir, "ca", nil, true, 0)
	issue(t, dir, "server", ca, false, x509.ExtKeyUsageServerAuth)
	issue(t, dir, "client", ca, false, x509.ExtKeyUsageClientAuth)
	return dir
}

func handshake(t *testing.T, serverCfg, clientCfg *tls.Config) (serverErr, clientErr error) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	done := make(chan error, 1)
	go func() {
		conn, err := lis.Accept()
		if err != nil {
			done <- err
			return
		}
		defer conn.Close()
		done <- tls.Server(conn, serverCfg).Handshake()
	}()

	conn, err := net.Dial("tcp", lis.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	clientErr = tls.Client(conn, clientCfg).Handshake()
	return <-done, clientErr
}

func TestMutualTLSHandshake(t *testing.T) {
	dir := setupCerts(t)
	path := func(name string) string { return filepath.Join(dir, name) }

	serverCfg, err := LoadServerTLS(path("server.crt"), path("server.key"), path("ca.crt"))
	if err != nil {
		t.Fatalf("LoadServerTLS failed: %v", err)
	}
	if serverCfg.ClientAuth != tls.RequireAndVerifyClientCert {
		t.Errorf("expected client certs to be required, got %v", serverCfg.ClientAuth)
	}

	clientCfg, err := LoadClientTLS(path("client.crt"), path("client.key"), path("ca.crt"))
	if err != nil {
		t.Fatalf("LoadClientTLS failed: %v", err)
	}
	clientCfg.ServerName = "localhost"

	serverErr, clientErr := handshake(t, serverCfg, clientCfg)
	if serverErr != nil || clientErr != nil {
		t.Fatalf("handshake failed: server=%v client=%v", serverErr, clientErr)
	}
}

func TestServerRejectsClientWithoutCert(t *testing.T) {
	dir := setupCerts(t)
	path := func(name string) string { return filepath.Join(dir, name) }

	serverCfg, err := LoadServerTLS(path("server.crt"), path("server.key"), path("ca.crt"))
	if err != nil {
		t.Fatalf("LoadServerTLS failed: %v", err)
	}

	pool := x509.NewCertPool()
	caPEM, _ := os.ReadFile(path("ca.crt"))
	pool.AppendCertsFromPEM(caPEM)

	serverErr, _ := handshake(t, serverCfg, &tls.Config{RootCAs: pool, ServerName: "localhost"})
	if serverErr == nil {
		t.Fatal("expected server to reject a client without a certificate")
	}
}

func TestLoadServerTLS_WithoutCA(t *testing.T) {
	dir := setupCerts(t)

	cfg, err := LoadServerTLS(filepath.Join(dir, "server.crt"), filepath.Join(dir, "server.key"), "")
	if err != nil {
		t.Fatalf("LoadServerTLS failed: %v", err)
	}
	if cfg.ClientAuth != tls.NoClientCert || cfg.ClientCAs != nil {
		t.Errorf("expected plain TLS without client auth, got %v", cfg.ClientAuth)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := setupCerts(t)
	path := func(name string) string { return filepath.Join(dir, name) }

	garbage := path("garbage.pem")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		load func() error
	}{
		{"missing key pair", func() error {
			_, err := LoadServerTLS(path("nope.crt"), path("nope.key"), "")
			return err
		}},
		{"missing CA", func() error {
			_, err := LoadServerTLS(path("server.crt"), path("server.key"), path("nope.crt"))
			return err
		}},
		{"unparseable CA", func() error {
			_, err := LoadClientTLS(path("client.crt"), path("client.key"), garbage)
			return err
		}},
		{"client without CA file", func() error {
			_, err := LoadClientTLS(path("client.crt"), path("client.key"), "")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.load(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
