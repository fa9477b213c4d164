package mqtt

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/config"
)

// writeTestPKI writes a CA and a client certificate signed by it into dir.
func writeTestPKI(t *testing.T, dir string) config.MQTTTLSConfig {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating CA key: %v", err)
	}
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "factory-test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("creating CA certificate: %v", err)
	}

	clientKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating client key: %v", err)
	}
	clientTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "publisher-sensors"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}
	clientDER, err := x509.CreateCertificate(rand.Reader, clientTmpl, caTmpl, &clientKey.PublicKey, caKey)
	if err != nil {
		t.Fatalf("creating client certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(clientKey)
	if err != nil {
		t.Fatalf("marshalling client key: %v", err)
	}

	files := config.MQTTTLSConfig{
		CAFile:   filepath.Join(dir, "ca.crt"),
		CertFile: filepath.Join(dir, "publisher.crt"),
		KeyFile:  filepath.Join(dir, "publisher.key"),
	}
	writePEM(t, files.CAFile, "CERTIFICATE", caDER)
	writePEM(t, files.CertFile, "CERTIFICATE", clientDER)
	writePEM(t, files.KeyFile, "EC PRIVATE KEY", keyDER)

	return files
}

func writePEM(t *testing.T, path, blockType string, der []byte) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestBuildTLSConfig_MutualTLS(t *testing.T) {
	files := writeTestPKI(t, t.TempDir())

	tlsConfig, err := buildTLSConfig(files)
	if err != nil {
		t.Fatalf("buildTLSConfig() error = %v", err)
	}

	if tlsConfig.RootCAs == nil {
		t.Error("RootCAs = nil, want CA pool")
	}
	if len(tlsConfig.Certificates) != 1 {
		t.Errorf("len(Certificates) = %d, want 1", len(tlsConfig.Certificates))
	}
	if tlsConfig.MinVersion != tlsMinVersion {
		t.Errorf("MinVersion = %x, want %x", tlsConfig.MinVersion, tlsMinVersion)
	}
}

func TestBuildTLSConfig_CAOnly(t *testing.T) {
	files := writeTestPKI(t, t.TempDir())
	files.CertFile = ""
	files.KeyFile = ""

	tlsConfig, err := buildTLSConfig(files)
	if err != nil {
		t.Fatalf("buildTLSConfig() error = %v", err)
	}
	if len(tlsConfig.Certificates) != 0 {
		t.Errorf("len(Certificates) = %d, want 0", len(tlsConfig.Certificates))
	}
}

func TestBuildTLSConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	good := writeTestPKI(t, dir)

	garbage := filepath.Join(dir, "garbage.crt")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		files config.MQTTTLSConfig
	}{
		{"missing CA file", config.MQTTTLSConfig{CAFile: filepath.Join(dir, "missing.crt")}},
		{"CA file without certificates", config.MQTTTLSConfig{CAFile: garbage}},
		{"certificate without key", config.MQTTTLSConfig{CAFile: good.CAFile, CertFile: good.CertFile}},
		{"key does not match", config.MQTTTLSConfig{CAFile: good.CAFile, CertFile: good.CAFile, KeyFile: good.KeyFile}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildTLSConfig(tt.files)
			if !errors.Is(err, ErrTLSConfig) {
				t.Errorf("buildTLSConfig() error = %v, want ErrTLSConfig", err)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "publisher"
	cfg.Auth.Password = "secret"

	opts, err := buildClientOptions(cfg)
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}

	if got := opts.Servers[0].String(); got != "tcp://127.0.0.1:1883" {
		t.Errorf("broker = %q, want tcp://127.0.0.1:1883", got)
	}
	if opts.ClientID != cfg.Broker.ClientID {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, cfg.Broker.ClientID)
	}
	if opts.Username != "publisher" {
		t.Errorf("Username = %q, want publisher", opts.Username)
	}
	if opts.ConnectRetry {
		t.Error("ConnectRetry = true, initial connection retry belongs to ConnectWithRetry")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883
	cfg.TLS = writeTestPKI(t, t.TempDir())

	opts, err := buildClientOptions(cfg)
	if err != nil {
		t.Fatalf("buildClientOptions() error = %v", err)
	}

	if got := opts.Servers[0].String(); got != "ssl://127.0.0.1:8883" {
		t.Errorf("broker = %q, want ssl://127.0.0.1:8883", got)
	}
	if opts.TLSConfig == nil || len(opts.TLSConfig.Certificates) != 1 {
		t.Error("TLSConfig missing client certificate")
	}
}

func TestRetryDelay(t *testing.T) {
	cfg := testConfig()

	cfg.Reconnect.InitialDelay = 0
	if got := retryDelay(cfg); got != defaultRetryDelay {
		t.Errorf("retryDelay() = %v, want %v", got, defaultRetryDelay)
	}

	cfg.Reconnect.InitialDelay = 7
	if got := retryDelay(cfg); got != 7*time.Second {
		t.Errorf("retryDelay() = %v, want 7s", got)
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantStatus string
		wantReason string
	}{
		{"online", buildOnlinePayload("publisher-sensors"), "online", ""},
		{"graceful offline", buildOfflinePayload("publisher-sensors"), "offline", "graceful_shutdown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p statusPayload
			if err := json.Unmarshal([]byte(tt.payload), &p); err != nil {
				t.Fatalf("payload is not JSON: %v", err)
			}
			if p.Status != tt.wantStatus || p.Reason != tt.wantReason {
				t.Errorf("status/reason = %q/%q, want %q/%q", p.Status, p.Reason, tt.wantStatus, tt.wantReason)
			}
			if p.ClientID != "publisher-sensors" {
				t.Errorf("client_id = %q", p.ClientID)
			}
			if _, err := time.Parse(time.RFC3339, p.Timestamp); err != nil {
				t.Errorf("timestamp %q: %v", p.Timestamp, err)
			}
		})
	}
}
