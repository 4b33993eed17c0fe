package common

import (
	"strings"
	"testing"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f"

func validConfig() ServerConfig {
	return ServerConfig{
		Shards:        []uint64{1, 2},
		TimeoutSecond: 5,
		Endpoint:      "127.0.0.1:8080",
		LogLevel:      "info",
	}
}

func TestServerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *ServerConfig)
		wantErr string
	}{
		{"Valid", func(c *ServerConfig) {}, ""},
		{"ValidEncrypted", func(c *ServerConfig) {
			c.Encryption = EncryptionConfig{Enabled: true, Key: testKeyHex}
		}, ""},
		{"NoShards", func(c *ServerConfig) { c.Shards = nil }, "at least one shard"},
		{"DuplicateShard", func(c *ServerConfig) { c.Shards = []uint64{1, 1} }, "more than once"},
		{"EmptyEndpoint", func(c *ServerConfig) { c.Endpoint = "" }, "endpoint"},
		{"BadLogLevel", func(c *ServerConfig) { c.LogLevel = "loud" }, "invalid log level"},
		{"EncryptionWithoutKey", func(c *ServerConfig) {
			c.Encryption = EncryptionConfig{Enabled: true, Key: "  "}
		}, "no encryption key"},
		{"EncryptionBadHex", func(c *ServerConfig) {
			c.Encryption = EncryptionConfig{Enabled: true, Key: "zz"}
		}, "invalid encryption key"},
		{"EncryptionBadKeySize", func(c *ServerConfig) {
			c.Encryption = EncryptionConfig{Enabled: true, Key: "0011"}
		}, "invalid encryption key"},
		{"DisabledEncryptionIgnoresKey", func(c *ServerConfig) {
			c.Encryption = EncryptionConfig{Enabled: false, Key: "zz"}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.modify(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestServerConfigNewCipher(t *testing.T) {
	c := validConfig()
	cipher, err := c.NewCipher()
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	if cipher.Enabled() {
		t.Error("Expected identity cipher when encryption is disabled")
	}

	c.Encryption = EncryptionConfig{Enabled: true, Key: testKeyHex}
	cipher, err = c.NewCipher()
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}
	if !cipher.Enabled() {
		t.Fatal("Expected an enabled cipher")
	}
	ct, iv, err := cipher.Seal([]byte("secret"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	pt, err := cipher.Open(ct, iv)
	if err != nil || string(pt) != "secret" {
		t.Errorf("Expected round trip of 'secret', got %q (err=%v)", pt, err)
	}
}

func TestServerConfigStringHidesKey(t *testing.T) {
	c := validConfig()
	c.Encryption = EncryptionConfig{Enabled: true, Key: testKeyHex}
	s := c.String()

	if strings.Contains(s, testKeyHex) {
		t.Error("String() must not contain the encryption key")
	}
	for _, want := range []string{"127.0.0.1:8080", "enabled", "32 hex chars", "memory store"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() is missing %q:\n%s", want, s)
		}
	}
}

func TestClientConfigString(t *testing.T) {
	c := ClientConfig{
		Endpoints:     []string{"a:1", "b:2"},
		TimeoutSecond: 3,
		RetryCount:    2,
	}
	s := c.String()
	for _, want := range []string{"a:1", "b:2"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() is missing %q:\n%s", want, s)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "DEBUG"} {
		if _, err := ParseLogLevel(level); err != nil {
			t.Errorf("ParseLogLevel(%q) failed: %v", level, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("Expected error for unknown log level")
	}
}
