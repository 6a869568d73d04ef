package auth

import (
	"errors"
	"testing"

	"github.com/voicehooks/gateway/internal/domain"
)

func TestKeystore_Validate(t *testing.T) {
	ks := NewKeystore([]string{
		"plain-dev-key",
		HashKey("hashed-key"),
		"",
	})

	if ks.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (empty entries ignored)", ks.Len())
	}

	tests := []struct {
		name    string
		apiKey  string
		wantErr bool
	}{
		{name: "plaintext configured key", apiKey: "plain-dev-key"},
		{name: "hash configured key, plaintext presented", apiKey: "hashed-key"},
		{name: "unknown key", apiKey: "nope", wantErr: true},
		{name: "empty key", apiKey: "", wantErr: true},
		{name: "hash presented instead of key", apiKey: HashKey("hashed-key"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ks.Validate(tt.apiKey)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%q) error = %v, wantErr %v", tt.apiKey, err, tt.wantErr)
			}
			if err == nil {
				return
			}

			var apiErr *domain.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Validate() error is not a domain.APIError: %v", err)
			}
			if apiErr.Kind != domain.KindUnauthorized {
				t.Errorf("error kind = %s, want %s", apiErr.Kind, domain.KindUnauthorized)
			}
		})
	}
}

func TestHashKey(t *testing.T) {
	h := HashKey("secret")
	if len(h) != 64 {
		t.Errorf("HashKey() length = %d, want 64", len(h))
	}
	if h != HashKey("secret") {
		t.Error("HashKey() is not deterministic")
	}
	if h == HashKey("other") {
		t.Error("distinct keys produced the same hash")
	}
}
