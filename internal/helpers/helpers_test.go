package helpers

import (
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		pageStr   string
		limitStr  string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{name: "defaults", wantPage: 1, wantLimit: DefaultPageSize},
		{name: "explicit", pageStr: "3", limitStr: "25", wantPage: 3, wantLimit: 25},
		{name: "limit capped", pageStr: "1", limitStr: "500", wantPage: 1, wantLimit: MaxPageSize},
		{name: "zero page", pageStr: "0", wantErr: true},
		{name: "negative limit", limitStr: "-5", wantErr: true},
		{name: "garbage page", pageStr: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit, err := ParsePagination(tt.pageStr, tt.limitStr)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("got (%d, %d), want (%d, %d)", page, limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestNewTransactionRef(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	ref := NewTransactionRef(now)

	pattern := regexp.MustCompile(`^TXN-20250615103000-[0-9a-f]{8}$`)
	if !pattern.MatchString(ref) {
		t.Errorf("ref %q does not match expected format", ref)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		r := NewTransactionRef(now)
		if seen[r] {
			t.Fatalf("duplicate transaction ref %q", r)
		}
		seen[r] = true
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-06-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	for _, bad := range []string{"", "15-06-2025", "2025-06-15T10:00:00Z", "not a date"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) accepted invalid input", bad)
		}
	}
}

func TestValidateTokenHMAC(t *testing.T) {
	t.Setenv("AUTH_JWKS_URL", "")
	t.Setenv("AUTH_HMAC_SECRET", "test-secret")

	claims := CustomClaims{
		Role:  "lender",
		Email: "lender@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "b7f9c2d4-0000-4000-8000-000000000001",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("AUTH_HMAC_SECRET")))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	got, err := ValidateToken(signed)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if got.Role != "lender" || got.Subject != claims.Subject {
		t.Errorf("claims round-trip mismatch: %+v", got)
	}
}

func TestValidateTokenRejectsBadSignature(t *testing.T) {
	t.Setenv("AUTH_JWKS_URL", "")
	t.Setenv("AUTH_HMAC_SECRET", "test-secret")

	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("a-different-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, err := ValidateToken(signed); err == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	t.Setenv("AUTH_JWKS_URL", "")
	t.Setenv("AUTH_HMAC_SECRET", "test-secret")

	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	if _, err := ValidateToken(signed); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}
