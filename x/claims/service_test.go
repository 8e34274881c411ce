package claims

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"testing"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/offbit-ai/zeal-auth/core"
)

const testIssuer = "https://issuer.zeal.test"

func newTestService(providers []core.ProviderConfig, allowUnverified bool) core.ClaimsService {
	return NewService(core.SetupConfig(core.ConfigInput{
		AllowUnverified: allowUnverified,
		Providers:       providers,
	}))
}

func signHS256(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	assert.NoError(t, err)
	return token
}

func makeServiceToken(t *testing.T, payload map[string]any, secret string) string {
	t.Helper()
	raw, err := json.Marshal(payload)
	assert.NoError(t, err)
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encoded))
	return encoded + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func TestExtractClaimsHMAC(t *testing.T) {
	ctx := context.Background()
	service := newTestService([]core.ProviderConfig{
		{
			ID:     "test-hs256",
			Issuer: testIssuer,
			Secret: "test-secret-key",
		},
	}, false)

	token := signHS256(t, jwt.MapClaims{
		"iss":       testIssuer,
		"sub":       "user0",
		"tenant_id": "tenant0",
		"roles":     []string{"admin"},
		"exp":       time.Now().Add(time.Hour).Unix(),
	}, "test-secret-key")

	claims, err := service.ExtractClaims(ctx, token)
	if assert.NoError(t, err) {
		assert.Equal(t, "user0", claims["sub"])
		assert.Equal(t, "tenant0", claims["tenant_id"])
	}

	forged := signHS256(t, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user0",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "wrong-secret")
	_, err = service.ExtractClaims(ctx, forged)
	assert.IsType(t, core.ErrorSignatureInvalid{}, err)

	expired := signHS256(t, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user0",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, "test-secret-key")
	_, err = service.ExtractClaims(ctx, expired)
	assert.IsType(t, core.ErrorTokenExpired{}, err)

	notYet := signHS256(t, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user0",
		"nbf": time.Now().Add(time.Hour).Unix(),
		"exp": time.Now().Add(2 * time.Hour).Unix(),
	}, "test-secret-key")
	_, err = service.ExtractClaims(ctx, notYet)
	assert.IsType(t, core.ErrorTokenNotYetValid{}, err)

	unknown := signHS256(t, jwt.MapClaims{
		"iss": "https://somewhere.else",
		"sub": "user0",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "test-secret-key")
	_, err = service.ExtractClaims(ctx, unknown)
	assert.IsType(t, core.ErrorUnknownIssuer{}, err)

	_, err = service.ExtractClaims(ctx, "not-a-token")
	assert.IsType(t, core.ErrorTokenMalformed{}, err)

	_, err = service.ExtractClaims(ctx, "a.b.c.d")
	assert.IsType(t, core.ErrorTokenMalformed{}, err)
}

func TestExtractClaimsRS256(t *testing.T) {
	ctx := context.Background()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	assert.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	service := newTestService([]core.ProviderConfig{
		{
			ID:        "test-rs256",
			Issuer:    testIssuer,
			Algorithm: "RS256",
			PublicKey: string(pubPEM),
		},
	}, false)

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user0",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(key)
	assert.NoError(t, err)

	claims, err := service.ExtractClaims(ctx, token)
	if assert.NoError(t, err) {
		assert.Equal(t, "user0", claims["sub"])
	}

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss": testIssuer,
		"sub": "user0",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(otherKey)
	assert.NoError(t, err)

	_, err = service.ExtractClaims(ctx, forged)
	assert.IsType(t, core.ErrorSignatureInvalid{}, err)
}

func TestExtractClaimsAudience(t *testing.T) {
	ctx := context.Background()
	service := newTestService([]core.ProviderConfig{
		{
			ID:       "test-aud",
			Issuer:   testIssuer,
			Audience: "zeal-api",
			Secret:   "test-secret-key",
		},
	}, false)

	good := signHS256(t, jwt.MapClaims{
		"iss": testIssuer,
		"aud": "zeal-api",
		"sub": "user0",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "test-secret-key")
	_, err := service.ExtractClaims(ctx, good)
	assert.NoError(t, err)

	wrong := signHS256(t, jwt.MapClaims{
		"iss": testIssuer,
		"aud": "other-api",
		"sub": "user0",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "test-secret-key")
	_, err = service.ExtractClaims(ctx, wrong)
	assert.IsType(t, core.ErrorAudienceMismatch{}, err)
}

func TestExtractClaimsServiceToken(t *testing.T) {
	ctx := context.Background()
	service := newTestService([]core.ProviderConfig{
		{
			ID:     "zeal-sdk",
			Secret: "sdk-signing-secret",
		},
	}, false)

	token := makeServiceToken(t, map[string]any{
		"sub":            "svc0",
		"type":           "service",
		"tenant_id":      "tenant0",
		"application_id": "app0",
		"session_id":     "sess0",
		"exp":            time.Now().Add(time.Hour).Unix(),
		"nbf":            time.Now().Add(-time.Minute).Unix(),
	}, "sdk-signing-secret")

	claims, err := service.ExtractClaims(ctx, token)
	if assert.NoError(t, err) {
		assert.Equal(t, "svc0", claims["sub"])
		assert.Equal(t, "service", claims["type"])
		assert.Equal(t, "app0", claims["application_id"])
	}

	tampered := makeServiceToken(t, map[string]any{
		"sub": "svc0",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "some-other-secret")
	_, err = service.ExtractClaims(ctx, tampered)
	assert.IsType(t, core.ErrorSignatureInvalid{}, err)

	expired := makeServiceToken(t, map[string]any{
		"sub": "svc0",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, "sdk-signing-secret")
	_, err = service.ExtractClaims(ctx, expired)
	assert.IsType(t, core.ErrorTokenExpired{}, err)

	notYet := makeServiceToken(t, map[string]any{
		"sub": "svc0",
		"nbf": time.Now().Add(time.Hour).Unix(),
		"exp": time.Now().Add(2 * time.Hour).Unix(),
	}, "sdk-signing-secret")
	_, err = service.ExtractClaims(ctx, notYet)
	assert.IsType(t, core.ErrorTokenNotYetValid{}, err)

	noSecrets := newTestService([]core.ProviderConfig{
		{
			ID:        "jwks-only",
			Issuer:    testIssuer,
			Algorithm: "RS256",
			JWKSURL:   "https://issuer.zeal.test/.well-known/jwks.json",
		},
	}, false)
	_, err = noSecrets.ExtractClaims(ctx, token)
	assert.IsType(t, core.ErrorUnknownIssuer{}, err)
}

func TestExtractClaimsWallet(t *testing.T) {
	ctx := context.Background()
	service := newTestService([]core.ProviderConfig{
		{
			ID:        "wallet",
			Algorithm: "ES256K",
		},
	}, false)

	key, err := crypto.GenerateKey()
	assert.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()
	privHex := hex.EncodeToString(crypto.FromECDSA(key))

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"ES256K","typ":"JWT"}`))
	payloadJSON, err := json.Marshal(map[string]any{
		"iss": address,
		"sub": address,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.NoError(t, err)
	payload := base64.RawURLEncoding.EncodeToString(payloadJSON)

	signature, err := signBytes([]byte(header+"."+payload), privHex)
	assert.NoError(t, err)
	token := header + "." + payload + "." + base64.RawURLEncoding.EncodeToString(signature)

	claims, err := service.ExtractClaims(ctx, token)
	if assert.NoError(t, err) {
		assert.Equal(t, address, claims["sub"])
	}

	// claiming someone else's address must fail address recovery
	otherKey, err := crypto.GenerateKey()
	assert.NoError(t, err)
	otherAddress := crypto.PubkeyToAddress(otherKey.PublicKey).Hex()
	forgedJSON, err := json.Marshal(map[string]any{
		"iss": otherAddress,
		"sub": otherAddress,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.NoError(t, err)
	forgedPayload := base64.RawURLEncoding.EncodeToString(forgedJSON)
	forgedSig, err := signBytes([]byte(header+"."+forgedPayload), privHex)
	assert.NoError(t, err)
	forged := header + "." + forgedPayload + "." + base64.RawURLEncoding.EncodeToString(forgedSig)

	_, err = service.ExtractClaims(ctx, forged)
	assert.IsType(t, core.ErrorSignatureInvalid{}, err)
}

func TestExtractClaimsUnverifiedFallback(t *testing.T) {
	ctx := context.Background()

	token := signHS256(t, jwt.MapClaims{
		"iss": "https://unregistered.test",
		"sub": "user0",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, "nobody-knows-this-secret")

	strict := newTestService(nil, false)
	_, err := strict.ExtractClaims(ctx, token)
	assert.IsType(t, core.ErrorUnknownIssuer{}, err)

	lenient := newTestService(nil, true)
	claims, err := lenient.ExtractClaims(ctx, token)
	if assert.NoError(t, err) {
		assert.Equal(t, "user0", claims["sub"])
	}

	// expiry is still enforced without signature verification
	expired := signHS256(t, jwt.MapClaims{
		"iss": "https://unregistered.test",
		"sub": "user0",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}, "nobody-knows-this-secret")
	_, err = lenient.ExtractClaims(ctx, expired)
	assert.IsType(t, core.ErrorTokenExpired{}, err)
}

func TestExtractClaimsPassthrough(t *testing.T) {
	ctx := context.Background()
	service := newTestService(nil, false)

	fromMap, err := service.ExtractClaims(ctx, map[string]any{"sub": "user0"})
	if assert.NoError(t, err) {
		assert.Equal(t, "user0", fromMap["sub"])
	}

	fromClaims, err := service.ExtractClaims(ctx, core.Claims{"sub": "user1"})
	if assert.NoError(t, err) {
		assert.Equal(t, "user1", fromClaims["sub"])
	}

	_, err = service.ExtractClaims(ctx, 42)
	assert.IsType(t, core.ErrorClaimsInvalid{}, err)
}

func TestMapToSubject(t *testing.T) {
	ctx := context.Background()
	service := newTestService(nil, false)

	subject, err := service.MapToSubject(ctx, core.Claims{
		"sub":             "user0",
		"type":            "service",
		"tenant_id":       "tenant0",
		"organization_id": "org0",
		"teams":           []any{"team-a", "team-b"},
		"roles":           "admin, editor",
		"permissions":     []any{"workflows.read", 42.0, "workflows.update"},
	})
	if assert.NoError(t, err) {
		assert.Equal(t, "user0", subject.ID)
		assert.Equal(t, "service", subject.Type)
		assert.Equal(t, "tenant0", subject.TenantID)
		assert.Equal(t, "org0", subject.OrganizationID)
		assert.Equal(t, []string{"team-a", "team-b"}, subject.Teams)
		assert.Equal(t, []string{"admin", "editor"}, subject.Roles)
		assert.Equal(t, []string{"workflows.read", "workflows.update"}, subject.Permissions)
		assert.Equal(t, "tenant0", subject.Claims["tenant_id"])
	}

	// type defaults to user, scalars become single-element slices
	subject, err = service.MapToSubject(ctx, core.Claims{
		"sub":   "user1",
		"roles": "viewer",
	})
	if assert.NoError(t, err) {
		assert.Equal(t, core.SubjectTypeUser, subject.Type)
		assert.Equal(t, []string{"viewer"}, subject.Roles)
	}

	_, err = service.MapToSubject(ctx, core.Claims{"tenant_id": "tenant0"})
	assert.IsType(t, core.ErrorClaimsInvalid{}, err)

	_, err = service.MapToSubject(ctx, nil)
	assert.IsType(t, core.ErrorClaimsInvalid{}, err)
}

func TestMapToSubjectCustomPaths(t *testing.T) {
	ctx := context.Background()
	service := NewService(core.SetupConfig(core.ConfigInput{
		Mapping: core.MappingConfig{
			ID:       []string{"user.id", "sub"},
			TenantID: []string{"user.tenant"},
			Roles:    []string{"realm_access.roles", "roles"},
			Groups:   []string{"memberships[0].groups"},
		},
	}))

	subject, err := service.MapToSubject(ctx, core.Claims{
		"user": map[string]any{
			"id":     "user0",
			"tenant": "tenant0",
		},
		"realm_access": map[string]any{
			"roles": []any{"admin"},
		},
		"memberships": []any{
			map[string]any{"groups": []any{"g1", "g2"}},
		},
	})
	if assert.NoError(t, err) {
		assert.Equal(t, "user0", subject.ID)
		assert.Equal(t, "tenant0", subject.TenantID)
		assert.Equal(t, []string{"admin"}, subject.Roles)
		assert.Equal(t, []string{"g1", "g2"}, subject.Groups)
	}

	// first candidate undefined falls through to the next
	subject, err = service.MapToSubject(ctx, core.Claims{"sub": "user1"})
	if assert.NoError(t, err) {
		assert.Equal(t, "user1", subject.ID)
	}
}

func TestTransformClaims(t *testing.T) {
	service := newTestService([]core.ProviderConfig{
		{
			ID:     "keycloak",
			Issuer: testIssuer,
			Secret: "test-secret-key",
			ClaimRenames: map[string]string{
				"tenant_id": "attributes.tenant",
				"roles":     "realm_access.roles",
			},
		},
	}, false)

	source := core.Claims{
		"sub": "user0",
		"attributes": map[string]any{
			"tenant": "tenant0",
		},
		"realm_access": map[string]any{
			"roles": []any{"admin"},
		},
	}

	transformed := service.TransformClaims("keycloak", source)
	assert.Equal(t, "tenant0", transformed["tenant_id"])
	assert.Equal(t, []any{"admin"}, transformed["roles"])

	// the input map is left untouched
	_, ok := source["tenant_id"]
	assert.False(t, ok)

	unchanged := service.TransformClaims("no-such-provider", source)
	assert.Equal(t, source, unchanged)
}

func TestJWKSRegistryEviction(t *testing.T) {
	r := newJWKSRegistry()
	base := time.Now()
	for i := 0; i < jwksMaxEntries; i++ {
		url := fmt.Sprintf("https://idp%d.test/jwks.json", i)
		r.entries[url] = &jwksEntry{jwks: &keyfunc.JWKS{}, lastUsed: base.Add(time.Duration(i) * time.Second)}
	}

	r.evictOldest()
	assert.Len(t, r.entries, jwksMaxEntries-1)
	_, ok := r.entries["https://idp0.test/jwks.json"]
	assert.False(t, ok)
	_, ok = r.entries["https://idp1.test/jwks.json"]
	assert.True(t, ok)

	r.close()
	assert.Empty(t, r.entries)
}

func TestValidateClaims(t *testing.T) {
	service := newTestService(nil, false)

	assert.True(t, service.ValidateClaims(core.Claims{
		"sub": "user0",
		"exp": float64(time.Now().Add(time.Hour).Unix()),
	}))
	assert.False(t, service.ValidateClaims(core.Claims{
		"tenant_id": "tenant0",
	}))
	assert.False(t, service.ValidateClaims(core.Claims{
		"sub": "user0",
		"exp": float64(time.Now().Add(-time.Hour).Unix()),
	}))
	assert.False(t, service.ValidateClaims(nil))
}
