package claims

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/offbit-ai/zeal-auth/core"
)

// verifySDKToken checks a two-segment token of the form
// base64url(payload).base64url(hmacsha256(encodedPayload, secret)).
// The signature covers the encoded payload string, not the raw json.
func verifySDKToken(encodedPayload string, encodedSignature string, secret []byte) (core.Claims, error) {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(encodedPayload))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(encodedSignature), []byte(expected)) {
		return nil, core.NewErrorSignatureInvalid()
	}

	payload, err := base64.RawURLEncoding.DecodeString(encodedPayload)
	if err != nil {
		return nil, core.NewErrorTokenMalformed()
	}

	var claims core.Claims
	err = json.Unmarshal(payload, &claims)
	if err != nil {
		return nil, core.NewErrorTokenMalformed()
	}

	now := time.Now().Unix()
	if exp, ok := numericClaim(claims, "exp"); ok && now >= exp {
		return nil, core.NewErrorTokenExpired()
	}
	if nbf, ok := numericClaim(claims, "nbf"); ok && now < nbf {
		return nil, core.NewErrorTokenNotYetValid()
	}

	return claims, nil
}

func numericClaim(claims core.Claims, key string) (int64, bool) {
	value, ok := claims[key]
	if !ok {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
