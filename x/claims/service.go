// Package claims turns bearer tokens into verified claim sets and maps them
// onto subjects using configurable claim paths.
package claims

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/offbit-ai/zeal-auth/core"
)

var tracer = otel.Tracer("claims")

type service struct {
	config    core.Config
	providers []provider
	byIssuer  map[string]*provider
	jwks      *jwksRegistry
	mapping   compiledMapping
}

type compiledMapping struct {
	id             []core.Path
	subjectType    []core.Path
	tenantID       []core.Path
	organizationID []core.Path
	teams          []core.Path
	groups         []core.Path
	roles          []core.Path
	permissions    []core.Path
}

// NewService creates a claims service from the configured identity providers
// and claim mapping. Providers with unparsable key material are skipped.
func NewService(config core.Config) core.ClaimsService {
	s := &service{
		config: config,
		jwks:   newJWKSRegistry(),
	}

	for _, conf := range config.Providers {
		prov, ok := compileProvider(conf)
		if !ok {
			continue
		}
		s.providers = append(s.providers, prov)
	}

	s.byIssuer = make(map[string]*provider)
	for i := range s.providers {
		if iss := s.providers[i].config.Issuer; iss != "" {
			s.byIssuer[iss] = &s.providers[i]
		}
	}

	s.mapping = compiledMapping{
		id:             compilePaths(config.Mapping.ID),
		subjectType:    compilePaths(config.Mapping.Type),
		tenantID:       compilePaths(config.Mapping.TenantID),
		organizationID: compilePaths(config.Mapping.OrganizationID),
		teams:          compilePaths(config.Mapping.Teams),
		groups:         compilePaths(config.Mapping.Groups),
		roles:          compilePaths(config.Mapping.Roles),
		permissions:    compilePaths(config.Mapping.Permissions),
	}

	return s
}

func compilePaths(candidates []string) []core.Path {
	var out []core.Path
	for _, raw := range candidates {
		path, err := core.ParsePath(raw)
		if err != nil {
			slog.Warn("skipping bad claim mapping path",
				slog.String("path", raw),
				slog.String("error", err.Error()),
			)
			continue
		}
		out = append(out, path)
	}
	return out
}

// ExtractClaims accepts a token string or an already-decoded claims map.
// Tokens are verified against the provider registered for their issuer.
func (s *service) ExtractClaims(ctx context.Context, tokenOrClaims any) (core.Claims, error) {
	ctx, span := tracer.Start(ctx, "Claims.Service.ExtractClaims")
	defer span.End()

	switch v := tokenOrClaims.(type) {
	case core.Claims:
		return v, nil
	case map[string]any:
		return core.Claims(v), nil
	case string:
		claims, err := s.extractFromToken(ctx, v)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		return claims, nil
	}

	return nil, core.NewErrorClaimsInvalid()
}

func (s *service) extractFromToken(ctx context.Context, token string) (core.Claims, error) {
	parts := strings.Split(token, ".")
	switch len(parts) {
	case 2:
		return s.extractFromServiceToken(ctx, parts)
	case 3:
		return s.extractFromJWT(ctx, token, parts)
	}
	return nil, core.NewErrorTokenMalformed()
}

// extractFromServiceToken verifies the two-segment hmac format issued by the
// workflow sdk. The issuer claim picks the provider when present, otherwise
// every secret-bearing provider is tried in configuration order.
func (s *service) extractFromServiceToken(ctx context.Context, parts []string) (core.Claims, error) {
	ctx, span := tracer.Start(ctx, "Claims.Service.ExtractFromServiceToken")
	defer span.End()

	unverified, err := decodeSegment(parts[0])
	if err != nil {
		return nil, core.NewErrorTokenMalformed()
	}

	var candidates []*provider
	if iss, _ := unverified["iss"].(string); iss != "" {
		if prov, ok := s.byIssuer[iss]; ok && prov.secret != nil {
			candidates = []*provider{prov}
		}
	}
	if candidates == nil {
		for i := range s.providers {
			if s.providers[i].secret != nil {
				candidates = append(candidates, &s.providers[i])
			}
		}
	}
	if len(candidates) == 0 {
		return s.handleUnknownIssuer(ctx, unverified)
	}

	var lastErr error
	for _, prov := range candidates {
		claims, err := verifySDKToken(parts[0], parts[1], prov.secret)
		if err != nil {
			lastErr = err
			if _, wrongKey := err.(core.ErrorSignatureInvalid); wrongKey && len(candidates) > 1 {
				continue
			}
			return nil, err
		}
		err = checkAudienceClaim(claims, prov.config.Audience)
		if err != nil {
			return nil, err
		}
		return s.TransformClaims(prov.config.ID, claims), nil
	}
	return nil, lastErr
}

func (s *service) extractFromJWT(ctx context.Context, token string, parts []string) (core.Claims, error) {
	ctx, span := tracer.Start(ctx, "Claims.Service.ExtractFromJWT")
	defer span.End()

	header, err := decodeSegment(parts[0])
	if err != nil {
		return nil, core.NewErrorTokenMalformed()
	}
	unverified, err := decodeSegment(parts[1])
	if err != nil {
		return nil, core.NewErrorTokenMalformed()
	}

	// wallet tokens are self-certifying: the issuer claim is the signer
	// address, so they are routed by algorithm instead of issuer
	if alg, _ := header["alg"].(string); alg == "ES256K" {
		prov := s.walletProvider()
		if prov == nil {
			return s.handleUnknownIssuer(ctx, unverified)
		}
		claims, err := verifyWalletToken(parts, unverified)
		if err != nil {
			return nil, err
		}
		return s.TransformClaims(prov.config.ID, claims), nil
	}

	iss, _ := unverified["iss"].(string)
	prov, ok := s.byIssuer[iss]
	if !ok || !prov.hasKeyMaterial() {
		return s.handleUnknownIssuer(ctx, unverified)
	}

	claims, err := s.verifyJWT(ctx, token, prov)
	if err != nil {
		return nil, err
	}
	return s.TransformClaims(prov.config.ID, claims), nil
}

func (s *service) verifyJWT(ctx context.Context, token string, prov *provider) (core.Claims, error) {
	keyFunc, err := s.keyfuncFor(ctx, prov)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare verification key")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(prov.methods),
		jwt.WithIssuer(prov.config.Issuer),
	}
	if prov.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(prov.config.Audience))
	}

	parsed, err := jwt.ParseWithClaims(token, jwt.MapClaims{}, keyFunc, opts...)
	if err != nil {
		return nil, translateJWTError(err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, core.NewErrorClaimsInvalid()
	}
	return core.Claims(mapClaims), nil
}

func (s *service) keyfuncFor(ctx context.Context, prov *provider) (jwt.Keyfunc, error) {
	if prov.config.JWKSURL != "" {
		return s.jwks.keyfunc(ctx, prov.config.JWKSURL)
	}
	if prov.pubKey != nil {
		key := prov.pubKey
		return func(t *jwt.Token) (any, error) { return key, nil }, nil
	}
	if prov.secret != nil {
		secret := prov.secret
		return func(t *jwt.Token) (any, error) { return secret, nil }, nil
	}
	return nil, errors.New("provider has no verification material")
}

// verifyWalletToken checks a three-segment token signed with a recoverable
// secp256k1 signature over header.payload, where the issuer claim is the
// signer's 0x address.
func verifyWalletToken(parts []string, payload core.Claims) (core.Claims, error) {
	iss, _ := payload["iss"].(string)
	if iss == "" {
		return nil, core.NewErrorIssuerMismatch()
	}

	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, core.NewErrorTokenMalformed()
	}

	err = verifySignerAddress([]byte(parts[0]+"."+parts[1]), signature, iss)
	if err != nil {
		return nil, core.NewErrorSignatureInvalid()
	}

	now := time.Now().Unix()
	if exp, ok := numericClaim(payload, "exp"); ok && now >= exp {
		return nil, core.NewErrorTokenExpired()
	}
	if nbf, ok := numericClaim(payload, "nbf"); ok && now < nbf {
		return nil, core.NewErrorTokenNotYetValid()
	}

	return payload, nil
}

func (s *service) walletProvider() *provider {
	for i := range s.providers {
		if s.providers[i].config.Algorithm == "ES256K" {
			return &s.providers[i]
		}
	}
	return nil
}

func (s *service) handleUnknownIssuer(ctx context.Context, unverified core.Claims) (core.Claims, error) {
	if !s.config.AllowUnverified {
		return nil, core.NewErrorUnknownIssuer()
	}

	slog.Warn("accepting token from unknown issuer without signature verification")

	// expiry still applies when signature verification is skipped
	now := time.Now().Unix()
	if exp, ok := numericClaim(unverified, "exp"); ok && now >= exp {
		return nil, core.NewErrorTokenExpired()
	}
	if nbf, ok := numericClaim(unverified, "nbf"); ok && now < nbf {
		return nil, core.NewErrorTokenNotYetValid()
	}

	return unverified, nil
}

// MapToSubject resolves each subject field from its list of candidate claim
// paths, first defined value wins.
func (s *service) MapToSubject(ctx context.Context, claims core.Claims) (core.Subject, error) {
	_, span := tracer.Start(ctx, "Claims.Service.MapToSubject")
	defer span.End()

	if len(claims) == 0 {
		return core.Subject{}, core.NewErrorClaimsInvalid()
	}

	subject := core.Subject{
		ID:             firstString(claims, s.mapping.id),
		Type:           firstString(claims, s.mapping.subjectType),
		TenantID:       firstString(claims, s.mapping.tenantID),
		OrganizationID: firstString(claims, s.mapping.organizationID),
		Teams:          normalizeStrings(firstValue(claims, s.mapping.teams)),
		Groups:         normalizeStrings(firstValue(claims, s.mapping.groups)),
		Roles:          normalizeStrings(firstValue(claims, s.mapping.roles)),
		Permissions:    normalizeStrings(firstValue(claims, s.mapping.permissions)),
		Claims:         claims,
	}

	if subject.ID == "" {
		err := core.NewErrorClaimsInvalid()
		span.RecordError(err)
		return core.Subject{}, err
	}
	if subject.Type == "" {
		subject.Type = core.SubjectTypeUser
	}

	return subject, nil
}

// ValidateClaims reports whether the claims carry a resolvable subject id and
// are within their validity window.
func (s *service) ValidateClaims(claims core.Claims) bool {
	if len(claims) == 0 {
		return false
	}
	if firstString(claims, s.mapping.id) == "" {
		return false
	}
	now := time.Now().Unix()
	if exp, ok := numericClaim(claims, "exp"); ok && now >= exp {
		return false
	}
	if nbf, ok := numericClaim(claims, "nbf"); ok && now < nbf {
		return false
	}
	return true
}

// TransformClaims applies the provider's claim renames, copying each source
// path value to its target key. The input map is not modified.
func (s *service) TransformClaims(providerID string, claims core.Claims) core.Claims {
	prov := s.providerByID(providerID)
	if prov == nil || len(prov.renames) == 0 {
		return claims
	}

	out := make(core.Claims, len(claims)+len(prov.renames))
	for k, v := range claims {
		out[k] = v
	}
	for _, rule := range prov.renames {
		value, ok := rule.src.Resolve(claims)
		if !ok {
			continue
		}
		setPath(out, rule.dst, value)
	}
	return out
}

func (s *service) providerByID(id string) *provider {
	for i := range s.providers {
		if s.providers[i].config.ID == id {
			return &s.providers[i]
		}
	}
	return nil
}

func setPath(m map[string]any, segments []string, value any) {
	for i, seg := range segments {
		if i == len(segments)-1 {
			m[seg] = value
			return
		}
		var next map[string]any
		switch existing := m[seg].(type) {
		case map[string]any:
			next = make(map[string]any, len(existing)+1)
			for k, v := range existing {
				next[k] = v
			}
		case core.Claims:
			next = make(map[string]any, len(existing)+1)
			for k, v := range existing {
				next[k] = v
			}
		default:
			next = make(map[string]any)
		}
		m[seg] = next
		m = next
	}
}

func firstValue(claims core.Claims, candidates []core.Path) any {
	for _, path := range candidates {
		value, ok := path.Resolve(claims)
		if ok && value != nil {
			return value
		}
	}
	return nil
}

func firstString(claims core.Claims, candidates []core.Path) string {
	return stringify(firstValue(claims, candidates))
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

// normalizeStrings coerces a claim value to a string slice: arrays keep only
// their string elements, strings split on commas, anything else becomes a
// single element.
func normalizeStrings(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		var out []string
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return []string{fmt.Sprintf("%v", value)}
}

func checkAudienceClaim(claims core.Claims, audience string) error {
	if audience == "" {
		return nil
	}
	switch aud := claims["aud"].(type) {
	case string:
		if aud == audience {
			return nil
		}
	case []any:
		for _, item := range aud {
			if str, ok := item.(string); ok && str == audience {
				return nil
			}
		}
	case []string:
		for _, item := range aud {
			if item == audience {
				return nil
			}
		}
	}
	return core.NewErrorAudienceMismatch()
}

func translateJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return core.NewErrorTokenMalformed()
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.NewErrorTokenExpired()
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return core.NewErrorTokenNotYetValid()
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return core.NewErrorAudienceMismatch()
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return core.NewErrorIssuerMismatch()
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return core.NewErrorSignatureInvalid()
	}
	return errors.Wrap(err, "failed to verify token")
}

func decodeSegment(segment string) (core.Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(segment, "="))
	if err != nil {
		return nil, err
	}
	var claims core.Claims
	err = json.Unmarshal(raw, &claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}
