package claims

import (
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/offbit-ai/zeal-auth/core"
)

// provider is a ProviderConfig with its verification material parsed once
type provider struct {
	config  core.ProviderConfig
	methods []string
	pubKey  any
	secret  []byte
	renames []renameRule
}

type renameRule struct {
	dst []string
	src core.Path
}

var jwksMethods = []string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512", "PS256", "PS384", "PS512"}

func compileProvider(conf core.ProviderConfig) (provider, bool) {
	p := provider{config: conf}

	switch {
	case conf.Algorithm == "ES256K":
		// verified by signer address recovery, no key material
	case conf.JWKSURL != "":
		if conf.Algorithm != "" {
			p.methods = []string{conf.Algorithm}
		} else {
			p.methods = jwksMethods
		}
	case conf.PublicKey != "":
		alg := conf.Algorithm
		if alg == "" {
			alg = "RS256"
		}
		var err error
		if strings.HasPrefix(alg, "ES") {
			p.pubKey, err = jwt.ParseECPublicKeyFromPEM([]byte(conf.PublicKey))
		} else {
			p.pubKey, err = jwt.ParseRSAPublicKeyFromPEM([]byte(conf.PublicKey))
		}
		if err != nil {
			slog.Error("failed to parse provider public key",
				slog.String("provider", conf.ID),
				slog.String("error", err.Error()),
			)
			return provider{}, false
		}
		p.methods = []string{alg}
	case conf.Secret != "":
		alg := conf.Algorithm
		if alg == "" {
			alg = "HS256"
		}
		p.secret = []byte(conf.Secret)
		p.methods = []string{alg}
	}

	for dst, src := range conf.ClaimRenames {
		srcPath, err := core.ParsePath(src)
		if err != nil {
			slog.Warn("skipping bad claim rename",
				slog.String("provider", conf.ID),
				slog.String("source", src),
				slog.String("error", err.Error()),
			)
			continue
		}
		p.renames = append(p.renames, renameRule{
			dst: strings.Split(dst, "."),
			src: srcPath,
		})
	}

	return p, true
}

// hasKeyMaterial reports whether the provider can verify a signature at all
func (p *provider) hasKeyMaterial() bool {
	return p.pubKey != nil || p.secret != nil || p.config.JWKSURL != "" || p.config.Algorithm == "ES256K"
}
