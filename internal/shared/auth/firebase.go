package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// FirebaseJWKSURL publishes the keys that sign Firebase ID tokens.
	FirebaseJWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"

	firebaseIssuerPrefix = "https://securetoken.google.com/"
	defaultLeeway        = 30 * time.Second
)

// FirebaseVerifier validates Firebase ID tokens for one project.
type FirebaseVerifier struct {
	projectID string
	keyfunc   jwt.Keyfunc
	parser    *jwt.Parser
}

// NewFirebaseVerifier fetches and refreshes the Google signing keys in the background.
func NewFirebaseVerifier(projectID string) (*FirebaseVerifier, error) {
	keyProvider, err := keyfunc.NewDefault([]string{FirebaseJWKSURL})
	if err != nil {
		return nil, fmt.Errorf("failed to init JWKS keyfunc: %w", err)
	}
	return NewFirebaseVerifierWithKeyfunc(projectID, keyProvider.Keyfunc)
}

// NewFirebaseVerifierWithKeyfunc builds a verifier around an existing key lookup.
func NewFirebaseVerifierWithKeyfunc(projectID string, kf jwt.Keyfunc) (*FirebaseVerifier, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID must be set")
	}
	if kf == nil {
		return nil, errors.New("keyfunc is required")
	}
	parser := jwt.NewParser(
		jwt.WithIssuer(firebaseIssuerPrefix+projectID),
		jwt.WithAudience(projectID),
		jwt.WithLeeway(defaultLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Name}),
	)
	return &FirebaseVerifier{projectID: projectID, keyfunc: kf, parser: parser}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	if err := ctx.Err(); err != nil {
		return Claims{}, err
	}
	var claims tokenClaims
	parsed, err := v.parser.ParseWithClaims(token, &claims, v.keyfunc)
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || len(claims.Subject) > 128 {
		return Claims{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return claims.identity(), nil
}
