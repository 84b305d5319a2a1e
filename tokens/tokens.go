// Package tokens signs and verifies the three token kinds used by the
// account service: activation tokens carrying a pending registration
// plus a one-time code, and the access/refresh pair backing a session.
package tokens

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/princinho/sahoaccounts/config"
)

// ErrInvalidToken covers every verification failure: bad signature,
// malformed input and expiry. Callers must not learn which.
var ErrInvalidToken = errors.New("token is not valid")

const activationTokenTTL = 5 * time.Minute

// Candidate is a pending registration. It only ever lives inside a
// signed activation token and is discarded once the account exists.
type Candidate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type activationClaims struct {
	User Candidate `json:"user"`
	Code string    `json:"activationCode"`
	jwt.RegisteredClaims
}

type sessionClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// Codec signs tokens with the process-wide secrets. Construct once at
// startup and share; it is immutable and safe for concurrent use.
type Codec struct {
	activationSecret []byte
	accessSecret     []byte
	refreshSecret    []byte
	accessTTL        time.Duration
	refreshTTL       time.Duration
	now              func() time.Time
}

func NewCodec(cfg *config.Config) (*Codec, error) {
	if cfg.ActivationSecret == "" {
		return nil, fmt.Errorf("tokens: ACTIVATION_SECRET is not defined")
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("tokens: access/refresh secrets are not defined")
	}
	return &Codec{
		activationSecret: []byte(cfg.ActivationSecret),
		accessSecret:     []byte(cfg.AccessSecret),
		refreshSecret:    []byte(cfg.RefreshSecret),
		accessTTL:        cfg.AccessTokenTTL,
		refreshTTL:       cfg.RefreshTokenTTL,
		now:              time.Now,
	}, nil
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueActivationToken embeds the candidate and a fresh 4-digit code in
// a token valid for five minutes. The code goes to the user by mail;
// the token goes back to the client; activation needs both.
func (c *Codec) IssueActivationToken(candidate Candidate) (string, string, error) {
	code, err := activationCode()
	if err != nil {
		return "", "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, activationClaims{
		User: candidate,
		Code: code,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(activationTokenTTL)),
		},
	})
	signed, err := token.SignedString(c.activationSecret)
	if err != nil {
		return "", "", err
	}
	return signed, code, nil
}

// VerifyActivationToken returns the embedded candidate and code.
func (c *Codec) VerifyActivationToken(tokenStr string) (Candidate, string, error) {
	claims := &activationClaims{}
	if err := c.verify(tokenStr, claims, c.activationSecret); err != nil {
		return Candidate{}, "", err
	}
	return claims.User, claims.Code, nil
}

func (c *Codec) IssueAccessToken(userID string) (string, error) {
	return c.issueSessionToken(userID, c.accessSecret, c.accessTTL)
}

func (c *Codec) IssueRefreshToken(userID string) (string, error) {
	return c.issueSessionToken(userID, c.refreshSecret, c.refreshTTL)
}

// VerifyAccessToken returns the user id carried by the token.
func (c *Codec) VerifyAccessToken(tokenStr string) (string, error) {
	return c.verifySessionToken(tokenStr, c.accessSecret)
}

// VerifyRefreshToken returns the user id carried by the token.
func (c *Codec) VerifyRefreshToken(tokenStr string) (string, error) {
	return c.verifySessionToken(tokenStr, c.refreshSecret)
}

func (c *Codec) issueSessionToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(c.now().Add(ttl)),
		},
	})
	return token.SignedString(secret)
}

func (c *Codec) verifySessionToken(tokenStr string, secret []byte) (string, error) {
	claims := &sessionClaims{}
	if err := c.verify(tokenStr, claims, secret); err != nil {
		return "", err
	}
	if claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

func (c *Codec) verify(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// activationCode draws a uniform 4-digit code in [1000, 9999].
func activationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}
