package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const RoleRecruiter = "recruiter"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type Claims struct {
	RecruiterID uuid.UUID `json:"recruiter_id"`
	Role        string    `json:"role"`

	jwtlib.RegisteredClaims
}

type Service interface {
	IssueToken(recruiterID uuid.UUID, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (Claims, error)
}

// HMACService signs and verifies HS256 access tokens with one shared secret.
type HMACService struct {
	secret []byte
	now    func() time.Time
}

func NewHMACService(secret string) *HMACService {
	return &HMACService{secret: []byte(secret), now: time.Now}
}

func (s *HMACService) IssueToken(recruiterID uuid.UUID, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 || ttl <= 0 || recruiterID == uuid.Nil {
		return "", ErrTokenInvalid
	}
	now := s.now().UTC()
	c := Claims{
		RecruiterID: recruiterID,
		Role:        RoleRecruiter,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			Subject:   recruiterID.String(),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *HMACService) ValidateToken(tokenString string) (Claims, error) {
	if len(s.secret) == 0 {
		return Claims{}, ErrTokenInvalid
	}
	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid || c.RecruiterID == uuid.Nil || c.Role != RoleRecruiter {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}
