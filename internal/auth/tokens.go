package auth

import (
	"github.com/golang-jwt/jwt/v4"

	"rollcall/pkg/types"
)

// tokenClaims is the HS256 claim set issued at login: the account id and
// its role, which together form the connection identity.
type tokenClaims struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies bearer credentials. It implements
// interfaces.IdentityVerifier.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue signs a token for the given account.
func (s *TokenService) Issue(userID, role string) (string, error) {
	claims := tokenClaims{ID: userID, Role: role}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses a bearer token and returns the identity it carries.
// Any parse or signature failure maps to ErrInvalidToken so callers can
// reject uniformly without leaking the cause.
func (s *TokenService) Verify(tokenString string) (types.Identity, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return types.Identity{}, ErrInvalidToken
	}
	if claims.ID == "" || (claims.Role != types.RoleTeacher && claims.Role != types.RoleStudent) {
		return types.Identity{}, ErrInvalidToken
	}
	return types.Identity{UserID: claims.ID, Role: claims.Role}, nil
}
