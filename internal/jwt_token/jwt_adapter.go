package jwttoken

import (
	id "guardhouse/pkg/domain"
	authmw "guardhouse/pkg/platform/middleware/auth"
)

// Validator lets a plain function stand in for authmw.JWTValidator.
type Validator func(token string) (*authmw.JWTClaims, error)

func (f Validator) ValidateToken(token string) (*authmw.JWTClaims, error) {
	return f(token)
}

// NewValidator checks signature, issuer and expiry with s and hands the
// middleware only the principal it needs.
func NewValidator(s *JWTService) Validator {
	return func(token string) (*authmw.JWTClaims, error) {
		claims, err := s.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &authmw.JWTClaims{
			OwnerID: id.OwnerID(claims.OwnerID),
			Role:    id.Role(claims.Role),
			JTI:     claims.ID,
		}, nil
	}
}
