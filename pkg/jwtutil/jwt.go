package jwtutil

import (
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID string `json:"uid"`
	Device string `json:"device,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type JWTConfig struct {
	PrivPath string
	PubPath  string
	Issuer   string
	Audience string
}
