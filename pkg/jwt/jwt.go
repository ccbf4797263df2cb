package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errores de validación que el caso de uso traduce a códigos de dominio.
var (
	ErrExpired   = errors.New("jwt: token expirado")
	ErrMalformed = errors.New("jwt: token inválido")
)

// Claims incluye los claims estándar JWT más tenant, roles y superusuario.
// Se incluyen los roles para que el middleware RBAC decida sin consultar la DB.
type Claims struct {
	jwt.RegisteredClaims
	TenantID    string   `json:"tenant_id"`
	Roles       []string `json:"roles"`
	IsSuperuser bool     `json:"is_superuser,omitempty"`
}

// Subject datos que se firman en el access token.
type Subject struct {
	UserID      string
	TenantID    string
	Roles       []string
	IsSuperuser bool
}

// Generate genera un access token HS256 firmado con expiración ttl.
func Generate(secret, issuer string, sub Subject, now time.Time, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TenantID:    sub.TenantID,
		Roles:       sub.Roles,
		IsSuperuser: sub.IsSuperuser,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración. Devuelve ErrExpired o ErrMalformed envolviendo la causa.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

// PeekTenant lee el claim tenant_id SIN verificar la firma. Solo sirve para resolver
// el tenant de la petición; la autenticación verifica el token completo después.
func PeekTenant(tokenString string) string {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, &claims); err != nil {
		return ""
	}
	return claims.TenantID
}
