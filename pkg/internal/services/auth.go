package services

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/spf13/viper"
)

type accountClaims struct {
	jwt.RegisteredClaims

	Name   string  `json:"name"`
	Nick   string  `json:"nick"`
	Avatar *string `json:"avatar,omitempty"`
}

// Authenticate resolves a bearer token into the account it was issued for.
func Authenticate(tokenStr string) (models.Account, error) {
	var account models.Account

	var claims accountClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(viper.GetString("security.jwt_secret")), nil
	})
	if err != nil || !token.Valid {
		return account, errors.Join(ErrUnauthenticated, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return account, errors.Join(ErrUnauthenticated, err)
	}

	account = models.Account{
		ID:     uint(id),
		Name:   claims.Name,
		Nick:   claims.Nick,
		Avatar: claims.Avatar,
	}
	return account, nil
}
