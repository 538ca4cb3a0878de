package service

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/smart-dostup/marketsync/internal/config"
	"github.com/smart-dostup/marketsync/internal/utils"
)

// AuthService authenticates the single operator account configured via
// environment and issues JWTs for the override editor.
type AuthService struct {
	admin     config.AdminConfig
	jwtSecret string
}

// NewAuthService wires the operator credential.
func NewAuthService(admin config.AdminConfig, jwtSecret string) *AuthService {
	return &AuthService{admin: admin, jwtSecret: jwtSecret}
}

// Login verifies the operator credential and returns a signed token.
func (s *AuthService) Login(username, password string) (string, error) {
	if username != s.admin.Username || s.admin.PasswordHash == "" {
		log.Warn().Str("username", username).Msg("login rejected")
		return "", utils.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("username", username).Msg("password verification failed")
		return "", utils.ErrInvalidCredentials
	}

	log.Info().Str("username", username).Msg("login successful")
	return utils.GenerateJWT(username, s.jwtSecret)
}
