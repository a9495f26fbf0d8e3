package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stanstork/stratum-orgs/internal/authz"
	"github.com/stanstork/stratum-orgs/internal/config"
	"github.com/stanstork/stratum-orgs/internal/models"
	"github.com/stanstork/stratum-orgs/internal/repository"
)

type AuthHandler struct {
	users      repository.UserRepository
	jwtSecret  string
	sessionTTL time.Duration
	logger     zerolog.Logger
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(users repository.UserRepository, cfg *config.Config, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwtSecret:  cfg.JWTSecret,
		sessionTTL: cfg.SessionTTL,
		logger:     logger.With().Str("handler", "auth").Logger(),
	}
}

// SignUp creates an account that belongs to no organization yet.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = models.NormalizeEmail(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if !models.ValidEmail(req.Email) {
		http.Error(w, "Invalid email address", http.StatusBadRequest)
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		http.Error(w, "First and last name are required", http.StatusBadRequest)
		return
	}
	if len(req.Password) < models.MinPasswordLength {
		http.Error(w, "Password is too short", http.StatusBadRequest)
		return
	}

	hash, err := repository.HashPassword(req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to hash password")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	user, err := h.users.CreateUser(r.Context(), models.User{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			http.Error(w, "An account with this email already exists", http.StatusConflict)
			return
		}
		h.logger.Error().Err(err).Msg("failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := repository.Authenticate(r.Context(), h.users, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, repository.ErrInvalidCredentials) {
			h.logger.Warn().Err(err).Msg("authentication failed")
		}
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	tokenString, err := h.IssueToken(user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to sign session token")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

// IssueToken signs a session token for user.
func (h *AuthHandler) IssueToken(user models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(h.sessionTTL).Unix(),
	})
	return token.SignedString([]byte(h.jwtSecret))
}

// JWTMiddleware places the caller's identity on the request context.
func (h *AuthHandler) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
			return
		}
		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !claims.VerifyExpiresAt(time.Now().Unix(), true) {
			http.Error(w, "Token expired", http.StatusUnauthorized)
			return
		}

		userID, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		if userID == "" {
			http.Error(w, "Missing token claim", http.StatusUnauthorized)
			return
		}
		ctx := authz.WithIdentity(r.Context(), authz.Identity{UserID: userID, Email: models.NormalizeEmail(email)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
