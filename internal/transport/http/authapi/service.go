// Package authapi exposes the wallet authentication endpoints.
package authapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"afrochain-auth-go/internal/domain/auth"
	"afrochain-auth-go/internal/domain/users"
	platformerrors "afrochain-auth-go/internal/platform/errors"
	httptransport "afrochain-auth-go/internal/transport/http"
)

const bearerPrefix = "Bearer "

// claimsContextKey is where the auth middleware stores verified claims.
const claimsContextKey = "auth.claims"

// Logger is the printf-style contract shared with the domain layers.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Service registers the wallet auth HTTP surface on a router group.
type Service struct {
	manager *auth.Manager
	logger  Logger
}

// NewService creates the auth API service.
func NewService(manager *auth.Manager, logger Logger) (*Service, error) {
	if manager == nil {
		return nil, errors.New("auth api requires the auth manager")
	}
	if logger == nil {
		return nil, errors.New("auth api requires a logger")
	}
	return &Service{
		manager: manager,
		logger:  logger,
	}, nil
}

// Register mounts the endpoints under /auth on the given group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	group := router.Group("/auth")

	group.POST("/wallet/message", s.handleChallenge)
	group.POST("/wallet/authenticate", s.handleAuthenticate)
	group.GET("/profile/:walletAddress", s.handleGetProfile)
	group.PUT("/profile", s.requireBearer(), s.handleUpdateProfile)

	s.logger.Info("auth API registered under %s/auth", router.BasePath())
	return nil
}

type challengeRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

func (s *Service) handleChallenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "walletAddress is required")
		return
	}

	ch, err := s.manager.Challenge(c.Request.Context(), req.WalletAddress)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}

	httptransport.RespondMessage(c, http.StatusOK, gin.H{
		"message":   ch.Message,
		"nonce":     ch.Nonce,
		"expiresAt": ch.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

type authenticateRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
	Message       string `json:"message" binding:"required"`
}

func (s *Service) handleAuthenticate(c *gin.Context) {
	var req authenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "walletAddress, signature and message are required")
		return
	}

	result, err := s.manager.Authenticate(c.Request.Context(), req.WalletAddress, req.Signature, req.Message)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}

	httptransport.RespondSession(c, http.StatusOK, result.User, result.Token)
}

func (s *Service) handleGetProfile(c *gin.Context) {
	wallet := c.Param("walletAddress")

	user, err := s.manager.GetProfile(c.Request.Context(), wallet)
	if err != nil {
		s.respondDomainError(c, err)
		return
	}

	httptransport.RespondUser(c, http.StatusOK, user)
}

type updateProfileRequest struct {
	WalletAddress string  `json:"walletAddress"`
	DisplayName   *string `json:"displayName"`
	IsFarmer      *bool   `json:"isFarmer"`
}

func (s *Service) handleUpdateProfile(c *gin.Context) {
	claims, ok := claimsFrom(c)
	if !ok {
		httptransport.RespondError(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid profile payload")
		return
	}

	// The token decides whose profile is written; a mismatching explicit
	// target is refused rather than silently redirected.
	target := users.NormalizeAddress(req.WalletAddress)
	if target == "" {
		target = claims.WalletAddress
	}
	if target != claims.WalletAddress {
		httptransport.RespondError(c, http.StatusForbidden, "Token does not match wallet")
		return
	}

	user, err := s.manager.UpdateProfile(c.Request.Context(), target, users.ProfilePatch{
		DisplayName: req.DisplayName,
		IsFarmer:    req.IsFarmer,
	})
	if err != nil {
		s.respondDomainError(c, err)
		return
	}

	httptransport.RespondUser(c, http.StatusOK, user)
}

// requireBearer validates the Authorization header and stores claims on the
// request context for the handler.
func (s *Service) requireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			httptransport.RespondError(c, http.StatusUnauthorized, "Authentication required")
			c.Abort()
			return
		}

		claims, err := s.manager.VerifyToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			httptransport.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) (*auth.Claims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}

// respondDomainError maps domain failures onto the client-safe taxonomy.
// Internal details are logged server-side, never echoed to clients.
func (s *Service) respondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, platformerrors.ErrNotFound):
		httptransport.RespondError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, platformerrors.ErrInvalidSignature):
		httptransport.RespondError(c, http.StatusUnauthorized, "Invalid signature")
	case errors.Is(err, platformerrors.ErrChallengeExpired):
		httptransport.RespondError(c, http.StatusUnauthorized, "Challenge expired or already used")
	case errors.Is(err, platformerrors.ErrStoreUnavailable):
		s.logger.Error("auth backend unavailable: %v", err)
		httptransport.RespondError(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httptransport.RespondError(c, http.StatusRequestTimeout, "Request cancelled")
	case platformerrors.IsKind(err, platformerrors.KindDomain):
		httptransport.RespondError(c, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("auth request failed: %v", err)
		httptransport.RespondError(c, http.StatusInternalServerError, "Authentication failed")
	}
}
