package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"papermerge/logger"
	"papermerge/models"
	"papermerge/repositories"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const tokenPrefix = "pm_"

// CreatedToken carries the plaintext exactly once, at creation.
type CreatedToken struct {
	Token     models.APIToken `json:"token"`
	Plaintext string          `json:"plaintext"`
}

type AuthService interface {
	CreateToken(ctx context.Context, actor Actor, userID uuid.UUID, name string, scopes []string, expiresAt *time.Time) (CreatedToken, error)
	ListTokens(ctx context.Context, actor Actor, userID uuid.UUID) ([]models.APIToken, error)
	RevokeToken(ctx context.Context, actor Actor, tokenID uuid.UUID) error

	// AuthenticateToken resolves a bearer token to an acting identity
	// with effective scopes already computed.
	AuthenticateToken(ctx context.Context, plaintext string) (Actor, error)
	// AuthenticateRemote resolves reverse-proxy header identity. The
	// user must already exist; provisioning happens elsewhere.
	AuthenticateRemote(ctx context.Context, username string) (Actor, error)

	EffectiveScopes(ctx context.Context, user models.User, token *models.APIToken) (ScopeSet, error)
}

type authService struct {
	users         repositories.UserRepository
	tokens        repositories.TokenRepository
	redis         *redis.Client
	tokenCacheTTL time.Duration
}

func NewAuthService(users repositories.UserRepository, tokens repositories.TokenRepository, redisClient *redis.Client, tokenCacheTTL time.Duration) AuthService {
	return &authService{
		users:         users,
		tokens:        tokens,
		redis:         redisClient,
		tokenCacheTTL: tokenCacheTTL,
	}
}

func hashToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func (s *authService) CreateToken(ctx context.Context, actor Actor, userID uuid.UUID, name string, scopes []string, expiresAt *time.Time) (CreatedToken, error) {
	if !actor.User.IsSuperuser && actor.User.ID != userID {
		return CreatedToken{}, errForbidden("tokens can only be created for yourself")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return CreatedToken{}, errValidation("token name must not be empty")
	}
	if err := ValidateScopes(scopes); err != nil {
		return CreatedToken{}, errValidation(err.Error())
	}
	if _, err := s.users.GetByID(ctx, nil, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CreatedToken{}, errNotFound("user")
		}
		return CreatedToken{}, errInternal("failed to load user", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return CreatedToken{}, errInternal("failed to generate token", err)
	}
	random := base64.RawURLEncoding.EncodeToString(raw)
	plaintext := tokenPrefix + random

	token := models.APIToken{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		TokenHash:   hashToken(plaintext),
		TokenPrefix: random[:8],
		ExpiresAt:   expiresAt,
	}
	if len(scopes) > 0 {
		joined := strings.Join(scopes, ",")
		token.Scopes = &joined
	}
	if err := s.tokens.Create(ctx, nil, &token); err != nil {
		return CreatedToken{}, errInternal("failed to store token", err)
	}
	return CreatedToken{Token: token, Plaintext: plaintext}, nil
}

func (s *authService) ListTokens(ctx context.Context, actor Actor, userID uuid.UUID) ([]models.APIToken, error) {
	if !actor.User.IsSuperuser && actor.User.ID != userID {
		return nil, errForbidden("tokens can only be listed for yourself")
	}
	tokens, err := s.tokens.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, errInternal("failed to list tokens", err)
	}
	return tokens, nil
}

// RevokeToken deletes the token row and purges the read-through cache
// entry so the revocation takes effect immediately, not after the TTL.
func (s *authService) RevokeToken(ctx context.Context, actor Actor, tokenID uuid.UUID) error {
	token, err := s.tokens.GetByID(ctx, nil, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errNotFound("token")
		}
		return errInternal("failed to load token", err)
	}
	if !actor.User.IsSuperuser && token.UserID != actor.User.ID {
		return errForbidden("tokens can only be revoked for yourself")
	}
	if err := s.tokens.Delete(ctx, nil, tokenID); err != nil {
		return errInternal("failed to revoke token", err)
	}
	if s.redis != nil {
		if err := s.redis.Del(ctx, "auth:token:"+token.TokenHash).Err(); err != nil {
			logger.Warnf("token cache purge failed: %v", err)
		}
	}
	return nil
}

// cached shape of one verified token.
type cachedToken struct {
	TokenID   uuid.UUID  `json:"token_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Scopes    *string    `json:"scopes"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *authService) AuthenticateToken(ctx context.Context, plaintext string) (Actor, error) {
	if !strings.HasPrefix(plaintext, tokenPrefix) {
		return Actor{}, errUnauthorized("malformed api token")
	}
	hash := hashToken(plaintext)
	cacheKey := "auth:token:" + hash

	var entry cachedToken
	hit := false
	if s.redis != nil {
		if payload, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			if json.Unmarshal(payload, &entry) == nil {
				hit = true
			}
		}
	}

	var token models.APIToken
	if hit {
		token = models.APIToken{ID: entry.TokenID, UserID: entry.UserID, Scopes: entry.Scopes, ExpiresAt: entry.ExpiresAt}
	} else {
		var err error
		token, err = s.tokens.GetByHash(ctx, nil, hash)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return Actor{}, errUnauthorized("unknown api token")
			}
			return Actor{}, errInternal("failed to look up token", err)
		}
		if s.redis != nil {
			payload, _ := json.Marshal(cachedToken{TokenID: token.ID, UserID: token.UserID, Scopes: token.Scopes, ExpiresAt: token.ExpiresAt})
			if err := s.redis.Set(ctx, cacheKey, payload, s.tokenCacheTTL).Err(); err != nil {
				logger.Warnf("token cache write failed: %v", err)
			}
		}
	}

	// Expiry is re-checked on every request; a cache hit must not outlive
	// the token's own deadline.
	if token.ExpiresAt != nil && token.ExpiresAt.Before(nowUTC()) {
		return Actor{}, errUnauthorized("api token expired")
	}

	user, err := s.users.GetByID(ctx, nil, token.UserID)
	if err != nil {
		return Actor{}, errUnauthorized("token user no longer exists")
	}
	if !user.IsActive {
		return Actor{}, errUnauthorized("user is inactive")
	}

	if err := s.tokens.TouchLastUsed(ctx, nil, token.ID, nowUTC()); err != nil {
		logger.Warnf("failed to touch token last_used_at: %v", err)
	}
	return s.buildActor(ctx, user, &token)
}

func (s *authService) AuthenticateRemote(ctx context.Context, username string) (Actor, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Actor{}, errUnauthorized("authentication missing")
	}
	user, err := s.users.GetByUsername(ctx, nil, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Actor{}, errUnauthorized("unknown user")
		}
		return Actor{}, errInternal("failed to load user", err)
	}
	if !user.IsActive {
		return Actor{}, errUnauthorized("user is inactive")
	}
	return s.buildActor(ctx, user, nil)
}

func (s *authService) buildActor(ctx context.Context, user models.User, token *models.APIToken) (Actor, error) {
	groupIDs, err := s.users.GroupIDsOf(ctx, nil, user.ID)
	if err != nil {
		return Actor{}, errInternal("failed to load groups", err)
	}
	scopes, err := s.EffectiveScopes(ctx, user, token)
	if err != nil {
		return Actor{}, err
	}
	return Actor{User: user, GroupIDs: groupIDs, Scopes: scopes}, nil
}

// EffectiveScopes implements the scope derivation: superusers hold
// everything; otherwise role-derived permissions, intersected with the
// token's scope subset when the token restricts them.
func (s *authService) EffectiveScopes(ctx context.Context, user models.User, token *models.APIToken) (ScopeSet, error) {
	var scopes ScopeSet
	if user.IsSuperuser {
		scopes = FullScopeSet()
	} else {
		perms, err := s.users.RolePermissions(ctx, nil, user.ID)
		if err != nil {
			return nil, errInternal("failed to load permissions", err)
		}
		scopes = NewScopeSet(perms)
	}
	if token != nil && token.Scopes != nil && *token.Scopes != "" {
		restricted := NewScopeSet(strings.Split(*token.Scopes, ","))
		scopes = scopes.Intersect(restricted)
	}
	return scopes, nil
}
