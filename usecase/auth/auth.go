package auth

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/splitlist/taskboard/domain"
	appLogger "github.com/splitlist/taskboard/pkg/logger"
	"github.com/splitlist/taskboard/repository"
)

// Grant bundles what a successful login or refresh hands back: the session,
// a signed bearer token scoped to it, and the profile it belongs to.
type Grant struct {
	Session *domain.Session
	Token   string
	Profile *domain.Profile
}

type UseCase struct {
	profiles repository.ProfileRepository
	sessions repository.SessionRepository
	secret   []byte
	issuer   string
	logger   *zap.Logger
}

func New(profiles repository.ProfileRepository, sessions repository.SessionRepository, secret, issuer string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		profiles: profiles,
		sessions: sessions,
		secret:   []byte(secret),
		issuer:   issuer,
		logger:   logger,
	}
}

// Login resolves the profile by id, or by email when the value contains an
// "@", creates a session and mints a token for it.
func (uc *UseCase) Login(ctx context.Context, profileRef string, ttl time.Duration) (*Grant, error) {
	profileRef = strings.TrimSpace(profileRef)
	if profileRef == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "profile reference is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	var (
		profile *domain.Profile
		err     error
	)
	if strings.Contains(profileRef, "@") {
		profile, err = uc.profiles.GetByEmail(ctx, profileRef)
	} else {
		profile, err = uc.profiles.GetByID(ctx, profileRef)
	}
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    profile.ID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	token, err := uc.mint(profile, session)
	if err != nil {
		return nil, err
	}

	appLogger.WithRequestID(ctx, uc.logger).Info("session created",
		zap.String("session_id", session.ID),
		zap.String("profile_id", profile.ID),
	)
	return &Grant{Session: session, Token: token, Profile: profile}, nil
}

// Refresh extends the session and mints a fresh token carrying the new expiry.
func (uc *UseCase) Refresh(ctx context.Context, sessionID string, ttl time.Duration) (*Grant, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}

	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}

	if err := uc.sessions.Extend(ctx, sessionID, ttl); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().Add(ttl)

	profile, err := uc.profiles.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	token, err := uc.mint(profile, session)
	if err != nil {
		return nil, err
	}
	return &Grant{Session: session, Token: token, Profile: profile}, nil
}

// Revoke deletes the session; tokens minted for it stay valid until expiry.
func (uc *UseCase) Revoke(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *UseCase) mint(profile *domain.Profile, session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    profile.ID,
		"role":       string(profile.Role),
		"session_id": session.ID,
		"iss":        uc.issuer,
		"iat":        session.CreatedAt.Unix(),
		"exp":        session.ExpiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(uc.secret)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "failed to sign token", err)
	}
	return signed, nil
}
