package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/boardwatch/domain"
)

// Token is a signed API credential.
type Token struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UseCase issues HS256 bearer tokens accepted by the API middleware.
type UseCase struct {
	secret []byte
	issuer string
	clock  func() time.Time
	logger *zap.Logger
}

func New(secret, issuer string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		secret: []byte(secret),
		issuer: issuer,
		clock:  time.Now,
		logger: logger,
	}
}

// IssueToken signs a token for subject valid for ttl.
func (uc *UseCase) IssueToken(subject string, ttl time.Duration) (*Token, error) {
	if len(uc.secret) == 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "JWT_SECRET is not configured")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, domain.NewError(domain.ErrCodeInvalid, "subject is required")
	}
	if ttl <= 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "ttl must be positive")
	}

	now := uc.clock()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    uc.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(uc.secret)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "sign token", err)
	}

	uc.logger.Info("api token issued",
		zap.String("token_id", claims.ID),
		zap.String("subject", subject),
		zap.Time("expires_at", claims.ExpiresAt.Time))
	return &Token{
		ID:        claims.ID,
		Subject:   subject,
		Value:     signed,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
