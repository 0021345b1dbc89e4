package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
)

type proofStore interface {
	SetString(ctx context.Context, key, value string, ttl time.Duration) error
	GetDelString(ctx context.Context, key string) (string, error)
}

// PaymentProof is the QR payload handed to the client. The student scans
// the QR and the embedded token comes back with the pay request; the token
// is single-use and expires on its own.
type PaymentProof struct {
	Token     string    `json:"token"`
	QRPayload string    `json:"qr_payload"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PaymentProofService issues and consumes the payment-proof tokens that
// gate the bulk pay operation. The actual money transfer is simulated; the
// token only proves the scan-and-confirm gesture happened in this session.
type PaymentProofService struct {
	store  proofStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewPaymentProofService constructs PaymentProofService.
func NewPaymentProofService(store proofStore, ttl time.Duration, logger *zap.Logger) *PaymentProofService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentProofService{store: store, ttl: ttl, logger: logger}
}

// IssueQR creates a fresh single-use token for the user. Issuing again
// before the previous token is used replaces it.
func (s *PaymentProofService) IssueQR(ctx context.Context, userID int64) (*PaymentProof, error) {
	token := uuid.NewString()
	if err := s.store.SetString(ctx, proofKey(userID), token, s.ttl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue payment proof")
	}
	return &PaymentProof{
		Token:     token,
		QRPayload: fmt.Sprintf("SCHOOLPAY|%d|%s", userID, token),
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}, nil
}

// Consume validates and burns the token. A wrong, reused, or expired token
// rejects the payment; the stored token is gone either way, so a mismatch
// forces a fresh QR scan.
func (s *PaymentProofService) Consume(ctx context.Context, userID int64, token string) error {
	stored, err := s.store.GetDelString(ctx, proofKey(userID))
	if err != nil {
		if appErrors.Is(err, appErrors.ErrCacheMiss) {
			return appErrors.Clone(appErrors.ErrPaymentProofRequired, "payment proof missing or expired")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify payment proof")
	}
	if stored != token {
		s.logger.Warn("payment proof mismatch", zap.Int64("user_id", userID))
		return appErrors.Clone(appErrors.ErrPaymentProofRequired, "payment proof invalid")
	}
	return nil
}

func proofKey(userID int64) string {
	return fmt.Sprintf("pay:proof:%d", userID)
}
