package redis

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"signals-api/internal/client"
	"signals-api/internal/config"
	"signals-api/internal/model"
	"signals-api/internal/util"
)

const otpPrefix = "otp:"

var (
	// ErrCodeInvalid means no pending code matches the (number, code) pair:
	// either it never existed or it was already consumed.
	ErrCodeInvalid = errors.New("invalid reset code")
	// ErrCodeExpired means the code existed but its validity window elapsed.
	ErrCodeExpired = errors.New("reset code has expired")
)

// OTPStore holds pending one-time reset codes.
type OTPStore interface {
	Issue(ctx context.Context, userID, number string) (string, error)
	Consume(ctx context.Context, number, code string) (*model.OTP, error)
	Restore(ctx context.Context, otp *model.OTP) error
}

type otpStore struct {
	client     *client.RedisClient
	ttl        time.Duration
	codeLength int
	now        func() time.Time
}

func NewOTPStore(redisClient *client.RedisClient, cfg *config.Config) OTPStore {
	return &otpStore{
		client:     redisClient,
		ttl:        cfg.OTP.TTL,
		codeLength: cfg.OTP.CodeLength,
		now:        time.Now,
	}
}

func otpKey(number, code string) string {
	return otpPrefix + number + ":" + code
}

// Issue generates a fresh numeric code bound to the user and number and
// persists it with the store-level TTL. The key TTL is a safety net; Consume
// still re-checks CreatedAt because key expiry is asynchronous.
func (s *otpStore) Issue(ctx context.Context, userID, number string) (string, error) {
	code, err := GenerateCode(s.codeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}

	record := &model.OTP{
		ID:        uuid.New().String(),
		UserID:    userID,
		Number:    number,
		Code:      code,
		CreatedAt: s.now().UTC(),
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode reset code: %w", err)
	}

	if err := s.client.Set(ctx, otpKey(number, code), payload, s.ttl); err != nil {
		util.Error("Failed to store reset code",
			zap.String("number", number),
			zap.Error(err))
		return "", fmt.Errorf("failed to store reset code: %w", err)
	}

	util.Info("Reset code issued",
		zap.String("otp_id", record.ID),
		zap.String("user_id", userID))

	return code, nil
}

// Consume atomically claims the code matching (number, code). Under
// concurrent confirmations exactly one caller receives the record; the rest
// observe ErrCodeInvalid because the key is already gone. A record that
// outlived its window (the store's own expiry is best-effort) is reported as
// ErrCodeExpired; the claiming read has already removed it.
func (s *otpStore) Consume(ctx context.Context, number, code string) (*model.OTP, error) {
	payload, err := s.client.GetDel(ctx, otpKey(number, code))
	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			return nil, ErrCodeInvalid
		}
		return nil, fmt.Errorf("failed to claim reset code: %w", err)
	}

	record := &model.OTP{}
	if err := json.Unmarshal([]byte(payload), record); err != nil {
		return nil, fmt.Errorf("failed to decode reset code record: %w", err)
	}

	if record.Expired(s.now().UTC(), s.ttl) {
		util.Warn("Claimed reset code past its validity window",
			zap.String("otp_id", record.ID),
			zap.String("number", number))
		return nil, ErrCodeExpired
	}

	return record, nil
}

// Restore puts a consumed record back with whatever validity it has left.
// Used when the step following a claim fails, so the owner is not locked out
// of the reset flow.
func (s *otpStore) Restore(ctx context.Context, otp *model.OTP) error {
	remaining := s.ttl - s.now().UTC().Sub(otp.CreatedAt)
	if remaining <= 0 {
		return nil
	}

	payload, err := json.Marshal(otp)
	if err != nil {
		return fmt.Errorf("failed to encode reset code: %w", err)
	}

	if err := s.client.Set(ctx, otpKey(otp.Number, otp.Code), payload, remaining); err != nil {
		return fmt.Errorf("failed to restore reset code: %w", err)
	}

	util.Info("Reset code restored",
		zap.String("otp_id", otp.ID),
		zap.Duration("remaining", remaining))

	return nil
}

// GenerateCode draws each digit independently and uniformly from 0-9, so
// leading zeros are as likely as any other digit.
func GenerateCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
