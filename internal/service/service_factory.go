package service

import (
	"go.uber.org/zap"

	"signals-api/internal/hashing"
	redisrepo "signals-api/internal/repository/redis"
	"signals-api/internal/repository/scylla"
	"signals-api/internal/search"
	"signals-api/internal/sms"
	"signals-api/internal/token"
)

// ServiceFactory builds the business services lazily over a shared set of
// dependencies.
type ServiceFactory struct {
	users   scylla.UserRepository
	signals scylla.SignalRepository
	otps    redisrepo.OTPStore
	hasher  *hashing.Hasher
	tokens  *token.Issuer
	gateway sms.Gateway
	index   search.SignalIndex
	events  *EventPublisher
	audit   *AuditRecorder
	logger  *zap.Logger

	authService   *AuthService
	signalService *SignalService
}

func NewServiceFactory(
	users scylla.UserRepository,
	signals scylla.SignalRepository,
	otps redisrepo.OTPStore,
	hasher *hashing.Hasher,
	tokens *token.Issuer,
	gateway sms.Gateway,
	index search.SignalIndex,
	events *EventPublisher,
	audit *AuditRecorder,
	logger *zap.Logger,
) *ServiceFactory {
	return &ServiceFactory{
		users:   users,
		signals: signals,
		otps:    otps,
		hasher:  hasher,
		tokens:  tokens,
		gateway: gateway,
		index:   index,
		events:  events,
		audit:   audit,
		logger:  logger,
	}
}

func (f *ServiceFactory) AuthService() *AuthService {
	if f.authService == nil {
		f.authService = NewAuthService(f.users, f.otps, f.hasher, f.tokens, f.gateway, f.events, f.audit)
	}
	return f.authService
}

func (f *ServiceFactory) SignalService() *SignalService {
	if f.signalService == nil {
		f.signalService = NewSignalService(f.signals, f.users, f.index)
	}
	return f.signalService
}
