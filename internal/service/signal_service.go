package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"signals-api/internal/model"
	"signals-api/internal/repository/scylla"
	"signals-api/internal/search"
	"signals-api/internal/util"
)

// SignalRequest carries the client-supplied fields of a signal for both
// create and update.
type SignalRequest struct {
	Index       string  `json:"index"`
	From        string  `json:"from"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	EntryPoint  float64 `json:"entryPoint"`
	StopLoss    float64 `json:"stopLoss"`
	Profit1     float64 `json:"profit1"`
	Profit2     float64 `json:"profit2"`
}

// SignalService manages published trading signals. Mutations are restricted
// to admins; reads are open to any authenticated user.
type SignalService struct {
	signals scylla.SignalRepository
	users   scylla.UserRepository
	index   search.SignalIndex
}

func NewSignalService(signals scylla.SignalRepository, users scylla.UserRepository, index search.SignalIndex) *SignalService {
	return &SignalService{signals: signals, users: users, index: index}
}

func (s *SignalService) requireAdmin(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, scylla.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if user.Role != model.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	return user, nil
}

// Create publishes a new signal on behalf of the given admin.
func (s *SignalService) Create(ctx context.Context, userID string, req *SignalRequest) (*model.Signal, error) {
	user, err := s.requireAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := validateSignal(req); err != nil {
		return nil, err
	}

	signal := &model.Signal{
		ID:          uuid.NewString(),
		Index:       strings.TrimSpace(req.Index),
		From:        strings.TrimSpace(req.From),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		EntryPoint:  req.EntryPoint,
		StopLoss:    req.StopLoss,
		Profit1:     req.Profit1,
		Profit2:     req.Profit2,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   user.Name,
	}

	if err := s.signals.Create(ctx, signal); err != nil {
		return nil, fmt.Errorf("failed to store signal: %w", err)
	}

	s.indexSignal(ctx, signal)
	util.Info("Signal published",
		util.String("signal_id", signal.ID),
		util.String("created_by", user.Name))

	return signal, nil
}

// Update replaces the mutable fields of an existing signal.
func (s *SignalService) Update(ctx context.Context, userID, signalID string, req *SignalRequest) (*model.Signal, error) {
	if _, err := s.requireAdmin(ctx, userID); err != nil {
		return nil, err
	}
	if err := validateSignal(req); err != nil {
		return nil, err
	}

	signal, err := s.signals.FindByID(ctx, signalID)
	if err != nil {
		if errors.Is(err, scylla.ErrNotFound) {
			return nil, ErrSignalNotFound
		}
		return nil, fmt.Errorf("signal lookup failed: %w", err)
	}

	signal.Index = strings.TrimSpace(req.Index)
	signal.From = strings.TrimSpace(req.From)
	signal.Title = strings.TrimSpace(req.Title)
	signal.Description = req.Description
	signal.EntryPoint = req.EntryPoint
	signal.StopLoss = req.StopLoss
	signal.Profit1 = req.Profit1
	signal.Profit2 = req.Profit2

	if err := s.signals.Update(ctx, signal); err != nil {
		return nil, fmt.Errorf("failed to update signal: %w", err)
	}

	s.indexSignal(ctx, signal)
	return signal, nil
}

// History returns every stored signal for an authenticated user.
func (s *SignalService) History(ctx context.Context, userID string) ([]*model.Signal, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, scylla.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	signals, err := s.signals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	return signals, nil
}

// Search runs a full-text query over the signal index.
func (s *SignalService) Search(ctx context.Context, userID, query string) ([]*model.Signal, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, scylla.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if strings.TrimSpace(query) == "" {
		ve := &ValidationError{}
		ve.add("q", "query is required")
		return nil, ve
	}
	signals, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("signal search failed: %w", err)
	}
	return signals, nil
}

// indexSignal keeps the search index in step with the store. Indexing is
// best-effort: the store is the source of truth.
func (s *SignalService) indexSignal(ctx context.Context, signal *model.Signal) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, signal); err != nil {
		util.Warn("Failed to index signal",
			util.String("signal_id", signal.ID),
			util.ErrorField(err))
	}
}
