package scylla

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"signals-api/internal/model"
	"signals-api/internal/util"
)

type signalRepository struct {
	client *ScyllaClient
}

func NewSignalRepository(client *ScyllaClient, logger *zap.Logger) SignalRepository {
	return &signalRepository{client: client}
}

func (r *signalRepository) Create(ctx context.Context, signal *model.Signal) error {
	query := r.client.Query(r.client.Stmts.CreateSignal,
		signal.ID, signal.Index, signal.From, signal.Title, signal.Description,
		signal.EntryPoint, signal.StopLoss, signal.Profit1, signal.Profit2,
		signal.CreatedAt, signal.CreatedBy).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to create signal",
			zap.String("signal_id", signal.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create signal: %w", err)
	}

	return nil
}

func (r *signalRepository) FindByID(ctx context.Context, id string) (*model.Signal, error) {
	signal := &model.Signal{}

	err := r.client.Query(r.client.Stmts.GetSignalByID, id).
		WithContext(ctx).
		Scan(&signal.ID, &signal.Index, &signal.From, &signal.Title,
			&signal.Description, &signal.EntryPoint, &signal.StopLoss,
			&signal.Profit1, &signal.Profit2, &signal.CreatedAt,
			&signal.CreatedBy)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch signal: %w", err)
	}

	return signal, nil
}

func (r *signalRepository) Update(ctx context.Context, signal *model.Signal) error {
	query := r.client.Query(r.client.Stmts.UpdateSignal,
		signal.Index, signal.From, signal.Title, signal.Description,
		signal.EntryPoint, signal.StopLoss, signal.Profit1, signal.Profit2,
		signal.ID).WithContext(ctx)

	if err := r.client.ExecuteWithRetry(query, 2); err != nil {
		util.Error("Failed to update signal",
			zap.String("signal_id", signal.ID),
			zap.Error(err))
		return fmt.Errorf("failed to update signal: %w", err)
	}

	return nil
}

func (r *signalRepository) List(ctx context.Context) ([]*model.Signal, error) {
	iter := r.client.Query(r.client.Stmts.ListSignals).WithContext(ctx).Iter()

	var signals []*model.Signal
	for {
		signal := &model.Signal{}
		if !iter.Scan(&signal.ID, &signal.Index, &signal.From, &signal.Title,
			&signal.Description, &signal.EntryPoint, &signal.StopLoss,
			&signal.Profit1, &signal.Profit2, &signal.CreatedAt,
			&signal.CreatedBy) {
			break
		}
		signals = append(signals, signal)
	}

	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}

	return signals, nil
}
