package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"go.uber.org/zap"

	"signals-api/internal/config"
	"signals-api/internal/util"
)

// Statements holds the CQL used by the repositories. gocql prepares each
// statement on first execution and caches it per node.
type Statements struct {
	CreateUser         string
	CreateEmailLookup  string
	CreateNumberLookup string
	DeleteEmailLookup  string
	DeleteNumberLookup string
	GetEmailLookup     string
	GetNumberLookup    string
	GetUserByID        string
	UpdatePasswordHash string

	CreateSignal  string
	GetSignalByID string
	UpdateSignal  string
	ListSignals   string
}

type ScyllaClient struct {
	Session *gocql.Session
	config  *config.ScyllaConfig
	Stmts   *Statements
}

func NewScyllaClient(cfg *config.Config, logger *zap.Logger) (*ScyllaClient, error) {
	scyllaConfig := cfg.Scylla

	cluster := gocql.NewCluster(scyllaConfig.Nodes...)
	cluster.Keyspace = scyllaConfig.Keyspace
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second
	cluster.NumConns = 4
	cluster.SocketKeepalive = 30 * time.Second
	cluster.RetryPolicy = &gocql.ExponentialBackoffRetryPolicy{
		Min:        time.Second,
		Max:        10 * time.Second,
		NumRetries: 3,
	}

	if scyllaConfig.Username != "" && scyllaConfig.Password != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: scyllaConfig.Username,
			Password: scyllaConfig.Password,
		}
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create scylla session: %w", err)
	}

	client := &ScyllaClient{
		Session: session,
		config:  &scyllaConfig,
		Stmts:   buildStatements(),
	}

	util.Info("ScyllaDB client initialized",
		zap.Strings("nodes", scyllaConfig.Nodes),
		zap.String("keyspace", scyllaConfig.Keyspace))

	return client, nil
}

func buildStatements() *Statements {
	return &Statements{
		CreateUser: `
        INSERT INTO users (
            user_bucket, user_id, name, email, number, role, membership,
            password_hash, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		CreateEmailLookup: `
        INSERT INTO users_by_email (email, user_bucket, user_id)
        VALUES (?, ?, ?) IF NOT EXISTS`,

		CreateNumberLookup: `
        INSERT INTO users_by_number (number, user_bucket, user_id)
        VALUES (?, ?, ?) IF NOT EXISTS`,

		DeleteEmailLookup: `
        DELETE FROM users_by_email WHERE email = ?`,

		DeleteNumberLookup: `
        DELETE FROM users_by_number WHERE number = ?`,

		GetEmailLookup: `
        SELECT user_bucket, user_id FROM users_by_email WHERE email = ?`,

		GetNumberLookup: `
        SELECT user_bucket, user_id FROM users_by_number WHERE number = ?`,

		GetUserByID: `
        SELECT user_bucket, user_id, name, email, number, role, membership,
            password_hash, created_at, updated_at
        FROM users WHERE user_bucket = ? AND user_id = ?`,

		UpdatePasswordHash: `
        UPDATE users SET password_hash = ?, updated_at = ?
        WHERE user_bucket = ? AND user_id = ?`,

		CreateSignal: `
        INSERT INTO signals (
            signal_id, market_index, from_source, title, description,
            entry_point, stop_loss, profit1, profit2, created_at, created_by
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,

		GetSignalByID: `
        SELECT signal_id, market_index, from_source, title, description,
            entry_point, stop_loss, profit1, profit2, created_at, created_by
        FROM signals WHERE signal_id = ?`,

		UpdateSignal: `
        UPDATE signals SET market_index = ?, from_source = ?, title = ?,
            description = ?, entry_point = ?, stop_loss = ?, profit1 = ?,
            profit2 = ?
        WHERE signal_id = ?`,

		ListSignals: `
        SELECT signal_id, market_index, from_source, title, description,
            entry_point, stop_loss, profit1, profit2, created_at, created_by
        FROM signals`,
	}
}

func (s *ScyllaClient) Close() {
	if s.Session != nil {
		s.Session.Close()
		util.Info("ScyllaDB client closed")
	}
}

func (s *ScyllaClient) Query(stmt string, values ...interface{}) *gocql.Query {
	return s.Session.Query(stmt, values...)
}

func (s *ScyllaClient) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var clusterName string
	err := s.Session.Query(`SELECT cluster_name FROM system.local`).WithContext(ctx).Scan(&clusterName)
	if err != nil {
		return fmt.Errorf("scylla health check failed: %w", err)
	}

	return nil
}

// ExecuteWithRetry re-executes query after transient failures. Only use it
// with idempotent statements: the full-primary-key INSERTs and UPDATEs in
// Statements re-apply the same values on a replay after an ambiguous write
// error. Conditional (LWT) inserts go through MapScanCAS, never this path.
func (s *ScyllaClient) ExecuteWithRetry(query *gocql.Query, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := query.Exec(); err != nil {
			lastErr = err
			if i < maxRetries {
				time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
