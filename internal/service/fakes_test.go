package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"signals-api/internal/model"
	redisrepo "signals-api/internal/repository/redis"
	"signals-api/internal/repository/scylla"
)

// fakeUserRepo is an in-memory UserRepository with the same uniqueness
// semantics as the Scylla-backed one.
type fakeUserRepo struct {
	mu       sync.Mutex
	byID     map[string]*model.User
	byEmail  map[string]string
	byNumber map[string]string

	failUpdate error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:     make(map[string]*model.User),
		byEmail:  make(map[string]string),
		byNumber: make(map[string]string),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.byEmail[user.Email]; taken {
		return scylla.ErrEmailTaken
	}
	if _, taken := f.byNumber[user.Number]; taken {
		return scylla.ErrNumberTaken
	}
	clone := *user
	f.byID[user.ID] = &clone
	f.byEmail[user.Email] = user.ID
	f.byNumber[user.Number] = user.ID
	return nil
}

func (f *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byEmail[email]
	if !ok {
		return nil, scylla.ErrNotFound
	}
	clone := *f.byID[id]
	return &clone, nil
}

func (f *fakeUserRepo) FindByNumber(_ context.Context, number string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byNumber[number]
	if !ok {
		return nil, scylla.ErrNotFound
	}
	clone := *f.byID[id]
	return &clone, nil
}

func (f *fakeUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, scylla.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate != nil {
		return f.failUpdate
	}
	user, ok := f.byID[id]
	if !ok {
		return scylla.ErrNotFound
	}
	user.PasswordHash = hash
	now := time.Now().UTC()
	user.UpdatedAt = &now
	return nil
}

func (f *fakeUserRepo) HealthCheck(context.Context) error { return nil }

// fakeOTPStore mirrors the Redis store's claim-once semantics.
type fakeOTPStore struct {
	mu    sync.Mutex
	codes map[string]*model.OTP
	ttl   time.Duration
	now   func() time.Time

	lastCode string
}

func newFakeOTPStore() *fakeOTPStore {
	return &fakeOTPStore{
		codes: make(map[string]*model.OTP),
		ttl:   10 * time.Minute,
		now:   time.Now,
	}
}

func (f *fakeOTPStore) key(number, code string) string { return number + ":" + code }

func (f *fakeOTPStore) Issue(_ context.Context, userID, number string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code, err := redisrepo.GenerateCode(6)
	if err != nil {
		return "", err
	}
	f.codes[f.key(number, code)] = &model.OTP{
		ID:        uuid.NewString(),
		UserID:    userID,
		Number:    number,
		Code:      code,
		CreatedAt: f.now(),
	}
	f.lastCode = code
	return code, nil
}

func (f *fakeOTPStore) Consume(_ context.Context, number, code string) (*model.OTP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	otp, ok := f.codes[f.key(number, code)]
	if !ok {
		return nil, redisrepo.ErrCodeInvalid
	}
	delete(f.codes, f.key(number, code))
	if otp.Expired(f.now(), f.ttl) {
		return nil, redisrepo.ErrCodeExpired
	}
	return otp, nil
}

func (f *fakeOTPStore) Restore(_ context.Context, otp *model.OTP) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes[f.key(otp.Number, otp.Code)] = otp
	return nil
}

// fakeGateway records dispatched codes.
type fakeGateway struct {
	mu    sync.Mutex
	sends []sentSMS
	fail  bool
}

type sentSMS struct {
	number string
	code   string
}

func (f *fakeGateway) Send(_ context.Context, number, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("provider unreachable")
	}
	f.sends = append(f.sends, sentSMS{number: number, code: code})
	return nil
}

// fakeSignalRepo is an in-memory SignalRepository.
type fakeSignalRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.Signal
	ordered []string
}

func newFakeSignalRepo() *fakeSignalRepo {
	return &fakeSignalRepo{byID: make(map[string]*model.Signal)}
}

func (f *fakeSignalRepo) Create(_ context.Context, signal *model.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *signal
	f.byID[signal.ID] = &clone
	f.ordered = append(f.ordered, signal.ID)
	return nil
}

func (f *fakeSignalRepo) FindByID(_ context.Context, id string) (*model.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	signal, ok := f.byID[id]
	if !ok {
		return nil, scylla.ErrNotFound
	}
	clone := *signal
	return &clone, nil
}

func (f *fakeSignalRepo) Update(_ context.Context, signal *model.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[signal.ID]; !ok {
		return scylla.ErrNotFound
	}
	clone := *signal
	f.byID[signal.ID] = &clone
	return nil
}

func (f *fakeSignalRepo) List(_ context.Context) ([]*model.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Signal, 0, len(f.ordered))
	for _, id := range f.ordered {
		clone := *f.byID[id]
		out = append(out, &clone)
	}
	return out, nil
}

// fakeSignalIndex records indexed signals and answers queries by substring
// match over title and description.
type fakeSignalIndex struct {
	mu      sync.Mutex
	indexed []*model.Signal
}

func (f *fakeSignalIndex) Index(_ context.Context, signal *model.Signal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *signal
	for i, existing := range f.indexed {
		if existing.ID == signal.ID {
			f.indexed[i] = &clone
			return nil
		}
	}
	f.indexed = append(f.indexed, &clone)
	return nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (f *fakeSignalIndex) Search(_ context.Context, query string) ([]*model.Signal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Signal
	for _, signal := range f.indexed {
		if containsFold(signal.Title, query) || containsFold(signal.Description, query) {
			clone := *signal
			out = append(out, &clone)
		}
	}
	return out, nil
}
