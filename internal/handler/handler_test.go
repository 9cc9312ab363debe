package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signals-api/internal/config"
	"signals-api/internal/hashing"
	"signals-api/internal/model"
	"signals-api/internal/repository/scylla"
	"signals-api/internal/service"
	"signals-api/internal/token"
	"signals-api/internal/util"
)

// In-memory stand-ins for the storage backends. They reproduce the same
// sentinel errors the real repositories return.

type memUserRepo struct {
	mu       sync.Mutex
	byID     map[string]*model.User
	byEmail  map[string]string
	byNumber map[string]string
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:     make(map[string]*model.User),
		byEmail:  make(map[string]string),
		byNumber: make(map[string]string),
	}
}

func (m *memUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byEmail[user.Email]; taken {
		return scylla.ErrEmailTaken
	}
	if _, taken := m.byNumber[user.Number]; taken {
		return scylla.ErrNumberTaken
	}
	clone := *user
	m.byID[user.ID] = &clone
	m.byEmail[user.Email] = user.ID
	m.byNumber[user.Number] = user.ID
	return nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, scylla.ErrNotFound
	}
	clone := *m.byID[id]
	return &clone, nil
}

func (m *memUserRepo) FindByNumber(_ context.Context, number string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byNumber[number]
	if !ok {
		return nil, scylla.ErrNotFound
	}
	clone := *m.byID[id]
	return &clone, nil
}

func (m *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, scylla.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return scylla.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

func (m *memUserRepo) HealthCheck(context.Context) error { return nil }

func (m *memUserRepo) promoteToAdmin(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[id].Role = model.RoleAdmin
}

type memSignalRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.Signal
	ordered []string
}

func newMemSignalRepo() *memSignalRepo {
	return &memSignalRepo{byID: make(map[string]*model.Signal)}
}

func (m *memSignalRepo) Create(_ context.Context, signal *model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *signal
	m.byID[signal.ID] = &clone
	m.ordered = append(m.ordered, signal.ID)
	return nil
}

func (m *memSignalRepo) FindByID(_ context.Context, id string) (*model.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	signal, ok := m.byID[id]
	if !ok {
		return nil, scylla.ErrNotFound
	}
	clone := *signal
	return &clone, nil
}

func (m *memSignalRepo) Update(_ context.Context, signal *model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[signal.ID]; !ok {
		return scylla.ErrNotFound
	}
	clone := *signal
	m.byID[signal.ID] = &clone
	return nil
}

func (m *memSignalRepo) List(_ context.Context) ([]*model.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Signal, 0, len(m.ordered))
	for _, id := range m.ordered {
		clone := *m.byID[id]
		out = append(out, &clone)
	}
	return out, nil
}

type memOTPStore struct {
	mu    sync.Mutex
	codes map[string]*model.OTP
}

func (m *memOTPStore) Issue(_ context.Context, userID, number string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]*model.OTP)
	}
	code := "123456"
	m.codes[number+":"+code] = &model.OTP{UserID: userID, Number: number, Code: code, CreatedAt: time.Now()}
	return code, nil
}

func (m *memOTPStore) Consume(_ context.Context, number, code string) (*model.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	otp, ok := m.codes[number+":"+code]
	if !ok {
		return nil, fmt.Errorf("missing code")
	}
	delete(m.codes, number+":"+code)
	return otp, nil
}

func (m *memOTPStore) Restore(_ context.Context, otp *model.OTP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[otp.Number+":"+otp.Code] = otp
	return nil
}

type memIndex struct {
	mu      sync.Mutex
	indexed []*model.Signal
}

func (m *memIndex) Index(_ context.Context, signal *model.Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *signal
	m.indexed = append(m.indexed, &clone)
	return nil
}

func (m *memIndex) Search(context.Context, string) ([]*model.Signal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Signal, len(m.indexed))
	copy(out, m.indexed)
	return out, nil
}

type stubGateway struct {
	mu   sync.Mutex
	fail bool
}

func (g *stubGateway) Send(context.Context, string, string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fail {
		return fmt.Errorf("provider unreachable")
	}
	return nil
}

func (g *stubGateway) setFail(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

type apiFixture struct {
	server  *httptest.Server
	users   *memUserRepo
	gateway *stubGateway
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TTL = time.Hour
	cfg.Hashing.BcryptCost = 4
	cfg.Server.AllowedOrigins = []string{"http://*", "https://*"}
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.MaxSizeBytes = 1 << 20

	users := newMemUserRepo()
	issuer := token.NewIssuer(cfg)
	hasher := hashing.NewHasher(cfg)

	gateway := &stubGateway{}
	authService := service.NewAuthService(users, &memOTPStore{}, hasher, issuer, gateway, nil, nil)
	signalService := service.NewSignalService(newMemSignalRepo(), users, &memIndex{})
	uploadService, err := service.NewUploadService(cfg)
	require.NoError(t, err)

	router := NewRouter(cfg, issuer,
		NewAuthHandler(authService, util.Get()),
		NewSignalHandler(signalService, util.Get()),
		NewUploadHandler(uploadService, util.Get()),
		util.Get(),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &apiFixture{server: server, users: users, gateway: gateway}
}

func (fx *apiFixture) do(t *testing.T, method, path, bearer string, body interface{}) (*http.Response, Response) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, fx.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := fx.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed Response
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed), "body: %s", raw)
	}
	return resp, parsed
}

func registerBody(email, number string) map[string]string {
	return map[string]string{
		"name":     "Asha",
		"email":    email,
		"number":   number,
		"password": "hunter2",
	}
}

func tokenFrom(t *testing.T, body Response) (string, string) {
	t.Helper()
	data, ok := body.Data.(map[string]interface{})
	require.True(t, ok, "unexpected data payload: %#v", body.Data)
	tok, _ := data["token"].(string)
	require.NotEmpty(t, tok)
	user, ok := data["user"].(map[string]interface{})
	require.True(t, ok)
	id, _ := user["id"].(string)
	require.NotEmpty(t, id)
	return tok, id
}

func TestRegisterLoginAndProtectedAccess(t *testing.T) {
	fx := newAPIFixture(t)

	resp, body := fx.do(t, http.MethodPost, "/register", "", registerBody("asha@example.com", "9876543210"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.True(t, body.Success)
	registerToken, _ := tokenFrom(t, body)

	// The register token works on a protected route right away.
	resp, body = fx.do(t, http.MethodGet, "/api/data/history", registerToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Success)

	resp, body = fx.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "asha@example.com", "password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	loginToken, _ := tokenFrom(t, body)

	resp, _ = fx.do(t, http.MethodGet, "/api/data/history", loginToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	fx := newAPIFixture(t)

	resp, body := fx.do(t, http.MethodGet, "/api/data/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, body.Success)

	resp, _ = fx.do(t, http.MethodGet, "/api/data/history", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterConflictAndValidationStatus(t *testing.T) {
	fx := newAPIFixture(t)

	resp, _ := fx.do(t, http.MethodPost, "/register", "", registerBody("asha@example.com", "9876543210"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Same email, different number.
	resp, body := fx.do(t, http.MethodPost, "/register", "", registerBody("asha@example.com", "1112223334"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.False(t, body.Success)

	// Missing fields.
	resp, body = fx.do(t, http.MethodPost, "/register", "", map[string]string{"email": "x@example.com"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.NotNil(t, body.Fields)
}

func TestLoginStatusCodes(t *testing.T) {
	fx := newAPIFixture(t)

	resp, _ := fx.do(t, http.MethodPost, "/register", "", registerBody("asha@example.com", "9876543210"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = fx.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "ghost@example.com", "password": "hunter2",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := fx.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "asha@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "incorrect email or password", body.Error)
}

func TestSignalRoutesEnforceAdmin(t *testing.T) {
	fx := newAPIFixture(t)

	resp, body := fx.do(t, http.MethodPost, "/register", "", registerBody("asha@example.com", "9876543210"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bearer, userID := tokenFrom(t, body)

	signal := map[string]interface{}{
		"index": "NIFTY", "from": "desk-a", "title": "Breakout long",
		"entryPoint": 22100.5, "stopLoss": 21950.0,
	}

	resp, _ = fx.do(t, http.MethodPost, "/api/data/create", bearer, signal)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	fx.users.promoteToAdmin(userID)

	resp, body = fx.do(t, http.MethodPost, "/api/data/create", bearer, signal)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.True(t, body.Success)

	resp, body = fx.do(t, http.MethodGet, "/api/data/search?q=breakout", bearer, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, body.Success)
}

func TestPasswordResetFlowOverHTTP(t *testing.T) {
	fx := newAPIFixture(t)

	resp, _ := fx.do(t, http.MethodPost, "/register", "", registerBody("asha@example.com", "9876543210"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := fx.do(t, http.MethodPost, "/password-reset/request", "", map[string]string{"number": "9876543210"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, body.Success)

	// The stub store always issues 123456.
	resp, _ = fx.do(t, http.MethodPost, "/password-reset/confirm", "", map[string]string{
		"number": "9876543210", "otp": "123456", "password": "new-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = fx.do(t, http.MethodPost, "/login", "", map[string]string{
		"email": "asha@example.com", "password": "new-password",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestResetRequestDeliveryFailureStatus(t *testing.T) {
	fx := newAPIFixture(t)

	resp, _ := fx.do(t, http.MethodPost, "/register", "", registerBody("asha@example.com", "9876543210"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	fx.gateway.setFail(true)
	resp, body := fx.do(t, http.MethodPost, "/password-reset/request", "", map[string]string{
		"number": "9876543210",
	})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.False(t, body.Success)

	fx.gateway.setFail(false)
	resp, _ = fx.do(t, http.MethodPost, "/password-reset/request", "", map[string]string{
		"number": "9876543210",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadAndServeFile(t *testing.T) {
	fx := newAPIFixture(t)

	resp, body := fx.do(t, http.MethodPost, "/register", "", registerBody("asha@example.com", "9876543210"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bearer, _ := tokenFrom(t, body)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "chart.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, fx.server.URL+"/api/files/upload", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bearer)

	uploadResp, err := fx.server.Client().Do(req)
	require.NoError(t, err)
	defer uploadResp.Body.Close()
	require.Equal(t, http.StatusCreated, uploadResp.StatusCode)

	var parsed Response
	require.NoError(t, json.NewDecoder(uploadResp.Body).Decode(&parsed))
	data, ok := parsed.Data.(map[string]interface{})
	require.True(t, ok)
	url, _ := data["url"].(string)
	require.NotEmpty(t, url)

	served, err := fx.server.Client().Get(fx.server.URL + url)
	require.NoError(t, err)
	defer served.Body.Close()
	require.Equal(t, http.StatusOK, served.StatusCode)
	content, err := io.ReadAll(served.Body)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	fx := newAPIFixture(t)

	resp, err := fx.server.Client().Get(fx.server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = fx.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = fx.do(t, http.MethodDelete, "/register", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
