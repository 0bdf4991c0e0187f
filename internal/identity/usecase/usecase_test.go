package usecase

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/apikey"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/secret"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawKey = "0123456789abcdef0123456789abcdef"

type fakeRepo struct {
	mu       sync.Mutex
	accounts map[string]entity.Account
	keys     map[int64]entity.APIKey
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{accounts: map[string]entity.Account{}, keys: map[int64]entity.APIKey{}}
}

func (r *fakeRepo) GetAccountByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &a, nil
}

func (r *fakeRepo) GetAPIKey(_ context.Context, id int64) (*entity.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.keys[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &k, nil
}

func (r *fakeRepo) GetAPIKeyByHash(_ context.Context, keyHash string) (*entity.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k.KeyHash == keyHash {
			return &k, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (r *fakeRepo) ListAPIKeys(_ context.Context, accountID int64) ([]entity.APIKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.APIKey
	for _, k := range r.keys {
		if k.AccountID == accountID {
			out = append(out, k)
		}
	}
	slices.SortFunc(out, func(a, b entity.APIKey) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *fakeRepo) NewAccount(_ context.Context, acc entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acc.Email]; ok {
		return goerror.ErrConflict
	}
	r.accounts[acc.Email] = acc
	return nil
}

func (r *fakeRepo) CreateAPIKey(_ context.Context, key entity.APIKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[key.ID] = key
	return nil
}

func (r *fakeRepo) DeactivateAPIKey(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.keys[id]
	k.Active = false
	r.keys[id] = k
	return nil
}

func (r *fakeRepo) MarkAPIKeyDeleted(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, id)
	return nil
}

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return 100 + s.n.Add(1) }

type fixedKey string

func (k fixedKey) Generate() (string, error) { return string(k), nil }

type harness struct {
	uc     *Usecase
	repo   *fakeRepo
	hmac   *hash.HMACSHA256
	sealer *secret.AESGCM
	jwt    *jwt.Symmetric
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	cfg, err := config.NewViperFromBytes("yaml", []byte("app:\n  name: otpgate\n"))
	require.NoError(t, err)
	ring, err := secret.NewStaticKeyRing(bytes.Repeat([]byte{'k'}, 32))
	require.NoError(t, err)

	clk := clock.NewFrozen(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte{'s'}, 64),
		Issuer: "otpgate",
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	h := &harness{
		repo:   newFakeRepo(),
		hmac:   hash.NewHMACSHA256("fingerprint"),
		sealer: secret.NewAESGCM(ring),
		jwt:    tokens,
	}
	h.uc = New(Dependency{
		RepoDB:     h.repo,
		Validator:  v,
		Config:     cfg,
		HMAC:       h.hmac,
		Bcrypt:     hash.NewBcrypt(4, "pepper"),
		Sealer:     h.sealer,
		Keys:       fixedKey(rawKey),
		UID:        &seqID{},
		Clock:      clk,
		JWT:        tokens,
		Instrument: instrument.NewNoop(),
	})
	return h
}

func authCtx(accountID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{AccountID: accountID})
}

func TestUsecase_RegisterThenLogin(t *testing.T) {
	// Arrange
	h := newHarness(t)
	ctx := context.Background()

	// Act
	reg, err := h.uc.Register(ctx, RegisterInput{CompanyName: "Acme", Email: " Ops@Acme.test ", Password: "s3cretpass"})
	require.NoError(t, err)
	login, err := h.uc.Login(ctx, LoginInput{Email: "ops@acme.test", Password: "s3cretpass"})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "ops@acme.test", reg.Email)
	claims, err := h.jwt.Verify(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, reg.AccountID, claims.AccountID)
	assert.NotEqual(t, "s3cretpass", h.repo.accounts["ops@acme.test"].PasswordHash)
}

func TestUsecase_Register_Conflict(t *testing.T) {
	// Arrange
	h := newHarness(t)
	in := RegisterInput{CompanyName: "Acme", Email: "ops@acme.test", Password: "s3cretpass"}
	_, err := h.uc.Register(context.Background(), in)
	require.NoError(t, err)

	// Act
	_, err = h.uc.Register(context.Background(), in)

	// Assert
	assert.Equal(t, goerror.CodeConflict, goerror.CodeOf(err))
}

func TestUsecase_Login_WrongPassword(t *testing.T) {
	// Arrange
	h := newHarness(t)
	_, err := h.uc.Register(context.Background(), RegisterInput{CompanyName: "Acme", Email: "ops@acme.test", Password: "s3cretpass"})
	require.NoError(t, err)

	// Act
	_, errWrong := h.uc.Login(context.Background(), LoginInput{Email: "ops@acme.test", Password: "not-it-at-all"})
	_, errUnknown := h.uc.Login(context.Background(), LoginInput{Email: "nobody@acme.test", Password: "s3cretpass"})

	// Assert
	assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(errWrong))
	assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(errUnknown))
}

func TestUsecase_CreateAPIKey(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	out, err := h.uc.CreateAPIKey(authCtx(1), CreateAPIKeyInput{SenderEmail: "noreply@acme.test", SenderSecret: "abcd efgh ijkl mnop"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, rawKey, out.APIKey)
	assert.Equal(t, "gmail", out.Provider)
	assert.Contains(t, out.SetupWarning, "App Password")

	stored := h.repo.keys[out.ID]
	assert.Equal(t, apikey.Prefix(rawKey), stored.KeyPrefix)
	assert.Equal(t, h.hmac.Sign(rawKey), stored.KeyHash)
	assert.NotContains(t, string(stored.SenderSecret), "abcd efgh")

	plain, err := h.sealer.Open(stored.SenderSecret, secret.Scope{AccountID: 1, Purpose: secret.PurposeSenderCredential})
	require.NoError(t, err)
	assert.Equal(t, "abcd efgh ijkl mnop", string(plain))
}

func TestUsecase_CreateAPIKey_Invalid(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.CreateAPIKey(context.Background(), CreateAPIKeyInput{SenderEmail: "a@b.com", SenderSecret: "x"})
	assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(err))

	_, err = h.uc.CreateAPIKey(authCtx(1), CreateAPIKeyInput{SenderEmail: "a@b.com", SenderSecret: "x", Provider: "carrier-pigeon"})
	assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))

	_, err = h.uc.CreateAPIKey(authCtx(1), CreateAPIKeyInput{SenderEmail: "not-an-email", SenderSecret: "x"})
	assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
}

func TestUsecase_ResolveKey(t *testing.T) {
	h := newHarness(t)
	out, err := h.uc.CreateAPIKey(authCtx(1), CreateAPIKeyInput{SenderEmail: "noreply@acme.test", SenderSecret: "secret"})
	require.NoError(t, err)

	t.Run("active key in any case", func(t *testing.T) {
		p, err := h.uc.ResolveKey(context.Background(), strings.ToUpper(rawKey))
		require.NoError(t, err)
		assert.Equal(t, apikey.Principal{KeyID: out.ID, AccountID: 1}, p)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := h.uc.ResolveKey(context.Background(), "short")
		assert.Equal(t, goerror.CodeForbidden, goerror.CodeOf(err))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := h.uc.ResolveKey(context.Background(), strings.Repeat("e", apikey.Length))
		assert.Equal(t, goerror.CodeForbidden, goerror.CodeOf(err))
	})

	t.Run("deactivated", func(t *testing.T) {
		require.NoError(t, h.uc.DeactivateAPIKey(authCtx(1), APIKeyInput{ID: out.ID}))
		_, err := h.uc.ResolveKey(context.Background(), rawKey)
		assert.Equal(t, goerror.CodeForbidden, goerror.CodeOf(err))
	})
}

func TestUsecase_DeleteAPIKey_Ownership(t *testing.T) {
	// Arrange
	h := newHarness(t)
	out, err := h.uc.CreateAPIKey(authCtx(1), CreateAPIKeyInput{SenderEmail: "noreply@acme.test", SenderSecret: "secret"})
	require.NoError(t, err)

	// Act
	errOther := h.uc.DeleteAPIKey(authCtx(2), APIKeyInput{ID: out.ID})
	errMissing := h.uc.DeleteAPIKey(authCtx(1), APIKeyInput{ID: 999})
	errOwner := h.uc.DeleteAPIKey(authCtx(1), APIKeyInput{ID: out.ID})

	// Assert
	assert.Equal(t, goerror.CodeForbidden, goerror.CodeOf(errOther))
	assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(errMissing))
	require.NoError(t, errOwner)

	list, err := h.uc.ListAPIKeys(authCtx(1))
	require.NoError(t, err)
	assert.Empty(t, list.Keys)
}
