package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/billing/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	plans   map[int64]entity.Plan
	chosen  map[int64]int64
	orders  map[string]entity.Order
	wallets map[int64]entity.Wallet
	txs     []entity.Transaction
	failDB  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:   map[int64]entity.Plan{1: {ID: 1, Name: "Starter", PricePerOTP: 1, MonthlyLimit: 1000}},
		chosen:  map[int64]int64{},
		orders:  map[string]entity.Order{},
		wallets: map[int64]entity.Wallet{},
	}
}

func (r *fakeRepo) ListPlans(context.Context) ([]entity.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Plan
	for _, p := range r.plans {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeRepo) SelectPlan(_ context.Context, accountID, planID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[planID]; !ok {
		return goerror.ErrNotFound
	}
	r.chosen[accountID] = planID
	return nil
}

func (r *fakeRepo) CreateOrder(_ context.Context, o entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ReferenceID] = o
	return nil
}

func (r *fakeRepo) GetOrderByReference(_ context.Context, ref string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[ref]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &o, nil
}

func (r *fakeRepo) ListOrders(_ context.Context, accountID int64) ([]entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Order
	for _, o := range r.orders {
		if o.AccountID == accountID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeRepo) FailOrder(_ context.Context, orderID int64, paymentID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ref, o := range r.orders {
		if o.ID == orderID && o.Status == entity.OrderStatusPending {
			o.Status = entity.OrderStatusFailed
			o.PaymentID = paymentID
			r.orders[ref] = o
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) CompleteOrder(_ context.Context, o entity.Order, paymentID string, credit entity.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDB != nil {
		return false, r.failDB
	}
	cur := r.orders[o.ReferenceID]
	if cur.Status == entity.OrderStatusCompleted {
		return false, nil
	}
	w, ok := r.wallets[o.AccountID]
	if !ok {
		return false, goerror.ErrNotFound
	}
	cur.Status = entity.OrderStatusCompleted
	cur.PaymentID = paymentID
	r.orders[o.ReferenceID] = cur
	w.Balance += credit.Amount
	r.wallets[o.AccountID] = w
	r.txs = append(r.txs, credit)
	return true, nil
}

func (r *fakeRepo) GetWallet(_ context.Context, accountID int64) (*entity.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[accountID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &w, nil
}

func (r *fakeRepo) ListTransactions(_ context.Context, accountID int64, limit int) ([]entity.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Transaction
	for i := len(r.txs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.txs[i].AccountID == accountID {
			out = append(out, r.txs[i])
		}
	}
	return out, nil
}

func (r *fakeRepo) Debit(_ context.Context, t entity.Transaction) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDB != nil {
		return false, r.failDB
	}
	for _, tx := range r.txs {
		if tx.Reference == t.Reference {
			return false, nil
		}
	}
	w, ok := r.wallets[t.AccountID]
	if !ok {
		return false, goerror.ErrNotFound
	}
	if w.Balance < t.Amount {
		return false, entity.ErrInsufficientBalance
	}
	w.Balance -= t.Amount
	r.wallets[t.AccountID] = w
	r.txs = append(r.txs, t)
	return true, nil
}

// memoryIdempotency mirrors the redis tracker's Exec contract in process.
type memoryIdempotency struct {
	mu     sync.Mutex
	states map[string]idempotency.State
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{states: map[string]idempotency.State{}}
}

func (m *memoryIdempotency) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[key]; ok {
		return st, nil
	}
	m.states[key] = idempotency.StateInProgress
	return idempotency.StateNone, nil
}

func (m *memoryIdempotency) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = idempotency.StateCompleted
	return nil
}

func (m *memoryIdempotency) MarkFailed(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = idempotency.StateFailed
	return nil
}

func (m *memoryIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, key)
	return nil
}

func (m *memoryIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	st, _ := m.Acquire(ctx, key, 0)
	switch st {
	case idempotency.StateCompleted:
		return idempotency.ErrAlreadyCompleted
	case idempotency.StateInProgress:
		return idempotency.ErrAlreadyInProgress
	case idempotency.StateFailed:
		return idempotency.ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		_ = m.Release(ctx, key)
		return err
	}
	return m.MarkCompleted(ctx, key, 0)
}

type seqID struct{ n atomic.Int64 }

func (s *seqID) Generate() int64 { return 500 + s.n.Add(1) }

type fixedUUID string

func (u fixedUUID) Generate() string { return string(u) }

type harness struct {
	uc     *Usecase
	repo   *fakeRepo
	idemp  *memoryIdempotency
	signer *hash.HMACSHA256
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  billing:\n    payment_url: https://pay.example/checkout\n"))
	require.NoError(t, err)

	h := &harness{
		repo:   newFakeRepo(),
		idemp:  newMemoryIdempotency(),
		signer: hash.NewHMACSHA256("gateway-secret"),
	}
	h.uc = New(Dependency{
		RepoDB:      h.repo,
		Idempotency: h.idemp,
		Validator:   v,
		Config:      cfg,
		Signer:      h.signer,
		UID:         &seqID{},
		UUID:        fixedUUID("7f1c2a8e-0000-4000-8000-00000000abcd"),
		Clock:       clock.NewFrozen(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)),
		Instrument:  instrument.NewNoop(),
	})
	return h
}

func authCtx(accountID int64) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{AccountID: accountID})
}

func (h *harness) callback(ref, status, paymentID string) PaymentCallbackInput {
	cb := entity.PaymentCallback{PaymentLinkID: "plink_x", ReferenceID: ref, Status: status, PaymentID: paymentID}
	return PaymentCallbackInput{
		PaymentLinkID: cb.PaymentLinkID,
		ReferenceID:   cb.ReferenceID,
		Status:        cb.Status,
		PaymentID:     cb.PaymentID,
		Signature:     h.signer.Sign(cb.SignedPayload()),
	}
}

func TestUsecase_CreateOrder(t *testing.T) {
	// Arrange
	h := newHarness(t)

	// Act
	out, err := h.uc.CreateOrder(authCtx(1), CreateOrderInput{Amount: 5000, CreditsPurchased: 100})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, out.Order.Status)
	assert.Equal(t, "plink_7f1c2a8e00004000800000000000abcd", out.Order.PaymentLinkID)
	assert.Contains(t, out.PaymentURL, "https://pay.example/checkout?")
	assert.Contains(t, out.PaymentURL, "reference_id=7f1c2a8e-0000-4000-8000-00000000abcd")
	assert.Contains(t, h.repo.orders, out.Order.ReferenceID)
}

func TestUsecase_CreateOrder_Invalid(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.CreateOrder(context.Background(), CreateOrderInput{Amount: 1, CreditsPurchased: 1})
	assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(err))

	_, err = h.uc.CreateOrder(authCtx(1), CreateOrderInput{Amount: 0, CreditsPurchased: 1})
	assert.Equal(t, goerror.CodeInvalidInput, goerror.CodeOf(err))
}

func TestUsecase_SelectPlan(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.uc.SelectPlan(authCtx(1), SelectPlanInput{PlanID: 1}))
	assert.Equal(t, int64(1), h.repo.chosen[1])

	err := h.uc.SelectPlan(authCtx(1), SelectPlanInput{PlanID: 9})
	assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(err))
}

func TestUsecase_PaymentCallback(t *testing.T) {
	const ref = "ref-1"

	seed := func(h *harness, status entity.OrderStatus) {
		h.repo.wallets[1] = entity.Wallet{AccountID: 1}
		h.repo.orders[ref] = entity.Order{ID: 42, AccountID: 1, Amount: 5000, CreditsPurchased: 100, Status: status, ReferenceID: ref}
	}

	t.Run("paid credits the wallet", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		seed(h, entity.OrderStatusPending)

		// Act
		out, err := h.uc.PaymentCallback(context.Background(), h.callback(ref, "paid", "pay_1"))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusCompleted, out.Status)
		assert.False(t, out.AlreadyProcessed)
		assert.Equal(t, int64(100), h.repo.wallets[1].Balance)
		require.Len(t, h.repo.txs, 1)
		assert.Equal(t, entity.TransactionCredit, h.repo.txs[0].Type)
		assert.Equal(t, "order:"+ref, h.repo.txs[0].Reference)
	})

	t.Run("duplicate delivery credits once", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		seed(h, entity.OrderStatusPending)
		in := h.callback(ref, "paid", "pay_1")
		_, err := h.uc.PaymentCallback(context.Background(), in)
		require.NoError(t, err)

		// Act
		out, err := h.uc.PaymentCallback(context.Background(), in)

		// Assert
		require.NoError(t, err)
		assert.True(t, out.AlreadyProcessed)
		assert.Equal(t, int64(100), h.repo.wallets[1].Balance)
	})

	t.Run("same key in flight is a conflict", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		seed(h, entity.OrderStatusPending)
		h.idemp.states["payment:"+ref+":paid:pay_1"] = idempotency.StateInProgress

		// Act
		_, err := h.uc.PaymentCallback(context.Background(), h.callback(ref, "paid", "pay_1"))

		// Assert
		assert.Equal(t, goerror.CodeConflict, goerror.CodeOf(err))
		assert.Zero(t, h.repo.wallets[1].Balance)
	})

	t.Run("failed status marks order failed", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		seed(h, entity.OrderStatusPending)

		// Act
		out, err := h.uc.PaymentCallback(context.Background(), h.callback(ref, "failed", "pay_1"))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, entity.OrderStatusFailed, out.Status)
		assert.Equal(t, entity.OrderStatusFailed, h.repo.orders[ref].Status)
		assert.Zero(t, h.repo.wallets[1].Balance)
	})

	t.Run("bad signature", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		seed(h, entity.OrderStatusPending)
		in := h.callback(ref, "paid", "pay_1")
		in.Status = "PAID"

		// Act
		_, err := h.uc.PaymentCallback(context.Background(), in)

		// Assert
		assert.Equal(t, goerror.CodeUnauthorized, goerror.CodeOf(err))
		assert.Equal(t, entity.OrderStatusPending, h.repo.orders[ref].Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.uc.PaymentCallback(context.Background(), h.callback("nope", "paid", "pay_1"))

		assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(err))
	})

	t.Run("already completed order", func(t *testing.T) {
		h := newHarness(t)
		seed(h, entity.OrderStatusCompleted)

		out, err := h.uc.PaymentCallback(context.Background(), h.callback(ref, "paid", "pay_2"))

		require.NoError(t, err)
		assert.True(t, out.AlreadyProcessed)
		assert.Empty(t, h.idemp.states)
	})

	t.Run("store failure releases the key", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		seed(h, entity.OrderStatusPending)
		h.repo.failDB = errors.New("connection reset")

		// Act
		_, err := h.uc.PaymentCallback(context.Background(), h.callback(ref, "paid", "pay_1"))

		// Assert
		assert.Equal(t, goerror.CodeInternal, goerror.CodeOf(err))
		assert.Empty(t, h.idemp.states)
	})
}

func TestUsecase_ConsumeOTPSent(t *testing.T) {
	t.Run("debits once per attempt", func(t *testing.T) {
		// Arrange
		h := newHarness(t)
		h.repo.wallets[1] = entity.Wallet{AccountID: 1, Balance: 3}
		in := ConsumeOTPSentInput{AttemptID: 77, AccountID: 1, APIKeyID: 10}

		// Act
		require.NoError(t, h.uc.ConsumeOTPSent(context.Background(), in))
		require.NoError(t, h.uc.ConsumeOTPSent(context.Background(), in))

		// Assert
		assert.Equal(t, int64(2), h.repo.wallets[1].Balance)
		require.Len(t, h.repo.txs, 1)
		assert.Equal(t, "otp:77", h.repo.txs[0].Reference)
	})

	t.Run("empty or missing wallet is skipped", func(t *testing.T) {
		h := newHarness(t)
		h.repo.wallets[1] = entity.Wallet{AccountID: 1}

		assert.NoError(t, h.uc.ConsumeOTPSent(context.Background(), ConsumeOTPSentInput{AttemptID: 1, AccountID: 1}))
		assert.NoError(t, h.uc.ConsumeOTPSent(context.Background(), ConsumeOTPSentInput{AttemptID: 2, AccountID: 2}))
		assert.Empty(t, h.repo.txs)
	})

	t.Run("invalid event is dropped", func(t *testing.T) {
		h := newHarness(t)

		assert.NoError(t, h.uc.ConsumeOTPSent(context.Background(), ConsumeOTPSentInput{}))
	})

	t.Run("store failure is returned for redelivery", func(t *testing.T) {
		h := newHarness(t)
		h.repo.failDB = errors.New("connection reset")

		assert.Error(t, h.uc.ConsumeOTPSent(context.Background(), ConsumeOTPSentInput{AttemptID: 1, AccountID: 1}))
	})
}

func TestUsecase_WalletAndTransactions(t *testing.T) {
	// Arrange
	h := newHarness(t)
	h.repo.wallets[1] = entity.Wallet{AccountID: 1, Balance: 5}
	require.NoError(t, h.uc.ConsumeOTPSent(context.Background(), ConsumeOTPSentInput{AttemptID: 9, AccountID: 1}))

	// Act
	w, err := h.uc.GetWallet(authCtx(1))
	require.NoError(t, err)
	txs, err := h.uc.ListTransactions(authCtx(1))
	require.NoError(t, err)
	_, missing := h.uc.GetWallet(authCtx(2))

	// Assert
	assert.Equal(t, int64(4), w.Balance)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.TransactionDebit, txs[0].Type)
	assert.Equal(t, goerror.CodeNotFound, goerror.CodeOf(missing))
}
