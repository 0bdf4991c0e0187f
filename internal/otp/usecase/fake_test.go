package usecase

import (
	"cmp"
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/apikey"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	tenants  map[int64]*entity.Tenant
	attempts map[int64]*entity.Attempt
}

func newFakeRepo(tenants ...entity.Tenant) *fakeRepo {
	r := &fakeRepo{tenants: map[int64]*entity.Tenant{}, attempts: map[int64]*entity.Attempt{}}
	for i := range tenants {
		t := tenants[i]
		r.tenants[t.ID] = &t
	}
	return r
}

func (r *fakeRepo) GetTenant(_ context.Context, id int64) (*entity.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRepo) GetAttempt(_ context.Context, id int64) (*entity.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) sorted(keep func(entity.Attempt) bool) []entity.Attempt {
	var out []entity.Attempt
	for _, a := range r.attempts {
		if keep(*a) {
			out = append(out, *a)
		}
	}
	slices.SortFunc(out, func(a, b entity.Attempt) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

func (r *fakeRepo) ListRecentAttempts(_ context.Context, apiKeyID, accountID int64, recipient string, limit int) ([]entity.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sorted(func(a entity.Attempt) bool {
		return a.APIKeyID == apiKeyID && a.AccountID == accountID && a.Recipient == recipient
	})
	return out[:min(limit, len(out))], nil
}

func (r *fakeRepo) matches(f entity.LogFilter) func(entity.Attempt) bool {
	return func(a entity.Attempt) bool {
		return a.AccountID == f.AccountID &&
			(f.APIKeyID == 0 || a.APIKeyID == f.APIKeyID) &&
			(f.Status == "" || a.Status == f.Status)
	}
}

func (r *fakeRepo) ListAttempts(_ context.Context, f entity.LogFilter) ([]entity.Attempt, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(r.matches(f))
	start := min(f.Offset, len(all))
	end := min(start+f.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *fakeRepo) EachAttempt(_ context.Context, f entity.LogFilter, fn func(entity.Attempt) error) error {
	r.mu.Lock()
	all := r.sorted(r.matches(f))
	r.mu.Unlock()
	for _, a := range all {
		if err := fn(a); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) ListUsage(_ context.Context, accountID, apiKeyID int64) ([]entity.Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Usage
	for _, t := range r.tenants {
		if t.AccountID != accountID || (apiKeyID != 0 && t.ID != apiKeyID) {
			continue
		}
		out = append(out, entity.Usage{APIKeyID: t.ID, SentCount: t.SentCount, CreatedAt: t.CreatedAt})
	}
	slices.SortFunc(out, func(a, b entity.Usage) int { return cmp.Compare(a.APIKeyID, b.APIKeyID) })
	return out, nil
}

func (r *fakeRepo) CreateAttempt(_ context.Context, a entity.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.attempts[a.ID]; dup {
		return goerror.ErrConflict
	}
	r.attempts[a.ID] = &a
	return nil
}

func (r *fakeRepo) TransitionAttempt(_ context.Context, t entity.Transition) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[t.AttemptID]
	if !ok || !slices.Contains(t.From, a.Status) {
		return false, nil
	}
	a.Status = t.To
	switch t.To {
	case entity.StatusSent:
		at := t.At
		a.SentAt = &at
	case entity.StatusDelivered:
		at := t.At
		a.DeliveredAt = &at
	}
	if t.FailureReason != entity.ReasonNone {
		a.FailureReason = t.FailureReason
	}
	return true, nil
}

func (r *fakeRepo) IncrementSentCount(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[id]
	if !ok {
		return goerror.ErrNotFound
	}
	t.SentCount++
	return nil
}

func (r *fakeRepo) only(t *testing.T) entity.Attempt {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.attempts, 1)
	for _, a := range r.attempts {
		return *a
	}
	return entity.Attempt{}
}

func (r *fakeRepo) sentCount(id int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tenants[id].SentCount
}

type fakePublisher struct {
	mu        sync.Mutex
	published []entity.Attempt
	err       error
}

func (p *fakePublisher) PublishOTPSent(_ context.Context, a entity.Attempt) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, a)
	return p.err
}

type fakeChannel struct {
	mu    sync.Mutex
	sent  []entity.Message
	send  func(ctx context.Context) (entity.DeliveryResult, error)
	codes []string
}

func (c *fakeChannel) Send(ctx context.Context, _ entity.Tenant, msg entity.Message) (entity.DeliveryResult, error) {
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.codes = append(c.codes, msg.Code)
	c.mu.Unlock()
	if c.send != nil {
		return c.send(ctx)
	}
	return entity.Delivered(), nil
}

func (c *fakeChannel) lastCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes[len(c.codes)-1]
}

type fixedCodes struct {
	codes []string
	err   error
	i     int
}

func (f *fixedCodes) Generate() (string, error) {
	if f.err != nil {
		return "", f.err
	}
	c := f.codes[f.i%len(f.codes)]
	f.i++
	return c, nil
}

type memStorage struct {
	objects map[string][]byte
}

func (m *memStorage) Put(_ context.Context, key string, r io.Reader, _ storage.PutOptions) (storage.ObjectInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	m.objects[key] = b
	return storage.ObjectInfo{Bucket: "test", Key: key, Size: int64(len(b))}, nil
}

func (m *memStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, ok := m.objects[key]; !ok {
		return "", errors.New("missing object")
	}
	return "https://storage.test/" + key + "?sig=1", nil
}

func (m *memStorage) Close() error { return nil }

var (
	testNow    = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	testTenant = entity.Tenant{
		ID: 10, AccountID: 1, Active: true, SenderEmail: "noreply@acme.test",
		SenderSecret: []byte("sealed"), Provider: "gmail", CreatedAt: testNow.Add(-time.Hour),
	}
)

type harness struct {
	uc      *Usecase
	repo    *fakeRepo
	pub     *fakePublisher
	email   *fakeChannel
	sms     *fakeChannel
	clock   *clock.Frozen
	storage *memStorage
}

func newHarness(t *testing.T, tenants ...entity.Tenant) *harness {
	t.Helper()
	if len(tenants) == 0 {
		tenants = []entity.Tenant{testTenant}
	}

	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  otp:\n    delivery_timeout: 50ms\n"))
	require.NoError(t, err)
	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	h := &harness{
		repo:    newFakeRepo(tenants...),
		pub:     &fakePublisher{},
		email:   &fakeChannel{},
		sms:     &fakeChannel{send: func(context.Context) (entity.DeliveryResult, error) { return entity.DeliveryResult{Reason: entity.ReasonNotImplemented}, nil }},
		clock:   clock.NewFrozen(testNow),
		storage: &memStorage{objects: map[string][]byte{}},
	}
	h.uc = New(Dependency{
		RepoDB:        h.repo,
		RepoMessaging: h.pub,
		Channels:      map[entity.Channel]Channel{entity.ChannelEmail: h.email, entity.ChannelSMS: h.sms},
		Codes:         entity.NewCodeGenerator(nil),
		Validator:     v,
		Config:        cfg,
		Storage:       h.storage,
		UID:           sf,
		UUID:          uid.NewUUID(),
		Clock:         h.clock,
		Instrument:    instrument.NewNoop(),
	})
	return h
}

func tenantCtx(t entity.Tenant) context.Context {
	return apikey.Set(context.Background(), apikey.Principal{KeyID: t.ID, AccountID: t.AccountID})
}

