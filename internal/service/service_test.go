package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"jobmarket/config"
	"jobmarket/internal/database"
	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
	"jobmarket/pkg/mailer"
	"jobmarket/pkg/payment"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := database.SeedSettings(db, &config.PlatformConfig{DefaultCommissionPercentage: 10}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}
	return repository.NewStore(db)
}

type fakeGateway struct {
	mu          sync.Mutex
	n           int
	sessions    map[string]*payment.CheckoutSession
	checkouts   []payment.CheckoutRequest
	transfers   []payment.TransferRequest
	byKey       map[string]string
	reversed    []string
	refunds     []payment.RefundRequest
	refundErr   error
	accounts    map[string]*payment.Account
	transferErr error
	event       *payment.Event
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions: map[string]*payment.CheckoutSession{},
		accounts: map[string]*payment.Account{},
		byKey:    map[string]string{},
	}
}

func (g *fakeGateway) nextID(prefix string) string {
	g.n++
	return fmt.Sprintf("%s_%d", prefix, g.n)
}

func (g *fakeGateway) CreateCheckout(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checkouts = append(g.checkouts, req)
	s := &payment.CheckoutSession{
		ID:          g.nextID("cs"),
		AmountTotal: req.AmountCents,
		Metadata:    req.Metadata,
	}
	s.URL = "https://checkout.test/" + s.ID
	s.PaymentIntentID = "pi_" + strings.TrimPrefix(s.ID, "cs_")
	g.sessions[s.ID] = s
	return s, nil
}

func (g *fakeGateway) GetCheckout(_ context.Context, id string) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, errors.New("no such session")
	}
	return s, nil
}

func (g *fakeGateway) pay(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].Paid = true
}

func (g *fakeGateway) Transfer(_ context.Context, req payment.TransferRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.transferErr != nil {
		return "", g.transferErr
	}
	g.transfers = append(g.transfers, req)
	// The processor answers a reused idempotency key with the original transfer.
	if id, ok := g.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return id, nil
	}
	id := g.nextID("tr")
	g.byKey[req.IdempotencyKey] = id
	return id, nil
}

func (g *fakeGateway) Refund(_ context.Context, req payment.RefundRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return "", g.refundErr
	}
	g.refunds = append(g.refunds, req)
	return g.nextID("re"), nil
}

func (g *fakeGateway) ReverseTransfer(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reversed = append(g.reversed, id)
	return nil
}

func (g *fakeGateway) CreateAccount(_ context.Context, email string, md map[string]string) (*payment.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a := &payment.Account{ID: g.nextID("acct"), Metadata: md}
	g.accounts[a.ID] = a
	return a, nil
}

func (g *fakeGateway) GetAccount(_ context.Context, id string) (*payment.Account, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	a, ok := g.accounts[id]
	if !ok {
		return nil, errors.New("no such account")
	}
	return a, nil
}

func (g *fakeGateway) OnboardingLink(_ context.Context, id, refreshURL, returnURL string) (string, error) {
	return "https://connect.test/" + id + "?return=" + returnURL, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, sig string) (*payment.Event, error) {
	if sig != "valid" {
		return nil, errors.New("bad signature")
	}
	if g.event == nil {
		return nil, payment.ErrUnhandledEvent
	}
	return g.event, nil
}

type published struct {
	key     string
	payload interface{}
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *fakePublisher) Publish(key string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{key, payload})
}

func (p *fakePublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, s := range p.sent {
		out = append(out, s.key)
	}
	return out
}

type fakePusher struct {
	mu     sync.Mutex
	tokens []string
	err    error
}

func (p *fakePusher) SendToUser(_ context.Context, token, notifType, title, body string, data map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tokens = append(p.tokens, token)
	return p.err
}

type fakeFiles struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeFiles) DeleteByURL(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeMailer struct {
	mu       sync.Mutex
	receipts []mailer.Receipt
	codes    []mailer.ResetCode
	err      error
}

func (m *fakeMailer) SendReceipt(_ context.Context, r mailer.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts = append(m.receipts, r)
	return nil
}

func (m *fakeMailer) SendResetCode(_ context.Context, c mailer.ResetCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.codes = append(m.codes, c)
	return nil
}

type testEnv struct {
	store        *repository.Store
	gw           *fakeGateway
	live         *fakePublisher
	push         *fakePusher
	files        *fakeFiles
	mail         *fakeMailer
	notify       *NotificationService
	commission   *CommissionService
	offers       *OfferService
	payments     *PaymentService
	orders       *OrderService
	posts        *PostService
	catalog      *CatalogService
	verification *VerificationService
	admin        *AdminService
	auth         *AuthService
	profiles     *ProfileService
	support      *SupportService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{PublicURL: "https://api.test"},
		JWT: config.JWTConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessExpiry:  time.Minute,
			RefreshExpiry: time.Hour,
			Issuer:        "jobmarket-test",
		},
		Stripe: config.StripeConfig{Currency: "usd"},
	}
	e := &testEnv{
		store: newTestStore(t),
		gw:    newFakeGateway(),
		live:  &fakePublisher{},
		push:  &fakePusher{},
		files: &fakeFiles{},
		mail:  &fakeMailer{},
	}
	e.notify = NewNotificationService(e.store.Notifications, e.store.Users, e.live, e.push)
	e.commission = NewCommissionService(e.store.Settings, 5)
	e.offers = NewOfferService(e.store, e.notify, e.files)
	e.payments = NewPaymentService(e.store, e.gw, e.commission, e.notify, e.mail, cfg)
	e.orders = NewOrderService(e.store, e.gw, e.commission, e.notify, e.files, cfg.Stripe)
	e.posts = NewPostService(e.store, e.files)
	e.catalog = NewCatalogService(e.store, e.live, e.files)
	e.verification = NewVerificationService(e.store, e.notify, e.files)
	e.admin = NewAdminService(e.store, e.commission)
	e.auth = NewAuthService(cfg, e.store.Users, e.mail)
	e.profiles = NewProfileService(e.store, e.notify, e.files)
	e.support = NewSupportService(e.store, e.notify, e.files)
	return e
}

func (e *testEnv) customer(t *testing.T, name string) *models.User {
	t.Helper()
	return e.user(t, name, domain.RoleUser, false)
}

func (e *testEnv) provider(t *testing.T, name string) *models.User {
	t.Helper()
	return e.user(t, name, domain.RoleServiceProvider, true)
}

func (e *testEnv) user(t *testing.T, name, role string, payouts bool) *models.User {
	t.Helper()
	u := &models.User{
		FullName:      name,
		Email:         strings.ToLower(name) + "@example.test",
		Role:          role,
		AccountStatus: domain.AccountActive,
	}
	if payouts {
		u.PayoutAccountID = "acct_" + strings.ToLower(name)
		u.PayoutsEnabled = true
	}
	if err := e.store.Users.Create(u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func (e *testEnv) post(t *testing.T, creator *models.User) *models.Post {
	t.Helper()
	p, err := e.posts.Create(context.Background(), creator.ID, PostInput{
		ProjectName:    "Kitchen renovation",
		Category:       "Home",
		JobDescription: "Replace cabinets and counter tops",
	})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func (e *testEnv) countNotifications(t *testing.T, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := e.store.DB().Model(&models.Notification{}).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}

func (e *testEnv) countPayments(t *testing.T, orderID uint, kind string) int64 {
	t.Helper()
	n, err := e.store.Payments.CountByOrder(orderID, kind)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func wantKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
}

func days(n int) *time.Time {
	v := time.Now().Add(time.Duration(n) * 24 * time.Hour).Truncate(time.Second)
	return &v
}

func f64(v float64) *float64 { return &v }
