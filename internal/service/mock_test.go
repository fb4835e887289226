package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"banking-core/internal/config"
	"banking-core/internal/crypto"
	"banking-core/internal/model"
)

// memDB backs the mock repositories. Every method takes the mutex for its
// whole body, which gives the same all-or-nothing behaviour as the SQL
// transactions in the repository package.
type memDB struct {
	mu       sync.Mutex
	seq      int
	users    map[uuid.UUID]*model.User
	accounts map[uuid.UUID]*model.Account
	cards    map[uuid.UUID]*model.Card
	txs      []*model.Transaction

	collisions   int   // forced card number collisions left
	transferErr  error // returned by ExecuteTransfer before any write
	transferCall int

	registrationErr error // returned by CreateWithAccount before any write
}

func newMemDB() *memDB {
	return &memDB{
		users:    make(map[uuid.UUID]*model.User),
		accounts: make(map[uuid.UUID]*model.Account),
		cards:    make(map[uuid.UUID]*model.Card),
	}
}

func (m *memDB) tick() time.Time {
	m.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Second)
}

func (m *memDB) balance(id uuid.UUID) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accounts[id].Balance
}

func (m *memDB) setBalance(id uuid.UUID, v decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[id].Balance = v
}

func (m *memDB) view(t *model.Transaction) model.TransactionView {
	return model.TransactionView{
		ID:             t.ID,
		FromCardNumber: m.cards[t.FromCardID].CardNumber,
		ToCardNumber:   m.cards[t.ToCardID].CardNumber,
		Amount:         t.Amount,
		Currency:       t.Currency,
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
	}
}

var _ UserStore = (*mockUserRepository)(nil)

type mockUserRepository struct{ db *memDB }

func (r *mockUserRepository) Create(_ context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: email already registered", model.ErrInvalidInput)
		}
	}
	u.CreatedAt = r.db.tick()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.db.users[u.ID] = &cp
	return nil
}

func (r *mockUserRepository) CreateWithAccount(_ context.Context, u *model.User, a *model.Account) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.registrationErr != nil {
		return r.db.registrationErr
	}
	for _, existing := range r.db.users {
		if existing.Email == u.Email {
			return fmt.Errorf("%w: email already registered", model.ErrInvalidInput)
		}
	}
	u.CreatedAt = r.db.tick()
	u.UpdatedAt = u.CreatedAt
	a.UserID = u.ID
	a.CreatedAt = u.CreatedAt
	a.UpdatedAt = u.CreatedAt
	cu, ca := *u, *a
	r.db.users[u.ID] = &cu
	r.db.accounts[a.ID] = &ca
	return nil
}

func (r *mockUserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *mockUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

var _ AccountStore = (*mockAccountRepository)(nil)

type mockAccountRepository struct{ db *memDB }

func (r *mockAccountRepository) CreateLimited(_ context.Context, a *model.Account, maxAccounts int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.users[a.UserID]; !ok {
		return model.ErrNotFound
	}
	total := 0
	for _, existing := range r.db.accounts {
		if existing.UserID != a.UserID {
			continue
		}
		total++
		if existing.Currency == a.Currency {
			return model.ErrDuplicateCurrency
		}
	}
	if total >= maxAccounts {
		return model.ErrLimitExceeded
	}
	a.CreatedAt = r.db.tick()
	a.UpdatedAt = a.CreatedAt
	cp := *a
	r.db.accounts[a.ID] = &cp
	return nil
}

func (r *mockAccountRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *mockAccountRepository) GetUserAccounts(_ context.Context, userID uuid.UUID) ([]model.Account, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Account, 0)
	for _, a := range r.db.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *mockAccountRepository) Deposit(_ context.Context, id uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return decimal.Zero, model.ErrNotFound
	}
	a.Balance = a.Balance.Add(amount)
	return a.Balance, nil
}

func (r *mockAccountRepository) CountByUser(_ context.Context, userID uuid.UUID) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	n := 0
	for _, a := range r.db.accounts {
		if a.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *mockAccountRepository) ExistsInCurrency(_ context.Context, userID uuid.UUID, currency model.Currency) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, a := range r.db.accounts {
		if a.UserID == userID && a.Currency == currency {
			return true, nil
		}
	}
	return false, nil
}

var _ CardStore = (*mockCardRepository)(nil)

type mockCardRepository struct{ db *memDB }

func (r *mockCardRepository) CreateLimited(_ context.Context, c *model.Card, maxCards int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.accounts[c.AccountID]; !ok {
		return model.ErrNotFound
	}
	n := 0
	for _, existing := range r.db.cards {
		if existing.CardNumber == c.CardNumber {
			return model.ErrDuplicateCardNumber
		}
		if existing.AccountID == c.AccountID {
			n++
		}
	}
	if n >= maxCards {
		return model.ErrLimitExceeded
	}
	if r.db.collisions > 0 {
		r.db.collisions--
		return model.ErrDuplicateCardNumber
	}
	c.CreatedAt = r.db.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	r.db.cards[c.ID] = &cp
	return nil
}

func (r *mockCardRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Card, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.cards[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *mockCardRepository) GetByNumber(_ context.Context, number string) (*model.Card, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.cards {
		if c.CardNumber == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *mockCardRepository) withAccount(c *model.Card) *model.CardWithAccount {
	out := &model.CardWithAccount{Card: *c}
	if a, ok := r.db.accounts[c.AccountID]; ok {
		cp := *a
		out.Account = &cp
	}
	return out
}

func (r *mockCardRepository) GetWithAccountByID(_ context.Context, id uuid.UUID) (*model.CardWithAccount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.cards[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return r.withAccount(c), nil
}

func (r *mockCardRepository) GetWithAccountByNumber(_ context.Context, number string) (*model.CardWithAccount, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.cards {
		if c.CardNumber == number {
			return r.withAccount(c), nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *mockCardRepository) filter(keep func(*model.Card) bool) []model.Card {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Card, 0)
	for _, c := range r.db.cards {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *mockCardRepository) ListByAccount(_ context.Context, accountID uuid.UUID) ([]model.Card, error) {
	return r.filter(func(c *model.Card) bool { return c.AccountID == accountID }), nil
}

func (r *mockCardRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Card, error) {
	return r.filter(func(c *model.Card) bool {
		a, ok := r.db.accounts[c.AccountID]
		return ok && a.UserID == userID
	}), nil
}

func (r *mockCardRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	cards, _ := r.ListByAccount(ctx, accountID)
	return len(cards), nil
}

func (r *mockCardRepository) DeleteByAccountID(_ context.Context, accountID uuid.UUID) (int64, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	owned := make(map[uuid.UUID]bool)
	for id, c := range r.db.cards {
		if c.AccountID == accountID {
			owned[id] = true
		}
	}

	kept := r.db.txs[:0]
	var txs int64
	for _, t := range r.db.txs {
		if owned[t.FromCardID] || owned[t.ToCardID] {
			txs++
			continue
		}
		kept = append(kept, t)
	}
	r.db.txs = kept

	for id := range owned {
		delete(r.db.cards, id)
	}
	return int64(len(owned)), txs, nil
}

var _ TransactionStore = (*mockTransactionRepository)(nil)

type mockTransactionRepository struct{ db *memDB }

func (r *mockTransactionRepository) ExecuteTransfer(_ context.Context, t *model.Transaction, fromID, toID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.transferCall++
	if r.db.transferErr != nil {
		return r.db.transferErr
	}

	from, ok := r.db.accounts[fromID]
	if !ok {
		return model.ErrNotFound
	}
	to, ok := r.db.accounts[toID]
	if !ok {
		return model.ErrNotFound
	}
	if from.Balance.LessThan(t.Amount) {
		return model.ErrInsufficientFunds
	}
	from.Balance = from.Balance.Sub(t.Amount)
	to.Balance = to.Balance.Add(t.Amount)

	t.CreatedAt = r.db.tick()
	cp := *t
	r.db.txs = append(r.db.txs, &cp)
	return nil
}

func (r *mockTransactionRepository) GetByID(_ context.Context, id uuid.UUID) (*model.TransactionView, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, t := range r.db.txs {
		if t.ID == id {
			v := r.db.view(t)
			return &v, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *mockTransactionRepository) filter(keep func(*model.Transaction) bool) []model.TransactionView {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.TransactionView, 0)
	for i := len(r.db.txs) - 1; i >= 0; i-- {
		if keep(r.db.txs[i]) {
			out = append(out, r.db.view(r.db.txs[i]))
		}
	}
	return out
}

func (r *mockTransactionRepository) List(context.Context) ([]model.TransactionView, error) {
	return r.filter(func(*model.Transaction) bool { return true }), nil
}

func (r *mockTransactionRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]model.TransactionView, error) {
	owns := func(cardID uuid.UUID) bool {
		c, ok := r.db.cards[cardID]
		if !ok {
			return false
		}
		a, ok := r.db.accounts[c.AccountID]
		return ok && a.UserID == userID
	}
	return r.filter(func(t *model.Transaction) bool { return owns(t.FromCardID) || owns(t.ToCardID) }), nil
}

func (r *mockTransactionRepository) ListByCardID(_ context.Context, cardID uuid.UUID) ([]model.TransactionView, error) {
	return r.filter(func(t *model.Transaction) bool { return t.FromCardID == cardID || t.ToCardID == cardID }), nil
}

func (r *mockTransactionRepository) ListByCardNumber(_ context.Context, number string) ([]model.TransactionView, error) {
	return r.filter(func(t *model.Transaction) bool {
		return r.db.cards[t.FromCardID].CardNumber == number || r.db.cards[t.ToCardID].CardNumber == number
	}), nil
}

type sentNotification struct {
	email    string
	amount   decimal.Decimal
	currency model.Currency
	from, to string
}

type mockNotifier struct{ sent chan sentNotification }

func (n *mockNotifier) SendTransferNotification(email string, amount decimal.Decimal, currency model.Currency, from, to string) error {
	n.sent <- sentNotification{email: email, amount: amount, currency: currency, from: from, to: to}
	return nil
}

const testPassword = "Str0ng#Pass"

type fixture struct {
	db        *memDB
	users     *mockUserRepository
	accounts  *AccountService
	cards     *CardService
	transfers *TransferService
	cipher    *crypto.CVVCipher
	signer    *crypto.Signer
	limits    config.Limits
	logger    *logrus.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLimits(t, config.DefaultLimits(), nil)
}

func newFixtureWithLimits(t *testing.T, limits config.Limits, notifier Notifier) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cipher, err := crypto.NewCVVCipher([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	signer, err := crypto.NewSigner([]byte("hmac-secret-hmac-secret-hmac-secret!"))
	require.NoError(t, err)

	db := newMemDB()
	users := &mockUserRepository{db: db}
	accountRepo := &mockAccountRepository{db: db}
	cardRepo := &mockCardRepository{db: db}
	txRepo := &mockTransactionRepository{db: db}

	return &fixture{
		db:        db,
		users:     users,
		accounts:  NewAccountService(accountRepo, cardRepo, limits, logger),
		cards:     NewCardService(users, accountRepo, cardRepo, cipher, signer, limits, logger),
		transfers: NewTransferService(users, cardRepo, txRepo, notifier, limits, logger),
		cipher:    cipher,
		signer:    signer,
		limits:    limits,
		logger:    logger,
	}
}

// addUser stores a user whose password is testPassword.
func (f *fixture) addUser(t *testing.T, email string) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{ID: uuid.New(), FullName: "Test User", Email: email, Password: string(hash)}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

// addFundedCard opens an account in currency with the given balance and
// issues one card on it.
func (f *fixture) addFundedCard(t *testing.T, user *model.User, currency model.Currency, ps model.PaymentSystem, balance int64) (*model.Account, *model.CardView) {
	t.Helper()
	ctx := context.Background()

	account, err := f.accounts.CreateAccountForUser(ctx, user.ID, currency)
	require.NoError(t, err)
	if balance > 0 {
		f.db.setBalance(account.ID, decimal.NewFromInt(balance))
	}

	card, err := f.cards.CreateCardForAccount(ctx, account.ID, model.CardTypeDebit, ps)
	require.NoError(t, err)
	return account, card
}
