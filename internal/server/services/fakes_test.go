package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/dbx"
	"github.com/dmitrijs2005/celengan/internal/logging"
	"github.com/dmitrijs2005/celengan/internal/server/config"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/goals"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/ledger"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// -------- helpers --------

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// newTxDB returns an in-memory SQLite handle. The fake repositories ignore
// it; it only lets dbx.WithTx begin and commit real transactions.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		S3Region:                     "us-east-1",
		S3RootUser:                   "minioadmin",
		S3RootPassword:               "minioadmin",
		S3BaseEndpoint:               "http://127.0.0.1:9000",
		S3Bucket:                     "celengan",
		S3PublicURL:                  "http://127.0.0.1:9000/celengan",
	}
}

// -------- in-memory store --------

// memStore keeps users, tokens, goals and ledger entries in memory and
// mimics the constraint behaviour of the PostgreSQL repositories.
type memStore struct {
	mu      sync.Mutex
	clock   time.Time
	users   map[string]*models.User
	tokens  map[string]*models.RefreshToken
	goals   map[string]*models.Goal
	entries []*models.LedgerEntry
}

func newMemStore() *memStore {
	return &memStore{
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		users:  map[string]*models.User{},
		tokens: map[string]*models.RefreshToken{},
		goals:  map[string]*models.Goal{},
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type memManager struct{ s *memStore }

func (m *memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memManager) Users(dbx.DBTX) users.Repository                 { return (*memUsers)(m.s) }
func (m *memManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*memTokens)(m.s) }
func (m *memManager) Goals(dbx.DBTX) goals.Repository                 { return (*memGoals)(m.s) }
func (m *memManager) Ledger(dbx.DBTX) ledger.Repository               { return (*memLedger)(m.s) }

// users

type memUsers memStore

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.users {
		switch {
		case o.Email == u.Email:
			return nil, common.ErrDuplicateEmail
		case o.Username == u.Username:
			return nil, common.ErrDuplicateUsername
		case u.ExternalID != "" && o.ExternalID == u.ExternalID:
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = (*memStore)(r).tick()
	c.UpdatedAt = c.CreatedAt
	r.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r *memUsers) GetByExternalID(_ context.Context, externalID string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ExternalID == externalID })
}

func (r *memUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	_, err := r.find(func(u *models.User) bool { return u.Username == username })
	return err == nil, nil
}

func (r *memUsers) update(id string, fn func(*models.User)) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	fn(u)
	c := *u
	return &c, nil
}

func (r *memUsers) RefreshProfile(_ context.Context, id, email, displayName, photoURL string) (*models.User, error) {
	return r.update(id, func(u *models.User) {
		if email != "" {
			u.Email = email
		}
		if displayName != "" {
			u.DisplayName = displayName
		}
		if photoURL != "" {
			u.PhotoURL = photoURL
		}
	})
}

func (r *memUsers) LinkExternal(_ context.Context, id, externalID, displayName, photoURL string) (*models.User, error) {
	return r.update(id, func(u *models.User) {
		u.ExternalID = externalID
		if u.DisplayName == "" {
			u.DisplayName = displayName
		}
		if u.PhotoURL == "" {
			u.PhotoURL = photoURL
		}
	})
}

func (r *memUsers) SetPhotoURL(_ context.Context, id, photoURL string) error {
	_, err := r.update(id, func(u *models.User) { u.PhotoURL = photoURL })
	return err
}

// refresh tokens

type memTokens memStore

func (r *memTokens) Create(_ context.Context, t *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.tokens[t.Token] = &c
	return nil
}

func (r *memTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (r *memTokens) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tokens, token)
	return nil
}

// goals

type memGoals memStore

func (r *memGoals) nameTaken(userID, name, exceptID string) bool {
	for _, g := range r.goals {
		if g.UserID == userID && g.ID != exceptID && strings.EqualFold(g.Name, name) {
			return true
		}
	}
	return false
}

func (r *memGoals) Create(_ context.Context, g *models.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(g.UserID, g.Name, "") {
		return common.ErrDuplicateGoalName
	}
	g.ID = uuid.NewString()
	g.CreatedAt = (*memStore)(r).tick()
	g.UpdatedAt = g.CreatedAt
	c := *g
	r.goals[g.ID] = &c
	return nil
}

func (r *memGoals) List(_ context.Context, userID string) ([]*models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Goal, 0)
	for _, g := range r.goals {
		if g.UserID == userID {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memGoals) Get(_ context.Context, userID, goalID string) (*models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, common.ErrorNotFound
	}
	c := *g
	return &c, nil
}

func (r *memGoals) GetForUpdate(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	return r.Get(ctx, userID, goalID)
}

func (r *memGoals) Update(_ context.Context, userID, goalID string, p models.GoalPatch) (*models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[goalID]
	if !ok || g.UserID != userID {
		return nil, common.ErrorNotFound
	}
	if p.Name != nil {
		if r.nameTaken(userID, *p.Name, goalID) {
			return nil, common.ErrDuplicateGoalName
		}
		g.Name = *p.Name
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	g.UpdatedAt = (*memStore)(r).tick()
	c := *g
	return &c, nil
}

func (r *memGoals) SetCurrentAmount(_ context.Context, goalID string, amount decimal.Decimal) (*models.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[goalID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if amount.IsNegative() {
		return nil, common.NewValidationError("amount", "amounts must not be negative")
	}
	g.CurrentAmount = amount
	g.UpdatedAt = (*memStore)(r).tick()
	c := *g
	return &c, nil
}

func (r *memGoals) Delete(_ context.Context, userID, goalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.goals[goalID]
	if !ok || g.UserID != userID {
		return common.ErrorNotFound
	}
	delete(r.goals, goalID)
	return nil
}

func (r *memGoals) Summary(_ context.Context, userID string) (*models.GoalSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &models.GoalSummary{TotalBalance: decimal.Zero, TotalTarget: decimal.Zero}
	for _, g := range r.goals {
		if g.UserID == userID {
			s.TotalBalance = s.TotalBalance.Add(g.CurrentAmount)
			s.TotalTarget = s.TotalTarget.Add(g.TargetAmount)
			s.GoalCount++
		}
	}
	return s, nil
}

// ledger

type memLedger memStore

func (r *memLedger) Create(_ context.Context, e *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = uuid.NewString()
	e.CreatedAt = (*memStore)(r).tick()
	c := *e
	r.entries = append(r.entries, &c)
	return nil
}

func (r *memLedger) list(match func(*models.LedgerEntry) bool) []*models.LedgerEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.LedgerEntry, 0)
	for i := len(r.entries) - 1; i >= 0; i-- {
		if match(r.entries[i]) {
			c := *r.entries[i]
			out = append(out, &c)
		}
	}
	return out
}

func (r *memLedger) ListByUser(_ context.Context, userID string) ([]*models.LedgerEntry, error) {
	return r.list(func(e *models.LedgerEntry) bool { return e.UserID == userID }), nil
}

func (r *memLedger) ListByGoal(_ context.Context, userID, goalID string) ([]*models.LedgerEntry, error) {
	return r.list(func(e *models.LedgerEntry) bool { return e.UserID == userID && e.GoalID == goalID }), nil
}

func (r *memLedger) DeleteByGoal(_ context.Context, goalID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.GoalID == goalID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return n, nil
}

// -------- service wiring --------

type fixture struct {
	store *memStore
	users *UserService
	goals *GoalService
	txs   *TransactionService
}

func newFixture(t *testing.T, pub PostingPublisher) *fixture {
	t.Helper()
	db := newTxDB(t)
	store := newMemStore()
	rm := &memManager{s: store}
	return &fixture{
		store: store,
		users: NewUserService(db, rm, testConfig()),
		goals: NewGoalService(db, rm, logging.Nop()),
		txs:   NewTransactionService(db, rm, pub, logging.Nop()),
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
