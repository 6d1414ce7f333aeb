package rest

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/logging"
	"github.com/dmitrijs2005/celengan/internal/server/config"
	"github.com/dmitrijs2005/celengan/internal/server/identity"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/services"
)

type fakeUsers struct {
	register    func(username, email, password string) (*services.AuthResult, error)
	login       func(email, password string) (*services.AuthResult, error)
	refresh     func(token string) (*services.TokenPair, error)
	federated   func(id *identity.Identity) (*services.AuthResult, error)
	resolve     func(id *identity.Identity) (*models.User, error)
	getByID     func(userID string) (*models.User, error)
	tokenUserID func(token string) (string, error)
}

func (f *fakeUsers) Register(_ context.Context, u, e, p string) (*services.AuthResult, error) {
	return f.register(u, e, p)
}
func (f *fakeUsers) Login(_ context.Context, e, p string) (*services.AuthResult, error) {
	return f.login(e, p)
}
func (f *fakeUsers) RefreshToken(_ context.Context, t string) (*services.TokenPair, error) {
	return f.refresh(t)
}
func (f *fakeUsers) FederatedLogin(_ context.Context, id *identity.Identity) (*services.AuthResult, error) {
	return f.federated(id)
}
func (f *fakeUsers) ResolveOrProvision(_ context.Context, id *identity.Identity) (*models.User, error) {
	return f.resolve(id)
}
func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.getByID(id)
}
func (f *fakeUsers) AccessTokenUserID(token string) (string, error) {
	if f.tokenUserID == nil {
		return "", common.ErrInvalidToken
	}
	return f.tokenUserID(token)
}

type fakeGoals struct {
	create  func(userID string, in services.GoalInput) (*models.Goal, error)
	list    func(userID string) ([]*models.Goal, error)
	get     func(userID, goalID string) (*models.Goal, error)
	update  func(userID, goalID string, p models.GoalPatch) (*models.Goal, error)
	del     func(userID, goalID string) error
	summary func(userID string) (*models.GoalSummary, error)
}

func (f *fakeGoals) Create(_ context.Context, u string, in services.GoalInput) (*models.Goal, error) {
	return f.create(u, in)
}
func (f *fakeGoals) List(_ context.Context, u string) ([]*models.Goal, error) { return f.list(u) }
func (f *fakeGoals) Get(_ context.Context, u, g string) (*models.Goal, error) { return f.get(u, g) }
func (f *fakeGoals) Update(_ context.Context, u, g string, p models.GoalPatch) (*models.Goal, error) {
	return f.update(u, g, p)
}
func (f *fakeGoals) Delete(_ context.Context, u, g string) error { return f.del(u, g) }
func (f *fakeGoals) Summary(_ context.Context, u string) (*models.GoalSummary, error) {
	return f.summary(u)
}

type fakeTxs struct {
	post       func(userID string, in services.PostingInput) (*models.PostingResult, error)
	listByUser func(userID string) ([]*models.LedgerEntry, error)
	listByGoal func(userID, goalID string) ([]*models.LedgerEntry, error)
}

func (f *fakeTxs) Post(_ context.Context, u string, in services.PostingInput) (*models.PostingResult, error) {
	return f.post(u, in)
}
func (f *fakeTxs) ListByUser(_ context.Context, u string) ([]*models.LedgerEntry, error) {
	return f.listByUser(u)
}
func (f *fakeTxs) ListByGoal(_ context.Context, u, g string) ([]*models.LedgerEntry, error) {
	return f.listByGoal(u, g)
}

type fakeAvatars struct {
	upload func(userID, contentType string) (*services.AvatarUpload, error)
}

func (f *fakeAvatars) UploadURL(_ context.Context, u, ct string) (*services.AvatarUpload, error) {
	return f.upload(u, ct)
}

type fakeVerifier struct {
	verify func(token string) (*identity.Identity, error)
}

func (f *fakeVerifier) Verify(_ context.Context, token string) (*identity.Identity, error) {
	return f.verify(token)
}

var errUnexpected = errors.New("unexpected call")

// newTestServer wires fakes that fail every call; tests override what they need.
// The token "good" authenticates as user "u1".
func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := &Services{
		Users: &fakeUsers{
			register:  func(string, string, string) (*services.AuthResult, error) { return nil, errUnexpected },
			login:     func(string, string) (*services.AuthResult, error) { return nil, errUnexpected },
			refresh:   func(string) (*services.TokenPair, error) { return nil, errUnexpected },
			federated: func(*identity.Identity) (*services.AuthResult, error) { return nil, errUnexpected },
			resolve:   func(*identity.Identity) (*models.User, error) { return nil, errUnexpected },
			getByID:   func(string) (*models.User, error) { return nil, errUnexpected },
			tokenUserID: func(token string) (string, error) {
				switch token {
				case "good":
					return "u1", nil
				case "expired":
					return "", common.ErrTokenExpired
				}
				return "", common.ErrInvalidToken
			},
		},
		Goals: &fakeGoals{
			create:  func(string, services.GoalInput) (*models.Goal, error) { return nil, errUnexpected },
			list:    func(string) ([]*models.Goal, error) { return nil, errUnexpected },
			get:     func(string, string) (*models.Goal, error) { return nil, errUnexpected },
			update:  func(string, string, models.GoalPatch) (*models.Goal, error) { return nil, errUnexpected },
			del:     func(string, string) error { return errUnexpected },
			summary: func(string) (*models.GoalSummary, error) { return nil, errUnexpected },
		},
		Transactions: &fakeTxs{
			post:       func(string, services.PostingInput) (*models.PostingResult, error) { return nil, errUnexpected },
			listByUser: func(string) ([]*models.LedgerEntry, error) { return nil, errUnexpected },
			listByGoal: func(string, string) ([]*models.LedgerEntry, error) { return nil, errUnexpected },
		},
		Avatars: &fakeAvatars{
			upload: func(string, string) (*services.AvatarUpload, error) { return nil, errUnexpected },
		},
	}
	cfg := &config.Config{HTTPAddr: "127.0.0.1:0", APIPrefix: "/api", RequestTimeout: 5 * time.Second}
	return NewServer(cfg, logging.Nop(), *svc)
}

// do sends one request through the router and returns the recorder.
func do(t *testing.T, s *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func usersOf(s *Server) *fakeUsers { return s.svc.Users.(*fakeUsers) }
func goalsOf(s *Server) *fakeGoals { return s.svc.Goals.(*fakeGoals) }
func txsOf(s *Server) *fakeTxs { return s.svc.Transactions.(*fakeTxs) }
func avatarsOf(s *Server) *fakeAvatars { return s.svc.Avatars.(*fakeAvatars) }
