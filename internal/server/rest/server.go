// Package rest exposes the celengan services over HTTP/JSON.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/celengan/internal/logging"
	"github.com/dmitrijs2005/celengan/internal/server/config"
	"github.com/dmitrijs2005/celengan/internal/server/identity"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/services"
)

const shutdownTimeout = 30 * time.Second

// UserService is the part of services.UserService the handlers use.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	FederatedLogin(ctx context.Context, id *identity.Identity) (*services.AuthResult, error)
	ResolveOrProvision(ctx context.Context, id *identity.Identity) (*models.User, error)
	GetByID(ctx context.Context, userID string) (*models.User, error)
	AccessTokenUserID(token string) (string, error)
}

type GoalService interface {
	Create(ctx context.Context, userID string, in services.GoalInput) (*models.Goal, error)
	List(ctx context.Context, userID string) ([]*models.Goal, error)
	Get(ctx context.Context, userID, goalID string) (*models.Goal, error)
	Update(ctx context.Context, userID, goalID string, patch models.GoalPatch) (*models.Goal, error)
	Delete(ctx context.Context, userID, goalID string) error
	Summary(ctx context.Context, userID string) (*models.GoalSummary, error)
}

type TransactionService interface {
	Post(ctx context.Context, userID string, in services.PostingInput) (*models.PostingResult, error)
	ListByUser(ctx context.Context, userID string) ([]*models.LedgerEntry, error)
	ListByGoal(ctx context.Context, userID, goalID string) ([]*models.LedgerEntry, error)
}

type AvatarService interface {
	UploadURL(ctx context.Context, userID, contentType string) (*services.AvatarUpload, error)
}

// IdentityVerifier checks ID tokens issued by the external identity provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*identity.Identity, error)
}

// Services groups the dependencies of the HTTP layer. Verifier may be nil,
// in which case only app access tokens are accepted.
type Services struct {
	Users        UserService
	Goals        GoalService
	Transactions TransactionService
	Avatars      AvatarService
	Verifier     IdentityVerifier
}

type Server struct {
	address        string
	apiPrefix      string
	requestTimeout time.Duration
	svc            Services
	logger         logging.Logger
}

func NewServer(cfg *config.Config, l logging.Logger, svc Services) *Server {
	return &Server{
		address:        cfg.HTTPAddr,
		apiPrefix:      cfg.APIPrefix,
		requestTimeout: cfg.RequestTimeout,
		svc:            svc,
		logger:         l.With("module", "http_server"),
	}
}

// Run serves HTTP until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address, "prefix", s.apiPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
