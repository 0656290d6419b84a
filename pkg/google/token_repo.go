package google

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var ErrUnknownNonce = errors.New("unknown oauth state")

// TokenRepository keeps one OAuth grant per user. A login first stores a nonce, the callback attaches the token to it.
type TokenRepository interface {
	StartLogin(ctx context.Context, userId int, nonce string) error
	CompleteLogin(ctx context.Context, nonce string, token *oauth2.Token) error
	// GetToken returns nil when the user has no completed grant.
	GetToken(ctx context.Context, userId int) (*oauth2.Token, error)
	Delete(ctx context.Context, userId int) error
}

type TokenRepositoryImpl struct {
	db *pgxpool.Pool
}

func NewTokenRepository(db *pgxpool.Pool) *TokenRepositoryImpl {
	return &TokenRepositoryImpl{db: db}
}

func (r *TokenRepositoryImpl) StartLogin(ctx context.Context, userId int, nonce string) error {
	query := `INSERT INTO google_calendar_auth (user_id, nonce) VALUES ($1, $2)
				ON CONFLICT (user_id) DO UPDATE SET nonce = EXCLUDED.nonce, access_token = NULL, refresh_token = NULL, expiry = NULL`
	if _, err := r.db.Exec(ctx, query, userId, nonce); err != nil {
		err := fmt.Errorf("failed to store Google auth nonce for user %d: %w", userId, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *TokenRepositoryImpl) CompleteLogin(ctx context.Context, nonce string, token *oauth2.Token) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE google_calendar_auth SET access_token = $1, refresh_token = $2, expiry = $3 WHERE nonce = $4`,
		token.AccessToken, token.RefreshToken, token.Expiry.Unix(), nonce)
	if err != nil {
		err := fmt.Errorf("failed to store Google auth token: %w", err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUnknownNonce
	}
	return nil
}

func (r *TokenRepositoryImpl) GetToken(ctx context.Context, userId int) (*oauth2.Token, error) {
	var accessToken, refreshToken *string
	var expiry *int64
	err := r.db.QueryRow(ctx,
		`SELECT access_token, refresh_token, expiry FROM google_calendar_auth WHERE user_id = $1`, userId).
		Scan(&accessToken, &refreshToken, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		err := fmt.Errorf("failed to read Google auth token: %w", err)
		log.Error(err)
		return nil, err
	}
	if accessToken == nil {
		log.Debugf("Google login of user %d was started but not completed", userId)
		return nil, nil
	}

	token := &oauth2.Token{AccessToken: *accessToken}
	if refreshToken != nil {
		token.RefreshToken = *refreshToken
	}
	if expiry != nil {
		token.Expiry = time.Unix(*expiry, 0)
	}
	return token, nil
}

func (r *TokenRepositoryImpl) Delete(ctx context.Context, userId int) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM google_calendar_auth WHERE user_id = $1`, userId); err != nil {
		err := fmt.Errorf("failed to delete Google auth for user %d: %w", userId, err)
		log.Error(err)
		return err
	}
	return nil
}

type TokenRepositoryStub struct {
	mu     sync.Mutex
	nonces map[string]int
	tokens map[int]*oauth2.Token
}

func NewTokenRepositoryStub() *TokenRepositoryStub {
	return &TokenRepositoryStub{nonces: map[string]int{}, tokens: map[int]*oauth2.Token{}}
}

func (s *TokenRepositoryStub) StartLogin(ctx context.Context, userId int, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for n, id := range s.nonces {
		if id == userId {
			delete(s.nonces, n)
		}
	}
	delete(s.tokens, userId)
	s.nonces[nonce] = userId
	return nil
}

func (s *TokenRepositoryStub) CompleteLogin(ctx context.Context, nonce string, token *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userId, ok := s.nonces[nonce]
	if !ok {
		return ErrUnknownNonce
	}
	s.tokens[userId] = token
	return nil
}

func (s *TokenRepositoryStub) GetToken(ctx context.Context, userId int) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[userId], nil
}

func (s *TokenRepositoryStub) Delete(ctx context.Context, userId int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userId)
	for n, id := range s.nonces {
		if id == userId {
			delete(s.nonces, n)
		}
	}
	return nil
}

// Nonce returns the pending nonce of a user, "" when there is none.
func (s *TokenRepositoryStub) Nonce(userId int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for n, id := range s.nonces {
		if id == userId {
			return n
		}
	}
	return ""
}
