// Package session owns the client-side authentication lifecycle: restoring a
// persisted session on launch, login, logout, token refresh and the
// verification state that gates navigation.
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/marc-hebbo/marketgo/market"
	"github.com/marc-hebbo/marketgo/market/token"
	"github.com/marc-hebbo/marketgo/storage"
)

// Status is the outcome of a login attempt.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusUnverified Status = "unverified"
	StatusError      Status = "error"
)

// AuthAPI is the slice of the market client the session layer calls.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (market.LoginResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

// Snapshot is a point-in-time copy of the session state.
//
// Invariants: Verified implies LoggedIn, and a present AccessToken implies
// LoggedIn. The reverse does not hold: an unverified user can be logged in
// with no token yet, pending re-login after verification.
type Snapshot struct {
	AccessToken string
	UserID      string
	Email       string
	LoggedIn    bool
	Verified    bool
	AuthLoading bool
}

// Session is the process-wide authentication state machine. All mutation
// goes through its methods; concurrent calls are serialized on a mutex and
// each operation resolves its I/O before touching state, so fields are
// replaced wholesale rather than interleaved.
type Session struct {
	api    AuthAPI
	tokens storage.TokenStore

	mu    sync.Mutex
	state Snapshot
	gen   uint64 // bumped on logout so in-flight refreshes detect staleness
	subs  []chan Snapshot
}

// New creates a session in the initial loading state. RestoreSession is
// expected to run once, before any other operation.
func New(api AuthAPI, tokens storage.TokenStore) *Session {
	return &Session{
		api:    api,
		tokens: tokens,
		state:  Snapshot{AuthLoading: true},
	}
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked derives the externally visible state. Verified is reported
// only while logged in, which keeps the Verified-implies-LoggedIn invariant
// structural rather than checked at every mutation site.
func (s *Session) snapshotLocked() Snapshot {
	snap := s.state
	snap.Verified = snap.Verified && snap.LoggedIn
	return snap
}

// Subscribe returns a channel that receives a snapshot after every state
// change. The channel is buffered and coalescing: a slow consumer sees the
// latest state, not every intermediate one.
func (s *Session) Subscribe() <-chan Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Snapshot, 1)
	s.subs = append(s.subs, ch)
	return ch
}

func (s *Session) notifyLocked() {
	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale pending snapshot and replace it with the
			// current one.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// RestoreSession reads the persisted access token and rebuilds the session
// from it. A stored token is optimistically trusted as a verified login;
// the backend will reject it on the first protected call if it is stale.
// RestoreSession never fails outward: every error degrades to a logged-out,
// loading-complete state, and AuthLoading is false when it returns.
func (s *Session) RestoreSession() {
	tok, err := s.tokens.Get(storage.KeyAccessToken)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("failed to read stored access token")
		s.state.AuthLoading = false
		s.notifyLocked()
		return
	}

	if tok == "" {
		s.state = Snapshot{}
		s.notifyLocked()
		return
	}

	s.state = Snapshot{
		AccessToken: tok,
		LoggedIn:    true,
		Verified:    true,
	}
	claims, err := token.Decode(tok)
	if err != nil {
		log.Warn().Err(err).Msg("failed to decode stored access token")
	} else {
		s.state.UserID = claims.UserID
		s.state.Email = claims.Email
	}
	s.notifyLocked()
}

// Login exchanges credentials for tokens and resolves the session to logged
// in (verified or not). Failures are never thrown outward: the backend's
// error body is classified into a Status and the session transitions
// accordingly.
func (s *Session) Login(ctx context.Context, email, password string) Status {
	result, err := s.api.Login(ctx, email, password)
	if err != nil {
		return s.loginFailed(err)
	}

	if err := s.tokens.Set(storage.KeyAccessToken, result.AccessToken); err != nil {
		log.Error().Err(err).Msg("failed to persist access token")
		return s.loginErrored()
	}
	if err := s.tokens.Set(storage.KeyRefreshToken, result.RefreshToken); err != nil {
		log.Error().Err(err).Msg("failed to persist refresh token")
		return s.loginErrored()
	}

	claims, err := token.Decode(result.AccessToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode access token from login")
		return s.loginErrored()
	}

	// Absent isVerified means verified.
	verified := true
	if result.IsVerified != nil {
		verified = *result.IsVerified
	}

	s.mu.Lock()
	s.state = Snapshot{
		AccessToken: result.AccessToken,
		UserID:      claims.UserID,
		// The submitted email is authoritative here, not the token claim.
		Email:    email,
		LoggedIn: true,
		Verified: verified,
	}
	s.notifyLocked()
	s.mu.Unlock()

	if verified {
		return StatusSuccess
	}
	return StatusUnverified
}

func (s *Session) loginFailed(err error) Status {
	status := classifyLoginError(err)
	log.Warn().Err(err).Str("status", string(status)).Msg("login failed")

	s.mu.Lock()
	defer s.mu.Unlock()

	switch status {
	case StatusUnverified:
		// The server rejected the login but the account exists and only
		// needs verification.
		s.state.LoggedIn = true
		s.state.Verified = false
	case StatusSuccess:
		// "Already verified": recoverable, the user just needs to log in.
		s.state.LoggedIn = true
		s.state.Verified = true
	default:
		s.state.AccessToken = ""
		s.state.UserID = ""
		s.state.LoggedIn = false
		s.state.Verified = false
		s.state.AuthLoading = false
	}
	s.notifyLocked()
	return status
}

func (s *Session) loginErrored() Status {
	s.mu.Lock()
	s.state.AccessToken = ""
	s.state.UserID = ""
	s.state.LoggedIn = false
	s.state.Verified = false
	s.state.AuthLoading = false
	s.notifyLocked()
	s.mu.Unlock()
	return StatusError
}

// Logout deletes both persisted tokens and resets the session to logged-out
// defaults. Calling it when already logged out is a no-op beyond the
// redundant storage deletes.
func (s *Session) Logout() {
	if err := s.tokens.Delete(storage.KeyAccessToken); err != nil {
		log.Error().Err(err).Msg("failed to delete access token")
	}
	if err := s.tokens.Delete(storage.KeyRefreshToken); err != nil {
		log.Error().Err(err).Msg("failed to delete refresh token")
	}

	s.mu.Lock()
	s.gen++
	s.state = Snapshot{}
	s.notifyLocked()
	s.mu.Unlock()
}

// RefreshAccessToken exchanges the persisted refresh token for a new access
// token. It returns ("", false) without touching state when no refresh token
// exists or the failure looks transient (network, 5xx); the caller may retry
// later. A 401 or 403 is terminal: both tokens are cleared and the session
// resets to logged out. The refresh token itself is not rotated.
func (s *Session) RefreshAccessToken(ctx context.Context) (string, bool) {
	refreshTok, err := s.tokens.Get(storage.KeyRefreshToken)
	if err != nil {
		log.Error().Err(err).Msg("failed to read stored refresh token")
		return "", false
	}
	if refreshTok == "" {
		return "", false
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	newTok, err := s.api.RefreshToken(ctx, refreshTok)
	if err != nil {
		if apiErr, ok := market.AsAPIError(err); ok && (apiErr.StatusCode == 401 || apiErr.StatusCode == 403) {
			log.Warn().Int("status", apiErr.StatusCode).Msg("refresh token rejected, logging out")
			s.Logout()
			return "", false
		}
		log.Warn().Err(err).Msg("token refresh failed, keeping session for retry")
		return "", false
	}

	// A logout may have raced the network call. Only persist the result if
	// a refresh token is still stored; otherwise the write would resurrect
	// stale credentials.
	current, err := s.tokens.Get(storage.KeyRefreshToken)
	if err != nil || current == "" {
		log.Info().Msg("refresh token gone after refresh resolved, discarding result")
		return "", false
	}
	s.mu.Lock()
	stale := s.gen != gen
	s.mu.Unlock()
	if stale {
		return "", false
	}

	if err := s.tokens.Set(storage.KeyAccessToken, newTok); err != nil {
		log.Error().Err(err).Msg("failed to persist refreshed access token")
		return "", false
	}

	claims, err := token.Decode(newTok)
	if err != nil {
		log.Error().Err(err).Msg("failed to decode refreshed access token")
		return "", false
	}

	s.mu.Lock()
	if s.gen == gen {
		s.state.AccessToken = newTok
		s.state.UserID = claims.UserID
		s.state.LoggedIn = true
		s.notifyLocked()
	}
	s.mu.Unlock()

	return newTok, true
}

// Verify marks the session's email as verified. Token fields are untouched;
// this is used after an explicit verification success when the client does
// not force a re-login.
func (s *Session) Verify() {
	s.mu.Lock()
	s.state.Verified = true
	s.notifyLocked()
	s.mu.Unlock()
}

// SignUpSuccess establishes the pending-verification state from a successful
// registration, before any token exists: logged in, unverified, no identity
// beyond the registered email.
func (s *Session) SignUpSuccess(email string) {
	s.mu.Lock()
	s.state.AccessToken = ""
	s.state.UserID = ""
	s.state.Email = email
	s.state.LoggedIn = true
	s.state.Verified = false
	s.notifyLocked()
	s.mu.Unlock()
}
