package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"shoezclean/backend/internal/auth"
	"shoezclean/backend/internal/cache"
	"shoezclean/backend/internal/catalog"
	"shoezclean/backend/internal/domain"
	"shoezclean/backend/internal/entity"
	"shoezclean/backend/internal/store"
	"shoezclean/backend/internal/syncer"
)

var (
	ErrNoSession      = errors.New("no active session")
	ErrSessionExpired = errors.New("session expired")
	ErrForbidden      = auth.ErrForbidden
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.User) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.User, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.User)
	return actor, ok
}

type Option func(*Service)

func WithLogger(log *logrus.Entry) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithSessionCache(c cache.SessionCache) Option {
	return func(s *Service) {
		if c != nil {
			s.sessions = c
		}
	}
}

func WithTokenIssuer(t *auth.TokenIssuer) Option {
	return func(s *Service) {
		if t != nil {
			s.tokens = t
		}
	}
}

func WithLockout(l *auth.Lockout) Option {
	return func(s *Service) {
		s.lockout = l
	}
}

// WithIdleTimeout ends a session that has seen no activity for d.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

func WithSessionTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithLocation sets the shop's time zone, used for invoice dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSyncOptions passes options through to the sync coordinator.
func WithSyncOptions(opts ...syncer.Option) Option {
	return func(s *Service) {
		s.syncOpts = append(s.syncOpts, opts...)
	}
}

type Service struct {
	repo     store.Repository
	catalog  catalog.Catalog
	state    *entity.Store
	sync     *syncer.Coordinator
	syncOpts []syncer.Option

	log         *logrus.Entry
	sessions    cache.SessionCache
	tokens      *auth.TokenIssuer
	lockout     *auth.Lockout
	idleTimeout time.Duration
	sessionTTL  time.Duration
	location    *time.Location
	now         func() time.Time

	paymentMu sync.Mutex

	listenMu   sync.Mutex
	stopListen context.CancelFunc
	listenDone chan struct{}
}

func New(repo store.Repository, cat catalog.Catalog, opts ...Option) *Service {
	if cat == nil {
		cat = catalog.Default()
	}
	s := &Service{
		repo:        repo,
		catalog:     cat,
		state:       entity.New(),
		log:         logrus.WithField("module", "service"),
		sessions:    cache.NoopSessionCache{},
		lockout:     auth.NewLockout(5, 5*time.Minute, 5*time.Minute),
		idleTimeout: 30 * time.Minute,
		sessionTTL:  12 * time.Hour,
		location:    time.Local,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tokens == nil {
		s.tokens = auth.NewTokenIssuer("", s.sessionTTL)
	}
	s.sync = syncer.New(repo, s.state, append([]syncer.Option{syncer.WithLogger(s.log.WithField("module", "syncer"))}, s.syncOpts...)...)
	return s
}

func (s *Service) State() *entity.Store {
	return s.state
}

func (s *Service) Catalog() catalog.Catalog {
	return s.catalog
}

func (s *Service) Location() *time.Location {
	return s.location
}

// Now is the service clock in the shop's time zone.
func (s *Service) Now() time.Time {
	return s.now().In(s.location)
}

// FetchInitialData reloads every collection and the settings. Failures are
// isolated per table; see syncer.Coordinator.Refresh.
func (s *Service) FetchInitialData(ctx context.Context) error {
	return s.sync.Refresh(ctx)
}

// Flush waits for background writes to reach the remote store.
func (s *Service) Flush() {
	s.sync.Flush()
}

// Close stops the realtime listener and waits for pending writes.
func (s *Service) Close() {
	s.stopListener()
	s.sync.Flush()
}

// Login signs in an active user. It reports false for unknown or inactive
// users, a wrong password or a locked-out username and never returns an error.
func (s *Service) Login(ctx context.Context, username string, password string) bool {
	username = strings.TrimSpace(username)
	logger := s.log.WithField("username", username)
	if s.lockout.Locked(username) {
		logger.Warn("login rejected, account locked")
		return false
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		logger.WithError(err).Warn("login failed to read users")
		return false
	}

	var user *domain.User
	for i := range users {
		if users[i].IsActive && strings.EqualFold(users[i].Username, username) {
			user = &users[i]
			break
		}
	}
	if user == nil {
		s.lockout.Fail(username)
		return false
	}

	ok, upgrade := auth.VerifyPassword(user.PasswordHash, password)
	if !ok {
		if s.lockout.Fail(username) {
			logger.Warn("too many failed logins, account locked")
		}
		return false
	}
	s.lockout.Reset(username)

	if upgrade {
		s.upgradePassword(ctx, *user, password)
	}

	if err := s.startSession(ctx, *user); err != nil {
		logger.WithError(err).Warn("login failed to start session")
		return false
	}
	logger.WithField("role", user.Role).Info("user signed in")
	return true
}

func (s *Service) upgradePassword(ctx context.Context, user domain.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.log.WithError(err).Warn("password upgrade skipped")
		return
	}
	s.sync.Dispatch(ctx, "app_users.update", func(ctx context.Context) error {
		return s.repo.UpdateUser(ctx, user.ID, domain.UserPatch{PasswordHash: &hash})
	})
}

func (s *Service) startSession(ctx context.Context, user domain.User) error {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return err
	}
	now := s.now()
	s.state.SetSession(entity.Session{User: user, Token: token, ExpiresAt: expiresAt, LastActivity: now})
	s.saveSession(ctx, token, user.ID, now)

	if err := s.FetchInitialData(ctx); err != nil {
		s.log.WithError(err).Warn("initial load incomplete")
	}
	s.startListener()
	return nil
}

func (s *Service) saveSession(ctx context.Context, token, userID string, at time.Time) {
	record := cache.SessionRecord{Token: token, UserID: userID, LastActivity: at}
	if err := s.sessions.Save(ctx, record, s.sessionTTL); err != nil {
		s.log.WithError(err).Warn("session cache write failed")
	}
}

// Resume restores a session persisted by an earlier process. It reports false
// when there is nothing to resume or the session is no longer valid.
func (s *Service) Resume(ctx context.Context) bool {
	record, ok, err := s.sessions.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("session cache read failed")
		return false
	}
	if !ok {
		return false
	}

	claims, err := s.tokens.Parse(record.Token)
	if err != nil || claims.UserID != record.UserID || s.now().Sub(record.LastActivity) > s.idleTimeout {
		s.clearSessionCache(ctx)
		return false
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		s.log.WithError(err).Warn("resume failed to read users")
		return false
	}
	for _, user := range users {
		if user.ID != claims.UserID || !user.IsActive {
			continue
		}
		s.state.SetSession(entity.Session{User: user, Token: record.Token, ExpiresAt: claims.ExpiresAt, LastActivity: s.now()})
		if err := s.FetchInitialData(ctx); err != nil {
			s.log.WithError(err).Warn("initial load incomplete")
		}
		s.startListener()
		s.log.WithField("username", user.Username).Info("session resumed")
		return true
	}
	s.clearSessionCache(ctx)
	return false
}

// Logout ends the session and stops the realtime listener. The mirrored data
// stays in memory until the next login reloads it.
func (s *Service) Logout(ctx context.Context) {
	s.stopListener()
	if sess, ok := s.state.Session(); ok {
		s.log.WithField("username", sess.User.Username).Info("user signed out")
	}
	s.state.ClearSession()
	s.clearSessionCache(ctx)
}

func (s *Service) clearSessionCache(ctx context.Context) {
	if err := s.sessions.Clear(ctx); err != nil {
		s.log.WithError(err).Warn("session cache clear failed")
	}
}

func (s *Service) CurrentUser() (domain.User, bool) {
	sess, ok := s.state.Session()
	if !ok {
		return domain.User{}, false
	}
	if user, found := s.state.Users.Get(sess.User.ID); found {
		return user, true
	}
	return sess.User, true
}

// Session returns the current session.
func (s *Service) Session() (entity.Session, bool) {
	return s.state.Session()
}

// Authenticate checks token against the current session and records activity.
// A session idle for longer than the idle timeout is ended.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.User, error) {
	sess, ok := s.state.Session()
	if !ok || token == "" || subtle.ConstantTimeCompare([]byte(sess.Token), []byte(token)) != 1 {
		return domain.User{}, ErrNoSession
	}
	if _, err := s.tokens.Parse(token); err != nil {
		s.Logout(ctx)
		return domain.User{}, ErrSessionExpired
	}
	now := s.now()
	if now.Sub(sess.LastActivity) > s.idleTimeout {
		s.log.WithField("username", sess.User.Username).Info("session idle timeout")
		s.Logout(ctx)
		return domain.User{}, ErrSessionExpired
	}
	s.state.TouchSession(now)
	if now.Sub(sess.LastActivity) >= time.Minute {
		s.saveSession(ctx, sess.Token, sess.User.ID, now)
	}

	user, _ := s.CurrentUser()
	if !user.IsActive {
		s.Logout(ctx)
		return domain.User{}, ErrNoSession
	}
	return user, nil
}

func (s *Service) startListener() {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	s.stopListenerLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.stopListen = cancel
	s.listenDone = done
	go func() {
		defer close(done)
		if err := s.sync.Listen(ctx); err != nil {
			s.log.WithError(err).Warn("realtime listener failed")
		}
	}()
}

func (s *Service) stopListener() {
	s.listenMu.Lock()
	defer s.listenMu.Unlock()
	s.stopListenerLocked()
}

func (s *Service) stopListenerLocked() {
	if s.stopListen == nil {
		return
	}
	s.stopListen()
	<-s.listenDone
	s.stopListen = nil
	s.listenDone = nil
}

func (s *Service) actor(ctx context.Context) (domain.User, error) {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor, nil
	}
	if user, ok := s.CurrentUser(); ok {
		return user, nil
	}
	return domain.User{}, ErrNoSession
}
