package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oicomi/oicomi/internal/shared/kv"
)

const sessionKey = "oicomi:session"

// ErrInvalidCredentials is returned when sign-in is attempted with an empty
// email or password.
var ErrInvalidCredentials = errors.New("invalid credentials")

type sessionRecord struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	SignedIn time.Time `json:"signedIn"`
}

// LocalProvider is a stand-in identity provider. It derives a stable id from
// the email address and persists the session in the local key-value store so
// sign-in survives restarts. It performs no real credential verification.
type LocalProvider struct {
	store  kv.Store
	logger *slog.Logger

	mu          sync.Mutex
	subscribers []func(Identity)
}

// NewLocalProvider creates a provider backed by the given key-value store.
func NewLocalProvider(store kv.Store, logger *slog.Logger) *LocalProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalProvider{store: store, logger: logger}
}

// SignIn records a session for the given email. The id is deterministic per
// email so a returning user binds to the same remote data.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return Identity{}, ErrInvalidCredentials
	}

	id := Identity{
		ID:         uuid.NewSHA1(uuid.NameSpaceURL, []byte("oicomi:"+email)).String(),
		Email:      email,
		IsLoggedIn: true,
	}

	record := sessionRecord{ID: id.ID, Email: id.Email, SignedIn: time.Now().UTC()}
	payload, err := json.Marshal(record)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to encode session: %w", err)
	}
	if err := p.store.Set(ctx, sessionKey, string(payload)); err != nil {
		return Identity{}, fmt.Errorf("failed to persist session: %w", err)
	}

	p.logger.Info("signed in", "email", id.Email)
	p.notify(id)
	return id, nil
}

// SignOut removes the persisted session and notifies subscribers with the
// guest identity.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.store.Remove(ctx, sessionKey); err != nil && !errors.Is(err, kv.ErrKeyNotFound) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	p.logger.Info("signed out")
	p.notify(Guest())
	return nil
}

// Current loads the persisted session, falling back to guest when none
// exists or the record cannot be decoded.
func (p *LocalProvider) Current(ctx context.Context) Identity {
	raw, err := p.store.Get(ctx, sessionKey)
	if err != nil {
		if !errors.Is(err, kv.ErrKeyNotFound) {
			p.logger.Warn("failed to load session, assuming guest", "error", err)
		}
		return Guest()
	}

	var record sessionRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil || record.ID == "" {
		p.logger.Warn("discarding malformed session record")
		return Guest()
	}
	return Identity{ID: record.ID, Email: record.Email, IsLoggedIn: true}
}

// OnChange registers fn for identity-change notifications.
func (p *LocalProvider) OnChange(fn func(Identity)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, fn)
}

func (p *LocalProvider) notify(id Identity) {
	p.mu.Lock()
	subs := make([]func(Identity), len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(id)
	}
}
