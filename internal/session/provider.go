package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

var (
	ErrMissingUID   = errors.New("session: user id is required")
	ErrMissingToken = errors.New("session: id token is required")
)

type User struct {
	UID   string
	Email string
}

// TokenVerifier checks a Firebase ID token. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Provider tracks the signed-in user and notifies subscribers of changes.
type Provider struct {
	mu      sync.Mutex
	current *User
	subs    map[int]func(*User)
	nextID  int
	logger  *zap.Logger
}

func NewProvider(logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{subs: make(map[int]func(*User)), logger: logger}
}

// Current returns a copy of the signed-in user, or nil.
func (p *Provider) Current() *User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

// UserID returns the signed-in user's id, or "" when signed out.
func (p *Provider) UserID() string {
	if u := p.Current(); u != nil {
		return u.UID
	}
	return ""
}

// OnAuthChanged calls fn with the current user right away and again after
// every sign-in or sign-out until the returned function is called.
func (p *Provider) OnAuthChanged(fn func(*User)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	fn(p.Current())
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *Provider) SignIn(u User) error {
	if strings.TrimSpace(u.UID) == "" {
		return ErrMissingUID
	}
	p.set(&u)
	p.logger.Info("signed in", zap.String("uid", u.UID))
	return nil
}

func (p *Provider) SignOut() {
	if p.Current() == nil {
		return
	}
	p.set(nil)
	p.logger.Info("signed out")
}

// SignInWithToken verifies idToken and signs in the user it names.
func (p *Provider) SignInWithToken(ctx context.Context, v TokenVerifier, idToken string) (User, error) {
	if strings.TrimSpace(idToken) == "" {
		return User{}, ErrMissingToken
	}
	tok, err := v.VerifyIDToken(ctx, idToken)
	if err != nil {
		return User{}, fmt.Errorf("verify id token: %w", err)
	}
	u := User{UID: tok.UID}
	if email, ok := tok.Claims["email"].(string); ok {
		u.Email = email
	}
	if err := p.SignIn(u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (p *Provider) set(u *User) {
	p.mu.Lock()
	p.current = u
	subs := make([]func(*User), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		var arg *User
		if u != nil {
			c := *u
			arg = &c
		}
		fn(arg)
	}
}
