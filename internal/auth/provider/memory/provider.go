// Package memory implements the identity provider boundary in process
// memory: a bcrypt password table and HS256 credential tokens. Used in
// tests and dev mode.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"smartkyc/internal/domain"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong
// password; callers cannot tell which.
var ErrInvalidCredentials = errors.New("invalid credentials")

type account struct {
	uid          string
	passwordHash []byte
}

type Provider struct {
	signingKey []byte
	tokenTTL   time.Duration

	mu        sync.Mutex
	accounts  map[string]account
	current   *domain.Principal
	listeners map[uint64]func(domain.Principal, bool)
	nextID    uint64

	// Session-change notifications are delivered from a dedicated
	// goroutine, in order, so a listener may call back into whatever
	// triggered the change without deadlocking.
	events chan sessionEvent
	done   chan struct{}
}

type sessionEvent struct {
	principal domain.Principal
	signedIn  bool
}

func New(signingKey string, tokenTTL time.Duration) *Provider {
	p := &Provider{
		signingKey: []byte(signingKey),
		tokenTTL:   tokenTTL,
		accounts:   make(map[string]account),
		listeners:  make(map[uint64]func(domain.Principal, bool)),
		events:     make(chan sessionEvent, 64),
		done:       make(chan struct{}),
	}
	go p.dispatch()
	return p
}

// Register creates an account. Used by the admin bootstrap path.
func (p *Provider) Register(_ context.Context, email, password string) (domain.Principal, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Principal{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return domain.Principal{}, errors.New("account already exists")
	}
	acct := account{uid: uuid.NewString(), passwordHash: hash}
	p.accounts[email] = acct
	return domain.Principal{UID: acct.uid, Email: email}, nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (domain.Principal, error) {
	p.mu.Lock()
	acct, ok := p.accounts[email]
	p.mu.Unlock()
	if !ok {
		return domain.Principal{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return domain.Principal{}, ErrInvalidCredentials
	}

	credential, err := p.mintToken(acct.uid)
	if err != nil {
		return domain.Principal{}, err
	}
	principal := domain.Principal{UID: acct.uid, Email: email, Credential: credential}

	p.mu.Lock()
	p.current = &principal
	p.mu.Unlock()
	p.events <- sessionEvent{principal: principal, signedIn: true}
	return principal, nil
}

func (p *Provider) SignOut(_ context.Context) error {
	p.mu.Lock()
	current := p.current
	p.current = nil
	p.mu.Unlock()

	if current != nil {
		p.events <- sessionEvent{principal: *current, signedIn: false}
	}
	return nil
}

func (p *Provider) OnSessionChange(fn func(principal domain.Principal, signedIn bool)) domain.CancelFunc {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, id)
			p.mu.Unlock()
		})
	}
}

// Close stops the notification dispatcher.
func (p *Provider) Close() {
	close(p.done)
}

func (p *Provider) dispatch() {
	for {
		select {
		case <-p.done:
			return
		case ev := <-p.events:
			p.mu.Lock()
			fns := make([]func(domain.Principal, bool), 0, len(p.listeners))
			for _, fn := range p.listeners {
				fns = append(fns, fn)
			}
			p.mu.Unlock()
			for _, fn := range fns {
				fn(ev.principal, ev.signedIn)
			}
		}
	}
}

func (p *Provider) mintToken(uid string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "smartkyc",
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.signingKey)
}

// VerifyToken parses and validates a credential token, returning the uid.
// The HTTP transport uses it to tie bearer tokens back to the session.
func (p *Provider) VerifyToken(credential string) (string, error) {
	token, err := jwt.ParseWithClaims(credential, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.signingKey, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}
