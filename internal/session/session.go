// Package session holds the signed-in user's bearer token and profile and
// tells subscribers when a session starts or ends.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// Keys under which the session is persisted.
const (
	TokenKey = "accessToken"
	UserKey  = "user"
)

var ErrNotAuthenticated = errors.New("not authenticated")

type Event int

const (
	Established Event = iota + 1
	Cleared
)

func (e Event) String() string {
	switch e {
	case Established:
		return "established"
	case Cleared:
		return "cleared"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

type Listener func(ctx context.Context, ev Event)

// Profile is the subset of the Google userinfo document kept with a session.
type Profile struct {
	ID         string `json:"id,omitempty"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	Picture    string `json:"picture,omitempty"`
}

type ProfileFetcher interface {
	FetchProfile(ctx context.Context, token string) (*Profile, error)
}

// KeyValueStore persists string values under fixed keys.
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(values map[string]string) error
	Remove(keys ...string) error
}

type Session struct {
	mu        sync.RWMutex
	token     string
	profile   *Profile
	listeners []Listener

	store    KeyValueStore
	profiles ProfileFetcher
}

// New creates a signed-out session. store and profiles may be nil.
func New(store KeyValueStore, profiles ProfileFetcher) *Session {
	return &Session{
		store:    store,
		profiles: profiles,
	}
}

func (s *Session) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Session) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *Session) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Token implements oauth2.TokenSource with the current bearer token.
func (s *Session) Token() (*oauth2.Token, error) {
	token, ok := s.AccessToken()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// SignIn establishes a session for token. A profile lookup failure is logged
// and the session is established without a profile.
func (s *Session) SignIn(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token is required")
	}

	var profile *Profile
	if s.profiles != nil {
		p, err := s.profiles.FetchProfile(ctx, token)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to fetch user profile")
		} else {
			profile = p
		}
	}

	if err := s.persist(token, profile); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.profile = profile
	s.mu.Unlock()

	log.Info().Str("user", profile.displayName()).Msg("Session established")
	s.emit(ctx, Established)
	return nil
}

// SignOut clears the session and its persisted keys.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.profile = nil
	s.mu.Unlock()

	var err error
	if s.store != nil {
		if err = s.store.Remove(TokenKey, UserKey); err != nil {
			err = fmt.Errorf("failed to clear persisted session: %w", err)
		}
	}

	log.Info().Msg("Session cleared")
	s.emit(ctx, Cleared)
	return err
}

// Restore loads a persisted session. It reports whether a token was found.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}

	token, ok, err := s.store.Get(TokenKey)
	if err != nil {
		return false, fmt.Errorf("failed to read persisted session: %w", err)
	}
	if !ok || token == "" {
		log.Debug().Msg("No persisted session")
		return false, nil
	}

	var profile *Profile
	if raw, ok, err := s.store.Get(UserKey); err == nil && ok && raw != "" {
		var p Profile
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			log.Warn().Err(err).Msg("Ignoring unreadable persisted profile")
		} else {
			profile = &p
		}
	}

	s.mu.Lock()
	s.token = token
	s.profile = profile
	s.mu.Unlock()

	log.Debug().Str("user", profile.displayName()).Msg("Restored persisted session")
	s.emit(ctx, Established)
	return true, nil
}

func (s *Session) persist(token string, profile *Profile) error {
	if s.store == nil {
		return nil
	}

	values := map[string]string{TokenKey: token}
	if profile != nil {
		raw, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("failed to encode profile: %w", err)
		}
		values[UserKey] = string(raw)
	} else if err := s.store.Remove(UserKey); err != nil {
		return fmt.Errorf("failed to clear stale profile: %w", err)
	}

	if err := s.store.Set(values); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *Session) emit(ctx context.Context, ev Event) {
	s.mu.RLock()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, ev)
	}
}

func (p *Profile) displayName() string {
	switch {
	case p == nil:
		return ""
	case p.Name != "":
		return p.Name
	default:
		return p.Email
	}
}
