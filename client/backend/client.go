// Package backend is the device-side client for the Nocturne API: it
// implements the auth protocols the link handler drives, persists the
// current session locally, and fans session changes out to observers.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/client/authlink"
)

// SessionStore persists the session across launches (the platform's
// secure storage on a real device).
type SessionStore interface {
	Load() (authlink.Session, bool, error)
	Save(session authlink.Session) error
	Clear() error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
	log        zerolog.Logger

	mu         sync.Mutex
	current    authlink.Session
	hasSession bool
	nextSubID  int
	subs       map[int]chan authlink.Session
}

func New(baseURL string, store SessionStore, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		store:      store,
		log:        log,
		subs:       map[int]chan authlink.Session{},
	}
}

type userPayload struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
}

type sessionPayload struct {
	AccessToken      string      `json:"access_token"`
	RefreshToken     string      `json:"refresh_token"`
	User             userPayload `json:"user"`
	EmailConfirmedAt *time.Time  `json:"email_confirmed_at"`
	Error            string      `json:"error"`
}

// Restore loads any persisted session. Purely local; no network.
func (c *Client) Restore() (authlink.Session, bool) {
	session, ok, err := c.store.Load()
	if err != nil {
		c.log.Debug().Err(err).Msg("session restore failed")
		return authlink.Session{}, false
	}
	if !ok {
		return authlink.Session{}, false
	}

	c.mu.Lock()
	c.current = session
	c.hasSession = true
	c.mu.Unlock()

	return session, true
}

// Current returns the in-memory session, if any.
func (c *Client) Current() (authlink.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, c.hasSession
}

// AccessToken implements the recorder's token source.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	session, ok := c.Current()
	if !ok {
		return "", errors.New("no session")
	}
	return session.AccessToken, nil
}

// Subscribe registers an observer for session changes. The returned
// release function must be called when the observer goes away; it is
// safe to call more than once.
func (c *Client) Subscribe() (<-chan authlink.Session, func()) {
	ch := make(chan authlink.Session, 1)

	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
	return ch, release
}

func (c *Client) ExchangeCode(ctx context.Context, code string) (authlink.Session, error) {
	var payload sessionPayload
	if err := c.post(ctx, "/api/v1/auth/token", map[string]string{"code": code}, &payload); err != nil {
		return authlink.Session{}, err
	}
	return c.adopt(payload), nil
}

func (c *Client) VerifyOTP(ctx context.Context, params authlink.VerifyParams) (authlink.Session, error) {
	body := map[string]string{
		"type":       params.Type,
		"token_hash": params.TokenHash,
		"token":      params.Token,
		"email":      params.Email,
	}

	var payload sessionPayload
	if err := c.post(ctx, "/api/v1/auth/verify", body, &payload); err != nil {
		return authlink.Session{}, err
	}
	return c.adopt(payload), nil
}

// SetSession adopts a token pair delivered directly in a link,
// validating it against the identity endpoint first.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (authlink.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/auth/me", nil)
	if err != nil {
		return authlink.Session{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return authlink.Session{}, err
	}
	defer resp.Body.Close()

	var body struct {
		User  userPayload `json:"user"`
		Error string      `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return authlink.Session{}, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return authlink.Session{}, responseError(resp.StatusCode, body.Error)
	}

	return c.adopt(sessionPayload{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		User:             body.User,
		EmailConfirmedAt: body.User.EmailConfirmedAt,
	}), nil
}

// SignOut drops the local session and notifies observers with an
// empty one.
func (c *Client) SignOut() {
	if err := c.store.Clear(); err != nil {
		c.log.Debug().Err(err).Msg("clear session failed")
	}

	c.mu.Lock()
	c.current = authlink.Session{}
	c.hasSession = false
	subs := snapshot(c.subs)
	c.mu.Unlock()

	broadcast(subs, authlink.Session{})
}

func (c *Client) post(ctx context.Context, path string, body any, out *sessionPayload) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return responseError(resp.StatusCode, out.Error)
	}
	return nil
}

func (c *Client) adopt(payload sessionPayload) authlink.Session {
	confirmedAt := payload.EmailConfirmedAt
	if confirmedAt == nil {
		confirmedAt = payload.User.EmailConfirmedAt
	}

	session := authlink.Session{
		AccessToken:      payload.AccessToken,
		RefreshToken:     payload.RefreshToken,
		UserID:           payload.User.ID,
		Email:            payload.User.Email,
		EmailConfirmedAt: confirmedAt,
	}

	if err := c.store.Save(session); err != nil {
		c.log.Debug().Err(err).Msg("persist session failed")
	}

	c.mu.Lock()
	c.current = session
	c.hasSession = true
	subs := snapshot(c.subs)
	c.mu.Unlock()

	broadcast(subs, session)
	return session
}

func snapshot(subs map[int]chan authlink.Session) []chan authlink.Session {
	out := make([]chan authlink.Session, 0, len(subs))
	for _, ch := range subs {
		out = append(out, ch)
	}
	return out
}

// broadcast never blocks: a slow observer gets the latest value it can
// keep up with, which is all the gate needs.
func broadcast(subs []chan authlink.Session, session authlink.Session) {
	for _, ch := range subs {
		select {
		case ch <- session:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- session:
			default:
			}
		}
	}
}

func responseError(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return errors.New(message)
}
