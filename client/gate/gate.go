// Package gate decides whether the app shows the authenticated or the
// unauthenticated experience. It restores the persisted session, feeds
// incoming deep links through the auth link handler, and tracks the
// backend auth state for as long as it runs.
package gate

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/habibfrhn/wellness-mobile-app-sub000/client/authlink"
)

type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseReady        Phase = "ready"
)

// Status is a point-in-time snapshot for the UI layer.
type Status struct {
	Phase         Phase
	Authenticated bool
	Email         string
	LinkStatus    string
}

// LinkHandler processes one incoming deep link URL.
type LinkHandler interface {
	Handle(ctx context.Context, raw string) authlink.Result
}

// AuthState is the slice of the backend client the gate observes.
type AuthState interface {
	Restore() (authlink.Session, bool)
	Subscribe() (<-chan authlink.Session, func())
}

type Gate struct {
	links LinkHandler
	auth  AuthState
	log   zerolog.Logger

	mu     sync.Mutex
	status Status
}

func New(links LinkHandler, auth AuthState, log zerolog.Logger) *Gate {
	return &Gate{
		links:  links,
		auth:   auth,
		log:    log,
		status: Status{Phase: PhaseInitializing},
	}
}

// Status returns the current snapshot.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Run drives the gate until ctx is done. initialLink is the URL the
// process was launched with, if any; links delivers URLs that arrive
// while the app is running. Events from the link channel and the auth
// subscription are applied in arrival order, so whichever arrives last
// determines the visible state.
func (g *Gate) Run(ctx context.Context, initialLink string, links <-chan string) {
	if session, ok := g.auth.Restore(); ok {
		g.applySession(session)
	}

	if initialLink != "" {
		g.applyLink(g.links.Handle(ctx, initialLink))
	}

	sessions, release := g.auth.Subscribe()
	defer release()

	g.setPhase(PhaseReady)

	for {
		select {
		case <-ctx.Done():
			return

		case raw, ok := <-links:
			if !ok {
				links = nil
				continue
			}
			g.applyLink(g.links.Handle(ctx, raw))

		case session := <-sessions:
			g.applySession(session)
		}
	}
}

func (g *Gate) applyLink(result authlink.Result) {
	if !result.Handled {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if result.OK {
		g.status.LinkStatus = fmt.Sprintf("signed in via %s", result.Path)
		g.setSessionLocked(result.Session)
		return
	}

	g.log.Debug().Str("path", result.Path).Str("error", result.Err).Msg("auth link failed")
	g.status.LinkStatus = fmt.Sprintf("sign-in failed: %s", result.Err)
}

func (g *Gate) applySession(session authlink.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setSessionLocked(session)
}

func (g *Gate) setSessionLocked(session authlink.Session) {
	g.status.Email = session.Email
	g.status.Authenticated = session.Email != ""
}

func (g *Gate) setPhase(phase Phase) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status.Phase = phase
}
