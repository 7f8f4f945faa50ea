// ABOUTME: Session gate routing between sign-in and dashboard on identity changes
// ABOUTME: Owns one identity subscription and ignores callbacks after Close
package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/harperreed/rentdesk/identity"
	"github.com/harperreed/rentdesk/models"
)

type Route int

const (
	RouteNone Route = iota
	RouteSignIn
	RouteDashboard
)

func (r Route) String() string {
	switch r {
	case RouteSignIn:
		return "signin"
	case RouteDashboard:
		return "dashboard"
	default:
		return "none"
	}
}

// State is what the gate reports to its owner after every identity change.
type State struct {
	Route   Route
	User    *identity.User
	Profile *models.BusinessProfile
	// Err is a profile load failure; the route stays on the dashboard.
	Err error
}

type Gate struct {
	identity identity.Service
	profiles *ProfileLoader
	onChange func(State)
	logger   *log.Logger

	mu          sync.Mutex
	started     bool
	closed      bool
	generation  int
	state       State
	unsubscribe func()
}

// NewGate builds a gate that reports to onChange. onChange may be nil.
func NewGate(svc identity.Service, profiles *ProfileLoader, onChange func(State), logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Default()
	}
	if onChange == nil {
		onChange = func(State) {}
	}
	return &Gate{identity: svc, profiles: profiles, onChange: onChange, logger: logger}
}

// Start subscribes to identity changes. Later calls do nothing.
func (g *Gate) Start(ctx context.Context) {
	g.mu.Lock()
	if g.started || g.closed {
		g.mu.Unlock()
		return
	}
	g.started = true
	g.mu.Unlock()

	unsubscribe := g.identity.OnAuthStateChange(func(u *identity.User) {
		g.handle(ctx, u)
	})

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		unsubscribe()
		return
	}
	g.unsubscribe = unsubscribe
	g.mu.Unlock()
}

// Close tears down the subscription. Callbacks already in flight are dropped.
func (g *Gate) Close() {
	g.mu.Lock()
	g.closed = true
	unsubscribe := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// State returns the last reported state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) handle(ctx context.Context, u *identity.User) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.generation++
	gen := g.generation
	g.mu.Unlock()

	if u == nil {
		g.apply(gen, State{Route: RouteSignIn})
		return
	}

	g.apply(gen, State{Route: RouteDashboard, User: u})

	profile, err := g.profiles.Load(ctx, u.ID)
	if err != nil {
		g.logger.Error("failed to load business profile", "user", u.ID, "err", err)
	}
	g.apply(gen, State{Route: RouteDashboard, User: u, Profile: profile, Err: err})
}

// apply publishes s unless the gate closed or a newer change arrived.
func (g *Gate) apply(gen int, s State) {
	g.mu.Lock()
	if g.closed || gen != g.generation {
		g.mu.Unlock()
		return
	}
	g.state = s
	g.mu.Unlock()

	g.onChange(s)
}
