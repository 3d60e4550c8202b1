package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Graph identifies a navigation graph: the set of screens reachable from
// the current root.
type Graph int

const (
	GraphLoading Graph = iota
	GraphAuth
	GraphVerify
	GraphMain
)

func (g Graph) String() string {
	switch g {
	case GraphLoading:
		return "loading"
	case GraphAuth:
		return "auth"
	case GraphVerify:
		return "verify"
	case GraphMain:
		return "main"
	default:
		return "unknown"
	}
}

// Screen names, one per mounted route.
const (
	ScreenLogin         = "Login"
	ScreenSignUp        = "SignUp"
	ScreenVerification  = "Verification"
	ScreenProductList   = "ProductList"
	ScreenProductDetail = "ProductDetail"
	ScreenProfileEdit   = "ProfileEdit"
	ScreenAddProduct    = "AddProduct"
	ScreenEditProduct   = "EditProduct"
)

// ActiveGraph derives the navigation graph from a session snapshot. It is a
// pure, level-triggered derivation: recomputed from current fields with no
// transition history.
func ActiveGraph(s Snapshot) Graph {
	switch {
	case s.AuthLoading:
		return GraphLoading
	case !s.LoggedIn:
		return GraphAuth
	case !s.Verified:
		return GraphVerify
	default:
		return GraphMain
	}
}

// Screens returns the screens mounted for a graph.
func Screens(g Graph) []string {
	switch g {
	case GraphAuth:
		return []string{ScreenLogin, ScreenSignUp}
	case GraphVerify:
		return []string{ScreenVerification}
	case GraphMain:
		return []string{
			ScreenProductList,
			ScreenProductDetail,
			ScreenProfileEdit,
			ScreenAddProduct,
			ScreenEditProduct,
		}
	default:
		return nil
	}
}

// InitialScreen returns the screen a graph opens on.
func InitialScreen(g Graph) string {
	switch g {
	case GraphAuth:
		return ScreenLogin
	case GraphVerify:
		return ScreenVerification
	case GraphMain:
		return ScreenProductList
	default:
		return ""
	}
}

// Gate re-evaluates the active navigation graph on every session change and
// reports graph switches. Switching is destructive: the previous graph's
// screens and their local state are discarded, which the onSwitch callback
// is expected to handle.
type Gate struct {
	mu       sync.Mutex
	current  Graph
	onSwitch func(prev, next Graph)
}

// NewGate creates a gate starting in the loading graph. onSwitch may be nil.
func NewGate(onSwitch func(prev, next Graph)) *Gate {
	return &Gate{current: GraphLoading, onSwitch: onSwitch}
}

// Current returns the graph the gate last settled on.
func (g *Gate) Current() Graph {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Apply recomputes the graph for a snapshot and fires onSwitch if it
// changed. It returns the active graph.
func (g *Gate) Apply(s Snapshot) Graph {
	next := ActiveGraph(s)

	g.mu.Lock()
	prev := g.current
	g.current = next
	onSwitch := g.onSwitch
	g.mu.Unlock()

	if next != prev && onSwitch != nil {
		log.Debug().Stringer("from", prev).Stringer("to", next).Msg("switching navigation graph")
		onSwitch(prev, next)
	}
	return next
}

// Run applies every snapshot from updates until ctx is cancelled. It is
// typically fed from Session.Subscribe.
func (g *Gate) Run(ctx context.Context, updates <-chan Snapshot) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			g.Apply(snap)
		}
	}
}
