package waitress

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	contractx "github.com/parlaplate/parlaplate/agent/contract"
	menux "github.com/parlaplate/parlaplate/agent/menu"
	nodex "github.com/parlaplate/parlaplate/agent/nodes/waitress"
	orderx "github.com/parlaplate/parlaplate/agent/order"
	personax "github.com/parlaplate/parlaplate/agent/persona"
	searchx "github.com/parlaplate/parlaplate/agent/search"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

type Config struct {
	TurnTimeout time.Duration
}

const defaultTurnTimeout = 60 * time.Second

// Waitress is the per-restaurant dialogue service. Turns within one session
// are serialized; independent sessions run concurrently.
type Waitress struct {
	store   statex.Store
	models  contractx.Registry
	engine  *searchx.Engine
	library *menux.Library

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	turnTimeout time.Duration
	sessionLock sync.Map // session id -> *sync.Mutex

	now func() time.Time
}

func New(
	store statex.Store,
	models contractx.Registry,
	engine *searchx.Engine,
	library *menux.Library,
	cfg Config,
) (*Waitress, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if library == nil {
		return nil, errors.New("menu library is required")
	}

	timeout := cfg.TurnTimeout
	if timeout <= 0 {
		timeout = defaultTurnTimeout
	}

	w := &Waitress{
		store:       store,
		models:      models,
		engine:      engine,
		library:     library,
		turnTimeout: timeout,
		now:         time.Now,
	}

	graphRunner, err := w.compileHandleTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	w.graphRunner = graphRunner

	return w, nil
}

// StartSession binds a persona and a restaurant to a fresh session and warms
// the restaurant's embeddings so the first menu turn does not pay for the
// whole menu.
func (w *Waitress) StartSession(ctx context.Context, personaID, restaurantID string) (*statex.SessionState, error) {
	p, err := personax.Get(strings.TrimSpace(personaID))
	if err != nil {
		return nil, err
	}
	restaurant, err := w.library.Get(strings.TrimSpace(restaurantID))
	if err != nil {
		return nil, err
	}

	st := statex.NewSessionState(uuid.NewString(), p.ID, restaurant.ID, w.now())
	if err := w.store.Save(ctx, st); err != nil {
		return nil, err
	}

	w.engine.EnsureEmbeddings(ctx, restaurant)
	return st, nil
}

// HandleTurn runs one user message through the turn graph.
func (w *Waitress) HandleTurn(ctx context.Context, sessionID, text string) (nodex.GraphOutput, error) {
	mu := w.lockFor(sessionID)
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, w.turnTimeout)
	defer cancel()

	return w.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
}

// SessionView returns a read-only copy of the session.
func (w *Waitress) SessionView(ctx context.Context, sessionID string) (*statex.SessionState, error) {
	return w.store.Load(ctx, sessionID)
}

// OrderExport serializes the session's pending order for the kitchen.
func (w *Waitress) OrderExport(ctx context.Context, sessionID string) (*orderx.Order, error) {
	st, err := w.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	restaurant, err := w.library.Get(st.RestaurantID)
	if err != nil {
		return nil, err
	}

	priceOf := func(itemID string) (float64, bool) {
		it, ok := restaurant.ItemByID(itemID)
		if !ok {
			return 0, false
		}
		return it.Price, true
	}
	return orderx.FromSession(st, restaurant.Name, priceOf, w.now())
}

func (w *Waitress) lockFor(sessionID string) *sync.Mutex {
	v, _ := w.sessionLock.LoadOrStore(sessionID, &sync.Mutex{})
	return v.(*sync.Mutex)
}
