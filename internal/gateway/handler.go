package gateway

import (
	"math/rand"
	"sync"
	"time"

	"github.com/lifelink/emergency-coordinator/internal/auth"
	"github.com/lifelink/emergency-coordinator/internal/prediction"
	"github.com/lifelink/emergency-coordinator/internal/store"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the coordinator API
type Handler struct {
	store      store.Store
	predictor  prediction.Predictor
	jwtManager *auth.JWTManager
	tokenTTL   time.Duration
	logger     *zap.Logger
	feed       *AlertFeed

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

// Options configures a Handler
type Options struct {
	Store      store.Store
	Predictor  prediction.Predictor
	JWTManager *auth.JWTManager
	TokenTTL   time.Duration
	Logger     *zap.Logger
	Feed       *AlertFeed
	// Rand seeds placeholder features and ETA draws. Defaults to a time-seeded source.
	Rand *rand.Rand
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewHandler creates a new gateway handler
func NewHandler(opts Options) *Handler {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Feed == nil {
		opts.Feed = NewAlertFeed(opts.Logger)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Handler{
		store:      opts.Store,
		predictor:  opts.Predictor,
		jwtManager: opts.JWTManager,
		tokenTTL:   opts.TokenTTL,
		logger:     opts.Logger,
		feed:       opts.Feed,
		rng:        opts.Rand,
		now:        opts.Now,
	}
}

// intn draws from the shared source; rand.Rand is not safe for concurrent use.
func (h *Handler) intn(n int) int {
	h.rngMu.Lock()
	defer h.rngMu.Unlock()
	return h.rng.Intn(n)
}

// randRange returns an int in [lo, lo+span).
func (h *Handler) randRange(lo, span int) int {
	return lo + h.intn(span)
}

func (h *Handler) withRand(fn func(*rand.Rand) int) int {
	h.rngMu.Lock()
	defer h.rngMu.Unlock()
	return fn(h.rng)
}
