package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/iota-uz/tenantguard/pkg/querycache"
)

const (
	DefaultOverrideHeader = "X-Tenant-Id"
	DefaultSettleWindow   = 100 * time.Millisecond
	// TenantDirectoryRoute is where an operator lands after a forced fallback.
	TenantDirectoryRoute = "/superadmin/tenants"
)

var (
	ErrNotPlatform    = errors.New("impersonation requires a platform principal")
	ErrNotReady       = errors.New("impersonation state is not reconciled yet")
	ErrTenantNotFound = errors.New("tenant not found")
)

type Kind string

const (
	KindPlatform Kind = "platform"
	KindTenant   Kind = "tenant"
)

// State is Platform, or Tenant(TenantID, TenantName): the principal's home tenant or an
// impersonated one.
type State struct {
	Kind          Kind
	TenantID      uuid.UUID
	TenantName    string
	Impersonating bool
}

// Stamp is the cache context token for the state.
func (s State) Stamp() string {
	switch {
	case s.Kind == KindPlatform:
		return "platform"
	case s.Impersonating:
		return "impersonating:" + s.TenantID.String()
	default:
		return "tenant:" + s.TenantID.String()
	}
}

type Phase string

const (
	PhaseInit      Phase = "init"
	PhaseVerifying Phase = "verifying"
	PhaseReady     Phase = "ready"
)

// API is the server surface the controller depends on.
type API interface {
	Me(ctx context.Context) (*Me, error)
	TenantExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Notifier surfaces forced transitions to the operator.
type Notifier interface {
	Notice(message string)
	Navigate(route string)
}

type target struct {
	id   uuid.UUID
	name string
}

type ControllerOptions struct {
	OverrideHeader string
	SettleWindow   time.Duration
	Logger         *logrus.Entry
}

// Controller owns the effective tenant context of a client process. All transitions go through
// it; nothing else mutates the durable record or the tenant-scoped cache partition.
type Controller struct {
	api      API
	storage  Storage
	cache    *querycache.Cache
	notifier Notifier
	header   string
	settle   time.Duration
	logger   *logrus.Entry

	flight singleflight.Group
	// transition serializes Reconcile, StartImpersonation and StopImpersonation.
	transition sync.Mutex

	mu            sync.RWMutex
	phase         Phase
	platform      bool
	home          *target
	active        *target
	transitioning bool
	settleGen     uint64
	settleTimer   *time.Timer
}

func NewController(api API, storage Storage, cache *querycache.Cache, notifier Notifier, opts ControllerOptions) *Controller {
	if opts.OverrideHeader == "" {
		opts.OverrideHeader = DefaultOverrideHeader
	}
	if opts.SettleWindow < 0 {
		opts.SettleWindow = DefaultSettleWindow
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		api:      api,
		storage:  storage,
		cache:    cache,
		notifier: notifier,
		header:   opts.OverrideHeader,
		settle:   opts.SettleWindow,
		logger:   opts.Logger,
		phase:    PhaseInit,
	}
}

func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.active != nil:
		return State{Kind: KindTenant, TenantID: c.active.id, TenantName: c.active.name, Impersonating: true}
	case !c.platform && c.home != nil:
		return State{Kind: KindTenant, TenantID: c.home.id, TenantName: c.home.name}
	default:
		return State{Kind: KindPlatform}
	}
}

// Transitioning is true for the settle window after a context switch.
func (c *Controller) Transitioning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transitioning
}

// Headers returns the context headers for an outgoing request. The override is sent only for a
// platform principal with a verified target.
func (c *Controller) Headers() http.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h := http.Header{}
	if c.platform && c.active != nil {
		h.Set(c.header, c.active.id.String())
	}
	return h
}

// Init loads the durable record and reconciles it against the server. A stored target is not
// trusted until the server confirms it.
func (c *Controller) Init(ctx context.Context) error {
	rec, ok, err := c.storage.Load()
	if err != nil {
		c.logger.WithError(err).Warn("impersonation state unreadable, starting clean")
		rec, ok = Record{}, false
	}
	c.mu.Lock()
	c.platform = ok && rec.IsPlatform
	c.mu.Unlock()
	c.cache.SetContext(c.State().Stamp())
	return c.Reconcile(ctx)
}

// Reconcile re-verifies the principal and any stored target. Concurrent calls share one run.
func (c *Controller) Reconcile(ctx context.Context) error {
	_, err, _ := c.flight.Do("reconcile", func() (interface{}, error) {
		return nil, c.reconcile(ctx)
	})
	return err
}

func (c *Controller) reconcile(ctx context.Context) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.setPhase(PhaseVerifying)
	defer c.setPhase(PhaseReady)

	rec, _, err := c.storage.Load()
	if err != nil {
		rec = Record{}
	}
	var pending *target
	if rec.HasTarget() {
		if id, err := uuid.Parse(rec.TargetID); err == nil {
			pending = &target{id: id, name: rec.TargetName}
		}
	}

	me, err := c.api.Me(ctx)
	if err != nil {
		if pending != nil {
			c.fallback(ctx, "principal could not be verified")
		}
		return errors.Wrap(err, "verify principal")
	}

	if !me.IsPlatform {
		// The principal's role is authoritative: stored impersonation state is discarded unverified.
		if rec.HasTarget() || rec.IsPlatform {
			c.logger.WithField("user-id", me.ID).Warn("discarding impersonation state of a non-platform principal")
			if _, err := c.cache.ClearTenantScoped(ctx); err != nil {
				return err
			}
		}
		if err := c.storage.Clear(); err != nil {
			return err
		}
		c.mu.Lock()
		c.platform = false
		c.active = nil
		c.home = nil
		if id, err := uuid.Parse(me.HomeTenantID); err == nil {
			c.home = &target{id: id, name: me.HomeTenantName}
		}
		c.mu.Unlock()
		c.cache.SetContext(c.State().Stamp())
		return nil
	}

	c.mu.Lock()
	c.platform = true
	c.home = nil
	c.mu.Unlock()

	if pending == nil {
		c.mu.Lock()
		c.active = nil
		c.mu.Unlock()
		c.cache.SetContext(c.State().Stamp())
		return c.storage.Save(Record{IsPlatform: true, Verified: true})
	}

	exists, err := c.api.TenantExists(ctx, pending.id)
	if err != nil || !exists {
		c.logger.WithField("tenant", pending.id.String()).WithError(err).Warn("stored impersonation target failed verification")
		c.fallback(ctx, "The tenant you were viewing is no longer available. Returned to the tenant directory.")
		return nil
	}

	c.mu.Lock()
	c.active = pending
	c.mu.Unlock()
	c.cache.SetContext(c.State().Stamp())
	return c.storage.Save(Record{IsPlatform: true, Verified: true, TargetID: pending.id.String(), TargetName: pending.name})
}

// fallback forces Platform state after a failed verification.
func (c *Controller) fallback(ctx context.Context, notice string) {
	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()

	if _, err := c.cache.ClearTenantScoped(ctx); err != nil {
		c.logger.WithError(err).Error("failed to clear tenant-scoped cache during fallback")
	}
	c.cache.SetContext(c.State().Stamp())

	c.mu.RLock()
	platform := c.platform
	c.mu.RUnlock()
	if err := c.storage.Save(Record{IsPlatform: platform}); err != nil {
		c.logger.WithError(err).Error("failed to persist fallback state")
	}
	if c.notifier != nil {
		c.notifier.Notice(notice)
		c.notifier.Navigate(TenantDirectoryRoute)
	}
}

// StartImpersonation switches a platform principal into tenant id. The target must pass the
// server existence check; the tenant-scoped cache is empty before the target becomes active.
func (c *Controller) StartImpersonation(ctx context.Context, id uuid.UUID, name string) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.mu.RLock()
	platform, phase := c.platform, c.phase
	c.mu.RUnlock()
	if phase != PhaseReady {
		return ErrNotReady
	}
	if !platform {
		return ErrNotPlatform
	}

	exists, err := c.api.TenantExists(ctx, id)
	if err != nil {
		return errors.Wrap(err, "verify tenant")
	}
	if !exists {
		return ErrTenantNotFound
	}

	c.beginTransition()
	if _, err := c.cache.ClearTenantScoped(ctx); err != nil {
		c.endTransition()
		return err
	}
	if _, err := c.cache.ClearPlatformScoped(ctx); err != nil {
		c.logger.WithError(err).Warn("failed to clear platform-scoped cache")
	}
	if err := c.storage.Save(Record{IsPlatform: true, Verified: true, TargetID: id.String(), TargetName: name}); err != nil {
		c.endTransition()
		return errors.Wrap(err, "persist impersonation target")
	}

	c.mu.Lock()
	c.active = &target{id: id, name: name}
	c.mu.Unlock()
	c.cache.SetContext(c.State().Stamp())
	c.logger.WithField("tenant", id.String()).Info("impersonation started")
	c.scheduleSettle()
	return nil
}

// StopImpersonation returns to Platform state and drops the tenant directory listing so it is
// refetched.
func (c *Controller) StopImpersonation(ctx context.Context) error {
	c.transition.Lock()
	defer c.transition.Unlock()

	c.mu.RLock()
	active := c.active
	c.mu.RUnlock()
	if active == nil {
		return nil
	}

	c.beginTransition()
	if _, err := c.cache.ClearTenantScoped(ctx); err != nil {
		c.endTransition()
		return err
	}
	if err := c.storage.Save(Record{IsPlatform: true, Verified: true}); err != nil {
		c.endTransition()
		return errors.Wrap(err, "clear impersonation target")
	}

	c.mu.Lock()
	c.active = nil
	c.mu.Unlock()
	c.cache.SetContext(c.State().Stamp())
	if err := c.cache.Invalidate(ctx, tenantDirectoryPath); err != nil {
		c.logger.WithError(err).Warn("failed to invalidate tenant directory")
	}
	c.logger.WithField("tenant", active.id.String()).Info("impersonation stopped")
	c.scheduleSettle()
	return nil
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = p
}

func (c *Controller) beginTransition() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleGen++
	if c.settleTimer != nil {
		c.settleTimer.Stop()
	}
	c.transitioning = true
}

func (c *Controller) endTransition() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transitioning = false
}

func (c *Controller) scheduleSettle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settle == 0 {
		c.transitioning = false
		return
	}
	gen := c.settleGen
	c.settleTimer = time.AfterFunc(c.settle, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.settleGen == gen {
			c.transitioning = false
		}
	})
}
