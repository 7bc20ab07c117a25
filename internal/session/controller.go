// Package session owns the dashboard state machine: the single current
// result, the application phase and active page, the save workflow and the
// replay of saved results.
package session

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/vburojevic/mscope/internal/domain"
	"github.com/vburojevic/mscope/internal/history"
	"github.com/vburojevic/mscope/internal/ident"
	"github.com/vburojevic/mscope/internal/scan"
	"go.uber.org/zap"
)

// View is a read-only snapshot of the controller state for presentation.
type View struct {
	Phase        domain.Phase
	Page         domain.Page
	Subview      domain.Subview
	Current      *domain.AnalysisResult // nil when no result is current
	Stats        *domain.Statistics     // nil when Current is nil
	Saving       bool
	Scanning     bool
	HistoryCount int
}

// Controller mediates every state transition of a dashboard session. All
// operations are synchronous and safe to call from multiple goroutines.
type Controller struct {
	source scan.Source
	store  history.Store
	clk    clock.Clock
	ids    ident.Generator
	logger *zap.Logger

	mu         sync.Mutex
	phase      domain.Phase
	page       domain.Page
	introAcked bool
	current    *domain.AnalysisResult
	scanning   bool
	save       *SaveWorkflow
	splash     *Splash
	closed     bool
	listeners  []func(View)
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the clock used for save timestamps and the loading timer.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clk = clk
		}
	}
}

// WithIDGenerator sets the generator for history entry IDs.
func WithIDGenerator(gen ident.Generator) Option {
	return func(c *Controller) {
		if gen != nil {
			c.ids = gen
		}
	}
}

// New creates a controller in the Loading phase on the Home page with no
// current result.
func New(source scan.Source, store history.Store, opts ...Option) *Controller {
	c := &Controller{
		source: source,
		store:  store,
		clk:    clock.New(),
		ids:    ident.History(),
		logger: zap.NewNop(),
		phase:  domain.PhaseLoading,
		page:   domain.PageHome,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to receive a View after every state change. fn runs
// outside the controller lock and may call back into the controller.
func (c *Controller) Subscribe(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// FinishLoading moves Loading to Ready. Calling it again is a no-op.
func (c *Controller) FinishLoading() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrDisposed
	}
	if c.phase == domain.PhaseReady {
		c.mu.Unlock()
		return nil
	}
	c.phase = domain.PhaseReady
	v := c.viewLocked()
	c.mu.Unlock()

	c.logger.Debug("loading finished")
	c.notify(v)
	return nil
}

// AcknowledgeIntro dismisses the welcome screen.
func (c *Controller) AcknowledgeIntro() error {
	return c.mutate(func() error {
		c.introAcked = true
		return nil
	})
}

// RequestScan acquires a new result from the source and makes it current,
// replacing any unsaved previous result. Only one acquisition may be in
// flight; a concurrent call fails with ErrScanInProgress. On failure the
// state is left unchanged.
func (c *Controller) RequestScan(ctx context.Context) (domain.AnalysisResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.AnalysisResult{}, domain.ErrDisposed
	}
	if c.scanning {
		c.mu.Unlock()
		return domain.AnalysisResult{}, domain.ErrScanInProgress
	}
	c.scanning = true
	c.mu.Unlock()

	result, err := c.source.Produce(ctx)
	if err == nil && result.IsZero() {
		err = fmt.Errorf("%w: source returned an empty result", domain.ErrInvalidResult)
	}
	err = scan.Normalize(err)

	c.mu.Lock()
	c.scanning = false
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("scan failed", zap.Error(err))
		return domain.AnalysisResult{}, err
	}
	if c.closed {
		c.mu.Unlock()
		return domain.AnalysisResult{}, domain.ErrDisposed
	}
	if c.current != nil {
		c.logger.Debug("replacing current result", zap.String("previous", c.current.ID()))
	}
	stored := result.Clone()
	c.current = &stored
	c.introAcked = true
	v := c.viewLocked()
	c.mu.Unlock()

	c.logger.Info("scan completed",
		zap.String("id", result.ID()),
		zap.Int("total_organisms", result.TotalOrganisms()),
		zap.Int("alerts", len(result.HighRiskAlerts())))
	c.notify(v)
	return result, nil
}

// Navigate switches the active page. The current result is unaffected.
func (c *Controller) Navigate(page domain.Page) error {
	if !page.Valid() {
		return fmt.Errorf("%w: %d", domain.ErrUnknownPage, int(page))
	}
	return c.mutate(func() error {
		c.page = page
		return nil
	})
}

// RequestSave opens the save workflow for the current result. With no
// current result it fails with ErrNoActiveResult and opens nothing. If a
// workflow is already open it is returned as is.
func (c *Controller) RequestSave() (*SaveWorkflow, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, domain.ErrDisposed
	}
	if c.current == nil {
		c.mu.Unlock()
		return nil, domain.ErrNoActiveResult
	}
	if c.save != nil {
		w := c.save
		c.mu.Unlock()
		return w, nil
	}
	w := &SaveWorkflow{ctrl: c}
	c.save = w
	v := c.viewLocked()
	c.mu.Unlock()

	c.notify(v)
	return w, nil
}

// SaveWorkflow returns the open save workflow, if any.
func (c *Controller) SaveWorkflow() (*SaveWorkflow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save, c.save != nil
}

// SelectHistory replays a saved entry: its snapshot becomes current and the
// Home dashboard is shown. Selecting a missing ID fails with ErrNotFound and
// changes nothing.
func (c *Controller) SelectHistory(id string) (domain.AnalysisResult, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.AnalysisResult{}, domain.ErrDisposed
	}
	entry, err := c.store.Find(id)
	if err != nil {
		c.mu.Unlock()
		return domain.AnalysisResult{}, err
	}
	snapshot := entry.Snapshot()
	c.current = &snapshot
	c.page = domain.PageHome
	c.introAcked = true
	v := c.viewLocked()
	c.mu.Unlock()

	c.logger.Info("history entry replayed", zap.String("id", id), zap.String("name", entry.Name()))
	c.notify(v)
	return snapshot.Clone(), nil
}

// Current returns a copy of the current result.
func (c *Controller) Current() (domain.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.AnalysisResult{}, false
	}
	return c.current.Clone(), true
}

// View returns a snapshot of the whole state.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// History yields the saved entries, most recent first.
func (c *Controller) History() iter.Seq[domain.HistoryEntry] {
	return c.store.List()
}

// FindHistory looks up a saved entry without replaying it.
func (c *Controller) FindHistory(id string) (domain.HistoryEntry, error) {
	return c.store.Find(id)
}

// Close disposes the controller: the pending loading timer is cancelled,
// any open save workflow is discarded and every later operation fails with
// ErrDisposed. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	splash := c.splash
	c.splash = nil
	if c.save != nil {
		c.save.closed = true
		c.save = nil
	}
	c.listeners = nil
	c.mu.Unlock()

	if splash != nil {
		splash.Cancel()
	}
	c.logger.Debug("session closed")
}

// Closed reports whether Close has been called.
func (c *Controller) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) mutate(fn func() error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrDisposed
	}
	if err := fn(); err != nil {
		c.mu.Unlock()
		return err
	}
	v := c.viewLocked()
	c.mu.Unlock()

	c.notify(v)
	return nil
}

func (c *Controller) viewLocked() View {
	v := View{
		Phase:        c.phase,
		Page:         c.page,
		Subview:      domain.DeriveSubview(c.introAcked, c.current != nil),
		Saving:       c.save != nil,
		Scanning:     c.scanning,
		HistoryCount: c.store.Len(),
	}
	if c.current != nil {
		cur := c.current.Clone()
		stats := domain.ComputeStatistics(cur)
		v.Current = &cur
		v.Stats = &stats
	}
	return v
}

func (c *Controller) notify(v View) {
	c.mu.Lock()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn(v)
	}
}

// IsRecoverable reports whether err belongs to the session error taxonomy,
// meaning the session can continue and the caller should show a notice.
func IsRecoverable(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidResult,
		domain.ErrAcquisition,
		domain.ErrNoActiveResult,
		domain.ErrEmptyName,
		domain.ErrNotFound,
		domain.ErrScanInProgress,
		domain.ErrUnknownPage,
		domain.ErrNoSaveInProgress,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
