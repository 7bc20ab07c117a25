package session

import (
	"context"
	"strings"

	"github.com/vburojevic/mscope/internal/domain"
	"go.uber.org/zap"
)

// SaveWorkflow collects a name for the current result and commits it to the
// history store. It is opened by Controller.RequestSave and closed by a
// successful Confirm or by Cancel.
type SaveWorkflow struct {
	ctrl *Controller

	// guarded by ctrl.mu
	name   string
	closed bool
}

// SetName records the candidate name as typed so far.
func (w *SaveWorkflow) SetName(name string) {
	w.ctrl.mu.Lock()
	defer w.ctrl.mu.Unlock()
	w.name = name
}

// Name returns the candidate name.
func (w *SaveWorkflow) Name() string {
	w.ctrl.mu.Lock()
	defer w.ctrl.mu.Unlock()
	return w.name
}

// Open reports whether the workflow still accepts Confirm or Cancel.
func (w *SaveWorkflow) Open() bool {
	w.ctrl.mu.Lock()
	defer w.ctrl.mu.Unlock()
	return !w.closed
}

// Confirm saves the result that is current at this moment under the trimmed
// name. A blank name fails with ErrEmptyName and leaves the workflow open
// for correction. On success the new entry is at the front of the history
// and the workflow is closed.
func (w *SaveWorkflow) Confirm(ctx context.Context, name string) (domain.HistoryEntry, error) {
	c := w.ctrl
	c.mu.Lock()
	if w.closed || c.save != w {
		c.mu.Unlock()
		return domain.HistoryEntry{}, domain.ErrNoSaveInProgress
	}
	w.name = name
	entry, err := c.commitLocked(ctx, name)
	if err != nil {
		c.mu.Unlock()
		return domain.HistoryEntry{}, err
	}
	w.closed = true
	c.save = nil
	v := c.viewLocked()
	c.mu.Unlock()

	c.saved(entry, v)
	return entry, nil
}

// commitLocked builds the entry for the current result and appends it to
// the store. c.mu must be held.
func (c *Controller) commitLocked(ctx context.Context, name string) (domain.HistoryEntry, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.HistoryEntry{}, domain.ErrEmptyName
	}
	if c.current == nil {
		return domain.HistoryEntry{}, domain.ErrNoActiveResult
	}
	entry, err := domain.NewHistoryEntry(c.ids(), trimmed, c.clk.Now(), *c.current)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	if err := c.store.Append(ctx, entry); err != nil {
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}

func (c *Controller) saved(entry domain.HistoryEntry, v View) {
	c.logger.Info("sample saved",
		zap.String("id", entry.ID()),
		zap.String("name", entry.Name()),
		zap.String("scan", entry.Snapshot().ID()))
	c.notify(v)
}

// Cancel discards the candidate name and closes the workflow.
func (w *SaveWorkflow) Cancel() error {
	c := w.ctrl
	c.mu.Lock()
	if w.closed || c.save != w {
		c.mu.Unlock()
		return domain.ErrNoSaveInProgress
	}
	w.closed = true
	w.name = ""
	c.save = nil
	v := c.viewLocked()
	c.mu.Unlock()

	c.notify(v)
	return nil
}

// SaveAs saves the current result under name in one step. It does not use
// or disturb an open save workflow, so a failed SaveAs leaves the workflow
// and every other piece of state as it was.
func (c *Controller) SaveAs(ctx context.Context, name string) (domain.HistoryEntry, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.HistoryEntry{}, domain.ErrDisposed
	}
	if c.current == nil {
		c.mu.Unlock()
		return domain.HistoryEntry{}, domain.ErrNoActiveResult
	}
	entry, err := c.commitLocked(ctx, name)
	if err != nil {
		c.mu.Unlock()
		return domain.HistoryEntry{}, err
	}
	v := c.viewLocked()
	c.mu.Unlock()

	c.saved(entry, v)
	return entry, nil
}
