// Package lookup drives a session's search flow: it fetches violations for a
// plate, asks the user to pick a state when the plate is registered in more
// than one, keeps the resolved set in the session cache, and re-derives the
// displayed view on sort and filter changes without refetching.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/parking-violations-lookup/internal/domain"
	"github.com/couchcryptid/parking-violations-lookup/internal/observability"
	"github.com/couchcryptid/parking-violations-lookup/internal/session"
	"github.com/couchcryptid/parking-violations-lookup/internal/view"
)

var (
	ErrEmptyPlate        = errors.New("license plate is empty")
	ErrUnknownState      = errors.New("state is not one of the offered choices")
	ErrNotDisambiguating = errors.New("no state choice is pending")
	// ErrSuperseded is returned when a newer search for the same session
	// finished first. The returned view is the session's current one.
	ErrSuperseded = errors.New("search superseded by a newer search")
)

// flowKey holds the session's search flow state alongside the result cache.
const flowKey = "searchFlow"

const publishTimeout = 5 * time.Second

// Fetcher returns the violation records for a normalized plate.
type Fetcher interface {
	FetchByPlate(ctx context.Context, plate string) ([]domain.Violation, error)
}

// EventPublisher receives an event for every completed search or state choice.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SearchEvent) error
}

// flow is the per-session state machine persisted in session storage.
type flow struct {
	Phase      domain.Phase       `json:"phase"`
	Generation uint64             `json:"generation"`
	Plate      string             `json:"plate,omitempty"`
	Pending    []domain.Violation `json:"pending,omitempty"`
	Options    view.Options       `json:"options"`
}

// Controller handles intents for all sessions.
type Controller struct {
	fetcher   Fetcher
	storage   session.Storage
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	// mu guards flow state and cache writes. It is never held across a fetch.
	mu sync.Mutex
}

// New creates a Controller. publisher may be nil to disable the event feed.
func New(f Fetcher, storage session.Storage, publisher EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	return &Controller{
		fetcher:   f,
		storage:   storage,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// Current returns the session's view without changing any state.
func (c *Controller) Current(sessionID string) view.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.render(sessionID, c.loadFlow(sessionID))
}

// Dispatch applies an intent to a session and returns the resulting view.
// On error the returned view is still the session's current view.
func (c *Controller) Dispatch(ctx context.Context, sessionID string, in Intent) (view.View, error) {
	switch in := in.(type) {
	case SearchRequested:
		return c.search(ctx, sessionID, in.Plate)
	case StateChosen:
		return c.chooseState(ctx, sessionID, in.State)
	case SortRequested:
		return c.updateOptions(sessionID, func(o *view.Options) {
			o.Sort = domain.ParseSortKey(string(in.Key))
		}), nil
	case FilterChanged:
		return c.updateOptions(sessionID, func(o *view.Options) {
			o.Status = domain.ParseStatusFilter(string(in.Status))
			o.Agency = in.Agency
			if o.Agency == "" {
				o.Agency = domain.FilterAll
			}
		}), nil
	default:
		return c.Current(sessionID), fmt.Errorf("unsupported intent %T", in)
	}
}

func (c *Controller) search(ctx context.Context, sessionID, rawPlate string) (view.View, error) {
	plate := domain.NormalizePlate(rawPlate)
	if plate == "" {
		return c.Current(sessionID), ErrEmptyPlate
	}

	c.mu.Lock()
	f := c.loadFlow(sessionID)
	f.Generation++
	gen := f.Generation
	f.Phase = domain.PhaseLoading
	f.Plate = plate
	f.Pending = nil
	f.Options = view.DefaultOptions()
	c.saveFlow(sessionID, f)
	// The previous result set ends with the new search.
	c.cache(sessionID).Clear()
	c.mu.Unlock()

	c.logger.Debug("search started", "session_id", sessionID, "plate", plate, "generation", gen)
	results, fetchErr := c.fetcher.FetchByPlate(ctx, plate)

	c.mu.Lock()
	f = c.loadFlow(sessionID)
	if f.Generation != gen || f.Phase != domain.PhaseLoading {
		v := c.render(sessionID, f)
		c.mu.Unlock()
		c.metrics.Searches.WithLabelValues("superseded").Inc()
		c.logger.Info("discarding stale search result", "session_id", sessionID, "plate", plate, "generation", gen)
		return v, ErrSuperseded
	}

	cache := c.cache(sessionID)
	qc := domain.QueryContext{Plate: plate}
	var event domain.SearchEvent
	switch states := domain.DistinctStates(results); {
	case fetchErr != nil:
		c.logger.Error("fetch violations failed", "session_id", sessionID, "plate", plate, "error", fetchErr)
		cache.Clear()
		f.Phase = domain.PhaseError
		event = domain.NewSearchEvent(qc, domain.OutcomeError, nil)
	case len(results) == 0:
		cache.Clear()
		f.Phase = domain.PhaseEmpty
		event = domain.NewSearchEvent(qc, domain.OutcomeEmpty, nil)
	case len(states) > 1:
		f.Phase = domain.PhaseDisambiguating
		f.Pending = results
		event = domain.NewSearchEvent(qc, domain.OutcomeDisambiguating, results)
		event.States = states
	default:
		if len(states) == 1 {
			qc.State = states[0]
		}
		if err := cache.Put(results, qc); err != nil {
			c.logger.Error("store results failed", "session_id", sessionID, "error", err)
			cache.Clear()
			f.Phase = domain.PhaseError
			event = domain.NewSearchEvent(qc, domain.OutcomeError, nil)
			break
		}
		f.Phase = domain.PhaseResolved
		event = domain.NewSearchEvent(qc, domain.OutcomeResolved, results)
	}
	c.saveFlow(sessionID, f)
	v := c.render(sessionID, f)
	c.mu.Unlock()

	c.metrics.Searches.WithLabelValues(string(event.Outcome)).Inc()
	c.logger.Info("search completed",
		"session_id", sessionID,
		"plate", plate,
		"outcome", event.Outcome,
		"records", len(results),
	)
	c.publish(ctx, event)
	return v, nil
}

func (c *Controller) chooseState(ctx context.Context, sessionID, state string) (view.View, error) {
	c.mu.Lock()
	f := c.loadFlow(sessionID)
	if f.Phase != domain.PhaseDisambiguating {
		v := c.render(sessionID, f)
		c.mu.Unlock()
		return v, ErrNotDisambiguating
	}
	if !slices.Contains(domain.DistinctStates(f.Pending), state) {
		v := c.render(sessionID, f)
		c.mu.Unlock()
		return v, fmt.Errorf("%w: %q", ErrUnknownState, state)
	}

	selected := domain.SelectState(f.Pending, state)
	qc := domain.QueryContext{Plate: f.Plate, State: state}
	if err := c.cache(sessionID).Put(selected, qc); err != nil {
		v := c.render(sessionID, f)
		c.mu.Unlock()
		return v, err
	}
	f.Phase = domain.PhaseResolved
	f.Pending = nil
	f.Options = view.DefaultOptions()
	c.saveFlow(sessionID, f)
	v := c.render(sessionID, f)
	c.mu.Unlock()

	c.metrics.Searches.WithLabelValues(string(domain.OutcomeResolved)).Inc()
	c.logger.Info("state chosen", "session_id", sessionID, "plate", qc.Plate, "state", state, "records", len(selected))
	c.publish(ctx, domain.NewSearchEvent(qc, domain.OutcomeResolved, selected))
	return v, nil
}

// updateOptions changes sort or filter selections. Outside the resolved phase
// there is nothing to re-derive and the view is returned unchanged.
func (c *Controller) updateOptions(sessionID string, apply func(*view.Options)) view.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	f := c.loadFlow(sessionID)
	if f.Phase == domain.PhaseResolved {
		apply(&f.Options)
		c.saveFlow(sessionID, f)
	}
	return c.render(sessionID, f)
}

// render builds the view for a flow state. Callers hold mu.
func (c *Controller) render(sessionID string, f flow) view.View {
	in := view.Input{
		Phase:   f.Phase,
		Context: domain.QueryContext{Plate: f.Plate},
		Options: f.Options,
	}
	switch f.Phase {
	case domain.PhaseDisambiguating:
		in.States = domain.DistinctStates(f.Pending)
	case domain.PhaseResolved:
		cache := c.cache(sessionID)
		in.All = cache.Get()
		in.Context = cache.Context()
		in.Displayed = domain.SortBy(domain.FilterBy(in.All, f.Options.Status, f.Options.Agency), f.Options.Sort)
	}
	return view.Build(in)
}

func (c *Controller) cache(sessionID string) *session.Cache {
	return session.NewCache(c.storage, sessionID, c.logger, func(result string) {
		c.metrics.SessionCache.WithLabelValues(result).Inc()
	})
}

func (c *Controller) loadFlow(sessionID string) flow {
	idle := flow{Phase: domain.PhaseIdle, Options: view.DefaultOptions()}
	data, ok := c.storage.GetItem(sessionID, flowKey)
	if !ok {
		return idle
	}
	var f flow
	if err := json.Unmarshal(data, &f); err != nil {
		c.logger.Warn("discarding corrupt search state", "session_id", sessionID, "error", err)
		return idle
	}
	return f
}

func (c *Controller) saveFlow(sessionID string, f flow) {
	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Error("encode search state failed", "session_id", sessionID, "error", err)
		return
	}
	c.storage.SetItem(sessionID, flowKey, data)
}

// publish sends an event to the feed. Failures are logged and never change
// the search outcome.
func (c *Controller) publish(ctx context.Context, event domain.SearchEvent) {
	if c.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("publish search event failed", "event_id", event.ID, "error", err)
	}
}
