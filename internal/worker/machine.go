// Package worker implements the per-worker conflict-resolving request state
// machine. Each worker is strictly sequential: it plans one classified
// request per cycle, and the response for cycle k is observed before cycle
// k+1 is planned.
package worker

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/user/gridlock/internal/partition"
	"github.com/user/gridlock/internal/pool"
)

// Update modes
const (
	ModeField  = "field"
	ModeStatus = "status"
)

// Machine states
type State int

const (
	StateUpdate State = iota
	StateRetryGet
	StateRetryPut
	StateFallback
)

func (s State) String() string {
	switch s {
	case StateUpdate:
		return "update"
	case StateRetryGet:
		return "retry_get"
	case StateRetryPut:
		return "retry_put"
	case StateFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Config holds the retry and backoff knobs for one machine.
type Config struct {
	Mode          string
	RetryCount    int
	BackoffBase   int
	BackoffMax    int
	BackoffPolicy string
}

// retrySession is the ephemeral state held while resolving one conflict.
// At most one exists per worker; it is dropped on any terminal resolution.
type retrySession struct {
	target        int
	body          []byte
	pendingStatus string
	attempts      int
}

// Machine drives one worker's request generation. Not safe for concurrent
// use; each worker owns exactly one.
type Machine struct {
	id    int
	cfg   Config
	part  partition.Partition
	store *pool.Store
	rng   *rand.Rand

	state       State
	cursor      int
	seq         int64
	skipCounter int
	skipTarget  int
	retry       *retrySession
	counters    Counters
}

// NewMachine creates a machine for worker id over the given partition.
func NewMachine(id int, cfg Config, part partition.Partition, store *pool.Store, seed int64) *Machine {
	if cfg.Mode == "" {
		cfg.Mode = ModeField
	}
	if cfg.BackoffBase < 1 {
		cfg.BackoffBase = 2
	}
	if cfg.BackoffMax < 0 {
		cfg.BackoffMax = 0
	}
	if cfg.BackoffPolicy == "" {
		cfg.BackoffPolicy = BackoffFullJitter
	}
	return &Machine{
		id:    id,
		cfg:   cfg,
		part:  part,
		store: store,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// State returns the current dispatch state.
func (m *Machine) State() State {
	return m.state
}

// Counters returns a copy of the accounting counters.
func (m *Machine) Counters() Counters {
	return m.counters
}

type fieldUpdate struct {
	Field   string `json:"field"`
	Version int64  `json:"version"`
}

type statusUpdate struct {
	Status  string `json:"status"`
	Version int64  `json:"version"`
}

type resourceState struct {
	ID      string `json:"id"`
	Version *int64 `json:"version"`
	Status  string `json:"status"`
}

func updatePath(id string) string {
	return "/resources/" + id
}

func statusPath(id string) string {
	return "/resources/" + id + "/status"
}

// Plan produces the single outbound request for this cycle and classifies it
// before it is sent. Suppression and an active backoff countdown preempt
// normal state dispatch, in that order.
func (m *Machine) Plan() Request {
	if m.part.Suppressed {
		return m.classify(noopRequest(), CategorySuppressed)
	}
	if m.skipCounter < m.skipTarget {
		m.skipCounter++
		return m.classify(noopRequest(), CategoryBackoff)
	}

	switch m.state {
	case StateRetryGet:
		return m.planRefresh()
	case StateRetryPut:
		return m.planRetryUpdate()
	case StateFallback:
		// Pure reset step: one noop cycle, then back to normal updates.
		m.state = StateUpdate
		return m.classify(noopRequest(), CategoryFallback)
	default:
		return m.planUpdate()
	}
}

func (m *Machine) planUpdate() Request {
	for tries := 0; tries < m.part.Size; tries++ {
		index := m.part.Start + 1 + m.cursor%m.part.Size
		m.cursor++

		r, err := m.store.State(index)
		if err != nil {
			break
		}
		if m.cfg.Mode == ModeStatus && pool.Terminal(r.Status) {
			continue
		}

		req := Request{Kind: KindUpdate, TargetIndex: index}
		if m.cfg.Mode == ModeStatus {
			nexts := pool.NextStatuses(r.Status)
			next := nexts[m.rng.Intn(len(nexts))]
			req.Method = "PATCH"
			req.Path = statusPath(r.ID)
			req.PendingStatus = next
			req.Body, _ = json.Marshal(statusUpdate{Status: next, Version: r.Version})
		} else {
			req.Method = "PUT"
			req.Path = updatePath(r.ID)
			req.Body, _ = json.Marshal(fieldUpdate{Field: m.nextFieldValue(), Version: r.Version})
		}
		return m.classify(req, CategoryExecuted)
	}

	// One full sweep found nothing updatable.
	m.state = StateFallback
	return m.classify(noopRequest(), CategoryFallback)
}

func (m *Machine) planRefresh() Request {
	r, ok := m.retryTarget()
	if !ok {
		return m.classify(noopRequest(), CategoryFallback)
	}
	req := Request{
		Kind:        KindRefresh,
		Method:      "GET",
		Path:        updatePath(r.ID),
		TargetIndex: m.retry.target,
	}
	return m.classify(req, CategoryExecuted)
}

func (m *Machine) planRetryUpdate() Request {
	r, ok := m.retryTarget()
	if !ok {
		return m.classify(noopRequest(), CategoryFallback)
	}
	req := Request{
		Kind:          KindRetryUpdate,
		TargetIndex:   m.retry.target,
		Body:          m.retry.body,
		PendingStatus: m.retry.pendingStatus,
	}
	if m.cfg.Mode == ModeStatus {
		req.Method = "PATCH"
		req.Path = statusPath(r.ID)
	} else {
		req.Method = "PUT"
		req.Path = updatePath(r.ID)
	}
	return m.classify(req, CategoryExecuted)
}

func (m *Machine) retryTarget() (pool.Resource, bool) {
	if m.retry == nil {
		m.state = StateUpdate
		return pool.Resource{}, false
	}
	r, err := m.store.State(m.retry.target)
	if err != nil {
		m.abandonRetry("lost retry target", err)
		return pool.Resource{}, false
	}
	return r, true
}

func (m *Machine) classify(req Request, category string) Request {
	req.Category = category
	switch category {
	case CategoryExecuted:
		m.counters.Executed++
	case CategoryBackoff:
		m.counters.Backoff++
	case CategorySuppressed:
		m.counters.Suppressed++
	case CategoryFallback:
		m.counters.Fallback++
	}
	m.counters.Issued++
	return req
}

// Observe routes the response for a planned request using the kind and
// category recorded at plan time. Noop responses carry no information and
// are ignored.
func (m *Machine) Observe(req Request, res Response) {
	switch req.Kind {
	case KindUpdate:
		m.observeUpdate(req, res)
	case KindRefresh:
		m.observeRefresh(res)
	case KindRetryUpdate:
		m.observeRetryUpdate(req, res)
	}
}

func (m *Machine) observeUpdate(req Request, res Response) {
	switch {
	case res.StatusCode >= 200 && res.StatusCode <= 299:
		m.applyWrite(req.TargetIndex, req.PendingStatus)
	case res.StatusCode == 409:
		if m.cfg.RetryCount == 0 {
			// Retries are opt-in; with none configured a conflict is
			// immediately exhausted.
			m.counters.ExhaustedRetries++
			return
		}
		m.retry = &retrySession{target: req.TargetIndex}
		m.applyBackoff(0)
		m.state = StateRetryGet
	default:
		slog.Warn("update failed", "worker", m.id, "target", req.TargetIndex, "status", res.StatusCode)
	}
}

func (m *Machine) observeRefresh(res Response) {
	if m.retry == nil {
		m.state = StateUpdate
		return
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		m.abandonRetry("refresh failed", fmt.Errorf("status %d", res.StatusCode))
		return
	}

	var st resourceState
	if err := json.Unmarshal(res.Body, &st); err != nil {
		m.abandonRetry("refresh body unparseable", err)
		return
	}
	if st.Version == nil {
		m.abandonRetry("refresh body missing version", nil)
		return
	}

	status := st.Status
	if !pool.ValidStatus(status) {
		if m.cfg.Mode == ModeStatus {
			m.abandonRetry("refresh body missing status", nil)
			return
		}
		cur, err := m.store.State(m.retry.target)
		if err != nil {
			m.abandonRetry("lost retry target", err)
			return
		}
		status = cur.Status
	}

	if err := m.store.SetVersionAndStatus(m.retry.target, *st.Version, status); err != nil {
		m.abandonRetry("resync rejected", err)
		return
	}

	if m.cfg.Mode == ModeStatus {
		nexts := pool.NextStatuses(status)
		if len(nexts) == 0 {
			// The resource reached a terminal state server-side; nothing
			// left to transition.
			m.abandonRetry("retry target became terminal", nil)
			return
		}
		next := nexts[m.rng.Intn(len(nexts))]
		m.retry.pendingStatus = next
		m.retry.body, _ = json.Marshal(statusUpdate{Status: next, Version: *st.Version})
	} else {
		m.retry.pendingStatus = ""
		m.retry.body, _ = json.Marshal(fieldUpdate{Field: m.nextFieldValue(), Version: *st.Version})
	}
	m.state = StateRetryPut
}

func (m *Machine) observeRetryUpdate(req Request, res Response) {
	if m.retry == nil {
		m.state = StateUpdate
		return
	}
	switch {
	case res.StatusCode >= 200 && res.StatusCode <= 299:
		m.applyWrite(req.TargetIndex, req.PendingStatus)
		m.counters.SuccessfulRetries++
		m.retry = nil
		m.state = StateUpdate
	case res.StatusCode == 409:
		m.retry.attempts++
		if m.retry.attempts >= m.cfg.RetryCount {
			slog.Debug("retries exhausted", "worker", m.id, "target", m.retry.target, "attempts", m.retry.attempts)
			m.counters.ExhaustedRetries++
			m.retry = nil
			m.state = StateUpdate
			return
		}
		m.applyBackoff(m.retry.attempts)
		m.state = StateRetryGet
	default:
		m.abandonRetry("retry update failed", fmt.Errorf("status %d", res.StatusCode))
	}
}

// applyWrite records a write the machine has already attributed as
// successful: bump the local version and, for status transitions, the status.
func (m *Machine) applyWrite(target int, pendingStatus string) {
	v, err := m.store.IncrementVersion(target)
	if err != nil {
		return
	}
	if pendingStatus != "" {
		if err := m.store.SetVersionAndStatus(target, v, pendingStatus); err != nil {
			slog.Warn("status apply rejected", "worker", m.id, "target", target, "error", err)
		}
	}
}

func (m *Machine) applyBackoff(attempt int) {
	m.skipTarget = CalculateSkip(m.cfg.BackoffPolicy, attempt, m.cfg.BackoffBase, m.cfg.BackoffMax, m.rng)
	m.skipCounter = 0
}

func (m *Machine) abandonRetry(reason string, err error) {
	slog.Debug("abandoning retry", "worker", m.id, "reason", reason, "error", err)
	m.retry = nil
	m.state = StateUpdate
}

func (m *Machine) nextFieldValue() string {
	m.seq++
	return fmt.Sprintf("w%d-%d", m.id, m.seq)
}
