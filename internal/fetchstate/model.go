package fetchstate

import (
	"context"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kingrea/fetchcards/internal/fetch"
)

var lastID int64

func nextID() int {
	return int(atomic.AddInt64(&lastID, 1))
}

// Status summarizes where a model is in its lifecycle.
type Status int

const (
	StatusIdle    Status = iota // no URL observed
	StatusLoading               // request for the current URL in flight
	StatusLoaded                // last attempt decoded successfully
	StatusFailed                // last attempt failed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is a snapshot of the fetch state.
type Result[T any] struct {
	Data    *T
	Loading bool
	Err     *fetch.Error
}

// ErrorMessage returns the display form of Err, or "" when there is none.
func (r Result[T]) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message()
}

// Ready reports whether data is present and nothing is in flight.
func (r Result[T]) Ready() bool {
	return !r.Loading && r.Data != nil
}

// lifecycle is shared by every copy of a model so Close is observed by
// commands that are already running.
type lifecycle struct {
	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool
}

type resultMsg[T any] struct {
	id   int
	gen  int
	url  string
	data T
	err  error
}

type settings struct {
	client *fetch.Client
	parent context.Context
}

// Option customizes model construction.
type Option func(*settings)

// WithClient sets the client used for requests.
func WithClient(c *fetch.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.client = c
		}
	}
}

// WithContext sets the parent context of every request the model issues.
func WithContext(ctx context.Context) Option {
	return func(s *settings) {
		if ctx != nil {
			s.parent = ctx
		}
	}
}

// Model is the fetch state for a single URL input.
type Model[T any] struct {
	id     int
	gen    int
	url    string
	client *fetch.Client
	life   *lifecycle

	data    *T
	loading bool
	err     *fetch.Error
}

// New returns an idle model. Nothing is requested until Observe is called
// with a non-empty URL.
func New[T any](opts ...Option) Model[T] {
	s := settings{parent: context.Background()}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if s.client == nil {
		s.client = fetch.NewClient()
	}
	ctx, cancel := context.WithCancel(s.parent)
	return Model[T]{
		id:     nextID(),
		client: s.client,
		life:   &lifecycle{ctx: ctx, cancel: cancel},
	}
}

// ID identifies the model; responses carry it back.
func (m Model[T]) ID() int { return m.id }

// URL returns the URL currently observed.
func (m Model[T]) URL() string { return m.url }

// Closed reports whether Close has been called.
func (m Model[T]) Closed() bool {
	return m.life != nil && m.life.closed.Load()
}

// Result returns the current {data, loading, error} snapshot.
func (m Model[T]) Result() Result[T] {
	return Result[T]{Data: m.data, Loading: m.loading, Err: m.err}
}

// Status classifies the current state.
func (m Model[T]) Status() Status {
	switch {
	case m.url == "":
		return StatusIdle
	case m.loading:
		return StatusLoading
	case m.err != nil:
		return StatusFailed
	case m.data != nil:
		return StatusLoaded
	default:
		return StatusIdle
	}
}

// Observe binds the model to url. A URL equal to the current one is a
// no-op. An empty URL moves the model to idle and drops whatever is in
// flight. Any other URL resets loading and error and returns the command
// that issues the request; data from the previous URL stays until the new
// response lands.
func (m Model[T]) Observe(url string) (Model[T], tea.Cmd) {
	url = strings.TrimSpace(url)
	if m.Closed() || url == m.url {
		return m, nil
	}
	m.url = url
	m.gen++
	if url == "" {
		m.loading = false
		m.err = nil
		return m, nil
	}
	return m.start()
}

// Refresh re-issues the request for the current URL.
func (m Model[T]) Refresh() (Model[T], tea.Cmd) {
	if m.Closed() || m.url == "" {
		return m, nil
	}
	m.gen++
	return m.start()
}

// Update applies responses addressed to this model's current generation.
func (m Model[T]) Update(msg tea.Msg) (Model[T], tea.Cmd) {
	res, ok := msg.(resultMsg[T])
	if !ok || res.id != m.id {
		return m, nil
	}
	if m.Closed() || res.gen != m.gen {
		return m, nil
	}
	m.loading = false
	if res.err != nil {
		m.err = fetch.AsError(res.err)
		return m, nil
	}
	data := res.data
	m.data = &data
	m.err = nil
	return m, nil
}

// Close tears the model down. In-flight requests are cancelled and no
// response is applied afterwards.
func (m Model[T]) Close() Model[T] {
	if m.life == nil {
		return m
	}
	m.life.closed.Store(true)
	m.life.cancel()
	return m
}

// ensure makes the zero Model usable.
func (m Model[T]) ensure() Model[T] {
	if m.life != nil {
		return m
	}
	fresh := New[T](WithClient(m.client))
	m.id, m.client, m.life = fresh.id, fresh.client, fresh.life
	return m
}

func (m Model[T]) start() (Model[T], tea.Cmd) {
	m = m.ensure()
	m.loading = true
	m.err = nil
	id, gen, url := m.id, m.gen, m.url
	client, life := m.client, m.life
	return m, func() tea.Msg {
		if life.closed.Load() {
			return nil
		}
		data, err := fetch.Get[T](life.ctx, client, url)
		if life.closed.Load() {
			return nil
		}
		return resultMsg[T]{id: id, gen: gen, url: url, data: data, err: err}
	}
}
