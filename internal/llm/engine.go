package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrNoBackendAvailable is returned by Ask when neither backend can serve a query.
	ErrNoBackendAvailable = errors.New("no backend available")
	ErrQueryInFlight      = errors.New("a query is already in flight")
	ErrEmptyQuery         = errors.New("empty query")
)

// LocalBackend is a backend that also manages installed models.
type LocalBackend interface {
	Backend
	Models() []string
	Pull(ctx context.Context, model string, progress func(status string)) error
}

// Indicator is a decorative progress display shown while waiting on a backend.
// Stop must be idempotent and return only once the display has stopped.
type Indicator interface {
	Start()
	Stop()
}

// EngineConfig wires the engine's collaborators. Local and Cloud are required.
type EngineConfig struct {
	Local       LocalBackend
	Cloud       Backend
	LocalModel  string
	CloudModel  string
	LocalSystem string
	CloudSystem string
	Mode        Mode
	Logger      *slog.Logger
	// NewIndicator is called once per dispatched query. Optional.
	NewIndicator func() Indicator
}

// Status is a snapshot of both backends and the current mode.
type Status struct {
	Mode           Mode
	LocalAvailable bool
	LocalDetail    string
	LocalModels    []string
	CloudAvailable bool
	CloudDetail    string
}

// Engine routes queries between the local and cloud backends and keeps the transcript.
type Engine struct {
	cfg          EngineConfig
	log          *slog.Logger
	conversation *Conversation

	mu       sync.Mutex
	mode     Mode
	inFlight bool
}

func NewEngine(cfg EngineConfig) *Engine {
	mode := cfg.Mode
	if !mode.Valid() {
		mode = ModeAuto
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		cfg:          cfg,
		log:          log,
		conversation: NewConversation(),
		mode:         mode,
	}
}

// SetMode changes how subsequent queries are routed.
func (e *Engine) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, m)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = m
	e.log.Debug("mode changed", "mode", m)
	return nil
}

func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// ClearHistory empties the transcript.
func (e *Engine) ClearHistory() {
	e.conversation.Clear()
}

// History returns a copy of the transcript.
func (e *Engine) History() []Message {
	return e.conversation.Messages()
}

// ListModels re-probes the local backend and returns its installed models.
func (e *Engine) ListModels(ctx context.Context) []string {
	e.cfg.Local.Status(ctx)
	return e.cfg.Local.Models()
}

// PullModel downloads a model onto the local backend.
func (e *Engine) PullModel(ctx context.Context, model string, progress func(status string)) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return fmt.Errorf("model name is required")
	}
	return e.cfg.Local.Pull(ctx, model, progress)
}

// CheckStatus probes both backends.
func (e *Engine) CheckStatus(ctx context.Context) Status {
	local := e.cfg.Local.Status(ctx)
	cloud := e.cfg.Cloud.Status(ctx)
	st := Status{
		Mode:           e.Mode(),
		LocalAvailable: local.Available,
		LocalDetail:    local.Detail,
		CloudAvailable: cloud.Available,
		CloudDetail:    cloud.Detail,
	}
	if local.Available {
		st.LocalModels = e.cfg.Local.Models()
	}
	return st
}

// Ask routes text to a backend and returns the reply as a fragment stream.
//
// If the routed backend is down and the other one is up, the decision is flipped
// and the stream starts with a notice fragment. If both are down Ask returns
// ErrNoBackendAvailable and the transcript is left untouched. The assistant
// reply is appended only once the returned stream has been read to io.EOF.
// Closing it early, or cancelling ctx, discards the partial reply and frees
// the engine for the next query.
func (e *Engine) Ask(ctx context.Context, text string) (Stream, RoutingDecision, error) {
	if strings.TrimSpace(text) == "" {
		return nil, RoutingDecision{}, ErrEmptyQuery
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return nil, RoutingDecision{}, ErrQueryInFlight
	}
	e.inFlight = true
	mode := e.mode
	e.mu.Unlock()

	decision := Route(text, mode)
	e.log.Debug("routed query", "mode", mode, "backend", decision.Backend(), "reason", decision.Reason, "keyword", decision.Keyword)

	localStatus := e.cfg.Local.Status(ctx)
	cloudStatus := e.cfg.Cloud.Status(ctx)

	var notice *Fragment
	routedUp := localStatus.Available
	otherUp := cloudStatus.Available
	if decision.UseCloud {
		routedUp, otherUp = otherUp, routedUp
	}
	if !routedUp {
		if !otherUp {
			e.release()
			e.log.Warn("no backend available", "local", localStatus.Detail, "cloud", cloudStatus.Detail)
			return nil, decision, fmt.Errorf("%w (local: %s; cloud: %s)", ErrNoBackendAvailable, localStatus.Detail, cloudStatus.Detail)
		}
		from := decision.Backend()
		decision = RoutingDecision{UseCloud: !decision.UseCloud, Reason: ReasonFallbackAvailability}
		n := NoticeFragment("%s backend unavailable, falling back to %s", from, decision.Backend())
		notice = &n
		e.log.Info("falling back", "from", from, "to", decision.Backend())
	}

	if err := e.conversation.Append(UserText(text)); err != nil {
		e.release()
		return nil, decision, err
	}

	backend, req := e.dispatch(decision)
	var indicator Indicator
	if e.cfg.NewIndicator != nil {
		indicator = e.cfg.NewIndicator()
	}
	if indicator != nil {
		indicator.Start()
	}

	s := &engineStream{
		engine:    e,
		inner:     backend.Stream(ctx, req),
		pending:   notice,
		indicator: indicator,
	}
	stop := context.AfterFunc(ctx, func() { s.finish(false) })
	s.mu.Lock()
	s.stopAfter = stop
	s.mu.Unlock()
	return s, decision, nil
}

func (e *Engine) dispatch(decision RoutingDecision) (Backend, Request) {
	req := Request{Messages: e.conversation.Messages()}
	if decision.UseCloud {
		req.Model = e.cfg.CloudModel
		req.System = e.cfg.CloudSystem
		return e.cfg.Cloud, req
	}
	req.Model = e.cfg.LocalModel
	req.System = e.cfg.LocalSystem
	return e.cfg.Local, req
}

func (e *Engine) release() {
	e.mu.Lock()
	e.inFlight = false
	e.mu.Unlock()
}

// engineStream forwards backend fragments and records the reply on exhaustion.
type engineStream struct {
	engine    *Engine
	inner     Stream
	pending   *Fragment
	indicator Indicator
	reply     strings.Builder
	once      sync.Once

	mu        sync.Mutex
	stopAfter func() bool
}

func (s *engineStream) Recv() (Fragment, error) {
	if s.pending != nil {
		f := *s.pending
		s.pending = nil
		s.stopIndicator()
		s.reply.WriteString(f.String())
		return f, nil
	}

	f, err := s.inner.Recv()
	if err == io.EOF {
		s.finish(true)
		return Fragment{}, io.EOF
	}
	if err != nil {
		s.finish(false)
		return Fragment{}, err
	}
	s.stopIndicator()
	s.reply.WriteString(f.String())
	return f, nil
}

// Close abandons the query if it has not been read to completion.
func (s *engineStream) Close() error {
	s.finish(false)
	return nil
}

func (s *engineStream) stopIndicator() {
	if s.indicator != nil {
		s.indicator.Stop()
	}
}

func (s *engineStream) finish(complete bool) {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stopAfter
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
		s.stopIndicator()
		s.inner.Close()
		if complete {
			if err := s.engine.conversation.Append(AssistantText(s.reply.String())); err != nil {
				s.engine.log.Error("failed to record reply", "error", err)
			}
		} else {
			s.engine.log.Debug("query abandoned before completion")
		}
		s.engine.release()
	})
}
