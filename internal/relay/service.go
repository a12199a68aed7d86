package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codeofhonor/glassbridge/internal/domain"
)

// previewLimit caps the transcript excerpt shown while processing.
const previewLimit = 50

// welcomeMessage is displayed when a device session activates.
const welcomeMessage = "Glassbridge connected\n\nReady for voice commands"

// Displayer pushes text to a named device session. Implementations are
// expected to honor the context deadline; a hung downstream call must
// never block the relay.
type Displayer interface {
	Display(ctx context.Context, sessionID, text string, durationMS int) error
}

// Service owns the event queue and session registry, translating
// inbound events into state changes and outbound display requests into
// device calls. All device calls happen after the in-memory mutation
// and outside any lock.
type Service struct {
	queue          *Queue
	registry       *Registry
	broker         *Broker
	displayer      Displayer
	pollLimitMax   int
	displayTimeout time.Duration
	now            func() time.Time
}

// NewService wires the relay around its owned state. broker may be nil
// when no live stream is needed.
func NewService(queue *Queue, registry *Registry, broker *Broker, displayer Displayer, pollLimitMax int, displayTimeout time.Duration) *Service {
	if pollLimitMax < 1 {
		pollLimitMax = 100
	}
	if displayTimeout <= 0 {
		displayTimeout = 5 * time.Second
	}
	return &Service{
		queue:          queue,
		registry:       registry,
		broker:         broker,
		displayer:      displayer,
		pollLimitMax:   pollLimitMax,
		displayTimeout: displayTimeout,
		now:            time.Now,
	}
}

// Ingest classifies one inbound event, applies the session state
// machine, and appends the record to the queue. Every event is queued,
// including unknown kinds; the queue is an unfiltered audit log.
func (s *Service) Ingest(ctx context.Context, kindStr, sessionID string, raw map[string]any) *domain.Event {
	kind := domain.ParseKind(kindStr)
	payload := domain.DecodePayload(kind, raw)

	ev := &domain.Event{
		ID:        uuid.New(),
		Kind:      kind,
		SessionID: sessionID,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}

	switch kind {
	case domain.KindAppActivated:
		p := payload.(domain.ActivationPayload)
		s.registry.Activate(sessionID, p.UserID)
		log.Info().Str("session_id", sessionID).Str("user_id", p.UserID).Msg("session activated")
		s.displayAsync(sessionID, welcomeMessage, 3000)

	case domain.KindAppDeactivated:
		removed := s.registry.Deactivate(sessionID)
		log.Info().Str("session_id", sessionID).Bool("was_active", removed).Msg("session deactivated")
		// Append before returning so the record still lands in the
		// queue; the session history is already gone.
		s.append(ev)
		return ev

	case domain.KindVoiceInput:
		p := payload.(domain.VoiceInputPayload)
		s.handleVoiceInput(sessionID, p)

	case domain.KindGesture, domain.KindConnectionStatus, domain.KindSessionRequest:
		s.registry.Heartbeat(sessionID)
		log.Debug().Str("session_id", sessionID).Str("kind", string(kind)).Msg("event stored")

	default:
		log.Warn().Str("kind", kindStr).Str("session_id", sessionID).Msg("unknown event kind stored")
	}

	s.append(ev)
	return ev
}

// handleVoiceInput accumulates transcript chunks. A final chunk cycles
// the session listening -> processing -> listening, pushing a truncated
// preview to the device and clearing the buffer. The processing state
// collapses back synchronously; there is no async completion signal.
func (s *Service) handleVoiceInput(sessionID string, p domain.VoiceInputPayload) {
	if !s.registry.AppendTranscript(sessionID, p.Transcript) {
		return
	}
	if !p.IsFinal {
		return
	}

	s.registry.SetState(sessionID, domain.StateProcessing)
	full, _ := s.registry.ResetTranscript(sessionID)
	full = strings.TrimSpace(full)
	log.Info().Str("session_id", sessionID).Str("transcript", full).Msg("voice input finalized")

	s.displayAsync(sessionID, "Processing:\n\""+truncate(full, previewLimit)+"...\"", 2000)
	s.registry.SetState(sessionID, domain.StateListening)
}

// PollResult is one page of the event queue.
type PollResult struct {
	Events      []*domain.Event
	Total       uint64 // records ever appended
	LastIndex   uint64 // cursor to resume from
	OldestIndex uint64 // logical index of the oldest retained record
}

// Poll returns queued events from logical index since onward. limit is
// clamped to the configured maximum.
func (s *Service) Poll(since uint64, limit int) PollResult {
	if limit < 1 || limit > s.pollLimitMax {
		limit = s.pollLimitMax
	}

	events, next, total := s.queue.Slice(since, limit)
	return PollResult{
		Events:      events,
		Total:       total,
		LastIndex:   next,
		OldestIndex: s.queue.OldestIndex(),
	}
}

// RequestDisplay shows text on the targeted session, or on every
// active session when target is empty. The registry mutation is applied
// before the device call; broadcast device failures are logged and do
// not abort the remaining sessions, while a targeted device failure is
// surfaced to the caller. The audit record is appended only when at
// least one session was displayed on.
func (s *Service) RequestDisplay(ctx context.Context, text, target string, durationMS int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("relay.Service.RequestDisplay: empty text: %w", domain.ErrInvalidInput)
	}
	if durationMS <= 0 {
		durationMS = 5000
	}

	var displayed []string

	if target != "" {
		if _, ok := s.registry.Get(target); !ok {
			return nil, fmt.Errorf("relay.Service.RequestDisplay: session %q: %w", target, domain.ErrNotFound)
		}
		s.registry.SetDisplayed(target, text)
		if err := s.display(ctx, target, text, durationMS); err != nil {
			log.Error().Err(err).Str("session_id", target).Msg("targeted display failed")
			return nil, fmt.Errorf("relay.Service.RequestDisplay: session %q: %w", target, domain.ErrDisplayFailed)
		}
		displayed = []string{target}
	} else {
		ids := s.registry.IDs()
		if len(ids) == 0 {
			return nil, fmt.Errorf("relay.Service.RequestDisplay: %w", domain.ErrNoActiveSessions)
		}
		for _, id := range ids {
			s.registry.SetDisplayed(id, text)
			if err := s.display(ctx, id, text, durationMS); err != nil {
				log.Warn().Err(err).Str("session_id", id).Msg("broadcast display failed")
			}
			displayed = append(displayed, id)
		}
	}

	s.append(&domain.Event{
		ID:        uuid.New(),
		Kind:      domain.KindDisplayRequest,
		Timestamp: s.now().UTC(),
		Payload: domain.DisplayPayload{
			Text:       text,
			Sessions:   displayed,
			DurationMS: durationMS,
		},
	})

	log.Info().Int("sessions", len(displayed)).Msg("display request relayed")
	return displayed, nil
}

// Heartbeat bumps the session's last-activity timestamp.
func (s *Service) Heartbeat(id string) error {
	if !s.registry.Heartbeat(id) {
		return fmt.Errorf("relay.Service.Heartbeat: session %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Sessions returns snapshots of all active sessions.
func (s *Service) Sessions() []domain.Session {
	return s.registry.List()
}

// Session returns a snapshot of one session.
func (s *Service) Session(id string) (domain.Session, error) {
	sess, ok := s.registry.Get(id)
	if !ok {
		return domain.Session{}, fmt.Errorf("relay.Service.Session: session %q: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

// Stats is the aggregate view served by the stats endpoint.
type Stats struct {
	TotalEvents    int
	CountsByKind   map[string]int
	ActiveSessions int
	QueueCapacity  int
}

// Stats reports totals over the retained queue and the registry.
func (s *Service) Stats() Stats {
	return Stats{
		TotalEvents:    s.queue.Len(),
		CountsByKind:   s.queue.CountByKind(),
		ActiveSessions: s.registry.Len(),
		QueueCapacity:  s.queue.Cap(),
	}
}

// ClearEvents empties the queue. Session histories keep the records
// they already captured.
func (s *Service) ClearEvents() {
	s.queue.Clear()
	log.Info().Msg("event queue cleared")
}

// append places ev in the queue, mirrors it into the session history
// when scoped, and publishes it to the live stream.
func (s *Service) append(ev *domain.Event) uint64 {
	idx := s.queue.Append(ev)
	if ev.SessionID != "" {
		s.registry.RecordHistory(ev.SessionID, ev)
	}
	if s.broker != nil {
		if data, err := json.Marshal(ev); err == nil {
			s.broker.Publish(data)
		}
	}
	return idx
}

// display issues one bounded, synchronous device call.
func (s *Service) display(ctx context.Context, sessionID, text string, durationMS int) error {
	if s.displayer == nil {
		return nil
	}
	dctx, cancel := context.WithTimeout(ctx, s.displayTimeout)
	defer cancel()
	return s.displayer.Display(dctx, sessionID, text, durationMS)
}

// displayAsync issues a fire-and-forget device call with its own
// timeout, detached from the triggering request.
func (s *Service) displayAsync(sessionID, text string, durationMS int) {
	if s.displayer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.displayTimeout)
		defer cancel()
		if err := s.displayer.Display(ctx, sessionID, text, durationMS); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("device display failed")
		}
	}()
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
