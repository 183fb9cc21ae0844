package session

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
	"github.com/mamadbah2/dairy-advisor/internal/service/advisor"
	"github.com/mamadbah2/dairy-advisor/internal/service/commands"
	"github.com/mamadbah2/dairy-advisor/internal/service/metrics"
)

// ErrSessionNotFound indicates an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidFeedCost indicates a non-positive or non-finite feed cost.
var ErrInvalidFeedCost = errors.New("feed cost per kg must be a positive finite number")

const welcomeText = "Welcome to the dairy what-if advisor. Adjust concentrate feed and nitrogen rate, " +
	"or ask things like \"show emissions\", \"analyze efficiency\" or \"reduce feed by 10%\"."

// State is the full live state of one advisory session. Parameters and the
// message log are the only independently mutable pieces; metrics, score,
// suggestions and the trend window are projections kept consistent by the
// update protocol.
type State struct {
	ID            string                 `json:"id"`
	Params        models.FarmParameters  `json:"params"`
	FeedCostPerKg float64                `json:"feed_cost_per_kg"`
	Timeframe     models.Timeframe       `json:"timeframe"`
	Metrics       models.DerivedMetrics  `json:"metrics"`
	Score         models.EfficiencyScore `json:"score"`
	Suggestions   []models.Suggestion    `json:"suggestions"`
	Trend         []models.TrendPoint    `json:"trend"`
	Messages      []models.Message       `json:"messages"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// Store owns every session's state. All mutation funnels through it under a
// single lock, so callers never observe a partially-updated session.
// Sessions are fully isolated from each other.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State

	engine      *metrics.Engine
	advisor     *advisor.Engine
	trend       *metrics.TrendSimulator
	interpreter *commands.Interpreter

	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewStore wires a session store over the pure engines.
func NewStore(engine *metrics.Engine, adv *advisor.Engine, trend *metrics.TrendSimulator, interpreter *commands.Interpreter, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sessions:    make(map[string]*State),
		engine:      engine,
		advisor:     adv,
		trend:       trend,
		interpreter: interpreter,
		logger:      logger,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Create opens a new session around the given inputs. Parameters are
// sanitized at this boundary (negative or non-finite values coerce to 0);
// the feed cost must be positive since every cost derivation divides by it
// downstream of yield.
func (s *Store) Create(params models.FarmParameters, feedCostPerKg float64, timeframe models.Timeframe) (*State, error) {
	if feedCostPerKg <= 0 || math.IsNaN(feedCostPerKg) || math.IsInf(feedCostPerKg, 0) {
		return nil, ErrInvalidFeedCost
	}
	params = sanitizeParams(params)

	m, err := s.engine.Compute(params, feedCostPerKg)
	if err != nil {
		return nil, err
	}
	score := s.engine.Score(m)

	now := s.now()
	st := &State{
		ID:            s.newID(),
		Params:        params,
		FeedCostPerKg: feedCostPerKg,
		Timeframe:     timeframe,
		Metrics:       m,
		Score:         score,
		Suggestions:   s.advisor.Generate(m, score, params, feedCostPerKg),
		Trend:         s.trend.Simulate(m.Emissions, timeframe.Periods()),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	st.Messages = append(st.Messages, models.Message{
		Kind:      models.MessageWelcome,
		Text:      welcomeText,
		Timestamp: now,
	})

	s.mu.Lock()
	s.sessions[st.ID] = st
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session_id", st.ID))
	return snapshot(st), nil
}

// Get returns a consistent copy of the session state.
func (s *Store) Get(id string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshot(st), nil
}

// Snapshots returns consistent copies of every live session.
func (s *Store) Snapshots() []*State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*State, 0, len(s.sessions))
	for _, st := range s.sessions {
		out = append(out, snapshot(st))
	}
	return out
}

// ApplyParameters is the single mutation entry point. It snapshots the old
// metrics, recomputes every projection, logs a signed change summary, slides
// the trend window by one month and regenerates the suggestions, all under
// one lock. A domain error leaves the session unchanged apart from an error
// message in the log.
func (s *Store) ApplyParameters(id string, params models.FarmParameters) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	if err := s.applyLocked(st, sanitizeParams(params)); err != nil {
		st.Messages = append(st.Messages, models.Message{
			Kind:      models.MessageError,
			Text:      fmt.Sprintf("Parameters rejected: %v.", err),
			Timestamp: s.now(),
		})
		return snapshot(st), err
	}
	return snapshot(st), nil
}

// SetTimeframe switches the displayed timeframe. The stored trend window is
// deliberately not resized; it keeps sliding at its existing length.
func (s *Store) SetTimeframe(id string, timeframe models.Timeframe) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	st.Timeframe = timeframe
	st.UpdatedAt = s.now()
	return snapshot(st), nil
}

// AppendAlert records an out-of-band advisory notification (e.g. the daily
// digest) in the session log.
func (s *Store) AppendAlert(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	st.Messages = append(st.Messages, models.Message{
		Kind:      models.MessageAlert,
		Text:      text,
		Timestamp: s.now(),
	})
	return nil
}

// HandleUtterance runs one free-text exchange: the raw utterance is logged,
// the interpreter dispatches it, any mutation is applied (and its change
// summary logged) before the response message is composed into the log, so
// the response always reflects the parameters in effect at that point.
func (s *Store) HandleUtterance(id, utterance string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	st.Messages = append(st.Messages, models.Message{
		Kind:      models.MessageUser,
		Text:      utterance,
		Timestamp: s.now(),
	})

	result := s.interpreter.Interpret(utterance, commands.View{
		Params:        st.Params,
		FeedCostPerKg: st.FeedCostPerKg,
		Metrics:       st.Metrics,
		Score:         st.Score,
		Suggestions:   st.Suggestions,
		Timeframe:     st.Timeframe,
	})

	response := result.Response
	if result.Mutation != nil {
		if err := s.applyLocked(st, *result.Mutation); err != nil {
			s.logger.Warn("command mutation rejected", zap.String("session_id", id), zap.Error(err))
			response = commands.Response{
				Kind: models.MessageError,
				Text: fmt.Sprintf("Could not apply the requested change: %v.", err),
			}
		}
	}

	st.Messages = append(st.Messages, models.Message{
		Kind:        response.Kind,
		Text:        response.Text,
		Trend:       response.Trend,
		Metrics:     response.Metrics,
		Suggestions: response.Suggestions,
		Timestamp:   s.now(),
	})
	st.UpdatedAt = s.now()

	return snapshot(st), nil
}

// applyLocked runs the five-step update protocol. Callers hold the write
// lock; nothing in here unlocks, so the five steps are atomic to readers.
func (s *Store) applyLocked(st *State, params models.FarmParameters) error {
	old := st.Metrics

	m, err := s.engine.Compute(params, st.FeedCostPerKg)
	if err != nil {
		return err
	}
	score := s.engine.Score(m)

	st.Messages = append(st.Messages, models.Message{
		Kind:      models.MessageSystem,
		Text:      changeSummary(old, m),
		Timestamp: s.now(),
	})

	slideTrendWindow(st, m.Emissions)

	st.Params = params
	st.Metrics = m
	st.Score = score
	st.Suggestions = s.advisor.Generate(m, score, params, st.FeedCostPerKg)
	st.UpdatedAt = s.now()

	s.logger.Info("parameters applied",
		zap.String("session_id", st.ID),
		zap.Float64("concentrate_feed", params.ConcentrateFeed),
		zap.Float64("nitrogen_rate", params.NitrogenRate))
	return nil
}

// slideTrendWindow appends one point labelled with the month after the
// newest one (Dec wraps to Jan), drops the oldest and re-smooths. Window
// length never changes here.
func slideTrendWindow(st *State, value float64) {
	if len(st.Trend) == 0 {
		return
	}

	last := st.Trend[len(st.Trend)-1]
	st.Trend = append(st.Trend[1:], models.TrendPoint{
		Period: metrics.NextPeriodLabel(last.Period),
		Value:  value,
	})
	metrics.Smooth(st.Trend)
}

// changeSummary formats the old-vs-new comparison for every metric field
// with an explicit sign on the delta.
func changeSummary(old, next models.DerivedMetrics) string {
	return fmt.Sprintf(
		"Parameters updated. Emissions %.2f -> %.2f (%+.2f) kg CO2e; yield %.0f -> %.0f (%+.0f) L; "+
			"cost/L %.3f -> %.3f (%+.3f); protein efficiency %.2f -> %.2f (%+.2f)%%; nitrogen efficiency %.2f -> %.2f (%+.2f)%%.",
		old.Emissions, next.Emissions, next.Emissions-old.Emissions,
		old.Yield, next.Yield, next.Yield-old.Yield,
		old.CostPerLitre, next.CostPerLitre, next.CostPerLitre-old.CostPerLitre,
		old.ProteinEfficiency, next.ProteinEfficiency, next.ProteinEfficiency-old.ProteinEfficiency,
		old.NitrogenEfficiency, next.NitrogenEfficiency, next.NitrogenEfficiency-old.NitrogenEfficiency,
	)
}

// sanitizeParams coerces negative or non-finite raw inputs to 0 so the pure
// engine only ever sees validated values.
func sanitizeParams(p models.FarmParameters) models.FarmParameters {
	if p.ConcentrateFeed < 0 || math.IsNaN(p.ConcentrateFeed) || math.IsInf(p.ConcentrateFeed, 0) {
		p.ConcentrateFeed = 0
	}
	if p.NitrogenRate < 0 || math.IsNaN(p.NitrogenRate) || math.IsInf(p.NitrogenRate, 0) {
		p.NitrogenRate = 0
	}
	return p
}

// snapshot deep-copies the slices so readers can hold the result outside
// the lock.
func snapshot(st *State) *State {
	cp := *st
	cp.Suggestions = append([]models.Suggestion(nil), st.Suggestions...)
	cp.Trend = append([]models.TrendPoint(nil), st.Trend...)
	cp.Messages = append([]models.Message(nil), st.Messages...)
	return &cp
}
