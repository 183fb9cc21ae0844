package commands

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-advisor/internal/domain/models"
	"github.com/mamadbah2/dairy-advisor/internal/service/metrics"
)

// ErrInvalidPercentage indicates a reduce-feed percentage outside (0, 100].
var ErrInvalidPercentage = errors.New("percentage must be between 1 and 100")

// reduceFeedPattern extracts the integer percentage from a reduce-feed
// utterance. Matching runs on the lower-cased text.
var reduceFeedPattern = regexp.MustCompile(`reduce feed by (\d+)%`)

// helpText is the fixed fallback response enumerating supported categories.
const helpText = "I can help with: \"show emissions\" (historical trend), " +
	"\"analyze efficiency\" (score breakdown), " +
	"\"suggest optimizations\" (advisory review), " +
	"or \"reduce feed by N%\" (adjust the ration)."

// View is the read-only session snapshot an utterance is interpreted
// against. The store hands it in; the interpreter never touches shared state
// directly.
type View struct {
	Params        models.FarmParameters
	FeedCostPerKg float64
	Metrics       models.DerivedMetrics
	Score         models.EfficiencyScore
	Suggestions   []models.Suggestion
	Timeframe     models.Timeframe
}

// Response is the structured reply produced for an utterance.
type Response struct {
	Kind        models.MessageKind
	Text        string
	Trend       []models.TrendPoint
	Metrics     []models.MetricReading
	Suggestions []models.Suggestion
}

// Result couples the response with an optional parameter mutation. A nil
// Mutation means the utterance was purely informational (or rejected).
type Result struct {
	Response Response
	Mutation *models.FarmParameters
}

// rule is one entry of the ordered dispatch table: first match wins.
type rule struct {
	name   string
	match  func(text string) bool
	handle func(text string, view View) Result
}

// Interpreter maps free-text utterances to responses and mutations via
// ordered substring matching. It is deliberately not a grammar; the rule
// table is the whole contract.
type Interpreter struct {
	rules  []rule
	trend  *metrics.TrendSimulator
	logger *zap.Logger
}

// NewInterpreter builds the dispatcher with its fixed rule table.
func NewInterpreter(trend *metrics.TrendSimulator, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}

	i := &Interpreter{trend: trend, logger: logger}
	i.rules = []rule{
		{
			name:   "show_emissions",
			match:  containsAll("show", "emissions"),
			handle: i.handleShowEmissions,
		},
		{
			name:   "analyze_efficiency",
			match:  containsAll("analyze", "efficiency"),
			handle: i.handleAnalyzeEfficiency,
		},
		{
			name:   "reduce_feed",
			match:  containsAll("reduce feed"),
			handle: i.handleReduceFeed,
		},
		{
			name:   "advisory",
			match:  containsAny("suggest", "optimize"),
			handle: i.handleAdvisory,
		},
	}
	return i
}

// Interpret runs the utterance through the rule table. Unmatched input is
// not an error; it gets the fixed help response.
func (i *Interpreter) Interpret(utterance string, view View) Result {
	text := strings.ToLower(strings.TrimSpace(utterance))

	for _, r := range i.rules {
		if !r.match(text) {
			continue
		}
		i.logger.Debug("utterance dispatched", zap.String("rule", r.name))
		return r.handle(text, view)
	}

	i.logger.Debug("utterance unrecognized")
	return Result{Response: Response{Kind: models.MessageHelp, Text: helpText}}
}

func (i *Interpreter) handleShowEmissions(_ string, view View) Result {
	periods := view.Timeframe.Periods()
	return Result{Response: Response{
		Kind:  models.MessageSystem,
		Text:  fmt.Sprintf("Emissions over the last %d months (kg CO2e per litre), currently %.2f.", periods, view.Metrics.Emissions),
		Trend: i.trend.Simulate(view.Metrics.Emissions, periods),
	}}
}

func (i *Interpreter) handleAnalyzeEfficiency(_ string, view View) Result {
	return Result{Response: Response{
		Kind: models.MessageSystem,
		Text: "Efficiency breakdown below. Environmental and economic scores respond fastest to the concentrate feed rate; nitrogen timing moves the operational score.",
		Metrics: []models.MetricReading{
			{Label: "Environmental", Value: fmt.Sprintf("%.1f / 100", view.Score.Environmental)},
			{Label: "Economic", Value: fmt.Sprintf("%.1f / 100", view.Score.Economic)},
			{Label: "Operational", Value: fmt.Sprintf("%.1f", view.Score.Operational)},
			{Label: "Total", Value: fmt.Sprintf("%.1f", view.Score.Total)},
		},
	}}
}

func (i *Interpreter) handleReduceFeed(text string, view View) Result {
	captures := reduceFeedPattern.FindStringSubmatch(text)
	if captures == nil {
		return Result{Response: Response{
			Kind: models.MessageHelp,
			Text: "Tell me how much to reduce, e.g. \"reduce feed by 10%\".",
		}}
	}

	pct, err := strconv.Atoi(captures[1])
	if err != nil || pct <= 0 || pct > 100 {
		return Result{Response: Response{
			Kind: models.MessageError,
			Text: fmt.Sprintf("Cannot reduce feed by %s%%: %v.", captures[1], ErrInvalidPercentage),
		}}
	}

	newFeed := view.Params.ConcentrateFeed * (1 - float64(pct)/100)
	mutation := models.FarmParameters{
		ConcentrateFeed: newFeed,
		NitrogenRate:    view.Params.NitrogenRate,
	}

	return Result{
		Response: Response{
			Kind: models.MessageSystem,
			Text: fmt.Sprintf("Feed reduced by %d%%: concentrate feed is now %.2f kg/day.", pct, newFeed),
		},
		Mutation: &mutation,
	}
}

func (i *Interpreter) handleAdvisory(_ string, view View) Result {
	if len(view.Suggestions) == 0 {
		return Result{Response: Response{
			Kind: models.MessageSystem,
			Text: "No optimization suggestions right now; all metrics are within their target ranges.",
		}}
	}

	return Result{Response: Response{
		Kind:        models.MessageSystem,
		Text:        fmt.Sprintf("%d optimization suggestion(s) for the current parameters:", len(view.Suggestions)),
		Suggestions: view.Suggestions,
	}}
}

func containsAll(substrings ...string) func(string) bool {
	return func(text string) bool {
		for _, s := range substrings {
			if !strings.Contains(text, s) {
				return false
			}
		}
		return true
	}
}

func containsAny(substrings ...string) func(string) bool {
	return func(text string) bool {
		for _, s := range substrings {
			if strings.Contains(text, s) {
				return true
			}
		}
		return false
	}
}
