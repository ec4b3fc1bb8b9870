package cost

import (
	"fmt"
	"io"
	"sort"

	"github.com/cg-gdsc/gdsc8/pkg/store"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Usage is a token count pair.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// AccumulatedUsage lets a plain Usage be tracked as a report.
func (u Usage) AccumulatedUsage() (usage Usage) {
	usage = u
	return usage
}

// UsageReport is anything exposing the tokens consumed by a call.
type UsageReport interface {
	AccumulatedUsage() Usage
}

// AgentResponse is the agent framework result shape carrying accumulated usage metrics.
type AgentResponse struct {
	Metrics *AgentMetrics `json:"metrics"`
}

// AgentMetrics holds the usage counters of an agent response.
type AgentMetrics struct {
	AccumulatedUsage Usage `json:"accumulated_usage"`
}

// AccumulatedUsage returns zero usage when metrics are absent.
func (r *AgentResponse) AccumulatedUsage() (usage Usage) {
	if r == nil || r.Metrics == nil {
		return usage
	}
	usage = r.Metrics.AccumulatedUsage
	return usage
}

// ModelTotals are the running totals for one model.
type ModelTotals struct {
	Calls        int             `json:"calls"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	Cost         decimal.Decimal `json:"cost"`
}

// Totals are the running totals of a ledger.
type Totals struct {
	APICalls          int                     `json:"api_calls"`
	TotalInputTokens  int                     `json:"total_input_tokens"`
	TotalOutputTokens int                     `json:"total_output_tokens"`
	EstimatedCost     decimal.Decimal         `json:"estimated_cost"`
	ByModel           map[string]*ModelTotals `json:"by_model"`
}

// TotalTokens returns input plus output tokens.
func (t Totals) TotalTokens() (total int) {
	total = t.TotalInputTokens + t.TotalOutputTokens
	return total
}

// Ledger accumulates call counts, tokens and cost. It is not safe for concurrent use;
// hold one per process or pass it explicitly to whatever makes the calls.
type Ledger struct {
	pricing *Pricing
	totals  Totals
}

// NewLedger creates an empty ledger. A nil pricing uses DefaultPricing.
func NewLedger(pricing *Pricing) (ledger *Ledger) {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	ledger = &Ledger{pricing: pricing}
	ledger.Reset()
	return ledger
}

// Pricing returns the rate table the ledger prices calls with.
func (l *Ledger) Pricing() (pricing *Pricing) {
	pricing = l.pricing
	return pricing
}

// Track records a call by raw token counts and returns its cost.
func (l *Ledger) Track(model string, inputTokens, outputTokens int) (cost float64) {
	name, _ := l.pricing.Resolve(model)
	amount := l.pricing.cost(inputTokens, outputTokens, model)

	l.totals.APICalls++
	l.totals.TotalInputTokens += inputTokens
	l.totals.TotalOutputTokens += outputTokens
	l.totals.EstimatedCost = l.totals.EstimatedCost.Add(amount)

	entry, ok := l.totals.ByModel[name]
	if !ok {
		entry = &ModelTotals{}
		l.totals.ByModel[name] = entry
	}
	entry.Calls++
	entry.InputTokens += inputTokens
	entry.OutputTokens += outputTokens
	entry.Cost = entry.Cost.Add(amount)

	cost, _ = amount.Float64()
	return cost
}

// TrackUsage records a call from a usage report. A nil report counts as a call with no tokens.
func (l *Ledger) TrackUsage(report UsageReport, model string) (cost float64) {
	var usage Usage
	if report != nil {
		usage = report.AccumulatedUsage()
	}
	cost = l.Track(model, usage.InputTokens, usage.OutputTokens)
	return cost
}

// Reset clears every counter and per-model entry.
func (l *Ledger) Reset() {
	l.totals = Totals{
		EstimatedCost: decimal.Zero,
		ByModel:       make(map[string]*ModelTotals),
	}
}

// Snapshot returns a copy of the current totals.
func (l *Ledger) Snapshot() (totals Totals) {
	totals = l.totals
	totals.ByModel = make(map[string]*ModelTotals, len(l.totals.ByModel))
	for name, entry := range l.totals.ByModel {
		copied := *entry
		totals.ByModel[name] = &copied
	}
	return totals
}

// EstimatedCost returns the accumulated cost in USD.
func (l *Ledger) EstimatedCost() (cost float64) {
	cost, _ = l.totals.EstimatedCost.Float64()
	return cost
}

// WriteSummary prints a human-readable cost summary.
func (l *Ledger) WriteSummary(w io.Writer) (err error) {
	t := l.totals

	_, err = fmt.Fprintf(w, "Cost Summary:\n  Total API calls: %d\n  Total tokens: %s\n  Estimated cost: $%s\n",
		t.APICalls, humanize.Comma(int64(t.TotalTokens())), t.EstimatedCost.StringFixed(4))
	if err != nil {
		err = errors.Wrap(err, "failed to write cost summary")
		return err
	}

	if len(t.ByModel) == 0 {
		return err
	}

	names := make([]string, 0, len(t.ByModel))
	for name := range t.ByModel {
		names = append(names, name)
	}
	sort.Strings(names)

	_, err = fmt.Fprintln(w, "\n  By model:")
	if err != nil {
		err = errors.Wrap(err, "failed to write cost summary")
		return err
	}
	for _, name := range names {
		entry := t.ByModel[name]
		_, err = fmt.Fprintf(w, "    %s: %d calls, $%s\n", name, entry.Calls, entry.Cost.StringFixed(4))
		if err != nil {
			err = errors.Wrap(err, "failed to write cost summary")
			return err
		}
	}

	return err
}

// Save writes the ledger totals to a JSON file.
func (l *Ledger) Save(path string) (err error) {
	err = store.SaveJSON(path, l.totals)
	if err != nil {
		err = errors.Wrap(err, "failed to save cost ledger")
		return err
	}
	return err
}

// LoadLedger restores a ledger saved with Save. A missing file yields an empty ledger.
func LoadLedger(path string, pricing *Pricing) (ledger *Ledger, err error) {
	ledger = NewLedger(pricing)

	var totals Totals
	err = store.ReadJSON(path, &totals)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = nil
			return ledger, err
		}
		err = errors.Wrap(err, "failed to load cost ledger")
		return nil, err
	}

	if totals.ByModel == nil {
		totals.ByModel = make(map[string]*ModelTotals)
	}
	for name, entry := range totals.ByModel {
		if entry == nil {
			delete(totals.ByModel, name)
		}
	}
	ledger.totals = totals

	return ledger, err
}
