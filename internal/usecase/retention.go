package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/stephaneglaugier91/daulingo/internal/core/domain"
	"github.com/stephaneglaugier91/daulingo/internal/core/port"
)

// Retention metrics, one per prior-day state, following the Duolingo growth
// model naming. Each rate is the share of users in the prior state who are
// CURRENT the next day.
const (
	MetricNURR   = "NURR"   // from NEW
	MetricCURR   = "CURR"   // from CURRENT
	MetricRURR   = "RURR"   // from REACTIVATED
	MetricSURR   = "SURR"   // from RESURRECTED
	MetricIWAURR = "iWAURR" // from AT_RISK_WAU
)

var metricByPrevState = map[domain.GrowthState]string{
	domain.StateNew:         MetricNURR,
	domain.StateCurrent:     MetricCURR,
	domain.StateReactivated: MetricRURR,
	domain.StateResurrected: MetricSURR,
	domain.StateAtRiskWAU:   MetricIWAURR,
}

// RetentionMetricOrder returns the reporting order of retention metrics.
func RetentionMetricOrder() []string {
	return []string{MetricNURR, MetricCURR, MetricRURR, MetricSURR, MetricIWAURR}
}

// RetentionRate is a single daily retention observation.
type RetentionRate struct {
	AsOfDate    domain.Date `json:"as_of_date"`
	Metric      string      `json:"metric"`
	Numerator   int         `json:"numerator"`
	Denominator int         `json:"denominator"`
	Rate        float64     `json:"rate"`
}

// RetentionService derives daily retention rates from day-over-day state
// transitions of the computed state table.
type RetentionService struct {
	states port.StateRepository
}

// NewRetentionService constructs a RetentionService.
func NewRetentionService(states port.StateRepository) *RetentionService {
	return &RetentionService{states: states}
}

// Rates computes, for each day with observable transitions, the share of
// users in each tracked prior state that transitioned into CURRENT. Days or
// metrics with an empty denominator produce no row. Optional bounds restrict
// the target day of the transition.
func (s *RetentionService) Rates(ctx context.Context, start, end *domain.Date) ([]RetentionRate, error) {
	if start != nil && end != nil && start.After(*end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, *start, *end)
	}

	transitions, err := s.states.Transitions(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("query state transitions: %w", err)
	}

	type key struct {
		date   domain.Date
		metric string
	}
	numerators := make(map[key]int)
	denominators := make(map[key]int)

	for _, t := range transitions {
		metric, tracked := metricByPrevState[t.PrevState]
		if !tracked {
			continue
		}
		k := key{date: t.AsOfDate, metric: metric}
		denominators[k] += t.Users
		if t.CurrState == domain.StateCurrent {
			numerators[k] += t.Users
		}
	}

	rates := make([]RetentionRate, 0, len(denominators))
	for k, den := range denominators {
		if den <= 0 {
			continue
		}
		num := numerators[k]
		rates = append(rates, RetentionRate{
			AsOfDate:    k.date,
			Metric:      k.metric,
			Numerator:   num,
			Denominator: den,
			Rate:        float64(num) / float64(den),
		})
	}

	metricRank := make(map[string]int, len(RetentionMetricOrder()))
	for i, m := range RetentionMetricOrder() {
		metricRank[m] = i
	}
	sort.Slice(rates, func(i, j int) bool {
		if !rates[i].AsOfDate.Equal(rates[j].AsOfDate) {
			return rates[i].AsOfDate.Before(rates[j].AsOfDate)
		}
		return metricRank[rates[i].Metric] < metricRank[rates[j].Metric]
	})

	return rates, nil
}
