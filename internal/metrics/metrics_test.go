package metrics

import (
	"testing"
)

func postingCount(t *testing.T, m *Metrics, outcome string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "rechargehub_postings_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestObservePosting(t *testing.T) {
	m := New()
	m.ObservePosting("recharge", "wallet", OutcomeSuccess)
	m.ObservePosting("recharge", "wallet", OutcomeSuccess)
	m.ObservePosting("recharge", "wallet", OutcomeInsufficient)

	if got := postingCount(t, m, OutcomeSuccess); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := postingCount(t, m, OutcomeInsufficient); got != 1 {
		t.Fatalf("expected 1 refusal, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObservePosting("recharge", "wallet", OutcomeSuccess)
}
