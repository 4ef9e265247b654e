package metricsvc

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestReorderMetrics_Notify(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReorderMetrics(reg)

	m.Notify(ordering.Notification{Kind: ordering.MovePersisted, Collection: "categories", Sequence: []string{"y", "z", "x"}})
	m.Notify(ordering.Notification{Kind: ordering.MovePersisted, Collection: "categories", Sequence: []string{"z", "x", "y"}})
	m.Notify(ordering.Notification{Kind: ordering.MoveReconciled, Collection: "categories"})
	m.Notify(ordering.Notification{Kind: ordering.MoveRejected, Collection: "menu_items"})
	m.Notify(ordering.Notification{Kind: ordering.Kind(42), Collection: "products"})

	tests := []struct {
		collection string
		outcome    string
		want       float64
	}{
		{"categories", "persisted", 2},
		{"categories", "reconciled", 1},
		{"categories", "rejected", 0},
		{"menu_items", "rejected", 1},
		{"products", "unknown", 1},
	}
	for _, tt := range tests {
		if got := counterValue(t, m.outcomes.WithLabelValues(tt.collection, tt.outcome)); got != tt.want {
			t.Errorf("%s/%s = %v, want %v", tt.collection, tt.outcome, got, tt.want)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "qrcodile_reorder_group_size" {
			continue
		}
		h := f.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 2 || h.GetSampleSum() != 6 {
			t.Errorf("group size: count=%d sum=%v, want count=2 sum=6", h.GetSampleCount(), h.GetSampleSum())
		}
		return
	}
	t.Error("qrcodile_reorder_group_size not gathered")
}

func TestNewReorderMetrics_registersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewReorderMetrics(reg)
	second := NewReorderMetrics(reg)
	if first.outcomes != second.outcomes {
		t.Error("the second registration should reuse the existing collector")
	}
}
