package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveScan("present")
	m.ObserveScan("present")
	m.ObserveScan("duplicate")
	m.ObserveRosterChange("add")
	m.ObserveNotification("sent")

	if got := testutil.ToFloat64(m.Scans.WithLabelValues("present")); got != 2 {
		t.Errorf("present scans = %v", got)
	}
	if got := testutil.ToFloat64(m.Scans.WithLabelValues("duplicate")); got != 1 {
		t.Errorf("duplicate scans = %v", got)
	}
	if got := testutil.ToFloat64(m.RosterChanges.WithLabelValues("add")); got != 1 {
		t.Errorf("roster adds = %v", got)
	}
	if n := testutil.CollectAndCount(m.Notifications); n != 1 {
		t.Errorf("notification series = %d", n)
	}
}

func TestNewPanicsOnDoubleRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Fatal("expected duplicate registration to panic")
		}
	}()
	New(reg)
}
