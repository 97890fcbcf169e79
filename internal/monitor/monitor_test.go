package monitor

import (
	"reflect"
	"testing"

	"github.com/tinytelemetry/httpmon/internal/model"
)

const epoch = int64(1000000000)

func newTestMonitor(t *testing.T, cfg Config, extra ...TickListener) (*Monitor, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	m, err := New(cfg, sink, extra...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, sink
}

// feed ingests hits[i] records at second base+i.
func feed(m *Monitor, base int64, hits []int) {
	for i, n := range hits {
		for j := 0; j < n; j++ {
			m.Ingest(hit(base + int64(i)))
		}
	}
}

func TestMonitor_EndToEndAlertScenario(t *testing.T) {
	m, sink := newTestMonitor(t, Config{ReportInterval: 10, AlertWindow: 2, AlertThreshold: 5})

	// seconds 0-4 and 9-16 at 1 req/s, seconds 5-8 at 8 req/s
	hits := []int{1, 1, 1, 1, 1, 8, 8, 8, 8, 1, 1, 1, 1, 1, 1, 1, 1}
	feed(m, epoch, hits)

	if want := []model.AlertRaised{{Load: 9, At: epoch + 6}}; !reflect.DeepEqual(sink.raised, want) {
		t.Fatalf("raised = %+v, want %+v", sink.raised, want)
	}
	if want := []model.AlertCleared{{Load: 2, At: epoch + 11}}; !reflect.DeepEqual(sink.cleared, want) {
		t.Fatalf("cleared = %+v, want %+v", sink.cleared, want)
	}
	if m.Now() != epoch+16 {
		t.Fatalf("Now = %d, want %d", m.Now(), epoch+16)
	}
}

func TestMonitor_HysteresisOverHitSeries(t *testing.T) {
	m, sink := newTestMonitor(t, Config{ReportInterval: 10, AlertWindow: 2, AlertThreshold: 5})

	feed(m, 0, []int{0, 0, 0, 0, 1, 8, 8, 8, 8, 8, 1, 1})
	m.Ingest(hit(14)) // advance the clock past the series

	if len(sink.raised) != 1 || len(sink.cleared) != 1 {
		t.Fatalf("transitions raised=%d cleared=%d, want 1/1", len(sink.raised), len(sink.cleared))
	}
	if want := (model.AlertRaised{Load: 9, At: 6}); sink.raised[0] != want {
		t.Fatalf("raised = %+v, want %+v", sink.raised[0], want)
	}
	if want := (model.AlertCleared{Load: 2, At: 12}); sink.cleared[0] != want {
		t.Fatalf("cleared = %+v, want %+v", sink.cleared[0], want)
	}
}

func TestMonitor_ReportCadenceIgnoresDensity(t *testing.T) {
	m, sink := newTestMonitor(t, Config{ReportInterval: 10, AlertWindow: 120, AlertThreshold: 1000})

	feed(m, epoch, []int{50})
	m.Ingest(hit(epoch + 3))
	feed(m, epoch+9, []int{200})
	if len(sink.snapshots) != 0 {
		t.Fatalf("snapshots before the interval = %d, want 0", len(sink.snapshots))
	}

	m.Ingest(hit(epoch + 25))
	if len(sink.snapshots) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(sink.snapshots))
	}
	first, second := sink.snapshots[0], sink.snapshots[1]
	if first.To != epoch+10 || first.TotalRequests != 251 {
		t.Fatalf("first snapshot to=+%d total=%d, want +10/251", first.To-epoch, first.TotalRequests)
	}
	if second.To != epoch+20 || second.TotalRequests != 0 {
		t.Fatalf("second snapshot to=+%d total=%d, want +20/0", second.To-epoch, second.TotalRequests)
	}
}

func TestMonitor_TickFanOutOrder(t *testing.T) {
	var order []int64
	var sink *recordingSink
	m, sink := newTestMonitor(t, Config{ReportInterval: 1, AlertWindow: 1, AlertThreshold: 0},
		TickListenerFunc(func(now int64) {
			// core listeners have already run for this tick
			if len(sink.snapshots) != int(now) {
				t.Fatalf("at tick %d snapshots = %d, want %d", now, len(sink.snapshots), now)
			}
			order = append(order, now)
		}))

	m.Ingest(hit(0))
	m.Ingest(hit(3))

	if want := []int64{1, 2, 3}; !reflect.DeepEqual(order, want) {
		t.Fatalf("extra listener ticks = %v, want %v", order, want)
	}
}

func TestMonitor_OutOfOrderRecordsAreStored(t *testing.T) {
	m, _ := newTestMonitor(t, DefaultConfig())

	steps := []struct {
		ts    int64
		ticks int
	}{
		{100, 0},
		{105, 5},
		{101, 0},
	}
	for _, s := range steps {
		if got := m.Ingest(hit(s.ts)); got != s.ticks {
			t.Fatalf("Ingest(%d) = %d ticks, want %d", s.ts, got, s.ticks)
		}
	}
	if m.Now() != 105 {
		t.Fatalf("Now = %d, want 105", m.Now())
	}
	if load := m.Aggregator().Load(105, 10); load != 3 {
		t.Fatalf("Load = %d, want 3", load)
	}

	st := m.Status()
	if !st.Started || st.Ingested != 3 || st.Ticks != 5 || st.Buckets != 3 {
		t.Fatalf("status = %+v, want started with 3 ingested, 5 ticks, 3 buckets", st)
	}
}

func TestMonitor_RetentionKeepsQueryResults(t *testing.T) {
	cfg := Config{ReportInterval: 5, AlertWindow: 3, AlertThreshold: 4}
	keep, keepSink := newTestMonitor(t, cfg)
	cfg.Retention = 1
	pruned, prunedSink := newTestMonitor(t, cfg)

	hits := []int{1, 2, 3, 4, 5, 0, 0, 6, 1, 1, 0, 2, 3, 0, 0, 0, 1}
	feed(keep, 0, hits)
	feed(pruned, 0, hits)

	if !reflect.DeepEqual(keepSink, prunedSink) {
		t.Fatalf("pruning changed emitted events:\nkeep:   %+v\npruned: %+v", keepSink, prunedSink)
	}
	if pruned.Status().Buckets >= keep.Status().Buckets {
		t.Fatalf("pruned buckets = %d, want fewer than %d", pruned.Status().Buckets, keep.Status().Buckets)
	}
}

func TestNew_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero interval", Config{ReportInterval: 0, AlertWindow: 1}},
		{"zero window", Config{ReportInterval: 1, AlertWindow: 0}},
		{"negative threshold", Config{ReportInterval: 1, AlertWindow: 1, AlertThreshold: -1}},
		{"negative retention", Config{ReportInterval: 1, AlertWindow: 1, Retention: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, &recordingSink{}); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}

	if _, err := New(DefaultConfig(), nil); err == nil {
		t.Fatal("expected error for nil sink")
	}
}

func TestStatusBoard(t *testing.T) {
	var b StatusBoard
	if got := b.Current().State; got != "normal" {
		t.Fatalf("initial state = %q, want normal", got)
	}

	b.Publish(Status{Now: 42, State: "alerting"})
	if cur := b.Current(); cur.Now != 42 || cur.State != "alerting" {
		t.Fatalf("current = %+v, want now 42 alerting", cur)
	}
}
