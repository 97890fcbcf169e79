package monitor

import (
	"reflect"
	"testing"

	"github.com/tinytelemetry/httpmon/internal/model"
)

// scriptedLoader returns one preset load per call.
type scriptedLoader struct {
	loads []int
	calls int
}

func (l *scriptedLoader) Load(_, _ int64) int {
	load := l.loads[l.calls]
	l.calls++
	return load
}

func TestAlertMachine_Transitions(t *testing.T) {
	tests := []struct {
		name        string
		threshold   int
		loads       []int
		wantRaised  []model.AlertRaised
		wantCleared []model.AlertCleared
	}{
		{
			name:        "single breach and recovery",
			threshold:   5,
			loads:       []int{0, 0, 0, 0, 1, 8, 8, 8, 8, 8, 1, 1},
			wantRaised:  []model.AlertRaised{{Load: 8, At: 5}},
			wantCleared: []model.AlertCleared{{Load: 1, At: 10}},
		},
		{
			name:       "threshold itself does not alert",
			threshold:  5,
			loads:      []int{5, 5, 5},
			wantRaised: nil,
		},
		{
			name:        "recovers at exactly the threshold",
			threshold:   5,
			loads:       []int{6, 7, 5, 5},
			wantRaised:  []model.AlertRaised{{Load: 6, At: 0}},
			wantCleared: []model.AlertCleared{{Load: 5, At: 2}},
		},
		{
			name:        "flapping emits one event per transition",
			threshold:   2,
			loads:       []int{3, 3, 1, 1, 4, 0},
			wantRaised:  []model.AlertRaised{{Load: 3, At: 0}, {Load: 4, At: 4}},
			wantCleared: []model.AlertCleared{{Load: 1, At: 2}, {Load: 0, At: 5}},
		},
		{
			name:      "never breached",
			threshold: 10,
			loads:     []int{0, 1, 2, 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			m := NewAlertMachine(&scriptedLoader{loads: tt.loads}, 2, tt.threshold, sink)
			for now := range tt.loads {
				m.OnTick(int64(now))
			}
			if !reflect.DeepEqual(sink.raised, tt.wantRaised) {
				t.Fatalf("raised = %+v, want %+v", sink.raised, tt.wantRaised)
			}
			if !reflect.DeepEqual(sink.cleared, tt.wantCleared) {
				t.Fatalf("cleared = %+v, want %+v", sink.cleared, tt.wantCleared)
			}
		})
	}
}

func TestAlertMachine_StateAndLastLoad(t *testing.T) {
	sink := &recordingSink{}
	m := NewAlertMachine(&scriptedLoader{loads: []int{11, 3}}, 120, 10, sink)
	if m.State() != Normal {
		t.Fatalf("initial state = %v, want normal", m.State())
	}

	m.OnTick(1)
	if m.State() != Alerting || m.LastLoad() != 11 {
		t.Fatalf("after breach state=%v load=%d, want alerting/11", m.State(), m.LastLoad())
	}

	m.OnTick(2)
	if m.State() != Normal || m.LastLoad() != 3 {
		t.Fatalf("after recovery state=%v load=%d, want normal/3", m.State(), m.LastLoad())
	}
	if got := m.State().String(); got != "normal" {
		t.Fatalf("State().String() = %q, want normal", got)
	}
}
