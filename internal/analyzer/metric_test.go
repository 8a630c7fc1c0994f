package analyzer

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMetricValue_Constructors(t *testing.T) {
	if v := Numeric(42.5); v.Kind != KindNumeric || v.Num != 42.5 {
		t.Errorf("unexpected numeric value: %+v", v)
	}
	if v := Duration(150 * time.Millisecond); v.Kind != KindDuration || v.Dur != 150*time.Millisecond {
		t.Errorf("unexpected duration value: %+v", v)
	}
	if v := Text("degraded"); v.Kind != KindText || v.Text != "degraded" {
		t.Errorf("unexpected text value: %+v", v)
	}
}

func TestMetricValue_String(t *testing.T) {
	tests := []struct {
		value MetricValue
		want  string
	}{
		{Numeric(99.456), "99.46"},
		{Duration(1500 * time.Millisecond), "1.5s"},
		{Text("saturated"), "saturated"},
		{MetricValue{}, ""},
	}
	for _, tc := range tests {
		if got := tc.value.String(); got != tc.want {
			t.Errorf("String(%+v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestMetricValue_JSONKeepsKind(t *testing.T) {
	data, err := json.Marshal(Duration(time.Second))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var v MetricValue
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Kind != KindDuration || v.Dur != time.Second {
		t.Errorf("round trip lost variant: %+v", v)
	}
}
