package analyzer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validBaseline = `{
	"version": "v2.1",
	"created_at": "2026-08-01T00:00:00Z",
	"services": {
		"api": {
			"/users": {
				"expected_rps": 1000,
				"expected_p95_ms": 120,
				"max_cpu_percent": 60,
				"max_memory_mb": 512,
				"max_error_rate": 0.01
			}
		}
	}
}`

func TestParseBaseline_Valid(t *testing.T) {
	doc, err := ParseBaseline([]byte(validBaseline))
	if err != nil {
		t.Fatalf("ParseBaseline: %v", err)
	}
	if doc.Version != "v2.1" {
		t.Errorf("expected version v2.1, got %q", doc.Version)
	}

	entry, ok := doc.Lookup("api", "/users")
	if !ok {
		t.Fatal("expected api//users entry")
	}
	if entry.ExpectedRPS != 1000 {
		t.Errorf("expected rps 1000, got %.1f", entry.ExpectedRPS)
	}
	if entry.ExpectedP95Ms != 120 {
		t.Errorf("expected p95 120ms, got %.1f", entry.ExpectedP95Ms)
	}
}

func TestParseBaseline_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"missing version", `{"services": {"api": {"/u": {"expected_rps": 1}}}}`},
		{"missing expected_rps", `{"version": "v1", "services": {"api": {"/u": {"expected_p95_ms": 5}}}}`},
		{"negative rps", `{"version": "v1", "services": {"api": {"/u": {"expected_rps": -1}}}}`},
		{"cpu above 100", `{"version": "v1", "services": {"api": {"/u": {"expected_rps": 1, "max_cpu_percent": 120}}}}`},
		{"no services", `{"version": "v1", "services": {}}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := ParseBaseline([]byte(tc.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if doc != nil {
				t.Error("expected nil document on error, never a partial one")
			}
		})
	}
}

func TestBaselineDocument_LookupMiss(t *testing.T) {
	doc, err := ParseBaseline([]byte(validBaseline))
	if err != nil {
		t.Fatalf("ParseBaseline: %v", err)
	}
	if _, ok := doc.Lookup("api", "/orders"); ok {
		t.Error("expected miss for unknown endpoint")
	}
	if _, ok := doc.Lookup("billing", "/users"); ok {
		t.Error("expected miss for unknown service")
	}
}

func TestBaselineDocument_MarshalRoundTrip(t *testing.T) {
	doc, err := ParseBaseline([]byte(validBaseline))
	if err != nil {
		t.Fatalf("ParseBaseline: %v", err)
	}

	data, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	again, err := ParseBaseline(data)
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}

	a, _ := doc.Lookup("api", "/users")
	b, _ := again.Lookup("api", "/users")
	if a.ExpectedRPS != b.ExpectedRPS || a.MaxMemoryMB != b.MaxMemoryMB {
		t.Errorf("entries differ after round trip: %+v vs %+v", a, b)
	}
}

func TestSaveBaseline_AppliesSafetyMargin(t *testing.T) {
	a := New("sess", targetsFixture(), nil)
	wrs := workerResults(100, 10*time.Second, 5*time.Millisecond)
	r, err := NewResult("t", "api", "/users", wrs, nil, targetsFixture(), nil)
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}
	a.AddResult(r)

	path := filepath.Join(t.TempDir(), "baselines", "v1.json")
	doc, err := a.SaveBaseline("v1", path)
	if err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}

	entry, ok := doc.Lookup("api", "/users")
	if !ok {
		t.Fatal("expected saved entry for api//users")
	}
	// Observed 10 rps recorded at 95%.
	if entry.ExpectedRPS != 10*0.95 {
		t.Errorf("expected rps %.2f, got %.2f", 10*0.95, entry.ExpectedRPS)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved baseline: %v", err)
	}
	if _, err := ParseBaseline(data); err != nil {
		t.Errorf("saved baseline does not validate: %v", err)
	}

	if a.Baseline() == nil {
		t.Error("expected saved baseline to be installed on the session")
	}
}

func TestSaveBaseline_DuplicateEndpointKeepsWorstObservation(t *testing.T) {
	a := New("sess", targetsFixture(), nil)

	// Two runs of the same endpoint: 10 rps at 5ms, then 5 rps at 20ms.
	// The saved entry must keep the lower throughput and higher latency.
	fast, err := NewResult("t1", "api", "/users", workerResults(100, 10*time.Second, 5*time.Millisecond), nil, targetsFixture(), nil)
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}
	slow, err := NewResult("t2", "api", "/users", workerResults(50, 10*time.Second, 20*time.Millisecond), nil, targetsFixture(), nil)
	if err != nil {
		t.Fatalf("NewResult: %v", err)
	}
	a.AddResult(fast)
	a.AddResult(slow)

	doc, err := a.SaveBaseline("v1", filepath.Join(t.TempDir(), "b.json"))
	if err != nil {
		t.Fatalf("SaveBaseline: %v", err)
	}

	entry, ok := doc.Lookup("api", "/users")
	if !ok {
		t.Fatal("expected saved entry for api//users")
	}
	if entry.ExpectedRPS != 5*0.95 {
		t.Errorf("expected rps %.2f from the slower run, got %.2f", 5*0.95, entry.ExpectedRPS)
	}
	if entry.ExpectedP95Ms != 20*0.95 {
		t.Errorf("expected p95 %.2f ms from the slower run, got %.2f", 20*0.95, entry.ExpectedP95Ms)
	}
}

func TestSaveBaseline_NoResults(t *testing.T) {
	a := New("sess", targetsFixture(), nil)
	if _, err := a.SaveBaseline("v1", filepath.Join(t.TempDir(), "b.json")); err == nil {
		t.Fatal("expected error with no results")
	}
}
