package observe

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q: data is %T, want Sum[int64]", name, m.Data)
	}
	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{" INFO ", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, slog.LevelWarn)
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordStep(ctx, OutcomeCompleted, "final")
	m.RecordOracleCall(ctx, "final", time.Second, nil)
	m.RecordLLMCall(ctx, "m", "p", time.Second, 1, 1, nil)
	m.RecordCommit(ctx, 50, nil)
	m.RecordHTTP(ctx, "GET", "/", 200, time.Second)
}

func TestRecordStep(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordStep(ctx, OutcomeInProgress, "probing")
	m.RecordStep(ctx, OutcomeInProgress, "probing")
	m.RecordStep(ctx, OutcomeViolation, "final")

	rm := collect(t, reader)
	if got := counterValue(t, rm, "equilibrium.interview.steps",
		attribute.String("outcome", OutcomeInProgress), attribute.String("phase", "probing")); got != 2 {
		t.Errorf("in_progress/probing = %d, want 2", got)
	}
	if got := counterValue(t, rm, "equilibrium.interview.steps",
		attribute.String("outcome", OutcomeViolation), attribute.String("phase", "final")); got != 1 {
		t.Errorf("violation/final = %d, want 1", got)
	}
}

func TestRecordLLMCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordLLMCall(ctx, "gpt-4o", "checkin-step", 250*time.Millisecond, 120, 30, nil)
	m.RecordLLMCall(ctx, "gpt-4o", "checkin-step", time.Second, 0, 0, errors.New("boom"))

	rm := collect(t, reader)
	if got := counterValue(t, rm, "equilibrium.llm.requests",
		attribute.String("model", "gpt-4o"), attribute.String("purpose", "checkin-step"), attribute.String("status", "error")); got != 1 {
		t.Errorf("error requests = %d, want 1", got)
	}
	if got := counterValue(t, rm, "equilibrium.llm.tokens",
		attribute.String("model", "gpt-4o"), attribute.String("direction", "input")); got != 120 {
		t.Errorf("input tokens = %d, want 120", got)
	}
	if findMetric(rm, "equilibrium.llm.duration") == nil {
		t.Error("duration histogram not recorded")
	}
}

func TestRecordCommit(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordCommit(ctx, 75, nil)
	m.RecordCommit(ctx, 0, errors.New("disk full"))

	rm := collect(t, reader)
	if got := counterValue(t, rm, "equilibrium.checkin.commits", attribute.String("status", "ok")); got != 1 {
		t.Errorf("ok commits = %d, want 1", got)
	}
	hist := findMetric(rm, "equilibrium.checkin.score")
	if hist == nil {
		t.Fatal("score histogram missing")
	}
	data := hist.Data.(metricdata.Histogram[int64])
	if len(data.DataPoints) != 1 || data.DataPoints[0].Count != 1 || data.DataPoints[0].Sum != 75 {
		t.Errorf("score histogram = %+v", data.DataPoints)
	}
}

func TestMiddleware(t *testing.T) {
	m, reader := newTestMetrics(t)

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })

	var cid string
	h := Middleware(m, slog.New(slog.DiscardHandler), func(*http.Request) string { return "/v1/logs/{id}" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cid = CorrelationID(r.Context())
			w.WriteHeader(http.StatusNotFound)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/logs/abc", nil))

	if len(cid) != 32 {
		t.Errorf("correlation id = %q, want 32 hex chars", cid)
	}
	if rec.Header().Get("X-Correlation-ID") != cid {
		t.Errorf("header = %q, want %q", rec.Header().Get("X-Correlation-ID"), cid)
	}
	if len(exp.GetSpans()) != 1 {
		t.Errorf("spans = %d, want 1", len(exp.GetSpans()))
	}

	rm := collect(t, reader)
	hm := findMetric(rm, "equilibrium.http.request.duration")
	if hm == nil {
		t.Fatal("http histogram missing")
	}
	dps := hm.Data.(metricdata.Histogram[float64]).DataPoints
	if len(dps) != 1 {
		t.Fatalf("data points = %d, want 1", len(dps))
	}
	route, _ := dps[0].Attributes.Value("route")
	code, _ := dps[0].Attributes.Value("status")
	if route.AsString() != "/v1/logs/{id}" || code.AsInt64() != 404 {
		t.Errorf("attributes = %v", dps[0].Attributes.ToSlice())
	}
}
