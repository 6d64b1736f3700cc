package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTraceContextPropagation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	r := mux.NewRouter()
	r.Use(otelmux.Middleware("voiceboard-api"))
	r.HandleFunc("/widgets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name        string
		traceParent string
	}{
		{name: "new trace started"},
		{
			name:        "incoming traceparent honored",
			traceParent: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter.Reset()

			req := httptest.NewRequest(http.MethodGet, "/widgets", nil)
			if tt.traceParent != "" {
				req.Header.Set("traceparent", tt.traceParent)
			}

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rr.Code)
			}
			if err := tp.ForceFlush(context.Background()); err != nil {
				t.Fatalf("ForceFlush: %v", err)
			}

			spans := exporter.GetSpans()
			if len(spans) == 0 {
				t.Fatal("no spans recorded")
			}
			if !spans[0].SpanContext.TraceID().IsValid() {
				t.Error("span has invalid trace ID")
			}
			if tt.traceParent != "" && spans[0].SpanContext.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
				t.Errorf("trace ID = %s, want the incoming traceparent's", spans[0].SpanContext.TraceID())
			}
		})
	}
}
