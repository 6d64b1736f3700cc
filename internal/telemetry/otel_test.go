package telemetry

import (
	"context"
	"testing"
	"time"
)

func TestInitTracer(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		endpoint    string
	}{
		{name: "named service", serviceName: "voiceboard-api", endpoint: "localhost:4318"},
		{name: "empty service name", serviceName: "", endpoint: "localhost:4318"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// The exporter connects lazily, so init succeeds without a
			// collector listening.
			tp, err := InitTracer(ctx, tt.serviceName, tt.endpoint)
			if err != nil {
				t.Fatalf("InitTracer: %v", err)
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := Shutdown(shutdownCtx, tp); err != nil {
				t.Errorf("Shutdown: %v", err)
			}
		})
	}
}

func TestShutdownNilProvider(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown(nil) = %v, want nil", err)
	}
}
