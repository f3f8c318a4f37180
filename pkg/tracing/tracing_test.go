package tracing

import (
	"testing"

	"github.com/opentracing/opentracing-go"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	tr, closeFn, err := InitTracer(Config{})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if _, ok := tr.(opentracing.NoopTracer); !ok {
		t.Fatalf("tracer %T, want noop", tr)
	}
}
