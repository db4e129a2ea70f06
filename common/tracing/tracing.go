package tracing

import (
	"io"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
)

const (
	DefaultFlushInterval = time.Second
)

// Init returns a jaeger tracer reporting to the agent at host, along with the closer that flushes it.
func Init(serviceName string, host string) (opentracing.Tracer, io.Closer, error) {
	cfg := jaegercfg.Configuration{
		ServiceName: serviceName,
		Sampler: &jaegercfg.SamplerConfig{
			Type:  jaeger.SamplerTypeConst,
			Param: 1,
		},
		Reporter: &jaegercfg.ReporterConfig{
			LogSpans:            false,
			BufferFlushInterval: DefaultFlushInterval,
			LocalAgentHostPort:  host,
		},
	}

	return cfg.NewTracer()
}
