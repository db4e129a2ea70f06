package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"
	"time"

	"github.com/Scusemua/go-utils/config"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/scusemua/notebook-kernel/common/consul"
	"github.com/scusemua/notebook-kernel/common/tracing"
	"github.com/scusemua/notebook-kernel/common/utils"
	"github.com/scusemua/notebook-kernel/kernel/domain"
	"github.com/scusemua/notebook-kernel/kernel/internal/dispatch"
	"github.com/scusemua/notebook-kernel/kernel/internal/evaluator"
	"github.com/scusemua/notebook-kernel/kernel/internal/execution"
	"github.com/scusemua/notebook-kernel/kernel/internal/server"
)

const (
	shutdownTimeout = 10 * time.Second
)

var (
	options      = domain.NewKernelOptions()
	globalLogger = config.GetLogger("")
	sig          = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
}

// ValidateOptions ensures that the options/configuration is valid.
func ValidateOptions() {
	flags, err := config.ValidateOptions(options)
	if errors.Is(err, config.ErrPrintUsage) {
		flags.PrintDefaults()
		os.Exit(0)
	} else if err != nil {
		log.Fatal(err)
	}

	if err = options.Validate(); err != nil {
		log.Fatal(err)
	}
}

func newZapLogger() *zap.Logger {
	var (
		zlog *zap.Logger
		err  error
	)

	if options.Debug || options.Verbose {
		zlog, err = zap.NewDevelopment()
	} else {
		zlog, err = zap.NewProduction()
	}

	if err != nil {
		log.Fatalf("Failed to create zap logger: %v", err)
	}

	return zlog.With(zap.String("kernel_id", options.KernelId))
}

// CreateConsulAndTracer initializes the optional Jaeger tracer and Consul client.
func CreateConsulAndTracer() (opentracing.Tracer, io.Closer, *consul.Client) {
	var (
		tracer       opentracing.Tracer = opentracing.NoopTracer{}
		closer       io.Closer
		consulClient *consul.Client
		err          error
	)

	if options.JaegerAddr != "" {
		globalLogger.Info("Initializing jaeger agent [service name: %v | host: %v]...", domain.ServiceName, options.JaegerAddr)

		tracer, closer, err = tracing.Init(domain.ServiceName, options.JaegerAddr)
		if err != nil {
			log.Fatalf("Got error while initializing jaeger agent: %v", err)
		}
		globalLogger.Info("Jaeger agent initialized")
	}

	if options.ConsulAddr != "" {
		globalLogger.Info("Initializing consul agent [host: %v]...", options.ConsulAddr)
		consulClient, err = consul.NewClient(options.ConsulAddr)
		if err != nil {
			log.Fatalf("Got error while initializing consul agent: %v", err)
		}
		globalLogger.Info("Consul agent initialized")
	}

	return tracer, closer, consulClient
}

func main() {
	ValidateOptions()

	if options.Verbose {
		globalLogger.Info("Starting kernel with the following options:\n%s\n", options.PrettyString(2))
	} else {
		globalLogger.Info("Starting kernel %s.", options.KernelId)
	}

	os.Exit(run())
}

func run() (exitCode int) {
	defer func() {
		if err := recover(); err != nil {
			globalLogger.Error(utils.RedStyle.Render("Kernel panicked: %v"), err)
			debug.PrintStack()
			exitCode = 2
		}
	}()

	zlog := newZapLogger()
	defer func() { _ = zlog.Sync() }()

	tracer, closer, consulClient := CreateConsulAndTracer()
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	ev, err := evaluator.New()
	if err != nil {
		globalLogger.Error(utils.RedStyle.Render("Failed to create evaluator: %v"), err)
		return 1
	}
	commands := evaluator.NewCommands(ev)

	srv := server.New(options.KernelId, &options.ConnectionInfo, server.WithZapLogger(zlog))
	pipeline := execution.NewPipeline(&execution.Counter{}, ev, commands, srv.Broadcast(), options.CaptureStderr,
		execution.WithTracer(tracer))
	dispatcher := dispatch.NewDispatcher(pipeline, ev, commands, srv.Broadcast(), srv, srv.RequestStop)

	if err = srv.Start(dispatcher); err != nil {
		globalLogger.Error(utils.RedStyle.Render("Failed to start kernel: %v"), err)
		return 1
	}

	if consulClient != nil {
		meta := map[string]string{
			"iopub_port":   strconv.Itoa(srv.Ports().IOPubPort),
			"control_port": strconv.Itoa(srv.Ports().ControlPort),
		}
		if err = consulClient.Register(options.KernelId, options.IP, srv.Ports().ShellPort, meta); err != nil {
			globalLogger.Error(utils.RedStyle.Render("Failed to register in consul: %v"), err)
		} else {
			globalLogger.Info(utils.GreenStyle.Render("Successfully registered in consul"))
			defer func() {
				if err := consulClient.Deregister(options.KernelId); err != nil {
					globalLogger.Warn(utils.OrangeStyle.Render("Failed to deregister from consul: %v"), err)
				}
			}()
		}
	}

	stopped := make(chan struct{})
	go func() {
		_ = srv.Wait(context.Background())
		close(stopped)
	}()

	select {
	case s := <-sig:
		globalLogger.Info("Received signal %v. Shutting down...", s)
		srv.Stop()
	case <-stopped:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err = srv.Wait(ctx); err != nil {
		globalLogger.Error(utils.RedStyle.Render("Kernel stopped with error: %v"), err)
		return 1
	}

	fmt.Printf("Kernel %s exited [restart=%v].\n", options.KernelId, srv.Restart())
	return 0
}
