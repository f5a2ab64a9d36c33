package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Geniuskaa/promo_registration/internal/config"
	"github.com/Geniuskaa/promo_registration/pkg/database"
	"github.com/Geniuskaa/promo_registration/pkg/form"
	"github.com/Geniuskaa/promo_registration/pkg/mail"
	"github.com/Geniuskaa/promo_registration/pkg/metrics"
	"github.com/Geniuskaa/promo_registration/pkg/registration"
	"github.com/Geniuskaa/promo_registration/pkg/rowstore"
	"github.com/Geniuskaa/promo_registration/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	service     = "promo-registration"
	environment = "production"
)

func main() {
	v := viper.New()
	conf, err := config.NewConfig(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error with reading config:", err)
		os.Exit(1)
	}

	if err := execute(net.JoinHostPort(conf.App.Host, conf.App.Port), conf, v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func execute(addr string, conf *config.Entity, v *viper.Viper) (err error) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, atom, err := loggerInit(conf.App)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if conf.Jag.Dsn != "" {
		tp, err := tracerProvider(conf.Jag.Dsn)
		if err != nil {
			return fmt.Errorf("tracerProvider failed: %w", err)
		}
		otel.SetTracerProvider(tp)

		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				logger.Error("tracer shutdown failed", zap.Error(err))
			}
		}()
	}

	store, closeStore, err := storeInit(ctx, logger, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	loc, err := time.LoadLocation(conf.Promo.Timezone)
	if err != nil {
		logger.Warn("Unknown promo time zone, using UTC", zap.String("tz", conf.Promo.Timezone), zap.Error(err))
		loc = time.UTC
	}

	opts := []registration.Option{registration.WithMetrics(m), registration.WithLocation(loc)}
	if conf.Mail.Enabled() {
		sender, err := mail.NewSender(conf.Mail, logger)
		if err != nil {
			return err
		}
		opts = append(opts, registration.WithNotifier(sender))
	}
	regServ := registration.NewService(store, logger, opts...)

	page, err := form.NewPage(conf.Promo.Validity)
	if err != nil {
		return err
	}

	application := server.NewServer(ctx, logger, chi.NewRouter(), regServ, page, m, conf)
	application.Init(reg)
	application.WatchConfig(v, atom)

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	regServ.Wait()
	logger.Info("server stopped")
	return nil
}

// storeInit builds the configured row-store. Missing Google credentials do not
// stop the service: every registration then answers with a configuration error.
func storeInit(ctx context.Context, logger *zap.Logger, conf *config.Entity) (registration.Store, func(), error) {
	noop := func() {}

	switch conf.Store.Backend {
	case config.BackendXlsx:
		store, err := rowstore.NewExcel(conf.Store.XlsxPath, conf.Sheet.SheetName())
		if err != nil {
			return nil, noop, err
		}
		logger.Info("Using xlsx row-store", zap.String("path", conf.Store.XlsxPath))
		return store, noop, nil

	case config.BackendPostgres:
		pool, err := database.PoolCreation(ctx, logger, conf)
		if err != nil {
			return nil, noop, err
		}
		store, err := rowstore.NewPostgres(ctx, pool, conf.DB.Table)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		logger.Info("Using postgres row-store", zap.String("table", conf.DB.Table))
		return store, pool.Close, nil

	default:
		creds, err := rowstore.SheetsCredentials(conf.Sheet.Credentials)
		if err != nil {
			logger.Error("Google credentials are not configured", zap.Error(err))
			return rowstore.Unconfigured{Reason: err}, noop, nil
		}
		store, err := rowstore.NewSheets(ctx, conf.Sheet.ID, conf.Sheet.Range, creds)
		if err != nil {
			logger.Error("Google Sheets client is not configured", zap.Error(err))
			return rowstore.Unconfigured{Reason: err}, noop, nil
		}
		logger.Info("Using Google Sheets row-store", zap.String("range", conf.Sheet.Range))
		return store, noop, nil
	}
}

func loggerInit(conf config.Application) (*zap.Logger, zap.AtomicLevel, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(conf.LogLevel)); err != nil {
		lvl = zapcore.InfoLevel
	}
	atom := zap.NewAtomicLevelAt(lvl)

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC1123Z)
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stdout), atom),
	}

	if conf.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(conf.LogFile), 0o755); err != nil {
			return nil, atom, fmt.Errorf("loggerInit failed: %w", err)
		}
		file, err := os.OpenFile(conf.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
		if err != nil {
			return nil, atom, fmt.Errorf("loggerInit failed: %w", err)
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), atom))
	}

	return zap.New(zapcore.NewTee(cores...)), atom, nil
}

func tracerProvider(url string) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(url)))
	if err != nil {
		return nil, err
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(service),
			attribute.String("environment", environment),
		)),
	)
	return tp, nil
}
