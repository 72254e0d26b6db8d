package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/deptsummary/internal/deptsummary/config"
	"github.com/yungbote/deptsummary/internal/deptsummary/httpapi"
	"github.com/yungbote/deptsummary/internal/deptsummary/publish"
	"github.com/yungbote/deptsummary/internal/deptsummary/report"
	"github.com/yungbote/deptsummary/internal/deptsummary/source"
	"github.com/yungbote/deptsummary/internal/deptsummary/summary"
	"github.com/yungbote/deptsummary/internal/observability"
	"github.com/yungbote/deptsummary/internal/platform/ctxutil"
	"github.com/yungbote/deptsummary/internal/platform/logger"
)

type App struct {
	Log       *logger.Logger
	Config    *config.Config
	Source    source.Fetcher
	Publisher publish.Publisher

	sourceURL    string
	otelShutdown func(context.Context) error
	now          func() time.Time
}

func New(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: "deptsummary",
		Environment: cfg.Env,
		Version:     version,
		Endpoint:    cfg.Tracing.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Tracing.Headers),
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})

	src, err := source.NewFromConfig(cfg.Source, log)
	if err != nil {
		return nil, fmt.Errorf("init source: %w", err)
	}

	a := &App{
		Log:          log,
		Config:       cfg,
		Source:       src,
		sourceURL:    src.URL(),
		otelShutdown: shutdown,
		now:          time.Now,
	}

	if cfg.RedisEnabled() {
		pub, err := publish.NewRedis(cfg.Redis, log)
		if err != nil {
			log.Warn("redis publisher disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			a.Publisher = pub
		}
	}
	return a, nil
}

// Summarize fetches the users and folds them into department groups.
func (a *App) Summarize(ctx context.Context) (*summary.Groups, error) {
	groups, _, err := a.summarize(ctx)
	return groups, err
}

func (a *App) summarize(ctx context.Context) (*summary.Groups, int, error) {
	users, err := a.Source.FetchUsers(ctx)
	if err != nil {
		return nil, 0, err
	}

	_, span := observability.Tracer().Start(ctx, "summary.GroupByDepartment")
	groups := summary.GroupByDepartment(users)
	span.SetAttributes(
		attribute.Int("summary.users", len(users)),
		attribute.Int("summary.departments", groups.Len()),
	)
	span.End()
	return groups, len(users), nil
}

// RunOnce performs one fetch-summarize-report cycle. Nothing is written to w
// unless the fetch succeeds.
func (a *App) RunOnce(ctx context.Context, w io.Writer) error {
	runID := uuid.New().String()
	ctx = ctxutil.WithTraceData(ctx, &ctxutil.TraceData{RunID: runID})
	log := a.Log.With(ctxutil.LogFields(ctx)...)

	format, err := report.ParseFormat(a.Config.Output.Format)
	if err != nil {
		return err
	}

	start := a.now()
	log.Info("fetching users", "source", a.sourceURL)
	groups, n, err := a.summarize(ctx)
	if err != nil {
		return err
	}
	log.Info("users summarized", "users", n, "departments", groups.Len(), "duration_ms", a.now().Sub(start).Milliseconds())

	if err := report.Write(w, groups, format); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	report.Log(log, groups)

	if a.Publisher != nil {
		msg := publish.Message{
			RunID:       runID,
			GeneratedAt: a.now().UTC(),
			Source:      a.sourceURL,
			Users:       n,
			Departments: groups,
		}
		if err := a.Publisher.Publish(ctx, msg); err != nil {
			log.Warn("publish summary failed", "error", err)
		}
	}
	return nil
}

// Serve exposes the summary over HTTP until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := httpapi.NewServer(a.Config, a.Log, a)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (a *App) Close(ctx context.Context) {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Log.Warn("close publisher", "error", err)
		}
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
	}
	a.Log.Sync()
}
