package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flitsinc/go-hooks/internal/api"
	"github.com/flitsinc/go-hooks/internal/config"
	"github.com/flitsinc/go-hooks/internal/dispatch"
	"github.com/flitsinc/go-hooks/internal/eventbus"
	"github.com/flitsinc/go-hooks/internal/history"
	"github.com/flitsinc/go-hooks/internal/hookcfg"
	"github.com/flitsinc/go-hooks/internal/hookexec"
)

func main() {
	cfg := config.Load()
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("create data dir: %v", err)
	}

	db, err := history.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	store := history.NewStore(db)
	hooks := hookcfg.NewStore(hookcfg.DefaultPath(cfg.BaseDir))
	executor := hookexec.NewExecutor(cfg.WorkDir, cfg.HookTimeout)

	dispatcher := dispatch.New(hooks, executor)
	dispatcher.History = store

	bus := eventbus.NewBus()
	bus.SetProcessor(dispatcher.Processor())

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())

	apiServer := &api.Server{Bus: bus, History: store, StartedAt: time.Now()}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer.Handler())

	httpServer := &http.Server{
		Handler:           loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return serverCtx
		},
	}

	go func() {
		log.Printf("hooksd listening on %s", listener.Addr())
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	serverCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	_ = httpServer.Close()
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
