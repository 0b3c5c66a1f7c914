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

	_ "github.com/jackc/pgx/v5/stdlib"

	"praxis.legal/internal/audit"
	"praxis.legal/internal/authz"
	"praxis.legal/internal/httpapi"
	"praxis.legal/internal/obs"
	"praxis.legal/internal/practice"
	"praxis.legal/internal/ratelimit"
	"praxis.legal/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("PRAXIS_PG_DSN")
	if dsn == "" {
		log.Fatal("missing PRAXIS_PG_DSN")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	guard, err := authz.NewGuard(store)
	if err != nil {
		log.Fatalf("guard: %v", err)
	}
	recorder := audit.NewRecorder(guard, store)
	limiter := ratelimit.New()

	svc, err := practice.NewService(guard, store, recorder, limiter)
	if err != nil {
		log.Fatalf("service: %v", err)
	}

	probe := httpapi.ReadyProbe{DB: store.DB()}
	api := httpapi.New(svc, store, probe, version)

	handler := httpapi.SecurityHeaders(
		httpapi.CORS(
			httpapi.MaxBodyBytes(
				httpapi.RateLimit(
					httpapi.LoggingJSON(api.Handler()),
					20, 10),
				1<<20)))

	srv := &http.Server{
		Addr:              httpAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcSrv := httpapi.NewGRPCServer(probe)
	watchCtx, stopWatch := context.WithCancel(context.Background())
	go grpcSrv.WatchReadiness(watchCtx, 10*time.Second)

	go func() {
		lis, err := net.Listen("tcp", grpcAddr())
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		if err := grpcSrv.Serve(lis); err != nil {
			log.Fatalf("grpc serve: %v", err)
		}
	}()

	log.Printf("Starting praxis-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	stopWatch()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	grpcSrv.Stop()
	_ = store.Close()
	log.Println("Stopped")
}

func httpAddr() string {
	if addr := os.Getenv("PRAXIS_HTTP_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

func grpcAddr() string {
	if addr := os.Getenv("PRAXIS_GRPC_ADDR"); addr != "" {
		return addr
	}
	return ":9090"
}
