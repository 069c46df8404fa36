package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"crawlnet/config"
	"crawlnet/logger"
	"crawlnet/server"
	"crawlnet/transport"
)

// crawlnet 服务端入口：UDP 游戏端口 + HTTP 管理/观战端口
func main() {
	var (
		cfgPath  string
		addr     string
		httpAddr string
		logFile  string
	)
	flag.StringVar(&cfgPath, "config", "config.yaml", "path to YAML config (missing file means defaults)")
	flag.StringVar(&addr, "addr", "", "UDP game address, overrides server.addr")
	flag.StringVar(&httpAddr, "http", "", "HTTP admin address, overrides server.http_addr")
	flag.StringVar(&logFile, "log", "", "log file, overrides log.file (empty means stderr)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if httpAddr != "" {
		cfg.Server.HTTPAddr = httpAddr
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Log.File, cfg.Log.Level); err != nil {
		panic(err)
	}
	defer logger.Sync()

	conn, err := transport.ListenUDP(cfg.Server.Addr, cfg.Server.QueueSize)
	if err != nil {
		logger.Log.Fatalf("bind %s: %v", cfg.Server.Addr, err)
	}
	defer conn.Close()

	srv, err := server.New(cfg, conn)
	if err != nil {
		logger.Log.Fatalf("server: %v", err)
	}

	// 优雅退出（Ctrl+C）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpSrv := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: srv.Mux()}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	g.Go(func() error {
		logger.Log.Infof("crawlnet listening on udp %s, admin on http://localhost%s/metrics", conn.LocalAddr(), cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Errorf("exit: %v", err)
	}
	logger.Log.Infof("dropped %d datagrams on a full receive queue", conn.Dropped())
}
