package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"lanvault/config"
	"lanvault/discovery"
	"lanvault/logging"
	"lanvault/server"
	"lanvault/terminal"
	"lanvault/vault"
)

func main() {
	var port uint
	var root string
	flag.UintVar(&port, "port", 0, "The port to listen on (overrides $LANVAULT_PORT)")
	flag.StringVar(&root, "root", "", "The storage root (overrides $LANVAULT_ROOT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if port != 0 {
		cfg.Port = int(port)
	}
	if root != "" {
		cfg.Root = root
	}

	if err := logging.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logging.Sync()
	log := logging.L()

	backend, err := buildBackend(cfg)
	if err != nil {
		log.Fatal("storage backend", zap.Error(err))
	}
	defer backend.Close()

	svc, err := vault.NewService(cfg.Root, backend, vault.Options{
		MaxUploadBytes:    cfg.MaxUploadBytes(),
		PreviewLimitBytes: cfg.PreviewLimitBytes(),
	}, log.Named("vault"))
	if err != nil {
		log.Fatal("vault", zap.Error(err))
	}

	files := server.NewHandler(svc, log.Named("http"))
	term := terminal.NewHandler(cfg.TerminalShell, svc.Root(), cfg.TerminalIdleTimeout(), log.Named("terminal"))
	router := server.NewRouter(files, term, log.Named("http"))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	var announcer *discovery.Announcer
	if cfg.Discovery {
		announcer = discovery.New(discovery.Config{
			Instance:    cfg.InstanceName,
			Port:        cfg.Port,
			Description: "lanvault file manager",
		}, log.Named("discovery"))
		if err := announcer.Start(); err != nil {
			// The file manager works fine without being browsable.
			log.Warn("discovery unavailable", zap.Error(err))
			announcer = nil
		}
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()
	log.Info("started", zap.Int("port", cfg.Port), zap.String("root", svc.Root()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if announcer != nil {
		announcer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}

// buildBackend selects the storage backend. With LANVAULT_SFTP_ADDR set, the
// storage root lives on the remote host; otherwise it is a local directory,
// created on first start.
func buildBackend(cfg *config.Config) (vault.Backend, error) {
	if cfg.SFTPAddr != "" {
		return vault.DialSFTP(cfg.SFTPAddr, cfg.SFTPUser, cfg.SFTPPassword)
	}
	if err := os.MkdirAll(cfg.Root, 0750); err != nil {
		return nil, err
	}
	return vault.NewLocalBackend(), nil
}
