package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/infinite-iroha/dufs/internal/dufsd"
	"github.com/infinite-iroha/dufs/touka"
)

func main() {
	cfg, err := dufsd.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "dufs:", err)
		os.Exit(2)
	}

	srv := dufsd.NewServer(cfg)

	engine := touka.Default()
	srv.Register(engine)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		srv.Shutdown()
	}()

	log.Printf("dufs listening on %s, serving %s under %s", cfg.BindAddr, cfg.RootPath, cfg.URIPrefix)
	if err := engine.RunShutdown(cfg.BindAddr, 10*time.Second); err != nil {
		fmt.Fprintln(os.Stderr, "dufs:", err)
		os.Exit(1)
	}
}
