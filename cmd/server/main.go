package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/limaJavier/coursetable/internal/app"
	"go.uber.org/zap"
)

func main() {
	addrPtr := flag.String("addr", "", "Address to listen on; defaults to $"+app.EnvAddr+" or :8080")
	flag.Parse()

	logger, err := app.NewLogger(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	env := app.LoadEnv(logger)
	addr := env.Addr
	if *addrPtr != "" {
		addr = *addrPtr
	}

	server := newServer(env, logger)
	logger.Info("listening", zap.String("addr", addr), zap.String("solver", env.Solver), zap.String("strategy", env.Strategy))
	if err := server.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
