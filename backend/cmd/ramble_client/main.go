package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"ramblathon/backend/config"
	"ramblathon/backend/internal/client"
	"ramblathon/backend/internal/surface"
	"ramblathon/backend/internal/ws"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("RAMBLE_DEBUG") != "" {
		return zap.NewDevelopment()
	}
	// 日志走 stderr，stdout 留给文档本身
	return zap.NewProduction()
}

func main() {
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	cfg, err := config.LoadClient()
	if err != nil {
		zap.S().Fatalf("init config failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := surface.NewTerminal(os.Stdin, os.Stdout)
	session := client.NewSession(client.Config{
		Endpoint:          cfg.Endpoint,
		FlushInterval:     cfg.FlushInterval,
		ReconnectInterval: cfg.ReconnectInterval,
		SendQueue:         cfg.SendQueue,
		LoadingText:       cfg.LoadingText,
		ClosedText:        cfg.ClosedText,
	}, term, ws.NewDialer(cfg.HandshakeTimeout))

	session.Start(ctx)

	go func() {
		// stdin 关闭（EOF）也算退出
		if err := term.Run(ctx); err != nil {
			zap.S().Infof("terminal input stopped: %v", err)
		}
		stop()
	}()

	<-ctx.Done()
	session.Stop()
}
