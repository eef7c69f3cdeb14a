package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"camserve/internal/config"
	"camserve/internal/launch"
	"camserve/internal/logger"
)

// Execute はシグナルで停止するまでサーバーを実行し、終了コードを返す
// 正常停止は0、バインド失敗などのエラーは1
func Execute(cfg *config.Config) int {
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ロガーの作成に失敗しました: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = Run(ctx, cfg, log, Options{
		Out:    os.Stdout,
		Opener: launch.DefaultOpener,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "サーバーの起動に失敗しました: %v\n", err)
		return 1
	}
	return 0
}
