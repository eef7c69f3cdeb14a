// Package app はサーバー起動の一連の手順をまとめます。
//
// バインド → ステータス表示 → ブラウザ起動 → 配信 の順に実行し、
// バインドに失敗した場合はステータスを表示せずにエラーを返します。
package app

import (
	"context"
	"fmt"
	"io"
	"net"

	"go.uber.org/zap"

	"camserve/internal/config"
	"camserve/internal/launch"
	"camserve/internal/server"
)

// Options は起動時の差し替え可能な依存
type Options struct {
	Out    io.Writer     // ステータス表示の出力先
	Opener launch.Opener // nil の場合はブラウザを開かない
}

// Run はサーバーを起動し、コンテキストがキャンセルされるまでブロックする
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) error {
	srv := server.New(cfg, log)

	if err := srv.Listen(); err != nil {
		return err
	}

	// ポート0の場合は実際に割り当てられたポートを表示する
	bound := *cfg
	if tcp, ok := srv.Addr().(*net.TCPAddr); ok {
		bound.Server.Port = tcp.Port
	}

	printBanner(opts.Out, &bound)

	// ブラウザの起動は配信と並行して行う
	// xdg-open などが終了を待つ場合でも配信は止まらない
	if !cfg.Browser.Disabled && opts.Opener != nil {
		go launch.TryOpen(opts.Opener, bound.BaseURL(), log)
	}

	return srv.Serve(ctx)
}

func printBanner(w io.Writer, cfg *config.Config) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, "🎮 Game Boy Camera Server")
	fmt.Fprintf(w, "📱 Serving at: %s\n", cfg.BaseURL())
	fmt.Fprintf(w, "🐛 Debug page: %s\n", cfg.DebugURL())
	fmt.Fprintln(w, "⏹️  Press Ctrl+C to stop")
}
