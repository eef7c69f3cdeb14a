// Package main はcamserveのオプション付きサーバーコマンドの実装です
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"camserve/internal/app"
	"camserve/internal/config"
)

func main() {
	// コマンドラインオプション
	var (
		configPath = flag.StringP("config", "c", "", "YAML設定ファイルのパス")
		host       = flag.String("host", "", "サーバーのホスト (デフォルト: 全インターフェース)")
		port       = flag.IntP("port", "p", 0, "サーバーのポート (デフォルト: 8000)")
		root       = flag.StringP("root", "r", "", "ドキュメントルート (デフォルト: 実行ファイルのディレクトリ)")
		noBrowser  = flag.Bool("no-browser", false, "ブラウザを自動で開かない")
		noCache    = flag.Bool("no-cache", false, "Cache-Control: no-cache を付与する")
		logLevel   = flag.String("log-level", "", "ログレベル (debug, info, warn, error)")
		help       = flag.BoolP("help", "h", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("camserve")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗しました: %v\n", err)
		os.Exit(1)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *root != "" {
		cfg.Static.Root = *root
		if err := cfg.ResolveRoot(); err != nil {
			fmt.Fprintf(os.Stderr, "ドキュメントルートの解決に失敗しました: %v\n", err)
			os.Exit(1)
		}
	}
	if *noBrowser {
		cfg.Browser.Disabled = true
	}
	if *noCache {
		cfg.Static.NoCache = true
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "設定の検証に失敗しました: %v\n", err)
		os.Exit(1)
	}

	os.Exit(app.Execute(cfg))
}
