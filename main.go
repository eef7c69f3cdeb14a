package main

import (
	"fmt"
	"os"

	"camserve/internal/app"
	"camserve/internal/config"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗しました: %v\n", err)
		os.Exit(1)
	}

	// 割り込みを受けるまで配信する
	os.Exit(app.Execute(cfg))
}
