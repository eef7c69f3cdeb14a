// Package launch はブラウザの自動起動を担当します。
//
// 起動は常にベストエフォートで、失敗してもサーバーの動作には影響しません。
package launch

import (
	"io"

	"github.com/pkg/browser"
	"go.uber.org/zap"
)

// Opener はURLをブラウザで開く関数
type Opener func(url string) error

func init() {
	// xdg-open などの出力をステータス表示に混ぜない
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// DefaultOpener はOS標準のブラウザでURLを開く
func DefaultOpener(url string) error {
	return browser.OpenURL(url)
}

// TryOpen はURLをブラウザで開く
// エラーもパニックも握りつぶし、デバッグログにのみ残す
func TryOpen(open Opener, url string, log *zap.Logger) {
	if open == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Debug("ブラウザの起動中にパニックが発生しました", zap.String("url", url), zap.Any("panic", r))
		}
	}()

	if err := open(url); err != nil {
		log.Debug("ブラウザを起動できませんでした", zap.String("url", url), zap.Error(err))
		return
	}
	log.Debug("ブラウザを起動しました", zap.String("url", url))
}
