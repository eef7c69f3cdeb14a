package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// staticHandler はドキュメントルート配下のファイルを配信する
// index.html の解決、ディレクトリ一覧、Content-Type の推定、
// 存在しないファイルへの404は http.FileServer に任せる
func staticHandler(root string) gin.HandlerFunc {
	return gin.WrapH(http.FileServer(http.Dir(root)))
}
