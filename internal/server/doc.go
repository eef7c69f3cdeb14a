// Package server は、静的ファイル配信用のHTTPサーバーを管理します。
//
// このパッケージは、HTTPサーバーの起動、ミドルウェアの構成、
// ドキュメントルートからの静的ファイルの配信を担当します。
//
// 責務:
//   - リスナーのバインドとバインド失敗の報告 (BindError)
//   - 静的ファイル（HTML/CSS/JS）の配信
//   - すべてのレスポンスへのクロスオリジン分離ヘッダーの付与
//   - 不正なパスやメソッドの拒否
//   - シグナル受信時のグレースフルシャットダウン
//
// 仕様:
//   - ルーティングとミドルウェアはgin-gonic/ginを使用
//   - ファイル配信は標準ライブラリのhttp.FileServerをginでラップ
//   - ドキュメントルートの外側へのアクセスは拒否する
//   - 複数クライアントの同時接続をサポート
package server
