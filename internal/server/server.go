package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"camserve/internal/config"
)

// defaultShutdownTimeout は設定がない場合のシャットダウン猶予
const defaultShutdownTimeout = 5 * time.Second

func init() {
	// デバッグモードの警告表示をステータス表示に混ぜない
	gin.SetMode(gin.ReleaseMode)
}

// Server はHTTPサーバーを管理する構造体
type Server struct {
	config     *config.Config
	log        *zap.Logger
	engine     *gin.Engine
	httpServer *http.Server
	listener   net.Listener
}

// New は新しいServerインスタンスを作成する
func New(cfg *config.Config, log *zap.Logger) *Server {
	s := &Server{
		config: cfg,
		log:    log,
		engine: gin.New(),
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.ServerAddress(),
		Handler:           s.engine,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ErrorLog:          zap.NewStdLog(log.Named("http")),
	}
	return s
}

// setupRoutes はミドルウェアと静的ファイルハンドラを設定する
func (s *Server) setupRoutes() {
	s.engine.Use(
		Recovery(s.log),
		CrossOriginIsolation(),
		RequestID(),
		RequestLogger(s.log),
		AllowMethods(http.MethodGet, http.MethodHead),
	)

	handlers := []gin.HandlerFunc{GuardPath()}
	if s.config.Static.NoCache {
		handlers = append(handlers, NoCache())
	}
	handlers = append(handlers, staticHandler(s.config.Static.Root))

	// ルートを登録しないので、すべてのリクエストが静的ファイル配信に渡る
	s.engine.NoRoute(handlers...)
}

// Handler はミドルウェア込みのHTTPハンドラを返す
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Listen はリスナーをバインドする
// 失敗した場合は *BindError を返す
func (s *Server) Listen() error {
	addr := s.config.ServerAddress()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return &BindError{Addr: addr, Err: err}
	}
	s.listener = &isolationListener{Listener: ln}

	s.log.Info("リスナーをバインドしました",
		zap.String("addr", ln.Addr().String()),
		zap.String("root", s.config.Static.Root),
	)
	return nil
}

// Addr はバインド済みのアドレスを返す
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve はコンテキストがキャンセルされるまでリクエストを処理する
// キャンセル後はグレースフルにシャットダウンしてnilを返す
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("リスナーがバインドされていません")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("サーバーの実行に失敗: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return s.Shutdown()
	})

	return g.Wait()
}

// Start はリスナーをバインドしてリクエストの処理を開始する
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Shutdown はサーバーをグレースフルにシャットダウンする
// 猶予時間内に終わらない接続は強制的に閉じる
func (s *Server) Shutdown() error {
	s.log.Debug("サーバーをシャットダウンしています")

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("サーバーのシャットダウンに失敗: %w", err)
		}
		s.log.Warn("シャットダウンがタイムアウトしたため接続を強制終了します")
		if err := s.httpServer.Close(); err != nil {
			return fmt.Errorf("サーバーの強制終了に失敗: %w", err)
		}
	}

	s.log.Debug("サーバーが正常にシャットダウンされました")
	return nil
}
