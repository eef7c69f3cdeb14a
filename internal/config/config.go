package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPort はサーバーのデフォルトポート番号
const DefaultPort = 8000

// Config はアプリケーション全体の設定を保持する構造体
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Static  StaticConfig  `yaml:"static"`
	Browser BrowserConfig `yaml:"browser"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig はHTTPサーバーの設定
type ServerConfig struct {
	Host string `yaml:"host"` // リッスンするホスト (空なら全インターフェース)
	Port int    `yaml:"port"` // リッスンするポート番号

	// タイムアウト設定
	ReadTimeout       time.Duration `yaml:"read_timeout"`        // 読み込みタイムアウト
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"` // ヘッダー読み込みタイムアウト
	WriteTimeout      time.Duration `yaml:"write_timeout"`       // 書き込みタイムアウト
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`    // シャットダウンの猶予
}

// StaticConfig は静的ファイル配信の設定
type StaticConfig struct {
	Root    string `yaml:"root"`     // ドキュメントルート (空なら実行ファイルのディレクトリ)
	NoCache bool   `yaml:"no_cache"` // Cache-Control: no-cache を付与する
}

// BrowserConfig はブラウザ自動起動の設定
type BrowserConfig struct {
	Disabled bool `yaml:"disabled"`
}

// LogConfig はログ出力の設定
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Default はデフォルト設定を返す
// ドキュメントルートは未解決のまま
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "",
			Port:              DefaultPort,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      0, // 大きなファイル配信のため無効化
			ShutdownTimeout:   5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load は設定を読み込む
// デフォルト値に環境変数を重ね、ドキュメントルートを解決して検証する
func Load() (*Config, error) {
	return finish(Default())
}

// LoadFile はYAMLファイルの設定をデフォルト値に重ねて読み込む
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込みに失敗: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルの解析に失敗: %w", err)
	}

	// 相対パスは設定ファイルの位置を基準にする
	if cfg.Static.Root != "" && !filepath.IsAbs(cfg.Static.Root) {
		cfg.Static.Root = filepath.Join(filepath.Dir(path), cfg.Static.Root)
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", cfg.Server.Host)
	port, err := getEnvAsIntOrDefault("PORT", cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = port
	cfg.Log.Level = getEnvOrDefault("LOG_LEVEL", cfg.Log.Level)

	if err := cfg.ResolveRoot(); err != nil {
		return nil, err
	}

	// 設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("設定の検証に失敗: %w", err)
	}

	return cfg, nil
}

// ResolveRoot はドキュメントルートを絶対パスに解決する
// 未指定の場合は実行ファイルのあるディレクトリを使う
func (c *Config) ResolveRoot() error {
	root := c.Static.Root
	if root == "" {
		dir, err := ExecutableDir()
		if err != nil {
			return err
		}
		root = dir
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("ドキュメントルートの解決に失敗: %w", err)
	}
	c.Static.Root = abs
	return nil
}

// ExecutableDir は実行中のプログラムがあるディレクトリを返す
// go run のように一時ディレクトリから実行された場合はカレントディレクトリを返す
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("実行ファイルのパス取得に失敗: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	tmp := os.TempDir()
	if resolved, err := filepath.EvalSymlinks(tmp); err == nil {
		tmp = resolved
	}

	dir := filepath.Dir(exe)
	if isUnder(dir, tmp) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("カレントディレクトリの取得に失敗: %w", err)
		}
		return wd, nil
	}
	return dir, nil
}

// Validate は設定の妥当性を検証する
func (c *Config) Validate() error {
	// サーバー設定の検証 (0 は空きポートの自動割り当て)
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("無効なポート番号: %d", c.Server.Port)
	}

	if c.Static.Root == "" {
		return errors.New("ドキュメントルートが設定されていません")
	}
	info, err := os.Stat(c.Static.Root)
	if err != nil {
		return fmt.Errorf("ドキュメントルートにアクセスできません: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("ドキュメントルートがディレクトリではありません: %s", c.Static.Root)
	}

	switch c.Log.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("無効なログフォーマット: %s", c.Log.Format)
	}

	return nil
}

// ServerAddress はサーバーのリッスンアドレスを返す
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// BaseURL はブラウザで開くURLを返す
func (c *Config) BaseURL() string {
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}

// DebugURL はデバッグページのURLを返す
func (c *Config) DebugURL() string {
	return c.BaseURL() + "/debug.html"
}

// getEnvOrDefault は環境変数を取得し、設定されていない場合はデフォルト値を返す
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は環境変数を整数として取得し、設定されていない場合はデフォルト値を返す
// 整数として解釈できない値はエラーにする
func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("環境変数 %s の値が整数ではありません: %q", key, value)
	}
	return intVal, nil
}

func isUnder(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
