package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultModel       = "fal-ai/flux-pro/kontext"
	DefaultHTTPTimeout = 120 * time.Second // 画像生成は応答が遅いため長めに取るのだ
	DefaultCatalogFile = "examples/master_config.json"
	DefaultOutputDir   = "output"
	DefaultConcurrency = 1 // 課金対象APIのため既定は逐次実行
)

// Config はアプリケーション全体の環境設定（APIキーやエンドポイント）を保持する構造体なのだ。
type Config struct {
	FalAPIKey   string
	FluxModel   string
	FalEndpoint string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		FalAPIKey:   envutil.GetEnv("FAL_KEY", ""),
		FluxModel:   envutil.GetEnv("FLUX_MODEL", ""),
		FalEndpoint: envutil.GetEnv("FAL_ENDPOINT", ""),
	}
	return cfg
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// カタログ・出力関連
	CatalogFile string // --catalog
	OutputDir   string // --output-dir
	OutputName  string // --output-name

	// 生成挙動設定
	Reference string // --ref: 参照画像（URLまたはローカルパス）
	Style     string // --style: スタイルプリセットID
	Location  string // --location: ロケーションID

	// 実行制御
	Concurrency int           // --concurrency: 1以下で逐次実行
	HTTPTimeout time.Duration // --http-timeout
}
