package builder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/pkg/catalog"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/pipeline"
	"github.com/shouni/go-storybook-kit/pkg/prompts"

	gocache "github.com/patrickmn/go-cache"
	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// 参照画像アップロードのキャッシュ設定です。
const (
	uploadCacheExpiry  = 30 * time.Minute
	uploadCacheCleanup = 10 * time.Minute
)

// Setup は、提供された設定を基にアプリケーションコンテキストを初期化して返すのだ。
// カタログのロード、HTTPクライアント、入出力、生成パイプラインをここで結線します。
func Setup(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	httpClient := httpkit.New(cfg.Options.HTTPTimeout)

	store, err := catalog.Load(cfg.Options.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("カタログのロードに失敗しました: %w", err)
	}

	reader, writer, err := setupRemoteIO(ctx)
	if err != nil {
		return nil, err
	}

	synth := buildSynthesizer(cfg, store, httpClient, reader, writer)
	pipe := buildPipeline(cfg, store, synth)

	appCtx := NewAppContext(cfg, httpClient, store, reader, writer, pipe)
	return &appCtx, nil
}

// setupRemoteIO は入出力クライアントを初期化します。
// 書き込み側の取得失敗（読み取り専用環境など）は警告に留め、nil を返します。
// その場合、生成画像はリモートURLのみが結果として返ります。
func setupRemoteIO(ctx context.Context) (remoteio.InputReader, remoteio.OutputWriter, error) {
	gcsFactory, err := gcsfactory.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCS client factory: %w", err)
	}

	reader, err := gcsFactory.InputReader()
	if err != nil {
		return nil, nil, err
	}

	writer, err := gcsFactory.OutputWriter()
	if err != nil {
		slog.WarnContext(ctx, "OutputWriterの取得に失敗しました。画像の保存をスキップしてURLのみ返します", "error", err)
		writer = nil
	}
	return reader, writer, nil
}

// buildSynthesizer は fal.run クライアントを構築します。
// モデル名はカタログ → 環境変数の順で解決します（環境変数が最優先）。
// reader 経由で参照画像を読むため、gs:// 上の参照も指定できます。
func buildSynthesizer(cfg *config.Config, store *catalog.Store, httpClient httpkit.HTTPClient, reader remoteio.InputReader, writer remoteio.OutputWriter) generator.ImageSynthesizer {
	model := store.API().Model
	if cfg.FluxModel != "" {
		model = cfg.FluxModel
	}

	uploadCache := gocache.New(uploadCacheExpiry, uploadCacheCleanup)

	return generator.NewFluxClient(httpClient, uploadCache, reader, writer, generator.ClientConfig{
		APIKey:       cfg.FalAPIKey,
		Model:        model,
		Endpoint:     cfg.FalEndpoint,
		CostPerImage: store.API().CostPerImage,
	})
}

// buildPipeline は生成パイプラインを構築します。
// リクエスト間隔はカタログの generation_settings から引きます。
func buildPipeline(cfg *config.Config, store *catalog.Store, synth generator.ImageSynthesizer) *pipeline.Pipeline {
	interval := time.Duration(store.Generation().RateLimitDelaySeconds * float64(time.Second))

	return pipeline.New(store, prompts.NewComposer(store), synth, pipeline.Options{
		OutputDir:   cfg.Options.OutputDir,
		Concurrency: cfg.Options.Concurrency,
		Interval:    interval,
	})
}
