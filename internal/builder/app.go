package builder

import (
	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/pkg/catalog"
	"github.com/shouni/go-storybook-kit/pkg/pipeline"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各コマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config          // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、モデル名など）。
	Options  config.GenerateOptions  // Optionsは、コマンドラインから渡された実行時の設定です。
	Store    *catalog.Store          // Storeは、キャラクター・ブック等のマスターカタログです。
	Reader   remoteio.InputReader    // Readerは、外部データの読み込みに使用する入力元です。
	Writer   remoteio.OutputWriter   // Writerは、生成画像の保存先です。読み取り専用環境では nil になります。
	Pipeline *pipeline.Pipeline      // Pipelineは、プロンプト合成と画像生成を束ねるオーケストレーターです。
	client   httpkit.HTTPClient // client は外部APIとの通信に使う共通クライアント
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	client httpkit.HTTPClient,
	store *catalog.Store,
	reader remoteio.InputReader,
	writer remoteio.OutputWriter,
	pipe *pipeline.Pipeline,
) AppContext {
	return AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Store:    store,
		Reader:   reader,
		Writer:   writer,
		Pipeline: pipe,
		client:   client,
	}
}
