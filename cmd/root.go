package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/shouni/go-storybook-kit/internal/builder"
	"github.com/shouni/go-storybook-kit/internal/config"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/pipeline"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は全コマンドで共有する実行時パラメータなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- カタログ・出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.CatalogFile, "catalog", "c", config.DefaultCatalogFile, "マスターカタログ（JSON）のパスなのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "生成画像の保存先ディレクトリ（ローカル or gs://...）なのだ。")
	rootCmd.PersistentFlags().StringVar(&opts.OutputName, "output-name", "", "既定のファイル名を上書きするのだ。")

	// --- 生成挙動設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Reference, "ref", "r", "", "参照画像（URLまたはローカルパス）なのだ。scene / cover では必須なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Style, "style", "s", "", "スタイルプリセットID（未指定ならアクティブスタイル）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Location, "location", "l", "", "ロケーションIDなのだ。")

	// --- 実行制御 ---
	rootCmd.PersistentFlags().IntVar(&opts.Concurrency, "concurrency", config.DefaultConcurrency, "バッチの同時実行数なのだ。1以下なら逐次実行なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "画像生成APIのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前の共通チェックなのだ。
// APIキーの必須チェックは課金対象の生成コマンド側でのみ行うのだ
// （list や config はキーなしで動く必要があるのだ）。
func preRunAppE(cmd *cobra.Command, args []string) error {
	return nil
}

// requireAPIKey は課金対象コマンドの実行前にAPIキーの存在を確認するのだ！
func requireAPIKey() error {
	if os.Getenv("FAL_KEY") == "" {
		return fmt.Errorf("エラー: 環境変数 FAL_KEY が設定されていません。画像生成APIの利用には必須なのだ: %w", domain.ErrMissingCredential)
	}
	return nil
}

// requestOptions は共通フラグを単発生成のオプションへ写すのだ。
func requestOptions() pipeline.RequestOptions {
	return pipeline.RequestOptions{
		StyleID:    opts.Style,
		LocationID: opts.Location,
		Reference:  opts.Reference,
		OutputName: opts.OutputName,
	}
}

// setupApp は環境変数とフラグから AppContext を構築するのだ。
func setupApp(ctx context.Context) (*builder.AppContext, error) {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return builder.Setup(ctx, cfg)
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"storybook-go",
		addAppFlags,
		preRunAppE,
		heroCmd,
		groupCmd,
		sceneCmd,
		coverCmd,
		bookCmd,
		listCmd,
		configCmd,
	)
}
