package cmd

import (
	"log/slog"

	"github.com/shouni/go-storybook-kit/pkg/pipeline"

	"github.com/spf13/cobra"
)

var (
	bookPages   []int
	bookNoCover bool
)

// bookCmd は、ブック1冊分（表紙＋全ページ）を一括生成するのだ。
var bookCmd = &cobra.Command{
	Use:   "book [book-id]",
	Short: "ブック1冊分のイラストを一括生成しますなのだ。",
	Long: `ブック定義の全シーンをページ番号順に一括生成するのだ。
1件の失敗でバッチは止まらず、結果は入力順のまま全件報告されるのだよ。`,
	Args: cobra.ExactArgs(1),
	RunE: bookCommand,
}

func init() {
	bookCmd.Flags().IntSliceVar(&bookPages, "pages", nil, "生成対象のページ番号（未指定なら全ページ）なのだ。")
	bookCmd.Flags().BoolVar(&bookNoCover, "no-cover", false, "表紙の生成を省略するのだ。")
}

func bookCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := requireAPIKey(); err != nil {
		return err
	}

	appCtx, err := setupApp(ctx)
	if err != nil {
		return err
	}

	slog.Info("ブックの一括生成を開始するのだ！",
		"book", args[0],
		"pages", bookPages,
		"concurrency", opts.Concurrency,
	)

	results, batchErr := appCtx.Pipeline.GenerateBook(ctx, args[0], pipeline.BookOptions{
		Pages:     bookPages,
		SkipCover: bookNoCover,
		StyleID:   opts.Style,
		Reference: opts.Reference,
	})
	if results == nil && batchErr != nil {
		// カタログ検証の段階で失敗した場合（未知のブックやページ番号など）
		return batchErr
	}
	return reportBatch(results, batchErr)
}
