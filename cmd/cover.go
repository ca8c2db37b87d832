package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// coverCmd は、ブックの表紙イラストを生成するのだ。
var coverCmd = &cobra.Command{
	Use:   "cover [book-id]",
	Short: "ブックの表紙イラストを生成しますなのだ。",
	Long: `ブックのタイトル・徳目・主役キャラクターから表紙を1枚生成するのだ。
キャラクターの一貫性維持のため、参照画像（--ref）が必須なのだよ。`,
	Args: cobra.ExactArgs(1),
	RunE: coverCommand,
}

func coverCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := requireAPIKey(); err != nil {
		return err
	}

	appCtx, err := setupApp(ctx)
	if err != nil {
		return err
	}

	res, err := appCtx.Pipeline.GenerateCover(ctx, args[0], requestOptions())
	if err != nil {
		return fmt.Errorf("表紙の生成に失敗したのだ: %w", err)
	}
	reportResult(res)
	return nil
}
