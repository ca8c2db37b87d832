package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var heroAll bool

// heroCmd は、単体キャラクターのヒーローショット（リファレンス画像）を生成するのだ。
var heroCmd = &cobra.Command{
	Use:   "hero [character-id]",
	Short: "キャラクターのヒーローショットを生成しますなのだ。",
	Long: `カタログのキャラクター定義とアクティブスタイルからプロンプトを合成し、
1枚のリファレンス画像を生成するのだ。--all で全キャラクターを一括生成できるのだよ。`,
	Args: cobra.MaximumNArgs(1),
	RunE: heroCommand,
}

func init() {
	heroCmd.Flags().BoolVar(&heroAll, "all", false, "全キャラクターのヒーローショットを一括生成するのだ。")
}

func heroCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := requireAPIKey(); err != nil {
		return err
	}
	if !heroAll && len(args) == 0 {
		return fmt.Errorf("キャラクターIDか --all を指定してほしいのだ")
	}

	appCtx, err := setupApp(ctx)
	if err != nil {
		return err
	}

	if heroAll {
		slog.Info("全キャラクターのヒーローショットを生成するのだ！",
			"count", len(appCtx.Store.CharacterIDs()),
			"estimated_cost_usd", appCtx.Pipeline.EstimateBatchCost(len(appCtx.Store.CharacterIDs())))
		results, batchErr := appCtx.Pipeline.GenerateAllHeroes(ctx, requestOptions())
		return reportBatch(results, batchErr)
	}

	res, err := appCtx.Pipeline.GenerateHero(ctx, args[0], requestOptions())
	if err != nil {
		return fmt.Errorf("ヒーローショットの生成に失敗したのだ: %w", err)
	}
	reportResult(res)
	return nil
}
