package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sceneChars []string

// sceneCmd は、自由文のシーン描写から物語イラストを生成するのだ。
var sceneCmd = &cobra.Command{
	Use:   "scene [description...]",
	Short: "シーン描写から物語イラストを生成しますなのだ。",
	Long: `自由文のシーン描写にキャラクター説明とスタイルを重ねて1枚生成するのだ。
キャラクターの一貫性維持のため、参照画像（--ref）が必須なのだよ。`,
	Args: cobra.MinimumNArgs(1),
	RunE: sceneCommand,
}

func init() {
	sceneCmd.Flags().StringSliceVar(&sceneChars, "chars", nil, "シーンに登場するキャラクターIDなのだ。")
}

func sceneCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := requireAPIKey(); err != nil {
		return err
	}

	appCtx, err := setupApp(ctx)
	if err != nil {
		return err
	}

	description := strings.Join(args, " ")
	res, err := appCtx.Pipeline.GenerateScene(ctx, description, sceneChars, requestOptions())
	if err != nil {
		return fmt.Errorf("シーンの生成に失敗したのだ: %w", err)
	}
	reportResult(res)
	return nil
}
