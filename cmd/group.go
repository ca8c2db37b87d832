package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// groupCmd は、複数キャラクターの集合ショットを生成するのだ。
var groupCmd = &cobra.Command{
	Use:   "group [character-id...]",
	Short: "複数キャラクターの集合ショットを生成しますなのだ。",
	Long: `指定した順序のままキャラクターを並べた集合ショットを1枚生成するのだ。
順序は構図上の意図として扱われ、並べ替えは行わないのだよ。`,
	Args: cobra.MinimumNArgs(1),
	RunE: groupCommand,
}

func groupCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := requireAPIKey(); err != nil {
		return err
	}

	appCtx, err := setupApp(ctx)
	if err != nil {
		return err
	}

	res, err := appCtx.Pipeline.GenerateGroup(ctx, args, requestOptions())
	if err != nil {
		return fmt.Errorf("集合ショットの生成に失敗したのだ: %w", err)
	}
	reportResult(res)
	return nil
}
