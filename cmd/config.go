package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/catalog"

	"github.com/spf13/cobra"
)

var (
	configGet    string
	configSet    string
	configExport string
	configStyle  string
)

// configCmd は、カタログ設定の参照・更新を行うのだ。APIキーは不要なのだ。
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "カタログ設定の参照・更新を行いますなのだ。",
	Long: `ドット区切りパス（例: api.defaults.guidance_scale）で設定値を参照・更新するのだ。
更新は既存のキーと同じ型の値のみ許可され、検証に通った場合だけ保存されるのだよ。`,
	RunE: configCommand,
}

func init() {
	configCmd.Flags().StringVar(&configGet, "get", "", "参照する設定パス（ドット区切り）なのだ。")
	configCmd.Flags().StringVar(&configSet, "set", "", "更新する設定（path=value 形式）なのだ。")
	configCmd.Flags().StringVar(&configExport, "export", "", "カタログ全体の書き出し先パスなのだ。")
	configCmd.Flags().StringVar(&configStyle, "use-style", "", "アクティブスタイルを切り替えるのだ。")
}

func configCommand(cmd *cobra.Command, args []string) error {
	store, err := catalog.Load(opts.CatalogFile)
	if err != nil {
		return err
	}

	switch {
	case configGet != "":
		value, err := store.Get(configGet)
		if err != nil {
			return err
		}
		return printJSON(cmd, value)

	case configSet != "":
		path, rawValue, found := strings.Cut(configSet, "=")
		if !found {
			return fmt.Errorf("--set は path=value 形式で指定してほしいのだ")
		}
		if err := store.Set(path, parseValue(rawValue)); err != nil {
			return err
		}
		if err := store.Save(); err != nil {
			return err
		}
		slog.Info("設定を更新したのだ！", "path", path)
		return nil

	case configStyle != "":
		if err := store.SetActiveStyle(configStyle); err != nil {
			return err
		}
		if err := store.Save(); err != nil {
			return err
		}
		slog.Info("アクティブスタイルを切り替えたのだ！", "style", configStyle)
		return nil

	case configExport != "":
		if err := store.Export(configExport); err != nil {
			return err
		}
		slog.Info("カタログを書き出したのだ！", "path", configExport)
		return nil

	default:
		// フラグ未指定ならカタログ全体を表示するのだ
		data, err := store.ExportBytes()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
}

// parseValue は --set の値をJSONリテラルとして解釈するのだ。
// 数値・真偽値・null・引用符付き文字列はJSONとして、それ以外は素の文字列として扱うのだ。
func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// printJSON は値を整形済みJSONで標準出力へ書き出すのだ。
func printJSON(cmd *cobra.Command, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("設定値のエンコードに失敗したのだ: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
