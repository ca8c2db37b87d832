package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/asset"
	"github.com/shouni/go-storybook-kit/pkg/catalog"

	"github.com/spf13/cobra"
)

// listCmd は、カタログの内容を一覧表示するのだ。APIキーは不要なのだ。
var listCmd = &cobra.Command{
	Use:   "list [characters|locations|styles|books|images]",
	Short: "カタログのエンティティや生成済み画像を一覧表示しますなのだ。",
	Args:  cobra.MaximumNArgs(1),
	RunE:  listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	store, err := catalog.Load(opts.CatalogFile)
	if err != nil {
		return err
	}

	section := "all"
	if len(args) > 0 {
		section = args[0]
	}

	out := cmd.OutOrStdout()
	switch section {
	case "characters":
		printCharacters(out, store)
	case "locations":
		printLocations(out, store)
	case "styles":
		printStyles(out, store)
	case "books":
		printBooks(out, store)
	case "images":
		return printGeneratedImages(out, store)
	case "all":
		printCharacters(out, store)
		printLocations(out, store)
		printStyles(out, store)
		printBooks(out, store)
	default:
		return fmt.Errorf("未知のセクションなのだ: %q (characters / locations / styles / books / images)", section)
	}
	return nil
}

func printCharacters(out io.Writer, store *catalog.Store) {
	fmt.Fprintln(out, "== Characters ==")
	for _, c := range store.ListCharacters() {
		virtues := ""
		if len(c.Virtues) > 0 {
			virtues = " [" + strings.Join(c.Virtues, ", ") + "]"
		}
		fmt.Fprintf(out, "  %-16s %s (%s)%s\n", c.ID, c.Name, c.Role, virtues)
	}
}

func printLocations(out io.Writer, store *catalog.Store) {
	fmt.Fprintln(out, "== Locations ==")
	for _, l := range store.ListLocations() {
		fmt.Fprintf(out, "  %-16s %s\n", l.ID, l.Name)
	}
}

func printStyles(out io.Writer, store *catalog.Store) {
	fmt.Fprintln(out, "== Styles ==")
	for _, s := range store.ListStyles() {
		marker := " "
		if s.ID == store.ActiveStyleID() {
			marker = "*" // アクティブスタイル
		}
		fmt.Fprintf(out, " %s%-16s %s\n", marker, s.ID, s.Name)
	}
}

func printBooks(out io.Writer, store *catalog.Store) {
	fmt.Fprintln(out, "== Books ==")
	for _, b := range store.ListBooks() {
		fmt.Fprintf(out, "  %-16s #%d %q (%s) pages=%d\n", b.ID, b.Number, b.Title, b.Virtue, len(b.Scenes))
	}
}

// printGeneratedImages は、出力ディレクトリにある生成済みページ画像を
// ブックごとに一覧表示するのだ。
func printGeneratedImages(out io.Writer, store *catalog.Store) error {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = asset.DefaultOutputDir
	}
	format := store.API().Defaults.OutputFormat

	fmt.Fprintln(out, "== Generated Images ==")
	for _, b := range store.ListBooks() {
		pages, err := asset.ListGeneratedPages(outputDir, b.ID, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-16s %d/%d pages\n", b.ID, len(pages), len(b.Scenes))
		for _, p := range pages {
			fmt.Fprintf(out, "    %s\n", p)
		}
	}
	return nil
}
