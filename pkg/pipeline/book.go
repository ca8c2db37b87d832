package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shouni/go-storybook-kit/pkg/asset"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/prompts"
)

// BookOptions はブック一括生成の呼び出し時オプションです。
type BookOptions struct {
	// Pages を指定すると、該当ページのみ生成します。空なら全ページです。
	// 定義に存在しないページ番号は外部APIを呼ぶ前に ReferenceError で弾きます。
	Pages []int
	// SkipCover が真なら表紙の生成を省略します。
	SkipCover bool
	StyleID   string
	// Reference は全シーン共通の参照画像です（集合ショット等）。
	Reference string
	Overrides *domain.ParamOverrides
}

// GenerateBook はブック1冊分（任意で表紙＋各ページ）を一括生成します。
// 結果は表紙を先頭に、続いてページ番号の昇順で並びます。
// シーンのキャラクター/ロケーションが未指定の場合はブックの定義を引き継ぎます。
func (p *Pipeline) GenerateBook(ctx context.Context, bookID string, opts BookOptions) ([]domain.GenerationResult, error) {
	book, err := p.store.Book(bookID)
	if err != nil {
		return nil, err
	}

	scenes, err := selectScenes(book, opts.Pages)
	if err != nil {
		return nil, err
	}

	items := make([]workItem, 0, len(scenes)+1)

	if !opts.SkipCover {
		coverPath, err := asset.CoverPath(p.opts.OutputDir, bookID, p.outputFormat())
		if err != nil {
			return nil, err
		}
		items = append(items, workItem{
			input: prompts.Input{
				Kind:      domain.KindCover,
				BookID:    bookID,
				StyleID:   opts.StyleID,
				Overrides: opts.Overrides,
			},
			reference:  opts.Reference,
			outputPath: coverPath,
			metadata:   map[string]string{"book_id": bookID, "kind": "cover"},
		})
	}

	for _, scene := range scenes {
		item, err := p.sceneItem(book, scene, opts)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return p.runBatch(ctx, items)
}

// sceneItem は1シーン分の生成指示を組み立てます。
func (p *Pipeline) sceneItem(book domain.Book, scene domain.Scene, opts BookOptions) (workItem, error) {
	outputPath, err := asset.ScenePath(p.opts.OutputDir, book.ID, scene.Page, p.outputFormat())
	if err != nil {
		return workItem{}, err
	}

	characterIDs := scene.Characters
	if len(characterIDs) == 0 {
		characterIDs = book.CharacterIDs()
	}
	locationID := scene.LocationID
	if locationID == "" {
		locationID = book.PrimaryLocation
	}

	return workItem{
		input: prompts.Input{
			Kind:         domain.KindScene,
			CharacterIDs: characterIDs,
			LocationID:   locationID,
			StyleID:      opts.StyleID,
			ExtraText:    scene.Prompt,
			Overrides:    opts.Overrides,
		},
		reference:  opts.Reference,
		outputPath: outputPath,
		metadata: map[string]string{
			"book_id": book.ID,
			"page":    fmt.Sprintf("%d", scene.Page),
		},
	}, nil
}

// selectScenes はページフィルタを適用したシーン一覧をページ番号順で返します。
func selectScenes(book domain.Book, pages []int) ([]domain.Scene, error) {
	sorted := book.SortedScenes()
	if len(pages) == 0 {
		return sorted, nil
	}

	wanted := make(map[int]struct{}, len(pages))
	for _, page := range pages {
		if book.SceneByPage(page) == nil {
			return nil, &domain.ReferenceError{Kind: "page", ID: strconv.Itoa(page)}
		}
		wanted[page] = struct{}{}
	}

	out := make([]domain.Scene, 0, len(wanted))
	for _, scene := range sorted {
		if _, ok := wanted[scene.Page]; ok {
			out = append(out, scene)
		}
	}
	return out, nil
}
