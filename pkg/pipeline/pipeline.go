// Package pipeline はプロンプト合成と画像生成クライアントを束ね、
// 単発および一括のイラスト生成を調停するオーケストレーターです。
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/asset"
	"github.com/shouni/go-storybook-kit/pkg/catalog"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/generator"
	"github.com/shouni/go-storybook-kit/pkg/prompts"
)

// DefaultConcurrency は並列実行を有効化した場合のデフォルト同時実行数です。
// 課金対象APIのため既定は逐次実行で、並列化は明示的なオプトインです。
const DefaultConcurrency = 4

// Options は Pipeline の実行時設定です。
type Options struct {
	// OutputDir は生成画像の出力先（ローカルまたは gs://）です。
	OutputDir string
	// Concurrency は同時実行数です。1以下なら逐次実行します。
	Concurrency int
	// Interval はリクエスト間の最小間隔です。0なら制限なしとして動くのだ。
	Interval time.Duration
}

// Pipeline はカタログ・コンポーザー・画像生成クライアントを結線します。
type Pipeline struct {
	store    *catalog.Store
	composer *prompts.Composer
	synth    generator.ImageSynthesizer
	opts     Options
}

// New は新しい Pipeline を生成します。
func New(store *catalog.Store, composer *prompts.Composer, synth generator.ImageSynthesizer, opts Options) *Pipeline {
	if opts.OutputDir == "" {
		opts.OutputDir = asset.DefaultOutputDir
	}
	return &Pipeline{store: store, composer: composer, synth: synth, opts: opts}
}

// RequestOptions は単発生成の呼び出し時オプションです。
type RequestOptions struct {
	StyleID    string
	LocationID string
	// Reference は参照画像の指定（URLまたはローカルパス）です。
	Reference string
	// OutputName を指定すると、既定のファイル名の代わりに使います。
	OutputName string
	Overrides  *domain.ParamOverrides
}

// GenerateHero は単体キャラクターのヒーローショットを1枚生成します。
func (p *Pipeline) GenerateHero(ctx context.Context, characterID string, opts RequestOptions) (domain.GenerationResult, error) {
	outputPath, err := p.outputPath(opts.OutputName, func() (string, error) {
		return asset.HeroPath(p.opts.OutputDir, characterID, p.outputFormat())
	})
	if err != nil {
		return domain.NewFailedResult(domain.StateComposeFailed, "", err), err
	}

	item := workItem{
		input: prompts.Input{
			Kind:         domain.KindHero,
			CharacterIDs: []string{characterID},
			LocationID:   opts.LocationID,
			StyleID:      opts.StyleID,
			Overrides:    opts.Overrides,
		},
		reference:  opts.Reference,
		outputPath: outputPath,
		metadata:   map[string]string{"character_id": characterID},
	}
	res := p.runOne(ctx, item)
	return res, res.Err
}

// GenerateGroup は複数キャラクターの集合ショットを1枚生成します。
// キャラクターIDの順序は構図順としてそのまま保持されます。
func (p *Pipeline) GenerateGroup(ctx context.Context, characterIDs []string, opts RequestOptions) (domain.GenerationResult, error) {
	outputPath, err := p.outputPath(opts.OutputName, func() (string, error) {
		return asset.GroupPath(p.opts.OutputDir, p.outputFormat())
	})
	if err != nil {
		return domain.NewFailedResult(domain.StateComposeFailed, "", err), err
	}

	item := workItem{
		input: prompts.Input{
			Kind:         domain.KindGroup,
			CharacterIDs: characterIDs,
			LocationID:   opts.LocationID,
			StyleID:      opts.StyleID,
			Overrides:    opts.Overrides,
		},
		reference:  opts.Reference,
		outputPath: outputPath,
	}
	res := p.runOne(ctx, item)
	return res, res.Err
}

// GenerateScene は自由文のシーン描写から物語イラストを1枚生成します。
// 参照画像は必須で、欠如はネットワーク到達前に検出されます。
func (p *Pipeline) GenerateScene(ctx context.Context, description string, characterIDs []string, opts RequestOptions) (domain.GenerationResult, error) {
	outputPath, err := p.outputPath(opts.OutputName, func() (string, error) {
		return asset.NamedPath(p.opts.OutputDir, "scene."+p.outputFormat())
	})
	if err != nil {
		return domain.NewFailedResult(domain.StateComposeFailed, "", err), err
	}

	item := workItem{
		input: prompts.Input{
			Kind:         domain.KindScene,
			CharacterIDs: characterIDs,
			LocationID:   opts.LocationID,
			StyleID:      opts.StyleID,
			ExtraText:    description,
			Overrides:    opts.Overrides,
		},
		reference:  opts.Reference,
		outputPath: outputPath,
	}
	res := p.runOne(ctx, item)
	return res, res.Err
}

// GenerateCover はブックの表紙を1枚生成します。
func (p *Pipeline) GenerateCover(ctx context.Context, bookID string, opts RequestOptions) (domain.GenerationResult, error) {
	outputPath, err := p.outputPath(opts.OutputName, func() (string, error) {
		return asset.CoverPath(p.opts.OutputDir, bookID, p.outputFormat())
	})
	if err != nil {
		return domain.NewFailedResult(domain.StateComposeFailed, "", err), err
	}

	item := workItem{
		input: prompts.Input{
			Kind:       domain.KindCover,
			BookID:     bookID,
			LocationID: opts.LocationID,
			StyleID:    opts.StyleID,
			Overrides:  opts.Overrides,
		},
		reference:  opts.Reference,
		outputPath: outputPath,
		metadata:   map[string]string{"book_id": bookID},
	}
	res := p.runOne(ctx, item)
	return res, res.Err
}

// GenerateAllHeroes は全キャラクターのヒーローショットを一括生成します。
// 結果はキャラクターIDの昇順です。
func (p *Pipeline) GenerateAllHeroes(ctx context.Context, opts RequestOptions) ([]domain.GenerationResult, error) {
	ids := p.store.CharacterIDs()
	items := make([]workItem, 0, len(ids))
	for _, id := range ids {
		outputPath, err := asset.HeroPath(p.opts.OutputDir, id, p.outputFormat())
		if err != nil {
			return nil, err
		}
		items = append(items, workItem{
			input: prompts.Input{
				Kind:         domain.KindHero,
				CharacterIDs: []string{id},
				LocationID:   opts.LocationID,
				StyleID:      opts.StyleID,
				Overrides:    opts.Overrides,
			},
			reference:  opts.Reference,
			outputPath: outputPath,
			metadata:   map[string]string{"character_id": id},
		})
	}
	return p.runBatch(ctx, items)
}

// runOne は1件の生成をライフサイクル（合成 → 送信 → 終端状態）に沿って実行します。
func (p *Pipeline) runOne(ctx context.Context, item workItem) domain.GenerationResult {
	req, err := p.composer.Compose(item.input)
	if err != nil {
		return domain.NewFailedResult(domain.StateComposeFailed, "", err)
	}

	req.ReferenceSource = item.reference
	req.OutputPath = item.outputPath
	req.SavePrompt = p.store.Generation().SavePrompts
	req.Metadata = item.metadata

	res, err := p.synth.Generate(ctx, *req)
	if err != nil {
		return domain.NewFailedResult(failState(err), req.Prompt, err)
	}
	return *res
}

// failState は生成エラーを終端状態へ対応付けます。
// 参照画像の欠如はネットワーク到達前に検出されるため、送信済み扱いにはしません。
func failState(err error) domain.RequestState {
	var missing *domain.MissingReferenceError
	if errors.As(err, &missing) {
		return domain.StateComposeFailed
	}
	return domain.StateFailed
}

// outputPath は明示指定されたファイル名を優先して出力先を解決します。
func (p *Pipeline) outputPath(outputName string, fallback func() (string, error)) (string, error) {
	if outputName != "" {
		return asset.NamedPath(p.opts.OutputDir, outputName)
	}
	return fallback()
}

// outputFormat はカタログの出力フォーマット設定を返します。
func (p *Pipeline) outputFormat() string {
	return p.store.API().Defaults.OutputFormat
}
