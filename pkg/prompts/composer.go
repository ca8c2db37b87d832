// Package prompts は、カタログのエンティティ定義とスタイルプリセットから
// 画像生成プロンプトと数値パラメータを決定論的に合成します。
package prompts

import (
	"fmt"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/catalog"
	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// Composer は、キャラクター情報とスタイルプリセットを考慮して
// AIプロンプトを構築します。状態を持たず、同じ入力には常に同じ出力を返します。
type Composer struct {
	store *catalog.Store
}

// NewComposer は新しい Composer を生成します。
func NewComposer(store *catalog.Store) *Composer {
	return &Composer{store: store}
}

// Input は1回の合成指示です。StyleID が空ならアクティブスタイルを使います。
type Input struct {
	Kind         domain.RequestKind
	CharacterIDs []string // group はこの順序がそのまま構図順になります
	LocationID   string
	StyleID      string
	ExtraText    string // scene の自由文、またはカスタムプロンプト上書き
	BookID       string // cover で必須
	Overrides    *domain.ParamOverrides
}

// Compose は種別に応じたプロンプトと生成パラメータを合成します。
// 未知のエンティティIDは外部APIを呼ぶ前に ReferenceError で弾きます。
func (c *Composer) Compose(in Input) (*domain.GenerationRequest, error) {
	style, err := c.resolveStyle(in.StyleID)
	if err != nil {
		return nil, err
	}

	var prompt string
	switch in.Kind {
	case domain.KindHero:
		prompt, err = c.composeHero(in, style)
	case domain.KindGroup:
		prompt, err = c.composeGroup(in, style)
	case domain.KindScene:
		prompt, err = c.composeScene(in, style)
	case domain.KindCover:
		prompt, err = c.composeCover(in, style)
	default:
		return nil, fmt.Errorf("未知のリクエスト種別です: %q", in.Kind)
	}
	if err != nil {
		return nil, err
	}

	return &domain.GenerationRequest{
		Kind:         in.Kind,
		CharacterIDs: in.CharacterIDs,
		LocationID:   in.LocationID,
		StyleID:      style.ID,
		Prompt:       prompt,
		Params:       c.resolveParams(in.Kind, style, in.Overrides),
	}, nil
}

// resolveStyle はスタイルIDを解決します。空ならアクティブスタイルです。
func (c *Composer) resolveStyle(styleID string) (domain.StylePreset, error) {
	if styleID == "" {
		return c.store.ActiveStyle(), nil
	}
	return c.store.Style(styleID)
}

// resolveParams は 組み込みデフォルト → スタイルプリセット → 明示指定 の
// 順でパラメータをレイヤリングします（後勝ち）。
func (c *Composer) resolveParams(kind domain.RequestKind, style domain.StylePreset, ov *domain.ParamOverrides) domain.Params {
	api := c.store.API()
	params := domain.Params{
		GuidanceScale:  api.Defaults.GuidanceScale,
		InferenceSteps: api.Defaults.InferenceSteps,
		OutputFormat:   api.Defaults.OutputFormat,
		AspectRatio:    c.store.ImageSettings().RatioFor(kind),
	}

	if style.GuidanceScale != nil {
		params.GuidanceScale = *style.GuidanceScale
	}
	if style.InferenceSteps != nil {
		params.InferenceSteps = *style.InferenceSteps
	}

	if ov != nil {
		if ov.GuidanceScale != nil {
			params.GuidanceScale = *ov.GuidanceScale
		}
		if ov.InferenceSteps != nil {
			params.InferenceSteps = *ov.InferenceSteps
		}
		if ov.AspectRatio != nil {
			params.AspectRatio = *ov.AspectRatio
		}
	}

	return params
}

// composeHero は単体キャラクターの説明文とスタイル断片を結合します。
func (c *Composer) composeHero(in Input, style domain.StylePreset) (string, error) {
	if len(in.CharacterIDs) != 1 {
		return "", fmt.Errorf("hero 生成にはキャラクターIDを1つだけ指定してください（指定数: %d）", len(in.CharacterIDs))
	}
	char, err := c.store.Character(in.CharacterIDs[0])
	if err != nil {
		return "", err
	}

	desc := char.Description
	if in.LocationID != "" {
		loc, err := c.store.Location(in.LocationID)
		if err != nil {
			return "", err
		}
		desc = desc + ", " + loc.Description
	}

	return c.render(TemplateHero, map[string]string{
		"character_name":        char.Name,
		"character_description": desc,
		"style_prompt":          style.Prompt,
	}), nil
}

// composeGroup は複数キャラクターの断片を呼び出し順のまま結合します。
// 順序は構図上の意図を表すため、並べ替えも重複除去も行いません。
func (c *Composer) composeGroup(in Input, style domain.StylePreset) (string, error) {
	if len(in.CharacterIDs) == 0 {
		return "", fmt.Errorf("group 生成にはキャラクターIDを1つ以上指定してください")
	}

	names := make([]string, 0, len(in.CharacterIDs))
	for _, id := range in.CharacterIDs {
		char, err := c.store.Character(id)
		if err != nil {
			return "", err
		}
		names = append(names, char.Name)
	}
	block, err := c.store.CharacterDescriptionBlock(in.CharacterIDs)
	if err != nil {
		return "", err
	}

	locBlock, err := c.locationBlock(in.LocationID)
	if err != nil {
		return "", err
	}

	return c.render(TemplateGroup, map[string]string{
		"character_list":         strings.Join(names, ", "),
		"character_descriptions": block,
		"location_block":         locBlock,
		"style_prompt":           style.Prompt,
	}), nil
}

// composeScene は自由文のシーン描写にキャラクター説明と舞台を重ねます。
func (c *Composer) composeScene(in Input, style domain.StylePreset) (string, error) {
	if strings.TrimSpace(in.ExtraText) == "" {
		return "", fmt.Errorf("scene 生成にはシーンの説明文が必要です")
	}

	block := ""
	if len(in.CharacterIDs) > 0 {
		b, err := c.store.CharacterDescriptionBlock(in.CharacterIDs)
		if err != nil {
			return "", err
		}
		block = "Characters in this scene:\n" + b
	}

	locBlock, err := c.locationBlock(in.LocationID)
	if err != nil {
		return "", err
	}

	prompt := c.render(TemplateScene, map[string]string{
		"scene_description":      in.ExtraText,
		"character_descriptions": block,
		"location_block":         locBlock,
		"style_prompt":           style.Prompt,
	})

	if suffix := c.template(TemplateConsistency); suffix != "" {
		prompt = prompt + "\n" + suffix
	}
	return prompt, nil
}

// composeCover はブックのタイトル・徳目・主役キャラクターから表紙を合成します。
func (c *Composer) composeCover(in Input, style domain.StylePreset) (string, error) {
	book, err := c.store.Book(in.BookID)
	if err != nil {
		return "", err
	}
	featured, err := c.store.Character(book.FeaturedCharacter)
	if err != nil {
		return "", err
	}

	locID := in.LocationID
	if locID == "" {
		locID = book.PrimaryLocation
	}
	locBlock, err := c.locationBlock(locID)
	if err != nil {
		return "", err
	}

	return c.render(TemplateCover, map[string]string{
		"book_title":                     book.Title,
		"virtue":                         book.Virtue,
		"featured_character_name":        featured.Name,
		"featured_character_description": featured.Description,
		"location_block":                 locBlock,
		"style_prompt":                   style.Prompt,
	}), nil
}

// locationBlock は "Setting: ..." 行を生成します。ID未指定なら空文字です。
func (c *Composer) locationBlock(locationID string) (string, error) {
	if locationID == "" {
		return "", nil
	}
	loc, err := c.store.Location(locationID)
	if err != nil {
		return "", err
	}
	return "Setting: " + loc.Description, nil
}

// template はカタログの上書きを優先してテンプレート文字列を返します。
func (c *Composer) template(name string) string {
	if t := c.store.PromptTemplate(name); t != "" {
		return t
	}
	return defaultTemplates[name]
}

// render は名前付きテンプレートを解決して置換します。
func (c *Composer) render(name string, vars map[string]string) string {
	return Render(c.template(name), vars)
}
