package prompts

import "strings"

// カタログの prompt_templates セクションで上書き可能な組み込みテンプレートです。
// プレースホルダは {name} 形式で、Render が値を埋め込みます。
// 空の置換で生じた空行は Render が取り除きます。
const (
	// DefaultHeroTemplate は単体キャラクターのリファレンス画像用です。
	DefaultHeroTemplate = "{character_description}, {style_prompt}"

	// DefaultGroupTemplate は複数キャラクターの集合ショット用です。
	DefaultGroupTemplate = `Group illustration featuring {character_list}.
{character_descriptions}
{location_block}
{style_prompt}`

	// DefaultSceneTemplate は絵本の1ページ（物語シーン）用です。
	DefaultSceneTemplate = `{scene_description}
{character_descriptions}
{location_block}
{style_prompt}`

	// DefaultCoverTemplate は表紙用で、縦長のタイトル構図に寄せた指示を含みます。
	DefaultCoverTemplate = `Book cover illustration for "{book_title}", a children's story about {virtue}.
Featuring {featured_character_description}.
{location_block}
Portrait composition with space for the title at the top.
{style_prompt}`

	// DefaultConsistencySuffix はシーン生成の末尾に付加する一貫性維持の指示です。
	DefaultConsistencySuffix = "Keep every character exactly consistent with the reference image."
)

// テンプレート名。カタログの prompt_templates のキーと対応します。
const (
	TemplateHero        = "hero_shot"
	TemplateGroup       = "group_shot"
	TemplateScene       = "scene"
	TemplateCover       = "cover"
	TemplateConsistency = "consistency_suffix"
)

// defaultTemplates はテンプレート名と組み込み定義の対応表なのだ。
var defaultTemplates = map[string]string{
	TemplateHero:        DefaultHeroTemplate,
	TemplateGroup:       DefaultGroupTemplate,
	TemplateScene:       DefaultSceneTemplate,
	TemplateCover:       DefaultCoverTemplate,
	TemplateConsistency: DefaultConsistencySuffix,
}

// Render はテンプレート中の {key} プレースホルダを値で置換します。
// 置換は決定論的で、未知のプレースホルダはそのまま残します。
func Render(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return collapseEmptyLines(out)
}

// collapseEmptyLines は空置換で残った空行と行末の空白を取り除きます。
func collapseEmptyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.Join(out, "\n")
}
