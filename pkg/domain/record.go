package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Character は絵本に登場するキャラクターの定義を保持します。
type Character struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`          // core / supporting など
	Description  string   `json:"description"`   // 生成プロンプトに注入する外見の説明文
	VisualCues   []string `json:"visual_cues"`   // 補助的な外見上の特徴
	Virtues      []string `json:"virtues"`       // 紐づく徳目タグ
	ReferenceURL string   `json:"reference_url"` // 一貫性保持のための参照画像URL
}

// String はキャラクターの情報を文字列で返すのだ。
func (c Character) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.ID)
}

// HasVirtue は指定の徳目タグがキャラクターに紐づいているかを返します。
func (c Character) HasVirtue(virtue string) bool {
	for _, v := range c.Virtues {
		if v == virtue {
			return true
		}
	}
	return false
}

// DescriptionLine はプロンプト用に「名前: 説明」の1行を生成します。
func (c Character) DescriptionLine() string {
	desc := c.Description
	if len(c.VisualCues) > 0 {
		desc = desc + ", " + strings.Join(c.VisualCues, ", ")
	}
	return fmt.Sprintf("%s: %s", c.Name, desc)
}

// Location は物語の舞台となる場所の定義を保持します。
type Location struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// StylePreset は名前付きのビジュアルスタイル（画風）の定義です。
// Prompt はプロンプト末尾に結合されるスタイル断片で、
// 数値パラメータはAPIデフォルトへの上書きとして機能します。
type StylePreset struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Prompt         string   `json:"prompt"`
	GuidanceScale  *float64 `json:"guidance_scale,omitempty"`
	InferenceSteps *int     `json:"num_inference_steps,omitempty"`
}

// Scene は絵本の1ページ分のイラスト生成指示です。
// Characters / Location が空の場合は親のブックの設定を引き継ぎます。
type Scene struct {
	Page       int      `json:"page"`
	Prompt     string   `json:"prompt"`
	Characters []string `json:"characters,omitempty"`
	LocationID string   `json:"location,omitempty"`
}

// Book はテーマ（徳目）ごとの絵本1冊の定義を保持します。
type Book struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Number               int      `json:"book_number"`
	Virtue               string   `json:"virtue"`
	FeaturedCharacter    string   `json:"featured_character"`
	SupportingCharacters []string `json:"supporting_characters"`
	PrimaryLocation      string   `json:"primary_location"`
	Scenes               []Scene  `json:"scenes"`
}

// CharacterIDs はフィーチャー＋サポートの全キャラクターIDを順序を保って返します。
func (b Book) CharacterIDs() []string {
	ids := make([]string, 0, len(b.SupportingCharacters)+1)
	if b.FeaturedCharacter != "" {
		ids = append(ids, b.FeaturedCharacter)
	}
	ids = append(ids, b.SupportingCharacters...)
	return ids
}

// SortedScenes はページ番号の昇順に並べたシーンのコピーを返します。
// 描画順はカタログ上の記述順ではなく、常にページ番号順です。
func (b Book) SortedScenes() []Scene {
	scenes := make([]Scene, len(b.Scenes))
	copy(scenes, b.Scenes)
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Page < scenes[j].Page
	})
	return scenes
}

// SceneByPage は指定ページ番号のシーンを返します。見つからない場合は nil です。
func (b Book) SceneByPage(page int) *Scene {
	for i := range b.Scenes {
		if b.Scenes[i].Page == page {
			s := b.Scenes[i]
			return &s
		}
	}
	return nil
}
