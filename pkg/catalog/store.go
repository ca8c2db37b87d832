// Package catalog は、キャラクター・ロケーション・スタイル・ブックの
// マスターカタログ（JSON文書）を読み込み、型付きで提供する設定ストアです。
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// 組み込みの生成パラメータデフォルト値なのだ。
// カタログの api.defaults → アクティブスタイル → 呼び出し時指定の順で上書きされます。
const (
	DefaultGuidanceScale  = 3.5
	DefaultInferenceSteps = 28
	DefaultOutputFormat   = "jpeg"
	DefaultCostPerImage   = 0.04
	DefaultActiveStyle    = "default"
)

// 必須のトップレベルセクションです。欠落は ConfigError になります。
var requiredSections = []string{"characters", "locations", "style_presets", "books", "api"}

// APIDefaults は外部画像生成APIのデフォルトパラメータです。
type APIDefaults struct {
	GuidanceScale  float64 `json:"guidance_scale"`
	InferenceSteps int     `json:"num_inference_steps"`
	OutputFormat   string  `json:"output_format"`
}

// APIConfig は外部画像生成APIの設定です。
type APIConfig struct {
	Model        string      `json:"model"`
	CostPerImage float64     `json:"cost_per_image"`
	Defaults     APIDefaults `json:"defaults"`
}

// ImageSettings はリクエスト種別ごとのアスペクト比設定です。
type ImageSettings struct {
	AspectRatios   map[string]string `json:"aspect_ratios"`
	DefaultRatio   string            `json:"default_aspect_ratio"`
	HeroShotRatio  string            `json:"hero_shot_ratio"`
	SceneRatio     string            `json:"scene_ratio"`
	CoverRatio     string            `json:"cover_ratio"`
	GroupShotRatio string            `json:"group_shot_ratio"`
}

// RatioFor はリクエスト種別に対応するアスペクト比文字列（例 "3:4"）を返します。
func (s ImageSettings) RatioFor(kind domain.RequestKind) string {
	key := s.DefaultRatio
	switch kind {
	case domain.KindHero:
		key = s.HeroShotRatio
	case domain.KindScene:
		key = s.SceneRatio
	case domain.KindCover:
		key = s.CoverRatio
	case domain.KindGroup:
		key = s.GroupShotRatio
	}
	if ratio, ok := s.AspectRatios[key]; ok {
		return ratio
	}
	return "1:1"
}

// GenerationSettings はバッチ実行まわりの設定です。
type GenerationSettings struct {
	SavePrompts           bool    `json:"save_prompts"`
	RateLimitDelaySeconds float64 `json:"rate_limit_delay_seconds"`
}

// Store はマスターカタログのインメモリ表現です。
// ロード元の生の文書（raw）と、そこからパースした型付きレコードの両方を保持します。
// Set の同時呼び出しは外部同期が必要です（単一ライター前提）。
type Store struct {
	sourcePath string
	raw        map[string]any

	characters  map[string]domain.Character
	locations   map[string]domain.Location
	styles      map[string]domain.StylePreset
	books       map[string]domain.Book
	templates   map[string]string
	api         APIConfig
	imageSet    ImageSettings
	generation  GenerationSettings
	activeStyle string
}

// Load は指定パスのカタログ文書を読み込み、検証済みの Store を返します。
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("カタログファイルの読み込みに失敗しました: %w", err)
	}

	store, err := LoadFromBytes(data)
	if err != nil {
		return nil, err
	}
	store.sourcePath = path
	return store, nil
}

// LoadFromBytes はJSONバイト列からカタログをパース・検証して返します。
func LoadFromBytes(data []byte) (*Store, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, domain.NewConfigError("document", "JSONのパースに失敗しました: %v", err)
	}

	s := &Store{raw: raw}
	if err := s.reparse(); err != nil {
		return nil, err
	}
	return s, nil
}

// SourcePath はロード元のファイルパスを返します（バイト列ロード時は空）。
func (s *Store) SourcePath() string {
	return s.sourcePath
}

// reparse は raw の内容を型付きレコードへ展開し直し、不変条件を検証します。
func (s *Store) reparse() error {
	for _, section := range requiredSections {
		if _, ok := s.raw[section]; !ok {
			return domain.NewConfigError(section, "必須セクションがありません")
		}
	}

	if err := decodeSection(s.raw, "characters", &s.characters); err != nil {
		return err
	}
	if err := decodeSection(s.raw, "locations", &s.locations); err != nil {
		return err
	}
	if err := decodeSection(s.raw, "style_presets", &s.styles); err != nil {
		return err
	}
	if err := decodeSection(s.raw, "books", &s.books); err != nil {
		return err
	}
	if err := decodeOptional(s.raw, "prompt_templates", &s.templates); err != nil {
		return err
	}
	if err := decodeOptional(s.raw, "image_settings", &s.imageSet); err != nil {
		return err
	}
	if err := decodeOptional(s.raw, "generation_settings", &s.generation); err != nil {
		return err
	}

	s.api = APIConfig{
		CostPerImage: DefaultCostPerImage,
		Defaults: APIDefaults{
			GuidanceScale:  DefaultGuidanceScale,
			InferenceSteps: DefaultInferenceSteps,
			OutputFormat:   DefaultOutputFormat,
		},
	}
	if err := decodeOptional(s.raw, "api", &s.api); err != nil {
		return err
	}

	// マップのキーを各レコードのIDとして確定させるのだ。
	// 明示的な id フィールドがキーと食い違う場合は重複IDとみなします。
	if err := adoptKeys(s.characters, "characters", func(r *domain.Character) *string { return &r.ID }); err != nil {
		return err
	}
	if err := adoptKeys(s.locations, "locations", func(r *domain.Location) *string { return &r.ID }); err != nil {
		return err
	}
	if err := adoptKeys(s.styles, "style_presets", func(r *domain.StylePreset) *string { return &r.ID }); err != nil {
		return err
	}
	if err := adoptKeys(s.books, "books", func(r *domain.Book) *string { return &r.ID }); err != nil {
		return err
	}

	s.activeStyle = DefaultActiveStyle
	if v, ok := s.raw["active_style"]; ok {
		name, ok := v.(string)
		if !ok {
			return domain.NewConfigError("active_style", "文字列ではありません: %T", v)
		}
		s.activeStyle = name
	} else {
		// active_style は常に Set 可能なキーとして文書側にも持たせておくのだ
		s.raw["active_style"] = DefaultActiveStyle
	}

	return s.validate()
}

// validate はカタログ全体の整合性を検証します。
func (s *Store) validate() error {
	if _, ok := s.styles[s.activeStyle]; !ok {
		return domain.NewConfigError("active_style", "スタイルプリセット %q が定義されていません", s.activeStyle)
	}

	for id, book := range s.books {
		for _, charID := range book.CharacterIDs() {
			if _, ok := s.characters[charID]; !ok {
				return domain.NewConfigError("books."+id, "未知のキャラクターIDを参照しています: %q", charID)
			}
		}
		if book.PrimaryLocation != "" {
			if _, ok := s.locations[book.PrimaryLocation]; !ok {
				return domain.NewConfigError("books."+id, "未知のロケーションIDを参照しています: %q", book.PrimaryLocation)
			}
		}

		seen := make(map[int]struct{}, len(book.Scenes))
		for _, scene := range book.Scenes {
			if _, dup := seen[scene.Page]; dup {
				return domain.NewConfigError("books."+id, "ページ番号 %d が重複しています", scene.Page)
			}
			seen[scene.Page] = struct{}{}

			for _, charID := range scene.Characters {
				if _, ok := s.characters[charID]; !ok {
					return domain.NewConfigError("books."+id, "シーン(page %d)が未知のキャラクターIDを参照しています: %q", scene.Page, charID)
				}
			}
			if scene.LocationID != "" {
				if _, ok := s.locations[scene.LocationID]; !ok {
					return domain.NewConfigError("books."+id, "シーン(page %d)が未知のロケーションIDを参照しています: %q", scene.Page, scene.LocationID)
				}
			}
		}
	}

	return nil
}

// decodeSection は raw の必須セクションを out へ型付きデコードします。
// 値の型が合わない場合は ConfigError を返します。
func decodeSection(raw map[string]any, key string, out any) error {
	data, err := json.Marshal(raw[key])
	if err != nil {
		return domain.NewConfigError(key, "再エンコードに失敗しました: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.NewConfigError(key, "セクションの形式が不正です: %v", err)
	}
	return nil
}

// decodeOptional は任意セクションを、存在する場合のみデコードします。
func decodeOptional(raw map[string]any, key string, out any) error {
	if _, ok := raw[key]; !ok {
		return nil
	}
	return decodeSection(raw, key, out)
}

// adoptKeys はマップキーを各レコードのIDフィールドに反映します。
func adoptKeys[T any](m map[string]T, section string, idOf func(*T) *string) error {
	for key, rec := range m {
		id := idOf(&rec)
		if *id != "" && *id != key {
			return domain.NewConfigError(section, "ID %q がキー %q と一致しません（重複IDの可能性があります）", *id, key)
		}
		*id = key
		m[key] = rec
	}
	return nil
}
