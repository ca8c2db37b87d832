package catalog

import (
	"sort"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// Character はIDからキャラクターを取得します。未知のIDは ReferenceError です。
func (s *Store) Character(id string) (domain.Character, error) {
	if c, ok := s.characters[id]; ok {
		return c, nil
	}
	return domain.Character{}, &domain.ReferenceError{Kind: "character", ID: id}
}

// Location はIDからロケーションを取得します。
func (s *Store) Location(id string) (domain.Location, error) {
	if l, ok := s.locations[id]; ok {
		return l, nil
	}
	return domain.Location{}, &domain.ReferenceError{Kind: "location", ID: id}
}

// Style はIDからスタイルプリセットを取得します。
func (s *Store) Style(id string) (domain.StylePreset, error) {
	if st, ok := s.styles[id]; ok {
		return st, nil
	}
	return domain.StylePreset{}, &domain.ReferenceError{Kind: "style", ID: id}
}

// Book はIDからブックを取得します。
func (s *Store) Book(id string) (domain.Book, error) {
	if b, ok := s.books[id]; ok {
		return b, nil
	}
	return domain.Book{}, &domain.ReferenceError{Kind: "book", ID: id}
}

// ListCharacters は全キャラクターをID昇順で返します。
func (s *Store) ListCharacters() []domain.Character {
	out := make([]domain.Character, 0, len(s.characters))
	for _, c := range s.characters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CharacterIDs は全キャラクターIDを昇順で返します。
func (s *Store) CharacterIDs() []string {
	ids := make([]string, 0, len(s.characters))
	for id := range s.characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CharactersByRole は指定ロールのキャラクターをID昇順で返します。
func (s *Store) CharactersByRole(role string) []domain.Character {
	var out []domain.Character
	for _, c := range s.ListCharacters() {
		if c.Role == role {
			out = append(out, c)
		}
	}
	return out
}

// CharactersByVirtue は指定の徳目タグに紐づくキャラクターをID昇順で返します。
func (s *Store) CharactersByVirtue(virtue string) []domain.Character {
	var out []domain.Character
	for _, c := range s.ListCharacters() {
		if c.HasVirtue(virtue) {
			out = append(out, c)
		}
	}
	return out
}

// ListLocations は全ロケーションをID昇順で返します。
func (s *Store) ListLocations() []domain.Location {
	out := make([]domain.Location, 0, len(s.locations))
	for _, l := range s.locations {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListStyles は全スタイルプリセットをID昇順で返します。
func (s *Store) ListStyles() []domain.StylePreset {
	out := make([]domain.StylePreset, 0, len(s.styles))
	for _, st := range s.styles {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListBooks は全ブックを巻数の昇順で返します。
func (s *Store) ListBooks() []domain.Book {
	out := make([]domain.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// ActiveStyleID は現在アクティブなスタイルプリセットのIDを返します。
func (s *Store) ActiveStyleID() string {
	return s.activeStyle
}

// ActiveStyle は現在アクティブなスタイルプリセットを返します。
// ロード時の検証により、アクティブスタイルは常に存在します。
func (s *Store) ActiveStyle() domain.StylePreset {
	return s.styles[s.activeStyle]
}

// SetActiveStyle はアクティブスタイルを切り替えます。未定義のIDはエラーです。
func (s *Store) SetActiveStyle(id string) error {
	if _, ok := s.styles[id]; !ok {
		return &domain.ReferenceError{Kind: "style", ID: id}
	}
	s.activeStyle = id
	s.raw["active_style"] = id
	return nil
}

// API は外部画像生成APIの設定を返します。
func (s *Store) API() APIConfig {
	return s.api
}

// ImageSettings はアスペクト比設定を返します。
func (s *Store) ImageSettings() ImageSettings {
	return s.imageSet
}

// Generation はバッチ実行設定を返します。
func (s *Store) Generation() GenerationSettings {
	return s.generation
}

// PromptTemplate は名前付きプロンプトテンプレートを返します。未定義なら空文字です。
func (s *Store) PromptTemplate(name string) string {
	return s.templates[name]
}

// BookCharacters はブックの全登場キャラクター（フィーチャー＋サポート）を
// 定義順で返します。未知のIDはロード時検証で弾かれているため発生しません。
func (s *Store) BookCharacters(bookID string) ([]domain.Character, error) {
	book, err := s.Book(bookID)
	if err != nil {
		return nil, err
	}

	ids := book.CharacterIDs()
	chars := make([]domain.Character, 0, len(ids))
	for _, id := range ids {
		c, err := s.Character(id)
		if err != nil {
			return nil, err
		}
		chars = append(chars, c)
	}
	return chars, nil
}

// CharacterDescriptionBlock は複数キャラクターの説明文を
// 呼び出し順を保ったまま行単位で結合します。未知のIDは ReferenceError です。
func (s *Store) CharacterDescriptionBlock(ids []string) (string, error) {
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		c, err := s.Character(id)
		if err != nil {
			return "", err
		}
		lines = append(lines, "- "+c.DescriptionLine())
	}
	return strings.Join(lines, "\n"), nil
}

// EstimateCost はN枚生成した場合の概算コストを返します。
func (s *Store) EstimateCost(n int) float64 {
	return float64(n) * s.api.CostPerImage
}
