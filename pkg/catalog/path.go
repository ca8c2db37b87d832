package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// Get はドット区切りパス（例 "api.defaults.guidance_scale"）の値を返します。
// 途中のセグメントを含め、存在しないキーは fail-closed で ConfigError になります。
func (s *Store) Get(path string) (any, error) {
	keys := strings.Split(path, ".")
	var current any = s.raw

	for i, key := range keys {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, domain.NewConfigError(strings.Join(keys[:i], "."), "このパスの下は辿れません（オブジェクトではありません）")
		}
		current, ok = node[key]
		if !ok {
			return nil, domain.NewConfigError(strings.Join(keys[:i+1], "."), "キーが見つかりません")
		}
	}

	return current, nil
}

// Set はドット区切りパスの値をインメモリで更新します。
// 既存のキーにしか書き込めず、値のJSON上の型は既存値と一致する必要があります。
// 更新後は型付きレコードを再構築して不変条件を再検証し、違反していれば
// 元の状態のままエラーを返します。永続化は Save / Export で明示的に行います。
func (s *Store) Set(path string, value any) error {
	keys := strings.Split(path, ".")

	// 検証込みの差し替えを行うため、コピー上で変異させるのだ。
	updated, err := deepCopyDocument(s.raw)
	if err != nil {
		return err
	}

	node := updated
	for i, key := range keys[:len(keys)-1] {
		child, ok := node[key]
		if !ok {
			return domain.NewConfigError(strings.Join(keys[:i+1], "."), "キーが見つかりません")
		}
		node, ok = child.(map[string]any)
		if !ok {
			return domain.NewConfigError(strings.Join(keys[:i+1], "."), "このパスの下は辿れません（オブジェクトではありません）")
		}
	}

	leaf := keys[len(keys)-1]
	existing, ok := node[leaf]
	if !ok {
		return domain.NewConfigError(path, "キーが見つかりません（未知のパスへの追加は許可されていません）")
	}
	if !sameJSONKind(existing, value) {
		return domain.NewConfigError(path, "型が一致しません: 既存 %s に対して %s は設定できません",
			jsonKind(existing), jsonKind(value))
	}
	node[leaf] = normalizeJSONValue(value)

	// コピー上で再パース・再検証し、成功した場合のみ本体へ反映する
	candidate := &Store{raw: updated, sourcePath: s.sourcePath}
	if err := candidate.reparse(); err != nil {
		return err
	}
	*s = *candidate
	return nil
}

// Save は現在のインメモリ状態をロード元のファイルへ書き戻します。
func (s *Store) Save() error {
	if s.sourcePath == "" {
		return domain.NewConfigError("document", "保存先が不明です（ファイルからロードされていません）")
	}
	return s.Export(s.sourcePath)
}

// Export は現在のインメモリ状態を指定パスへ書き出します。
// ロード元のパスは変更しません。
func (s *Store) Export(path string) error {
	data, err := s.ExportBytes()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("カタログの書き出しに失敗しました: %w", err)
	}
	return nil
}

// ExportBytes は現在のインメモリ状態を整形済みJSONとして返します。
func (s *Store) ExportBytes() ([]byte, error) {
	data, err := json.MarshalIndent(s.raw, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("カタログのエンコードに失敗しました: %w", err)
	}
	return data, nil
}

// deepCopyDocument はJSONラウンドトリップで文書の深いコピーを作ります。
func deepCopyDocument(src map[string]any) (map[string]any, error) {
	data, err := json.Marshal(src)
	if err != nil {
		return nil, fmt.Errorf("カタログ文書のコピーに失敗しました: %w", err)
	}
	var dst map[string]any
	if err := json.Unmarshal(data, &dst); err != nil {
		return nil, fmt.Errorf("カタログ文書のコピーに失敗しました: %w", err)
	}
	return dst, nil
}

// jsonKind はJSON上の値種別を返します。
func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int32, int64:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// sameJSONKind は既存値と新値のJSON種別が一致するかを返します。
func sameJSONKind(existing, value any) bool {
	return jsonKind(existing) == jsonKind(value)
}

// normalizeJSONValue はGoネイティブの数値をJSONデコード互換の float64 に揃えます。
func normalizeJSONValue(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}
