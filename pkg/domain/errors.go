package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingCredential は API キー未設定時のエラーです。
var ErrMissingCredential = errors.New("FAL_KEY が設定されていません")

// ConfigError はカタログ文書の不備（セクション欠落、型不一致、重複ID、
// 未知のパス等）を表します。
type ConfigError struct {
	Path   string // 該当するセクション名またはドットパス
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("カタログ設定エラー (%s): %s", e.Path, e.Detail)
}

// NewConfigError は ConfigError を生成します。
func NewConfigError(path, format string, args ...any) *ConfigError {
	return &ConfigError{Path: path, Detail: fmt.Sprintf(format, args...)}
}

// ReferenceError は存在しないエンティティIDの参照を表します。
// 外部APIの呼び出し前に必ず検出されます（fail fast）。
type ReferenceError struct {
	Kind string // character / location / style / book / page
	ID   string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("未知の%sです: %q", e.Kind, e.ID)
}

// MissingReferenceError は参照画像必須のリクエストで参照画像が
// 指定されなかったことを表します。ネットワーク呼び出しは発生しません。
type MissingReferenceError struct {
	Kind RequestKind
}

func (e *MissingReferenceError) Error() string {
	return fmt.Sprintf("%s 生成には参照画像（--ref）が必須です", e.Kind)
}

// GenerationError は外部画像生成サービス側の拒否・失敗を表します。
// Status はリモートのHTTPステータス（特定できない場合は 0）です。
type GenerationError struct {
	Status int
	Detail string
}

func (e *GenerationError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("画像生成APIエラー (status %d): %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("画像生成APIエラー: %s", e.Detail)
}

// Fatal は認証系の失敗など、バッチの継続投入が無意味なエラーかを返します。
func (e *GenerationError) Fatal() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// IsFatal は err がバッチを打ち切るべき致命的エラーかを判定します。
func IsFatal(err error) bool {
	if errors.Is(err, ErrMissingCredential) {
		return true
	}
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Fatal()
}

// BatchError はバッチ内に1件以上の失敗があったことを示す集約シグナルです。
// 個々の失敗詳細は各 GenerationResult が保持します。
type BatchError struct {
	Failed int
	Total  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("バッチ生成で %d/%d 件が失敗しました", e.Failed, e.Total)
}
