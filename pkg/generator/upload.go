package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// uploadCacheTTL はアップロード済みURLのキャッシュ有効期限です。
// 同一バッチ内の再利用が目的なので、長寿命である必要はありません。
const uploadCacheTTL = 30 * time.Minute

// ReferenceResolver は参照画像の指定（URLまたはローカルパス）を
// 外部APIへ渡せる公開URLへ解決します。ローカルファイルは fal のストレージへ
// アップロードし、パス→URL をキャッシュして同じ参照の二重アップロードを防ぎます。
type ReferenceResolver struct {
	httpClient  HTTPClient
	cache       ReferenceCacher
	opener      ReferenceOpener
	group       singleflight.Group
	apiKey      string
	initiateURL string
}

// NewReferenceResolver は新しい ReferenceResolver を生成します。
// opener を指定すると参照画像の読み取りを委譲でき、gs:// パスにも対応します。
// initiateURL が空の場合はデフォルトのエンドポイントを使います。
func NewReferenceResolver(httpClient HTTPClient, cache ReferenceCacher, opener ReferenceOpener, apiKey, initiateURL string) *ReferenceResolver {
	if initiateURL == "" {
		initiateURL = DefaultUploadInitiateURL
	}
	return &ReferenceResolver{
		httpClient:  httpClient,
		cache:       cache,
		opener:      opener,
		apiKey:      apiKey,
		initiateURL: initiateURL,
	}
}

// Resolve は参照指定を公開URLへ解決します。
// http(s) のURLはそのまま返し、それ以外はローカルパスとして扱います。
func (r *ReferenceResolver) Resolve(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source, nil
	}

	if url, ok := r.cache.Get(source); ok {
		if s, ok := url.(string); ok {
			return s, nil
		}
	}

	// 同一パスの並行解決は singleflight で1回のアップロードにまとめるのだ
	v, err, _ := r.group.Do(source, func() (any, error) {
		return r.upload(ctx, source)
	})
	if err != nil {
		return "", fmt.Errorf("参照画像 %q の解決に失敗しました: %w", source, err)
	}

	url := v.(string)
	r.cache.Set(source, url, uploadCacheTTL)
	return url, nil
}

// upload は参照画像を読み取り、署名付きURLの取得とPUTの2段階で
// fal ストレージへ転送し、公開URLを返します。
func (r *ReferenceResolver) upload(ctx context.Context, path string) (string, error) {
	data, err := r.readSource(ctx, path)
	if err != nil {
		return "", fmt.Errorf("参照画像の読み込みに失敗しました: %w", err)
	}
	mimeType := http.DetectContentType(data)

	initiate, err := r.initiate(ctx, filepath.Base(path), mimeType)
	if err != nil {
		return "", err
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, initiate.UploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("アップロードリクエストの作成に失敗しました: %w", err)
	}
	putReq.Header.Set("Content-Type", mimeType)

	if _, err := r.httpClient.DoRequest(putReq); err != nil {
		return "", fmt.Errorf("参照画像のアップロードに失敗しました: %w", err)
	}
	return initiate.FileURL, nil
}

// readSource は参照画像のバイト列を読み取ります。opener があればそれを使い、
// ローカルと gs:// の両方を扱えます。opener が nil ならローカルパスのみです。
func (r *ReferenceResolver) readSource(ctx context.Context, path string) ([]byte, error) {
	if r.opener == nil {
		return os.ReadFile(path)
	}
	rc, err := r.opener.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// initiate はアップロード開始APIを呼び、署名付きURLと公開URLを取得します。
func (r *ReferenceResolver) initiate(ctx context.Context, fileName, mimeType string) (*uploadInitiateResponse, error) {
	body, err := json.Marshal(uploadInitiateRequest{ContentType: mimeType, FileName: fileName})
	if err != nil {
		return nil, fmt.Errorf("アップロード開始リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.initiateURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("アップロード開始リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Authorization", "Key "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	respBody, err := r.httpClient.DoRequest(req)
	if err != nil {
		return nil, fmt.Errorf("アップロード開始APIの呼び出しに失敗しました: %w", err)
	}

	var resp uploadInitiateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("アップロード開始レスポンスの解析に失敗しました: %w", err)
	}
	if resp.UploadURL == "" || resp.FileURL == "" {
		return nil, fmt.Errorf("アップロード開始レスポンスにURLが含まれていません")
	}
	return &resp, nil
}
