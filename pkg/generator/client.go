// Package generator は fal.run の Flux Kontext モデルを呼び出す画像生成
// クライアントです。参照画像のアップロード、プロンプト送信、結果画像の
// 取得と保存までを1リクエスト単位で担当します。
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// ClientConfig は FluxClient の外部設定です。
type ClientConfig struct {
	APIKey       string
	Model        string  // 空なら DefaultModel
	Endpoint     string  // 空なら DefaultEndpoint
	CostPerImage float64 // 1画像あたりの概算コスト（USD）
}

// FluxClient は ImageSynthesizer の fal.run 実装です。
// 課金対象の呼び出しのため、自動リトライは一切行いません。
type FluxClient struct {
	httpClient   HTTPClient
	resolver     *ReferenceResolver
	writer       OutputWriter // nil の場合は保存をスキップしてURLのみ返す
	endpoint     string
	model        string
	apiKey       string
	costPerImage float64
}

// コンパイル時のインターフェース実装チェックなのだ。
var _ ImageSynthesizer = (*FluxClient)(nil)

// NewFluxClient は新しい FluxClient を生成します。
// opener は参照画像の読み取り元で、nil ならローカルパスのみ扱います。
// writer は nil を許容し、その場合（読み取り専用環境など）は画像の保存を
// 行わずリモートURLだけを結果として返します。
func NewFluxClient(httpClient HTTPClient, cache ReferenceCacher, opener ReferenceOpener, writer OutputWriter, cfg ClientConfig) *FluxClient {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	return &FluxClient{
		httpClient:   httpClient,
		resolver:     NewReferenceResolver(httpClient, cache, opener, cfg.APIKey, ""),
		writer:       writer,
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		costPerImage: cfg.CostPerImage,
	}
}

// Generate は1件の合成済みリクエストを外部APIへ送信し、結果を返します。
// 認証情報と参照画像の検証はネットワーク呼び出しの前に行います（fail fast）。
func (c *FluxClient) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	if c.apiKey == "" {
		return nil, domain.ErrMissingCredential
	}
	if req.Kind.RequiresReference() && req.ReferenceSource == "" {
		return nil, &domain.MissingReferenceError{Kind: req.Kind}
	}

	start := time.Now()

	var refURL string
	if req.ReferenceSource != "" {
		url, err := c.resolver.Resolve(ctx, req.ReferenceSource)
		if err != nil {
			return nil, err
		}
		refURL = url
	}

	imageURL, contentType, err := c.invoke(ctx, req, refURL)
	if err != nil {
		return nil, err
	}

	savedPath := c.persist(ctx, req, imageURL, contentType)

	result := domain.NewSucceededResult(imageURL, savedPath, req.Prompt, c.costPerImage, time.Since(start), req.Metadata)
	return &result, nil
}

// invoke は fal.run へプロンプトをPOSTし、先頭画像のURLを返します。
func (c *FluxClient) invoke(ctx context.Context, req domain.GenerationRequest, refURL string) (string, string, error) {
	body, err := json.Marshal(fluxRequest{
		Prompt:            req.Prompt,
		ImageURL:          refURL,
		GuidanceScale:     req.Params.GuidanceScale,
		NumInferenceSteps: req.Params.InferenceSteps,
		OutputFormat:      req.Params.OutputFormat,
	})
	if err != nil {
		return "", "", fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
	}

	endpoint := strings.TrimSuffix(c.endpoint, "/") + "/" + c.model
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", "", fmt.Errorf("生成リクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Authorization", "Key "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	slog.Info("画像生成APIを呼び出します", "model", c.model, "kind", req.Kind, "has_reference", refURL != "")

	respBody, err := c.httpClient.DoRequest(httpReq)
	if err != nil {
		return "", "", &domain.GenerationError{Status: statusFromError(err), Detail: err.Error()}
	}

	var resp fluxResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", "", &domain.GenerationError{Detail: fmt.Sprintf("レスポンスの解析に失敗しました: %v", err)}
	}
	if len(resp.Images) == 0 {
		return "", "", &domain.GenerationError{Detail: "レスポンスに画像が含まれていません"}
	}
	return resp.Images[0].URL, resp.Images[0].ContentType, nil
}

// persist は生成画像（と任意でプロンプト）を保存します。
// 保存の失敗は警告ログに留め、リモートURLはそのまま結果として返します。
// 読み取り専用環境では writer が nil になり、保存自体をスキップします。
func (c *FluxClient) persist(ctx context.Context, req domain.GenerationRequest, imageURL, contentType string) string {
	if req.OutputPath == "" {
		return ""
	}
	if c.writer == nil {
		slog.Warn("書き込み先が利用できないため画像の保存をスキップします", "path", req.OutputPath, "url", imageURL)
		return ""
	}

	data, err := c.httpClient.FetchBytes(ctx, imageURL)
	if err != nil {
		slog.Warn("生成画像のダウンロードに失敗しました", "url", imageURL, "error", err)
		return ""
	}

	if contentType == "" {
		contentType = "image/" + req.Params.OutputFormat
	}
	if err := c.writer.Write(ctx, req.OutputPath, bytes.NewReader(data), contentType); err != nil {
		slog.Warn("生成画像の保存に失敗しました", "path", req.OutputPath, "error", err)
		return ""
	}

	if req.SavePrompt {
		promptPath := strings.TrimSuffix(req.OutputPath, filepath.Ext(req.OutputPath)) + ".txt"
		if err := c.writer.Write(ctx, promptPath, strings.NewReader(req.Prompt), "text/plain; charset=utf-8"); err != nil {
			slog.Warn("プロンプトの保存に失敗しました", "path", promptPath, "error", err)
		}
	}

	slog.Info("生成画像を保存しました", "path", req.OutputPath)
	return req.OutputPath
}

// httpkit はHTTPステータスをエラー文字列でしか伝えないため、
// 文字列からの抽出は best-effort です。見つからなければ 0 を返します。
var statusPattern = regexp.MustCompile(`\b([45]\d{2})\b`)

func statusFromError(err error) int {
	m := statusPattern.FindString(err.Error())
	if m == "" {
		return 0
	}
	status, _ := strconv.Atoi(m)
	return status
}
