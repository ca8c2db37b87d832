package generator

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// ImageSynthesizer は外部画像合成サービスへの統合窓口です。
// Batch Orchestrator とテストのモックはこのインターフェースに依存します。
type ImageSynthesizer interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
}

// HTTPClient は、HTTPリクエストを実行し、URLからデータを取得するためのインターフェースです。
// httpkit.ClientInterface のうち本パッケージが利用する部分集合です。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	DoRequest(req *http.Request) ([]byte, error)
}

// ReferenceCacher は、アップロード済み参照画像のURLをキャッシュするためのインターフェースです。
type ReferenceCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}

// ReferenceOpener は参照画像の読み取り元（ローカルまたは gs://）を開きます。
// remoteio.InputReader と互換です。
type ReferenceOpener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// OutputWriter はデータを外部ストレージ（ローカルまたは gs://）へ保存します。
// remoteio.OutputWriter と互換です。
type OutputWriter interface {
	Write(ctx context.Context, path string, data io.Reader, mimeType string) error
}
