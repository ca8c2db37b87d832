package generator

// fal.run 同期エンドポイントのデフォルト設定です。
const (
	// DefaultEndpoint は同期推論APIのベースURLです。
	DefaultEndpoint = "https://fal.run"
	// DefaultModel は参照画像ベースの編集に対応した Flux Kontext モデルです。
	DefaultModel = "fal-ai/flux-pro/kontext"
	// DefaultUploadInitiateURL は参照画像アップロードの開始エンドポイントです。
	DefaultUploadInitiateURL = "https://rest.alpha.fal.ai/storage/upload/initiate"
)

// fluxRequest は fal.run へ送信するリクエストボディです。
// image_url は参照画像がある場合のみ含めます。
type fluxRequest struct {
	Prompt            string  `json:"prompt"`
	ImageURL          string  `json:"image_url,omitempty"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	OutputFormat      string  `json:"output_format"`
}

// fluxImage は生成結果の1画像です。
type fluxImage struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// fluxResponse は fal.run の成功レスポンスです。
type fluxResponse struct {
	Images []fluxImage `json:"images"`
	Seed   int64       `json:"seed"`
}

// uploadInitiateRequest はアップロード開始リクエストです。
type uploadInitiateRequest struct {
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

// uploadInitiateResponse は署名付きアップロード先と公開URLの組です。
type uploadInitiateResponse struct {
	UploadURL string `json:"upload_url"`
	FileURL   string `json:"file_url"`
}
