package domain

// RequestKind は1回の生成リクエストの種別です。
type RequestKind string

const (
	// KindHero は単体キャラクターのリファレンス用ヒーローショットです。
	KindHero RequestKind = "hero"
	// KindGroup は複数キャラクターの集合ショットです。
	KindGroup RequestKind = "group"
	// KindScene は絵本の1ページに対応する物語イラストです。
	KindScene RequestKind = "scene"
	// KindCover は絵本の表紙です。
	KindCover RequestKind = "cover"
)

// RequiresReference は、そのリクエスト種別で参照画像が必須かどうかを返します。
// シーンと表紙はキャラクターの一貫性維持のため参照画像なしでは生成できません。
func (k RequestKind) RequiresReference() bool {
	return k == KindScene || k == KindCover
}

// RequestState は1リクエストのライフサイクル状態です。
// Pending → Composing → (ComposeFailed | Dispatched) → (Succeeded | Failed)
// と遷移し、リトライは新しいリクエストとして扱います。
type RequestState string

const (
	StatePending       RequestState = "pending"
	StateComposing     RequestState = "composing"
	StateComposeFailed RequestState = "compose_failed"
	StateDispatched    RequestState = "dispatched"
	StateSucceeded     RequestState = "succeeded"
	StateFailed        RequestState = "failed"
)

// Terminal はその状態が終端状態かどうかを返します。
func (s RequestState) Terminal() bool {
	return s == StateComposeFailed || s == StateSucceeded || s == StateFailed
}

// Params は画像生成の数値パラメータ一式です。
// 組み込みデフォルト → アクティブスタイルの上書き → 呼び出し時の明示指定
// の順でレイヤリングされます（明示指定が最優先）。
type Params struct {
	GuidanceScale  float64 `json:"guidance_scale"`
	InferenceSteps int     `json:"num_inference_steps"`
	OutputFormat   string  `json:"output_format"`
	AspectRatio    string  `json:"aspect_ratio"`
}

// ParamOverrides は呼び出し時の明示的なパラメータ上書きです。
// nil のフィールドは上書きしません。
type ParamOverrides struct {
	GuidanceScale  *float64
	InferenceSteps *int
	AspectRatio    *string
}

// GenerationRequest は合成済みの単一イラスト生成リクエストです。
// Prompt Composer が構築し、Generation Client が消費します。永続化はしません。
type GenerationRequest struct {
	Kind         RequestKind
	CharacterIDs []string
	LocationID   string
	StyleID      string
	Prompt       string
	Params       Params

	// ReferenceSource は参照画像の指定です。http(s) URL ならそのまま、
	// ローカルパスならアップロードしてから利用します。
	ReferenceSource string

	// OutputPath が空でなければ、生成画像をこのパスへ保存しようと試みます。
	OutputPath string
	// SavePrompt が真なら、画像と並べてプロンプトを .txt で保存します。
	SavePrompt bool

	// Metadata は結果に引き継がれる補足情報です（book_id、page 等）。
	Metadata map[string]string
}
