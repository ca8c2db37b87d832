package domain

import "time"

// GenerationResult は1リクエストの結果レコードです。
// 成功時は ImageURL が必ず入り Err は nil、失敗時はその逆になります。
// 両方が同時に立つことはありません。
type GenerationResult struct {
	Success    bool
	State      RequestState
	ImageURL   string // リモートの画像ロケーター
	SavedPath  string // ローカル/GCSへ保存できた場合のみ
	PromptUsed string
	Cost       float64
	Elapsed    time.Duration
	Metadata   map[string]string
	Err        error
}

// NewSucceededResult は成功結果を生成します。
func NewSucceededResult(imageURL, savedPath, prompt string, cost float64, elapsed time.Duration, meta map[string]string) GenerationResult {
	return GenerationResult{
		Success:    true,
		State:      StateSucceeded,
		ImageURL:   imageURL,
		SavedPath:  savedPath,
		PromptUsed: prompt,
		Cost:       cost,
		Elapsed:    elapsed,
		Metadata:   meta,
	}
}

// NewFailedResult は失敗結果を生成します。state には ComposeFailed か Failed を渡します。
func NewFailedResult(state RequestState, prompt string, err error) GenerationResult {
	return GenerationResult{
		Success:    false,
		State:      state,
		PromptUsed: prompt,
		Err:        err,
	}
}

// ErrorDetail は失敗理由の文字列表現を返します。成功時は空文字です。
func (r GenerationResult) ErrorDetail() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// CountSuccesses は結果スライス中の成功数を返します。
func CountSuccesses(results []GenerationResult) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}

// TotalCost は成功した生成の合計コストを返します。
func TotalCost(results []GenerationResult) float64 {
	var total float64
	for _, r := range results {
		if r.Success {
			total += r.Cost
		}
	}
	return total
}
