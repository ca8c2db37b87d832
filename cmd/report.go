package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

// reportResult は単発生成の結果をログに出力するのだ。
func reportResult(res domain.GenerationResult) {
	slog.Info("生成が完了したのだ！",
		"url", res.ImageURL,
		"path", res.SavedPath,
		"cost_usd", res.Cost,
		"elapsed", res.Elapsed.Round(10*time.Millisecond),
	)
}

// reportBatch はバッチ結果を1件ずつ報告し、集計を出力するのだ。
// 部分的な失敗があった場合はエラーを返し、終了コードに反映させるのだよ。
func reportBatch(results []domain.GenerationResult, batchErr error) error {
	for i, res := range results {
		if res.Success {
			slog.Info("生成成功なのだ",
				"index", i+1,
				"url", res.ImageURL,
				"path", res.SavedPath,
				"metadata", res.Metadata,
			)
			continue
		}
		slog.Error("生成失敗なのだ",
			"index", i+1,
			"state", res.State,
			"error", res.ErrorDetail(),
			"metadata", res.Metadata,
		)
	}

	slog.Info("バッチの集計なのだ",
		"succeeded", domain.CountSuccesses(results),
		"total", len(results),
		"total_cost_usd", domain.TotalCost(results),
	)

	if batchErr != nil {
		return fmt.Errorf("バッチ生成が部分的に失敗したのだ: %w", batchErr)
	}
	return nil
}
