package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/prompts"
)

// workItem はバッチ内の1件の生成指示です。
type workItem struct {
	input      prompts.Input
	reference  string
	outputPath string
	metadata   map[string]string
}

// runBatch は複数の生成指示を実行し、入力と同じ順序で結果を返します。
// 1件の失敗はバッチを止めず、該当スロットに失敗結果を記録して続行します。
// ただし認証系の致命的エラーを検出した場合、以降の課金対象呼び出しは中断します。
// 1件以上の失敗があれば、全結果とともに BatchError を返します。
func (p *Pipeline) runBatch(ctx context.Context, items []workItem) ([]domain.GenerationResult, error) {
	if len(items) == 0 {
		return nil, nil
	}

	var limiter *rate.Limiter
	if p.opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.opts.Interval), 1)
	}

	var results []domain.GenerationResult
	if p.opts.Concurrency > 1 {
		results = p.runParallel(ctx, items, limiter)
	} else {
		results = p.runSequential(ctx, items, limiter)
	}

	failed := len(items) - domain.CountSuccesses(results)
	if failed > 0 {
		return results, &domain.BatchError{Failed: failed, Total: len(items)}
	}
	return results, nil
}

// runSequential は逐次実行（既定）です。
func (p *Pipeline) runSequential(ctx context.Context, items []workItem, limiter *rate.Limiter) []domain.GenerationResult {
	results := make([]domain.GenerationResult, len(items))

	var fatal error
	for i, item := range items {
		if fatal != nil {
			results[i] = abortedResult(fatal)
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				results[i] = domain.NewFailedResult(domain.StateFailed, "", fmt.Errorf("リミッター待機中にエラーが発生しました: %w", err))
				fatal = err
				continue
			}
		}

		results[i] = p.runOne(ctx, item)
		if results[i].Err != nil && domain.IsFatal(results[i].Err) {
			fatal = results[i].Err
		}
	}
	return results
}

// runParallel はオプトインの並列実行です。同時実行数は Concurrency で制限し、
// 致命的エラーの検出で共有コンテキストをキャンセルして以降の投入を止めます。
func (p *Pipeline) runParallel(ctx context.Context, items []workItem, limiter *rate.Limiter) []domain.GenerationResult {
	results := make([]domain.GenerationResult, len(items))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.opts.Concurrency)

	for i, item := range items {
		i, item := i, item
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				results[i] = abortedResult(err)
				return nil
			}
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					results[i] = abortedResult(err)
					return nil
				}
			}

			results[i] = p.runOne(egCtx, item)
			if results[i].Err != nil && domain.IsFatal(results[i].Err) {
				// 戻り値のエラーで egCtx をキャンセルし、未投入分を止めるのだ
				return results[i].Err
			}
			return nil
		})
	}

	// 個別の失敗は results 側に記録済みのため、ここでの戻り値は捨ててよい
	_ = eg.Wait()
	return results
}

// abortedResult はバッチ中断により未実行となった1件の失敗結果を作ります。
func abortedResult(cause error) domain.GenerationResult {
	return domain.NewFailedResult(domain.StateFailed, "",
		fmt.Errorf("バッチが中断されたため実行されませんでした: %w", cause))
}

// EstimateBatchCost はN件のバッチの概算コストを返します。
func (p *Pipeline) EstimateBatchCost(n int) float64 {
	return p.store.EstimateCost(n)
}
