package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/catalog"
	"github.com/shouni/go-storybook-kit/pkg/domain"
	"github.com/shouni/go-storybook-kit/pkg/prompts"
)

const pipelineCatalogJSON = `{
	"active_style": "rainbow",
	"characters": {
		"pip": {"name": "Pip", "role": "core", "description": "a small gray rabbit"},
		"mabel": {"name": "Mabel", "role": "supporting", "description": "a plump badger"},
		"otis": {"name": "Otis", "role": "supporting", "description": "a clumsy young owl"}
	},
	"locations": {
		"meadow": {"name": "Sunny Meadow", "description": "a wide sunny meadow"}
	},
	"style_presets": {
		"default": {"name": "Default", "prompt": "soft watercolor"},
		"rainbow": {"name": "Rainbow", "prompt": "saturated rainbow style"}
	},
	"books": {
		"book-01": {
			"title": "Pip and the Thunderstorm",
			"book_number": 1,
			"virtue": "courage",
			"featured_character": "pip",
			"supporting_characters": ["mabel"],
			"primary_location": "meadow",
			"scenes": [
				{"page": 3, "prompt": "everyone hides in the burrow"},
				{"page": 1, "prompt": "clouds gather over the meadow"},
				{"page": 2, "prompt": "rain begins to fall", "characters": ["pip"]}
			]
		}
	},
	"api": {
		"cost_per_image": 0.04,
		"defaults": {"guidance_scale": 3.5, "num_inference_steps": 28, "output_format": "jpeg"}
	}
}`

// mockSynth は ImageSynthesizer のテスト用モックなのだ。
// 受け取ったリクエストを記録して、呼び出し回数や内容を検証できるのだ。
type mockSynth struct {
	mu           sync.Mutex
	calls        []domain.GenerationRequest
	generateFunc func(req domain.GenerationRequest) (*domain.GenerationResult, error)
}

func (m *mockSynth) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.generateFunc != nil {
		return m.generateFunc(req)
	}
	res := domain.NewSucceededResult("https://fal.media/files/ok.jpeg", req.OutputPath, req.Prompt, 0.04, 0, req.Metadata)
	return &res, nil
}

func (m *mockSynth) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestPipeline(t *testing.T, synth *mockSynth, opts Options) *Pipeline {
	t.Helper()
	store, err := catalog.LoadFromBytes([]byte(pipelineCatalogJSON))
	if err != nil {
		t.Fatalf("テスト用カタログのロードに失敗しました: %v", err)
	}
	return New(store, prompts.NewComposer(store), synth, opts)
}

func TestPipeline_GenerateHero(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 合成済みプロンプトがクライアントへ渡ること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		res, err := p.GenerateHero(ctx, "pip", RequestOptions{})
		if err != nil {
			t.Fatalf("生成に失敗しました: %v", err)
		}
		if !res.Success || res.State != domain.StateSucceeded {
			t.Errorf("成功状態になっていません: %+v", res)
		}
		if synth.callCount() != 1 {
			t.Fatalf("呼び出し回数の期待値 1, 実際の値 %d", synth.callCount())
		}
		if synth.calls[0].Prompt == "" {
			t.Error("プロンプトが空のまま送信されました")
		}
		if synth.calls[0].Metadata["character_id"] != "pip" {
			t.Errorf("メタデータが引き継がれていません: %v", synth.calls[0].Metadata)
		}
	})

	t.Run("未知のキャラクターは合成失敗となりクライアントは呼ばれないこと", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		res, err := p.GenerateHero(ctx, "ghost", RequestOptions{})
		if err == nil {
			t.Fatal("未知IDでエラーが発生しませんでした")
		}
		var refErr *domain.ReferenceError
		if !errors.As(err, &refErr) {
			t.Fatalf("ReferenceError が返りませんでした: %v", err)
		}
		if res.State != domain.StateComposeFailed {
			t.Errorf("期待状態 compose_failed, 実際の値 %s", res.State)
		}
		if synth.callCount() != 0 {
			t.Errorf("外部クライアントが呼ばれてしまいました: %d回", synth.callCount())
		}
	})

	t.Run("参照画像の欠如は送信前の失敗として扱われること", func(t *testing.T) {
		synth := &mockSynth{
			generateFunc: func(req domain.GenerationRequest) (*domain.GenerationResult, error) {
				return nil, &domain.MissingReferenceError{Kind: req.Kind}
			},
		}
		p := newTestPipeline(t, synth, Options{})

		res, err := p.GenerateScene(ctx, "Pip hops across the brook", []string{"pip"}, RequestOptions{})
		if err == nil {
			t.Fatal("参照なしでエラーが発生しませんでした")
		}
		if res.State != domain.StateComposeFailed {
			t.Errorf("期待状態 compose_failed, 実際の値 %s", res.State)
		}
	})
}

func TestPipeline_GenerateAllHeroes(t *testing.T) {
	ctx := context.Background()

	t.Run("結果はキャラクターIDの昇順で全件返ること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		results, err := p.GenerateAllHeroes(ctx, RequestOptions{})
		if err != nil {
			t.Fatalf("一括生成に失敗しました: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("結果数の期待値 3, 実際の値 %d", len(results))
		}
		expected := []string{"mabel", "otis", "pip"}
		for i, id := range expected {
			if results[i].Metadata["character_id"] != id {
				t.Errorf("位置 %d の期待値 '%s', 実際の値 '%s'", i, id, results[i].Metadata["character_id"])
			}
		}
	})

	t.Run("共通オプションが全キャラクターのリクエストへ引き継がれること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		_, err := p.GenerateAllHeroes(ctx, RequestOptions{
			Reference:  "https://example.com/style-ref.png",
			LocationID: "meadow",
		})
		if err != nil {
			t.Fatalf("一括生成に失敗しました: %v", err)
		}
		if synth.callCount() != 3 {
			t.Fatalf("呼び出し回数の期待値 3, 実際の値 %d", synth.callCount())
		}
		for i, call := range synth.calls {
			if call.ReferenceSource != "https://example.com/style-ref.png" {
				t.Errorf("位置 %d で参照画像が引き継がれていません: %q", i, call.ReferenceSource)
			}
			if call.LocationID != "meadow" {
				t.Errorf("位置 %d でロケーションが引き継がれていません: %q", i, call.LocationID)
			}
		}
	})

	t.Run("1件の失敗でバッチは止まらず入力順が保たれること", func(t *testing.T) {
		synth := &mockSynth{
			generateFunc: func(req domain.GenerationRequest) (*domain.GenerationResult, error) {
				if req.Metadata["character_id"] == "otis" {
					return nil, &domain.GenerationError{Status: 422, Detail: "content rejected"}
				}
				res := domain.NewSucceededResult("https://fal.media/files/ok.jpeg", "", req.Prompt, 0.04, 0, req.Metadata)
				return &res, nil
			},
		}
		p := newTestPipeline(t, synth, Options{})

		results, err := p.GenerateAllHeroes(ctx, RequestOptions{})

		var batchErr *domain.BatchError
		if !errors.As(err, &batchErr) {
			t.Fatalf("BatchError が返りませんでした: %v", err)
		}
		if batchErr.Failed != 1 || batchErr.Total != 3 {
			t.Errorf("集計の期待値 1/3, 実際の値 %d/%d", batchErr.Failed, batchErr.Total)
		}
		if len(results) != 3 {
			t.Fatalf("失敗があっても全件の結果が必要なのだ: %d", len(results))
		}
		// mabel, otis, pip の順。otis だけ失敗しているはずなのだ
		if !results[0].Success || results[1].Success || !results[2].Success {
			t.Errorf("成否の並びが入力順と一致しません: %v, %v, %v",
				results[0].Success, results[1].Success, results[2].Success)
		}
		if results[1].State != domain.StateFailed {
			t.Errorf("失敗項目の期待状態 failed, 実際の値 %s", results[1].State)
		}
		if domain.CountSuccesses(results) != 2 {
			t.Errorf("成功数の期待値 2, 実際の値 %d", domain.CountSuccesses(results))
		}
	})

	t.Run("致命的エラーで以降の課金対象呼び出しが中断されること", func(t *testing.T) {
		synth := &mockSynth{
			generateFunc: func(req domain.GenerationRequest) (*domain.GenerationResult, error) {
				return nil, &domain.GenerationError{Status: 401, Detail: "invalid api key"}
			},
		}
		p := newTestPipeline(t, synth, Options{})

		results, err := p.GenerateAllHeroes(ctx, RequestOptions{})
		if err == nil {
			t.Fatal("致命的エラーでバッチエラーが返りませんでした")
		}
		if synth.callCount() != 1 {
			t.Errorf("中断後も呼び出しが続いています: %d回", synth.callCount())
		}
		if len(results) != 3 {
			t.Fatalf("中断されても全件の結果が必要なのだ: %d", len(results))
		}
		for i, res := range results {
			if res.Success {
				t.Errorf("位置 %d が成功扱いになっています", i)
			}
		}
	})

	t.Run("並列実行でも全件の結果が入力順で返ること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{Concurrency: 2})

		results, err := p.GenerateAllHeroes(ctx, RequestOptions{})
		if err != nil {
			t.Fatalf("並列一括生成に失敗しました: %v", err)
		}
		if len(results) != 3 || synth.callCount() != 3 {
			t.Fatalf("件数が一致しません: results=%d calls=%d", len(results), synth.callCount())
		}
		expected := []string{"mabel", "otis", "pip"}
		for i, id := range expected {
			if results[i].Metadata["character_id"] != id {
				t.Errorf("位置 %d の期待値 '%s', 実際の値 '%s'", i, id, results[i].Metadata["character_id"])
			}
		}
	})
}

func TestPipeline_GenerateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("表紙が先頭、続いてページ番号順で生成されること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		results, err := p.GenerateBook(ctx, "book-01", BookOptions{Reference: "https://example.com/ref.png"})
		if err != nil {
			t.Fatalf("一括生成に失敗しました: %v", err)
		}
		if len(results) != 4 {
			t.Fatalf("結果数の期待値 4 (表紙+3ページ), 実際の値 %d", len(results))
		}
		if synth.calls[0].Kind != domain.KindCover {
			t.Errorf("先頭は表紙であるべきなのだ: %s", synth.calls[0].Kind)
		}
		pages := []string{"1", "2", "3"}
		for i, page := range pages {
			if synth.calls[i+1].Metadata["page"] != page {
				t.Errorf("ページ順の期待値 '%s', 実際の値 '%s'", page, synth.calls[i+1].Metadata["page"])
			}
		}
	})

	t.Run("ページフィルタは指定ページのみ生成すること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		results, err := p.GenerateBook(ctx, "book-01", BookOptions{
			Pages:     []int{2},
			SkipCover: true,
			Reference: "https://example.com/ref.png",
		})
		if err != nil {
			t.Fatalf("一括生成に失敗しました: %v", err)
		}
		if len(results) != 1 || synth.callCount() != 1 {
			t.Fatalf("件数が一致しません: results=%d calls=%d", len(results), synth.callCount())
		}
		if synth.calls[0].Metadata["page"] != "2" {
			t.Errorf("ページの期待値 '2', 実際の値 '%s'", synth.calls[0].Metadata["page"])
		}
	})

	t.Run("シーン個別のキャラクター指定が優先されること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		_, err := p.GenerateBook(ctx, "book-01", BookOptions{
			SkipCover: true,
			Reference: "https://example.com/ref.png",
		})
		if err != nil {
			t.Fatalf("一括生成に失敗しました: %v", err)
		}
		// page 1 はブック定義（pip+mabel）、page 2 はシーン指定（pip のみ）なのだ
		if len(synth.calls[0].CharacterIDs) != 2 {
			t.Errorf("page 1 のキャラクター数の期待値 2, 実際の値 %d", len(synth.calls[0].CharacterIDs))
		}
		if len(synth.calls[1].CharacterIDs) != 1 || synth.calls[1].CharacterIDs[0] != "pip" {
			t.Errorf("page 2 はシーン指定が優先されるべきなのだ: %v", synth.calls[1].CharacterIDs)
		}
	})

	t.Run("存在しないページ番号は外部呼び出し前に弾かれること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		_, err := p.GenerateBook(ctx, "book-01", BookOptions{Pages: []int{99}})
		var refErr *domain.ReferenceError
		if !errors.As(err, &refErr) {
			t.Fatalf("ReferenceError が返りませんでした: %v", err)
		}
		if synth.callCount() != 0 {
			t.Errorf("外部クライアントが呼ばれてしまいました: %d回", synth.callCount())
		}
	})

	t.Run("未知のブックIDは ReferenceError になること", func(t *testing.T) {
		synth := &mockSynth{}
		p := newTestPipeline(t, synth, Options{})

		_, err := p.GenerateBook(ctx, "book-99", BookOptions{})
		var refErr *domain.ReferenceError
		if !errors.As(err, &refErr) {
			t.Fatalf("ReferenceError が返りませんでした: %v", err)
		}
	})
}
