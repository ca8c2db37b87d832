package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/domain"
)

func TestStore_Get(t *testing.T) {
	store := mustLoad(t)

	t.Run("ネストしたパスの値を取得できること", func(t *testing.T) {
		v, err := store.Get("api.defaults.guidance_scale")
		if err != nil {
			t.Fatalf("取得に失敗しました: %v", err)
		}
		if v.(float64) != 3.5 {
			t.Errorf("期待値 3.5, 実際の値 %v", v)
		}
	})

	t.Run("トップレベルの値を取得できること", func(t *testing.T) {
		v, err := store.Get("active_style")
		if err != nil {
			t.Fatalf("取得に失敗しました: %v", err)
		}
		if v.(string) != "rainbow" {
			t.Errorf("期待値 'rainbow', 実際の値 %v", v)
		}
	})

	t.Run("存在しないパスは ConfigError になること", func(t *testing.T) {
		_, err := store.Get("api.defaults.missing_key")
		var cfgErr *domain.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("ConfigError が返りませんでした: %v", err)
		}
		if cfgErr.Path != "api.defaults.missing_key" {
			t.Errorf("エラーパスの期待値 'api.defaults.missing_key', 実際の値 '%s'", cfgErr.Path)
		}
	})

	t.Run("途中のセグメント欠落も ConfigError になること", func(t *testing.T) {
		_, err := store.Get("nothing.defaults.guidance_scale")
		var cfgErr *domain.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("ConfigError が返りませんでした: %v", err)
		}
	})
}

func TestStore_Set(t *testing.T) {
	t.Run("設定した値が次の参照に反映されること", func(t *testing.T) {
		store := mustLoad(t)
		if err := store.Set("active_style", "pixar"); err != nil {
			t.Fatalf("設定に失敗しました: %v", err)
		}

		v, err := store.Get("active_style")
		if err != nil {
			t.Fatalf("取得に失敗しました: %v", err)
		}
		if v.(string) != "pixar" {
			t.Errorf("期待値 'pixar', 実際の値 %v", v)
		}
		if store.ActiveStyleID() != "pixar" {
			t.Errorf("型付きビューに反映されていません: %s", store.ActiveStyleID())
		}
	})

	t.Run("数値の更新が型付きビューに反映されること", func(t *testing.T) {
		store := mustLoad(t)
		if err := store.Set("api.defaults.guidance_scale", 5.0); err != nil {
			t.Fatalf("設定に失敗しました: %v", err)
		}
		if store.API().Defaults.GuidanceScale != 5.0 {
			t.Errorf("期待値 5.0, 実際の値 %v", store.API().Defaults.GuidanceScale)
		}
	})

	t.Run("int の値も number として設定できること", func(t *testing.T) {
		store := mustLoad(t)
		if err := store.Set("api.defaults.num_inference_steps", 40); err != nil {
			t.Fatalf("設定に失敗しました: %v", err)
		}
		if store.API().Defaults.InferenceSteps != 40 {
			t.Errorf("期待値 40, 実際の値 %v", store.API().Defaults.InferenceSteps)
		}
	})

	t.Run("存在しないパスへの追加は拒否されること", func(t *testing.T) {
		store := mustLoad(t)
		err := store.Set("api.defaults.brand_new_key", 1.0)
		var cfgErr *domain.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("ConfigError が返りませんでした: %v", err)
		}
	})

	t.Run("型の不一致は拒否されること", func(t *testing.T) {
		store := mustLoad(t)
		err := store.Set("api.defaults.guidance_scale", "high")
		var cfgErr *domain.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("ConfigError が返りませんでした: %v", err)
		}
	})

	t.Run("検証に失敗する更新は元の状態を保つこと", func(t *testing.T) {
		store := mustLoad(t)
		// 未定義のスタイルを指すようにすると再検証で失敗するのだ
		if err := store.Set("active_style", "missing"); err == nil {
			t.Fatal("検証に失敗すべき更新が成功してしまいました")
		}
		if store.ActiveStyleID() != "rainbow" {
			t.Errorf("失敗した更新で状態が変わっています: %s", store.ActiveStyleID())
		}
	})
}

func TestStore_SaveAndExport(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "master_config.json")
	if err := os.WriteFile(source, []byte(testCatalogJSON), 0o644); err != nil {
		t.Fatalf("テスト用カタログの書き込みに失敗しました: %v", err)
	}

	store, err := Load(source)
	if err != nil {
		t.Fatalf("ロードに失敗しました: %v", err)
	}

	t.Run("Save した内容を再ロードできること", func(t *testing.T) {
		if err := store.Set("active_style", "pixar"); err != nil {
			t.Fatalf("設定に失敗しました: %v", err)
		}
		if err := store.Save(); err != nil {
			t.Fatalf("保存に失敗しました: %v", err)
		}

		reloaded, err := Load(source)
		if err != nil {
			t.Fatalf("再ロードに失敗しました: %v", err)
		}
		if reloaded.ActiveStyleID() != "pixar" {
			t.Errorf("期待値 'pixar', 実際の値 '%s'", reloaded.ActiveStyleID())
		}
	})

	t.Run("Export は別パスに書き出してもロード元を変えないこと", func(t *testing.T) {
		exportPath := filepath.Join(dir, "exported", "catalog.json")
		if err := store.Export(exportPath); err != nil {
			t.Fatalf("書き出しに失敗しました: %v", err)
		}
		if _, err := os.Stat(exportPath); err != nil {
			t.Errorf("書き出したファイルが存在しません: %v", err)
		}
		if store.SourcePath() != source {
			t.Errorf("ロード元パスが変わっています: %s", store.SourcePath())
		}
	})

	t.Run("バイト列ロードの Save は保存先不明でエラーになること", func(t *testing.T) {
		memStore := mustLoad(t)
		if err := memStore.Save(); err == nil {
			t.Error("保存先不明でエラーが発生しませんでした")
		}
	})
}
