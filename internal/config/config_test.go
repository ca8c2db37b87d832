package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shouni/go-storybook-kit/pkg/catalog"
)

// デフォルトのカタログパスが、リポジトリに同梱されたサンプルを指すことを確認するのだ。
func TestDefaultCatalogFileExists(t *testing.T) {
	path := filepath.Join("..", "..", DefaultCatalogFile)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("デフォルトのカタログファイルが読めないのだ (%s): %v", DefaultCatalogFile, err)
	}

	if _, err := catalog.LoadFromBytes(data); err != nil {
		t.Fatalf("同梱カタログの検証に失敗したのだ: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("FAL_KEY", "env-key")
	t.Setenv("FLUX_MODEL", "fal-ai/custom-model")
	t.Setenv("FAL_ENDPOINT", "")

	cfg := LoadConfig()
	if cfg.FalAPIKey != "env-key" {
		t.Errorf("FAL_KEY の期待値 'env-key', 実際の値 '%s'", cfg.FalAPIKey)
	}
	if cfg.FluxModel != "fal-ai/custom-model" {
		t.Errorf("FLUX_MODEL の期待値 'fal-ai/custom-model', 実際の値 '%s'", cfg.FluxModel)
	}
	if cfg.FalEndpoint != "" {
		t.Errorf("未設定の FAL_ENDPOINT は空のはずなのだ: '%s'", cfg.FalEndpoint)
	}
}
