// Package asset は生成画像の出力パス解決を担当します。
// ローカルパスと gs:// URL の両方を透過的に扱います。
package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultOutputDir は生成画像のデフォルト出力先ディレクトリです。
	DefaultOutputDir = "output"
	// CharacterDirName はヒーローショットを格納するサブディレクトリ名です。
	CharacterDirName = "characters"
	// DefaultPageBaseName はページ画像の共通のベースファイル名です。
	DefaultPageBaseName = "page"
	// CoverBaseName は表紙画像のベースファイル名です。
	CoverBaseName = "cover"
	// GroupBaseName は集合ショットのベースファイル名です。
	GroupBaseName = "group"
)

// PageFileRegexFor は指定フォーマットのページ画像 (page_1.jpeg 等) に一致する
// 正規表現を返します。ページ番号は最初のキャプチャグループです。
func PageFileRegexFor(format string) *regexp.Regexp {
	return createIndexedRegex(DefaultPageBaseName + "." + ext(format))
}

// HeroPath は単体キャラクターのヒーローショットの出力パスを返します。
// 例: output/characters/rabbit.jpeg
func HeroPath(outputDir, characterID, format string) (string, error) {
	return urlpath.ResolvePath(joinDir(outputDir, CharacterDirName), characterID+"."+ext(format))
}

// GroupPath は集合ショットの出力パスを返します。
func GroupPath(outputDir, format string) (string, error) {
	return urlpath.ResolvePath(outputDir, GroupBaseName+"."+ext(format))
}

// CoverPath はブックの表紙画像の出力パスを返します。
// 例: output/book-01/cover.jpeg
func CoverPath(outputDir, bookID, format string) (string, error) {
	return urlpath.ResolvePath(joinDir(outputDir, bookID), CoverBaseName+"."+ext(format))
}

// ScenePath はブックのページ画像の出力パスを返します。ページ番号は
// 拡張子の前に連番として挿入されます。例: output/book-01/page_3.jpeg
func ScenePath(outputDir, bookID string, page int, format string) (string, error) {
	base, err := urlpath.ResolvePath(joinDir(outputDir, bookID), DefaultPageBaseName+"."+ext(format))
	if err != nil {
		return "", err
	}
	return urlpath.GenerateIndexedPath(base, page)
}

// NamedPath は呼び出し側が明示したファイル名の出力パスを返します。
func NamedPath(outputDir, fileName string) (string, error) {
	return urlpath.ResolvePath(outputDir, fileName)
}

// ListGeneratedPages はブックの出力ディレクトリにある生成済みページ画像を
// ページ番号の昇順で返します。ディレクトリ未作成は未生成とみなし空を返します。
// ローカルパスのみ対象で、gs:// の走査は行いません。
func ListGeneratedPages(outputDir, bookID, format string) ([]string, error) {
	dir := joinDir(outputDir, bookID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("出力ディレクトリの走査に失敗しました: %w", err)
	}

	re := PageFileRegexFor(format)
	type pageFile struct {
		page int
		name string
	}
	var pages []pageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		page, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, pageFile{page: page, name: entry.Name()})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].page < pages[j].page })

	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, joinDir(dir, p.name))
	}
	return out, nil
}

// joinDir は gs:// とローカルの両方で安全にサブディレクトリを連結します。
func joinDir(baseDir, sub string) string {
	return strings.TrimSuffix(baseDir, "/") + "/" + sub
}

// ext は出力フォーマットを拡張子に正規化します。空なら jpeg です。
func ext(format string) string {
	if format == "" {
		return "jpeg"
	}
	return strings.TrimPrefix(format, ".")
}

// createIndexedRegex は、ファイル名に基づきインデックス付きファイル用の正規表現を生成します。
// 例: "page.jpeg" -> ^page_(\d+)\.jpeg$
func createIndexedRegex(fileName string) *regexp.Regexp {
	dot := strings.LastIndex(fileName, ".")
	baseName, fext := fileName[:dot], fileName[dot:]

	pattern := fmt.Sprintf(`^%s_(\d+)%s$`, regexp.QuoteMeta(baseName), regexp.QuoteMeta(fext))
	return regexp.MustCompile(pattern)
}
