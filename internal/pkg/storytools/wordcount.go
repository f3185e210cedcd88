package storytools

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
)

var (
	segOnce sync.Once
	seg     gse.Segmenter
)

func segmenter() *gse.Segmenter {
	segOnce.Do(func() {
		// 加载内置词典，失败时退化为逐字切分，不影响计数可用性
		_ = seg.LoadDict()
	})
	return &seg
}

// containsCJK 判断文本里是否有中日韩统一表意文字或假名
func containsCJK(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// CountWords 统计旁白字数
// 拉丁语系按空白切词；中日韩文本走 gse 分词，标点不计入
func CountWords(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	if !containsCJK(text) {
		return len(strings.Fields(text))
	}

	words := segmenter().Cut(text, true)
	count := 0
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if isPunctOnly(w) {
			continue
		}
		count++
	}
	return count
}

func isPunctOnly(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
