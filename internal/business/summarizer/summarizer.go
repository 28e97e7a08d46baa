// Package summarizer 短文本截断、合并、关键词与去重
package summarizer

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 默认参数
const (
	Ellipsis           = "…"
	DefaultMaxWords    = 12
	DuplicateThreshold = 0.85
)

// trailingPunct 截断后末尾不允许留下的标点
const trailingPunct = ",;:.-–—"

var stopwords = map[string]struct{}{
	// fr
	"le": {}, "la": {}, "les": {}, "de": {}, "des": {}, "du": {}, "un": {}, "une": {}, "et": {},
	"en": {}, "au": {}, "aux": {}, "pour": {}, "par": {}, "sur": {}, "dans": {}, "est": {}, "avec": {},
	// de
	"der": {}, "die": {}, "das": {}, "und": {}, "im": {}, "mit": {}, "fur": {}, "von": {}, "zu": {}, "ist": {},
	// it
	"il": {}, "di": {}, "del": {}, "della": {}, "per": {}, "con": {}, "nel": {}, "una": {},
	// en
	"the": {}, "of": {}, "and": {}, "in": {}, "to": {}, "for": {}, "with": {}, "is": {}, "on": {},
}

// FoldAccents 去除变音符号（é → e，ü → u）
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Normalize 小写、去变音、去标点、压缩空白
func Normalize(text string) string {
	folded := strings.ToLower(FoldAccents(text))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Slug 生成代码片段（小写、去变音、非字母数字转下划线）
func Slug(text string) string {
	return strings.ReplaceAll(Normalize(text), " ", "_")
}

// WordCount 按空白分词计数
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// TruncateWords 按单词截断，超过 max 个单词时保留前 max 个并在末词后紧贴省略号
// 不超过上限时原样返回（仅去掉首尾空白）；max <= 0 使用 DefaultMaxWords
func TruncateWords(text string, max int) string {
	if max <= 0 {
		max = DefaultMaxWords
	}

	words := strings.Fields(text)
	if len(words) <= max {
		return strings.TrimSpace(text)
	}

	kept := words[:max]
	for len(kept) > 0 {
		last := strings.TrimRight(kept[len(kept)-1], trailingPunct)
		if last != "" {
			kept[len(kept)-1] = last
			break
		}
		kept = kept[:len(kept)-1]
	}
	if len(kept) == 0 {
		return Ellipsis
	}

	return strings.Join(kept, " ") + Ellipsis
}

// Combine 去重后用 "; " 拼接，再按单词上限截断
func Combine(texts []string, max int) string {
	unique := Dedupe(texts)
	parts := make([]string, 0, len(unique))
	for _, t := range unique {
		part := strings.TrimRight(strings.TrimSpace(t), ".;")
		if part != "" {
			parts = append(parts, part)
		}
	}
	return TruncateWords(strings.Join(parts, "; "), max)
}

// Keywords 提取关键词（去停用词，按出现次数降序，次数相同按首次出现顺序）
func Keywords(text string, n int) []string {
	if n <= 0 {
		return nil
	}

	counts := make(map[string]int)
	first := make(map[string]int)
	order := 0
	for _, token := range strings.Fields(Normalize(text)) {
		if len([]rune(token)) < 3 {
			continue
		}
		if _, stop := stopwords[token]; stop {
			continue
		}
		if _, seen := first[token]; !seen {
			first[token] = order
			order++
		}
		counts[token]++
	}

	keywords := make([]string, 0, len(counts))
	for token := range counts {
		keywords = append(keywords, token)
	}
	sort.Slice(keywords, func(i, j int) bool {
		a, b := keywords[i], keywords[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return first[a] < first[b]
	})

	if len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}

// Dedupe 去除空消息与近似重复（规范化后相等或词集 Jaccard ≥ 0.85），保留先出现的
func Dedupe(messages []string) []string {
	out := make([]string, 0, len(messages))
	kept := make([]map[string]struct{}, 0, len(messages))
	keptNorm := make([]string, 0, len(messages))

	for _, msg := range messages {
		normalized := Normalize(msg)
		if normalized == "" {
			continue
		}
		tokens := tokenSet(normalized)

		duplicate := false
		for i := range kept {
			if keptNorm[i] == normalized || jaccard(kept[i], tokens) >= DuplicateThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		out = append(out, strings.TrimSpace(msg))
		kept = append(kept, tokens)
		keptNorm = append(keptNorm, normalized)
	}
	return out
}

// IsDuplicate 两条消息是否近似重复
func IsDuplicate(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return na == nb
	}
	return na == nb || jaccard(tokenSet(na), tokenSet(nb)) >= DuplicateThreshold
}

func tokenSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(normalized) {
		set[token] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for token := range a {
		if _, ok := b[token]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
