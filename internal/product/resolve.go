package product

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"golang.org/x/text/unicode/norm"
)

// 中文说明：
// 模糊品种解析：把询价文本中的产品提法（中文名/简称/代码）落到标准品种代码。
// 三趟匹配：
//  1) 确定性：别名归一化后是查询子串 → 100 分；
//  2) 确定性：查询中 1-6 位连续字母串与标准代码全等 → 100 分；
//  3) 模糊：去掉数字后对全部别名做 WRatio 加权比率匹配，保留 >= cutoff。
// 合并按代码去重取最高分，(分数降序, 代码升序) 排序后截断 top_k。
// 任何退化输入（空查询、top_k<=0）直接返回空切片，不报错。

// DefaultFuzzyCutoff 模糊匹配接受阈值。
const DefaultFuzzyCutoff = 60

// Candidate 品种候选：标准代码、命中的别名、[0,100] 置信分。
type Candidate struct {
	ProductCode  string  `json:"product_code"`
	MatchedAlias string  `json:"matched_alias"`
	Score        float64 `json:"score"`
}

// NormalizeQuery 查询归一化：NFKC 兼容折叠、转大写，仅保留字母/数字/汉字。
func NormalizeQuery(s string) string {
	folded := norm.NFKC.String(s)
	var b strings.Builder
	for _, r := range strings.ToUpper(folded) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.Is(unicode.Han, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

var (
	reLetterRun = regexp.MustCompile(`[A-Z]+`)
	reDigits    = regexp.MustCompile(`[0-9]+`)
)

// Resolver 在一张只读 Table 上做候选检索，可并发使用。
type Resolver struct {
	table  *Table
	cutoff int
}

// NewResolver 构造解析器；cutoff <= 0 时使用 DefaultFuzzyCutoff。
func NewResolver(table *Table, cutoff int) *Resolver {
	if table == nil {
		table = DefaultTable()
	}
	if cutoff <= 0 {
		cutoff = DefaultFuzzyCutoff
	}
	return &Resolver{table: table, cutoff: cutoff}
}

// FindCandidates 返回按置信度排序的品种候选，最多 topK 个。
func (r *Resolver) FindCandidates(query string, topK int) []Candidate {
	if topK <= 0 {
		return []Candidate{}
	}
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return []Candidate{}
	}

	best := make(map[string]Candidate)
	keep := func(c Candidate) {
		c.Score = math.Round(math.Min(math.Max(c.Score, 0), 100)*100) / 100
		// 同分时取字典序较小的别名，保证结果确定。
		prev, ok := best[c.ProductCode]
		if !ok || c.Score > prev.Score || (c.Score == prev.Score && c.MatchedAlias < prev.MatchedAlias) {
			best[c.ProductCode] = c
		}
	}

	// 第一趟：别名子串精确命中。
	for alias, aliasNorm := range r.table.normalized {
		if aliasNorm != "" && strings.Contains(normalized, aliasNorm) {
			keep(Candidate{ProductCode: r.table.aliases[alias], MatchedAlias: alias, Score: 100})
		}
	}

	// 第二趟：字母连续串与标准代码全等。
	for _, run := range reLetterRun.FindAllString(normalized, -1) {
		if len(run) >= 1 && len(run) <= 6 && r.table.HasCode(run) {
			keep(Candidate{ProductCode: run, MatchedAlias: run, Score: 100})
		}
	}

	// 第三趟：模糊补充。先做轻度归一化（NFKC+大写）再剔除数字，
	// 避免月份数字干扰别名比对。
	light := strings.ToUpper(norm.NFKC.String(query))
	fuzzyQuery := strings.TrimSpace(reDigits.ReplaceAllString(light, ""))
	if fuzzyQuery != "" {
		window := topK * 5
		if window < 10 {
			window = 10
		}
		type scored struct {
			alias string
			score int
		}
		matches := make([]scored, 0, window)
		for alias := range r.table.aliases {
			s := fuzzy.WRatio(fuzzyQuery, alias)
			if s >= r.cutoff {
				matches = append(matches, scored{alias: alias, score: s})
			}
		}
		sort.Slice(matches, func(i, j int) bool {
			if matches[i].score != matches[j].score {
				return matches[i].score > matches[j].score
			}
			return matches[i].alias < matches[j].alias
		})
		if len(matches) > window {
			matches = matches[:window]
		}
		for _, m := range matches {
			keep(Candidate{ProductCode: r.table.aliases[m.alias], MatchedAlias: m.alias, Score: float64(m.score)})
		}
	}

	out := make([]Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ProductCode < out[j].ProductCode
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
