package product

import "testing"

func TestNormalizeQuery(t *testing.T) {
	cases := []struct{ in, want string }{
		{"热卷05合约，报价", "热卷05合约报价"},
		{"rb10 看跌", "RB10看跌"},
		{"ｒｂ１０", "RB10"}, // 全角经 NFKC 折叠
		{"!!!@@@", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeQuery(c.in); got != c.want {
			t.Errorf("NormalizeQuery(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFindCandidatesChineseAlias(t *testing.T) {
	r := NewResolver(nil, 0)
	got := r.FindCandidates("热卷05合约，报价", 3)
	if len(got) == 0 {
		t.Fatal("无候选")
	}
	if got[0].ProductCode != "HC" || got[0].Score != 100 {
		t.Errorf("首位候选 = %+v, want HC/100", got[0])
	}
}

func TestFindCandidatesGeneratedFullName(t *testing.T) {
	r := NewResolver(nil, 0)
	got := r.FindCandidates("热轧卷板05合约", 3)
	if len(got) == 0 || got[0].ProductCode != "HC" {
		t.Errorf("候选 = %+v, want HC 居首", got)
	}
}

func TestFindCandidatesCodeToken(t *testing.T) {
	r := NewResolver(nil, 0)
	got := r.FindCandidates("rb10 看跌报价", 3)
	found := false
	for _, c := range got {
		if c.ProductCode == "RB" {
			found = true
			if c.Score != 100 {
				t.Errorf("代码全等应得满分: %+v", c)
			}
		}
	}
	if !found {
		t.Errorf("未命中 RB: %+v", got)
	}
}

func TestFindCandidatesDedupPerCode(t *testing.T) {
	r := NewResolver(nil, 0)
	got := r.FindCandidates("热卷 热轧卷板", 10)
	seen := 0
	for _, c := range got {
		if c.ProductCode == "HC" {
			seen++
		}
	}
	if seen != 1 {
		t.Errorf("同一代码应只保留一个候选, got %d", seen)
	}
}

func TestFindCandidatesDeterministicOrder(t *testing.T) {
	r := NewResolver(nil, 0)
	// 两个满分候选按代码升序。
	a := r.FindCandidates("热卷 螺纹", 5)
	b := r.FindCandidates("热卷 螺纹", 5)
	if len(a) < 2 || len(b) < 2 {
		t.Fatalf("候选不足: %+v", a)
	}
	if a[0].ProductCode != "HC" || a[1].ProductCode != "RB" {
		t.Errorf("排序错误: %+v", a)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("结果不确定: %+v vs %+v", a[i], b[i])
		}
	}
}

func TestFindCandidatesDegenerateInput(t *testing.T) {
	r := NewResolver(nil, 0)
	if got := r.FindCandidates("", 3); len(got) != 0 {
		t.Errorf("空查询应返回空: %+v", got)
	}
	if got := r.FindCandidates("!!!", 3); len(got) != 0 {
		t.Errorf("归一化后为空应返回空: %+v", got)
	}
	if got := r.FindCandidates("热卷", 0); len(got) != 0 {
		t.Errorf("top_k=0 应返回空: %+v", got)
	}
	if got := r.FindCandidates("热卷", -1); len(got) != 0 {
		t.Errorf("top_k<0 应返回空: %+v", got)
	}
}

func TestFindCandidatesTopKTruncation(t *testing.T) {
	r := NewResolver(nil, 0)
	got := r.FindCandidates("热卷 螺纹 豆粕 白糖", 2)
	if len(got) > 2 {
		t.Errorf("top_k=2 截断失败: %+v", got)
	}
}

func TestMergeVarietyNames(t *testing.T) {
	base := DefaultTable()
	merged := base.MergeVarietyNames(map[string]string{
		"QQ": "测试品种",
		"":   "无效",
		"ZZ": "",
	})
	if base.HasCode("QQ") {
		t.Fatal("合并不得修改原表")
	}
	r := NewResolver(merged, 0)
	got := r.FindCandidates("测试品种05合约", 3)
	if len(got) == 0 || got[0].ProductCode != "QQ" {
		t.Errorf("合并别名未命中: %+v", got)
	}
}

func TestSuffixFormat(t *testing.T) {
	if !UsesSingleDigitYear("OI") || !UsesSingleDigitYear("cf") {
		t.Error("郑商所品种应为单年位")
	}
	if UsesSingleDigitYear("HC") || UsesSingleDigitYear("RB") {
		t.Error("上期所品种不应为单年位")
	}
	if SuffixFormat("OI") != SuffixYMM || SuffixFormat("HC") != SuffixDefault {
		t.Error("SuffixFormat 标识错误")
	}
}
