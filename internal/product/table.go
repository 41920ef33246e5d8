package product

import (
	"strings"
	"sync"
)

// 中文说明：
// 静态参考数据：别名→标准品种代码（多对一）与品种→合约后缀格式。
// 进程启动时构建一次，之后只读，允许无锁并发读取。
// 运行期从后端拉到的品种名可通过 Table.MergeVarietyNames 合并为额外别名
// （生成新的 Table，原表不变）。

// SuffixYMM 单年位+两位月（郑商所风格，如 OI605）；缺省为两位年+两位月。
const (
	SuffixYMM     = "YMM"
	SuffixDefault = "YYMM"
)

// singleDigitYearCodes 采用 YMM 后缀的品种（郑商所）。
var singleDigitYearCodes = map[string]bool{
	"AP": true, "CF": true, "CJ": true, "CY": true, "FG": true,
	"JR": true, "LR": true, "MA": true, "OI": true, "PF": true,
	"PK": true, "PM": true, "PR": true, "PX": true, "RI": true,
	"RM": true, "RS": true, "SA": true, "SF": true, "SH": true,
	"SM": true, "SR": true, "TA": true, "UR": true, "WH": true,
	"ZC": true,
}

// UsesSingleDigitYear 判断品种合约代码是否使用单年位格式。
func UsesSingleDigitYear(code string) bool {
	return singleDigitYearCodes[strings.ToUpper(code)]
}

// SuffixFormat 返回品种的合约后缀格式标识。
func SuffixFormat(code string) string {
	if UsesSingleDigitYear(code) {
		return SuffixYMM
	}
	return SuffixDefault
}

// defaultAliases 内置别名表：中文全称、习惯简称与英文代码变体 → 标准代码。
var defaultAliases = map[string]string{
	// 上期所
	"铜": "CU", "沪铜": "CU", "阴极铜": "CU",
	"铝": "AL", "沪铝": "AL",
	"锌": "ZN", "沪锌": "ZN",
	"铅": "PB", "沪铅": "PB",
	"镍": "NI", "沪镍": "NI",
	"锡": "SN", "沪锡": "SN",
	"黄金": "AU", "沪金": "AU",
	"白银": "AG", "沪银": "AG",
	"螺纹": "RB", "螺纹钢": "RB",
	"线材": "WR",
	"热卷": "HC", "热轧卷板": "HC", "热轧": "HC",
	"不锈钢": "SS",
	"燃油":  "FU", "燃料油": "FU",
	"沥青": "BU", "石油沥青": "BU",
	"橡胶": "RU", "天然橡胶": "RU", "天胶": "RU",
	"纸浆":    "SP",
	"氧化铝":   "AO",
	"丁二烯橡胶": "BR", "合成橡胶": "BR",
	// 能源中心
	"原油":    "SC",
	"低硫燃料油": "LU", "低硫": "LU",
	"20号胶": "NR",
	"国际铜":  "BC",
	"集运欧线": "EC", "集运指数": "EC",
	// 大商所
	"豆一": "A", "黄大豆一号": "A",
	"豆二": "B", "黄大豆二号": "B",
	"豆粕": "M",
	"豆油": "Y",
	"棕榈": "P", "棕榈油": "P",
	"玉米": "C",
	"淀粉": "CS", "玉米淀粉": "CS",
	"鸡蛋": "JD",
	"塑料": "L", "聚乙烯": "L",
	"PVC": "V", "聚氯乙烯": "V",
	"聚丙烯": "PP",
	"焦炭":  "J",
	"焦煤":  "JM",
	"铁矿":  "I", "铁矿石": "I",
	"乙二醇": "EG",
	"苯乙烯": "EB",
	"LPG": "PG", "液化石油气": "PG",
	"粳米": "RR",
	"生猪": "LH",
	// 郑商所
	"白糖": "SR", "郑糖": "SR",
	"棉花": "CF", "郑棉": "CF", "一号棉": "CF",
	"棉纱":  "CY",
	"PTA": "TA",
	"菜油":  "OI", "菜籽油": "OI",
	"菜粕": "RM", "菜籽粕": "RM",
	"菜籽": "RS", "油菜籽": "RS",
	"甲醇": "MA", "郑醇": "MA",
	"玻璃":  "FG",
	"纯碱":  "SA",
	"动力煤": "ZC", "郑煤": "ZC",
	"硅铁": "SF",
	"锰硅": "SM", "硅锰": "SM",
	"尿素": "UR",
	"苹果": "AP",
	"红枣": "CJ",
	"花生": "PK",
	"短纤": "PF", "涤纶短纤": "PF",
	"强麦":   "WH",
	"对二甲苯": "PX",
	"烧碱":   "SH",
	"瓶片":   "PR",
	// 广期所
	"工业硅": "SI",
	"碳酸锂": "LC",
	"多晶硅": "PS",
}

// Table 只读别名/代码表。normalized 为预归一化别名（与查询同一套归一化）。
type Table struct {
	aliases    map[string]string // 原始别名 → 代码
	normalized map[string]string // 原始别名 → 归一化形式
	codes      map[string]bool   // 标准代码集合
}

func buildTable(aliases map[string]string) *Table {
	t := &Table{
		aliases:    make(map[string]string, len(aliases)),
		normalized: make(map[string]string, len(aliases)),
		codes:      make(map[string]bool, len(aliases)),
	}
	for alias, code := range aliases {
		code = strings.ToUpper(strings.TrimSpace(code))
		if alias == "" || code == "" {
			continue
		}
		t.aliases[alias] = code
		if n := NormalizeQuery(alias); n != "" {
			t.normalized[alias] = n
		}
		t.codes[code] = true
	}
	// 代码本身也是自己的别名（rb → RB）。
	for code := range t.codes {
		if _, ok := t.aliases[code]; !ok {
			t.aliases[code] = code
			t.normalized[code] = code
		}
	}
	return t
}

var (
	defaultTableOnce sync.Once
	defaultTable     *Table
)

// DefaultTable 返回内置参考表（懒加载，进程内共享）。
func DefaultTable() *Table {
	defaultTableOnce.Do(func() {
		defaultTable = buildTable(defaultAliases)
	})
	return defaultTable
}

// NewTable 由自定义别名表构建（测试与动态合并用）。
func NewTable(aliases map[string]string) *Table {
	return buildTable(aliases)
}

// MergeVarietyNames 将后端品种名映射（code→name）合并为额外别名，返回新表。
func (t *Table) MergeVarietyNames(names map[string]string) *Table {
	merged := make(map[string]string, len(t.aliases)+len(names))
	for alias, code := range t.aliases {
		merged[alias] = code
	}
	for code, name := range names {
		code = strings.ToUpper(strings.TrimSpace(code))
		name = strings.TrimSpace(name)
		if code == "" || name == "" {
			continue
		}
		if _, ok := merged[name]; !ok {
			merged[name] = code
		}
	}
	return buildTable(merged)
}

// HasCode 判断是否为已知标准代码。
func (t *Table) HasCode(code string) bool {
	return t.codes[strings.ToUpper(code)]
}

// Len 别名条数（含代码自身别名）。
func (t *Table) Len() int { return len(t.aliases) }
