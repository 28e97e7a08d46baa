package model

// LabelType 标签类型
type LabelType string

// 标签类型常量
const (
	LabelTypeZone       LabelType = "zone"
	LabelTypeConstraint LabelType = "constraint"
	LabelTypeField      LabelType = "field"
	LabelTypeMessage    LabelType = "message"
	LabelTypeCategory   LabelType = "category"
)

// 支持的语言（法语为规范源语言）
const (
	LangFR = "fr"
	LangDE = "de"
	LangIT = "it"
	LangEN = "en"
)

// SupportedLangs 支持的语言列表
var SupportedLangs = []string{LangFR, LangDE, LangIT, LangEN}

// IsSupportedLang 是否支持该语言
func IsSupportedLang(lang string) bool {
	for _, l := range SupportedLangs {
		if l == lang {
			return true
		}
	}
	return false
}

// LabelText 单语言文本
type LabelText struct {
	Short string `json:"short" yaml:"short"`
	Long  string `json:"long,omitempty" yaml:"long,omitempty"`
}

// LabelEntry 标签字典条目（只读参考数据）
type LabelEntry struct {
	Code     string               `json:"code" yaml:"code"`
	Type     LabelType            `json:"type" yaml:"type"`
	Texts    map[string]LabelText `json:"texts" yaml:"texts"`
	Severity int                  `json:"severity,omitempty" yaml:"severity,omitempty"`
	Category string               `json:"category,omitempty" yaml:"category,omitempty"`
}
