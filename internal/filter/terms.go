// 包 filter 负责帖子级过滤：
// - 由查询语句与排除词条编译包含/排除正则
// - 按固定顺序判定帖子接受或跳过（首个命中的规则生效）
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// CompileInclude 从搜索查询中提取普通关键词，编译为不区分大小写的"或"模式。
// 丢弃含 ':' 的字段限定词、空词与运算符 OR；没有剩余关键词时返回 nil。
// 服务端搜索不保证按正文匹配关键词，因此需要在本地再次校验。
func CompileInclude(query string) (*regexp.Regexp, error) {
	tokens := strings.FieldsFunc(query, func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == ')' || r == '"'
	})
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" || tok == "OR" || strings.Contains(tok, ":") {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(tok))
	}
	if len(parts) == 0 {
		return nil, nil
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(parts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile include terms: %w", err)
	}
	return re, nil
}

// CompileExclude 将排除词条原样（作为正则片段）拼接为不区分大小写的"或"模式；
// 词条为空时返回 nil。
func CompileExclude(terms []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return nil, nil
	}
	re, err := regexp.Compile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compile exclude terms: %w", err)
	}
	return re, nil
}

// Matches 判断模式是否在文本任意位置出现（子串查找，非整体匹配）。
func Matches(re *regexp.Regexp, text string) bool {
	return re != nil && re.MatchString(text)
}

// FindMatch 返回首个命中的子串。
func FindMatch(re *regexp.Regexp, text string) (string, bool) {
	if re == nil {
		return "", false
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[0]:loc[1]], true
}
