package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var plainTextPolicy = bluemonday.StrictPolicy()

// plainText 去掉编辑器粘贴进来的 HTML 标签，只保留纯文本。
// 渲染阶段会统一转义，这里把 bluemonday 产生的实体还原，避免二次转义。
func plainText(value string) string {
	return strings.TrimSpace(html.UnescapeString(plainTextPolicy.Sanitize(value)))
}

func plainTextPtr(value *string) *string {
	if value == nil {
		return nil
	}
	cleaned := plainText(*value)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}
