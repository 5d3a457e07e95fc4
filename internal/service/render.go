package service

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"lp_builder_v1_202601/internal/model"
)

// ==================== 渲染引擎接口 ====================

// Renderer 页面渲染引擎
// 对外协作方：纯函数，输入页面+内容块，输出 HTML 字符串。
// 真正的渲染引擎在独立模块里，这里只约定接口和一个兜底实现
type Renderer interface {
	Render(page *model.Page) (string, error)
}

// ==================== 基础块渲染实现 ====================

// renderBlock 编辑器内容块
type renderBlock struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Src     string `json:"src,omitempty"`
	Href    string `json:"href,omitempty"`
	Label   string `json:"label,omitempty"`
	FormKey string `json:"form_key,omitempty"`
}

// BlockRenderer 基础块渲染器（headline/text/image/button/form）
// 未识别的块类型跳过不报错，保证老页面在引擎升级后仍可出页
type BlockRenderer struct{}

// NewBlockRenderer 创建基础渲染器
func NewBlockRenderer() *BlockRenderer {
	return &BlockRenderer{}
}

// Render 把页面渲染成完整 HTML 文档
func (r *BlockRenderer) Render(page *model.Page) (string, error) {
	var blocks []renderBlock
	if len(page.Blocks) > 0 {
		if err := json.Unmarshal(page.Blocks, &blocks); err != nil {
			return "", fmt.Errorf("内容块解析失败: %w", err)
		}
	}

	var body strings.Builder
	for _, block := range blocks {
		switch block.Type {
		case "headline":
			body.WriteString("<h1>" + html.EscapeString(block.Text) + "</h1>")
		case "text":
			body.WriteString("<p>" + html.EscapeString(block.Text) + "</p>")
		case "image":
			body.WriteString(`<img src="` + html.EscapeString(block.Src) + `" alt="">`)
		case "button":
			body.WriteString(`<a class="btn" href="` + html.EscapeString(block.Href) + `">` +
				html.EscapeString(block.Label) + "</a>")
		case "form":
			body.WriteString(`<form method="post" data-page="` + html.EscapeString(page.PublicID) + `">` +
				`<input name="email" type="email" placeholder="Email">` +
				`<input name="name" type="text" placeholder="Name">` +
				`<button type="submit">` + html.EscapeString(block.Label) + `</button></form>`)
		}
	}

	title := page.SEOTitle
	if title == "" {
		title = page.Title
	}

	doc := fmt.Sprintf(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>%s</title><meta name="description" content="%s"></head>
<body>%s</body></html>`,
		html.EscapeString(title),
		html.EscapeString(page.SEODescription),
		body.String())

	return doc, nil
}
