package utils

import (
	"bytes"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	strictPolicy *bluemonday.Policy
	ugcPolicy    *bluemonday.Policy
	markdown     goldmark.Markdown
	policyOnce   sync.Once
)

func initPolicies() {
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy = bluemonday.UGCPolicy()
	ugcPolicy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "pre")
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// SanitizePlainText 去掉所有 HTML 标签，用于评论、举报理由等纯文本
//
// bluemonday 会把 & < > 等字符转义，这里再反转义一次，
// 保存的是用户看到的原文，输出时由前端负责转义。
func SanitizePlainText(input string) string {
	policyOnce.Do(initPolicies)
	cleaned := strictPolicy.Sanitize(input)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// SanitizeHTML 按 UGC 策略清理 HTML
func SanitizeHTML(input string) string {
	if input == "" {
		return ""
	}
	policyOnce.Do(initPolicies)
	return ugcPolicy.Sanitize(input)
}

// RenderMarkdown 把 markdown 渲染为经过清理的 HTML
func RenderMarkdown(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}
	policyOnce.Do(initPolicies)
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return string(ugcPolicy.SanitizeBytes(buf.Bytes())), nil
}
