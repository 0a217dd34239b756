package image

import (
	"mime"
	"path/filepath"
	"strings"
)

// mimeFallback 常见图片扩展名的 MIME 类型
// 系统 MIME 表缺失时兜底
var mimeFallback = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
}

// MimeType 按文件名推断图片 MIME 类型
func MimeType(imageName string) string {
	ext := strings.ToLower(filepath.Ext(imageName))
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	if t, ok := mimeFallback[ext]; ok {
		return t
	}
	return "application/octet-stream"
}
