package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"threadly/internal/apperrors"
	"threadly/internal/blob"

	"github.com/gin-gonic/gin"
)

// 盗链提醒 SVG 图片
const hotlinkSVG = `<svg width="200" height="200" xmlns="http://www.w3.org/2000/svg">
  <rect width="100%" height="100%" fill="#f8f9fa"/>
  <text x="50%" y="50%" font-family="Arial" font-size="14" fill="#6c757d" text-anchor="middle">
    Image hotlinking is not allowed
  </text>
</svg>`

// BlobHandler 图片上传与读取
type BlobHandler struct {
	store blob.Store
	// 本地存储时非空
	local *blob.LocalStore
	// 允许跨站嵌入图片的来源，"*" 表示全部
	allowedOrigins map[string]bool
}

// NewBlobHandler allowedOrigins 为前端所在的来源，如 https://app.example.com
func NewBlobHandler(store blob.Store, allowedOrigins []string) *BlobHandler {
	h := &BlobHandler{store: store, allowedOrigins: make(map[string]bool, len(allowedOrigins))}
	if local, ok := store.(*blob.LocalStore); ok {
		h.local = local
	}
	for _, o := range allowedOrigins {
		if o = normalizeOrigin(o); o != "" {
			h.allowedOrigins[o] = true
		}
	}
	return h
}

// UploadURL POST /api/blobs/upload-url 获取上传地址
// 返回短期有效的上传地址和 storageId
func (h *BlobHandler) UploadURL(c *gin.Context) {
	up, err := h.store.NewUpload(c.Request.Context())
	if err != nil {
		RenderError(c, err)
		return
	}
	ok(c, up)
}

// Upload POST /api/blobs/upload/:token 上传图片
// 请求体为图片原始字节，Content-Type 必须是 image/*
func (h *BlobHandler) Upload(c *gin.Context) {
	if h.local == nil {
		c.Status(http.StatusNotFound)
		return
	}

	// 验证文件类型
	contentType := c.ContentType()
	if !strings.HasPrefix(contentType, "image/") {
		RenderError(c, apperrors.New(apperrors.CodeInvalidArgument, "Only image uploads are allowed"))
		return
	}

	// 验证文件大小（限制 10MB）
	if c.Request.ContentLength > blob.MaxUploadBytes {
		RenderError(c, apperrors.New(apperrors.CodeInvalidArgument, "Image must be 10MB or smaller"))
		return
	}

	id, err := h.local.Put(c.Request.Context(), c.Param("token"), contentType, c.Request.Body)
	switch {
	case errors.Is(err, blob.ErrInvalidToken):
		RenderError(c, apperrors.Wrap(apperrors.CodeUnauthorized, "Upload link is invalid or expired", err))
		return
	case errors.Is(err, blob.ErrTooLarge):
		RenderError(c, apperrors.Wrap(apperrors.CodeInvalidArgument, "Image must be 10MB or smaller", err))
		return
	case err != nil:
		RenderError(c, err)
		return
	}
	ok(c, gin.H{"storageId": id})
}

// Serve GET /api/blobs/:id 读取图片
// 使用 Sec-Fetch-* 头部检测盗链
func (h *BlobHandler) Serve(c *gin.Context) {
	if h.local == nil {
		c.Status(http.StatusNotFound)
		return
	}

	if !h.isAllowedRequest(c) {
		c.Header("Content-Type", "image/svg+xml")
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.String(http.StatusOK, hotlinkSVG)
		return
	}

	rc, contentType, err := h.local.Open(c.Request.Context(), c.Param("id"))
	if errors.Is(err, blob.ErrNotFound) {
		RenderError(c, apperrors.New(apperrors.CodeNotFound, "Image not found"))
		return
	}
	if err != nil {
		RenderError(c, err)
		return
	}
	defer rc.Close()

	// 缓存 7 天，blob 内容不可变
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=604800, immutable")
	c.Header("Vary", "Sec-Fetch-Site, Sec-Fetch-Mode")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

// isAllowedRequest 使用 Sec-Fetch-* 头部检测是否为合法请求
func (h *BlobHandler) isAllowedRequest(c *gin.Context) bool {
	switch c.GetHeader("Sec-Fetch-Site") {
	// 旧浏览器或直接访问、同源、同站、地址栏输入
	case "", "same-origin", "same-site", "none":
		return true
	}
	// 导航模式允许在新标签页打开图片
	if c.GetHeader("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	// 白名单来源，其他跨站请求视为盗链
	if h.allowedOrigins["*"] {
		return true
	}
	origin := normalizeOrigin(c.GetHeader("Origin"))
	if origin == "" {
		origin = normalizeOrigin(c.GetHeader("Referer"))
	}
	return origin != "" && h.allowedOrigins[origin]
}

// normalizeOrigin 取 scheme://host 部分并转小写
func normalizeOrigin(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "*" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Scheme + "://" + u.Host)
}
