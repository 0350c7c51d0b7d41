package router

import (
	"log/slog"
	"net/http"
	"threadly/internal/blob"
	"threadly/internal/handlers"
	"threadly/internal/identity"
	"threadly/internal/middleware"
	"threadly/internal/observability"
	"threadly/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const sessionName = "threadly_session"

// Deps 路由需要的服务
type Deps struct {
	Communities *services.CommunityService
	Posts       *services.PostService
	Comments    *services.CommentService
	Votes       *services.VoteService
	Users       *services.UserService
	Blobs       blob.Store
	Verifier    identity.Verifier
	Health      handlers.Pinger

	Metrics  *observability.Metrics
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger

	SessionSecret []byte

	// BlobAllowedOrigins 允许跨站嵌入图片的前端来源
	BlobAllowedOrigins []string

	// CommunityPostsNotFound 取值 config.NotFoundPolicyEmpty 或 config.NotFoundPolicyExplicit
	CommunityPostsNotFound string
}

// New 创建引擎，挂载全局中间件和所有路由
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	if d.Logger != nil {
		r.Use(middleware.RequestLogger(d.Logger))
	}
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}
	r.Use(sessions.Sessions(sessionName, newCookieStore(d.SessionSecret)))

	RegisterRoutes(r, d)
	return r
}

func newCookieStore(secret []byte) cookie.Store {
	store := cookie.NewStore(secret)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// 处理器
	communityHandler := handlers.NewCommunityHandler(d.Communities, d.Posts, d.CommunityPostsNotFound)
	postHandler := handlers.NewPostHandler(d.Posts)
	commentHandler := handlers.NewCommentHandler(d.Comments)
	voteHandler := handlers.NewVoteHandler(d.Votes)
	userHandler := handlers.NewUserHandler(d.Users, d.Posts)
	blobHandler := handlers.NewBlobHandler(d.Blobs, d.BlobAllowedOrigins)
	sessionHandler := handlers.NewSessionHandler(d.Verifier, d.Users)

	r.GET("/healthz", handlers.Health(d.Health))
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.Use(middleware.LoadUser(d.Verifier, d.Users))

	// 公共路由 (Public Routes)
	api.GET("/communities", communityHandler.List)              // 社区列表
	api.GET("/communities/search", communityHandler.Search)     // 搜索社区
	api.GET("/communities/:name", communityHandler.Get)         // 社区详情 + 帖子
	api.GET("/communities/:name/posts", communityHandler.Posts) // 社区帖子
	api.GET("/posts/search", postHandler.Search)                // 社区内搜索帖子
	api.GET("/posts/:id", postHandler.Get)                      // 帖子详情
	api.GET("/posts/:id/comments", commentHandler.List)         // 评论列表
	api.GET("/posts/:id/votes", voteHandler.Counts)             // 票数
	api.GET("/users/:username", userHandler.Profile)            // 用户主页
	api.GET("/users/:username/posts", userHandler.Posts)        // 用户帖子
	api.GET("/blobs/:id", blobHandler.Serve)                    // 读取图片
	api.POST("/blobs/upload/:token", blobHandler.Upload)        // 凭上传地址上传图片
	api.POST("/session", sessionHandler.Create)                 // 登录 (token 换 cookie)
	api.DELETE("/session", sessionHandler.Delete)               // 退出登录

	// 受保护路由 (Protected Routes)
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/me", userHandler.Me)                         // 当前用户
		authorized.POST("/communities", communityHandler.Create)      // 创建社区
		authorized.POST("/posts", postHandler.Create)                 // 发帖
		authorized.DELETE("/posts/:id", postHandler.Delete)           // 删帖
		authorized.POST("/posts/:id/comments", commentHandler.Create) // 发表评论
		authorized.DELETE("/comments/:id", commentHandler.Delete)     // 删除评论
		authorized.POST("/posts/:id/upvote", voteHandler.Upvote)      // 点赞
		authorized.POST("/posts/:id/downvote", voteHandler.Downvote)  // 点踩
		authorized.POST("/blobs/upload-url", blobHandler.UploadURL)   // 获取上传地址
	}
}
