package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"rfqd/internal/logger"
	"rfqd/internal/normalize"
	"rfqd/internal/product"
)

// 中文说明：
// 询价归一化 JSON API。current_date 不传时取服务器当天，
// 所有推断失败的字段在响应里保持 null，由调用方决定是否追问。

// Server 对外 HTTP 服务。
type Server struct {
	addr     string
	resolver *product.Resolver
	topK     int
	engine   *gin.Engine
}

// NewServer 构建 HTTP 服务，topK 为 /products 缺省候选数。
func NewServer(addr string, resolver *product.Resolver, topK int) *Server {
	if topK <= 0 {
		topK = 5
	}
	s := &Server{addr: addr, resolver: resolver, topK: topK}
	s.engine = s.buildRouter()
	return s
}

// Run 启动服务并阻塞到 ctx 取消，随后优雅退出。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP 服务监听 %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// Handler 暴露路由，测试用。
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.POST("/normalize", s.handleNormalize)
	api.GET("/products", s.handleProducts)
	return router
}

// normalizeRequest POST /api/v1/normalize 请求体。
// mode=text 走文本推断，mode=parts 只认显式字段。
type normalizeRequest struct {
	Mode        string `json:"mode"`
	CurrentDate string `json:"current_date"`

	// text 模式
	Text      string                  `json:"text"`
	Overrides normalize.TextOverrides `json:"overrides"`

	// parts 模式
	Parts normalize.PartsInput `json:"parts"`
}

func (s *Server) handleNormalize(c *gin.Context) {
	var req normalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体解析失败: " + err.Error()})
		return
	}

	ictx, err := contextFromDate(req.CurrentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Mode {
	case "", "text":
		if req.Text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text 不能为空"})
			return
		}
		c.JSON(http.StatusOK, normalize.Text(ictx, req.Text, req.Overrides))
	case "parts":
		quote, err := normalize.Parts(ictx, req.Parts)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, quote)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode 只支持 text / parts"})
	}
}

func (s *Server) handleProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少查询参数 q"})
		return
	}
	topK := s.topK
	if raw := c.Query("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "top_k 必须为正整数"})
			return
		}
		topK = n
	}
	candidates := s.resolver.FindCandidates(query, topK)
	c.JSON(http.StatusOK, gin.H{"query": query, "candidates": candidates})
}

// contextFromDate 解析 current_date（YYYY-MM-DD），为空取当天。
func contextFromDate(s string) (normalize.Context, error) {
	if s == "" {
		now := time.Now()
		return normalize.NewContext(now.Year(), now.Month(), now.Day()), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return normalize.Context{}, errors.New("current_date 需为 YYYY-MM-DD 格式")
	}
	return normalize.NewContext(t.Year(), t.Month(), t.Day()), nil
}
