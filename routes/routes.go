package routes

import (
	"net/http"

	"Gin_postgres_redis_library/app"
	"Gin_postgres_redis_library/controllers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	authorCtl := controllers.NewAuthorController(s)
	bookCtl := controllers.NewBookController(s)
	borrowCtl := controllers.NewBorrowController(s)
	reportCtl := controllers.NewReportController(s)

	// Health
	r.GET("/healthz", func(c *app.Ctx) {
		if err := s.Repo.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, app.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, app.H{"ok": true})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// ------------------------------
	// 作者
	// ------------------------------
	authors := api.Group("/authors")
	{
		authors.GET("", authorCtl.ListAuthors) // ?q=
		authors.POST("", authorCtl.CreateAuthor)
		authors.GET("/:id", authorCtl.GetAuthor)
		authors.PUT("/:id", authorCtl.UpdateAuthor)
		authors.DELETE("/:id", authorCtl.DeleteAuthor)
	}

	// ------------------------------
	// 书籍（含库存）
	// ------------------------------
	books := api.Group("/books")
	{
		books.GET("", bookCtl.ListBooks) // ?q=&author_id=&available=true
		books.POST("", bookCtl.CreateBook)
		books.GET("/:id", bookCtl.GetBook)
		books.PUT("/:id", bookCtl.UpdateBook)
		books.DELETE("/:id", bookCtl.DeleteBook)
		books.GET("/:id/availability", bookCtl.Availability)
		books.GET("/:id/outstanding", bookCtl.Outstanding)
	}

	// ------------------------------
	// 借还
	// ------------------------------
	api.POST("/borrow", borrowCtl.Borrow)
	api.POST("/return", borrowCtl.Return)
	records := api.Group("/borrowrecords")
	{
		records.GET("", borrowCtl.ListRecords) // ?book_id=&borrower_id=&status=&from=&to=
		records.GET("/:id", borrowCtl.GetRecord)
	}

	// ------------------------------
	// 报表
	// ------------------------------
	reports := api.Group("/reports")
	{
		reports.POST("", reportCtl.Enqueue)
		reports.GET("/latest", reportCtl.Latest)
		reports.GET("/history", reportCtl.History) // ?n=
		reports.GET("/preview", reportCtl.Preview) // ?from=&to=
	}
}
