package routes

import (
	"book-warehouse-api-server/config"
	"book-warehouse-api-server/internal/api/handlers"
	"book-warehouse-api-server/internal/api/middleware"
	"book-warehouse-api-server/internal/database"
	"book-warehouse-api-server/internal/s3"
	"book-warehouse-api-server/internal/socket"
	"book-warehouse-api-server/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// SetupRouter wires repositories, the workflow engine and handlers into the
// route tree.
func SetupRouter(
	cfg config.Config,
	db *pgxpool.Pool,
	rdb *redis.Client,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	userRepo := &database.UserRepo{DB: db}
	catalogRepo := &database.CatalogRepo{DB: db}
	orderRepo := &database.OrderRepo{DB: db}
	logRepo := &database.StatusLogRepo{DB: db}
	engine := workflow.NewEngine(database.NewStore(db))

	userHandler := &handlers.UserHandler{Users: userRepo, Cfg: cfg}
	catalogHandler := &handlers.CatalogHandler{Catalog: catalogRepo}
	binHandler := &handlers.BinHandler{Catalog: catalogRepo}
	exportHandler := &handlers.ExportOrderHandler{
		Orders: orderRepo, Catalog: catalogRepo, Logs: logRepo,
		Engine: engine, Hub: wsHub, Redis: rdb,
	}
	importHandler := &handlers.ImportOrderHandler{
		Orders: orderRepo, Logs: logRepo,
		Engine: engine, Hub: wsHub, S3Uploader: s3Uploader,
	}
	statusLogHandler := &handlers.StatusLogHandler{Logs: logRepo}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
		}

		// Administration, admin role only.
		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate())
		admin.Use(middleware.Authorize(workflow.RoleAdmin))
		{
			admin.POST("/users", userHandler.CreateUser)
			admin.GET("/users", userHandler.ListUsers)

			categories := admin.Group("/categories")
			{
				categories.POST("/", catalogHandler.CreateCategory)
				categories.PUT("/:id", catalogHandler.UpdateCategory)
				categories.DELETE("/:id", catalogHandler.DeleteCategory)
			}

			books := admin.Group("/books")
			{
				books.POST("/", catalogHandler.CreateBook)
				books.PUT("/:id", catalogHandler.UpdateBook)
				books.DELETE("/:id", catalogHandler.DeleteBook)
			}

			shelves := admin.Group("/shelves")
			{
				shelves.POST("/", binHandler.CreateShelf)
			}

			bins := admin.Group("/bins")
			{
				bins.POST("/", binHandler.CreateBin)
				bins.PUT("/:id", binHandler.UpdateBin)
			}
		}

		// Main business routes, any warehouse role.
		business := apiV1.Group("/")
		business.Use(middleware.Authenticate())
		business.Use(middleware.Authorize(workflow.RoleAdmin, workflow.RoleManager, workflow.RoleEmployee))
		{
			business.GET("/roles", userHandler.Roles)

			business.GET("/categories", catalogHandler.ListCategories)

			books := business.Group("/books")
			{
				books.GET("/", catalogHandler.ListBooks)
				books.GET("/:id", catalogHandler.GetBook)
				books.GET("/:id/stock", catalogHandler.GetBookStock)
				books.GET("/:id/bins", catalogHandler.GetBookBins)
			}

			business.GET("/shelves", binHandler.ListShelves)
			business.GET("/bins", binHandler.ListBins)
			business.GET("/bins/:id", binHandler.GetBin)

			exportOrders := business.Group("/export-orders")
			{
				exportOrders.POST("/", exportHandler.CreateExportOrder)
				exportOrders.GET("/", exportHandler.ListExportOrders)
				exportOrders.GET("/:id", exportHandler.GetExportOrder)
				exportOrders.PUT("/:id", exportHandler.UpdateExportOrder)
				exportOrders.GET("/:id/status", exportHandler.GetExportOrderStatus)
				exportOrders.PATCH("/:id/status", exportHandler.UpdateStatus)
				exportOrders.GET("/:id/status-logs", exportHandler.GetStatusLogs)
			}

			importOrders := business.Group("/import-orders")
			{
				importOrders.POST("/", importHandler.CreateImportOrder)
				importOrders.GET("/", importHandler.ListImportOrders)
				importOrders.GET("/:id", importHandler.GetImportOrder)
				importOrders.GET("/:id/status-logs", importHandler.GetStatusLogs)

				// Supervisor approval and the reject branch. The check and
				// WMS-approval role gates live in the transition tables; the
				// route-level middleware only keeps anonymous users out.
				importOrders.PATCH("/:id/status", importHandler.UpdateStatus)
				importOrders.POST("/:id/check", importHandler.Check)

				wmsRoutes := importOrders.Group("/:id")
				wmsRoutes.Use(middleware.Authorize(workflow.RoleAdmin, workflow.RoleManager))
				{
					wmsRoutes.POST("/approveWMS", importHandler.ApproveWMS)
				}

				importOrders.POST("/:id/fault-evidence", importHandler.UploadFaultEvidence)
			}

			business.GET("/order-status-logs", statusLogHandler.ListOrderStatusLogs)
		}
	}

	return router
}
