package routes

import (
	"perishable-scm-api-server/config"
	"perishable-scm-api-server/internal/api/handlers"
	"perishable-scm-api-server/internal/api/middleware"
	"perishable-scm-api-server/internal/dispatch"
	"perishable-scm-api-server/internal/inventory"
	"perishable-scm-api-server/internal/s3"
	"perishable-scm-api-server/internal/socket"
	"perishable-scm-api-server/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

// Stores bundles the storage objects the handlers use directly.
type Stores struct {
	Hubs     *storage.HubStore
	Drivers  *storage.DriverStore
	Vehicles *storage.VehicleStore
}

// SetupRouter wires every endpoint. Role model: "admin" owns users and
// hub lifecycle; "operator" and "driver" share the business surface with
// admin.
func SetupRouter(
	cfg config.Config,
	db *mongo.Database,
	inventorySvc *inventory.Service,
	dispatchSvc *dispatch.Service,
	stores Stores,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(middleware.Metrics())

	inventoryHandler := &handlers.InventoryHandler{Svc: inventorySvc}
	dispatchHandler := &handlers.DispatchHandler{Svc: dispatchSvc, Uploader: s3Uploader}
	hubHandler := &handlers.HubHandler{Hubs: stores.Hubs}
	driverHandler := &handlers.DriverHandler{Drivers: stores.Drivers}
	vehicleHandler := &handlers.VehicleHandler{Vehicles: stores.Vehicles}
	userHandler := &handlers.UserHandler{DB: db}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}

	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
		}

		admin := apiV1.Group("/admin")
		admin.Use(middleware.Authenticate())
		admin.Use(middleware.Authorize("admin"))
		{
			admin.POST("/users", userHandler.CreateUser)

			hubs := admin.Group("/hubs")
			{
				hubs.POST("/", hubHandler.Register)
				hubs.GET("/", hubHandler.Search)
				hubs.GET("/closed", hubHandler.Closed)
				hubs.GET("/:id", hubHandler.Get)
				hubs.PUT("/:id", hubHandler.Update)
				hubs.POST("/:id/close", hubHandler.Close)
			}
		}

		business := apiV1.Group("/")
		business.Use(middleware.Authenticate())
		business.Use(middleware.Authorize("admin", "operator", "driver"))
		{
			inv := business.Group("/inventory")
			{
				inv.POST("/register", inventoryHandler.Register)
				inv.PUT("/stock", inventoryHandler.AddStock)
				inv.GET("/summary", inventoryHandler.Summary)
				inv.GET("/batches", inventoryHandler.Batches)
				inv.GET("/products", inventoryHandler.Products)
				inv.GET("/transactions", inventoryHandler.Transactions)
				inv.POST("/adjust", inventoryHandler.Adjust)
				inv.POST("/archive", inventoryHandler.Archive)
			}

			dispatches := business.Group("/dispatches")
			{
				dispatches.POST("/", dispatchHandler.Create)
				dispatches.GET("/", dispatchHandler.List)
				dispatches.POST("/assign", dispatchHandler.Assign)
				dispatches.GET("/:id", dispatchHandler.Get)
				dispatches.POST("/:id/received", dispatchHandler.MarkReceived)
				dispatches.POST("/:id/cancel", dispatchHandler.Cancel)

				driverUploadRoutes := dispatches.Group("/:id")
				driverUploadRoutes.Use(middleware.Authorize("admin", "driver"))
				{
					driverUploadRoutes.POST("/delivery-photo", dispatchHandler.UploadDeliveryPhoto)
				}
			}

			drivers := business.Group("/drivers")
			{
				drivers.POST("/", driverHandler.Create)
				drivers.GET("/", driverHandler.Search)
				drivers.POST("/retire-audit", driverHandler.RetireAudit)
				drivers.GET("/:id", driverHandler.Get)
				drivers.PUT("/:id", driverHandler.Update)
				drivers.DELETE("/:id", driverHandler.Delete)
			}

			vehicles := business.Group("/vehicles")
			{
				vehicles.POST("/", vehicleHandler.Create)
				vehicles.GET("/", vehicleHandler.Search)
				vehicles.GET("/:id", vehicleHandler.Get)
				vehicles.PUT("/:id", vehicleHandler.Update)
				vehicles.DELETE("/:id", vehicleHandler.Delete)
			}
		}
	}

	return router
}
