// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"quotis/internal/core/apperror"
	"quotis/internal/core/id"
	"quotis/internal/core/types"
	"quotis/internal/domain/auth"
	"quotis/internal/domain/catalogs/category"
	"quotis/internal/domain/catalogs/group"
	"quotis/internal/domain/catalogs/product"
	"quotis/internal/domain/catalogs/state"
	"quotis/internal/domain/catalogs/task"
	"quotis/internal/domain/documents/calculation"
	"quotis/internal/domain/policy"
	"quotis/internal/infrastructure/http/v1/dto"
	"quotis/internal/infrastructure/http/v1/handlers"
	"quotis/internal/infrastructure/http/v1/middleware"
	"quotis/internal/infrastructure/storage/postgres"
	"quotis/internal/infrastructure/storage/postgres/catalog_repo"
	"quotis/internal/infrastructure/storage/postgres/document_repo"
	"quotis/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// TxManager runs repository operations in transactions
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// History stores calculation revision snapshots (optional)
	History calculation.HistoryStore

	// AlertRule flags calculations breaching the margin policy (optional)
	AlertRule *policy.Engine

	// MinMargin is the minimum acceptable overall margin
	MinMargin float64
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		registerAuthRoutes(apiV1, cfg)

		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerCatalogRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	public := rg.Group("/auth")

	protected := rg.Group("/auth")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(public, protected)
}

// registerCatalogRoutes registers catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	baseHandler := handlers.NewBaseHandler()

	groupRepo := catalog_repo.NewGroupRepo(cfg.TxManager)
	categoryRepo := catalog_repo.NewCategoryRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	stateRepo := catalog_repo.NewStateRepo(cfg.TxManager)
	taskRepo := catalog_repo.NewTaskRepo(cfg.TxManager)

	// --- GROUPS ---
	{
		service := group.NewService(groupRepo, cfg.TxManager)
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*group.Group, dto.CreateGroupRequest, dto.UpdateGroupRequest]{
			Service:    service.CatalogService,
			EntityName: "group",
			MapCreateDTO: func(req dto.CreateGroupRequest) (*group.Group, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req dto.UpdateGroupRequest, existing *group.Group) (*group.Group, error) {
				return req.Apply(existing), nil
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/groups"), handler)
	}

	// --- CATEGORIES ---
	{
		service := category.NewService(categoryRepo, groupRepo, cfg.TxManager)
		catalogHandler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*category.Category, dto.CreateCategoryRequest, dto.UpdateCategoryRequest]{
			Service:    service.CatalogService,
			EntityName: "category",
			MapCreateDTO: func(req dto.CreateCategoryRequest) (*category.Category, error) {
				groupID, err := id.Parse(req.GroupID)
				if err != nil {
					return nil, apperror.NewInvalidInput("invalid groupId format")
				}
				cat := category.New(req.Code, req.Name, groupID)
				cat.Description = req.Description
				cat.Margins = dto.ToMarginTable(req.Margins)
				return cat, nil
			},
			MapUpdateDTO: func(req dto.UpdateCategoryRequest, existing *category.Category) (*category.Category, error) {
				if req.GroupID != nil {
					groupID, err := id.Parse(*req.GroupID)
					if err != nil {
						return nil, apperror.NewInvalidInput("invalid groupId format")
					}
					existing.GroupID = groupID
				}
				return req.Apply(existing), nil
			},
		})
		handler := handlers.NewCategoryHandler(catalogHandler, service)

		categoryGroup := catalogs.Group("/categories")
		categoryGroup.GET("/by-group/:id", handler.ListByGroup)
		RegisterCatalogRoutes(categoryGroup, handler)
	}

	// --- PRODUCTS ---
	{
		service := product.NewService(productRepo, categoryRepo, cfg.TxManager)
		catalogHandler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
			Service:    service.CatalogService,
			EntityName: "product",
			MapCreateDTO: func(req dto.CreateProductRequest) (*product.Product, error) {
				categoryID, err := id.Parse(req.CategoryID)
				if err != nil {
					return nil, apperror.NewInvalidInput("invalid categoryId format")
				}
				p := product.New(req.Code, req.Name, categoryID, types.NewMoney(req.Price))
				p.Unit = req.Unit
				p.Supplier = req.Supplier
				return p, nil
			},
			MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) (*product.Product, error) {
				if req.CategoryID != nil {
					categoryID, err := id.Parse(*req.CategoryID)
					if err != nil {
						return nil, apperror.NewInvalidInput("invalid categoryId format")
					}
					existing.CategoryID = categoryID
				}
				return req.Apply(existing), nil
			},
		})
		handler := handlers.NewProductHandler(catalogHandler, service)

		productGroup := catalogs.Group("/products")
		productGroup.GET("/by-category/:id", handler.ListByCategory)
		RegisterCatalogRoutes(productGroup, handler)
	}

	// --- STATES ---
	{
		service := state.NewService(stateRepo, cfg.TxManager)
		handler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*state.State, dto.CreateStateRequest, dto.UpdateStateRequest]{
			Service:    service.CatalogService,
			EntityName: "state",
			MapCreateDTO: func(req dto.CreateStateRequest) (*state.State, error) {
				return req.ToEntity(), nil
			},
			MapUpdateDTO: func(req dto.UpdateStateRequest, existing *state.State) (*state.State, error) {
				return req.Apply(existing), nil
			},
		})
		RegisterCatalogRoutes(catalogs.Group("/states"), handler)
	}

	// --- TASKS ---
	{
		service := task.NewService(taskRepo, categoryRepo, cfg.TxManager)
		catalogHandler := handlers.NewCatalogHandler(baseHandler, handlers.CatalogHandlerConfig[*task.Task, dto.CreateTaskRequest, dto.UpdateTaskRequest]{
			Service:    service.CatalogService,
			EntityName: "task",
			MapCreateDTO: func(req dto.CreateTaskRequest) (*task.Task, error) {
				categoryID, err := id.Parse(req.CategoryID)
				if err != nil {
					return nil, apperror.NewInvalidInput("invalid categoryId format")
				}
				t := task.New(req.Code, req.Name, categoryID)
				t.Unit = req.Unit
				for _, item := range req.Items {
					t.AddItem(item.Name, dto.ToMarginTable(item.Brackets))
				}
				return t, nil
			},
			MapUpdateDTO: func(req dto.UpdateTaskRequest, existing *task.Task) (*task.Task, error) {
				if req.CategoryID != nil {
					categoryID, err := id.Parse(*req.CategoryID)
					if err != nil {
						return nil, apperror.NewInvalidInput("invalid categoryId format")
					}
					existing.CategoryID = categoryID
				}
				return req.Apply(existing), nil
			},
		})
		handler := handlers.NewTaskHandler(catalogHandler, service)

		taskGroup := catalogs.Group("/tasks")
		taskGroup.GET("/by-category/:id", func(c *gin.Context) { listTasksByCategory(c, handler, service) })
		taskGroup.POST("/:id/compute", handler.Compute)
		RegisterCatalogRoutes(taskGroup, handler)
	}
}

// listTasksByCategory serves the category-scoped task listing.
func listTasksByCategory(c *gin.Context, handler *handlers.TaskHandler, service *task.Service) {
	categoryID, ok := handler.ParseID(c)
	if !ok {
		return
	}

	tasks, err := service.ListByCategory(c.Request.Context(), categoryID)
	if err != nil {
		handler.Error(c, err)
		return
	}

	handler.OK(c, gin.H{"items": tasks})
}

// registerDocumentRoutes registers calculation document endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	docs := rg.Group("/document")
	baseHandler := handlers.NewBaseHandler()

	groupRepo := catalog_repo.NewGroupRepo(cfg.TxManager)
	categoryRepo := catalog_repo.NewCategoryRepo(cfg.TxManager)
	productRepo := catalog_repo.NewProductRepo(cfg.TxManager)
	stateRepo := catalog_repo.NewStateRepo(cfg.TxManager)
	calcRepo := document_repo.NewCalculationRepo(cfg.TxManager, stateRepo)

	service := calculation.NewService(calculation.ServiceConfig{
		Repo:       calcRepo,
		Groups:     groupRepo,
		Categories: categoryRepo,
		Products:   productRepo,
		States:     stateRepo,
		TxManager:  cfg.TxManager,
		History:    cfg.History,
		AlertRule:  cfg.AlertRule,
		MinMargin:  cfg.MinMargin,
	})

	handler := handlers.NewCalculationHandler(baseHandler, service)

	calc := docs.Group("/calculations")
	{
		calc.GET("", handler.List)
		calc.POST("", handler.Create)
		calc.GET("/:id", handler.Get)
		calc.PUT("/:id", handler.Update)
		calc.DELETE("/:id", middleware.RequireRole("admin"), handler.Delete)
		calc.POST("/:id/deletion-mark", handler.SetDeletionMark)

		calc.POST("/:id/items", handler.AddItem)
		calc.PUT("/:id/items/:itemId", handler.UpdateItem)
		calc.DELETE("/:id/items/:itemId", handler.RemoveItem)
		calc.POST("/:id/recompute", handler.Recompute)
		calc.POST("/:id/sort", handler.Sort)
		calc.POST("/:id/state", handler.SetState)
		calc.POST("/:id/duplicate", handler.Duplicate)

		calc.GET("/:id/margin-check", handler.MarginCheck)
		calc.GET("/:id/duplicate-items", handler.DuplicateItems)
		calc.GET("/:id/empty-items", handler.EmptyItems)
		calc.GET("/:id/revisions", handler.Revisions)
		calc.POST("/:id/revisions/:revisionId/restore", handler.RestoreRevision)
	}
}
