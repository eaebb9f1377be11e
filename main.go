package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"papermerge/config"
	"papermerge/database"
	"papermerge/handlers"
	"papermerge/logger"
	"papermerge/middleware"
	"papermerge/models"
	"papermerge/repositories"
	"papermerge/services"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("starting papermerge core")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	if err := database.InitPostgres(&cfg.Database); err != nil {
		log.Fatalf("init postgres failed: %v", err)
	}

	if err := database.DB.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.UserGroup{},
		&models.Permission{},
		&models.Role{},
		&models.UserRole{},
		&models.GroupRole{},
		&models.Tag{},
		&models.Node{},
		&models.Document{},
		&models.DocumentVersion{},
		&models.Page{},
		&models.CustomField{},
		&models.DocumentType{},
		&models.CustomFieldValue{},
		&models.Ownership{},
		&models.SpecialFolder{},
		&models.SharedNode{},
		&models.APIToken{},
		&models.AuditLog{},
	); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	if err := database.InstallSearchIndex(database.DB); err != nil {
		log.Fatalf("search index installation failed: %v", err)
	}
	log.Println("database migration completed")

	if err := database.InitRedis(&cfg.Redis); err != nil {
		log.Fatalf("init redis failed: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.MediaRoot, 0o755); err != nil {
		log.Fatalf("create media root failed: %v", err)
	}

	repoContainer := repositories.NewGormRepositories(database.DB, database.RedisClient).BuildContainer()
	serviceContainer := services.NewContainer(repoContainer, database.RedisClient, cfg)
	handlers.SetServices(serviceContainer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go serviceContainer.Maintenance.Start(ctx)
	log.Println("maintenance worker started")

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger())
	setupRoutes(r, serviceContainer, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("server listening on http://%s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server start failed: %v", err)
	}
}

func setupRoutes(r *gin.Engine, svc *services.Container, cfg *config.Config) {
	api := r.Group(cfg.Server.Prefix)

	api.GET("/health", handlers.Health)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(svc.Auth, cfg))
	{
		protected.GET("/users/me", middleware.RequireScope("user.me"), handlers.Me)
		protected.GET("/users", middleware.RequireScope("user.view"), handlers.ListUsers)
		protected.POST("/users", middleware.RequireScope("user.create"), handlers.CreateUser)
		protected.DELETE("/users/:id", middleware.RequireScope("user.delete"), handlers.DeleteUser)

		protected.GET("/groups", middleware.RequireScope("group.view"), handlers.ListGroups)
		protected.POST("/groups", middleware.RequireScope("group.create"), handlers.CreateGroup)
		protected.DELETE("/groups/:id", middleware.RequireScope("group.delete"), handlers.DeleteGroup)

		protected.GET("/roles", middleware.RequireScope("role.view"), handlers.ListRoles)
		protected.POST("/roles", middleware.RequireScope("role.create"), handlers.CreateRole)
		protected.DELETE("/roles/:id", middleware.RequireScope("role.delete"), handlers.DeleteRole)
		protected.GET("/scopes", handlers.ListScopes)

		protected.GET("/nodes/:id", middleware.RequireScope("node.view"), handlers.ListNodes)
		protected.POST("/nodes", middleware.RequireScope("node.create"), handlers.CreateFolder)
		protected.PATCH("/nodes/:id", middleware.RequireScope("node.update"), handlers.RenameNode)
		protected.POST("/nodes/move", middleware.RequireScope("node.move"), handlers.MoveNodes)
		protected.DELETE("/nodes", middleware.RequireScope("node.delete"), handlers.DeleteNodes)
		protected.GET("/nodes/:id/breadcrumb", middleware.RequireScope("node.view"), handlers.Breadcrumb)
		protected.GET("/nodes/:id/tags", middleware.RequireScope("node.view"), handlers.GetNodeTags)
		protected.POST("/nodes/:id/tags", middleware.RequireScope("node.update"), handlers.AssignNodeTags)
		protected.PATCH("/nodes/:id/tags", middleware.RequireScope("node.update"), handlers.UpdateNodeTags)
		protected.DELETE("/nodes/:id/tags", middleware.RequireScope("node.update"), handlers.RemoveNodeTags)

		protected.POST("/documents", middleware.RequireScope("node.create"), handlers.CreateDocument)
		protected.GET("/documents/:id", middleware.RequireScope("node.view"), handlers.GetDocument)
		protected.POST("/documents/:id/upload", middleware.RequireScope("document.upload"), handlers.UploadDocument)
		protected.GET("/documents/:id/download-url", middleware.RequireScope("document.download"), handlers.DownloadDocumentURL)
		protected.GET("/documents/:id/pages", middleware.RequireScope("page.view"), handlers.ListDocumentPages)
		protected.PATCH("/documents/:id/type", middleware.RequireScope("node.update"), handlers.SetDocumentType)
		protected.GET("/documents/:id/custom-fields", middleware.RequireScope("node.view"), handlers.GetDocumentCFV)
		protected.PATCH("/documents/:id/custom-fields", middleware.RequireScope("node.update"), handlers.UpdateDocumentCFV)

		protected.POST("/pages", middleware.RequireScope("page.update"), handlers.ApplyPagesOp)
		protected.POST("/pages/move", middleware.RequireScope("page.move"), handlers.MovePages)
		protected.POST("/pages/extract", middleware.RequireScope("page.extract"), handlers.ExtractPages)

		protected.GET("/tags", middleware.RequireScope("tag.view"), handlers.ListTags)
		protected.POST("/tags", middleware.RequireScope("tag.create"), handlers.CreateTag)
		protected.PATCH("/tags/:id", middleware.RequireScope("tag.update"), handlers.UpdateTag)
		protected.DELETE("/tags/:id", middleware.RequireScope("tag.delete"), handlers.DeleteTag)

		protected.GET("/custom-fields", middleware.RequireScope("custom_field.view"), handlers.ListCustomFields)
		protected.GET("/custom-fields/:id", middleware.RequireScope("custom_field.view"), handlers.GetCustomField)
		protected.POST("/custom-fields", middleware.RequireScope("custom_field.create"), handlers.CreateCustomField)
		protected.PATCH("/custom-fields/:id", middleware.RequireScope("custom_field.update"), handlers.UpdateCustomField)
		protected.DELETE("/custom-fields/:id", middleware.RequireScope("custom_field.delete"), handlers.DeleteCustomField)

		protected.GET("/document-types", middleware.RequireScope("document_type.view"), handlers.ListDocumentTypes)
		protected.GET("/document-types/:id", middleware.RequireScope("document_type.view"), handlers.GetDocumentType)
		protected.POST("/document-types", middleware.RequireScope("document_type.create"), handlers.CreateDocumentType)
		protected.PATCH("/document-types/:id", middleware.RequireScope("document_type.update"), handlers.UpdateDocumentType)
		protected.DELETE("/document-types/:id", middleware.RequireScope("document_type.delete"), handlers.DeleteDocumentType)

		protected.POST("/shared-nodes", middleware.RequireScope("shared_node.create"), handlers.CreateSharedNodes)
		protected.GET("/shared-nodes/:id", middleware.RequireScope("shared_node.view"), handlers.ListSharedNodes)
		protected.DELETE("/shared-nodes/:id", middleware.RequireScope("shared_node.delete"), handlers.DeleteSharedNode)

		protected.POST("/tokens", handlers.CreateToken)
		protected.GET("/tokens", handlers.ListTokens)
		protected.DELETE("/tokens/:id", handlers.RevokeToken)

		protected.POST("/search", middleware.RequireScope("node.view"), handlers.SearchDocuments)
		protected.POST("/search/document-types/:id", middleware.RequireScope("node.view"), handlers.SearchDocumentsByType)

		protected.GET("/audit-log", middleware.RequireScope("audit_log.view"), handlers.ListAuditLog)
	}
}
