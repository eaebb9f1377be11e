package services

import (
	"time"

	"papermerge/config"
	"papermerge/repositories"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	Auth          AuthService
	Users         UserService
	Nodes         NodeService
	Documents     DocumentService
	Pages         PageService
	Tags          TagService
	CustomFields  CustomFieldService
	DocumentTypes DocumentTypeService
	Sharing       SharingService
	Search        SearchService
	Index         IndexService
	AuditLog      AuditLogService
	Maintenance   MaintenanceService
}

func NewContainer(repos repositories.Container, redisClient *redis.Client, cfg *config.Config) *Container {
	dispatcher := NewRedisDispatcher(redisClient)
	blobs := NewLocalBlobStore(cfg.Storage.MediaRoot)

	nodes := NewNodeService(repos.TxManager, repos.Nodes, repos.Tags, repos.SharedNodes, repos.AuditLog)
	documents := NewDocumentService(repos.TxManager, repos.Nodes, repos.Documents, repos.CustomFields,
		repos.SharedNodes, repos.AuditLog, blobs, dispatcher, cfg.Storage.MaxFileSizeMB)
	index := NewIndexService(repos.Index)

	return &Container{
		Auth:          NewAuthService(repos.Users, repos.Tokens, redisClient, time.Duration(cfg.Redis.TokenCacheTTL)*time.Second),
		Users:         NewUserService(repos.TxManager, repos.Users, nodes, repos.AuditLog),
		Nodes:         nodes,
		Documents:     documents,
		Pages:         NewPageService(repos.TxManager, repos.Nodes, repos.Documents, repos.SharedNodes, documents, dispatcher, repos.AuditLog),
		Tags:          NewTagService(repos.TxManager, repos.Tags, repos.AuditLog),
		CustomFields:  NewCustomFieldService(repos.TxManager, repos.CustomFields, repos.AuditLog),
		DocumentTypes: NewDocumentTypeService(repos.TxManager, repos.DocumentTypes, repos.CustomFields, repos.AuditLog),
		Sharing:       NewSharingService(repos.TxManager, repos.Nodes, repos.SharedNodes, repos.Users, repos.AuditLog),
		Search: NewSearchService(repos.Nodes, repos.SharedNodes, repos.DocumentTypes, repos.CustomFields,
			repos.Search, cfg.Search.DefaultLang),
		Index:    index,
		AuditLog: NewAuditLogService(repos.AuditLog),
		Maintenance: NewMaintenanceService(repos.Nodes, index, cfg.Retention.PurgeAfterDays,
			time.Duration(cfg.Retention.CleanupInterval)*time.Second),
	}
}
