package persistence

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
)

// Repositories groups the storage ports used by the services.
type Repositories struct {
	Users       repository.UserRepository
	Categories  repository.CategoryRepository
	Tickets     repository.TicketRepository
	History     repository.TicketHistoryRepository
	Comments    repository.CommentRepository
	Blocklist   repository.TokenBlocklist
	ReportCache repository.ReportCache
}

// NewRepositories picks Postgres and Redis backed implementations when
// connected and falls back to the in-memory store otherwise.
func NewRepositories(pg *Postgres, rdb *Redis, logger *zap.Logger) Repositories {
	var repos Repositories

	if pool := pg.PoolHandle(); pool != nil {
		repos.Users = repository.NewUserRepository(pool)
		repos.Categories = repository.NewCategoryRepository(pool)
		repos.Tickets = repository.NewTicketRepository(pool)
		repos.History = repository.NewTicketHistoryRepository(pool)
		repos.Comments = repository.NewCommentRepository(pool)
	} else {
		store := memory.NewStore()
		repos.Users = store.Users()
		repos.Categories = store.Categories()
		repos.Tickets = store.Tickets()
		repos.History = store.History()
		repos.Comments = store.Comments()
		logger.Warn("tickets are kept in memory and lost on restart")
	}

	if rdb != nil && rdb.Client != nil {
		repos.Blocklist = repository.NewRedisTokenBlocklist(rdb.Client, rdb.Prefix)
		repos.ReportCache = repository.NewRedisReportCache(rdb.Client, rdb.Prefix)
	} else {
		kv := memory.NewKV()
		repos.Blocklist = kv
		repos.ReportCache = kv
	}
	return repos
}
