package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

type fixture struct {
	store      *memory.Store
	kv         *memory.KV
	dispatcher events.Dispatcher
	published  *[]events.Event

	tickets     *TicketService
	assignments *AssignmentService
	categories  *CategoryService
	comments    *CommentService
	users       *UserService
	auth        *AuthService
	reports     *ReportService

	admin   domain.User
	agentA  domain.User
	agentB  domain.User
	client1 domain.User
	client2 domain.User
}

func newFixture(t *testing.T, ticketsCfg config.TicketsConfig) *fixture {
	t.Helper()
	store := memory.NewStore()
	kv := memory.NewKV()
	dispatcher := events.NewInMemoryDispatcher()
	published := &[]events.Event{}
	for _, eventType := range events.EventTypes {
		dispatcher.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			*published = append(*published, e)
			return nil
		})
	}

	authCfg := config.AuthConfig{
		JWTSecret:         "test-secret",
		BcryptCost:        bcrypt.MinCost,
		SelfRegisterRoles: []string{"ADMIN", "AGENTE", "CLIENTE"},
	}

	f := &fixture{
		store:      store,
		kv:         kv,
		dispatcher: dispatcher,
		published:  published,
		tickets: NewTicketService(ticketsCfg, TicketDependencies{
			TicketRepo:   store.Tickets(),
			UserRepo:     store.Users(),
			CategoryRepo: store.Categories(),
			HistoryRepo:  store.History(),
			Dispatcher:   dispatcher,
		}),
		assignments: NewAssignmentService(AssignmentDependencies{
			TicketRepo:   store.Tickets(),
			UserRepo:     store.Users(),
			CategoryRepo: store.Categories(),
			Dispatcher:   dispatcher,
		}),
		categories: NewCategoryService(store.Categories(), store.Tickets()),
		comments: NewCommentService(CommentDependencies{
			CommentRepo: store.Comments(),
			TicketRepo:  store.Tickets(),
			UserRepo:    store.Users(),
			Dispatcher:  dispatcher,
		}),
		users: NewUserService(store.Users()),
		auth: NewAuthService(authCfg, AuthDependencies{
			UserRepo:     store.Users(),
			Blocklist:    kv,
			TokenManager: auth.NewTokenManager(authCfg.JWTSecret, time.Hour),
		}),
		reports: NewReportService(ReportDependencies{
			TicketRepo:   store.Tickets(),
			CategoryRepo: store.Categories(),
			UserRepo:     store.Users(),
			Cache:        kv,
			CacheTTL:     time.Minute,
		}),
	}

	f.reports.SubscribeTo(dispatcher)
	f.categories.SetReportInvalidator(f.reports)

	f.admin = f.seedUser(t, "Ada", "Admin", "admin@example.com", domain.RoleAdmin)
	f.agentA = f.seedUser(t, "Carlos", "Ruiz", "carlos@example.com", domain.RoleAgent)
	f.agentB = f.seedUser(t, "Ana", "Mora", "ana@example.com", domain.RoleAgent)
	f.client1 = f.seedUser(t, "Juan", "Pérez", "juan@example.com", domain.RoleClient)
	f.client2 = f.seedUser(t, "Lucía", "Gómez", "lucia@example.com", domain.RoleClient)
	return f
}

func (f *fixture) seedUser(t *testing.T, name, surname, email string, role domain.Role) domain.User {
	t.Helper()
	user := domain.User{Name: name, Surname: surname, Email: email, Role: role}
	require.NoError(t, f.store.Users().Create(context.Background(), &user))
	return user
}

func sessionFor(user domain.User) domain.Session {
	return domain.Session{UserID: user.ID, Role: user.Role, TokenID: "test", ExpiresAt: time.Now().Add(time.Hour)}
}

func (f *fixture) createTicket(t *testing.T, owner domain.User, title string) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), sessionFor(owner), TicketCreateInput{
		Title:       title,
		Description: "descripción de " + title,
		Priority:    "Alta",
	})
	require.NoError(t, err)
	return ticket
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperrors.ToDomainError(err).Code, err.Error())
}
