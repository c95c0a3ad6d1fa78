package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ReportRange limits reports to tickets created inside a trailing window.
type ReportRange string

const (
	RangeWeek    ReportRange = "semana"
	RangeMonth   ReportRange = "mes"
	RangeQuarter ReportRange = "trimestre"
	RangeYear    ReportRange = "anio"
	RangeAll     ReportRange = "todo"
)

// UncategorizedLabel names the bucket for tickets without a category.
const UncategorizedLabel = "Sin categoría"

var monthLabels = [...]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// ParseReportRange accepts the known range names; empty means RangeAll.
func ParseReportRange(raw string) (ReportRange, bool) {
	switch rng := ReportRange(strings.ToLower(strings.TrimSpace(raw))); rng {
	case "":
		return RangeAll, true
	case RangeWeek, RangeMonth, RangeQuarter, RangeYear, RangeAll:
		return rng, true
	default:
		return "", false
	}
}

// Start returns the lower creation bound of the range, or nil for RangeAll.
func (r ReportRange) Start(now time.Time) *time.Time {
	var start time.Time
	switch r {
	case RangeWeek:
		start = now.AddDate(0, 0, -7)
	case RangeMonth:
		start = now.AddDate(0, -1, 0)
	case RangeQuarter:
		start = now.AddDate(0, -3, 0)
	case RangeYear:
		start = now.AddDate(-1, 0, 0)
	default:
		return nil
	}
	return &start
}

// StatusCount is the number of tickets in one status.
type StatusCount struct {
	Status domain.TicketStatus `json:"name"`
	Count  int                 `json:"value"`
}

// CategoryCount is the number of tickets in one category.
type CategoryCount struct {
	CategoryID *int64 `json:"id_categoria"`
	Name       string `json:"name"`
	Count      int    `json:"value"`
}

// MonthlyTrend aggregates tickets by creation month.
type MonthlyTrend struct {
	Year     int    `json:"anio"`
	Month    int    `json:"mes"`
	Label    string `json:"name"`
	Created  int    `json:"creados"`
	Pending  int    `json:"pendientes"`
	Resolved int    `json:"resueltos"`
}

// CategoryResolution is the mean resolution time of a category.
type CategoryResolution struct {
	CategoryID   *int64  `json:"id_categoria"`
	Name         string  `json:"name"`
	AverageHours float64 `json:"tiempo"`
	Resolved     int     `json:"resueltos"`
}

// AgentPerformance summarizes one agent's workload.
type AgentPerformance struct {
	AgentID      int64   `json:"idUsuario"`
	Name         string  `json:"name"`
	Assigned     int     `json:"asignados"`
	Resolved     int     `json:"resueltos"`
	AverageHours float64 `json:"tiempo"`
}

// ReportSummary is the full read-only report.
type ReportSummary struct {
	Range                  ReportRange          `json:"rango"`
	GeneratedAt            time.Time            `json:"generado"`
	Total                  int                  `json:"total"`
	AverageResolutionHours float64              `json:"tiempoPromedio"`
	ByStatus               []StatusCount        `json:"porEstado"`
	ByCategory             []CategoryCount      `json:"porCategoria"`
	Monthly                []MonthlyTrend       `json:"porMes"`
	ResolutionByCategory   []CategoryResolution `json:"tiempoResolucion"`
	Agents                 []AgentPerformance   `json:"rendimientoAgentes"`
}

// ReportService derives aggregates from the ticket store.
type ReportService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	cache      repository.ReportCache
	cacheTTL   time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// ReportDependencies bundles repositories for the report service.
type ReportDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	Cache        repository.ReportCache
	CacheTTL     time.Duration
	Logger       *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		users:      deps.UserRepo,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source used for range windows.
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// SubscribeTo drops cached reports whenever a ticket is created, assigned or
// changes status.
func (s *ReportService) SubscribeTo(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
	} {
		dispatcher.Subscribe(eventType, func(ctx context.Context, _ events.Event) error {
			s.Invalidate(ctx)
			return nil
		})
	}
}

// Invalidate drops cached reports. Failures are logged; entries then expire
// with their TTL.
func (s *ReportService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("report cache invalidation failed", zap.Error(err))
	}
}

// Summary returns the report for the requested range. Results are served
// from the cache while fresh; cache failures fall back to computing.
func (s *ReportService) Summary(ctx context.Context, actor domain.Session, rawRange string) (*ReportSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	rng, ok := ParseReportRange(rawRange)
	if !ok {
		return nil, apperrors.NewValidationError("unknown range", map[string]any{"rango": rawRange})
	}

	cacheKey := "summary:" + string(rng)
	if s.cache != nil && s.cacheTTL > 0 {
		var cached ReportSummary
		hit, err := s.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			s.logger.Warn("report cache read failed", zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	now := s.now()
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{CreatedFrom: rng.Start(now)})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	agentIDs := make([]int64, 0)
	for _, ticket := range tickets {
		if ticket.AgentID != nil {
			agentIDs = append(agentIDs, *ticket.AgentID)
		}
	}
	agents, err := s.users.GetMany(ctx, agentIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	summary := BuildReport(tickets, categories, agents, rng, now)
	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("report cache write failed", zap.Error(err))
		}
	}
	return &summary, nil
}

type durationAcc struct {
	total time.Duration
	count int
}

func (a *durationAcc) add(d time.Duration) {
	a.total += d
	a.count++
}

func (a durationAcc) hours() float64 {
	if a.count == 0 {
		return 0
	}
	return roundHours(a.total.Hours() / float64(a.count))
}

// BuildReport aggregates tickets. Resolution times only consider tickets in
// Resuelto that carry both timestamps.
func BuildReport(tickets []domain.Ticket, categories []domain.Category, agents map[int64]domain.User, rng ReportRange, now time.Time) ReportSummary {
	summary := ReportSummary{
		Range:                rng,
		GeneratedAt:          now,
		Total:                len(tickets),
		ByStatus:             make([]StatusCount, 0, len(domain.TicketStatuses)),
		ByCategory:           []CategoryCount{},
		Monthly:              []MonthlyTrend{},
		ResolutionByCategory: []CategoryResolution{},
		Agents:               []AgentPerformance{},
	}

	statusCounts := make(map[domain.TicketStatus]int, len(domain.TicketStatuses))
	categoryCounts := make(map[int64]int, len(categories))
	categoryDurations := make(map[int64]*durationAcc)
	uncategorized := 0
	uncategorizedDurations := &durationAcc{}
	overall := &durationAcc{}

	type monthKey struct{ year, month int }
	months := make(map[monthKey]*MonthlyTrend)

	type agentAcc struct {
		perf      AgentPerformance
		durations durationAcc
	}
	agentStats := make(map[int64]*agentAcc)

	for i := range tickets {
		ticket := &tickets[i]
		statusCounts[ticket.Status]++
		duration, resolved := ticket.ResolutionDuration()
		if resolved {
			overall.add(duration)
		}

		if ticket.CategoryID == nil {
			uncategorized++
			if resolved {
				uncategorizedDurations.add(duration)
			}
		} else {
			categoryCounts[*ticket.CategoryID]++
			if resolved {
				acc, ok := categoryDurations[*ticket.CategoryID]
				if !ok {
					acc = &durationAcc{}
					categoryDurations[*ticket.CategoryID] = acc
				}
				acc.add(duration)
			}
		}

		key := monthKey{ticket.CreatedAt.Year(), int(ticket.CreatedAt.Month())}
		trend, ok := months[key]
		if !ok {
			trend = &MonthlyTrend{Year: key.year, Month: key.month, Label: monthLabels[key.month-1]}
			months[key] = trend
		}
		trend.Created++
		switch ticket.Status {
		case domain.TicketStatusResolved:
			trend.Resolved++
		case domain.TicketStatusCancelled:
		default:
			trend.Pending++
		}

		if ticket.AgentID != nil {
			acc, ok := agentStats[*ticket.AgentID]
			if !ok {
				acc = &agentAcc{perf: AgentPerformance{AgentID: *ticket.AgentID, Name: agentName(agents, *ticket.AgentID)}}
				agentStats[*ticket.AgentID] = acc
			}
			acc.perf.Assigned++
			if ticket.Status == domain.TicketStatusResolved {
				acc.perf.Resolved++
			}
			if resolved {
				acc.durations.add(duration)
			}
		}
	}

	for _, status := range domain.TicketStatuses {
		summary.ByStatus = append(summary.ByStatus, StatusCount{Status: status, Count: statusCounts[status]})
	}

	sortedCategories := append([]domain.Category(nil), categories...)
	sort.Slice(sortedCategories, func(i, j int) bool {
		if sortedCategories[i].Name != sortedCategories[j].Name {
			return sortedCategories[i].Name < sortedCategories[j].Name
		}
		return sortedCategories[i].ID < sortedCategories[j].ID
	})
	for _, category := range sortedCategories {
		id := category.ID
		summary.ByCategory = append(summary.ByCategory, CategoryCount{CategoryID: &id, Name: category.Name, Count: categoryCounts[id]})
		if acc, ok := categoryDurations[id]; ok {
			summary.ResolutionByCategory = append(summary.ResolutionByCategory, CategoryResolution{
				CategoryID:   &id,
				Name:         category.Name,
				AverageHours: acc.hours(),
				Resolved:     acc.count,
			})
		}
	}
	if uncategorized > 0 {
		summary.ByCategory = append(summary.ByCategory, CategoryCount{Name: UncategorizedLabel, Count: uncategorized})
	}
	if uncategorizedDurations.count > 0 {
		summary.ResolutionByCategory = append(summary.ResolutionByCategory, CategoryResolution{
			Name:         UncategorizedLabel,
			AverageHours: uncategorizedDurations.hours(),
			Resolved:     uncategorizedDurations.count,
		})
	}

	for _, trend := range months {
		summary.Monthly = append(summary.Monthly, *trend)
	}
	sort.Slice(summary.Monthly, func(i, j int) bool {
		if summary.Monthly[i].Year != summary.Monthly[j].Year {
			return summary.Monthly[i].Year < summary.Monthly[j].Year
		}
		return summary.Monthly[i].Month < summary.Monthly[j].Month
	})

	for _, acc := range agentStats {
		acc.perf.AverageHours = acc.durations.hours()
		summary.Agents = append(summary.Agents, acc.perf)
	}
	sort.Slice(summary.Agents, func(i, j int) bool {
		if summary.Agents[i].Name != summary.Agents[j].Name {
			return summary.Agents[i].Name < summary.Agents[j].Name
		}
		return summary.Agents[i].AgentID < summary.Agents[j].AgentID
	})

	summary.AverageResolutionHours = overall.hours()
	return summary
}

func agentName(agents map[int64]domain.User, id int64) string {
	if agent, ok := agents[id]; ok {
		if name := agent.FullName(); name != "" {
			return name
		}
		return agent.Email
	}
	return ""
}

func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
