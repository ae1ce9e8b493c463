// Package circulation is the single entry point the front-ends (REST, MCP,
// CLI) use. It composes the catalog, registry, ledger and query layer over
// one store and announces committed changes to a Publisher.
package circulation

import (
	"context"
	"log/slog"

	"github.com/starford/lending/internal/catalog"
	"github.com/starford/lending/internal/clock"
	"github.com/starford/lending/internal/ledger"
	"github.com/starford/lending/internal/models"
	"github.com/starford/lending/internal/query"
	"github.com/starford/lending/internal/registry"
	"github.com/starford/lending/internal/store"
)

// Event types announced after a successful commit.
const (
	EventItemAdded     = "item.added"
	EventItemImported  = "item.imported"
	EventBorrowerAdded = "borrower.added"
	EventLoanOpened    = "loan.opened"
	EventLoanClosed    = "loan.closed"
)

// DefaultOverdueDays is used when no threshold is configured.
const DefaultOverdueDays = 30

// Publisher receives change notifications. Implementations must not block.
type Publisher interface {
	PublishChange(kind string, data any)
}

type nopPublisher struct{}

func (nopPublisher) PublishChange(string, any) {}

// Service coordinates the circulation components.
type Service struct {
	db       *store.DB
	catalog  *catalog.Catalog
	registry *registry.Registry
	ledger   *ledger.Ledger
	queries  *query.Queries

	pub         Publisher
	logger      *slog.Logger
	overdueDays int
}

type settings struct {
	now         clock.Func
	logger      *slog.Logger
	pub         Publisher
	overdueDays int
}

// Option configures a Service.
type Option func(*settings)

// WithClock overrides the time source of every component.
func WithClock(now clock.Func) Option {
	return func(s *settings) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithPublisher sets the change publisher.
func WithPublisher(p Publisher) Option {
	return func(s *settings) { s.pub = p }
}

// WithOverdueDays sets the threshold used by DefaultOverdueLoans.
func WithOverdueDays(days int) Option {
	return func(s *settings) { s.overdueDays = days }
}

// NewService wires the circulation components over db.
func NewService(db *store.DB, opts ...Option) *Service {
	s := settings{
		now:         clock.System,
		logger:      slog.New(slog.DiscardHandler),
		pub:         nopPublisher{},
		overdueDays: DefaultOverdueDays,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Service{
		db:          db,
		catalog:     catalog.New(db, catalog.WithClock(s.now)),
		registry:    registry.New(db, registry.WithClock(s.now)),
		ledger:      ledger.New(db, ledger.WithClock(s.now), ledger.WithLogger(s.logger)),
		queries:     query.New(db, query.WithClock(s.now)),
		pub:         s.pub,
		logger:      s.logger,
		overdueDays: s.overdueDays,
	}
}

// OverdueDays returns the configured overdue threshold.
func (s *Service) OverdueDays() int {
	return s.overdueDays
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// AddItem registers a new available item.
func (s *Service) AddItem(ctx context.Context, title, author string, year *int, genre string) (models.Item, error) {
	it, err := s.catalog.AddItem(ctx, title, author, year, genre)
	if err != nil {
		return models.Item{}, err
	}
	s.pub.PublishChange(EventItemAdded, it)
	return it, nil
}

// GetItem returns one item.
func (s *Service) GetItem(ctx context.Context, id models.ItemID) (models.Item, error) {
	return s.catalog.GetItem(ctx, id)
}

// FindAvailable lists available items matching f.
func (s *Service) FindAvailable(ctx context.Context, f models.ItemFilter) ([]models.Item, error) {
	return s.catalog.FindAvailable(ctx, f)
}

// SyncCard imports one inbox card into the catalog.
func (s *Service) SyncCard(ctx context.Context, path, checksum string, title, author string, year *int, genre string) (models.ItemID, catalog.CardOutcome, error) {
	return s.catalog.SyncCard(ctx, path, checksum, title, author, year, genre)
}

// CardChecksums returns the last synced checksum per card path.
func (s *Service) CardChecksums(ctx context.Context) (map[string]string, error) {
	return s.catalog.CardChecksums(ctx)
}

// ItemImported announces an item created or updated from an inbox card.
func (s *Service) ItemImported(id models.ItemID, path string, outcome catalog.CardOutcome) {
	s.pub.PublishChange(EventItemImported, ImportedItem{ItemID: id, Path: path, Outcome: outcome.String()})
}

// AddBorrower registers a borrower.
func (s *Service) AddBorrower(ctx context.Context, name, contact, phone string) (models.Borrower, error) {
	b, err := s.registry.AddBorrower(ctx, name, contact, phone)
	if err != nil {
		return models.Borrower{}, err
	}
	s.pub.PublishChange(EventBorrowerAdded, b)
	return b, nil
}

// GetBorrower returns one borrower.
func (s *Service) GetBorrower(ctx context.Context, id models.BorrowerID) (models.Borrower, error) {
	return s.registry.GetBorrower(ctx, id)
}

// FindByContact looks a borrower up by contact.
func (s *Service) FindByContact(ctx context.Context, contact string) (models.Borrower, error) {
	return s.registry.FindByContact(ctx, contact)
}

// Checkout loans an item to a borrower.
func (s *Service) Checkout(ctx context.Context, itemID models.ItemID, borrowerID models.BorrowerID) (models.Loan, error) {
	loan, err := s.ledger.Checkout(ctx, itemID, borrowerID)
	if err != nil {
		return models.Loan{}, err
	}
	s.pub.PublishChange(EventLoanOpened, loan)
	return loan, nil
}

// Return closes an open loan.
func (s *Service) Return(ctx context.Context, loanID models.LoanID) (models.Loan, error) {
	loan, err := s.ledger.Return(ctx, loanID)
	if err != nil {
		return models.Loan{}, err
	}
	s.pub.PublishChange(EventLoanClosed, loan)
	return loan, nil
}

// GetLoan returns one loan.
func (s *Service) GetLoan(ctx context.Context, id models.LoanID) (models.Loan, error) {
	return s.ledger.GetLoan(ctx, id)
}

// ActiveLoansOf lists a borrower's open loans.
func (s *Service) ActiveLoansOf(ctx context.Context, id models.BorrowerID) ([]models.ActiveLoan, error) {
	return s.queries.ActiveLoansOf(ctx, id)
}

// OverdueLoans lists loans open strictly longer than thresholdDays.
func (s *Service) OverdueLoans(ctx context.Context, thresholdDays int) ([]models.OverdueLoan, error) {
	return s.queries.OverdueLoans(ctx, thresholdDays)
}

// DefaultOverdueLoans applies the configured threshold.
func (s *Service) DefaultOverdueLoans(ctx context.Context) ([]models.OverdueLoan, error) {
	return s.queries.OverdueLoans(ctx, s.overdueDays)
}

// LoanHistory lists every loan of an item.
func (s *Service) LoanHistory(ctx context.Context, id models.ItemID) ([]models.Loan, error) {
	return s.queries.LoanHistory(ctx, id)
}

// Discrepancies lists items whose flag disagrees with their loans.
func (s *Service) Discrepancies(ctx context.Context) ([]models.ItemID, error) {
	return s.queries.Discrepancies(ctx)
}

// ImportedItem is the payload of an item.imported event.
type ImportedItem struct {
	ItemID  models.ItemID `json:"item_id"`
	Path    string        `json:"path"`
	Outcome string        `json:"outcome"`
}
