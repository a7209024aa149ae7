package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/settlement-service/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

var (
	ErrNoActiveCart          = errors.New("client has no active cart")
	ErrCartNotFound          = errors.New("cart not found")
	ErrEmptyCart             = errors.New("cart is empty, nothing to checkout")
	ErrCartAlreadyCheckedOut = errors.New("cart is already checked out")
	ErrItemNotFound          = errors.New("item not found in cart")
	ErrProductNotFound       = errors.New("product not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOverpaymentRejected   = errors.New("payment exceeds outstanding debt")
	// ErrBusy is retryable: the transaction hit a lock timeout or kept
	// losing serialization conflicts and was rolled back.
	ErrBusy = errors.New("storage busy, retry later")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// TxOptions tunes how write transactions wait and retry.
type TxOptions struct {
	LockTimeout time.Duration
	MaxRetries  int
}

var DefaultTxOptions = TxOptions{
	LockTimeout: 2 * time.Second,
	MaxRetries:  3,
}

type Repository struct {
	db   *sql.DB
	opts TxOptions
}

// CartRepository is the Ledger Store surface used by the Cart Manager.
// Every mutation resolves the client's active cart inside its own transaction.
type CartRepository interface {
	GetOrCreateActiveCart(ctx context.Context, clientID int64) (int64, error)
	AddItem(ctx context.Context, clientID, productID int64, quantity int) (cartID int64, newQuantity int, err error)
	SetItemQuantity(ctx context.Context, clientID, productID int64, quantity int) (int64, error)
	RemoveItem(ctx context.Context, clientID, productID int64) (int64, error)
	ClearCart(ctx context.Context, clientID int64) (int64, error)
	GetActiveCart(ctx context.Context, clientID int64) (*domain.CartContents, error)
	ActiveCartTotal(ctx context.Context, clientID int64) (domain.Money, error)
}

type CheckoutRepository interface {
	PlaceOrder(ctx context.Context, clientID, cartID, addressID int64) (domain.Placement, error)
}

type PaymentRepository interface {
	RegisterPayment(ctx context.Context, orderID int64, method string, amount domain.Money) (domain.PaymentResult, error)
}

// QueryRepository is read-only and takes no locks.
type QueryRepository interface {
	OrderBalance(ctx context.Context, orderID int64) (*domain.OrderBalance, error)
	ClientOrderBalances(ctx context.Context, clientID int64, status domain.OrderStatus) ([]domain.OrderBalance, error)
	OrderPayments(ctx context.Context, orderID int64) ([]domain.Payment, error)
	OrderLines(ctx context.Context, orderID int64) ([]domain.CartItem, error)
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id uuid.UUID) error
}

func NewRepository(cred *Credentials, opts TxOptions) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db, opts: opts}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "settlement_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}
