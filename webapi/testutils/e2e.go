package testutils

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/paygate/infra"
	paymentrepo "github.com/amirasaad/paygate/infra/repository/payment"
	"github.com/amirasaad/paygate/pkg/app"
	"github.com/amirasaad/paygate/pkg/config"
	"github.com/amirasaad/paygate/pkg/repository"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// E2ETestSuite runs the HTTP surface against a real Postgres database
// started with Testcontainers. Migrations run through the same boot path
// as the server.
type E2ETestSuite struct {
	suite.Suite
	pgContainer *tcpostgres.PostgresContainer
	DB          *gorm.DB
	Payments    repository.PaymentRepository
	Env         *Env
}

// startPostgresContainer starts a Postgres container using Testcontainers
func (s *E2ETestSuite) startPostgresContainer(ctx context.Context) (*tcpostgres.PostgresContainer, error) {
	return tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second),
		),
	)
}

// SetupSuite starts Postgres and migrates it.
func (s *E2ETestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping Postgres-backed suite in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(s.T())
	ctx := context.Background()

	pg, err := s.startPostgresContainer(ctx)
	s.Require().NoError(err)
	s.pgContainer = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.DB, err = infra.NewDBConnection(&config.DB{Url: dsn, MigrateOnBoot: true}, "test", logger)
	s.Require().NoError(err)
	s.Payments = paymentrepo.New(s.DB)
}

// SetupTest wires a fresh application on top of the shared database.
func (s *E2ETestSuite) SetupTest() {
	s.Require().NoError(s.DB.Exec("TRUNCATE TABLE payments").Error)
	s.Env = NewEnv(s.T(), func(d *app.Deps, _ *config.App) { d.Payments = s.Payments })
}

// TearDownSuite cleans up the test suite resources
func (s *E2ETestSuite) TearDownSuite() {
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(context.Background())
	}
}
