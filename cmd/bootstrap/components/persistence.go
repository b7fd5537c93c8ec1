package components

import (
	"time"

	"library-api/internal/infra/db"
	"library-api/internal/infra/readstore"
	"library-api/internal/infra/session"
	"library-api/internal/infra/uow"
	"library-api/internal/pkg/jwt"
	"library-api/internal/usecase/commands"
	"library-api/internal/usecase/queries"
	"library-api/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	sessionModule,
)

var baseOption = fx.Provide(
	NewDBTX,
	fx.Annotate(
		uow.NewPostgresUoW,
		fx.As(new(shared.UnitOfWork)),
	),
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewBookReadStore,
			fx.As(new(queries.BookReadStore)),
		),
		fx.Annotate(
			readstore.NewBorrowReadStore,
			fx.As(new(queries.BorrowReadStore)),
		),
		fx.Annotate(
			readstore.NewReservationReadStore,
			fx.As(new(queries.ReservationReadStore)),
		),
		fx.Annotate(
			readstore.NewUserReadStore,
			fx.As(new(queries.UserReadStore)),
		),
		fx.Annotate(
			readstore.NewAnalyticsReadStore,
			fx.As(new(queries.AnalyticsReadStore)),
		),
	),
)

var sessionModule = fx.Module("persistence/session",
	fx.Provide(
		fx.Annotate(
			NewRefreshTokenStore,
			fx.As(new(commands.RefreshTokenStore)),
		),
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

// The session TTL follows the refresh token lifetime plus slack, so the
// token always expires before its session record does.
func NewRefreshTokenStore(client *redis.Client, jwtService *jwt.Service) *session.RedisStore {
	ttl := jwtService.RefreshTokenDuration() + time.Hour
	return session.NewRedisStore(client, ttl)
}
