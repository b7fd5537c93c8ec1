package components

import (
	"library-api/internal/handler"
	"library-api/internal/handler/api"
	"library-api/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewAuthHandler,
		api.NewBookHandler,
		api.NewBorrowHandler,
		api.NewReservationHandler,
		api.NewUserHandler,
		api.NewAnalyticsHandler,
		middleware.NewAuthMiddleware,
		NewHandlers,
	),
	fx.Invoke(handler.NewRouter),
)

func NewHandlers(
	auth *api.AuthHandler,
	book *api.BookHandler,
	borrow *api.BorrowHandler,
	reservation *api.ReservationHandler,
	user *api.UserHandler,
	analytics *api.AnalyticsHandler,
) handler.Handlers {
	return handler.Handlers{
		Auth:        auth,
		Book:        book,
		Borrow:      borrow,
		Reservation: reservation,
		User:        user,
		Analytics:   analytics,
	}
}
