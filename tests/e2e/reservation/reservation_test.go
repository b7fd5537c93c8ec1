//go:build e2e

package reservation_test

import (
	"fmt"
	"net/http"
	"testing"

	"library-api/internal/domain/reservation"
	"library-api/internal/handler/dto/request"
	"library-api/internal/handler/dto/response"
	"library-api/tests/common/authtest"
	"library-api/tests/common/dbtest"
	"library-api/tests/common/httptest"
	"library-api/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const reservationsURL = "/api/reservations"

type reservationSuite struct {
	e2e.SharedSuite
	studentToken  string
	student2Token string
	staffToken    string
	busyBookID    uuid.UUID // 在庫が出払っている書籍
}

func TestReservationSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(reservationSuite))
}

func (s *reservationSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()

	t := s.T()
	s.studentToken = authtest.CreateAndLogin(t, s.DB, s.Router, "student@example.com", "student")
	s.student2Token = authtest.CreateAndLogin(t, s.DB, s.Router, "student2@example.com", "student")
	s.staffToken = authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", "staff")

	s.busyBookID = dbtest.CreateTestBook(t, s.DB, "9784873119694", "The Go Programming Language", 1, 0)
}

func (s *reservationSuite) reserve(t *testing.T, token string, bookID uuid.UUID) response.ReservationResponse {
	t.Helper()

	w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
		request.CreateReservationRequest{BookID: bookID}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res response.ReservationResponse
	err := httptest.DecodeResponseBody(t, w.Body, &res)
	require.NoError(t, err)
	return res
}

func (s *reservationSuite) cancelURL(id uuid.UUID) string {
	return fmt.Sprintf("%s/%s", reservationsURL, id)
}

func (s *reservationSuite) TestReserve() {
	s.Run("在庫が出払った書籍を予約できる", func() {
		t := s.T()

		res := s.reserve(t, s.studentToken, s.busyBookID)
		require.Equal(t, s.busyBookID, res.BookID)
		require.True(t, res.IsActive)
		require.Equal(t, reservation.HoldPeriod, res.ExpiresAt.Sub(res.ReservedAt), "有効期限が保持期間と一致しない")

		var kind string
		err := s.DB.QueryRow(t.Context(), "SELECT kind FROM lending_events WHERE book_id = $1", s.busyBookID).Scan(&kind)
		require.NoError(t, err)
		require.Equal(t, "reservation", kind)
	})

	s.Run("在庫がある書籍は予約できない", func() {
		t := s.T()

		available := dbtest.CreateTestBook(t, s.DB, "9781491941959", "Go in Practice", 2, 2)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			request.CreateReservationRequest{BookID: available}, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "available copies")
	})

	s.Run("同一書籍の二重予約はできない", func() {
		t := s.T()

		s.reserve(t, s.studentToken, s.busyBookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			request.CreateReservationRequest{BookID: s.busyBookID}, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "reservation already exists")
	})

	s.Run("存在しない書籍は404", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL,
			request.CreateReservationRequest{BookID: uuid.New()}, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Book not found")
	})
}

func (s *reservationSuite) TestCancel() {
	s.Run("自分の予約をキャンセルできる", func() {
		t := s.T()

		res := s.reserve(t, s.studentToken, s.busyBookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodDelete, s.cancelURL(res.ID), nil, s.studentToken)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

		var isActive bool
		err := s.DB.QueryRow(t.Context(), "SELECT is_active FROM reservations WHERE id = $1", res.ID).Scan(&isActive)
		require.NoError(t, err)
		require.False(t, isActive)
	})

	s.Run("キャンセルは冪等", func() {
		t := s.T()

		res := s.reserve(t, s.studentToken, s.busyBookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodDelete, s.cancelURL(res.ID), nil, s.studentToken)
		require.Equal(t, http.StatusNoContent, w.Code)

		// 二度目も成功し、イベントは増えない
		w = httptest.PerformRequest(t, s.Router, http.MethodDelete, s.cancelURL(res.ID), nil, s.studentToken)
		require.Equal(t, http.StatusNoContent, w.Code)

		var cancelEvents int
		err := s.DB.QueryRow(t.Context(),
			"SELECT count(*) FROM lending_events WHERE kind = 'reservation_cancel' AND book_id = $1", s.busyBookID).Scan(&cancelEvents)
		require.NoError(t, err)
		require.Equal(t, 1, cancelEvents)
	})

	s.Run("学生は他人の予約をキャンセルできない", func() {
		t := s.T()

		res := s.reserve(t, s.studentToken, s.busyBookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodDelete, s.cancelURL(res.ID), nil, s.student2Token)
		httptest.AssertErrorResponse(t, w, http.StatusForbidden, "Insufficient permissions")
	})

	s.Run("スタッフは他人の予約をキャンセルできる", func() {
		t := s.T()

		res := s.reserve(t, s.studentToken, s.busyBookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodDelete, s.cancelURL(res.ID), nil, s.staffToken)
		require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	})

	s.Run("存在しない予約は404", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodDelete, s.cancelURL(uuid.New()), nil, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Reservation not found")
	})
}

func (s *reservationSuite) TestExpireSweep() {
	sweepURL := reservationsURL + "/expire-sweep"

	s.Run("期限切れの予約だけが掃引される", func() {
		t := s.T()

		expired := s.reserve(t, s.studentToken, s.busyBookID)
		dbtest.ExpireReservation(t, s.DB, expired.ID)
		s.reserve(t, s.student2Token, s.busyBookID) // こちらは期限内

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, sweepURL, nil, s.staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res response.ExpireSweepResponse
		err := httptest.DecodeResponseBody(t, w.Body, &res)
		require.NoError(t, err)
		require.EqualValues(t, 1, res.SweptCount)

		var stillActive int
		err = s.DB.QueryRow(t.Context(),
			"SELECT count(*) FROM reservations WHERE book_id = $1 AND is_active", s.busyBookID).Scan(&stillActive)
		require.NoError(t, err)
		require.Equal(t, 1, stillActive)
	})

	s.Run("学生は掃引できない", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, sweepURL, nil, s.studentToken)
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}

func (s *reservationSuite) TestCheckoutConsumesReservation() {
	s.Run("予約者が借りると自分の予約は消費される", func() {
		t := s.T()

		res := s.reserve(t, s.studentToken, s.busyBookID)

		// 在庫が一冊戻った状態にする
		_, err := s.DB.Exec(t.Context(), "UPDATE books SET available_copies = 1 WHERE id = $1", s.busyBookID)
		require.NoError(t, err)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, "/api/borrows",
			request.CheckoutRequest{BookID: s.busyBookID}, s.studentToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var isActive bool
		err = s.DB.QueryRow(t.Context(), "SELECT is_active FROM reservations WHERE id = $1", res.ID).Scan(&isActive)
		require.NoError(t, err)
		require.False(t, isActive, "貸出後も予約が残っている")
	})
}
