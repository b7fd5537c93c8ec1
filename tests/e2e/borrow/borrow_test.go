//go:build e2e

package borrow_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"library-api/internal/domain/borrow"
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

const borrowsURL = "/api/borrows"

type borrowSuite struct {
	e2e.SharedSuite
	studentToken  string
	student2Token string
	staffToken    string
	bookID        uuid.UUID
}

func TestBorrowSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(borrowSuite))
}

func (s *borrowSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()

	t := s.T()
	s.studentToken = authtest.CreateAndLogin(t, s.DB, s.Router, "student@example.com", "student")
	s.student2Token = authtest.CreateAndLogin(t, s.DB, s.Router, "student2@example.com", "student")
	s.staffToken = authtest.CreateAndLogin(t, s.DB, s.Router, "staff@example.com", "staff")

	s.bookID = dbtest.CreateTestBook(t, s.DB, "9784873119694", "The Go Programming Language", 2, 2)
}

// checkout は貸出を作成してレスポンスを返す
func (s *borrowSuite) checkout(t *testing.T, token string, bookID uuid.UUID) response.BorrowResponse {
	t.Helper()

	w := httptest.PerformRequest(t, s.Router, http.MethodPost, borrowsURL,
		request.CheckoutRequest{BookID: bookID}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res response.BorrowResponse
	err := httptest.DecodeResponseBody(t, w.Body, &res)
	require.NoError(t, err)
	return res
}

func (s *borrowSuite) availableCopies(t *testing.T, bookID uuid.UUID) int32 {
	t.Helper()

	var available int32
	err := s.DB.QueryRow(t.Context(), "SELECT available_copies FROM books WHERE id = $1", bookID).Scan(&available)
	require.NoError(t, err)
	return available
}

func (s *borrowSuite) TestCheckout() {
	s.Run("貸出に成功すると在庫が減り履歴イベントが残る", func() {
		t := s.T()

		res := s.checkout(t, s.studentToken, s.bookID)
		require.Equal(t, s.bookID, res.BookID)
		require.Equal(t, "active", res.Status)
		require.Equal(t, borrow.LoanPeriod, res.DueAt.Sub(res.BorrowedAt), "返却期限が貸出期間と一致しない")

		require.EqualValues(t, 1, s.availableCopies(t, s.bookID))

		var kind string
		err := s.DB.QueryRow(t.Context(), "SELECT kind FROM lending_events WHERE book_id = $1", s.bookID).Scan(&kind)
		require.NoError(t, err)
		require.Equal(t, "checkout", kind)
	})

	s.Run("同一書籍の二重貸出はできない", func() {
		t := s.T()

		s.checkout(t, s.studentToken, s.bookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, borrowsURL,
			request.CheckoutRequest{BookID: s.bookID}, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "already borrowed")
		require.EqualValues(t, 1, s.availableCopies(t, s.bookID))
	})

	s.Run("在庫がない書籍は貸出できない", func() {
		t := s.T()

		emptyBook := dbtest.CreateTestBook(t, s.DB, "9780134190440", "The Go Programming Language Solutions", 1, 0)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, borrowsURL,
			request.CheckoutRequest{BookID: emptyBook}, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "No copies available")
	})

	s.Run("存在しない書籍は404", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, borrowsURL,
			request.CheckoutRequest{BookID: uuid.New()}, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusNotFound, "Book not found")
	})

	s.Run("アーカイブ済みの書籍は貸出できない", func() {
		t := s.T()

		archived := dbtest.CreateTestBook(t, s.DB, "9781491941959", "Go in Practice", 1, 1)
		_, err := s.DB.Exec(t.Context(), "UPDATE books SET status = 'archived' WHERE id = $1", archived)
		require.NoError(t, err)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, borrowsURL,
			request.CheckoutRequest{BookID: archived}, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "archived")
	})

	s.Run("未認証は401", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, borrowsURL,
			request.CheckoutRequest{BookID: s.bookID}, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func (s *borrowSuite) TestRenew() {
	renewURL := func(id uuid.UUID) string { return fmt.Sprintf("%s/%s/renew", borrowsURL, id) }

	s.Run("更新で返却期限が現在の期限から積み上がる", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, renewURL(created.ID), nil, s.studentToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var renewed response.BorrowResponse
		err := httptest.DecodeResponseBody(t, w.Body, &renewed)
		require.NoError(t, err)
		require.EqualValues(t, 1, renewed.RenewalCount)
		require.Equal(t, borrow.LoanPeriod, renewed.DueAt.Sub(created.DueAt), "期限が現在の期限から積み上がっていない")
	})

	s.Run("更新は上限まで", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)

		for range borrow.MaxRenewals {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, renewURL(created.ID), nil, s.studentToken)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, renewURL(created.ID), nil, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "Renewal limit reached")
	})

	s.Run("他の学生の貸出は更新できない", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, renewURL(created.ID), nil, s.student2Token)
		httptest.AssertErrorResponse(t, w, http.StatusForbidden, "Insufficient permissions")
	})

	s.Run("スタッフは他人の貸出を更新できる", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, renewURL(created.ID), nil, s.staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})

	s.Run("他ユーザーの予約があると更新できない", func() {
		t := s.T()

		// 最後の一冊を借りて、別の学生が予約する
		lastCopy := dbtest.CreateTestBook(t, s.DB, "9781617291784", "Go in Action", 1, 1)
		created := s.checkout(t, s.studentToken, lastCopy)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, "/api/reservations",
			request.CreateReservationRequest{BookID: lastCopy}, s.student2Token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, renewURL(created.ID), nil, s.studentToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "reserved by another user")
	})
}

func (s *borrowSuite) TestReturn() {
	returnURL := func(id uuid.UUID) string { return fmt.Sprintf("%s/%s/return", borrowsURL, id) }

	s.Run("スタッフが期限内に返却すると罰金なし", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, returnURL(created.ID), nil, s.staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res response.ReturnResponse
		err := httptest.DecodeResponseBody(t, w.Body, &res)
		require.NoError(t, err)
		require.EqualValues(t, 0, res.FineCents)
		require.Equal(t, "returned", res.Borrow.Status)
		require.NotNil(t, res.Borrow.ReturnedAt)

		// 在庫が戻ること
		require.EqualValues(t, 2, s.availableCopies(t, s.bookID))
	})

	s.Run("延滞返却は日割りの罰金が確定する", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)
		// 2.5日延滞させる。端数は切り上げで3日分
		dbtest.BackdateBorrowDue(t, s.DB, created.ID, 60*time.Hour)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, returnURL(created.ID), nil, s.staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var res response.ReturnResponse
		err := httptest.DecodeResponseBody(t, w.Body, &res)
		require.NoError(t, err)
		require.EqualValues(t, 3*borrow.FineCentsPerDay, res.FineCents)

		var persisted int64
		err = s.DB.QueryRow(t.Context(), "SELECT fine_cents FROM borrows WHERE id = $1", created.ID).Scan(&persisted)
		require.NoError(t, err)
		require.EqualValues(t, res.FineCents, persisted)
	})

	s.Run("学生は自分の貸出でも返却できない", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, returnURL(created.ID), nil, s.studentToken)
		require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	})

	s.Run("返却済みの貸出は再返却できない", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, returnURL(created.ID), nil, s.staffToken)
		require.Equal(t, http.StatusOK, w.Code)

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, returnURL(created.ID), nil, s.staffToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "already returned")
	})
}

func (s *borrowSuite) TestListAndOverdue() {
	s.Run("学生は自分の貸出だけが見える", func() {
		t := s.T()

		s.checkout(t, s.studentToken, s.bookID)
		other := dbtest.CreateTestBook(t, s.DB, "9781786468949", "Go Design Patterns", 1, 1)
		s.checkout(t, s.student2Token, other)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, borrowsURL, nil, s.studentToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var page response.PageResponse[response.BorrowResponse]
		err := httptest.DecodeResponseBody(t, w.Body, &page)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		require.Equal(t, s.bookID, page.Items[0].BookID)
	})

	s.Run("スタッフは延滞一覧で推定罰金を確認できる", func() {
		t := s.T()

		created := s.checkout(t, s.studentToken, s.bookID)
		dbtest.BackdateBorrowDue(t, s.DB, created.ID, 60*time.Hour)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, borrowsURL+"/overdue", nil, s.staffToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var page response.PageResponse[response.OverdueBorrowResponse]
		err := httptest.DecodeResponseBody(t, w.Body, &page)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		require.EqualValues(t, 3, page.Items[0].DaysOverdue)
		require.EqualValues(t, 3*borrow.FineCentsPerDay, page.Items[0].ProjectedFineCents)
	})

	s.Run("学生は延滞一覧を見られない", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, borrowsURL+"/overdue", nil, s.studentToken)
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}
