package handler

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"guardhouse/internal/dutytype/handler/mocks"
	"guardhouse/internal/dutytype/models"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/dutytype-mocks.go -package=mocks Service

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	svc := mocks.NewMockService(gomock.NewController(t))
	h := New(svc, nil)
	r := chi.NewRouter()
	h.Register(r)
	h.RegisterAdmin(r)
	return r, svc
}

func TestHandleList(t *testing.T) {
	router, svc := newTestRouter(t)
	svc.EXPECT().List(gomock.Any()).Return([]*models.DutyType{{ID: 1, Name: "Gate"}}, nil)

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/duty-types"))

	testutil.AssertStatus(t, rr, http.StatusOK)
	types := *testutil.UnmarshalResponse[[]models.DutyType](t, rr)
	if assert.Len(t, types, 1) {
		assert.Equal(t, "Gate", types[0].Name)
	}
}

func TestHandleCreate(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Create(gomock.Any(), &models.CreateRequest{Name: "Patrol"}).
			Return(&models.DutyType{ID: 4, Name: "Patrol"}, nil)

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/admin/duty-types", models.CreateRequest{Name: "Patrol"}))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		assert.Equal(t, id.DutyTypeID(4), testutil.UnmarshalResponse[models.DutyType](t, rr).ID)
	})

	t.Run("duplicate", func(t *testing.T) {
		router, svc := newTestRouter(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeConflict, "duty type already exists"))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/admin/duty-types", models.CreateRequest{Name: "Patrol"}))
		testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")
	})

	t.Run("malformed body", func(t *testing.T) {
		router, _ := newTestRouter(t)
		req := testutil.NewRequest(t, http.MethodPost, "/admin/duty-types")
		req.Body = http.NoBody
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})
}

func TestHandleDelete(t *testing.T) {
	router, svc := newTestRouter(t)
	svc.EXPECT().Delete(gomock.Any(), id.DutyTypeID(3)).Return(nil)
	svc.EXPECT().Delete(gomock.Any(), id.DutyTypeID(4)).
		Return(dErrors.New(dErrors.CodeConflict, "duty type is assigned to guards"))

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/admin/duty-types/3"))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/admin/duty-types/4"))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")

	rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodDelete, "/admin/duty-types/x"))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}
