package movements

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/keystone-erp/keystone-erp/internal/shared"
)

func newTestRouter(repo *memoryRepo) http.Handler {
	svc := NewService(repo, nil, nil, nil, nil)
	handler := NewHandler(slog.New(slog.NewTextHandler(&strings.Builder{}, nil)), svc)
	r := chi.NewRouter()
	r.Use(shared.ActorMiddleware)
	r.Route("/entries", handler.MountEntryRoutes)
	r.Route("/exits", handler.MountExitRoutes)
	r.Route("/materials", handler.MountMaterialRoutes)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(shared.ActorHeader, "storekeeper")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPostEntryCreated(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/entries", `{"material_id":1,"entry_type":"PURCHASE","quantity":50,"unit_price":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Contains(t, rec.Body.String(), `"total_value":500`)
	require.Contains(t, rec.Body.String(), `"recorded_by":"storekeeper"`)
	require.InDelta(t, 150.0, repo.stock(1), 1e-9)
}

func TestPostEntryUnknownMaterialIs404(t *testing.T) {
	router := newTestRouter(newMemoryRepo(cement(100)))

	rec := doJSON(t, router, http.MethodPost, "/entries", `{"material_id":99,"entry_type":"PURCHASE","quantity":5,"unit_price":1}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestPostEntryBadBodyIs400(t *testing.T) {
	router := newTestRouter(newMemoryRepo(cement(100)))

	rec := doJSON(t, router, http.MethodPost, "/entries", `{"material_id":1,"entry_type":"DONATION","quantity":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/entries", `{"material_id":1`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostExitOverdrawIs409(t *testing.T) {
	repo := newMemoryRepo(cement(10))
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/exits", `{"material_id":1,"quantity":11,"purpose":"casting","issued_to":"site-a"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Empty(t, repo.exits)
}

func TestPatchStockSubtractBelowZeroIs409(t *testing.T) {
	repo := newMemoryRepo(cement(5))
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPatch, "/materials/1/stock", `{"quantity":6,"operation":"subtract"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.InDelta(t, 5.0, repo.stock(1), 1e-9)
}

func TestPatchStockAddIs200AndLedgered(t *testing.T) {
	repo := newMemoryRepo(cement(5))
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPatch, "/materials/1/stock", `{"quantity":6,"operation":"add","reason":"cycle count"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.InDelta(t, 11.0, repo.stock(1), 1e-9)
	require.Len(t, repo.entries, 1)
}

func TestGetLedger(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/entries", `{"material_id":1,"entry_type":"PURCHASE","quantity":50,"unit_price":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/materials/1/ledger", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"current_stock":150`)
	require.Contains(t, rec.Body.String(), `"kind":"ENTRY"`)

	rec = doJSON(t, router, http.MethodGet, "/materials/99/ledger", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReturnFlowOverHTTP(t *testing.T) {
	repo := newMemoryRepo(cement(100))
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/exits", `{"material_id":1,"quantity":30,"purpose":"scaffolding","issued_to":"site-b","return_expected":true}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	exitID := repo.exits[0].ID

	returnPath := "/exits/" + strconv.FormatInt(exitID, 10) + "/return"
	rec = doJSON(t, router, http.MethodPost, returnPath, `{"quantity":30}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.InDelta(t, 100.0, repo.stock(1), 1e-9)

	// double return
	rec = doJSON(t, router, http.MethodPost, returnPath, `{"quantity":30}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}
