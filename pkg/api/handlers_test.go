package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-blobdb/pkg/domain"
)

func newTestRouter(provider domain.RecordProvider) *mux.Router {
	handler := NewHandler(provider, nil)
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reader = &bytes.Buffer{}
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestHandler_HandleInsert(t *testing.T) {
	tests := []struct {
		name           string
		collection     string
		body           interface{}
		expectedStatus int
		expectedID     string
	}{
		{
			name:       "valid record",
			collection: "users",
			body: map[string]interface{}{
				"name": "Alice",
				"age":  30,
			},
			expectedStatus: http.StatusCreated,
			expectedID:     "generated",
		},
		{
			name:       "record with existing ID",
			collection: "users",
			body: map[string]interface{}{
				"_id":  "123",
				"name": "Bob",
			},
			expectedStatus: http.StatusCreated,
			expectedID:     "123",
		},
		{
			name:           "invalid JSON",
			collection:     "users",
			body:           "{not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "array body",
			collection:     "users",
			body:           `[{"name": "Alice"}]`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "null body",
			collection:     "users",
			body:           "null",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewMockRecordProvider()
			router := newTestRouter(provider)

			w := doRequest(t, router, "POST", "/collections/"+tt.collection, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus != http.StatusCreated {
				assert.Equal(t, 0, provider.GetCreateCalls())
				assert.Equal(t, http.StatusBadRequest, decodeError(t, w).Code)
				return
			}

			var created map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
			assert.Equal(t, tt.expectedID, created["_id"])
			assert.Equal(t, 1, provider.GetCreateCalls())
			assert.Equal(t, 1, provider.GetCollectionCount(tt.collection))
		})
	}
}

func TestHandler_HandleInsert_Duplicate(t *testing.T) {
	provider := NewMockRecordProvider()
	provider.Seed("users", domain.Record{"_id": "1", "name": "Alice"})
	router := newTestRouter(provider)

	w := doRequest(t, router, "POST", "/collections/users", map[string]interface{}{"_id": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	response := decodeError(t, w)
	assert.Equal(t, "Bad Request", response.Error)
	assert.Equal(t, "the record 1 in users already exists", response.Message)
}

func TestHandler_HandleGetAll(t *testing.T) {
	tests := []struct {
		name          string
		queryParams   string
		expectedNames []string
	}{
		{
			name:          "all records (no filter)",
			queryParams:   "",
			expectedNames: []string{"Alice", "Bob", "Charlie"},
		},
		{
			name:          "filter by age",
			queryParams:   "?age=30",
			expectedNames: []string{"Alice", "Charlie"},
		},
		{
			name:          "filter by name (case insensitive)",
			queryParams:   "?name=bob",
			expectedNames: []string{"Bob"},
		},
		{
			name:          "multiple filters",
			queryParams:   "?age=30&name=Charlie",
			expectedNames: []string{"Charlie"},
		},
		{
			name:          "filter by boolean",
			queryParams:   "?active=true",
			expectedNames: []string{"Alice"},
		},
		{
			name:          "no matches",
			queryParams:   "?age=99",
			expectedNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewMockRecordProvider()
			provider.Seed("users",
				domain.Record{"_id": "1", "name": "Alice", "age": float64(30), "active": true},
				domain.Record{"_id": "2", "name": "Bob", "age": float64(25), "active": false},
				domain.Record{"_id": "3", "name": "Charlie", "age": float64(30)},
			)
			router := newTestRouter(provider)

			w := doRequest(t, router, "GET", "/collections/users"+tt.queryParams, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var records []map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&records))

			names := make([]string, 0, len(records))
			for _, record := range records {
				names = append(names, record["name"].(string))
			}
			assert.Equal(t, tt.expectedNames, names)
		})
	}
}

func TestHandler_HandleGetAll_EmptyCollection(t *testing.T) {
	router := newTestRouter(NewMockRecordProvider())

	w := doRequest(t, router, "GET", "/collections/missing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHandler_HandleGetById(t *testing.T) {
	provider := NewMockRecordProvider()
	provider.Seed("users", domain.Record{"_id": float64(23), "name": "Jane"})
	router := newTestRouter(provider)

	t.Run("existing record", func(t *testing.T) {
		w := doRequest(t, router, "GET", "/collections/users/records/23", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"_id": 23, "name": "Jane"}`, w.Body.String())
	})

	t.Run("missing record", func(t *testing.T) {
		w := doRequest(t, router, "GET", "/collections/users/records/5", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		response := decodeError(t, w)
		assert.Equal(t, http.StatusNotFound, response.Code)
		assert.Equal(t, "the record 5 in users does not exist", response.Message)
	})
}

func TestHandler_HandleUpdateById(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		id             string
		body           interface{}
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "patch merges fields",
			method:         "PATCH",
			id:             "1",
			body:           map[string]interface{}{"age": 31},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"_id": "1", "name": "Alice", "age": 31}`,
		},
		{
			name:           "patch of missing record",
			method:         "PATCH",
			id:             "2",
			body:           map[string]interface{}{"age": 31},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "put creates missing record",
			method:         "PUT",
			id:             "2",
			body:           map[string]interface{}{"name": "Bob"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"_id": "2", "name": "Bob"}`,
		},
		{
			name:           "put merges existing record",
			method:         "PUT",
			id:             "1",
			body:           map[string]interface{}{"name": "Alicia"},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"_id": "1", "name": "Alicia", "age": 30}`,
		},
		{
			name:           "invalid body",
			method:         "PATCH",
			id:             "1",
			body:           "{",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewMockRecordProvider()
			provider.Seed("users", domain.Record{"_id": "1", "name": "Alice", "age": float64(30)})
			router := newTestRouter(provider)

			w := doRequest(t, router, tt.method, "/collections/users/records/"+tt.id, tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestHandler_HandleDeleteById(t *testing.T) {
	provider := NewMockRecordProvider()
	provider.Seed("users", domain.Record{"_id": "1"}, domain.Record{"_id": "2"})
	router := newTestRouter(provider)

	w := doRequest(t, router, "DELETE", "/collections/users/records/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, provider.GetCollectionCount("users"))

	w = doRequest(t, router, "DELETE", "/collections/users/records/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 2, provider.GetDeleteCalls())
}

func TestHandler_ProviderErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "conflict", err: &domain.ConflictError{}, expectedStatus: http.StatusConflict},
		{name: "validation", err: domain.NewValidationError("failed to decode stored document"), expectedStatus: http.StatusBadRequest},
		{name: "backend", err: errors.New("disk on fire"), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := NewMockRecordProvider()
			provider.err = tt.err
			router := newTestRouter(provider)

			requests := []struct {
				method string
				path   string
				body   interface{}
			}{
				{"GET", "/collections/users", nil},
				{"GET", "/collections/users/records/1", nil},
				{"POST", "/collections/users", map[string]interface{}{"name": "x"}},
				{"PATCH", "/collections/users/records/1", map[string]interface{}{"name": "x"}},
				{"PUT", "/collections/users/records/1", map[string]interface{}{"name": "x"}},
				{"DELETE", "/collections/users/records/1", nil},
			}

			for _, req := range requests {
				w := doRequest(t, router, req.method, req.path, req.body)
				assert.Equal(t, tt.expectedStatus, w.Code, "%s %s", req.method, req.path)

				response := decodeError(t, w)
				assert.Equal(t, tt.err.Error(), response.Message)
			}
		})
	}
}

func TestHandler_HandleHealth(t *testing.T) {
	router := newTestRouter(NewMockRecordProvider())

	w := doRequest(t, router, "GET", "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response.Status)
}

func TestWriteJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSONError(w, http.StatusConflict, "write conflict")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error": "Conflict", "message": "write conflict", "code": 409}`, w.Body.String())
}
