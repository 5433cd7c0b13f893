package devserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
)

func TestHandler_Ping(t *testing.T) {
	r := gin.New()
	h := NewHandler(nil)

	r.GET("/ping", func(c *gin.Context) {
		h.Ping((*ginext.Context)(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "pong", body["message"])
}

func newJSONRequest(t *testing.T, method, path string, payload any) *http.Request {
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		req        *http.Request
		mock       *mockImageService
		wantStatus int
		wantCode   int
	}{
		{
			name: "success",
			req: newJSONRequest(t, http.MethodPost, "/api/v1/images",
				CreateRequest{FileName: "cat.png", Reference: "ref-1", File: "aGk="}),
			mock: &mockImageService{
				createFn: func(_ context.Context, req *CreateRequest) (*ResponseBody, error) {
					require.Equal(t, "cat.png", req.FileName)
					return &ResponseBody{UUID: "u-1", FileName: req.FileName}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name: "duplicate reference",
			req: newJSONRequest(t, http.MethodPost, "/api/v1/images",
				CreateRequest{FileName: "cat.png", Reference: "ref-1", File: "aGk="}),
			mock: &mockImageService{
				createFn: func(context.Context, *CreateRequest) (*ResponseBody, error) {
					return nil, ErrDuplicate
				},
			},
			wantStatus: 400,
			wantCode:   CodeDuplicateImage,
		},
		{
			name: "unsupported type",
			req: newJSONRequest(t, http.MethodPost, "/api/v1/images",
				CreateRequest{FileName: "notes.txt", Reference: "ref-1", File: "aGk="}),
			mock: &mockImageService{
				createFn: func(context.Context, *CreateRequest) (*ResponseBody, error) {
					return nil, ErrUnsupportedType
				},
			},
			wantStatus: 400,
			wantCode:   CodeFileNotSupported,
		},
		{
			name: "internal error",
			req: newJSONRequest(t, http.MethodPost, "/api/v1/images",
				CreateRequest{FileName: "cat.png", Reference: "ref-1", File: "aGk="}),
			mock: &mockImageService{
				createFn: func(context.Context, *CreateRequest) (*ResponseBody, error) {
					return nil, ErrInternal
				},
			},
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewHandler(tt.mock)

			r.POST("/api/v1/images", func(c *gin.Context) {
				h.Create((*ginext.Context)(c))
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != 0 {
				var body ErrorBody
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				require.Equal(t, tt.wantCode, body.ErrorCode)
				require.Equal(t, tt.wantStatus, body.StatusCode)
			}
		})
	}
}

func TestHandler_Create_MalformedBody(t *testing.T) {
	r := gin.New()
	h := NewHandler(&mockImageService{})

	r.POST("/api/v1/images", func(c *gin.Context) {
		h.Create((*ginext.Context)(c))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 400, w.Code)
}

func TestHandler_Fetch(t *testing.T) {
	r := gin.New()
	h := NewHandler(&mockImageService{
		fetchFn: func(_ context.Context, idOrRef string) (*ResponseBody, error) {
			if idOrRef != "u-1" {
				return nil, ErrNotFound
			}
			return &ResponseBody{UUID: "u-1"}, nil
		},
	})

	r.GET("/api/v1/images/:id", func(c *gin.Context) {
		h.Fetch((*ginext.Context)(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/images/u-1", nil))
	require.Equal(t, 200, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/images/u-2", nil))
	require.Equal(t, 404, w.Code)
}

func TestHandler_Delete(t *testing.T) {
	var deleted string
	r := gin.New()
	h := NewHandler(&mockImageService{
		deleteFn: func(_ context.Context, idOrRef string) error {
			deleted = idOrRef
			return nil
		},
	})

	r.DELETE("/api/v1/images/:id", func(c *gin.Context) {
		h.Delete((*ginext.Context)(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/images/u-1", nil))

	require.Equal(t, 200, w.Code)
	require.Equal(t, "u-1", deleted)
}
