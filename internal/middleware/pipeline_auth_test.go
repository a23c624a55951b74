package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const pipelineKey = "pipeline-key-0001"

func setupPipelineRouter(apiKey string) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogging(), ErrorHandler())
	group := r.Group("/pipeline", PipelineAuthMiddleware(apiKey))
	group.PATCH("/applications/:id/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	return r
}

func doRequest(r *gin.Engine, apiKey string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPatch, "/pipeline/applications/app-1/status", http.NoBody)
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func TestPipelineAuthMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		configuredKey string
		requestKey    string
		wantStatus    int
		wantErrorCode string
	}{
		{"matching key", pipelineKey, pipelineKey, http.StatusOK, ""},
		{"wrong key", pipelineKey, "pipeline-key-0002", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"missing key", pipelineKey, "", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"prefix of key", pipelineKey, "pipeline-key", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"pipeline disabled", "", pipelineKey, http.StatusServiceUnavailable, "PIPELINE_NOT_CONFIGURED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(setupPipelineRouter(tt.configuredKey), tt.requestKey)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := parseBody(t, rec)
			if tt.wantErrorCode == "" {
				if body["id"] != "app-1" {
					t.Errorf("handler not reached, body = %v", body)
				}
				return
			}
			errObj, ok := body["error"].(map[string]interface{})
			if !ok {
				t.Fatal("expected error object in response")
			}
			if code, _ := errObj["code"].(string); code != tt.wantErrorCode {
				t.Errorf("error code = %q, want %q", code, tt.wantErrorCode)
			}
		})
	}
}
