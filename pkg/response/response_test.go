package response

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

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	return body
}

func TestOKList(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OKList(c, []string{"a", "b"}, 2)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["code"].(float64) != 0 {
		t.Errorf("期望 code=0，实际 %v", body["code"])
	}
	data := body["data"].(map[string]interface{})
	if data["total"].(float64) != 2 || len(data["list"].([]interface{})) != 2 {
		t.Errorf("列表数据不符合预期: %v", data)
	}
}

func TestErrorHelpers(t *testing.T) {
	cases := []struct {
		name   string
		call   func(c *gin.Context)
		status int
		code   float64
	}{
		{"BadRequest", func(c *gin.Context) { BadRequest(c, 10001, "bad") }, http.StatusBadRequest, 10001},
		{"NotFound", func(c *gin.Context) { NotFound(c, 17001, "missing") }, http.StatusNotFound, 17001},
		{"Conflict", func(c *gin.Context) { Conflict(c, 17003, "conflict") }, http.StatusConflict, 17003},
		{"TooManyRequests", func(c *gin.Context) { TooManyRequests(c, 10004, "slow down") }, http.StatusTooManyRequests, 10004},
		{"InternalError", func(c *gin.Context) { InternalError(c) }, http.StatusInternalServerError, 50000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tc.call(c)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			body := decode(t, w)
			if body["code"].(float64) != tc.code {
				t.Errorf("期望 code=%v，实际 %v", tc.code, body["code"])
			}
			if _, ok := body["data"]; ok {
				t.Error("错误响应不应包含 data")
			}
		})
	}
}

func TestErrorWithDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", "start_date: required")

	body := decode(t, w)
	if body["details"] != "start_date: required" {
		t.Errorf("期望携带 details，实际 %v", body["details"])
	}
}
