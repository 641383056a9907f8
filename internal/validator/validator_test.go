package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type unitRequest struct {
	CourseID  int    `json:"course_id" binding:"required,min=1"`
	FromUnit  string `json:"from_unit" binding:"required,unit"`
	MarkValue int    `json:"mark_value" binding:"omitempty,mark"`
}

func bindBody(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var req unitRequest
	return Bind(c, &req)
}

func TestBind(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{"valid", `{"course_id": 3, "from_unit": "Unit 3A"}`, nil},
		{"bad unit", `{"course_id": 3, "from_unit": "chapter nine"}`, []string{"from_unit"}},
		{"supported mark", `{"course_id": 3, "from_unit": "Unit 1", "mark_value": 15}`, nil},
		{"unsupported mark", `{"course_id": 3, "from_unit": "Unit 1", "mark_value": 7}`, []string{"mark_value"}},
		{"missing both", `{}`, []string{"course_id", "from_unit"}},
		{"malformed json", `{"course_id":`, []string{"detail"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := bindBody(t, tt.body)
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("fields = %v, want keys %v", fields, tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if fields[f] == "" {
					t.Fatalf("missing message for %s in %v", f, fields)
				}
			}
		})
	}
}

func TestUnitTranslation(t *testing.T) {
	fields := bindBody(t, `{"course_id": 1, "from_unit": "Unit 0"}`)
	if !strings.Contains(fields["from_unit"], "unit label") {
		t.Fatalf("untranslated message %q", fields["from_unit"])
	}
}

func TestMarkTranslation(t *testing.T) {
	fields := bindBody(t, `{"course_id": 1, "from_unit": "Unit 1", "mark_value": 8}`)
	if !strings.Contains(fields["mark_value"], "1, 2, 3, 4, 5, 6, 13, 15") {
		t.Fatalf("untranslated message %q", fields["mark_value"])
	}
}
