package chat

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/multichat/internal/utils/platformerrors"
	"github.com/janhq/multichat/pkg/protocol"
)

func bindBody(t *testing.T, body string) (*StreamRequest, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/stream", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return Bind(c)
}

func TestBind(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", ``, MsgInvalidBody},
		{"malformed json", `{"query":`, MsgInvalidBody},
		{"array body", `[1,2]`, MsgInvalidBody},
		{"null body", `null`, MsgInvalidQuery},
		{"missing query", `{"models":[]}`, MsgInvalidQuery},
		{"empty query", `{"query":"","models":[]}`, MsgInvalidQuery},
		{"bool query", `{"query":true,"models":[]}`, MsgInvalidQuery},
		{"missing query wins over bad models", `{"models":"x"}`, MsgInvalidQuery},
		{"missing models", `{"query":"hi"}`, MsgInvalidModels},
		{"null models", `{"query":"hi","models":null}`, MsgInvalidModels},
		{"models string", `{"query":"hi","models":"a"}`, MsgInvalidModels},
		{"numeric model id", `{"query":"hi","models":[{"id":1,"provider":"groq","modelId":"m"}]}`, MsgInvalidModels},
		{"empty model id", `{"query":"hi","models":[{"id":"","provider":"groq","modelId":"m"}]}`, MsgInvalidModels},
		{"second model missing modelId", `{"query":"hi","models":[{"id":"a","provider":"groq","modelId":"m"},{"id":"b","provider":"groq"}]}`, MsgInvalidModels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := bindBody(t, tt.body)
			require.Error(t, err)
			assert.Nil(t, req)

			platformErr := platformerrors.GetPlatformError(err)
			require.NotNil(t, platformErr)
			assert.Equal(t, tt.message, platformErr.Message)
			assert.Equal(t, platformerrors.ErrorTypeValidation, platformErr.Type)
		})
	}
}

func TestBind_Valid(t *testing.T) {
	req, err := bindBody(t, `{"query":"hi","models":[{"id":"a","provider":"groq","modelId":"m"}]}`)
	require.NoError(t, err)
	assert.Equal(t, "hi", req.Query)
	require.Len(t, req.Models, 1)
	assert.Equal(t, "m", req.Models[0].ModelID)

	empty, err := bindBody(t, `{"query":"hi","models":[]}`)
	require.NoError(t, err)
	assert.NotNil(t, empty.Models)
	assert.Empty(t, empty.Models)
}

func TestToDomain(t *testing.T) {
	req := &StreamRequest{Query: "hi", Models: []protocol.ModelDescriptor{{ID: "a", Provider: "groq", ModelID: "m"}}}
	got := ToDomain("sess_1", req)
	assert.Equal(t, "sess_1", got.SessionID)
	assert.Equal(t, "hi", got.Query)
	require.Len(t, got.Models, 1)
	assert.Equal(t, "m", got.Models[0].UpstreamModel)
}
