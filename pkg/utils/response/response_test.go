package response

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kart-io/coursemind/pkg/errors"
)

func TestSuccess(t *testing.T) {
	r := Success(map[string]string{"answer": "ok"}).WithRequestID("req-1")
	assert.True(t, r.IsSuccess())
	assert.Equal(t, http.StatusOK, r.HTTPStatus())
	assert.Equal(t, "req-1", r.RequestID)
	assert.NotZero(t, r.Timestamp)
}

func TestErr(t *testing.T) {
	r := Err(errors.ErrNotReady.WithCause(fmt.Errorf("milvus down")), "en")
	assert.False(t, r.IsSuccess())
	assert.Equal(t, errors.ErrNotReady.Code, r.Code)
	assert.Equal(t, http.StatusServiceUnavailable, r.HTTPStatus())
	assert.Equal(t, "Service is not ready", r.Message)
	assert.Nil(t, r.Data)

	zh := Err(errors.ErrInvalidQuery, "zh")
	assert.Equal(t, "问题不能为空", zh.Message)
	assert.Equal(t, http.StatusBadRequest, zh.HTTPStatus())

	assert.True(t, Err(nil, "en").IsSuccess())
}
