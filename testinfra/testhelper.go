package testinfra

import (
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"time"

	"flowplan/session"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSession builds a signed-in session for the given user id.
func BuildSession(uid types.ID, name string) *session.Session {
	return &session.Session{
		Token:       "test-token-" + uid.String(),
		Identity:    session.Identity{ID: uid, Name: name},
		SigningTime: time.Now(),
	}
}

func ExecuteRequest(req *http.Request, router *gin.Engine) (int, string, error) {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := w.Result()
	defer resp.Body.Close()
	bodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(bodyBytes), nil
}
