package httpx

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/TRSiddique/university-association-sub000/log"
	"github.com/TRSiddique/university-association-sub000/model"
)

// Will log an error, and send an HTTP response with status 500 and default text
func LogInternalError(w http.ResponseWriter, code string, err error) {
	log.Errorf("%s: %s", code, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Will log a debug message, and send an HTTP response with status 404 and default text
func LogNotFound(w http.ResponseWriter, code string, id any) {
	log.Debugf("%s: not found (%v)", code, id)
	http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Will log an error code at the given level, and send
// an HTTP response with status and default text
func LogStatus(w http.ResponseWriter, status int, level log.Level, code string) {
	log.Log(level, code)
	http.Error(w, http.StatusText(status), status)
}

// Will log an error code and message at the given level,
// and send an HTTP response with the given status and formatted message
func LogStatusMsg(w http.ResponseWriter, status int, level log.Level, code string, msg string, args ...any) {
	errMsg := fmt.Sprintf(msg, args...)
	log.Log(level, code+":", errMsg)
	http.Error(w, errMsg, status)
}

// LogValidation answers 422 with the per-question messages as JSON:
// {"error": "...", "fields": {"<questionId>": "<message>"}}.
func LogValidation(w http.ResponseWriter, r *http.Request, code string, verr *model.ValidationError) {
	log.Debugf("%s: %s", code, verr)
	render.Status(r, http.StatusUnprocessableEntity)
	render.JSON(w, r, map[string]any{
		"error":  verr.Error(),
		"fields": verr.Fields,
	})
}

// LogStoreError maps storage errors onto responses: not found becomes 404,
// everything else 500.
func LogStoreError(w http.ResponseWriter, code string, id any, err error) {
	if errors.Is(err, model.ErrNotFound) {
		LogNotFound(w, code, id)
		return
	}
	LogInternalError(w, code, err)
}
