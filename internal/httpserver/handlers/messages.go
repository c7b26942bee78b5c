package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/MrSnakeDoc/notice/internal/httpserver/deps"
	"github.com/MrSnakeDoc/notice/internal/logger"
	"github.com/MrSnakeDoc/notice/internal/metrics"
)

// MaxBodyBytes caps a write request body.
const MaxBodyBytes = 100 << 10

// writeRequest is the body of POST /. Both fields stay raw: the token must be a
// JSON string to match, and msg is stored as-is.
type writeRequest struct {
	Token json.RawMessage
	Msg   json.RawMessage
}

// fromObject reads the exact "token" and "msg" keys. encoding/json struct
// decoding folds key case, so "TOKEN" would otherwise satisfy the gate.
func fromObject(raw []byte) writeRequest {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return writeRequest{}
	}
	return writeRequest{Token: fields["token"], Msg: fields["msg"]}
}

// token returns the token if it is a JSON string.
func (wr writeRequest) token() (string, bool) {
	var s string
	if len(wr.Token) == 0 || json.Unmarshal(wr.Token, &s) != nil {
		return "", false
	}
	return s, true
}

// PostMessages replaces the message set when the request carries the write token.
func PostMessages(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, status := decodeWriteRequest(w, r)
		if status != 0 {
			metrics.MessageWrites.WithLabelValues("bad_request").Inc()
			w.WriteHeader(status)
			return
		}

		if tok, ok := body.token(); !ok || tok != d.Token {
			metrics.MessageWrites.WithLabelValues("forbidden").Inc()
			w.WriteHeader(http.StatusForbidden)
			return
		}

		written, err := d.Store.Replace(body.Msg)
		if err != nil {
			metrics.MessageWrites.WithLabelValues("failed").Inc()
			if logErr := d.ErrorLog.WriteError("Error while posting", err); logErr != nil {
				d.Logger.Error("failed to write error log",
					logger.Error(logErr),
					logger.NamedError("cause", err))
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		metrics.MessageWrites.WithLabelValues("ok").Inc()
		d.Logger.Info("message set replaced", logger.Int("bytes", len(written)))
		writeJSON(w, http.StatusOK, written)
	}
}

// decodeWriteRequest accepts JSON and urlencoded bodies. Other content types
// yield an empty request. A non-zero status means the body was unusable.
func decodeWriteRequest(w http.ResponseWriter, r *http.Request) (writeRequest, int) {
	var body writeRequest
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return body, readErrorStatus(err)
		}
		if len(raw) == 0 {
			return body, 0
		}
		if !json.Valid(raw) {
			return body, http.StatusBadRequest
		}
		// Only objects and arrays are accepted; an array carries no token.
		switch bytes.TrimLeft(raw, " \t\r\n")[0] {
		case '{':
			return fromObject(raw), 0
		case '[':
			return body, 0
		default:
			return body, http.StatusBadRequest
		}

	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return body, readErrorStatus(err)
		}
		if r.PostForm.Has("token") {
			body.Token, _ = json.Marshal(r.PostForm.Get("token"))
		}
		if r.PostForm.Has("msg") {
			body.Msg, _ = json.Marshal(r.PostForm.Get("msg"))
		}
		return body, 0
	}

	return body, 0
}

func readErrorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
