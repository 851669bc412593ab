package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/atelierhq/atelier-api/internal/api/response"
)

// ResponseInterceptor post-processes the success path of every handler.
// Handlers are expected to build their own envelope; responses already
// carrying the discriminator field pass through byte-for-byte (gaining a
// lang field only when it is genuinely absent). Raw or legacy payloads are
// wrapped defensively. Non-JSON and streamed bodies bypass entirely.
func (s *Server) ResponseInterceptor() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := c.Response()
			capture := &bodyCapture{ResponseWriter: res.Writer}
			res.Writer = capture

			// A panicking handler unwinds past the normal restore below,
			// so the real writer must come back in a defer or the error
			// handler would write the 500 envelope into the discarded
			// buffer. If the handler committed a response before
			// panicking, flush what it wrote instead of dropping it.
			finished := false
			defer func() {
				res.Writer = capture.ResponseWriter
				if finished {
					return
				}
				if res.Committed && capture.buf.Len() > 0 {
					status := capture.status
					if status == 0 {
						status = http.StatusOK
					}
					_ = writeRaw(capture.ResponseWriter, status, capture.buf.Bytes())
				}
			}()

			err := next(c)

			res.Writer = capture.ResponseWriter
			finished = true
			if err != nil {
				// The error handler writes directly to the real writer.
				return err
			}

			status := capture.status
			if status == 0 {
				status = http.StatusOK
			}
			body := capture.buf.Bytes()

			if len(body) == 0 {
				if capture.status != 0 {
					res.Writer.WriteHeader(status)
				}
				return nil
			}

			contentType := res.Header().Get(echo.HeaderContentType)
			if !strings.HasPrefix(contentType, echo.MIMEApplicationJSON) || status >= http.StatusMultipleChoices {
				return writeRaw(res.Writer, status, body)
			}

			var decoded any
			if jsonErr := json.Unmarshal(body, &decoded); jsonErr != nil {
				return writeRaw(res.Writer, status, body)
			}

			if obj, ok := decoded.(map[string]any); ok && isEnvelope(obj) {
				// Already enveloped: only add a missing lang, never touch
				// message or timestamp.
				if _, hasLang := obj["lang"]; hasLang {
					return writeRaw(res.Writer, status, body)
				}
				obj["lang"] = Lang(c)
				patched, marshalErr := json.Marshal(obj)
				if marshalErr != nil {
					return writeRaw(res.Writer, status, body)
				}
				return writeRaw(res.Writer, status, patched)
			}

			// Legacy/raw handler return: wrap it.
			env := response.Success(s.bundle, decoded, "", Lang(c))
			wrapped, marshalErr := json.Marshal(env)
			if marshalErr != nil {
				return writeRaw(res.Writer, status, body)
			}
			return writeRaw(res.Writer, status, wrapped)
		}
	}
}

// isEnvelope checks for the discriminator field of either envelope
// generation ("status" current, "success" legacy).
func isEnvelope(obj map[string]any) bool {
	if _, ok := obj["status"]; ok {
		return true
	}
	if _, ok := obj["success"]; ok {
		return true
	}
	return false
}

func writeRaw(w http.ResponseWriter, status int, body []byte) error {
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

// bodyCapture buffers the handler's response so the interceptor can decide
// whether to wrap it. Header writes are deferred until the final body is
// known.
type bodyCapture struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *bodyCapture) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	return w.buf.Write(b)
}
