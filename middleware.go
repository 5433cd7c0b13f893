package imageman

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"sync"

	"github.com/wb-go/wbf/helpers"
)

const libraryVersion = "0.1.0"

// Sender performs one HTTP exchange.
type Sender func(*http.Request) (*http.Response, error)

// Interceptor decorates a Sender. Interceptors may touch the request
// before handing it to next and the response (or error) on the way back.
type Interceptor func(req *http.Request, next Sender) (*http.Response, error)

// chain composes the interceptors around base, first one outermost.
func chain(base Sender, interceptors ...Interceptor) Sender {
	send := base
	for i := len(interceptors) - 1; i >= 0; i-- {
		mw, next := interceptors[i], send
		send = func(req *http.Request) (*http.Response, error) {
			return mw(req, next)
		}
	}
	return send
}

// identification stamps every outgoing request with the client identity.
func identification() Interceptor {
	agent := "imageman-go/" + libraryVersion
	return func(req *http.Request, next Sender) (*http.Response, error) {
		req.Header.Set("User-Agent", agent)
		return next(req)
	}
}

// requestID assigns a request id when the caller did not bring one.
func requestID() Interceptor {
	return func(req *http.Request, next Sender) (*http.Response, error) {
		if req.Header.Get("X-Request-Id") == "" {
			req.Header.Set("X-Request-Id", helpers.CreateUUID())
		}
		return next(req)
	}
}

// authentication attaches the bearer credential, but only on requests to
// the service's own domain. Anything else - a presigned storage URL in
// particular - gets the header stripped instead, so the credential never
// leaks to a third party. The token is resolved once and cached.
func authentication(cfg Config, domainHost string) Interceptor {
	var (
		once     sync.Once
		token    string
		tokenErr error
	)
	resolve := func() (string, error) {
		once.Do(func() {
			if cfg.TokenProvider != nil {
				token, tokenErr = cfg.TokenProvider()
				return
			}
			token = cfg.Token
		})
		return token, tokenErr
	}

	return func(req *http.Request, next Sender) (*http.Response, error) {
		if req.URL.Host != domainHost {
			req.Header.Del("Authorization")
			return next(req)
		}
		token, err := resolve()
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return next(req)
	}
}

// errorBody is the JSON payload the service attaches to failed requests.
type errorBody struct {
	RequestID  string `json:"request_id"`
	Message    string `json:"message"`
	Reason     string `json:"reason"`
	StatusCode int    `json:"httpStatusCode"`
	ErrorCode  int    `json:"errorCode"`
}

// storageError is the XML payload S3-style storage backends answer with.
type storageError struct {
	Code      string `xml:"Code"`
	Message   string `xml:"Message"`
	RequestID string `xml:"RequestId"`
}

const (
	codeDuplicateImage   = 1002
	codeFileNotSupported = 1003
)

// classification turns failure statuses into typed errors so a failed
// exchange can never be silently ignored. 4xx from anywhere but the
// service's own domain means the presigned upload target rejected us.
func classification(domainHost string) Interceptor {
	return func(req *http.Request, next Sender) (*http.Response, error) {
		resp, err := next(req)
		if err != nil {
			return nil, err
		}

		status := resp.StatusCode
		switch {
		case status >= 400 && status <= 410:
			body := decodeErrorBody(resp)
			if req.URL.Host != domainHost {
				return nil, apiError(ErrSignedURL, status, body)
			}
			return nil, apiError(classifyKind(status, body.ErrorCode), status, body)
		case status == 500:
			body := decodeErrorBody(resp)
			if body.Message == "" {
				body.Message = "server error, please contact the imageman service team"
			}
			return nil, apiError(ErrServer, status, body)
		}
		return resp, nil
	}
}

func classifyKind(status, errorCode int) error {
	switch {
	case status == 400 && errorCode == codeDuplicateImage:
		return ErrDuplicateImage
	case status == 400 && errorCode == codeFileNotSupported:
		return ErrFileNotSupported
	case status == 403:
		return ErrForbidden
	case status == 404:
		return ErrImageNotFound
	default:
		return ErrImage
	}
}

// decodeErrorBody is deliberately forgiving: structured JSON first, the
// storage backend's XML shape second, and an empty payload when neither
// fits. The status code drives classification either way.
func decodeErrorBody(resp *http.Response) errorBody {
	var body errorBody
	if resp.Body == nil {
		return body
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil || len(raw) == 0 {
		return body
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		return body
	}

	var se storageError
	if err := xml.Unmarshal(raw, &se); err == nil {
		body.Message = se.Message
		body.Reason = se.Code
		body.RequestID = se.RequestID
	}
	return body
}

func apiError(kind error, status int, body errorBody) *APIError {
	return &APIError{
		Kind:       kind,
		RequestID:  body.RequestID,
		Message:    body.Message,
		Reason:     body.Reason,
		StatusCode: status,
		ErrorCode:  body.ErrorCode,
	}
}
