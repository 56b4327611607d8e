package switchbot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

/*
 *   SwitchBot API v1.1 request authentication.
 *
 *   Every request carries the token, a millisecond timestamp, a random nonce
 *   and base64(HMAC-SHA256(secret, token + t + nonce)).  A header set is only
 *   valid for a single request.
 */

// SignedHeaders is the authentication material for one outbound request
type SignedHeaders struct {
	Token     string
	Timestamp int64
	Nonce     string
	Signature string
	Method    string
}

// Sign generates a fresh header set.  An empty method means POST.
func Sign(token, secret, method string) SignedHeaders {
	if method == "" {
		method = http.MethodPost
	}

	t := time.Now().UnixNano() / int64(time.Millisecond)
	nonce := uuid.New().String()

	return SignedHeaders{
		Token:     token,
		Timestamp: t,
		Nonce:     nonce,
		Signature: signature(token, secret, t, nonce),
		Method:    method,
	}
}

func signature(token, secret string, t int64, nonce string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token + strconv.FormatInt(t, 10) + nonce))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Header renders the header set.  POST requests also declare a JSON body.
func (s SignedHeaders) Header() http.Header {
	h := http.Header{}
	h.Set("Authorization", s.Token)
	h.Set("t", strconv.FormatInt(s.Timestamp, 10))
	h.Set("sign", s.Signature)
	h.Set("nonce", s.Nonce)

	if s.Method == http.MethodPost {
		h.Set("Content-Type", "application/json")
		h.Set("charset", "utf8")
	}

	return h
}

// Apply copies the header set onto an outgoing request
func (s SignedHeaders) Apply(r *http.Request) {
	for k, v := range s.Header() {
		r.Header[k] = v
	}
}
