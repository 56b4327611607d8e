package switchbot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignProducesVerifiableSignature(t *testing.T) {
	s := Sign("token-1", "secret-1", http.MethodPost)

	mac := hmac.New(sha256.New, []byte("secret-1"))
	mac.Write([]byte("token-1" + strconv.FormatInt(s.Timestamp, 10) + s.Nonce))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, s.Signature)
	assert.Equal(t, "token-1", s.Token)

	_, err := uuid.Parse(s.Nonce)
	assert.NoError(t, err, "nonce must be a UUID")
}

func TestSignNeverReusesNonce(t *testing.T) {
	a := Sign("token", "secret", http.MethodPost)
	b := Sign("token", "secret", http.MethodPost)

	assert.NotEqual(t, a.Nonce, b.Nonce)
	assert.NotEqual(t, a.Signature, b.Signature)
}

func TestSignHeaders(t *testing.T) {
	post := Sign("token", "secret", "").Header()
	require.Equal(t, "token", post.Get("Authorization"))
	assert.Equal(t, "application/json", post.Get("Content-Type"))
	assert.Equal(t, "utf8", post.Get("charset"))
	assert.NotEmpty(t, post.Get("t"))
	assert.NotEmpty(t, post.Get("sign"))
	assert.NotEmpty(t, post.Get("nonce"))

	get := Sign("token", "secret", http.MethodGet).Header()
	assert.Equal(t, "token", get.Get("Authorization"))
	assert.Empty(t, get.Get("Content-Type"))
	assert.Empty(t, get.Get("charset"))
	assert.NotEmpty(t, get.Get("sign"))
}
