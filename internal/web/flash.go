package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// FlashCookie is the cookie carrying a one-shot message to the next page.
const FlashCookie = "flash"

// Flash categories used by the page handlers.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a message shown once on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// FlashStore signs flash cookies with an HMAC so clients cannot forge them.
type FlashStore struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewFlashStore constructs a store. A non-positive ttl defaults to one minute.
func NewFlashStore(secret string, ttl time.Duration) *FlashStore {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &FlashStore{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Set queues a message for the next page render.
func (s *FlashStore) Set(c *gin.Context, category, message string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(FlashCookie, s.encode(Flash{Category: category, Message: message}), int(s.ttl.Seconds()), "/", "", false, true)
}

// Pop returns the pending message, if any, and clears the cookie. Tampered or
// expired cookies are dropped silently.
func (s *FlashStore) Pop(c *gin.Context) *Flash {
	raw, err := c.Cookie(FlashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(FlashCookie, "", -1, "/", "", false, true)
	flash, err := s.decode(raw)
	if err != nil {
		return nil
	}
	return flash
}

// encode produces payload.expiry.signature where payload is the base64 of
// "category|message".
func (s *FlashStore) encode(f Flash) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(f.Category + "|" + f.Message))
	expires := strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)
	return strings.Join([]string{payload, expires, s.sign(payload, expires)}, ".")
}

func (s *FlashStore) decode(token string) (*Flash, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid flash format")
	}
	payload, expires, signature := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(s.sign(payload, expires)), []byte(signature)) {
		return nil, fmt.Errorf("invalid flash signature")
	}
	expUnix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid flash expiry")
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return nil, fmt.Errorf("flash expired")
	}
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode flash: %w", err)
	}
	category, message, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil, fmt.Errorf("invalid flash payload")
	}
	return &Flash{Category: category, Message: message}, nil
}

func (s *FlashStore) sign(payload, expires string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload + "|" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}
