package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	initDataMaxAge   = time.Hour
	initDataMaxSkew  = 5 * time.Minute
	MaxInitDataBytes = 4096
)

// TelegramUser is the "user" object embedded in WebApp init_data.
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// ValidateTelegramInitData verifies the init_data HMAC against the bot token
// and rejects data whose auth_date is older than an hour.
func ValidateTelegramInitData(initData, botToken string) (url.Values, bool) {
	return validateInitDataAt(initData, botToken, time.Now())
}

func validateInitDataAt(initData, botToken string, now time.Time) (url.Values, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, false
	}

	hash := values.Get("hash")
	if hash == "" {
		return nil, false
	}
	values.Del("hash")

	provided, err := hex.DecodeString(hash)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(initDataSignature(values, botToken), provided) {
		return nil, false
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, false
	}
	age := now.Sub(time.Unix(authDate, 0))
	if age > initDataMaxAge || age < -initDataMaxSkew {
		return nil, false
	}

	return values, true
}

// initDataSignature is HMAC-SHA256 over the sorted "key=value" lines, keyed
// with sha256(botToken).
func initDataSignature(values url.Values, botToken string) []byte {
	lines := make([]string, 0, len(values))
	for k, v := range values {
		lines = append(lines, k+"="+strings.Join(v, ""))
	}
	sort.Strings(lines)

	secret := sha256.Sum256([]byte(botToken))
	h := hmac.New(sha256.New, secret[:])
	h.Write([]byte(strings.Join(lines, "\n")))
	return h.Sum(nil)
}

// ParseTelegramUser decodes the user object from validated init_data values.
func ParseTelegramUser(values url.Values) (*TelegramUser, error) {
	raw := values.Get("user")
	if raw == "" {
		return nil, errors.New("user not found in init data")
	}
	var u TelegramUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, errors.New("user id missing in init data")
	}
	return &u, nil
}
