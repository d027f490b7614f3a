package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kurshub/miniapp-backend/internal/apperrors"
)

// WebAppUser — пользователь из initData Telegram Mini App
type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
}

// MaxInitDataAge — initData старше этого возраста отклоняется
const MaxInitDataAge = 24 * time.Hour

// VerifyInitData проверяет подпись initData из Telegram WebApp и возвращает
// пользователя. Алгоритм Bot API: secret = HMAC_SHA256("WebAppData", botToken),
// подпись = hex(HMAC_SHA256(secret, data_check_string)), где data_check_string —
// отсортированные пары key=value без hash, соединённые "\n".
func VerifyInitData(initData, botToken string, now time.Time) (*WebAppUser, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, apperrors.ErrInvalidInitData
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return nil, apperrors.ErrInvalidInitData
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	calc := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(calc), []byte(gotHash)) {
		return nil, apperrors.ErrInvalidInitData
	}

	if authDate := values.Get("auth_date"); authDate != "" {
		ts, err := strconv.ParseInt(authDate, 10, 64)
		if err != nil {
			return nil, apperrors.ErrInvalidInitData
		}
		if now.Sub(time.Unix(ts, 0)) > MaxInitDataAge {
			return nil, apperrors.ErrInitDataExpired
		}
	}

	userJSON := values.Get("user")
	if userJSON == "" {
		return nil, apperrors.ErrInvalidInitData
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return nil, fmt.Errorf("%w: bad user payload", apperrors.ErrInvalidInitData)
	}
	if user.ID == 0 {
		return nil, apperrors.ErrInvalidInitData
	}

	return &user, nil
}

// SignInitData подписывает произвольный initData-подобный набор параметров.
// Используется в тестах для генерации валидных подписей.
func SignInitData(values url.Values, botToken string) string {
	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
