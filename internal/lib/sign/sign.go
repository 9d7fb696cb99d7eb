// Package sign реализует подпись запросов и колбэков платёжного шлюза:
// HMAC-SHA256 в hex от канонической строки вида field=value, где пары
// склеены через "&", а поля отсортированы по имени. Обе стороны обязаны
// сериализовать поля одинаково, поэтому порядок детерминирован.
package sign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign возвращает hex-подпись канонической конкатенации полей.
func Sign(secret string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	raw := strings.Join(pairs, "&")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify сравнивает подпись с ожидаемой без утечки по времени сравнения.
func Verify(secret string, fields map[string]string, signature string) bool {
	expected := Sign(secret, fields)
	return hmac.Equal([]byte(expected), []byte(signature))
}
