package models

import (
	"encoding/json"
	"strings"
)

// PhotoRef — ссылки на фото ответа. В колонке photo_url исторически живут два
// формата: одиночный URL голой строкой и JSON-массив строк для нескольких
// фото. Декодируем один раз на границе, дальше работаем только с PhotoRef.
type PhotoRef struct {
	URLs []string
}

// ParsePhotoRef разбирает значение колонки photo_url
func ParsePhotoRef(value *string) PhotoRef {
	if value == nil {
		return PhotoRef{}
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return PhotoRef{}
	}
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			urls := make([]string, 0, len(arr))
			for _, u := range arr {
				if u != "" {
					urls = append(urls, u)
				}
			}
			return PhotoRef{URLs: urls}
		}
		// Невалидный JSON трактуем как одиночный URL
		return PhotoRef{URLs: []string{trimmed}}
	}
	return PhotoRef{URLs: []string{trimmed}}
}

// Encode сериализует ссылки обратно в колонку: одна — голой строкой,
// несколько — JSON-массивом, ни одной — NULL
func (r PhotoRef) Encode() *string {
	switch len(r.URLs) {
	case 0:
		return nil
	case 1:
		v := r.URLs[0]
		return &v
	default:
		raw, err := json.Marshal(r.URLs)
		if err != nil {
			return nil
		}
		v := string(raw)
		return &v
	}
}

// Empty сообщает, есть ли хоть одна ссылка
func (r PhotoRef) Empty() bool {
	return len(r.URLs) == 0
}
