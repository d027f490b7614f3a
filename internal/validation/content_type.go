package validation

import "strings"

// ImageContentTypes содержит список разрешенных Content-Type для фото ответа
var ImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/heic": true,
}

// IsImageContentType проверяет, что Content-Type относится к изображениям
func IsImageContentType(contentType string) bool {
	if contentType == "" {
		return false
	}

	// Нормализация Content-Type
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(contentType, ';'); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}

	return ImageContentTypes[contentType]
}

// ValidateImageContentType выполняет валидацию Content-Type и возвращает ошибку
func ValidateImageContentType(contentType string, fieldName string) error {
	if !IsImageContentType(contentType) {
		return ValidationError{
			Field:   fieldName,
			Message: "is not a supported image type",
		}
	}
	return nil
}
