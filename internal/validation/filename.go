package validation

import (
	"regexp"
	"strings"
)

// FilenameRegex — базовая проверка имени файла. Допускает Unicode,
// включая кириллицу в именах с телефона
var FilenameRegex = regexp.MustCompile(`^[^<>:"|?*\\]+$`)

// UnsafeFilenamePatterns содержит паттерны небезопасных имен файлов
var UnsafeFilenamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`[/\\]`),       // Слэши
	regexp.MustCompile(`\.\.`),        // Родительский каталог
	regexp.MustCompile(`^\.`),         // Скрытые файлы
	regexp.MustCompile(`\.$`),         // Точка в конце
	regexp.MustCompile(`^\s+|\s+$`),   // Пробелы по краям
	regexp.MustCompile(`[\x00-\x1f]`), // Контрольные символы
	// Исполняемые расширения фото не бывают
	regexp.MustCompile(`(?i)\.(exe|bat|cmd|com|sh|ps1|php|js|html?)$`),
}

const maxFilenameLength = 255

// IsValidFilename проверяет валидность имени файла
func IsValidFilename(filename string) bool {
	if filename == "" || len(filename) > maxFilenameLength {
		return false
	}
	if !FilenameRegex.MatchString(filename) {
		return false
	}
	for _, p := range UnsafeFilenamePatterns {
		if p.MatchString(filename) {
			return false
		}
	}
	return true
}

// ValidateFilename выполняет валидацию имени файла и возвращает ошибку
func ValidateFilename(filename string, fieldName string) error {
	if !IsValidFilename(filename) {
		return ValidationError{
			Field:   fieldName,
			Message: "is not a valid filename",
		}
	}
	return nil
}

// HasImageExtension проверяет расширение файла по списку форматов фото
func HasImageExtension(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
