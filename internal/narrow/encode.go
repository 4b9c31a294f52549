// Package narrow кодирует имена каналов для URL-фрагментов narrow-ссылок.
//
// Фрагмент после # не проходит обычное percent-декодирование на клиенте,
// поэтому вместо '%' используется '.' как управляющий символ. Точка сама
// кодируется, что делает преобразование обратимым.
package narrow

import (
	"fmt"
	"strings"
)

// Encode возвращает URL-безопасное представление имени канала.
func Encode(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, ".%02X", c)
	}
	return b.String()
}

// Decode восстанавливает исходное имя канала. Возвращает ошибку,
// если последовательность после '.' не является двумя hex-символами.
func Decode(encoded string) (string, error) {
	var b strings.Builder
	b.Grow(len(encoded))
	for i := 0; i < len(encoded); i++ {
		c := encoded[i]
		if c != '.' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(encoded) {
			return "", fmt.Errorf("narrow: обрезанная последовательность в %q", encoded)
		}
		hi, ok1 := fromHex(encoded[i+1])
		lo, ok2 := fromHex(encoded[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("narrow: некорректная hex-пара %q", encoded[i:i+3])
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}
