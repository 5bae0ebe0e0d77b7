// Package ident нормализует идентификаторы записей.
//
// Одна и та же запись может одновременно нести числовой суррогатный id,
// нативный id документного хранилища (docId) и устаревшее поле _id.
// Все сравнения идентификаторов в кодовой базе обязаны проходить через
// Canonical/Equal — сырые поля никогда не сравниваются напрямую, потому
// что числовой 5, строка "5" и docId "5" обозначают одну и ту же запись.
package ident

import (
	"errors"
	"strconv"
)

// ErrUnresolvable возвращается, когда запись не несёт ни одного
// известного идентификатора. Такая запись не может быть целью мутации.
var ErrUnresolvable = errors.New("record carries no resolvable identifier")

// Имена полей-идентификаторов в порядке приоритета разрешения
const (
	FieldDocID  = "docId" // нативный ключ документного хранилища
	FieldID     = "id"    // числовой суррогатный ключ
	FieldLegacy = "_id"   // устаревший ключ
)

// Canonical возвращает каноническую строковую идентичность записи.
// Порядок разрешения: docId, затем id, затем _id.
func Canonical(fields map[string]any) (string, error) {
	for _, name := range [...]string{FieldDocID, FieldID, FieldLegacy} {
		if v, ok := fields[name]; ok {
			if s, ok := asString(v); ok {
				return s, nil
			}
		}
	}
	return "", ErrUnresolvable
}

// Equal сравнивает идентичности двух записей после приведения обеих
// сторон к канонической форме. Неразрешимая запись не равна ничему.
func Equal(a, b map[string]any) bool {
	ca, err := Canonical(a)
	if err != nil {
		return false
	}
	cb, err := Canonical(b)
	if err != nil {
		return false
	}
	return ca == cb
}

// Matches сообщает, обозначают ли поля записи идентичность id.
// id уже считается каноническим.
func Matches(fields map[string]any, id string) bool {
	c, err := Canonical(fields)
	if err != nil {
		return false
	}
	return c == id
}

// asString приводит значение поля-идентификатора к строке.
// JSON-декодер отдаёт числа как float64, поэтому целые значения
// форматируются без дробной части.
func asString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		if x == "" {
			return "", false
		}
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
}
