package models

// OpResult хранит результат уже выполненной мутации в журнале
// идемпотентности сервера. Повторное проигрывание операции с тем же
// opId получает сохранённые статус и тело вместо повторного исполнения.
type OpResult struct {
	Body   []byte // сериализованное JSON-тело ответа
	Status int    // HTTP статус исходного ответа
}
