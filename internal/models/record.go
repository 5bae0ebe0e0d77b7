package models

import "time"

// Record представляет экземпляр ресурса внутри именованной коллекции
// (например "projects" или "services"). Fields содержит произвольные
// поля записи, включая её идентификаторы; флаги ниже существуют только
// на клиенте и никогда не отправляются на сервер.
type Record struct {
	LocalTimestamp time.Time      // момент локального создания/изменения
	Fields         map[string]any // полезная нагрузка записи
	Collection     string         // имя коллекции-владельца
	TempID         string         // корреляционный токен оптимистичной записи
	IsOptimistic   bool           // true пока запись не подтверждена сервером
	IsSyncing      bool           // true пока обновление в полёте
	PendingSync    bool           // true если операция ждёт в offline-очереди
}

// TempIDField имя служебного поля, в котором оптимистичная запись несёт
// свой временный id. Поле сохраняется в Fields, чтобы подтверждение
// сервера или событие change feed можно было сопоставить с локальной
// записью даже после смены канонического id.
const TempIDField = "_tempId"

// Clone создает глубокую копию записи (поля копируются на один уровень;
// вложенные значения записи считаются неизменяемыми после создания)
func (r *Record) Clone() *Record {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return &Record{
		Collection:     r.Collection,
		Fields:         fields,
		TempID:         r.TempID,
		IsOptimistic:   r.IsOptimistic,
		IsSyncing:      r.IsSyncing,
		PendingSync:    r.PendingSync,
		LocalTimestamp: r.LocalTimestamp,
	}
}
