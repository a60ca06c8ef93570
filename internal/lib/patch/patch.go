// Package patch реализует построитель частичных UPDATE-запросов.
//
// Обработчики кладут в Builder только присутствующие в запросе поля,
// хранилище выполняет один UPDATE, не трогая остальные колонки.
// Каждый запрос дополнительно обновляет updated_at.
package patch

import (
	"fmt"
	"strings"
)

// Builder накапливает пары колонка-значение для частичного обновления.
// Нулевое значение готово к использованию.
type Builder struct {
	columns []string
	args    []any
}

// Set добавляет колонку в обновление.
func (b *Builder) Set(column string, value any) {
	b.columns = append(b.columns, column)
	b.args = append(b.args, value)
}

// Empty сообщает, что ни одно поле не было добавлено.
func (b *Builder) Empty() bool {
	return len(b.columns) == 0
}

// SQL собирает UPDATE-запрос по ключу id и список аргументов к нему.
// returning задает список колонок для RETURNING; пустая строка — без него.
func (b *Builder) SQL(table string, id any, returning string) (string, []any) {
	sets := make([]string, 0, len(b.columns)+1)
	for i, col := range b.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		table, strings.Join(sets, ", "), len(b.columns)+1)
	if returning != "" {
		query += " RETURNING " + returning
	}
	return query, append(append([]any{}, b.args...), id)
}
