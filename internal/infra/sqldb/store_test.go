package sqldb

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBind(t *testing.T) {
	q := `UPDATE t SET a = ?, b = ? WHERE id = ?`

	question := New(nil, Question, zerolog.Nop())
	assert.Equal(t, q, question.bind(q))

	dollar := New(nil, Dollar, zerolog.Nop())
	assert.Equal(t, `UPDATE t SET a = $1, b = $2 WHERE id = $3`, dollar.bind(q))
}
