package logger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsrun/jsengine/internal/logger"
)

func TestDeferLogCollectsMessages(t *testing.T) {
	log := logger.NewDeferLog()
	assert.False(t, log.HasErrors())

	log.AddMsg(logger.Msg{Kind: logger.Warning, Data: logger.MsgData{Text: "a warning"}})
	assert.False(t, log.HasErrors())

	log.AddMsg(logger.Msg{Kind: logger.Error, Data: logger.MsgData{Text: "an error"}})
	assert.True(t, log.HasErrors())

	msgs := log.Done()
	if assert.Len(t, msgs, 2) {
		texts := []string{msgs[0].Data.Text, msgs[1].Data.Text}
		assert.ElementsMatch(t, []string{"a warning", "an error"}, texts)
	}
}

func TestDeferLogSortsByLocation(t *testing.T) {
	log := logger.NewDeferLog()
	log.AddMsg(logger.Msg{Kind: logger.Error, Data: logger.MsgData{
		Text:     "second",
		Location: &logger.MsgLocation{File: "b.js", Line: 1},
	}})
	log.AddMsg(logger.Msg{Kind: logger.Error, Data: logger.MsgData{
		Text:     "first",
		Location: &logger.MsgLocation{File: "a.js", Line: 1},
	}})

	msgs := log.Done()
	if assert.Len(t, msgs, 2) {
		assert.Equal(t, "first", msgs[0].Data.Text)
		assert.Equal(t, "second", msgs[1].Data.Text)
	}
}

func TestMsgKindString(t *testing.T) {
	assert.Equal(t, "error", logger.Error.String())
	assert.Equal(t, "warning", logger.Warning.String())
	assert.Equal(t, "note", logger.Note.String())
}
