package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetMessageFillsPlaceholders(t *testing.T) {
	size := &Size{}
	require.NoError(t, size.SetMessage(MsgSizeViolated, "{size_bytes} is not {mode} {threshold_bytes}"))
	require.NoError(t, size.Configure("< 10"))
	ok, msgs := size.Evaluate(subject{size: 20})
	assert.False(t, ok)
	assert.Equal(t, []string{"20 is not less than 10"}, msgs)

	typ := &Type{}
	require.NoError(t, typ.SetMessage(MsgTypeMustContain, "{type} lacks {value}"))
	require.NoError(t, typ.Configure("~ image"))
	_, msgs = typ.Evaluate(subject{mime: "text/plain"})
	assert.Equal(t, []string{"text/plain lacks image"}, msgs)

	img := &Image{}
	require.NoError(t, img.SetMessage(MsgFileIsNotImage, "{name} is no picture"))
	require.NoError(t, img.Configure("is"))
	_, msgs = img.Evaluate(subject{name: "notes.txt"})
	assert.Equal(t, []string{"notes.txt is no picture"}, msgs)

	mt := &MimeType{}
	require.NoError(t, mt.SetMessage(MsgInvalidFileType, "nope: {type}"))
	require.NoError(t, mt.Configure("image/png"))
	_, msgs = mt.Evaluate(subject{mime: "image/gif"})
	assert.Equal(t, []string{"nope: image/gif"}, msgs)
}

func TestSetMessageSurvivesReconfigure(t *testing.T) {
	c := &Image{}
	require.NoError(t, c.SetMessage(MsgFileIsImage, "no images please"))
	require.NoError(t, c.Configure("is"))
	require.NoError(t, c.Configure("is not"))

	_, msgs := c.Evaluate(subject{name: "a.png"})
	assert.Equal(t, []string{"no images please"}, msgs)
}

func TestSetMessageRejectsUnknownKeys(t *testing.T) {
	c := &Size{}
	assert.ErrorIs(t, c.SetMessage(MsgFileIsNotImage, "x"), ErrUnknownMessage)
	assert.ErrorIs(t, c.SetMessage(MsgSizeViolated, "  "), ErrUnknownMessage)

	require.NoError(t, c.Configure("< 10"))
	_, msgs := c.Evaluate(subject{size: 20})
	assert.Contains(t, msgs[0], "must be less than")
}

func TestApplyMessages(t *testing.T) {
	r := NewRegistry()
	c, err := r.Build("type", "!= text/html")
	require.NoError(t, err)

	require.NoError(t, ApplyMessages(c, map[string]string{MsgTypeNotAllowed: "{type} is blocked"}))
	_, msgs := c.Evaluate(subject{mime: "text/html"})
	assert.Equal(t, []string{"text/html is blocked"}, msgs)

	assert.ErrorIs(t, ApplyMessages(c, map[string]string{"bogus": "x"}), ErrUnknownMessage)
	assert.NoError(t, ApplyMessages(c, nil))

	assert.Equal(t, []string{MsgFileIsNotImage, MsgFileIsImage}, MessageKeys(KindImage))
	assert.Empty(t, MessageKeys("nope"))
}
