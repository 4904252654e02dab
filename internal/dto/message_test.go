package dto_test

import (
	"testing"

	"collaborative-whiteboard/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	frame, err := dto.Encode(dto.EventUserLeft, dto.UserLeftPayload{UserID: "conn-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"user-left","data":{"userId":"conn-1"}}`, string(frame))

	frame, err = dto.Encode(dto.EventCanvasClear, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"canvas:clear"}`, string(frame))
}

func TestDecode(t *testing.T) {
	env, err := dto.Decode([]byte(`{"event":"join-room","data":{"roomId":"ab12cd","password":"X","userData":{"name":"Bob","userId":"u1"}}}`))
	require.NoError(t, err)
	assert.Equal(t, dto.EventJoinRoom, env.Event)

	var payload dto.JoinRoomPayload
	require.NoError(t, env.DecodeData(&payload))
	assert.Equal(t, "ab12cd", payload.RoomID)
	assert.Equal(t, "u1", payload.UserData.UserID)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := dto.Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = dto.Decode([]byte(`{"data":{}}`))
	assert.Error(t, err, "an envelope needs an event name")
}

func TestDecodeData_MissingAndMalformed(t *testing.T) {
	env, err := dto.Decode([]byte(`{"event":"canvas:clear","data":null}`))
	require.NoError(t, err)
	payload := dto.ThemePayload{Theme: "keep"}
	require.NoError(t, env.DecodeData(&payload))
	assert.Equal(t, "keep", payload.Theme)

	env, err = dto.Decode([]byte(`{"event":"theme-change","data":"light"}`))
	require.NoError(t, err)
	assert.Error(t, env.DecodeData(&payload))
}

func TestThemePayload_OptionalColor(t *testing.T) {
	env, err := dto.Decode([]byte(`{"event":"theme-change","data":{"theme":"light"}}`))
	require.NoError(t, err)
	var payload dto.ThemePayload
	require.NoError(t, env.DecodeData(&payload))
	assert.Nil(t, payload.Color)

	env, err = dto.Decode([]byte(`{"event":"theme-change","data":{"theme":"light","color":"#fff"}}`))
	require.NoError(t, err)
	require.NoError(t, env.DecodeData(&payload))
	require.NotNil(t, payload.Color)
	assert.Equal(t, "#fff", *payload.Color)
}

func TestEncode_LeavesHTMLUnescaped(t *testing.T) {
	frame, err := dto.Encode(dto.EventError, dto.ErrorPayload{Message: "<b>&</b>"})
	require.NoError(t, err)
	assert.Equal(t, `{"event":"error","data":{"message":"<b>&</b>"}}`, string(frame))
}

func TestEncodeRaw(t *testing.T) {
	data := []byte(`{"object":{"id":"a1", "fill":"<red>"}}`)
	frame, err := dto.EncodeRaw(dto.EventObjectAdded, data)
	require.NoError(t, err)
	assert.Equal(t, `{"event":"canvas:object:added","data":`+string(data)+`}`, string(frame))

	env, err := dto.Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(env.Data))

	frame, err = dto.EncodeRaw(dto.EventCanvasClear, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"event":"canvas:clear"}`, string(frame))
}
