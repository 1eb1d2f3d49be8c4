package protocol

import (
	"bytes"
	"testing"

	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte{0x00, 0x00, 0x5A} // ROTATE_RIGHT, 90 градусов
	raw := EncodeFrame(MsgRotate, payload)

	frame, err := DecodeFrame(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, MsgRotate, frame.MsgType)
	require.Equal(t, payload, frame.Payload)
}

func TestFrameCorruptedCRCRejectedBeforeUse(t *testing.T) {
	raw := EncodeFrame(MsgStatus, []byte{StatusSuccess})
	raw[len(raw)-1] ^= 0xFF // Портим последний байт CRC

	frame, err := DecodeFrame(bytes.NewReader(raw))
	require.Nil(t, frame, "кадр с неверной CRC не должен разбираться даже частично")
	require.ErrorIs(t, err, apperrors.ErrCRCMismatch)
}

func TestFrameSyncScanSkipsGarbage(t *testing.T) {
	raw := EncodeFrame(MsgStatus, []byte{StatusSuccess})
	noisy := append([]byte{0x01, 0x02, 0x13}, raw...)

	frame, err := DecodeFrame(bytes.NewReader(noisy))
	require.NoError(t, err)
	require.Equal(t, MsgStatus, frame.MsgType)
}

func TestFrameTruncatedBody(t *testing.T) {
	raw := EncodeFrame(MsgStatus, []byte{StatusSuccess})
	_, err := DecodeFrame(bytes.NewReader(raw[:len(raw)-3]))
	require.Error(t, err)
}

func TestFrameAbsurdLengthRejected(t *testing.T) {
	raw := EncodeFrame(MsgStatus, []byte{StatusSuccess})
	raw[4] = 0x7F // length -> 0x7F01, больше любого допустимого payload
	raw[5] = 0x01

	_, err := DecodeFrame(bytes.NewReader(raw))
	require.ErrorIs(t, err, apperrors.ErrUnexpectedResponse)
}
