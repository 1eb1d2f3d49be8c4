package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sigurn/crc16"
	apperrors "github.com/sprigga/WebPDTool-sub005/pkg/errors"
)

// Формат кадра поворотной станины:
//
//	[sync(4)] [length(2, BE)] [msg_type(2, BE)] [payload] [crc16_kermit(2, LE)]
//
// length - число байт payload. CRC считается по length+msg_type+payload,
// sync в контрольную сумму не входит.
var frameSync = []byte{0xAA, 0x55, 0xAA, 0x55}

const (
	MsgRotate uint16 = 0x0001
	MsgStatus uint16 = 0x0002
)

// Коды статуса в ответном кадре MsgStatus.
const (
	StatusSuccess  byte = 0x00
	StatusBusy     byte = 0x01
	StatusHWFault  byte = 0x02
	StatusBadAngle byte = 0x03
)

// Максимальный размер payload; защищает чтение от мусорного поля длины.
const maxPayloadLen = 512

var kermitTable = crc16.MakeTable(crc16.CRC16_KERMIT)

// Frame - разобранный входящий кадр. Создается только после успешной
// проверки CRC; кадр с неверной суммой никогда не разбирается частично.
type Frame struct {
	MsgType uint16
	Payload []byte
}

// EncodeFrame собирает кадр с заголовком, длиной и CRC16/Kermit.
func EncodeFrame(msgType uint16, payload []byte) []byte {
	body := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint16(body[0:2], uint16(len(payload)))
	binary.BigEndian.PutUint16(body[2:4], msgType)
	copy(body[4:], payload)

	sum := crc16.Checksum(body, kermitTable)

	var buf bytes.Buffer
	buf.Write(frameSync)
	buf.Write(body)
	crcBytes := make([]byte, 2)
	binary.LittleEndian.PutUint16(crcBytes, sum)
	buf.Write(crcBytes)
	return buf.Bytes()
}

// DecodeFrame читает один кадр из потока: находит sync-слово, читает
// заголовок и payload, проверяет CRC. При несовпадении суммы кадр
// отбрасывается целиком и возвращается ErrCRCMismatch.
func DecodeFrame(r io.Reader) (*Frame, error) {
	if err := scanSync(r); err != nil {
		return nil, err
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("frame header read: %w", err)
	}
	length := binary.BigEndian.Uint16(header[0:2])
	msgType := binary.BigEndian.Uint16(header[2:4])
	if length > maxPayloadLen {
		return nil, fmt.Errorf("%w: declared payload length %d", apperrors.ErrUnexpectedResponse, length)
	}

	rest := make([]byte, int(length)+2)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("frame body read: %w", err)
	}
	payload := rest[:length]
	gotCRC := binary.LittleEndian.Uint16(rest[length:])

	body := make([]byte, 0, 4+len(payload))
	body = append(body, header...)
	body = append(body, payload...)
	if crc16.Checksum(body, kermitTable) != gotCRC {
		return nil, fmt.Errorf("%w: msg_type=0x%04x", apperrors.ErrCRCMismatch, msgType)
	}

	return &Frame{MsgType: msgType, Payload: append([]byte(nil), payload...)}, nil
}

// scanSync продвигает поток до конца sync-слова. Ограничен по числу
// прочитанных байт, чтобы не зависнуть на потоке мусора.
func scanSync(r io.Reader) error {
	matched := 0
	buf := make([]byte, 1)
	for scanned := 0; scanned < maxPayloadLen; scanned++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("frame sync read: %w", err)
		}
		if buf[0] == frameSync[matched] {
			matched++
			if matched == len(frameSync) {
				return nil
			}
		} else if buf[0] == frameSync[0] {
			matched = 1
		} else {
			matched = 0
		}
	}
	return fmt.Errorf("%w: sync word not found", apperrors.ErrUnexpectedResponse)
}
