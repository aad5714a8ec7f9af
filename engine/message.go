package engine

import "encoding/binary"

// MessageLength is the size of the signed payload: u64 magnitude + direction byte.
const MessageLength = 9

// EncodeMovement builds the byte string the authority signs. The layout
// matches the BCS encoding of (u64, bool).
func EncodeMovement(magnitude uint64, increase bool) []byte {
	msg := make([]byte, MessageLength)
	binary.LittleEndian.PutUint64(msg[:8], magnitude)
	if increase {
		msg[8] = 1
	}
	return msg
}

func (c RateMovementClaim) Message() []byte {
	return EncodeMovement(c.Magnitude, c.Increase)
}
