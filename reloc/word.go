package reloc

import "encoding/binary"

func readWord(data []byte, offset int, order binary.ByteOrder) uint32 {
	return order.Uint32(data[offset : offset+4])
}

func writeWord(data []byte, offset int, order binary.ByteOrder, v uint32) {
	order.PutUint32(data[offset:offset+4], v)
}
