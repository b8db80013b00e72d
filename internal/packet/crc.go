package packet

// CRCPolynomial is the generator used by the controller firmware.
const CRCPolynomial = 0x07

// CRC8 computes the frame check byte over data, which must start at the tag.
//
// This is not the table-driven CRC-8 with the same polynomial: the first
// byte seeds the register unshifted, each following byte is shifted in MSB
// first, and eight zero bits are shifted through at the end.
func CRC8(data []byte) byte {
	if len(data) == 0 {
		return 0
	}

	crc := data[0]
	for _, c := range data[1:] {
		for i := 0; i < 8; i++ {
			carry := crc&0x80 != 0
			crc = crc<<1 | c>>7
			if carry {
				crc ^= CRCPolynomial
			}
			c <<= 1
		}
	}

	for i := 0; i < 8; i++ {
		carry := crc&0x80 != 0
		crc <<= 1
		if carry {
			crc ^= CRCPolynomial
		}
	}

	return crc
}
