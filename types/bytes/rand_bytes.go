package bytes

import (
	tmrand "github.com/tendermint/tendermint/libs/rand"
)

func RandBytes(n int) []byte {
	return tmrand.Bytes(n)
}

func ZeroBytes(n int) []byte {
	return make([]byte, n)
}

func RandHexBytes(n int) HexBytes {
	return HexBytes(RandBytes(n))
}
