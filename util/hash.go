package util

import "crypto/sha1"

func CalcHash(b []byte) [20]byte {
	return sha1.Sum(b)
}
