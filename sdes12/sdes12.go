package sdes12

import (
	"crypto/cipher"
	"errors"
)

const (
	// MaxRounds is the largest round count the key schedule can serve.
	MaxRounds = 9
	// BlockSize is the cipher.Block unit: two 12-bit blocks in 3 bytes.
	BlockSize = 3
)

const (
	_HALF_BITS  = 6
	_HALF_MASK  = 0x3f
	_BLOCK_MASK = 0xfff
	_KEY_MASK   = 0x1ff

	// key schedule windows, shifted right by the round index
	_MASTER_MASK uint16 = 0x1fe
	_LEFT_MASK   uint16 = 0xfc00
)

var (
	ErrTooManyRounds = errors.New("sdes12: too many rounds, the key schedule yields at most 9 round keys")
	ErrInvalidRounds = errors.New("sdes12: invalid rounds, rounds must be between 1 and 9")
)

// S-boxes, 4-bit index to 3-bit value. Never written.
var (
	s1Box = [16]uint8{5, 2, 1, 6, 3, 4, 7, 0, 1, 4, 6, 2, 0, 7, 5, 3}
	s2Box = [16]uint8{4, 0, 6, 5, 7, 1, 3, 2, 5, 3, 0, 7, 6, 2, 1, 4}
)

// expand widens a 6-bit half-block to 8 bits: b5 b4 b3 b2 b1 b0 becomes
// b5 b4 b3 b2 b3 b2 b1 b0.
func expand(x uint8) uint8 {
	return x&0x03 |
		(x&0x30)<<2 |
		(x&0x08)>>1 | (x&0x08)<<1 |
		(x&0x04)<<3 | (x&0x04)<<1
}

// confuse maps each nibble through its S-box and joins the two 3-bit results.
func confuse(x uint8) uint8 {
	return s1Box[x>>4]<<3 | s2Box[x&0x0f]
}

// feistel is the round function F(R, K).
func feistel(x, key uint8) uint8 {
	return confuse(expand(x) ^ key)
}

// feistelRound maps (L, R) to (R, L ^ F(R, K)).
func feistelRound(x uint16, key uint8) uint16 {
	r := uint8(x & _HALF_MASK)
	l := uint8((x >> _HALF_BITS) & _HALF_MASK)
	return uint16(r)<<_HALF_BITS | uint16(l^feistel(r, key))
}

func swapHalves(x uint16) uint16 {
	return (x&_HALF_MASK)<<_HALF_BITS | (x>>_HALF_BITS)&_HALF_MASK
}

// GenerateRoundKeys derives numRounds round keys from the low 9 bits of
// masterKey. Each key is a sliding window over the master key bits,
// truncated to a byte.
func GenerateRoundKeys(masterKey uint16, numRounds uint) ([]uint8, error) {
	if numRounds > MaxRounds {
		return nil, ErrTooManyRounds
	}

	roundKeys := make([]uint8, numRounds)
	keySchedule(roundKeys, masterKey)
	return roundKeys, nil
}

func keySchedule(roundKeys []uint8, masterKey uint16) {
	for i := range roundKeys {
		r := (_MASTER_MASK >> i) & masterKey
		l := (_LEFT_MASK >> i) & masterKey

		if i == 0 {
			roundKeys[i] = uint8(r >> 1)
		} else {
			roundKeys[i] = uint8(l>>(10-i) | r<<(i-1))
		}
	}
}

func checkRounds(roundKeys []uint8, numRounds int) {
	if numRounds > len(roundKeys) {
		panic("sdes12: numRounds exceeds the number of round keys")
	}
}

// Encrypt runs numRounds Feistel rounds over the 12-bit plaintext using
// roundKeys[0..numRounds-1] in order, then swaps the halves.
// roundKeys is not modified.
func Encrypt(plaintext uint16, roundKeys []uint8, numRounds int) uint16 {
	checkRounds(roundKeys, numRounds)

	x := plaintext & _BLOCK_MASK
	for i := 0; i < numRounds; i++ {
		x = feistelRound(x, roundKeys[i])
	}
	return swapHalves(x)
}

// Decrypt is Encrypt with the round keys applied in reverse order.
func Decrypt(ciphertext uint16, roundKeys []uint8, numRounds int) uint16 {
	checkRounds(roundKeys, numRounds)

	x := ciphertext & _BLOCK_MASK
	for i := numRounds - 1; i >= 0; i-- {
		x = feistelRound(x, roundKeys[i])
	}
	return swapHalves(x)
}

type SDES12 struct {
	roundKeys [MaxRounds]uint8
	rounds    int
}

// NewSDES12 returns a cipher keyed with the low 9 bits of key.
func NewSDES12(key uint16, rounds int) (*SDES12, error) {
	if rounds < 1 || rounds > MaxRounds {
		return nil, ErrInvalidRounds
	}

	var s SDES12
	s.rounds = rounds
	keySchedule(s.roundKeys[:rounds], key&_KEY_MASK)
	return &s, nil
}

func (s *SDES12) Rounds() int {
	return s.rounds
}

// RoundKeys returns a copy of the round keys in encryption order.
func (s *SDES12) RoundKeys() []uint8 {
	keys := make([]uint8, s.rounds)
	copy(keys, s.roundKeys[:s.rounds])
	return keys
}

func (s *SDES12) EncryptBlock(x uint16) uint16 {
	return Encrypt(x, s.roundKeys[:s.rounds], s.rounds)
}

func (s *SDES12) DecryptBlock(x uint16) uint16 {
	return Decrypt(x, s.roundKeys[:s.rounds], s.rounds)
}

func unpack(src []byte) (uint16, uint16) {
	_ = src[2]
	x0 := uint16(src[0])<<4 | uint16(src[1])>>4
	x1 := uint16(src[1]&0x0f)<<8 | uint16(src[2])
	return x0, x1
}

func pack(dst []byte, x0, x1 uint16) {
	_ = dst[2]
	dst[0] = byte(x0 >> 4)
	dst[1] = byte(x0<<4) | byte(x1>>8)&0x0f
	dst[2] = byte(x1)
}

// Encrypt encrypts the two big-endian 12-bit blocks held in src[0:3].
// dst and src may overlap entirely.
func (s *SDES12) Encrypt(dst, src []byte) {
	if len(src) < BlockSize || len(dst) < BlockSize {
		panic("sdes12: src and dst must be at least 3 bytes (two 12-bit blocks)")
	}

	x0, x1 := unpack(src)
	pack(dst, s.EncryptBlock(x0), s.EncryptBlock(x1))
}

func (s *SDES12) Decrypt(dst, src []byte) {
	if len(src) < BlockSize || len(dst) < BlockSize {
		panic("sdes12: src and dst must be at least 3 bytes (two 12-bit blocks)")
	}

	x0, x1 := unpack(src)
	pack(dst, s.DecryptBlock(x0), s.DecryptBlock(x1))
}

func (s *SDES12) BlockSize() int {
	return BlockSize
}

func (s *SDES12) Destroy() {
	for i := range s.roundKeys {
		s.roundKeys[i] = 0
	}
}

var _ cipher.Block = (*SDES12)(nil)
