package sdes

import (
	"errors"

	"gosuda.org/sdes/sdes12"
)

const (
	// 12 bits per data block
	SDES_BLOCK_BITS = 12
	// 9 bits of master key
	SDES_KEY_BITS = 9

	// 4095
	SDES_MAX_BLOCK = 1<<SDES_BLOCK_BITS - 1
	// 511
	SDES_MAX_KEY = 1<<SDES_KEY_BITS - 1

	SDES_MIN_ROUNDS = 1
	SDES_MAX_ROUNDS = sdes12.MaxRounds
)

var (
	ErrInvalidKey    = errors.New("sdes: invalid key, key must be between 0 and 511")
	ErrInvalidRounds = errors.New("sdes: invalid rounds, rounds must be between 1 and 9")
	ErrInvalidBlock  = errors.New("sdes: invalid block, block must be between 0 and 4095")
	ErrInvalidID     = errors.New("sdes: invalid id")
	ErrShortBuffer   = errors.New("sdes: destination shorter than source")
)

// Codec encrypts 12-bit blocks under a fixed key and round count.
// It is immutable after construction and safe for concurrent use.
type Codec struct {
	rounds int
	block  *sdes12.SDES12
}

// NewCodec creates a codec.
//
// key is the 9-bit master key. (must be between 0 and 511)
// rounds is the number of Feistel rounds. (must be between 1 and 9)
func NewCodec(key uint16, rounds int) (*Codec, error) {
	if key > SDES_MAX_KEY {
		return nil, ErrInvalidKey
	}

	if rounds < SDES_MIN_ROUNDS || rounds > SDES_MAX_ROUNDS {
		return nil, ErrInvalidRounds
	}

	block, err := sdes12.NewSDES12(key, rounds)
	if err != nil {
		return nil, ErrInvalidRounds
	}

	return &Codec{
		rounds: rounds,
		block:  block,
	}, nil
}

func (c *Codec) Rounds() int {
	return c.rounds
}

// RoundKeys returns a copy of the round keys in encryption order.
func (c *Codec) RoundKeys() []uint8 {
	return c.block.RoundKeys()
}

// Encrypt encrypts a single 12-bit block.
func (c *Codec) Encrypt(block uint16) (uint16, error) {
	if block > SDES_MAX_BLOCK {
		return 0, ErrInvalidBlock
	}
	return c.block.EncryptBlock(block), nil
}

// Decrypt decrypts a single 12-bit block.
func (c *Codec) Decrypt(block uint16) (uint16, error) {
	if block > SDES_MAX_BLOCK {
		return 0, ErrInvalidBlock
	}
	return c.block.DecryptBlock(block), nil
}

// EncryptBlocks encrypts src into dst. Nothing is written unless every
// block in src is valid. dst and src may be the same slice.
func (c *Codec) EncryptBlocks(dst, src []uint16) error {
	if err := checkBlocks(dst, src); err != nil {
		return err
	}
	for i, x := range src {
		dst[i] = c.block.EncryptBlock(x)
	}
	return nil
}

// DecryptBlocks is the inverse of EncryptBlocks.
func (c *Codec) DecryptBlocks(dst, src []uint16) error {
	if err := checkBlocks(dst, src); err != nil {
		return err
	}
	for i, x := range src {
		dst[i] = c.block.DecryptBlock(x)
	}
	return nil
}

func checkBlocks(dst, src []uint16) error {
	if len(dst) < len(src) {
		return ErrShortBuffer
	}
	for _, x := range src {
		if x > SDES_MAX_BLOCK {
			return ErrInvalidBlock
		}
	}
	return nil
}

// EncryptString encrypts a block and returns it as a base32hex string.
func (c *Codec) EncryptString(block uint16) (string, error) {
	x, err := c.Encrypt(block)
	if err != nil {
		return "", err
	}
	return base32hexencode(x), nil
}

// DecryptString decodes a base32hex ciphertext and decrypts it.
func (c *Codec) DecryptString(id string) (uint16, error) {
	x, err := DecodeString(id)
	if err != nil {
		return 0, err
	}
	return c.Decrypt(x)
}

const b32hexchars = "0123456789abcdefghijklmnopqrstuv"

func base32hexencode(num uint16) string {
	if num == 0 {
		return "0"
	}

	var encoded [4]byte
	idx := 3
	for num > 0 {
		encoded[idx] = b32hexchars[num&0x1f]
		num >>= 5
		idx--
	}

	return string(encoded[idx+1:])
}

func base32hexdecode(s string) (uint16, error) {
	if len(s) == 0 {
		return 0, ErrInvalidID
	}

	var num uint32
	for i, c := range s {
		if c == '=' {
			if i == 0 {
				return 0, ErrInvalidID
			}
			break
		}

		num <<= 5
		if c >= '0' && c <= '9' {
			num += uint32(c - '0')
		} else if c >= 'a' && c <= 'v' {
			num += uint32(c - 'a' + 10)
		} else if c >= 'A' && c <= 'V' {
			num += uint32(c - 'A' + 10)
		} else {
			return 0, ErrInvalidID
		}

		if num > SDES_MAX_BLOCK {
			return 0, ErrInvalidBlock
		}
	}
	return uint16(num), nil
}

// EncodeString renders a block as lowercase base32hex.
func EncodeString(block uint16) string {
	return base32hexencode(block)
}

// DecodeString parses a base32hex block, accepting either case.
func DecodeString(s string) (uint16, error) {
	return base32hexdecode(s)
}
