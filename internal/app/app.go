package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gosuda.org/sdes"
	"gosuda.org/sdes/internal/config"
	"gosuda.org/sdes/internal/log"
)

// App struct
type App struct {
	Config *config.AppConfig
	Log    *logrus.Entry
	Out    io.Writer
}

// Options carries command line overrides. Zero values fall back to the user config.
type Options struct {
	Key    string
	Rounds int
	Format string
}

type settings struct {
	key    uint16
	rounds int
	format string
}

// NewApp bootstrap a new application
func NewApp(config *config.AppConfig, out io.Writer) *App {
	return &App{
		Config: config,
		Log:    log.NewLogger(config),
		Out:    out,
	}
}

// WrapError wraps an error for the sake of showing a stack trace at the top level
func WrapError(err error) error {
	if err == nil {
		return err
	}

	return errors.Wrap(err, 0)
}

func (app *App) resolve(opts Options) (settings, error) {
	uc := *app.Config.UserConfig
	if opts.Key != "" {
		key, err := ParseKey(opts.Key)
		if err != nil {
			return settings{}, err
		}
		uc.Key = key
	}
	if opts.Rounds != 0 {
		uc.Rounds = opts.Rounds
	}
	if opts.Format != "" {
		uc.Format = opts.Format
	}

	if err := uc.Validate(); err != nil {
		return settings{}, err
	}
	return settings{key: uc.Key, rounds: uc.Rounds, format: uc.Format}, nil
}

func (app *App) codec(opts Options) (*sdes.Codec, settings, error) {
	s, err := app.resolve(opts)
	if err != nil {
		return nil, s, err
	}

	codec, err := sdes.NewCodec(s.key, s.rounds)
	if err != nil {
		return nil, s, WrapError(err)
	}
	return codec, s, nil
}

// Keys prints the round keys derived from the master key, one per line
func (app *App) Keys(opts Options) error {
	codec, s, err := app.codec(opts)
	if err != nil {
		return err
	}

	app.Log.WithFields(logrus.Fields{
		"command": "keys",
		"rounds":  s.rounds,
	}).Info("generating round keys")

	lines := lo.Map(codec.RoundKeys(), func(k uint8, i int) string {
		return fmt.Sprintf("%d: 0x%02x %08b", i+1, k, k)
	})
	return app.println(lines)
}

// Encrypt prints the ciphertext of each block
func (app *App) Encrypt(opts Options, blocks []string) error {
	return app.transform("encrypt", opts, blocks, (*sdes.Codec).EncryptBlocks)
}

// Decrypt prints the plaintext of each block
func (app *App) Decrypt(opts Options, blocks []string) error {
	return app.transform("decrypt", opts, blocks, (*sdes.Codec).DecryptBlocks)
}

func (app *App) transform(command string, opts Options, blocks []string, fn func(*sdes.Codec, []uint16, []uint16) error) error {
	codec, s, err := app.codec(opts)
	if err != nil {
		return err
	}

	src, err := ParseBlocks(blocks, s.format)
	if err != nil {
		return err
	}

	app.Log.WithFields(logrus.Fields{
		"command": command,
		"rounds":  s.rounds,
		"blocks":  len(src),
		"format":  s.format,
	}).Info("transforming blocks")

	dst := make([]uint16, len(src))
	if err := fn(codec, dst, src); err != nil {
		return WrapError(err)
	}

	return app.println(lo.Map(dst, func(x uint16, _ int) string {
		return FormatBlock(x, s.format)
	}))
}

// Encode prints each integer block as base32hex
func (app *App) Encode(blocks []string) error {
	src, err := ParseBlocks(blocks, config.FormatHex)
	if err != nil {
		return err
	}
	return app.println(lo.Map(src, func(x uint16, _ int) string {
		return sdes.EncodeString(x)
	}))
}

// Decode prints each base32hex block in the configured format, b32 aside
func (app *App) Decode(ids []string) error {
	src, err := ParseBlocks(ids, config.FormatB32)
	if err != nil {
		return err
	}

	format := app.Config.UserConfig.Format
	if format == config.FormatB32 {
		format = config.FormatHex
	}
	return app.println(lo.Map(src, func(x uint16, _ int) string {
		return FormatBlock(x, format)
	}))
}

func (app *App) println(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(app.Out, strings.Join(lines, "\n"))
	return WrapError(err)
}

// ParseKey reads a master key written as a Go integer literal
func ParseKey(s string) (uint16, error) {
	key, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, errors.Errorf("invalid key %q: %v", s, err)
	}
	if key > sdes.SDES_MAX_KEY {
		return 0, WrapError(sdes.ErrInvalidKey)
	}
	return uint16(key), nil
}

// ParseBlock reads a block as base32hex for the b32 format and as a Go
// integer literal otherwise
func ParseBlock(s string, format string) (uint16, error) {
	if format == config.FormatB32 {
		x, err := sdes.DecodeString(s)
		if err != nil {
			return 0, WrapError(err)
		}
		return x, nil
	}

	x, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, errors.Errorf("invalid block %q: %v", s, err)
	}
	if x > sdes.SDES_MAX_BLOCK {
		return 0, WrapError(sdes.ErrInvalidBlock)
	}
	return uint16(x), nil
}

func ParseBlocks(blocks []string, format string) ([]uint16, error) {
	out := make([]uint16, 0, len(blocks))
	for _, b := range blocks {
		x, err := ParseBlock(b, format)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

// FormatBlock renders a block; unknown formats fall back to hex
func FormatBlock(x uint16, format string) string {
	switch format {
	case config.FormatDec:
		return strconv.Itoa(int(x))
	case config.FormatBin:
		return fmt.Sprintf("0b%012b", x)
	case config.FormatB32:
		return sdes.EncodeString(x)
	default:
		return fmt.Sprintf("0x%03x", x)
	}
}
