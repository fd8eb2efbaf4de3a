package main

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"
	"github.com/jesseduffield/yaml"
	"gosuda.org/sdes/internal/app"
	"gosuda.org/sdes/internal/config"
)

var (
	commit      string
	version     = "unversioned"
	date        string
	buildSource = "unknown"

	configFlag    = false
	debuggingFlag = false

	opts   app.Options
	blocks []string
)

func cipherCommand(name, description string, withBlocks bool) *flaggy.Subcommand {
	sc := flaggy.NewSubcommand(name)
	sc.Description = description
	sc.String(&opts.Key, "k", "key", "9-bit master key, e.g. 291 or 0x123")
	sc.Int(&opts.Rounds, "r", "rounds", "Number of rounds, 1 to 9")
	if withBlocks {
		sc.String(&opts.Format, "o", "format", "Block format: hex, dec, bin or b32")
		sc.StringSlice(&blocks, "b", "block", "12-bit block, repeatable")
	}
	return sc
}

func blockCommand(name, description string) *flaggy.Subcommand {
	sc := flaggy.NewSubcommand(name)
	sc.Description = description
	sc.StringSlice(&blocks, "b", "block", "Block to convert, repeatable")
	return sc
}

func main() {
	info := fmt.Sprintf(
		"%s\nDate: %s\nBuildSource: %s\nCommit: %s\nOS: %s\nArch: %s",
		version,
		date,
		buildSource,
		commit,
		runtime.GOOS,
		runtime.GOARCH,
	)

	flaggy.SetName("sdes")
	flaggy.SetDescription("Simplified DES on 12-bit blocks with a 9-bit key")
	flaggy.DefaultParser.AdditionalHelpPrepend = "https://gosuda.org/sdes"

	flaggy.Bool(&configFlag, "c", "config", "Print the current default config")
	flaggy.Bool(&debuggingFlag, "d", "debug", "Write a debug log to the config directory")
	flaggy.SetVersion(info)

	keysCmd := cipherCommand("keys", "Print the round keys for a master key", false)
	encryptCmd := cipherCommand("encrypt", "Encrypt 12-bit blocks", true)
	decryptCmd := cipherCommand("decrypt", "Decrypt 12-bit blocks", true)
	encodeCmd := blockCommand("encode", "Print integer blocks as base32hex")
	decodeCmd := blockCommand("decode", "Print base32hex blocks as integers")
	for _, sc := range []*flaggy.Subcommand{keysCmd, encryptCmd, decryptCmd, encodeCmd, decodeCmd} {
		flaggy.AttachSubcommand(sc, 1)
	}

	flaggy.Parse()

	if configFlag {
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		err := encoder.Encode(config.GetDefaultConfig())
		if err != nil {
			log.Fatal(err.Error())
		}
		fmt.Printf("%v\n", buf.String())
		os.Exit(0)
	}

	appConfig, err := config.NewAppConfig("sdes", version, commit, date, buildSource, debuggingFlag, "")
	if err != nil {
		log.Fatal(err.Error())
	}

	app := app.NewApp(appConfig, os.Stdout)

	switch {
	case keysCmd.Used:
		err = app.Keys(opts)
	case encryptCmd.Used:
		err = app.Encrypt(opts, blocks)
	case decryptCmd.Used:
		err = app.Decrypt(opts, blocks)
	case encodeCmd.Used:
		err = app.Encode(blocks)
	case decodeCmd.Used:
		err = app.Decode(blocks)
	default:
		flaggy.ShowHelpAndExit("")
	}

	if err != nil {
		newErr := errors.Wrap(err, 0)
		app.Log.Error(newErr.ErrorStack())

		if appConfig.Debug {
			log.Fatal(newErr.ErrorStack())
		}
		log.Fatal(err.Error())
	}
}
