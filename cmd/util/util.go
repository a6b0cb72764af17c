package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/fKV/lib/common"
	"github.com/ValentinKolb/fKV/lib/paths"
	"github.com/ValentinKolb/fKV/lib/store"
	"github.com/ValentinKolb/fKV/lib/store/fstore"
	"github.com/ValentinKolb/fKV/lib/store/tstore"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds the flags selecting and configuring the store to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "path"
	cmd.PersistentFlags().String(key, "", WrapString("Root directory of the store (default ~/.fkv/data, or the temp directory if the home directory is not writable)"))

	key = "compress"
	cmd.PersistentFlags().String(key, "none", WrapString("Compression of the entry files (none, zlib, lzma, zstd, snappy, lz4)"))

	key = "serialize"
	cmd.PersistentFlags().String(key, "json", WrapString("Serialization of the values (none, json, gob, msgpack)"))

	key = "lock-slots"
	cmd.PersistentFlags().Int(key, fstore.DefaultLockSlots, WrapString("Number of lock slots guarding file reads and writes"))
}

// SetupLogFlags adds the logging flags to a command
func SetupLogFlags(cmd *cobra.Command) {
	key := "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("Log level (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("fkv")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// InitLogging applies the configured log level to all package loggers
func InitLogging() error {
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetStoreConfig reads the store configuration from viper. An empty path is
// replaced by the default storage path.
func GetStoreConfig() (*common.StoreConfig, error) {
	conf := &common.StoreConfig{
		Path:          viper.GetString("path"),
		Compression:   viper.GetString("compress"),
		Serialization: viper.GetString("serialize"),
		LockSlots:     viper.GetInt("lock-slots"),
		LogLevel:      viper.GetString("log-level"),
	}

	if conf.Path == "" {
		p, err := paths.DefaultStoragePath("data")
		if err != nil {
			return nil, fmt.Errorf("no usable default path: %w", err)
		}
		conf.Path = p
	}
	return conf, nil
}

// OpenStore creates the byte store described by conf
func OpenStore(conf *common.StoreConfig) (store.IStore, error) {
	return fstore.NewFileStore(conf.Path, &fstore.Options{
		Compression: conf.Compression,
		LockSlots:   conf.LockSlots,
	})
}

// OpenTypedStore creates the typed store described by conf
func OpenTypedStore(conf *common.StoreConfig) (*tstore.TypedStore, error) {
	s, err := OpenStore(conf)
	if err != nil {
		return nil, err
	}
	return tstore.New(s, &tstore.Options{Serialization: conf.Serialization})
}
