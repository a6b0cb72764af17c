package kv

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ValentinKolb/fKV/lib/codec"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
)

var (
	setAsString bool
	infoMetrics bool

	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Long: `Sets the value for a key. Unless --string is given, values that are valid
json are stored as the decoded json value. With --serialize none the value is
stored as raw bytes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			value := parseValue(args[1], kvStore.Serializer().Name(), setAsString)
			if err := kvStore.Set(key, value); err != nil {
				return err
			}
			fmt.Println("set successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := kvStore.Get(args[0])
			if err != nil {
				return err
			}
			fmt.Println(formatValue(value))
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := kvStore.Delete(args[0]); err != nil {
				return err
			}
			fmt.Println("delete successfully")
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			found, err := kvStore.Has(key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", key, found)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Lists all keys (unordered)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for key, err := range kvStore.Keys() {
				if err != nil {
					return err
				}
				fmt.Println(key)
			}
			return nil
		},
	}
	lenCmd = &cobra.Command{
		Use:   "len",
		Short: "Counts the stored entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := kvStore.Len()
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints statistics about the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := kvStore.Store().GetInfo()
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("cannot format info: %w", err)
			}
			fmt.Println(string(out))

			if infoMetrics {
				fmt.Println()
				metrics.WritePrometheus(os.Stdout, false)
			}
			return nil
		},
	}
)

func init() {
	setCmd.Flags().BoolVar(&setAsString, "string", false, "Store the value as string even if it is valid json")
	infoCmd.Flags().BoolVar(&infoMetrics, "metrics", false, "Also print the metrics of this process in prometheus format")
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseValue converts a command line argument into the value handed to the typed store
func parseValue(raw, serialization string, asString bool) any {
	if serialization == codec.SerializationNone {
		return []byte(raw)
	}
	if asString || !json.Valid([]byte(raw)) {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// formatValue renders a stored value for the terminal
func formatValue(v any) string {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case string:
		return t
	}
	out, err := codec.NewJSONSerializer().Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}
