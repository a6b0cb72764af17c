package memo

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/fKV/lib/memo"
	"github.com/spf13/cobra"
)

var (
	keyExtension string

	// MemoCommands represents the memo command group
	MemoCommands = &cobra.Command{
		Use:   "memo",
		Short: "Inspect memoization caches",
	}

	keyCmd = &cobra.Command{
		Use:   "key [name] [args]",
		Short: "Prints the entry key of a memoized call",
		Long: `Prints the entry key a memoization cache uses for calling the function name
with args. args is the json form of the argument value, e.g. 5 or {"X":1,"Y":2}.
The key is also the file name below <cache>/<key[0:2]>/.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// numbers decode to float64, 5 and 5.0 name the same entry
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				return fmt.Errorf("args must be valid json: %w", err)
			}

			key, err := memo.KeyFor(args[0], value, keyExtension)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
)

func init() {
	keyCmd.Flags().StringVar(&keyExtension, "ext", "json", "Extension of the serialization strategy (json, gob, msgpack)")

	MemoCommands.AddCommand(keyCmd)
}
