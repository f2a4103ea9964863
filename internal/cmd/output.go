package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// printResult renders a command result in the format selected by --format.
// "table" is handled per-command where tabular output makes sense; commands
// without a table shape fall back to text.
func printResult(v any) error {
	switch flagFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "text", "table":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use json, text, or table)", flagFormat)
	}
}
