package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportCmd = &cobra.Command{
	Use:   "export <board>",
	Short: "Write a board as JSON or YAML",
	Long: `Export a board with all of its nodes and connections.

The password is never exported. YAML output uses the same field names as
JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportFormat string
	exportOutput string
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(exportFormat)
	if format != "json" && format != "yaml" && format != "yml" {
		return fmt.Errorf("unsupported format %q: use json or yaml", exportFormat)
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(cmd.Context()) }()

	b, err := resolveUnlocked(cmd, a, args[0])
	if err != nil {
		return err
	}
	b.Password = ""

	var buf bytes.Buffer
	if err := writeJSON(&buf, b); err != nil {
		return err
	}
	data := buf.Bytes()
	if format != "json" {
		if data, err = jsonToYAML(data); err != nil {
			return err
		}
	}

	if exportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s to %s\n", b.Name, exportOutput)
	return nil
}

// jsonToYAML re-encodes a JSON document as YAML, keeping its field names.
func jsonToYAML(data []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
