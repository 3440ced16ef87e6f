/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputYAML = "yaml"
	outputJSON = "json"
)

func validOutput(format string) error {
	switch strings.ToLower(format) {
	case outputText, outputYAML, outputJSON:
		return nil
	default:
		return fmt.Errorf("invalid output format %q (valid: text, yaml, json)", format)
	}
}

// writeStructured encodes v as yaml or json. Text output is left to the
// caller.
func writeStructured(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return validOutput(format)
	}
}
