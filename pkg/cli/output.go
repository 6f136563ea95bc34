package cli

import (
	"encoding/json"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// writeJSON prints v as indented JSON to the command's writer
func writeJSON(cmd *cli.Command, v any) error {
	return encodeJSON(cmd.Root().Writer, v)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to write output")
	}
	return nil
}

// writeRaw prints data as is to the command's writer
func writeRaw(cmd *cli.Command, data []byte) error {
	if _, err := cmd.Root().Writer.Write(data); err != nil {
		return goerr.Wrap(err, "failed to write output")
	}
	return nil
}
