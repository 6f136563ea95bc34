package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/agent"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/urfave/cli/v3"
)

// requireArgs returns exactly n positional arguments
func requireArgs(cmd *cli.Command, names ...string) ([]string, error) {
	if cmd.NArg() != len(names) {
		return nil, goerr.New("wrong number of arguments",
			goerr.V("expected", names),
			goerr.V("got", cmd.Args().Slice()),
			goerr.T(apperr.ErrTagInvalidInput))
	}
	return cmd.Args().Slice(), nil
}

func parseRefs(values []string) ([]agent.Ref, error) {
	refs := make([]agent.Ref, 0, len(values))
	for _, v := range values {
		ref, err := agent.ParseRef(v)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// readInput reads a local file, or stdin when path is "-"
func readInput(path string) ([]byte, error) {
	if path == "" {
		return nil, goerr.New("--file is required", goerr.T(apperr.ErrTagInvalidInput))
	}

	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read stdin")
		}
		return data, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read file",
			goerr.V("path", path),
			goerr.T(apperr.ErrTagInvalidInput))
	}
	return data, nil
}
