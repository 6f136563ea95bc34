package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/inari/pkg/domain/model/capability"
	"github.com/m-mizutani/inari/pkg/domain/types/apperr"
	"github.com/m-mizutani/inari/pkg/service/seed"
	"github.com/urfave/cli/v3"
)

// CmdGenerateSeed returns the generate-seed command
func CmdGenerateSeed() *cli.Command {
	var (
		outputPath string
		force      bool
	)

	return &cli.Command{
		Name:    "generate-seed",
		Aliases: []string{"g"},
		Usage:   "Generate a seed document template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "output",
				Usage:       "Output file path",
				Value:       "seed.yaml",
				Destination: &outputPath,
			},
			&cli.BoolFlag{
				Name:        "force",
				Usage:       "Overwrite existing file",
				Destination: &force,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if _, err := os.Stat(outputPath); err == nil && !force {
				return goerr.New("file already exists, use --force to overwrite",
					goerr.V("path", outputPath),
					goerr.T(apperr.ErrTagInvalidInput))
			}

			if err := GenerateSeedFile(outputPath); err != nil {
				return err
			}

			ctxlog.From(ctx).Info("seed template generated", "path", outputPath)
			w := cmd.Root().Writer
			fmt.Fprintf(w, "Seed template generated: %s\n", outputPath)
			fmt.Fprintln(w, "\nNext steps:")
			fmt.Fprintln(w, "1. Register the tools and context types your agents use")
			fmt.Fprintln(w, "2. Edit the definitions and extensions")
			fmt.Fprintln(w, "3. Apply it with --file-storage-path and --seed, or the seed command")
			return nil
		},
	}
}

// GenerateSeedFile writes SeedTemplate to path
func GenerateSeedFile(path string) error {
	data, err := seed.Marshal(SeedTemplate())
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return goerr.Wrap(err, "failed to write seed template", goerr.V("path", path))
	}
	return nil
}

// SeedTemplate returns a small but complete seed document
func SeedTemplate() *seed.Document {
	active := true
	appendPrompt := "Keep it brief and restful."
	smsTokens := 160
	noTools := []string{}

	return &seed.Document{
		Tools: []capability.Descriptor{
			{Name: "get_workout", Description: "Fetch the scheduled workout"},
		},
		Contexts: []capability.Descriptor{
			{Name: "user_profile", Description: "Profile of the current user"},
		},
		Definitions: []seed.Definition{
			{
				AgentID:            "workout:message",
				SystemPrompt:       "Format the workout for the user.",
				UserPromptTemplate: "Workout: {{workout}}",
				Model:              "gpt-4o-mini",
				Temperature:        0.3,
				MaxTokens:          512,
				ToolIDs:            []string{"get_workout"},
				ContextTypes:       []string{"user_profile"},
				SchemaJSON: map[string]any{
					"type":     "object",
					"required": []string{"message"},
				},
				IsActive: &active,
			},
		},
		Extensions: []seed.Extension{
			{
				AgentID:          "workout:message",
				ExtensionType:    "tone",
				ExtensionKey:     "rest_day",
				Description:      "Wording for rest days",
				SystemPrompt:     &appendPrompt,
				SystemPromptMode: "append",
			},
			{
				AgentID:       "workout:message",
				ExtensionType: "channel",
				ExtensionKey:  "sms",
				Description:   "Short replies without tools",
				MaxTokens:     &smsTokens,
				ToolIDs:       &noTools,
			},
		},
	}
}
