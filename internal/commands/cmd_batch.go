package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/policyview/internal/core/logging"
	"github.com/colonyops/policyview/internal/policyview"
	"github.com/colonyops/policyview/pkg/iojson"
	"github.com/colonyops/policyview/pkg/logutils"
	"github.com/colonyops/policyview/pkg/randid"
)

// maxBatchItems caps a single batch.
const maxBatchItems = 500

type BatchCmd struct {
	flags *Flags
	app   *policyview.App
	fr    *iojson.FileReader[BatchInput]
}

func NewBatchCmd(flags *Flags, app *policyview.App) *BatchCmd {
	return &BatchCmd{
		flags: flags,
		app:   app,
		fr:    &iojson.FileReader[BatchInput]{},
	}
}

func (cmd *BatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "batch",
		Usage: "Look up many policies from JSON input",
		UsageText: `policyview batch [options]

Read from stdin:
  echo '{"lookups":[{"policy":"1","date_to":"2015-04-01"}]}' | policyview batch

Read from file:
  policyview batch -f lookups.json`,
		Description: `Submits every lookup at once and waits for all of them.

Each item is validated with the same rules as the form. Invalid items are
reported with per-field errors and never sent. Requests run concurrently;
a request that fails is reported as "no response" and the cause is written
to the batch log.

Input JSON schema:
  {
    "lookups": [
      {"policy": "1", "date_to": "2015-04-01"}
    ]
  }

Fields:
  policy   - Required. Numeric policy id.
  date_to  - Optional. Statement date (YYYY-MM-DD), defaults to today.

Output is JSON with a batch ID, log file path, counts and one result per
lookup in input order.`,
		Flags: []cli.Flag{
			cmd.fr.Flag(),
		},
		Action: cmd.run,
	})

	return app
}

// BatchInput is the JSON input schema for batch lookups.
type BatchInput struct {
	Lookups []policyview.BatchItem `json:"lookups"`
}

// Validate checks the shape of the input. Field values are checked per item
// when the batch runs.
func (b BatchInput) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("lookups", len(b.Lookups), func(n int) error {
			switch {
			case n == 0:
				return fmt.Errorf("array is empty")
			case n > maxBatchItems:
				return fmt.Errorf("at most %d lookups per batch, got %d", maxBatchItems, n)
			}
			return nil
		}),
	)
}

// BatchOutput is the JSON output schema.
type BatchOutput struct {
	BatchID   string                   `json:"batch_id"`
	LogFile   string                   `json:"log_file"`
	Succeeded int                      `json:"succeeded"`
	Failed    int                      `json:"failed"`
	Results   []policyview.BatchResult `json:"results"`
}

func (cmd *BatchCmd) run(ctx context.Context, c *cli.Command) error {
	out := c.Root().Writer
	batchID := randid.Generate(6)
	logFile := filepath.Join(cmd.flags.LogsDir(), "batch-"+batchID+".log")

	logger, closer, err := logutils.New(cmd.flags.LogLevel, logFile)
	if err != nil {
		return cmd.fail(out, fmt.Sprintf("setup logger: %s", err))
	}
	defer closer()

	logger = logger.Hook(logging.ContextHook{})
	ctx = logging.WithBatchID(ctx, batchID)

	logger.Info().Ctx(ctx).Msg("starting batch lookups")

	input, err := cmd.fr.Read()
	if err != nil {
		logger.Error().Err(err).Msg("failed to read input")
		return cmd.fail(out, fmt.Sprintf("read input: %s", err))
	}
	if err := input.Validate(); err != nil {
		logger.Error().Err(err).Msg("input validation failed")
		return cmd.fail(out, fmt.Sprintf("invalid input: %s", err))
	}

	svc := policyview.NewBatchService(policyview.ClientConfig(cmd.app.Config), logger)
	results := svc.Run(ctx, input.Lookups)

	output := BatchOutput{
		BatchID: batchID,
		LogFile: logFile,
		Results: results,
	}
	for _, r := range results {
		if r.OK() {
			output.Succeeded++
		} else {
			output.Failed++
		}
	}

	logger.Info().
		Ctx(ctx).
		Int("total", len(results)).
		Int("succeeded", output.Succeeded).
		Int("failed", output.Failed).
		Msg("batch lookups complete")

	return iojson.Write(out, output)
}

func (cmd *BatchCmd) fail(w io.Writer, msg string) error {
	if err := iojson.WriteError(w, msg, nil); err != nil {
		return err
	}
	return cli.Exit("", 1)
}
