package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "clipmoment <input>",
		Short:        "Cut highlight clips from a local video using an analysis file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("analysis", "", "Path to the highlight analysis text (required)")
	root.Flags().String("transcript", "", "Path to a timestamped transcript JSON")
	root.Flags().String("aspect", "", "Clip aspect: 9:16, 1:1 or 16:9")
	root.Flags().String("duration", "", "Clip duration bucket, e.g. 30s-59s")
	root.Flags().String("out", "", "Output directory")
	root.Flags().String("cascade", "", "Path to a face cascade for thumbnails")
	root.Flags().String("config", "clipmoment.yaml", "Path to the config file")
	root.Flags().BoolP("verbose", "v", false, "Debug logging")
	_ = root.MarkFlagRequired("analysis")

	// Hidden tuning flags (internal)
	root.Flags().Int("workers", 0, "Parallel segment tasks (0 = CPU count)")
	root.Flags().Int("total-sec", 0, "Override probed video duration")
	_ = root.Flags().MarkHidden("workers")
	_ = root.Flags().MarkHidden("total-sec")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
