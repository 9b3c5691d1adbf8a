package main

import (
	"errors"
	"fmt"
	"image/png"
	"os"

	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the shaded moon as a PNG",
	Long: `Render the moon for the selected date with the face overlay on top and
write it as a PNG. If shading is not possible the unshaded image is written
and a warning is logged.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringP("out", "o", "lunie.png", "output PNG path")
	renderCmd.Flags().Bool("closed-eyes", false, "use the closed-eyes face")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString("out")
	closedEyes, _ := cmd.Flags().GetBool("closed-eyes")

	sess, log, done, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	f, err := sess.Render(cmd.Context())
	if err != nil {
		return err
	}
	img := f.Flatten(closedEyes)
	if img == nil {
		return errors.New("no moon image to render")
	}
	if !f.Shaded {
		log.Warn("Writing unshaded image: %s", f.Reason)
	}

	file, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
