package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/lunie/internal/ui"
)

const defaultANSIWidth = 60

var ansiCmd = &cobra.Command{
	Use:   "ansi",
	Short: "Print the shaded moon as true-color terminal art",
	Args:  cobra.NoArgs,
	RunE:  runANSI,
}

func init() {
	ansiCmd.Flags().IntP("width", "w", 0, "width in columns (default: terminal width, or 60)")
	ansiCmd.Flags().Bool("color", false, "emit true-color escapes even when not writing to a terminal")
	rootCmd.AddCommand(ansiCmd)
}

func runANSI(cmd *cobra.Command, _ []string) error {
	width, _ := cmd.Flags().GetInt("width")
	forceColor, _ := cmd.Flags().GetBool("color")

	if width <= 0 {
		width = defaultANSIWidth
		if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
			if w, _, err := term.GetSize(fd); err == nil && w > 0 {
				width = w
			}
		}
	}
	if forceColor {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}

	sess, _, done, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer done()

	f, err := sess.Render(cmd.Context())
	if err != nil {
		return err
	}
	img := f.Flatten(false)
	if img == nil {
		return errors.New("no moon image to render")
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, ui.HalfBlock(img, width, 0))
	if f.HasRecord {
		fmt.Fprintln(w, f.Record.InfoLine())
	}
	return nil
}
