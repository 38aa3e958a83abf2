package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kerbaras/mangasync/pkg/data"
)

var readCmd = &cobra.Command{
	Use:   "read [title-id] [chapter]",
	Short: "Record that you read a chapter",
	Long: `Record that you read a chapter. With --volume the chapter number is read as
the number inside that volume and converted for series whose chapters restart
at every volume. Use --unread to remove a chapter from the opened list.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := titleKey(args[0])
		if err != nil {
			return err
		}
		chapter, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid chapter %q: %w", args[1], err)
		}
		volume, _ := cmd.Flags().GetInt("volume")
		oneshot, _ := cmd.Flags().GetBool("oneshot")
		chapterID, _ := cmd.Flags().GetString("chapter-id")
		unread, _ := cmd.Flags().GetBool("unread")

		if unread {
			if _, err := rt.controller.Unread(cmd.Context(), key, chapter); err != nil {
				return err
			}
			fmt.Printf("Chapter %s marked unread\n", data.FormatChapter(chapter))
			return nil
		}

		var vol *int
		if volume > 0 {
			vol = data.VolumeOf(volume)
		}
		t, err := rt.controller.Read(cmd.Context(), key, data.NewProgress(chapter, vol, oneshot), chapterID)
		if err != nil {
			return err
		}
		fmt.Printf("📖 %s: %s (%s)\n", key, t.Progress, t.Status)
		return nil
	},
}

func init() {
	readCmd.Flags().Int("volume", 0, "Volume the chapter number belongs to")
	readCmd.Flags().Bool("oneshot", false, "The chapter is a oneshot")
	readCmd.Flags().String("chapter-id", "", "MangaDex chapter id")
	readCmd.Flags().Bool("unread", false, "Remove the chapter from the opened list")
}
