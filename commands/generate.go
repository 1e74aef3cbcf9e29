package commands

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"aivideo/models"
	"aivideo/services"
	"aivideo/utils"
)

var (
	genModel      string
	genDuration   int
	genResolution string
	genStyle      string
	genStrength   float64
	genMotion     int
	genMedia      []string
)

var generateCmd = &cobra.Command{
	Use:   "generate [prompt]",
	Short: "Generate a video and add it to history",
	Long: `Generate a video from a text prompt and/or media files.

At most MAX_PENDING_MEDIA media files are attached; extra files are ignored.
Press Ctrl-C to cancel the request.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		var prompt string
		if len(args) > 0 {
			prompt = args[0]
		}

		media, err := ingestFiles(cmd, a, genMedia)
		if err != nil {
			return err
		}

		updates, unsubscribe := a.progress.Subscribe(16)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for state := range updates {
				printProgress(cmd, state)
			}
		}()

		res, record, err := a.session.Generate(ctx, services.SessionRequest{
			Prompt:      prompt,
			Model:       genModel,
			MediaInputs: media,
			Settings: &models.GenerationSettings{
				Duration:     genDuration,
				Resolution:   genResolution,
				Style:        genStyle,
				Strength:     genStrength,
				MotionBucket: genMotion,
			},
		})
		unsubscribe()
		<-done

		if err != nil {
			if errors.Is(err, services.ErrGenerationCancelled) || ctx.Err() != nil {
				return errors.New("generation cancelled")
			}
			return err
		}

		switch formatOutput {
		case "json":
			return printJSON(record)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Video:  %s\n", res.VideoURL)
			fmt.Fprintf(cmd.OutOrStdout(), "ID:     %s\n", res.VideoID)
			if res.Placeholder {
				fmt.Fprintln(cmd.OutOrStdout(), "Note:   the model reply contained no video link; a placeholder was stored")
			}
		}
		return nil
	},
}

func ingestFiles(cmd *cobra.Command, a *app, paths []string) ([]models.MediaDescriptor, error) {
	if len(paths) > a.cfg.MaxPendingMedia {
		fmt.Fprintf(cmd.ErrOrStderr(), "Ignoring %d media file(s) beyond the limit of %d\n", len(paths)-a.cfg.MaxPendingMedia, a.cfg.MaxPendingMedia)
		paths = paths[:a.cfg.MaxPendingMedia]
	}

	files := make([]services.MediaFile, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, fmt.Errorf("failed to open media: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat media: %w", err)
		}
		files = append(files, services.MediaFile{
			Name:   filepath.Base(p),
			Size:   info.Size(),
			Reader: f,
		})
	}

	descs, errs := a.media.IngestBatch(cmd.Context(), len(files), files)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	media := make([]models.MediaDescriptor, len(descs))
	for i, d := range descs {
		media[i] = *d
	}
	return media, nil
}

func printProgress(cmd *cobra.Command, state models.ProgressState) {
	if state.Status == models.ProgressIdle {
		return
	}
	line := fmt.Sprintf("[%s] %3d%% %s", state.Status, state.Progress, state.Message)
	if state.EstimatedTimeRemaining > 0 {
		line += " (about " + utils.FormatETA(state.EstimatedTimeRemaining) + " remaining)"
	}
	fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimSpace(line))
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&genModel, "model", "m", "", "model id (default: the selected model)")
	f.IntVar(&genDuration, "duration", 0, "duration in seconds (default 30)")
	f.StringVar(&genResolution, "resolution", "", "resolution, e.g. 1920x1080")
	f.StringVar(&genStyle, "style", "", "visual style (default cinematic)")
	f.Float64Var(&genStrength, "strength", 0, "transformation strength 0.1-1.0 for media inputs (default 0.7)")
	f.IntVar(&genMotion, "motion", 0, "motion level 1-255 for media inputs (default 127)")
	f.StringArrayVar(&genMedia, "media", nil, "image or video file to include (repeatable)")

	rootCmd.AddCommand(generateCmd)
}
