package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storia/internal/model/story"
	storyService "storia/internal/service/story"
)

var generateFlags struct {
	templateID  string
	topic       string
	duration    int
	language    string
	imageStyle  string
	mediaType   string
	aspectRatio string
	voiceover   bool
	output      string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a single story from the command line",
	Long: `Run the full story generation pipeline once, without the HTTP server.
The result is printed as JSON (or written to --output). Persistence is skipped;
configure the AI provider via config file or STORIA_AI_* environment variables.`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringVarP(&generateFlags.templateID, "template", "t", "storytelling", "narrative template id")
	flags.StringVar(&generateFlags.topic, "topic", "", "story topic (required)")
	flags.IntVarP(&generateFlags.duration, "duration", "d", 60, "total duration in seconds")
	flags.StringVarP(&generateFlags.language, "language", "l", "en", "narration language")
	flags.StringVar(&generateFlags.imageStyle, "image-style", "", "visual style applied to every scene")
	flags.StringVar(&generateFlags.mediaType, "media-type", "static", "scene media type (static/animated)")
	flags.StringVar(&generateFlags.aspectRatio, "aspect-ratio", "9:16", "aspect ratio")
	flags.BoolVar(&generateFlags.voiceover, "voiceover", false, "synthesize narration voice (requires TTS config)")
	flags.StringVarP(&generateFlags.output, "output", "o", "", "write result JSON to file instead of stdout")

	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	svc, err := storyService.NewStoryServiceFromConfig(ctx, nil, nil, GetConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize story service: %w", err)
	}

	settings := &story.GenerationSettings{
		TemplateID:   generateFlags.templateID,
		Topic:        generateFlags.topic,
		Duration:     generateFlags.duration,
		Language:     generateFlags.language,
		ImageStyle:   generateFlags.imageStyle,
		MediaType:    story.MediaType(generateFlags.mediaType),
		AspectRatio:  generateFlags.aspectRatio,
		HasVoiceover: generateFlags.voiceover,
	}

	result := svc.GenerateStory(ctx, "cli", settings)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	if generateFlags.output != "" {
		if err := os.WriteFile(generateFlags.output, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "result written to %s\n", generateFlags.output)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	if !result.Success {
		return fmt.Errorf("story generation failed: %s", result.Error)
	}
	return nil
}
