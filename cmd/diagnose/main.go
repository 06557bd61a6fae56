// Command diagnose streams a plant diagnosis from a running server and prints
// each milestone as it arrives.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"plant-doctor-be/pkg/diagnosis"
	"plant-doctor-be/pkg/sse"
	"plant-doctor-be/pkg/sse/client"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		server     string
		token      string
		file       string
		timeout    time.Duration
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "diagnose [image-url]",
		Short: "Stream a plant diagnosis",
		Long: `Stream a plant diagnosis from a running plant-doctor server.

Examples:
  diagnose https://example.com/leaf.jpg
  diagnose --file ./leaf.jpg --token $TOKEN
  diagnose https://example.com/leaf.jpg --json
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			imageRef, err := imageReference(args, file)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return run(ctx, client.New(server, client.WithToken(token)), imageRef, outputJSON)
		},
	}

	cmd.Flags().StringVar(&server, "server", envOr("PLANT_DOCTOR_URL", "http://localhost:3000"), "Server base URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("PLANT_DOCTOR_TOKEN"), "Bearer token (optional)")
	cmd.Flags().StringVar(&file, "file", "", "Local image, sent inline as a data URI")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Minute, "Overall timeout")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Print the final result as JSON")

	return cmd
}

func run(ctx context.Context, c *client.Client, imageRef string, outputJSON bool) error {
	if !outputJSON {
		color.Cyan("🌱 Diagnosing %s\n", shorten(imageRef))
	}

	state, err := c.Diagnose(ctx, imageRef, func(ev diagnosis.Event, _ sse.State) {
		if !outputJSON {
			printEvent(ev)
		}
	})
	if err != nil && state.Result == nil && state.Error == "" {
		return err
	}

	if state.Error != "" {
		return fmt.Errorf("diagnosis failed: %s", state.Error)
	}
	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state.Result)
	}
	if state.Result != nil {
		color.Green("\n✅ Done in %s", state.Result.CompletedAt.Sub(state.Result.StartedAt).Round(time.Millisecond))
	}
	if state.Gaps > 0 {
		color.Yellow("⚠ %d frame(s) arrived out of sequence", state.Gaps)
	}
	return nil
}

func printEvent(ev diagnosis.Event) {
	switch p := ev.Payload.(type) {
	case diagnosis.MessagePayload:
		color.White("… %s", p.Message)
	case diagnosis.PlantIdentifiedPayload:
		color.Green("🌿 %s (%s) %.0f%%", p.Plant.CommonName, p.Plant.ScientificName, p.Plant.Confidence*100)
	case diagnosis.DiseaseFoundPayload:
		if p.Disease == nil {
			color.White("… %s", p.Message)
			return
		}
		color.Red("🦠 %s %.0f%%", p.Disease.Name, p.Disease.Confidence*100)
	case diagnosis.ChemicalTreatmentsPayload:
		printNames("💊 Chemical", p.Disease, len(p.Treatments), func(i int) string { return p.Treatments[i].Name })
	case diagnosis.BiologicalTreatmentsPayload:
		printNames("🐞 Biological", p.Disease, len(p.Treatments), func(i int) string { return p.Treatments[i].Name })
	case diagnosis.CulturalTreatmentsPayload:
		printNames("🚜 Cultural", p.Disease, len(p.Treatments), func(i int) string { return p.Treatments[i].Name })
	case diagnosis.CarePayload:
		color.Cyan("\n%s\n", p.Care.Advisory.Markdown)
	case diagnosis.ErrorPayload:
		color.Red("✖ %s", p.Error)
	}
}

func printNames(label, disease string, n int, name func(int) string) {
	if n == 0 {
		color.Yellow("%s for %s: none", label, disease)
		return
	}
	color.Yellow("%s for %s:", label, disease)
	for i := 0; i < n; i++ {
		fmt.Printf("   - %s\n", name(i))
	}
}

func imageReference(args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass either an image url or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		mimeType := mime.TypeByExtension(filepath.Ext(file))
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("an image url or --file is required")
	}
}

func shorten(ref string) string {
	if len(ref) > 80 {
		return ref[:77] + "..."
	}
	return ref
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
