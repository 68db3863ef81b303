// Command studio drives the suggestion and refinement pipeline from the
// terminal, without a database or running API server.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"promptstudio/internal/domain/promptspec"
	"promptstudio/internal/infra"
	"promptstudio/internal/providers/advisor"
	"promptstudio/internal/templates"
)

var (
	flagProvider string
	flagModel    string
	flagCount    int
	flagStyle    string
	flagMood     string
	flagNegative string
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "studio",
		Short: "Prompt suggestion and refinement toolkit",
		Long:  "studio collects prompt suggestions and refines prompt specs using the configured LLM advisor, falling back to canned output when no key is set.",
	}
	root.PersistentFlags().StringVar(&flagProvider, "provider", "", "advisor provider (claude, openai, static); defaults to ADVISOR_PROVIDER or static")
	root.PersistentFlags().StringVar(&flagModel, "model", "", "target media model (nano-banana, seedream, seeddance)")

	suggestCmd := &cobra.Command{
		Use:   "suggest <subject>",
		Short: "Collect prompt suggestions for a subject",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSuggest,
	}
	suggestCmd.Flags().IntVar(&flagCount, "count", 10, "number of suggestions to collect")

	refineCmd := &cobra.Command{
		Use:   "refine <subject>",
		Short: "Refine a prompt spec into one polished prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRefine,
	}
	refineCmd.Flags().StringVar(&flagStyle, "style", "", "visual style")
	refineCmd.Flags().StringVar(&flagMood, "mood", "", "mood")
	refineCmd.Flags().StringVar(&flagNegative, "negative", "", "things to avoid")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "List available template packs",
		RunE:  runModels,
	}

	root.AddCommand(suggestCmd, refineCmd, modelsCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildPipeline() (*templates.Registry, advisor.Advisor, string, error) {
	registry, err := templates.Load(os.Getenv("TEMPLATE_DIR"))
	if err != nil {
		return nil, nil, "", err
	}

	provider := flagProvider
	if provider == "" {
		provider = os.Getenv("ADVISOR_PROVIDER")
	}
	if provider == "" {
		provider = "static"
	}

	static := advisor.NewStaticAdvisor(registry)
	httpClient := &http.Client{Timeout: 60 * time.Second}
	onFallback := func(reason string) {
		fmt.Fprintf(os.Stderr, "note: falling back to static advisor (%s)\n", reason)
	}

	switch provider {
	case "claude":
		adv, err := advisor.NewClaudeAdvisor(advisor.ClaudeAdvisorOptions{
			APIKey:     os.Getenv("ANTHROPIC_API_KEY"),
			Model:      os.Getenv("ANTHROPIC_MODEL"),
			HTTPClient: httpClient,
			Registry:   registry,
			Fallback:   static,
			OnFallback: onFallback,
		})
		return registry, adv, provider, err
	case "openai":
		adv, err := advisor.NewOpenAIAdvisor(advisor.OpenAIAdvisorOptions{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			Model:      os.Getenv("OPENAI_MODEL"),
			HTTPClient: httpClient,
			Registry:   registry,
			Fallback:   static,
			OnFallback: onFallback,
			OnWarning: func(msg string) {
				fmt.Fprintln(os.Stderr, "note: "+msg)
			},
		})
		return registry, adv, provider, err
	case "static":
		return registry, static, provider, nil
	default:
		return nil, nil, "", fmt.Errorf("unknown provider %q", provider)
	}
}

func specFromArgs(args []string) promptspec.Spec {
	spec := promptspec.Spec{
		Subject:  args[0],
		Style:    flagStyle,
		Mood:     flagMood,
		Negative: flagNegative,
	}
	spec.Normalize()
	return spec
}

func runSuggest(cmd *cobra.Command, args []string) error {
	registry, adv, provider, err := buildPipeline()
	if err != nil {
		return err
	}
	logger := infra.NewLogger("development", "studio")
	suggester, err := advisor.NewSuggester(advisor.SuggesterOptions{
		Advisor:  adv,
		Provider: provider,
		Registry: registry,
		Logger:   &logger,
	})
	if err != nil {
		return err
	}

	run, err := suggester.Suggest(cmd.Context(), advisor.SuggestRequest{
		Spec:        specFromArgs(args),
		TargetModel: flagModel,
		Count:       flagCount,
	})
	if err != nil {
		return err
	}

	fmt.Printf("collected %d/%d suggestions for %s (%d attempts", run.Collected, run.Requested, run.TargetModel, run.Attempts)
	if run.FallbackUsed {
		fmt.Print(", fallback used")
	}
	fmt.Println(")")
	for i, item := range run.Items {
		if item.Label != "" {
			fmt.Printf("%2d. [%s] %s\n", i+1, item.Label, item.Text)
			continue
		}
		fmt.Printf("%2d. %s\n", i+1, item.Text)
	}
	return nil
}

func runRefine(cmd *cobra.Command, args []string) error {
	_, adv, _, err := buildPipeline()
	if err != nil {
		return err
	}
	res, err := adv.Refine(cmd.Context(), advisor.RefineRequest{
		Spec:        specFromArgs(args),
		TargetModel: flagModel,
	})
	if err != nil {
		return err
	}
	fmt.Printf("title:  %s\n", res.Title)
	fmt.Printf("prompt: %s\n", res.Prompt)
	if len(res.Tags) > 0 {
		fmt.Printf("tags:   %v\n", res.Tags)
	}
	fmt.Printf("via:    %s\n", res.Provider)
	return nil
}

func runModels(cmd *cobra.Command, args []string) error {
	registry, err := templates.Load(os.Getenv("TEMPLATE_DIR"))
	if err != nil {
		return err
	}
	def := registry.DefaultModel()
	for _, model := range registry.Models() {
		if model == def {
			fmt.Printf("%s (default)\n", model)
			continue
		}
		fmt.Println(model)
	}
	return nil
}
