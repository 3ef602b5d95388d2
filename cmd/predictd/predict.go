package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"predictd/pkg/types"
)

var statsStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

// inputFlags binds the prediction input to flags. Only flags the user set
// override the predictor defaults.
type inputFlags struct {
	in    types.PredictInput
	apply map[string]func(dst *types.PredictInput)
}

func bindInputFlags(f *pflag.FlagSet) *inputFlags {
	b := &inputFlags{}
	in := &b.in
	f.StringVarP(&in.Prompt, "prompt", "p", "", "Prompt to send to the model")
	f.StringVar(&in.SystemPrompt, "system-prompt", "", "System prompt that helps guide system behavior")
	f.IntVar(&in.MaxNewTokens, "max-new-tokens", 0, "Number of new tokens")
	f.Float64Var(&in.Temperature, "temperature", 0, "Randomness of outputs, 0 is deterministic")
	f.Float64Var(&in.TopP, "top-p", 0, "Nucleus sampling probability (stream variant)")
	f.Float64Var(&in.EtaCutoff, "eta-cutoff", 0, "Cutoff for eta sampling (sync variant)")
	f.Float64Var(&in.RepetitionPenalty, "repetition-penalty", 0, "Penalty for repeated words; 1 is no penalty")
	f.IntVar(&in.ExponentialDecayStart, "exponential-decay-start", 0, "Tokens to wait before starting exponential decay")
	f.Float64Var(&in.ExponentialDecayFactor, "exponential-decay-factor", 0, "Decay factor for exponential length decay")
	f.BoolVar(&in.SkipPrompt, "skip-prompt", false, "Skip the prompt in the streamed output (stream variant)")
	f.Int64Var(&in.RandomSeed, "random-seed", 0, "Random seed, 0 for random (stream variant)")
	b.apply = map[string]func(dst *types.PredictInput){
		"prompt":                   func(d *types.PredictInput) { d.Prompt = in.Prompt },
		"system-prompt":            func(d *types.PredictInput) { d.SystemPrompt = in.SystemPrompt },
		"max-new-tokens":           func(d *types.PredictInput) { d.MaxNewTokens = in.MaxNewTokens },
		"temperature":              func(d *types.PredictInput) { d.Temperature = in.Temperature },
		"top-p":                    func(d *types.PredictInput) { d.TopP = in.TopP },
		"eta-cutoff":               func(d *types.PredictInput) { d.EtaCutoff = in.EtaCutoff },
		"repetition-penalty":       func(d *types.PredictInput) { d.RepetitionPenalty = in.RepetitionPenalty },
		"exponential-decay-start":  func(d *types.PredictInput) { d.ExponentialDecayStart = in.ExponentialDecayStart },
		"exponential-decay-factor": func(d *types.PredictInput) { d.ExponentialDecayFactor = in.ExponentialDecayFactor },
		"skip-prompt":              func(d *types.PredictInput) { d.SkipPrompt = in.SkipPrompt },
		"random-seed":              func(d *types.PredictInput) { d.RandomSeed = in.RandomSeed },
	}
	return b
}

// resolve overlays the flags that were set onto defaults.
func (b *inputFlags) resolve(f *pflag.FlagSet, defaults types.PredictInput) types.PredictInput {
	out := defaults
	f.Visit(func(fl *pflag.Flag) {
		if set, ok := b.apply[fl.Name]; ok {
			set(&out)
		}
	})
	return out
}

func newPredictCmd(a *app) *cobra.Command {
	var (
		live     bool
		markdown bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Run a single prediction and print the output",
		Example: "  predictd predict --model-path ~/models/llm -p 'Tell me about AI'\n" +
			"  predictd predict --variant stream --live --skip-prompt=false -p 'Write a haiku'",
		Args: cobra.NoArgs,
	}
	input := bindInputFlags(cmd.Flags())
	cmd.Flags().BoolVar(&live, "live", false, "Print pieces as they are produced")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render the output as markdown")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the prediction response as JSON")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p, err := a.newPredictor()
		if err != nil {
			return err
		}
		defer p.Close()
		ctx := cmd.Context()
		if err := p.Setup(ctx); err != nil {
			return err
		}
		in := input.resolve(cmd.Flags(), p.Defaults())
		out := cmd.OutOrStdout()
		var onPiece func(string) error
		if live && !asJSON {
			onPiece = func(s string) error {
				_, err := io.WriteString(out, s)
				return err
			}
		}
		res, err := p.Predict(ctx, in, onPiece)
		if err != nil {
			return err
		}
		return printResult(out, cmd.ErrOrStderr(), res.Output, types.PredictionMetrics{
			PredictTime: res.Duration.Seconds(),
			Pieces:      res.Pieces,
			Cached:      res.Cached,
		}, printOptions{live: live, markdown: markdown, json: asJSON})
	}
	return cmd
}

type printOptions struct {
	live, markdown, json bool
}

func printResult(out, errOut io.Writer, output string, m types.PredictionMetrics, o printOptions) error {
	switch {
	case o.json:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(types.PredictionResponse{Status: "succeeded", Output: output, Metrics: &m})
	case o.live:
		fmt.Fprintln(out)
	case o.markdown:
		fmt.Fprintln(out, renderMarkdown(output))
	default:
		fmt.Fprintln(out, output)
	}
	stats := fmt.Sprintf("%d pieces in %.2fs", m.Pieces, m.PredictTime)
	if m.Cached {
		stats += " (cached)"
	}
	fmt.Fprintln(errOut, statsStyle.Render(stats))
	return nil
}

// renderMarkdown formats text for the terminal, falling back to plain text.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return text
	}
	rendered, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(rendered, "\n")
}
