package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ashureev/productlens/internal/domain"
)

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var (
		title, description, input, inputFile, industry, urgency string
		noMarket, noPRD, noWireframe                            bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Create a session for a product idea and analyze it",
		Long: `Analyze creates a session from the given product idea, runs the full
analysis and prints the exported result. Without an AI credential
(OPENAI_API_KEY, or ANTHROPIC_API_KEY with LLM_PROVIDER=anthropic) the
demo results are returned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inputFile != "" {
				data, err := os.ReadFile(inputFile)
				if err != nil {
					return fmt.Errorf("read input file: %w", err)
				}
				input = string(data)
			}

			a, err := loadApp(v)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			sess, err := a.svc.CreateSession(ctx, domain.CreateSessionInput{
				Title:                 title,
				Description:           optional(description),
				ProductInput:          input,
				Industry:              optional(industry),
				Urgency:               optional(urgency),
				IncludeMarketResearch: boolPtr(!noMarket),
				GeneratePRD:           boolPtr(!noPRD),
				WireframeGuidance:     boolPtr(!noWireframe),
			})
			if err != nil {
				return err
			}

			sess, err = a.svc.AnalyzeSession(ctx, sess.ID)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "session %s %s\n", sess.ID, sess.Status)
			return writeOutput(cmd.OutOrStdout(), v.GetString("format"), domain.ExportOf(sess))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "product title (required)")
	cmd.Flags().StringVar(&description, "description", "", "short description")
	cmd.Flags().StringVar(&input, "input", "", "product idea text")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "read the product idea from a file")
	cmd.Flags().StringVar(&industry, "industry", "", "target industry")
	cmd.Flags().StringVar(&urgency, "urgency", "", "urgency label")
	cmd.Flags().BoolVar(&noMarket, "no-market-research", false, "skip market research")
	cmd.Flags().BoolVar(&noPRD, "no-prd", false, "skip the product requirements document")
	cmd.Flags().BoolVar(&noWireframe, "no-wireframe", false, "skip wireframe guidance")
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")
	return cmd
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
