package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kahla/internal"
)

var (
	inspectMetaFlag   bool
	inspectFormatFlag string
)

// inspectResult is what a sidecar would contribute, without any catalog.
type inspectResult struct {
	Sidecar    string            `json:"sidecar"`
	Records    []internal.Record `json:"records"`
	Tokens     map[string]string `json:"tokens,omitempty"`
	Unresolved []string          `json:"unresolved_tokens,omitempty"`
	Error      string            `json:"error,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [folder]",
	Short: "Show the tags a folder's sidecar would produce",
	Long: `Parse the sidecar in a single folder and print every image with the tags
that migrate would apply. The digiKam catalog is not opened.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := internal.LoadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("meta") {
			conf.MetaTags = inspectMetaFlag
		}
		return runInspect(args[0], conf, inspectFormatFlag, cmd.OutOrStdout())
	},
}

func runInspect(dir string, conf *internal.Config, format string, out io.Writer) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q: use table or json", format)
	}

	sc, err := internal.LoadSidecar(dir, conf.SidecarName)
	if errors.Is(err, internal.ErrSidecarNotFound) {
		fmt.Fprintf(out, "No %s found in %s.\n", conf.SidecarName, dir)
		return nil
	}
	if err != nil {
		return err
	}

	res := inspectResult{Sidecar: sc.Path}
	var idx *internal.TokenIndex
	if conf.MetaTags {
		idx = internal.BuildTokenIndex(sc.Lines())
		res.Tokens = idx.Names()
	}

	records, stats, err := internal.ExtractRecords(sc.Lines(), idx, internal.ExtractOptions{MetaPrefix: conf.MetaPrefix})
	res.Records = records
	res.Unresolved = stats.UnresolvedTokens
	if err != nil {
		res.Error = err.Error()
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return displayInspect(out, res)
}

func displayInspect(out io.Writer, res inspectResult) error {
	fmt.Fprintf(out, "Sidecar: %s\n\n", res.Sidecar)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IMAGE\tTAGS")
	for _, rec := range res.Records {
		fmt.Fprintf(w, "%s\t%s\n", rec.ImageName, strings.Join(rec.Tags, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if len(res.Tokens) > 0 {
		fmt.Fprintln(out, "\nMeta tokens:")
		tokens := make([]string, 0, len(res.Tokens))
		for t := range res.Tokens {
			tokens = append(tokens, t)
		}
		sort.Strings(tokens)
		for _, t := range tokens {
			fmt.Fprintf(out, "  %s = %s\n", t, res.Tokens[t])
		}
	}
	if len(res.Unresolved) > 0 {
		fmt.Fprintf(out, "\nUnresolved tokens: %s\n", strings.Join(res.Unresolved, ", "))
	}
	if res.Error != "" {
		fmt.Fprintf(out, "\nStopped early: %s\n", res.Error)
	}
	return nil
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectMetaFlag, "meta", false, "Resolve Picasa albums and faces")
	inspectCmd.Flags().StringVar(&inspectFormatFlag, "format", "table", "Output format: table, json")

	rootCmd.AddCommand(inspectCmd)
}
