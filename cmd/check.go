package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/giftwell/edgegate/internal/core"
	"github.com/giftwell/edgegate/pkg/client"
)

var (
	checkUpstream string
	checkApp      string
	checkDump     bool
)

// checkCmd verifies a session token directly against the upstream,
// bypassing the gateway's cache. Handy for support: it shows exactly
// what the identity provider currently grants.
var checkCmd = &cobra.Command{
	Use:   "check <token>",
	Short: "Verify a session token against the upstream identity provider",
	Example: `  edgegate check eyJhbGc... --upstream https://sso.internal --app gifting
  EDGEGATE_UPSTREAM_URL=https://sso.internal edgegate check eyJhbGc...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := args[0]

		upstream := checkUpstream
		if upstream == "" {
			upstream = viper.GetString(UpstreamURLKey)
		}
		if upstream == "" {
			return fmt.Errorf("upstream address not configured (use --upstream or set EDGEGATE_UPSTREAM_URL)")
		}
		app := checkApp
		if app == "" {
			app = viper.GetString(AppKey)
		}
		if app == "" {
			return fmt.Errorf("app slug not configured (use --app or set EDGEGATE_APP)")
		}

		cli := client.New(upstream, app)

		log.Debug().Msg("Verifying token against upstream...")
		start := time.Now()
		status, body, err := cli.RawVerify(cmd.Context(), token)
		if err != nil {
			return fmt.Errorf("verification unavailable: %w", err)
		}
		log.Debug().Msgf("Upstream answered with status %d in %s", status, time.Since(start).Round(time.Millisecond))

		if checkDump {
			var resp core.VerifyResponse
			if jsonErr := json.Unmarshal(body, &resp); jsonErr == nil {
				log.Info().Msg(spew.Sdump(resp))
			} else {
				log.Info().Msgf("raw body: %s", truncate(string(body), 2048))
			}
		}

		printDecision(core.ClassifyVerification(status, body))
		return nil
	},
}

func printDecision(d core.Decision) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	outcome := d.Kind.String()
	switch d.Kind {
	case core.KindAllowed:
		outcome = green(outcome)
	case core.KindUnavailable:
		outcome = yellow(outcome)
	default:
		outcome = red(outcome)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Outcome", outcome})
	if d.Reason != "" {
		t.AppendRow(table.Row{"Reason", d.Reason})
	}
	if id := d.Identity; id != nil {
		t.AppendRow(table.Row{"User", bold(id.ID)})
		if id.DBID != "" {
			t.AppendRow(table.Row{"DB ID", id.DBID})
		}
		t.AppendRow(table.Row{"Email", id.Email})
		t.AppendRow(table.Row{"Name", id.FullName})
		t.AppendRow(table.Row{"Brands", faint(strings.Join(id.Brands, ", "))})
		t.AppendRow(table.Row{"Apps", faint(strings.Join(id.Apps, ", "))})
		t.AppendRow(table.Row{"Level", bold(id.PermissionLevel)})
	}

	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
	t.Render()
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkUpstream, "upstream", "", "Upstream identity provider base URL")
	checkCmd.Flags().StringVar(&checkApp, "app", "", "Application slug sent to the upstream")
	checkCmd.Flags().BoolVar(&checkDump, "dump", false, "Dump the parsed upstream response")
}
