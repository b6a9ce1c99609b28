package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mobius-looper/mobius-sub008/pkg/hostprofile"
)

// CreateProfilesCmd creates the profiles command.
func CreateProfilesCmd(g *globalOptions) *cobra.Command {
	var host string
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the host profiles",
		Long:  `Lists the resolved host profiles, or with --host the profile a host product name selects.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := g.hostProfiles()
			if err != nil {
				return err
			}
			profiles := set.Profiles()
			if host != "" {
				profiles = []hostprofile.Profile{set.Match(host)}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMATCH\tREWIND\tPPQ\tSAMPLE\tDUP\tTEMPO\tMAXFRAMES\tSUSPENDED")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%v\t%v\t%v\t%d\t%d\t%d\t%s\n",
					p.Name, strings.Join(p.Match, ","), p.RewindsOnResume, p.PPQTransport,
					p.SampleTransport, p.DuplicateLimit, p.TempoCheckInterval, p.MaxFrames, dash(p.Suspended))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Show only the profile selected by this host product name")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
