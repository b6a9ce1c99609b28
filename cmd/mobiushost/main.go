// Command mobiushost drives plugin adapters from a scripted host
// transport. It is used to check beat tracking and host profiles without
// a real host.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mobius-looper/mobius-sub008/pkg/framework/debug"
	"github.com/mobius-looper/mobius-sub008/pkg/hostprofile"
)

type globalOptions struct {
	logLevel string
	profiles string
}

func (g *globalOptions) bind(fs *pflag.FlagSet) {
	fs.StringVar(&g.logLevel, "log-level", "info", "Logging level (trace, debug, info, warn, error, off)")
	fs.StringVar(&g.profiles, "profiles", "", "Host profile file merged over the built in profiles")
}

func (g *globalOptions) logger() (*debug.Logger, error) {
	level, err := debug.ParseLevel(g.logLevel)
	if err != nil {
		return nil, err
	}
	logger := debug.New(os.Stderr, "mobiushost", debug.DefaultFlags)
	logger.SetLevel(level)
	return logger, nil
}

func (g *globalOptions) hostProfiles() (*hostprofile.Set, error) {
	if g.profiles == "" {
		return hostprofile.Defaults(), nil
	}
	return hostprofile.Load(g.profiles)
}

// CreateRootCmd creates the mobiushost command tree.
func CreateRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "mobiushost",
		Short:         "Drive plugin adapters from a scripted host",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.bind(root.PersistentFlags())

	root.AddCommand(CreateRenderCmd(g))
	root.AddCommand(CreateProfilesCmd(g))
	return root
}

func main() {
	if err := CreateRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mobiushost:", err)
		os.Exit(1)
	}
}
