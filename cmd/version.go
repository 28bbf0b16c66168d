package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	m "gcodepp.dev/pkg/gcodepp/internal/model"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the version information",
		Long: `Displays the gcodepp build, the recognized G-code markers and the
configuration in use.`,
		Run: func(cmd *cobra.Command, _ []string) {
			info, _ := debug.ReadBuildInfo()
			printVersion(cmd.OutOrStdout(), info)
		},
	}
}

func printVersion(w io.Writer, info *debug.BuildInfo) {
	version := "unknown"
	goVersion := "unknown"
	revision := ""

	if info != nil {
		if info.Main.Version != "" {
			version = info.Main.Version
		}

		goVersion = info.GoVersion

		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				revision = setting.Value
			}
		}
	}

	config := viper.ConfigFileUsed()
	if _, err := os.Stat(config); config == "" || err != nil {
		config = "none"
	}

	_, _ = fmt.Fprintf(w, "gcodepp version\t%s\n", version)
	if revision != "" {
		_, _ = fmt.Fprintf(w, "revision\t%s\n", revision)
	}

	_, _ = fmt.Fprintf(w, "go version\t%s\n", goVersion)
	_, _ = fmt.Fprintf(w, "markers\t\t%s<N> %s<N>\n", m.LayerCountPrefix, m.LayerPrefix)
	_, _ = fmt.Fprintf(w, "config\t\t%s\n", config)
}

// versionCmd represents the version command.
var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
