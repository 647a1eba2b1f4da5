package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"compilestrength/internal/client"
	"compilestrength/internal/logger"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("COACH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "coach",
		Short:         "Terminal client for the CompileStrength coach",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if v.GetBool("verbose") {
				logger.InitDevelopment()
			}
		},
	}

	root.PersistentFlags().String("server", "http://localhost:8080", "API base URL (env COACH_SERVER)")
	root.PersistentFlags().String("token", "", "access token (env COACH_TOKEN)")
	root.PersistentFlags().BoolP("verbose", "v", false, "log background activity")
	_ = v.BindPFlags(root.PersistentFlags())

	newClient := func() *client.Client {
		return client.New(v.GetString("server"), client.WithToken(v.GetString("token")))
	}

	root.AddCommand(newChatCmd(newClient), newLoginCmd(newClient))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
