package main

import (
	"fmt"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/taxonomy-server/internal/auth"
)

var (
	tokenGrants []string
	tokenAdmin  bool
)

var tokenCmd = &cobra.Command{
	Use:   "token [subject]",
	Short: "Issue an access token",
	Long: `Issue a PASETO access token for subject, signed with the server key.
Each --grant is "code" for a whole taxonomy, "code/slug" for a subtree, or "*".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		grants, err := auth.ParseGrants(tokenGrants)
		if err != nil {
			return err
		}

		return withContainer(func(injector do.Injector) error {
			tokens := do.MustInvoke[*auth.TokenService](injector)

			token, err := tokens.Issue(args[0], grants, tokenAdmin)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", time.Now().Add(tokens.TokenDuration()).Format(time.RFC3339))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringArrayVarP(&tokenGrants, "grant", "g", nil, "Read grant, repeatable")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Allow taxonomy and term mutations")
}
