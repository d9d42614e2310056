package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/api"
)

func newTokenCmd(e *env) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Issue an API bearer token signed with security.jwt.secret",
		Example: `  PVSETTINGS_JWT_SECRET=... pvsettings token dashboard --ttl 720h
  curl -H "Authorization: Bearer $(pvsettings token ops)" localhost:8080/api/v1/devices`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl == 0 {
				ttl = time.Duration(e.cfg.Security.JWT.AccessTokenTTL) * time.Minute
			}
			token, err := api.IssueToken(e.cfg.Security.JWT.Secret, args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default security.jwt.access_token_ttl minutes)")
	return cmd
}
