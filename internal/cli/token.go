package cli

import (
	"errors"
	"fmt"

	"TeamPulse/internal/pkg"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// NewTokenCommand 给运维接口签发 access token
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:          "token",
		Short:        "Issue a bearer token for the ops API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user is required")
			}
			cfg, err := loadConfig(rootOpts, cmd)
			if err != nil {
				return err
			}
			issuer, err := pkg.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			tok, exp, err := issuer.Issue(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s (%s)\n", humanize.Time(exp), exp.Format("2006-01-02 15:04 MST"))
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "user id the token is issued for")
	return cmd
}
