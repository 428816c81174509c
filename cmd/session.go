package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/vibast-solutions/ms-go-jobtracker/app/service"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage user sessions",
}

var sessionRevokeCmd = &cobra.Command{
	Use:   "revoke <user_id>",
	Short: "Revoke a user's refresh session, forcing a new login",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		userID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil || userID == 0 {
			return fmt.Errorf("invalid user id %q", args[0])
		}

		cfg, err := loadCommandConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		sessions := newServices(cfg, db).sessions
		if err := sessions.RevokeSession(context.Background(), userID); err != nil {
			if errors.Is(err, service.ErrSessionNotFound) {
				return fmt.Errorf("user %d has no active session", userID)
			}
			return err
		}

		fmt.Printf("revoked session for user %d\n", userID)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionRevokeCmd)
	rootCmd.AddCommand(sessionCmd)
}
