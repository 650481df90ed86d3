package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/gdrive-go/internal/config"
	"github.com/tonimelisma/gdrive-go/internal/identity"
)

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a browser and save the grant",
		Long: `Sign in through the browser (authorization code + PKCE on a loopback
redirect) and save the grant for later commands. A saved grant is reused,
refreshing it if needed; --select-account forces the account chooser.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}

	cmd.Flags().Bool("select-account", false, "show the account chooser even if a grant is saved")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the saved grant",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Describe the saved grant",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cc := mustCLIContext(ctx)

	selectAccount, err := cmd.Flags().GetBool("select-account")
	if err != nil {
		return err
	}

	sess, err := newSession(ctx, cc)
	if err != nil {
		return err
	}

	cc.Logger.Info("login started", "select_account", selectAccount)

	if _, err := sess.Tokens.Acquire(ctx, true, selectAccount); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	cc.Logger.Info("login successful")
	cc.Statusf("Login successful.\n")

	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	if err := identity.Logout(config.DefaultTokenPath(), cc.Logger); err != nil {
		return err
	}

	cc.Statusf("Logged out.\n")

	return nil
}

// whoamiOutput is the JSON schema for `whoami --json`.
type whoamiOutput struct {
	ClientID string    `json:"client_id"`
	Scope    string    `json:"scope"`
	Expiry   time.Time `json:"expiry"`
	SavedAt  time.Time `json:"saved_at"`
	Expired  bool      `json:"expired"`
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	st, err := identity.LoadStatus(config.DefaultTokenPath())
	if errors.Is(err, identity.ErrNotLoggedIn) {
		return errors.New("not logged in (run 'gdrive-go login')")
	}

	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return printJSON(os.Stdout, whoamiOutput{
			ClientID: st.ClientID,
			Scope:    st.Scope,
			Expiry:   st.Expiry,
			SavedAt:  st.SavedAt,
			Expired:  st.Expired,
		})
	}

	printWhoamiText(os.Stdout, st)

	return nil
}

func printWhoamiText(w io.Writer, st *identity.Status) {
	state := "valid"
	if st.Expired {
		state = "expired (refreshed on next use)"
	}

	fmt.Fprintf(w, "Client:  %s\n", st.ClientID)
	fmt.Fprintf(w, "Scope:   %s\n", st.Scope)
	fmt.Fprintf(w, "Expiry:  %s, %s\n", formatTime(st.Expiry), state)
	fmt.Fprintf(w, "Saved:   %s\n", formatTime(st.SavedAt))
}
