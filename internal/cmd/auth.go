package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mangiee/restaurant-cli/internal/api"
	"github.com/mangiee/restaurant-cli/internal/authstore"
	"github.com/mangiee/restaurant-cli/internal/config"
	"github.com/mangiee/restaurant-cli/internal/dryrun"
	"github.com/mangiee/restaurant-cli/internal/validation"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Sign in with a one-time password and manage sessions",
		Long:    "Sign in to your Mangiee restaurant account. Sessions are stored in your OS keychain, one per profile.",
	}

	cmd.AddCommand(newAuthSendOTPCmd())
	cmd.AddCommand(newAuthVerifyOTPCmd())
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRegisterCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthRefreshCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthProfilesCmd())
	cmd.AddCommand(newAuthSwitchCmd())

	return cmd
}

func newAuthSendOTPCmd() *cobra.Command {
	var phone string

	cmd := &cobra.Command{
		Use:   "send-otp",
		Short: "Send a one-time password to a phone number",
		Example: strings.TrimSpace(`
  mangiee auth send-otp --phone 9876543210
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			phone = strings.TrimSpace(phone)
			if err := validation.ValidatePhone(phone); err != nil {
				return err
			}
			s, err := openSession()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Auth().SendOTP(cmd.Context(), phone, ""))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, res)
			}
			printText(cmd, "%s\n", firstNonEmpty(res.Message, res.Data.Message, "OTP sent to "+phone))
			return nil
		}),
	}

	cmd.Flags().StringVar(&phone, "phone", "", "10-digit phone number (required)")
	_ = cmd.MarkFlagRequired("phone")
	flagAlias(cmd.Flags(), "phone", "ph")
	return cmd
}

func newAuthVerifyOTPCmd() *cobra.Command {
	var phone, otp string

	cmd := &cobra.Command{
		Use:   "verify-otp",
		Short: "Verify a one-time password and save the session",
		Example: strings.TrimSpace(`
  mangiee auth verify-otp --phone 9876543210 --otp 1234

  # Save under a named profile
  mangiee auth verify-otp --phone 9876543210 --otp 1234 --profile kitchen2
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return verifyAndStore(cmd, strings.TrimSpace(phone), strings.TrimSpace(otp))
		}),
	}

	cmd.Flags().StringVar(&phone, "phone", "", "10-digit phone number (required)")
	cmd.Flags().StringVar(&otp, "otp", "", "One-time password (required)")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("otp")
	flagAlias(cmd.Flags(), "phone", "ph")
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var phone, otp string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Send an OTP, prompt for it and save the session",
		Long: strings.TrimSpace(`
Sign in interactively. An OTP is sent to the phone number and you are prompted
for it. Pass --otp to skip the prompt when you already have a code.
`),
		Example: strings.TrimSpace(`
  mangiee auth login --phone 9876543210
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			phone = strings.TrimSpace(phone)
			if err := validation.ValidatePhone(phone); err != nil {
				return err
			}
			if otp == "" {
				if !isInteractive(cmd) {
					return fmt.Errorf("--otp is required when prompts are disabled")
				}
				s, err := openSession()
				if err != nil {
					return err
				}
				if _, err := checked(s.client.Auth().SendOTP(cmd.Context(), phone, "")); err != nil {
					return err
				}
				otp, err = promptLine(cmd, fmt.Sprintf("Enter the OTP sent to %s: ", phone))
				if err != nil {
					return fmt.Errorf("read OTP: %w", err)
				}
			}
			return verifyAndStore(cmd, phone, strings.TrimSpace(otp))
		}),
	}

	cmd.Flags().StringVar(&phone, "phone", "", "10-digit phone number (required)")
	cmd.Flags().StringVar(&otp, "otp", "", "One-time password (skips sending and prompting)")
	_ = cmd.MarkFlagRequired("phone")
	flagAlias(cmd.Flags(), "phone", "ph")
	return cmd
}

// verifyAndStore runs verify-otp and records the session through the auth
// store. The store's loading and error flags track the exchange.
func verifyAndStore(cmd *cobra.Command, phone, otp string) error {
	if err := validation.ValidatePhone(phone); err != nil {
		return err
	}
	if err := validation.ValidateOTP(otp); err != nil {
		return err
	}
	s, err := openSession()
	if err != nil {
		return err
	}

	s.store.SetLoading(true)
	res, err := checked(s.client.Auth().VerifyOTP(cmd.Context(), phone, otp, ""))
	if err != nil {
		s.store.SetError(err.Error())
		return err
	}
	login := res.Data
	if login.Token == "" {
		s.store.SetError(api.MsgBadResponse)
		return errors.New("login succeeded but no token was returned")
	}
	if err := s.store.SetCredentials(&login.Restaurant, login.Token); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	slog.Debug("signed in", "profile", s.profile, "restaurant", login.Restaurant.ID)

	if isJSON(cmd) {
		return printJSON(cmd, map[string]any{
			"authenticated": true,
			"profile":       s.profile,
			"isProfile":     login.IsProfile,
			"restaurant":    login.Restaurant,
		})
	}
	printText(cmd, "Signed in as %s\n", login.Restaurant.DisplayName())
	if s.profile != "default" {
		printText(cmd, "  Profile: %s\n", s.profile)
	}
	if !login.IsProfile {
		printText(cmd, "\nYour restaurant profile is incomplete. Finish onboarding with:\n  mangiee auth register --business-name ... --email ...\n")
	}
	return nil
}

func newAuthRegisterCmd() *cobra.Command {
	pf := &profileFlags{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Complete restaurant onboarding",
		Long: strings.TrimSpace(`
Submit the restaurant details after the first sign-in. Only the fields you pass
are sent.
`),
		Example: strings.TrimSpace(`
  mangiee auth register --first-name Asha --last-name Rao \
    --business-name "Asha's Kitchen" --email asha@example.com \
    --address "12 MG Road" --pincode 560001 --category Veg
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			update, err := pf.build(cmd)
			if err != nil {
				return err
			}
			if update.IsEmpty() {
				return fmt.Errorf("at least one profile field is required")
			}
			if ok, err := maybeDryRun(cmd, &dryrun.Preview{
				Operation: "register",
				Resource:  "restaurant",
				Method:    "POST",
				Path:      previewEndpoints().Register(),
				Details:   pf.details(cmd),
			}); ok || err != nil {
				return err
			}

			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Auth().Register(cmd.Context(), update, token))
			if err != nil {
				return err
			}
			if err := s.store.UpdateUserProfile(&res.Data.Restaurant); err != nil {
				slog.Warn("could not update stored profile", "error", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, res.Data)
			}
			printText(cmd, "%s\n", firstNonEmpty(res.Data.Message, res.Message, "Registration submitted"))
			return nil
		}),
	}

	pf.register(cmd)
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			st := s.store.Snapshot()
			token, tokenErr := s.token()
			source := "keychain"
			if strings.TrimSpace(env.Token) != "" {
				source = "env"
			}

			if tokenErr != nil {
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{
						"authenticated": false,
						"profile":       s.profile,
						"message":       "Not signed in. Run 'mangiee auth login' first.",
					})
				}
				printText(cmd, "Not signed in.\nRun 'mangiee auth login --phone <number>' to sign in.\n")
				return nil
			}

			exp, hasExp := authstore.TokenExpiry(token)
			expired := hasExp && time.Now().After(exp)

			if isJSON(cmd) {
				payload := map[string]any{
					"authenticated": !expired,
					"profile":       s.profile,
					"base_url":      s.client.Endpoints.Origin(),
					"token":         maskToken(token),
					"source":        source,
				}
				if st.User != nil {
					payload["restaurant"] = st.User.DisplayName()
					payload["restaurant_id"] = st.User.ID
					payload["phone"] = st.User.Phone
				}
				if hasExp {
					payload["expires_at"] = exp.UTC().Format(time.RFC3339)
					payload["expired"] = expired
				}
				if st.LastRoute != "" {
					payload["last_command"] = st.LastRoute
				}
				return printJSON(cmd, payload)
			}

			if expired {
				printText(cmd, "Session expired\n")
			} else {
				printText(cmd, "Signed in\n")
			}
			if st.User != nil {
				printText(cmd, "  Restaurant: %s\n", st.User.DisplayName())
				if st.User.Phone != "" {
					printText(cmd, "  Phone: %s\n", st.User.Phone)
				}
			}
			printText(cmd, "  Profile: %s\n", s.profile)
			printText(cmd, "  API: %s\n", s.client.Endpoints.Origin())
			printText(cmd, "  Token: %s\n", maskToken(token))
			if hasExp {
				printText(cmd, "  Expires: %s\n", exp.Local().Format(time.RFC1123))
			}
			if source == "env" {
				printText(cmd, "  Source: env\n")
			}
			return nil
		}),
	}
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the current token for a fresh one",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, token, err := authed()
			if err != nil {
				return err
			}
			res, err := checked(s.client.Auth().RefreshToken(cmd.Context(), token))
			if err != nil {
				return err
			}
			if res.Data.Token == "" {
				return errors.New("refresh returned no token")
			}
			user := s.store.Snapshot().User
			if err := s.store.SetCredentials(user, res.Data.Token); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}
			if isJSON(cmd) {
				payload := map[string]any{"refreshed": true, "profile": s.profile}
				if exp, ok := authstore.TokenExpiry(res.Data.Token); ok {
					payload["expires_at"] = exp.UTC().Format(time.RFC3339)
				}
				return printJSON(cmd, payload)
			}
			printText(cmd, "Token refreshed\n")
			return nil
		}),
	}
}

func newAuthLogoutCmd() *cobra.Command {
	var localOnly bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored session",
		Long: strings.TrimSpace(`
Notify the server and remove the session from the keychain. The local session
is removed even when the server cannot be reached.
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			token := s.store.Token()
			if token == "" {
				printText(cmd, "No session found.\n")
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{"logged_out": false, "profile": s.profile})
				}
				return nil
			}
			if !localOnly {
				if _, err := checked(s.client.Auth().Logout(cmd.Context(), token)); err != nil {
					slog.Warn("server logout failed", "error", err)
				}
			}
			if err := s.store.ClearCredentials(); err != nil {
				return fmt.Errorf("failed to remove session: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"logged_out": true, "profile": s.profile})
			}
			printText(cmd, "Signed out of profile %s\n", s.profile)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&localOnly, "local", false, "Only remove the local session")
	return cmd
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current := activeProfile()
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"current": current, "profiles": profiles})
			}
			if len(profiles) == 0 {
				printText(cmd, "No saved profiles.\n")
				return nil
			}
			for _, p := range profiles {
				marker := " "
				if p == current {
					marker = "*"
				}
				printText(cmd, "%s %s\n", marker, p)
			}
			return nil
		}),
	}
}

func newAuthSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "switch <profile>",
		Short: "Make a saved profile current",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if _, err := config.LoadSession(name); err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					return fmt.Errorf("profile %q is not signed in", name)
				}
				return err
			}
			if err := config.SetCurrentProfile(name); err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"current": name})
			}
			printText(cmd, "Switched to profile %s\n", name)
			return nil
		}),
	}
}

// maskToken shows only the first and last 4 characters.
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
