package main

import (
	"errors"
	"fmt"

	"github.com/MrEthical07/goParse/authdata"
	"github.com/spf13/cobra"
)

func newMeCmd(a *app) *cobra.Command {
	var sessionToken string

	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the user owning a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.report(cmd, a.client.GetCurrentUser(commandContext(cmd), sessionToken))
		},
	}
	cmd.Flags().StringVar(&sessionToken, "session-token", "", "session token")
	_ = cmd.MarkFlagRequired("session-token")
	return cmd
}

func newSignUpCmd(a *app) *cobra.Command {
	var (
		username, password, email, sessionToken string
		fields                                  map[string]string
	)

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := make(map[string]any, len(fields)+3)
			for k, v := range fields {
				params[k] = v
			}
			params["username"] = username
			params["password"] = password
			if email != "" {
				params["email"] = email
			}
			return a.report(cmd, a.client.SignUp(commandContext(cmd), params, sessionToken))
		},
	}
	f := cmd.Flags()
	f.StringVar(&username, "username", "", "username")
	f.StringVar(&password, "password", "", "password")
	f.StringVar(&email, "email", "", "email address")
	f.StringVar(&sessionToken, "session-token", "", "anonymous session to upgrade")
	f.StringToStringVar(&fields, "field", nil, "extra user fields, key=value")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogInCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with username and password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.report(cmd, a.client.LogIn(commandContext(cmd), username, password))
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newServiceLogInCmd(a *app) *cobra.Command {
	var (
		provider  string
		idToken   string
		anonymous bool
		data      map[string]string
	)

	cmd := &cobra.Command{
		Use:   "service-login",
		Short: "Log in through a third-party provider",
		Long: `Log in through a third-party provider. Auth data comes from exactly one
of --anonymous, --id-token or --auth-data.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			authType, authData, err := serviceAuthData(provider, idToken, anonymous, data)
			if err != nil {
				return err
			}
			call, err := a.client.ServiceLogIn(commandContext(cmd), authType, authData)
			if err != nil {
				return err
			}
			return a.report(cmd, call)
		},
	}
	f := cmd.Flags()
	f.StringVar(&provider, "provider", "", "provider name, e.g. facebook or apple")
	f.StringVar(&idToken, "id-token", "", "OpenID Connect id_token issued by the provider")
	f.BoolVar(&anonymous, "anonymous", false, "log in as a new anonymous user")
	f.StringToStringVar(&data, "auth-data", nil, "provider auth data, key=value")
	return cmd
}

func serviceAuthData(provider, idToken string, anonymous bool, data map[string]string) (string, map[string]any, error) {
	sources := 0
	for _, set := range []bool{idToken != "", anonymous, len(data) > 0} {
		if set {
			sources++
		}
	}
	if sources != 1 {
		return "", nil, errors.New("exactly one of --anonymous, --id-token or --auth-data is required")
	}

	switch {
	case anonymous:
		return authdata.ProviderAnonymous, authdata.Anonymous(), nil
	case provider == "":
		return "", nil, errors.New("--provider is required")
	case idToken != "":
		m, err := authdata.FromIDToken(idToken)
		if err != nil {
			return "", nil, fmt.Errorf("id token: %w", err)
		}
		return provider, m, nil
	default:
		m := make(map[string]any, len(data))
		for k, v := range data {
			m[k] = v
		}
		return provider, m, nil
	}
}

func newResetPasswordCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Email a password reset link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.report(cmd, a.client.ResetPassword(commandContext(cmd), email))
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
