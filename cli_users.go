package main

import (
	"github.com/spf13/cobra"

	"library-lending/library"
)

func (a *app) userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage library accounts",
	}
	cmd.AddCommand(a.userAddCmd(), a.userListCmd(), a.userResetPasswordCmd(), a.userDeleteCmd())
	return cmd
}

func (a *app) userAddCmd() *cobra.Command {
	var username, email, role string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an account; the password is read from the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd, "Set password: ")
			if err != nil {
				return err
			}
			u, err := a.mgr.Users().Register(cmd.Context(), library.Registration{
				Username: username,
				Email:    email,
				Password: password,
				Role:     library.Role(role),
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, u, func() string {
				return success("User %s (%s) created with ID %s", u.Username, u.Role, u.ID)
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "login name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(library.RoleStudent), "admin, student or teacher")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) userListCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			users, err := a.mgr.Users().List(cmd.Context(), library.UserFilter{Role: library.Role(role)})
			if err != nil {
				return err
			}
			return a.emit(cmd, users, func() string {
				rows := make([][]string, 0, len(users))
				for _, u := range users {
					rows = append(rows, []string{u.ID, u.Username, u.Email, string(u.Role), formatDate(u.CreatedAt)})
				}
				return renderTable([]string{"ID", "Username", "Email", "Role", "Joined"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "only list users with this role")
	return cmd
}

func (a *app) userResetPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username>",
		Short: "Set a new password for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := a.mgr.Users().GetByUsername(ctx, args[0])
			if err != nil {
				return err
			}
			password, err := readPassword(cmd, "New password: ")
			if err != nil {
				return err
			}
			if err := a.mgr.Users().ResetPassword(ctx, u.ID, password); err != nil {
				return err
			}
			return a.emit(cmd, map[string]string{"id": u.ID, "username": u.Username}, func() string {
				return success("Password updated for %s", u.Username)
			})
		},
	}
}

func (a *app) userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account; its borrow and reservation history is kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := a.mgr.Users().GetByUsername(ctx, args[0])
			if err != nil {
				return err
			}
			if _, err := a.mgr.Users().Delete(ctx, u.ID); err != nil {
				return err
			}
			return a.emit(cmd, map[string]any{"id": u.ID, "deleted": true}, func() string {
				return success("User %s deleted", u.Username)
			})
		},
	}
}
