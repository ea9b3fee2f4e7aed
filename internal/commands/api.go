package commands

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gaborage/facility-client/buildingapi"
)

// passwordEnv supplies the password when --password is omitted.
const passwordEnv = "FACILITY_PASSWORD"

func newFloorsCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "floors",
		Short: "List floors",
		Args:  cobra.NoArgs,
		RunE: withAPI(opts, func(cmd *cobra.Command, _ []string, e *env) error {
			floors, err := e.api.ListFloors(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, floors)
		}),
	}
}

// optionalInt returns nil unless the flag was set explicitly.
func optionalInt(cmd *cobra.Command, name string, v int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func newEmployeesCommand(opts *Options) *cobra.Command {
	var floor int
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List employees, optionally on one floor",
		Args:  cobra.NoArgs,
		RunE: withAPI(opts, func(cmd *cobra.Command, _ []string, e *env) error {
			employees, err := e.api.ListEmployees(cmd.Context(), optionalInt(cmd, "floor", floor))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, employees)
		}),
	}
	cmd.Flags().IntVar(&floor, "floor", 0, "Floor id filter")
	return cmd
}

type registerOptions struct {
	name      string
	email     string
	password  string
	floor     int
	photoPath string
}

func newRegisterCommand(opts *Options) *cobra.Command {
	ro := &registerOptions{}
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register an employee with a photo",
		Example: `  facilityctl register --name "Dana Kim" --password s3cret! --floor 2 --photo dana.jpg`,
		Args: cobra.NoArgs,
		RunE: withAPI(opts, func(cmd *cobra.Command, _ []string, e *env) error {
			photo, err := buildingapi.PhotoFromFile(ro.photoPath)
			if err != nil {
				return err
			}
			result, err := e.api.RegisterEmployee(cmd.Context(), buildingapi.RegistrationForm{
				Name:     ro.name,
				Email:    ro.email,
				Password: passwordOrEnv(ro.password),
				FloorID:  optionalInt(cmd, "floor", ro.floor),
				Photo:    photo,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, result)
		}),
	}
	f := cmd.Flags()
	f.StringVar(&ro.name, "name", "", "Employee name")
	f.StringVar(&ro.email, "email", "", "Employee email")
	f.StringVar(&ro.password, "password", "", "Password (defaults to $"+passwordEnv+")")
	f.IntVar(&ro.floor, "floor", 0, "Floor id")
	f.StringVar(&ro.photoPath, "photo", "", "Photo file (jpg, jpeg or png, at most 10MB)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("photo")
	return cmd
}

func passwordOrEnv(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(passwordEnv)
}

func newHealthCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API health",
		Args:  cobra.NoArgs,
		RunE: withAPI(opts, func(cmd *cobra.Command, _ []string, e *env) error {
			h, err := e.api.HealthCheck(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, h)
		}),
	}
}

func newLoginCommand(opts *Options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: withAPI(opts, func(cmd *cobra.Command, _ []string, e *env) error {
			user, err := e.api.Login(cmd.Context(), email, passwordOrEnv(password))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, user)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Password (defaults to $"+passwordEnv+")")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token and clear it locally",
		Args:  cobra.NoArgs,
		RunE: withAPI(opts, func(cmd *cobra.Command, _ []string, e *env) error {
			if err := e.api.Logout(cmd.Context()); err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, buildingapi.Message{Success: true, Message: "Logged out"})
		}),
	}
}

func newCamerasCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "cameras [id]",
		Short: "List cameras, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: withAPI(opts, func(cmd *cobra.Command, args []string, e *env) error {
			if len(args) == 0 {
				cameras, err := e.api.ListCameras(cmd.Context())
				if err != nil {
					return err
				}
				return printResult(cmd.OutOrStdout(), opts.Output, cameras)
			}
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			camera, err := e.api.GetCamera(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, camera)
		}),
	}
}

func newAlertsCommand(opts *Options) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List alerts",
		Args:  cobra.NoArgs,
		RunE: withAPI(opts, func(cmd *cobra.Command, _ []string, e *env) error {
			alerts, err := e.api.ListAlerts(cmd.Context(), status)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, alerts)
		}),
	}
	cmd.Flags().StringVar(&status, "status", buildingapi.AlertStatusActive, "Alert status filter; empty lists all")
	return cmd
}

func newSnapshotCommand(opts *Options) *cobra.Command {
	var floor int
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch floors, employees and active alerts in one go",
		Args:  cobra.NoArgs,
		RunE: withAPI(opts, func(cmd *cobra.Command, _ []string, e *env) error {
			snap, err := e.api.Snapshot(cmd.Context(), optionalInt(cmd, "floor", floor))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), opts.Output, snap)
		}),
	}
	cmd.Flags().IntVar(&floor, "floor", 0, "Restrict employees to one floor")
	return cmd
}
