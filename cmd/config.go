package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"remotetouch/internal/autostart"
	"remotetouch/internal/config"
	"remotetouch/internal/evdev"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgMgr, err := config.NewManager(logger, configPath)
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfgMgr.Path()); err == nil && !initForce {
			return fmt.Errorf("%s already exists, use --force to overwrite", cfgMgr.Path())
		}
		if err := cfgMgr.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgMgr.Path())
		return nil
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the input devices the client can read",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := evdev.Scan()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		found := 0
		for _, p := range paths {
			d, err := evdev.Open(p, 1, 1, false)
			switch {
			case errors.Is(err, evdev.ErrUnsupportedDevice):
				continue
			case err != nil:
				fmt.Fprintf(out, "%s\n  error: %v\n", p, err)
				continue
			}
			info := d.Decoder().Info()
			fmt.Fprintf(out, "%s\n  Name: %s\n  Kind: %s\n", p, info.Name, info.Kind)
			if info.MultiTouch {
				fmt.Fprintf(out, "  Multitouch: yes\n")
			}
			d.Close()
			found++
		}
		if found == 0 {
			fmt.Fprintln(out, "No usable input devices found")
		}
		return nil
	},
}

var autostartCmd = &cobra.Command{
	Use:   "autostart",
	Short: "Manage starting the client on login",
}

var autostartEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Start the client on login",
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := autostart.New()
		if err != nil {
			return err
		}
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate executable: %w", err)
		}
		runArgs := []string{"run"}
		if configPath != "" {
			abs, err := filepath.Abs(configPath)
			if err != nil {
				return err
			}
			runArgs = append(runArgs, "--config", abs)
		}
		if err := entry.Enable(exe, runArgs...); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Enabled: %s\n", entry.Path)
		return nil
	},
}

var autostartDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop starting the client on login",
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := autostart.New()
		if err != nil {
			return err
		}
		return entry.Disable()
	},
}

var autostartStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the client starts on login",
	RunE: func(cmd *cobra.Command, args []string) error {
		entry, err := autostart.New()
		if err != nil {
			return err
		}
		state := "disabled"
		if entry.IsEnabled() {
			state = "enabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", state, entry.Path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")

	autostartCmd.AddCommand(autostartEnableCmd)
	autostartCmd.AddCommand(autostartDisableCmd)
	autostartCmd.AddCommand(autostartStatusCmd)
}
