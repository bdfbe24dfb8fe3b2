package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the persisted recognition settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			effective, _, err := effectiveSettings(st)
			if err != nil {
				return err
			}
			for _, key := range config.SettingKeys() {
				fmt.Printf("%-18s %s\n", key, effective[key])
			}
			return nil
		})
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one effective setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkKey(args[0]); err != nil {
			return err
		}
		return withStore(func(st *store.Store) error {
			effective, _, err := effectiveSettings(st)
			if err != nil {
				return err
			}
			fmt.Println(effective[args[0]])
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Validate and persist a setting; a running service picks it up on restart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := checkKey(key); err != nil {
			return err
		}
		return withStore(func(st *store.Store) error {
			_, persisted, err := effectiveSettings(st)
			if err != nil {
				return err
			}
			persisted[key] = value

			next := cfg
			if err := next.ApplySettings(persisted); err != nil {
				return err
			}
			if err := st.Settings().Set(key, value); err != nil {
				return err
			}
			fmt.Printf("%s = %s\n", key, value)
			return nil
		})
	},
}

var settingsUnsetCmd = &cobra.Command{
	Use:   "unset KEY",
	Short: "Remove a persisted setting so the default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkKey(args[0]); err != nil {
			return err
		}
		return withStore(func(st *store.Store) error {
			return st.Settings().Delete(args[0])
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsUnsetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func withStore(fn func(st *store.Store) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func checkKey(key string) error {
	if !slices.Contains(config.SettingKeys(), key) {
		return fmt.Errorf("%w: unknown setting %q (known: %v)", config.ErrInvalid, key, config.SettingKeys())
	}
	return nil
}

// effectiveSettings returns the environment configuration overlaid with the
// persisted settings, and the persisted settings themselves.
func effectiveSettings(st *store.Store) (map[string]string, map[string]string, error) {
	persisted, err := st.Settings().All()
	if err != nil {
		return nil, nil, err
	}
	if persisted == nil {
		persisted = map[string]string{}
	}

	effective := cfg
	if err := effective.ApplySettings(persisted); err != nil {
		return nil, nil, fmt.Errorf("persisted settings: %w", err)
	}
	return effective.Settings(), persisted, nil
}
