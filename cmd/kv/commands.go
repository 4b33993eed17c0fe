package kv

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/lucid-kv/lucid/lib/db"
	"github.com/lucid-kv/lucid/lib/store"
	"github.com/spf13/cobra"
)

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key (locked keys keep their value)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd.OutOrStdout(), rpcStore, args[0], args[1])
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value and metadata of a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.OutOrStdout(), rpcStore, args[0])
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair (even if it is locked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcStore.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "delete successfully")
			return nil
		},
	}
	lockCmd = &cobra.Command{
		Use:   "lock [key]",
		Short: "Locks a key, preventing changes of its value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetLock(cmd.OutOrStdout(), rpcStore, args[0], true)
		},
	}
	unlockCmd = &cobra.Command{
		Use:   "unlock [key]",
		Short: "Unlocks a key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetLock(cmd.OutOrStdout(), rpcStore, args[0], false)
		},
	}
	incrCmd = &cobra.Command{
		Use:   "incr [key] [amount]",
		Short: "Adds amount (default 1) to a numeric value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.OutOrStdout(), rpcStore, args, 1)
		},
	}
	decrCmd = &cobra.Command{
		Use:   "decr [key] [amount]",
		Short: "Subtracts amount (default 1) from a numeric value",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.OutOrStdout(), rpcStore, args, -1)
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints information about the database of the shard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := rpcStore.GetDBInfo()
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
)

// --------------------------------------------------------------------------
// Command implementations
// --------------------------------------------------------------------------

func runSet(w io.Writer, s store.IStore, key, value string) error {
	elem, loaded, err := s.Set(key, []byte(value))
	if err != nil {
		return err
	}
	switch {
	case !loaded:
		fmt.Fprintf(w, "key=%s created\n", key)
	case elem.Locked:
		fmt.Fprintf(w, "key=%s is locked, value unchanged\n", key)
	default:
		fmt.Fprintf(w, "key=%s updated, update count=%d\n", key, elem.UpdateCount)
	}
	return nil
}

func runGet(w io.Writer, s store.IStore, key string) error {
	elem, ok, err := s.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(w, "key=%s, found=false\n", key)
		return nil
	}
	printElement(w, key, elem)
	return nil
}

func runSetLock(w io.Writer, s store.IStore, key string, locked bool) error {
	ok, err := s.SetLock(key, locked)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %s not found", key)
	}
	fmt.Fprintf(w, "key=%s, locked=%t\n", key, locked)
	return nil
}

// runAdd adds sign*amount to the value of args[0], amount defaults to 1
func runAdd(w io.Writer, s store.IStore, args []string, sign float64) error {
	amount := 1.0
	if len(args) > 1 {
		var err error
		if amount, err = strconv.ParseFloat(args[1], 64); err != nil {
			return fmt.Errorf("amount must be a number: %w", err)
		}
	}

	ok, err := s.Add(args[0], sign*amount)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %s was not changed (missing, locked or not a number)", args[0])
	}
	return runGet(w, s, args[0])
}

func printElement(w io.Writer, key string, elem db.Element) {
	fmt.Fprintf(w, "key=%s, found=true\n", key)
	fmt.Fprintf(w, "  value:        %s\n", elem.Data)
	fmt.Fprintf(w, "  content tag:  %s\n", elem.ContentTag)
	fmt.Fprintf(w, "  locked:       %t\n", elem.Locked)
	fmt.Fprintf(w, "  update count: %d\n", elem.UpdateCount)
	fmt.Fprintf(w, "  created at:   %s\n", elem.CreatedAt.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "  updated at:   %s\n", elem.UpdatedAt.Format(time.RFC3339Nano))
}
