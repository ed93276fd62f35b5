// Package main provides the geovcs CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geovcs/geovcs/internal/config"
	"github.com/geovcs/geovcs/internal/model"
	"github.com/geovcs/geovcs/internal/objhash"
	"github.com/geovcs/geovcs/pkg/geovcs"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "geovcs",
		Short: "geovcs - distributed, content-addressed, versioned geospatial feature storage",
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("geovcs v%s\n", version)
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new repository",
		RunE:  runInit,
	}
	initCmd.Flags().String("data-dir", ".geovcs", "repository directory")
	initCmd.Flags().Bool("memory", false, "use in-memory backends (testing only)")
	rootCmd.AddCommand(initCmd)

	remoteCmd := &cobra.Command{Use: "remote", Short: "Manage configured remotes"}
	remoteAddCmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a remote",
		Args:  cobra.ExactArgs(2),
		RunE:  runRemoteAdd,
	}
	remoteAddCmd.Flags().String("data-dir", ".geovcs", "repository directory")
	remoteCmd.AddCommand(remoteAddCmd)
	rootCmd.AddCommand(remoteCmd)

	fetchCmd := &cobra.Command{
		Use:   "fetch <remote> <ref>",
		Short: "Fetch a ref's ancestry from a remote, through this repository's sparse filter",
		Args:  cobra.ExactArgs(2),
		RunE:  runFetch,
	}
	fetchCmd.Flags().String("data-dir", ".geovcs", "repository directory")
	fetchCmd.Flags().Bool("allow-empty", true, "emit a placeholder commit when the fetched tip's filtered diff is empty")
	rootCmd.AddCommand(fetchCmd)

	pushCmd := &cobra.Command{
		Use:   "push <remote> <local-ref> <remote-ref>",
		Short: "Push a local ref's history to a remote",
		Args:  cobra.ExactArgs(3),
		RunE:  runPush,
	}
	pushCmd.Flags().String("data-dir", ".geovcs", "repository directory")
	rootCmd.AddCommand(pushCmd)

	logCmd := &cobra.Command{
		Use:   "log <commit>",
		Short: "Show a commit's ancestry, newest first",
		Args:  cobra.ExactArgs(1),
		RunE:  runLog,
	}
	logCmd.Flags().String("data-dir", ".geovcs", "repository directory")
	rootCmd.AddCommand(logCmd)

	txCmd := &cobra.Command{Use: "tx", Short: "Reference transaction operations"}
	txBeginCmd := &cobra.Command{
		Use:   "begin",
		Short: "Open a reference transaction, print HEAD as seen inside it, and abort it",
		RunE:  runTxBegin,
	}
	txBeginCmd.Flags().String("data-dir", ".geovcs", "repository directory")
	txCmd.AddCommand(txBeginCmd)
	rootCmd.AddCommand(txCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	inMemory, _ := cmd.Flags().GetBool("memory")

	cfg := config.LoadFromEnv()
	cfg.Repository.DataDir = dataDir
	cfg.Repository.InMemory = inMemory

	db, err := geovcs.Init(dataDir, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("Initialized geovcs repository in %s\n", dataDir)
	return nil
}

func runRemoteAdd(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	db, err := geovcs.Open(dataDir, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.SetRemote(args[0], args[1]); err != nil {
		return err
	}
	fmt.Printf("Added remote %s -> %s\n", args[0], args[1])
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	allowEmpty, _ := cmd.Flags().GetBool("allow-empty")

	db, err := geovcs.Open(dataDir, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.Fetch(args[0], args[1], allowEmpty)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	fmt.Printf("Fetched %d commit(s); %s now maps to %s\n", result.Fetched, args[1], result.Tip)
	return nil
}

func runPush(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	db, err := geovcs.Open(dataDir, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.Push(args[0], args[1], args[2])
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	fmt.Printf("Pushed %d commit(s) to %s\n", result.Pushed, args[2])
	return nil
}

func runLog(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	db, err := geovcs.Open(dataDir, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	id, err := objhash.Parse(args[0])
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}
	ids, err := db.Log(id)
	if err != nil {
		return err
	}
	for i := len(ids) - 1; i >= 0; i-- {
		fmt.Println(ids[i])
	}
	return nil
}

func runTxBegin(cmd *cobra.Command, args []string) error {
	dataDir, _ := cmd.Flags().GetString("data-dir")

	db, err := geovcs.Open(dataDir, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Abort()

	head, _, err := tx.Refs().GetSymRef(model.HEAD)
	if err != nil {
		return err
	}
	fmt.Printf("Transaction opened; HEAD -> %s\n", head)
	return nil
}
