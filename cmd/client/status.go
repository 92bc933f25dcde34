package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/openmined/projectsync/internal/client/registry"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newStatusCmd())
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show local disk usage and known project clones",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			fmt.Printf("%s%s\n", gray.Render("Data Dir "), cyan.Render(cfg.DataDir))

			if usage, err := disk.Usage(cfg.DataDir); err == nil {
				fmt.Printf("%s%.1f%% used, %s free\n", gray.Render("Disk     "), usage.UsedPercent, humanize.Bytes(usage.Free))
			}

			if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
				if mem, err := proc.MemoryInfo(); err == nil {
					fmt.Printf("%s%s RSS\n", gray.Render("Process  "), humanize.Bytes(mem.RSS))
				}
			}

			store, err := registry.Open(cfg.DataDir + "/.projectsync.db")
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List()
			if err != nil {
				return err
			}

			fmt.Printf("\n%s\n", gray.Render(fmt.Sprintf("%d known projects", len(entries))))
			for _, e := range entries {
				fmt.Printf("  %s %s v%d\n", green.Render(e.FullName), gray.Render(e.Dir), e.Version)
			}

			return nil
		},
	}
}
