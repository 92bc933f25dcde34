package main

import (
	"fmt"
	"log/slog"

	"github.com/openmined/projectsync/internal/client/sync"
)

// cliEmitter renders sync events to the terminal and the structured logger.
// It embeds NoopEmitter so it only needs to override the events a
// one-shot CLI invocation actually surfaces to a human.
type cliEmitter struct {
	sync.NoopEmitter
	quiet bool
}

func (e cliEmitter) SyncProjectFinished(dir, fullName string, ok bool) {
	if ok {
		slog.Info("sync finished", "project", fullName, "dir", dir)
		if !e.quiet {
			fmt.Printf("%s %s\n", green.Render("OK"), fullName)
		}
		return
	}
	slog.Error("sync failed", "project", fullName, "dir", dir)
	if !e.quiet {
		fmt.Printf("%s %s\n", red.Render("FAILED"), fullName)
	}
}

func (e cliEmitter) NetworkErrorOccurred(msg, detail string, asDialog bool) {
	slog.Error("network error", "message", msg, "detail", detail)
	if !e.quiet {
		fmt.Printf("%s %s\n", red.Render("ERROR"), msg)
	}
}

func (e cliEmitter) Notify(msg string) {
	slog.Info(msg)
	if !e.quiet {
		fmt.Println(gray.Render(msg))
	}
}

func (e cliEmitter) ListProjectsFinished(items []sync.ProjectListing) {
	for _, item := range items {
		marker := gray.Render("clone")
		if item.HasLocalClone {
			marker = green.Render("synced")
		}
		fmt.Printf("%s/%s %s %s\n", item.Namespace, item.Name, gray.Render(item.Version), marker)
	}
}

func (e cliEmitter) ListProjectsFailed(err error) {
	slog.Error("list projects failed", "error", err)
	fmt.Printf("%s %s\n", red.Render("ERROR"), err)
}

func (e cliEmitter) AuthRequested(fullName string) {
	slog.Warn("credentials rejected", "project", fullName)
	if !e.quiet {
		fmt.Printf("%s %s: run '%s login' to refresh your credentials\n", red.Render("ERROR"), fullName, rootCmd.Use)
	}
}

var _ sync.Emitter = cliEmitter{}
